package areadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/widgetareas/internal/models"
)

// CreateDocument stores a new document and returns its id.
func (db *AreaDB) CreateDocument(ctx context.Context, content, docType string) (int64, error) {
	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO documents (type, content, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		docType, content, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("document id: %w", err)
	}
	return id, nil
}

// UpdateDocument overwrites a document's content.
func (db *AreaDB) UpdateDocument(ctx context.Context, id int64, content string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE documents SET content = ?, updated_at = ? WHERE id = ?`,
		content, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update document %d: %w", id, models.ErrDocumentNotFound)
	}
	return nil
}

// GetDocument returns a document by id, or nil if it does not exist.
func (db *AreaDB) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	d := &models.Document{}
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, type, content, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Type, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns all documents of a type, most recently updated first.
func (db *AreaDB) ListDocuments(ctx context.Context, docType string) ([]*models.Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, type, content, created_at, updated_at FROM documents WHERE type = ? ORDER BY updated_at DESC, id DESC`,
		docType,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d := &models.Document{}
		if err := rows.Scan(&d.ID, &d.Type, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: iterate: %w", err)
	}
	return docs, nil
}
