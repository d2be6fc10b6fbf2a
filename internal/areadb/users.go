package areadb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CapEditThemeOptions allows reading and editing widget areas.
const CapEditThemeOptions = "edit_theme_options"

// User is an account that can hold API keys.
type User struct {
	ID           string
	Email        string
	Capabilities []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Can reports whether the user holds the capability.
func (u *User) Can(capability string) bool {
	return slices.Contains(u.Capabilities, capability)
}

// CreateUser inserts a new user with the given email (lowercased).
func (db *AreaDB) CreateUser(ctx context.Context, email string, capabilities ...string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	id, err := generateID("u_")
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	caps := normalizeCapabilities(capabilities)
	now := time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, capabilities, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, strings.Join(caps, ","), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &User{ID: id, Email: email, Capabilities: caps, CreatedAt: now, UpdatedAt: now}, nil
}

// GetUserByEmail returns the user with the given email (case-insensitive), or nil if not found.
func (db *AreaDB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, email, capabilities, created_at, updated_at FROM users WHERE LOWER(email) = ?`, email,
	))
}

// ListUsers returns all users.
func (db *AreaDB) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, email, capabilities, created_at, updated_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := db.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: iterate: %w", err)
	}
	return users, nil
}

// SetCapabilities replaces a user's capabilities.
func (db *AreaDB) SetCapabilities(ctx context.Context, email string, capabilities ...string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET capabilities = ?, updated_at = ? WHERE LOWER(email) = ?`,
		strings.Join(normalizeCapabilities(capabilities), ","), time.Now().UTC(), email,
	)
	if err != nil {
		return fmt.Errorf("set capabilities: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", email)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *AreaDB) scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var caps string
	err := row.Scan(&u.ID, &u.Email, &caps, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Capabilities = splitCapabilities(caps)
	return u, nil
}

func normalizeCapabilities(caps []string) []string {
	var out []string
	for _, c := range caps {
		for _, part := range strings.Split(c, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	return out
}

func splitCapabilities(s string) []string {
	if s == "" {
		return nil
	}
	return normalizeCapabilities([]string{s})
}
