package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/output"
)

type documentRow struct {
	ID        int64  `json:"id"`
	Sidebar   string `json:"sidebar,omitempty"`
	Orphan    bool   `json:"orphan"`
	Bytes     int    `json:"bytes"`
	UpdatedAt string `json:"updated_at"`
}

// documentRows pairs stored area documents with the sidebar that references
// them. A document no sidebar references is an orphan, left behind when a
// conversion stored the document but failed to reassign the sidebar.
func documentRows(docs []*models.Document, as models.Assignments) []documentRow {
	owner := make(map[int64]string, len(as))
	ids := make([]string, 0, len(as))
	for id := range as {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if a := as[id]; a.IsDocument() {
			if _, taken := owner[a.DocumentID]; !taken {
				owner[a.DocumentID] = id
			}
		}
	}

	rows := make([]documentRow, 0, len(docs))
	for _, d := range docs {
		sidebar := owner[d.ID]
		rows = append(rows, documentRow{
			ID:        d.ID,
			Sidebar:   sidebar,
			Orphan:    sidebar == "",
			Bytes:     len(d.Content),
			UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List stored widget area documents",
	Long: `List stored widget area documents with the sidebar that uses each one.

Documents no sidebar references are marked as orphans.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		docs, err := store.ListDocuments(ctx, models.DocumentTypeArea)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		as, err := store.Assignments(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		rows := documentRows(docs, as)

		if jsonOutput(cmd) {
			return output.JSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No widget area documents")
			return nil
		}
		orphans := 0
		for i, r := range rows {
			used := r.Sidebar
			if r.Orphan {
				used = "(orphan)"
				orphans++
			}
			fmt.Printf("#%-6d %-24s %6d bytes  updated %s\n", r.ID, used, r.Bytes, output.FormatTimeAgo(docs[i].UpdatedAt))
		}
		if orphans > 0 {
			output.Warning("%d orphaned documents", orphans)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}
