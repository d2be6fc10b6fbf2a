package areadb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marcus/widgetareas/internal/models"
)

func newTestDB(t *testing.T) *AreaDB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// --- Option tests ---

func TestAssignmentsEmptyByDefault(t *testing.T) {
	db := newTestDB(t)
	as, err := db.Assignments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if as == nil || len(as) != 0 {
		t.Fatalf("expected empty assignments, got %v", as)
	}
}

func TestSetAssignmentsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	in := models.Assignments{
		"sidebar-1":               models.WidgetAssignment("text-2", "search-3"),
		"footer":                  models.DocumentAssignment(42),
		models.InactiveWidgetsID: models.WidgetAssignment(),
	}
	if err := db.SetAssignments(ctx, in); err != nil {
		t.Fatal(err)
	}
	out, err := db.Assignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := out["sidebar-1"].Widgets; len(got) != 2 || got[0] != "text-2" || got[1] != "search-3" {
		t.Errorf("sidebar-1 = %+v", out["sidebar-1"])
	}
	if !out["footer"].IsDocument() || out["footer"].DocumentID != 42 {
		t.Errorf("footer = %+v", out["footer"])
	}
	if out[models.InactiveWidgetsID].IsDocument() || len(out[models.InactiveWidgetsID].Widgets) != 0 {
		t.Errorf("inactive = %+v", out[models.InactiveWidgetsID])
	}
}

func TestAssignmentsStoredAsOptionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := db.SetAssignments(ctx, models.Assignments{
		"footer":    models.DocumentAssignment(7),
		"sidebar-1": models.WidgetAssignment("text-2"),
	}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	// Read the file back through the cgo driver to check the on-disk shape.
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()

	var value string
	if err := raw.QueryRow(`SELECT value FROM options WHERE name = 'sidebars_widgets'`).Scan(&value); err != nil {
		t.Fatalf("read option: %v", err)
	}
	if value != `{"footer":7,"sidebar-1":["text-2"]}` {
		t.Fatalf("option value = %s", value)
	}
}

func TestWidgetSettingsIgnoresNonNumericKeys(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := setOption(ctx, db.conn, "widget_text", map[string]any{
		"2":            map[string]any{"title": "Hello"},
		"_multiwidget": 1,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := db.WidgetSettings(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[2]["title"] != "Hello" {
		t.Fatalf("settings = %v", got)
	}
}

func TestWidgetSettingsSkipsMalformedEntries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := setOption(ctx, db.conn, "widget_recent-posts", map[string]any{
		"2":            map[string]any{"number": 5},
		"3":            "not an object",
		"_multiwidget": 1,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := db.WidgetSettings(ctx, "recent-posts")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[2]["number"] != 5.0 {
		t.Fatalf("settings = %v", got)
	}
}

func TestSetWidgetSettingsStoresMultiwidgetMarker(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.SetWidgetSettings(ctx, "text", map[int]models.Settings{2: {"title": "Hi"}}); err != nil {
		t.Fatal(err)
	}

	var value string
	if err := db.conn.QueryRow(`SELECT value FROM options WHERE name = 'widget_text'`).Scan(&value); err != nil {
		t.Fatal(err)
	}
	if value != `{"2":{"title":"Hi"},"_multiwidget":1}` {
		t.Fatalf("option value = %s", value)
	}

	got, err := db.WidgetSettings(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[2]["title"] != "Hi" {
		t.Fatalf("settings = %v", got)
	}
}

func TestSetWidgetInstanceKeepsOthers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.SetWidgetSettings(ctx, "text", map[int]models.Settings{2: {"title": "Two"}, 3: {"title": "Three"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetWidgetInstance(ctx, "text", 3, models.Settings{"title": "Edited"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.WidgetSettings(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if got[2]["title"] != "Two" || got[3]["title"] != "Edited" {
		t.Fatalf("settings = %v", got)
	}
}

func TestWidgetSettingsMissingType(t *testing.T) {
	db := newTestDB(t)
	got, err := db.WidgetSettings(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no settings, got %v", got)
	}
}

func TestSeedDefaultsOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sidebars := map[string][]string{"sidebar-1": {"text-2"}}
	settings := map[string]map[int]models.Settings{"text": {2: {"title": "Seeded"}}}

	n, err := db.SeedDefaults(ctx, sidebars, settings)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 options written, got %d", n)
	}

	if err := db.SetWidgetSettings(ctx, "text", map[int]models.Settings{2: {"title": "Edited"}}); err != nil {
		t.Fatal(err)
	}
	n, err = db.SeedDefaults(ctx, map[string][]string{"sidebar-1": {"other-9"}}, settings)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected nothing written on second seed, got %d", n)
	}

	as, _ := db.Assignments(ctx)
	if got := as["sidebar-1"].Widgets; len(got) != 1 || got[0] != "text-2" {
		t.Errorf("assignments overwritten: %+v", as)
	}
	if _, ok := as[models.InactiveWidgetsID]; !ok {
		t.Errorf("inactive bucket not seeded")
	}
	ws, _ := db.WidgetSettings(ctx, "text")
	if ws[2]["title"] != "Edited" {
		t.Errorf("widget settings overwritten: %v", ws)
	}
}

func TestMergeEditorSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MergeEditorSettings(ctx, map[string]any{"maxWidth": 580.0, "hasFixedToolbar": false}); err != nil {
		t.Fatal(err)
	}
	got, err := db.MergeEditorSettings(ctx, map[string]any{"hasFixedToolbar": true})
	if err != nil {
		t.Fatal(err)
	}
	if got["maxWidth"] != 580.0 || got["hasFixedToolbar"] != true {
		t.Fatalf("merged = %v", got)
	}

	stored, err := db.EditorSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored["maxWidth"] != 580.0 || stored["hasFixedToolbar"] != true {
		t.Fatalf("stored = %v", stored)
	}
}

// --- Document tests ---

func TestDocumentLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.CreateDocument(ctx, "<!-- wp:paragraph /-->", models.DocumentTypeArea)
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("unexpected id %d", id)
	}

	if err := db.UpdateDocument(ctx, id, "updated"); err != nil {
		t.Fatal(err)
	}
	d, err := db.GetDocument(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d == nil || d.Content != "updated" || d.Type != models.DocumentTypeArea {
		t.Fatalf("document = %+v", d)
	}

	docs, err := db.ListDocuments(ctx, models.DocumentTypeArea)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != id {
		t.Fatalf("list = %v", docs)
	}
}

func TestDocumentMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	d, err := db.GetDocument(ctx, 999)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatal("expected nil document")
	}
	err = db.UpdateDocument(ctx, 999, "x")
	if !errors.Is(err, models.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- User / API key tests ---

func TestCreateUserCapabilities(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "Editor@Example.COM", "edit_theme_options, upload_files", "edit_theme_options")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "editor@example.com" || !strings.HasPrefix(u.ID, "u_") {
		t.Fatalf("user = %+v", u)
	}
	if len(u.Capabilities) != 2 || !u.Can(CapEditThemeOptions) {
		t.Fatalf("capabilities = %v", u.Capabilities)
	}

	if err := db.SetCapabilities(ctx, "editor@example.com"); err != nil {
		t.Fatal(err)
	}
	found, err := db.GetUserByEmail(ctx, "EDITOR@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.Can(CapEditThemeOptions) {
		t.Fatalf("capabilities not cleared: %+v", found)
	}

	if _, err := db.CreateUser(ctx, " "); err == nil {
		t.Fatal("expected error for empty email")
	}
	if err := db.SetCapabilities(ctx, "ghost@example.com"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestAPIKeyVerify(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := db.CreateUser(ctx, "a@test.com", CapEditThemeOptions)
	plaintext, ak, err := db.GenerateAPIKey(ctx, u.ID, "cli", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(plaintext, apiKeyPrefix) {
		t.Fatalf("key prefix: %s", plaintext)
	}

	gotKey, gotUser, err := db.VerifyAPIKey(ctx, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if gotKey == nil || gotKey.ID != ak.ID || gotKey.LastUsedAt == nil {
		t.Fatalf("key = %+v", gotKey)
	}
	if gotUser == nil || !gotUser.Can(CapEditThemeOptions) {
		t.Fatalf("user = %+v", gotUser)
	}

	gotKey, gotUser, err = db.VerifyAPIKey(ctx, "wa_live_bogus")
	if err != nil || gotKey != nil || gotUser != nil {
		t.Fatalf("bogus key verified: %v %v %v", gotKey, gotUser, err)
	}
}

func TestAPIKeyExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := db.CreateUser(ctx, "b@test.com")
	past := time.Now().UTC().Add(-time.Hour)
	plaintext, _, err := db.GenerateAPIKey(ctx, u.ID, "old", &past)
	if err != nil {
		t.Fatal(err)
	}
	ak, _, err := db.VerifyAPIKey(ctx, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if ak != nil {
		t.Fatal("expired key should not verify")
	}

	if _, _, err := db.GenerateAPIKey(ctx, u.ID, "current", nil); err != nil {
		t.Fatal(err)
	}
	n, err := db.PurgeExpiredAPIKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d keys, want 1", n)
	}
	keys, _ := db.ListAPIKeys(ctx, u.ID)
	if len(keys) != 1 || keys[0].Name != "current" {
		t.Fatalf("remaining keys = %v", keys)
	}
}

func TestAPIKeyRevoke(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, _ := db.CreateUser(ctx, "c@test.com")
	plaintext, ak, _ := db.GenerateAPIKey(ctx, u.ID, "tmp", nil)

	if err := db.RevokeAPIKey(ctx, ak.ID, "u_other"); err == nil {
		t.Fatal("expected error revoking another user's key")
	}
	if err := db.RevokeAPIKey(ctx, ak.ID, u.ID); err != nil {
		t.Fatal(err)
	}
	got, _, _ := db.VerifyAPIKey(ctx, plaintext)
	if got != nil {
		t.Fatal("revoked key still verifies")
	}
	keys, err := db.ListAPIKeys(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %d", len(keys))
	}
}

func TestGenerateAPIKeyUnknownUser(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.GenerateAPIKey(context.Background(), "u_missing", "x", nil); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
