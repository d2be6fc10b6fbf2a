package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/registry"
	"github.com/marcus/widgetareas/internal/render"
	"github.com/marcus/widgetareas/internal/sidebars"
	"github.com/marcus/widgetareas/internal/widgets"
)

// TestHarness wraps a full Server with a real HTTP listener for integration tests.
type TestHarness struct {
	t        *testing.T
	Server   *Server
	Store    *areadb.AreaDB
	Registry *registry.Registry
	BaseURL  string
	client   *http.Client
	httpSrv  *httptest.Server
}

func intPtr(n int) *int { return &n }

// newTestHarness creates a TestHarness with two sidebars, a text widget in
// sidebar-1 and a real HTTP server on a random port.
func newTestHarness(t *testing.T, opts ...func(*Config)) *TestHarness {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "areas.db")
	store, err := areadb.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	reg := registry.New()
	for _, s := range []models.Sidebar{
		{ID: "sidebar-1", Name: "Main Sidebar"},
		{ID: "footer", Name: "Footer"},
		{ID: "theme/aside", Name: "Aside"},
	} {
		if err := reg.RegisterSidebar(s); err != nil {
			t.Fatalf("register sidebar: %v", err)
		}
	}
	widgets.Register(reg, store)
	text, _ := reg.WidgetTypeByBase("text")
	if err := reg.RegisterWidget(registry.WidgetRegistration{ID: "text-2", Name: "Text", Object: text, Number: intPtr(2)}); err != nil {
		t.Fatalf("register widget: %v", err)
	}
	if _, err := store.SeedDefaults(ctx,
		map[string][]string{"sidebar-1": {"text-2"}},
		map[string]map[int]models.Settings{"text": {2: {"title": "Hello", "text": "<em>world</em>"}}},
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resolver := sidebars.NewResolver(reg, store, store, render.Default(reg), reg.Filters)

	cfg := Config{
		ListenAddr: ":0",
		DBPath:     dbPath,
		RateLimit:  100000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := NewServer(cfg, store, resolver)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	httpSrv := httptest.NewServer(srv.routes())

	h := &TestHarness{
		t:        t,
		Server:   srv,
		Store:    store,
		Registry: reg,
		BaseURL:  httpSrv.URL,
		client:   &http.Client{},
		httpSrv:  httpSrv,
	}

	t.Cleanup(func() {
		httpSrv.Close()
		srv.cancel()
		store.Close()
	})

	return h
}

// Do sends an HTTP request and returns the response.
// Caller must close resp.Body unless using assertion helpers (AssertStatus,
// AssertErrorResponse, ReadJSON) which close it automatically.
func (h *TestHarness) Do(method, path, token string, body any) *http.Response {
	h.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		reader = &buf
	}

	req, err := http.NewRequest(method, h.BaseURL+path, reader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("do request %s %s: %v", method, path, err)
	}
	return resp
}

// CreateUser creates a user holding capabilities and returns an API key for it.
func (h *TestHarness) CreateUser(email string, capabilities ...string) (userID, token string) {
	h.t.Helper()
	ctx := context.Background()

	user, err := h.Store.CreateUser(ctx, email, capabilities...)
	if err != nil {
		h.t.Fatalf("create user: %v", err)
	}
	tok, _, err := h.Store.GenerateAPIKey(ctx, user.ID, "test", nil)
	if err != nil {
		h.t.Fatalf("generate api key: %v", err)
	}
	return user.ID, tok
}

// EditorToken returns a key for a user allowed to edit widget areas.
func (h *TestHarness) EditorToken() string {
	h.t.Helper()
	_, tok := h.CreateUser("editor@example.com", areadb.CapEditThemeOptions)
	return tok
}

// --- Response assertion helpers ---

// AssertStatus checks the HTTP status code matches expected. Reads and closes the body on failure.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected status %d, got %d: %s", expected, resp.StatusCode, string(body))
	}
}

// AssertErrorResponse checks the response has the expected status and error code.
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedCode string) {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != expectedStatus {
		t.Fatalf("expected status %d, got %d: %s", expectedStatus, resp.StatusCode, string(body))
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error.Code != expectedCode {
		t.Fatalf("expected error code %q, got %q: %s", expectedCode, errResp.Error.Code, errResp.Error.Message)
	}
}

// ReadJSON decodes a JSON response body into the given type.
func ReadJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode json response: %v", err)
	}
	return out
}

// AssertCORSHeaders checks the response has the expected CORS origin header.
func AssertCORSHeaders(t *testing.T, resp *http.Response, expectedOrigin string) {
	t.Helper()
	origin := resp.Header.Get("Access-Control-Allow-Origin")
	if origin != expectedOrigin {
		t.Fatalf("expected Access-Control-Allow-Origin %q, got %q", expectedOrigin, origin)
	}
}
