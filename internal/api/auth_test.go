package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestWidgetAreasRequireAuth(t *testing.T) {
	h := newTestHarness(t)

	AssertErrorResponse(t, h.Do("GET", "/v1/widget-areas", "", nil), http.StatusUnauthorized, ErrCodeUnauthorized)
	AssertErrorResponse(t, h.Do("GET", "/v1/widget-areas/sidebar-1", "wa_live_bogus", nil), http.StatusUnauthorized, ErrCodeUnauthorized)

	req, _ := http.NewRequest("GET", h.BaseURL+"/v1/widget-areas", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	AssertErrorResponse(t, resp, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestWidgetAreasRequireCapability(t *testing.T) {
	h := newTestHarness(t)
	_, tok := h.CreateUser("viewer@example.com", "read")

	content := "x"
	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{"GET", "/v1/widget-areas", nil},
		{"GET", "/v1/widget-areas/sidebar-1", nil},
		{"PUT", "/v1/widget-areas/sidebar-1", UpdateWidgetAreaRequest{Content: &content}},
		{"GET", "/v1/widget-editor/settings", nil},
		{"PATCH", "/v1/widget-editor/settings", map[string]any{"a": 1}},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			AssertErrorResponse(t, h.Do(tc.method, tc.path, tok, tc.body), http.StatusForbidden, ErrCodeUserCannotEdit)
		})
	}

	// The permission check runs before the id is looked at.
	AssertErrorResponse(t, h.Do("GET", "/v1/widget-areas/does-not-exist", tok, nil), http.StatusForbidden, ErrCodeUserCannotEdit)

	as, _ := h.Store.Assignments(context.Background())
	if as["sidebar-1"].IsDocument() {
		t.Fatal("forbidden update changed the sidebar")
	}
}

func TestExpiredKeyRejected(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	u, err := h.Store.CreateUser(ctx, "old@example.com", "edit_theme_options")
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().UTC().Add(-time.Minute)
	tok, _, err := h.Store.GenerateAPIKey(ctx, u.ID, "old", &past)
	if err != nil {
		t.Fatal(err)
	}
	AssertErrorResponse(t, h.Do("GET", "/v1/widget-areas", tok, nil), http.StatusUnauthorized, ErrCodeUnauthorized)
}
