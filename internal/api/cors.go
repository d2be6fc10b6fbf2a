package api

import (
	"net/http"
	"slices"
	"strings"
)

// corsMethods returns the methods a browser may use on path, or "" for
// paths outside the editor API.
func corsMethods(path string) string {
	switch {
	case path == "/v1/widget-areas":
		return "GET, OPTIONS"
	case strings.HasPrefix(path, "/v1/widget-areas/"):
		return "GET, PUT, PATCH, OPTIONS"
	case path == "/v1/widget-editor/settings":
		return "GET, PATCH, OPTIONS"
	}
	return ""
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.config.CORSAllowedOrigins, origin) || slices.Contains(s.config.CORSAllowedOrigins, "*")
}

// CORSMiddleware lets configured block editor origins call the /v1 routes.
// Each route advertises only the methods it serves. Preflights are answered
// here and never reach auth.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		methods := corsMethods(r.URL.Path)
		if origin == "" || methods == "" || len(s.config.CORSAllowedOrigins) == 0 || !s.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
