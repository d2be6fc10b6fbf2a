package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// AuthUser holds the authenticated user information extracted from the API key.
type AuthUser struct {
	UserID       string
	Email        string
	KeyID        string
	Capabilities []string
}

// Can reports whether the user holds the capability.
func (u *AuthUser) Can(capability string) bool {
	return slices.Contains(u.Capabilities, capability)
}

// getUserFromContext returns the authenticated user from the request context, or nil.
func getUserFromContext(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return u
}

// requireAuth returns an http.HandlerFunc that verifies the Bearer token
// and injects AuthUser into the context before calling the inner handler.
func (s *Server) requireAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid authorization format")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		ak, user, err := s.store.VerifyAPIKey(r.Context(), token)
		if err != nil {
			logFor(r.Context()).Error("verify api key", "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to verify key")
			return
		}
		if ak == nil || user == nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired api key")
			return
		}

		authUser := &AuthUser{
			UserID:       user.ID,
			Email:        user.Email,
			KeyID:        ak.ID,
			Capabilities: user.Capabilities,
		}

		ctx := context.WithValue(r.Context(), ctxKeyAuthUser, authUser)
		ctx = context.WithValue(ctx, ctxKeyLogger, logFor(ctx).With("uid", user.ID))
		handler(w, r.WithContext(ctx))
	}
}

// requireCapability authenticates the request and rejects users lacking
// capability before the handler runs.
func (s *Server) requireCapability(capability string, handler http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !getUserFromContext(r.Context()).Can(capability) {
			writeError(w, http.StatusForbidden, ErrCodeUserCannotEdit, "Sorry, you are not allowed to edit sidebars.")
			return
		}
		handler(w, r)
	})
}
