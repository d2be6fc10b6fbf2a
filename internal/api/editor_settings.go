package api

import (
	"encoding/json"
	"net/http"
)

// handleGetEditorSettings returns the stored widget editor settings.
func (s *Server) handleGetEditorSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.EditorSettings(r.Context())
	if err != nil {
		logFor(r.Context()).Error("load editor settings", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load editor settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePatchEditorSettings shallow-merges the body into the stored settings.
func (s *Server) handlePatchEditorSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object")
		return
	}

	merged, err := s.store.MergeEditorSettings(r.Context(), patch)
	if err != nil {
		logFor(r.Context()).Error("merge editor settings", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to save editor settings")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}
