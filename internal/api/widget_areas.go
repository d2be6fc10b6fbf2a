package api

import (
	"encoding/json"
	"net/http"
)

// UpdateWidgetAreaRequest is the body of PUT/PATCH /v1/widget-areas/{id}.
type UpdateWidgetAreaRequest struct {
	Content *string `json:"content"`
}

// handleListWidgetAreas returns every registered sidebar with its content.
func (s *Server) handleListWidgetAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.resolver.List(r.Context())
	if err != nil {
		writeResolverError(w, r, err)
		return
	}
	s.metrics.RecordResolved(int64(len(areas)))
	writeJSON(w, http.StatusOK, areas)
}

// handleGetWidgetArea returns one sidebar with its content.
func (s *Server) handleGetWidgetArea(w http.ResponseWriter, r *http.Request) {
	data, err := s.resolver.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeResolverError(w, r, err)
		return
	}
	s.metrics.RecordResolved(1)
	writeJSON(w, http.StatusOK, data)
}

// handleUpdateWidgetArea stores new block markup for a sidebar.
func (s *Server) handleUpdateWidgetArea(w http.ResponseWriter, r *http.Request) {
	var req UpdateWidgetAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Content == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}

	id := r.PathValue("id")
	data, err := s.resolver.Update(r.Context(), id, *req.Content)
	if err != nil {
		writeResolverError(w, r, err)
		return
	}
	s.metrics.RecordUpdate()
	logFor(r.Context()).Info("widget area updated", "sidebar", id, "bytes", len(*req.Content))
	writeJSON(w, http.StatusOK, data)
}
