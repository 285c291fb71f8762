package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/preview"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
)

type fieldChange struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

type snapshotResponse struct {
	Page   string                   `json:"page"`
	Status store.Status             `json:"status"`
	Fields []fields.FieldDescriptor `json:"fields"`
	Error  string                   `json:"error,omitempty"`
}

// handleGetContent returns the whole document.
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context())
	if err != nil {
		jsonError(w, "failed to load content: "+err.Error(), storeErrorStatus(err))
		return
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		jsonError(w, "failed to encode content: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleUpdateField writes one field straight to the store.
func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req fieldChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := content.ValidatePath(req.Path); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateField(r.Context(), req.Path, req.Value); err != nil {
		s.log.Warn("field update failed", zap.String("path", req.Path), zap.Error(err))
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListPages lists the pages holding editable content.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context())
	if err != nil {
		jsonError(w, "failed to load content: "+err.Error(), storeErrorStatus(err))
		return
	}
	pages := fields.Pages(&doc)
	if pages == nil {
		pages = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

// handleListFields returns the page snapshot, optionally narrowed by the
// category and path query parameters.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	snap := store.Snapshot(r.Context(), s.store, pageID, s.flattenOptions()...)

	page := render.NewPage(snap, nil)
	render.ApplySubset(&page, subsetFromQuery(r))

	writeJSON(w, http.StatusOK, snapshotResponse{
		Page:   snap.Page,
		Status: snap.Status,
		Fields: page.Fields,
		Error:  page.Error,
	})
}

// handlePreview renders a value as sanitised markdown.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	result, err := preview.Build(req.Value)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func subsetFromQuery(r *http.Request) render.FieldSubset {
	query := r.URL.Query()
	return render.FieldSubset{
		Categories: render.ParseTokenList(query.Get("category")),
		Paths:      render.ParseTokenList(query.Get("path")),
	}
}

// storeErrorStatus maps store and editor errors onto HTTP status codes.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, content.ErrInvalidPath), errors.Is(err, editor.ErrEmptyPath), errors.Is(err, editor.ErrOutsidePage):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, editor.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrPathConflict), errors.Is(err, editor.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, editor.ErrRegistryFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
