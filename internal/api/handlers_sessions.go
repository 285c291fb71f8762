package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// handleOpenSession opens an edit session for a page whose content loads.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	snap := store.Snapshot(r.Context(), s.store, pageID, s.flattenOptions()...)
	if snap.Status == store.StatusUnavailable {
		jsonError(w, "content unavailable: "+snap.Err.Error(), http.StatusServiceUnavailable)
		return
	}

	sess, err := s.sessions.Open(s.store, s.sessionOptions(pageID)...)
	if err != nil {
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	s.log.Info("session opened", zap.String("session", sess.ID()), zap.String("page", pageID))
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Close(id); err != nil {
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	s.log.Info("session closed", zap.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}

// handleChangeField buffers one edit in the session.
func (s *Server) handleChangeField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req fieldChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Change(req.Path, req.Value); err != nil {
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

// handleSaveSession writes the pending edits. A failed write answers 502
// with the failing path and the entries already written.
func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	result, err := sess.SaveAll(r.Context())
	if err != nil {
		var saveErr *editor.SaveError
		if errors.As(err, &saveErr) {
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error:   saveErr.Err.Error(),
				Path:    saveErr.Path,
				Written: saveErr.Written,
			})
			return
		}
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := sess.Cancel(); err != nil {
		jsonError(w, err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), storeErrorStatus(err))
		return nil, false
	}
	return sess, true
}
