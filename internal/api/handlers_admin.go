package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Admin form operations carried by the submit button.
const (
	opSave   = "save"
	opCancel = "cancel"
)

// handleAdminForm renders the edit form. A session query parameter overlays
// that session's pending edits.
func (s *Server) handleAdminForm(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	snap := store.Snapshot(r.Context(), s.store, pageID, s.flattenOptions()...)

	var sess *editor.Session
	if id := r.URL.Query().Get("session"); id != "" {
		if found, err := s.sessions.Get(id); err == nil && found.Page() == pageID {
			sess = found
		}
	}
	s.renderForm(w, r, snap, sess, http.StatusOK, nil)
}

// handleAdminSubmit buffers the submitted values in a session and then saves
// or cancels depending on op. Any other op re-renders the form with the
// session's pending edits.
func (s *Server) handleAdminSubmit(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	snap := store.Snapshot(r.Context(), s.store, pageID, s.flattenOptions()...)
	if snap.Status == store.StatusUnavailable {
		s.renderForm(w, r, snap, nil, http.StatusServiceUnavailable, nil)
		return
	}

	sess, err := s.formSession(r.PostForm.Get(render.HiddenSession), pageID)
	if err != nil {
		s.renderForm(w, r, snap, nil, storeErrorStatus(err), map[string][]string{render.FormErrorKey: {err.Error()}})
		return
	}

	errs := make(map[string][]string)
	for _, field := range snap.Fields {
		values, ok := r.PostForm[field.Path]
		if !ok || len(values) == 0 {
			continue
		}
		value := strings.ReplaceAll(values[0], "\r\n", "\n")
		if value == sess.Value(field.Path, field.Value) {
			continue
		}
		if err := sess.Change(field.Path, value); err != nil {
			errs[field.Path] = append(errs[field.Path], err.Error())
		}
	}
	if len(errs) > 0 {
		s.renderForm(w, r, snap, sess, http.StatusBadRequest, errs)
		return
	}

	switch r.PostForm.Get("op") {
	case opCancel:
		if err := sess.Cancel(); err != nil {
			s.renderForm(w, r, snap, sess, storeErrorStatus(err), render.SaveErrors(err))
			return
		}
		s.closeFormSession(sess)
		http.Redirect(w, r, adminPath(pageID), http.StatusSeeOther)
	case opSave:
		result, err := sess.SaveAll(r.Context())
		if err != nil {
			status := storeErrorStatus(err)
			var saveErr *editor.SaveError
			if errors.As(err, &saveErr) {
				status = http.StatusBadGateway
			}
			s.renderForm(w, r, snap, sess, status, render.SaveErrors(err))
			return
		}
		s.log.Info("admin save", zap.String("page", pageID), zap.Int("written", len(result.Written)))
		s.closeFormSession(sess)
		http.Redirect(w, r, adminPath(pageID), http.StatusSeeOther)
	default:
		s.renderForm(w, r, snap, sess, http.StatusOK, nil)
	}
}

func (s *Server) formSession(id, pageID string) (*editor.Session, error) {
	if id != "" {
		sess, err := s.sessions.Get(id)
		if err == nil && sess.Page() == pageID {
			return sess, nil
		}
	}
	return s.sessions.Open(s.store, s.sessionOptions(pageID)...)
}

func (s *Server) closeFormSession(sess *editor.Session) {
	if err := s.sessions.Close(sess.ID()); err != nil && !errors.Is(err, editor.ErrSessionNotFound) {
		s.log.Warn("close session", zap.String("session", sess.ID()), zap.Error(err))
	}
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, snap store.PageSnapshot, sess *editor.Session, status int, errs map[string][]string) {
	page := render.NewPage(snap, sess)
	out, err := s.form.Render(r.Context(), page, render.Options{
		Action: adminPath(snap.Page),
		Method: http.MethodPost,
		Errors: errs,
		Subset: subsetFromQuery(r),
		Theme:  s.theme,
	})
	if err != nil {
		s.log.Error("render admin form", zap.String("page", snap.Page), zap.Error(err))
		http.Error(w, "failed to render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.form.ContentType())
	w.WriteHeader(status)
	w.Write(out)
}

func adminPath(pageID string) string {
	return "/admin/pages/" + url.PathEscape(pageID)
}
