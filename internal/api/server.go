// Package api exposes the content document, the field flattener and edit
// sessions over HTTP, plus a server-rendered admin form.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/internal/config"
	"github.com/goliatone/go-pagecms/internal/openapi"
	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/preview"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/renderers/html"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// AssetsPrefix is where the admin stylesheet is served.
const AssetsPrefix = "/admin/assets"

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithRegistry shares a session registry with the server.
func WithRegistry(registry *editor.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.sessions = registry
		}
	}
}

// WithSpec supplies an already loaded API document.
func WithSpec(spec *openapi.Spec) Option {
	return func(s *Server) {
		if spec != nil {
			s.spec = spec
		}
	}
}

// WithRenderer replaces the admin form renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.form = renderer
		}
	}
}

// WithTheme sets the theme configuration passed to the admin renderer.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		if cfg != nil {
			s.theme = cfg
		}
	}
}

// Server is the HTTP API server for pagecms.
type Server struct {
	router   chi.Router
	store    store.Store
	sessions *editor.Registry
	spec     *openapi.Spec
	form     render.Renderer
	theme    *theme.RendererConfig
	log      *zap.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st store.Store, cfg config.Config, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("api: store is required")
	}
	s := &Server{
		store: st,
		log:   zap.NewNop(),
		cfg:   cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.sessions == nil {
		s.sessions = editor.NewRegistry(cfg.Editor.MaxSessions, cfg.Editor.SessionTTL)
	}
	if s.spec == nil {
		spec, err := openapi.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		s.spec = spec
	}
	if s.form == nil {
		renderer, err := html.New(html.WithMarkdownPreview(true))
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		s.form = renderer
	}
	if s.theme == nil {
		themeCfg, err := DefaultTheme(cfg.Theme)
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		s.theme = themeCfg
	}

	s.setupRoutes()
	return s, nil
}

// Registry returns the session registry so callers can run its cleanup loop.
func (s *Server) Registry() *editor.Registry {
	return s.sessions
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle(AssetsPrefix+"/*", http.StripPrefix(AssetsPrefix+"/", http.FileServer(http.FS(html.AssetsFS()))))

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Route("/api", func(r chi.Router) {
			if s.cfg.ValidateRequests {
				r.Use(s.spec.Middleware(s.log))
			}
			r.Get("/openapi.json", s.handleOpenAPI)

			r.Get("/content", s.handleGetContent)
			r.Patch("/content", s.handleUpdateField)
			r.Get("/pages", s.handleListPages)
			r.Get("/pages/{pageID}/fields", s.handleListFields)
			r.Post("/pages/{pageID}/sessions", s.handleOpenSession)

			r.Get("/sessions/{sessionID}", s.handleGetSession)
			r.Delete("/sessions/{sessionID}", s.handleCloseSession)
			r.Put("/sessions/{sessionID}/fields", s.handleChangeField)
			r.Post("/sessions/{sessionID}/save", s.handleSaveSession)
			r.Post("/sessions/{sessionID}/cancel", s.handleCancelSession)

			r.Post("/preview", s.handlePreview)
		})

		r.Get("/admin/pages/{pageID}", s.handleAdminForm)
		r.Post("/admin/pages/{pageID}", s.handleAdminSubmit)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.spec.JSON())
}

func (s *Server) flattenOptions() []fields.Option {
	return []fields.Option{fields.WithMaxDepth(s.cfg.Editor.MaxDepth)}
}

func (s *Server) sessionOptions(pageID string) []editor.Option {
	opts := []editor.Option{
		editor.WithPage(pageID),
		editor.WithLogger(s.log.Named("editor")),
	}
	if s.cfg.Editor.SanitizeValues {
		opts = append(opts, editor.WithValueFilter(func(_, value string) string {
			return preview.Plain(value)
		}))
	}
	return opts
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string         `json:"error"`
	Path    string         `json:"path,omitempty"`
	Written []editor.Entry `json:"written,omitempty"`
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorResponse{Error: msg})
}
