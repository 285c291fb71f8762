// Package html renders an editable page as an HTML form using pongo2
// templates. Theme selections may override any template slot listed in
// render.DefaultPartials.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/render"
	rendertemplate "github.com/goliatone/go-pagecms/pkg/render/template"
	"github.com/goliatone/go-pagecms/pkg/render/template/gotemplate"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Name is the registry name of the HTML renderer.
const Name = "html"

// Template slots.
const (
	SlotLayout   = "page.layout"
	SlotCategory = "page.category"
	SlotInput    = "fields.input"
	SlotTextarea = "fields.textarea"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	partials         map[string]string
	preview          bool
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithPartials overrides individual template slots.
func WithPartials(partials map[string]string) Option {
	return func(cfg *config) {
		for slot, path := range partials {
			if strings.TrimSpace(path) != "" {
				cfg.partials[slot] = path
			}
		}
	}
}

// WithMarkdownPreview renders a sanitised preview under multi-line fields.
func WithMarkdownPreview(enabled bool) Option {
	return func(cfg *config) {
		cfg.preview = enabled
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	partials  map[string]string
	preview   bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		partials:   render.DefaultPartials(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		if cfg.templateFS == nil {
			cfg.templateFS = TemplatesFS()
		}
		engine, err := gotemplate.New(cfg.templateFS)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates: renderer,
		partials:  cfg.partials,
		preview:   cfg.preview,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the edit form for page. Pages that are empty or whose
// content could not be loaded render a notice instead of a form.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.Options) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	render.ApplySubset(&page, opts.Subset)
	partials := r.resolvePartials(opts)

	var categories strings.Builder
	for _, category := range page.Categories {
		markup, err := r.renderCategory(partials, page, category, opts.Errors)
		if err != nil {
			return nil, err
		}
		categories.WriteString(markup)
	}

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "POST"
	}
	hidden := render.MergeHiddenFields(opts.Hidden, render.PageField(page.ID))
	if page.SessionID != "" {
		hidden = render.MergeHiddenFields(hidden, render.SessionField(page.SessionID))
	}

	data := map[string]any{
		"page":        page,
		"title":       title(page, opts),
		"action":      opts.Action,
		"method":      method,
		"hidden":      render.SortedHiddenFields(hidden),
		"categories":  categories.String(),
		"form_errors": formErrors(page, opts),
		"notice":      notice(page),
		"show_form":   page.Status == store.StatusReady && len(page.Fields) > 0,
		"pending":     len(page.Pending) > 0,
	}
	if opts.Theme != nil {
		data["style"] = render.CSSVarsStyle(opts.Theme.CSSVars)
		if opts.Theme.AssetURL != nil {
			data["stylesheet"] = opts.Theme.AssetURL("stylesheet")
		}
	}

	out, err := r.templates.RenderTemplate(partials[SlotLayout], data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render layout: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) resolvePartials(opts render.Options) map[string]string {
	out := make(map[string]string, len(r.partials))
	for slot, path := range r.partials {
		out[slot] = path
	}
	if opts.Theme != nil {
		for slot, path := range opts.Theme.Partials {
			if _, known := out[slot]; known && strings.TrimSpace(path) != "" {
				out[slot] = path
			}
		}
	}
	return out
}

func (r *Renderer) renderCategory(partials map[string]string, page render.Page, category fields.Category, errs map[string][]string) (string, error) {
	var markup strings.Builder
	for _, field := range category.Fields {
		slot := SlotInput
		if render.Multiline(field.Value) {
			slot = SlotTextarea
		}
		out, err := r.templates.RenderTemplate(partials[slot], map[string]any{
			"field":   field,
			"dirty":   page.Dirty(field.Path),
			"errors":  errs[field.Path],
			"preview": r.preview,
		})
		if err != nil {
			return "", fmt.Errorf("html renderer: render field %q: %w", field.Path, err)
		}
		markup.WriteString(out)
	}

	out, err := r.templates.RenderTemplate(partials[SlotCategory], map[string]any{
		"category": map[string]any{"name": category.Name, "label": category.Label},
		"fields":   markup.String(),
	})
	if err != nil {
		return "", fmt.Errorf("html renderer: render category %q: %w", category.Name, err)
	}
	return out, nil
}

func title(page render.Page, opts render.Options) string {
	if t := strings.TrimSpace(opts.Title); t != "" {
		return t
	}
	return "Edit " + fields.DefaultLabeler(page.ID)
}

func notice(page render.Page) string {
	switch {
	case page.Status == store.StatusUnavailable:
		return "Content is currently unavailable."
	case len(page.Fields) == 0:
		return "This page has no editable text."
	}
	return ""
}

func formErrors(page render.Page, opts render.Options) []string {
	messages := append([]string(nil), opts.FormErrors...)
	messages = append(messages, opts.Errors[render.FormErrorKey]...)
	if page.Error != "" {
		messages = append(messages, page.Error)
	}
	return render.MergeFormErrors(nil, messages...)
}
