// Package gotemplate renders pagecms templates with pongo2.
package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-pagecms/pkg/preview"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/render/template"
)

// SetName labels the pongo2 template set backing every Engine.
const SetName = "pagecms"

// ErrNoTemplates is returned by New without a template filesystem.
var ErrNoTemplates = errors.New("gotemplate: template fs is required")

// Engine loads templates from one fs.FS and caches them after the first
// parse. Autoescaping stays on; the markdown filter marks its sanitised
// output safe.
type Engine struct {
	set *pongo2.TemplateSet

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

var filtersOnce sync.Once

// New returns an engine reading templates from files.
func New(files fs.FS) (*Engine, error) {
	if files == nil {
		return nil, ErrNoTemplates
	}
	filtersOnce.Do(registerFilters)
	return &Engine{
		set:   pongo2.NewSet(SetName, pongo2.NewFSLoader(files)),
		cache: make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes the named template. Values in data are exposed to
// templates under their JSON names, so descriptors read as field.path.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s: %w", name, err)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", name, err)
	}
	return out, nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %s: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

// toContext flattens data through JSON so structs honour their json tags
// and text marshalers, e.g. editor states render as "editing".
func toContext(data map[string]any) (pongo2.Context, error) {
	if len(data) == 0 {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	ctx := pongo2.Context{}
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

func registerFilters() {
	filters := map[string]pongo2.FilterFunction{
		"trim": func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(strings.TrimSpace(in.String())), nil
		},
		"fieldid": func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(FieldID(in.String())), nil
		},
		"plain": func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(preview.Plain(in.String())), nil
		},
		// multiline picks a textarea over a single line input.
		"multiline": func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(render.Multiline(in.String())), nil
		},
		"markdown": filterMarkdown,
	}
	for name, fn := range filters {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}

func filterMarkdown(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	rendered, err := preview.Render(in.String())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}
	return pongo2.AsSafeValue(rendered), nil
}

// FieldID turns a content path into a DOM id: "pages.home.hero.title"
// becomes "field-pages-home-hero-title".
func FieldID(path string) string {
	var b strings.Builder
	b.WriteString("field")
	dash := true
	for _, r := range strings.TrimSpace(path) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash {
				b.WriteByte('-')
				dash = false
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		dash = true
	}
	return b.String()
}
