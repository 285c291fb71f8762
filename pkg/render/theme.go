package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ErrThemeNotFound is returned by Catalog.Select for unknown themes or
// variants.
var ErrThemeNotFound = errors.New("render: theme not found")

// DefaultPartials maps template slots to the built-in partials. Theme
// templates override individual entries.
func DefaultPartials() map[string]string {
	return map[string]string{
		"page.layout":     "templates/layout.tpl",
		"page.category":   "templates/category.tpl",
		"fields.input":    "templates/input.tpl",
		"fields.textarea": "templates/textarea.tpl",
	}
}

// Catalog is an in-process theme selector over registered manifests.
type Catalog struct {
	mu             sync.RWMutex
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Catalog)(nil)

// NewCatalog returns a catalog that falls back to defaultTheme and
// defaultVariant when Select receives empty names.
func NewCatalog(defaultTheme, defaultVariant string) *Catalog {
	return &Catalog{
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
}

// Register adds a manifest keyed by its name.
func (c *Catalog) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("render: theme manifest name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.manifests[manifest.Name]; exists {
		return fmt.Errorf("render: theme %q already registered", manifest.Name)
	}
	c.manifests[manifest.Name] = manifest
	if c.defaultTheme == "" {
		c.defaultTheme = manifest.Name
	}
	return nil
}

// Names lists the registered themes.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.manifests))
	for name := range c.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a theme and variant.
func (c *Catalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = c.defaultTheme
	}
	variant = strings.TrimSpace(variant)
	if variant == "" && name == c.defaultTheme {
		variant = c.defaultVariant
	}

	manifest, ok := c.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q has no variant %q", ErrThemeNotFound, name, variant)
		}
	}
	return &theme.Selection{
		Theme:    name,
		Variant:  variant,
		Manifest: manifest,
	}, nil
}

// ThemeConfig flattens a selection into the renderer configuration: variant
// templates, tokens and asset files override the base manifest, templates are
// layered over fallbacks, and every token is also exposed as a CSS custom
// property.
func ThemeConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	partials := copyStrings(fallbacks)
	tokens := copyStrings(manifest.Tokens)
	assets := copyStrings(manifest.Assets.Files)
	prefix := manifest.Assets.Prefix
	for slot, path := range manifest.Templates {
		partials[slot] = path
	}

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for slot, path := range variant.Templates {
			partials[slot] = path
		}
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, file := range variant.Assets.Files {
			assets[key] = file
		}
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := key
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		cssVars[name] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: assetResolver(prefix, assets),
	}
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return prefix + "/" + file
	}
}

// CSSVarsStyle renders CSS custom properties as a sorted inline declaration
// list.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteByte(';')
	}
	return b.String()
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
