package api

import (
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-pagecms/internal/config"
	"github.com/goliatone/go-pagecms/pkg/render"
	"github.com/goliatone/go-pagecms/pkg/renderers/html"
)

// DefaultTheme builds the admin theme from configuration: the built-in
// partials and stylesheet, with the configured tokens exposed as CSS
// variables.
func DefaultTheme(cfg config.ThemeConfig) (*theme.RendererConfig, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "default"
	}
	variant := strings.TrimSpace(cfg.Variant)

	manifest := &theme.Manifest{
		Name:   name,
		Tokens: cfg.Tokens,
		Assets: theme.Assets{
			Prefix: AssetsPrefix,
			Files:  map[string]string{"stylesheet": html.StylesheetName},
		},
	}
	if variant != "" {
		manifest.Variants = map[string]theme.Variant{variant: {}}
	}

	catalog := render.NewCatalog(name, variant)
	if err := catalog.Register(manifest); err != nil {
		return nil, err
	}
	selection, err := catalog.Select("", "")
	if err != nil {
		return nil, err
	}
	return render.ThemeConfig(selection, render.DefaultPartials()), nil
}
