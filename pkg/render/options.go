package render

import theme "github.com/goliatone/go-theme"

// Options carry per-request data renderers use to customise their output
// without changing the page.
type Options struct {
	// Title overrides the heading shown above the form.
	Title string
	// Action is the URL the edit form submits to.
	Action string
	// Method is the form method; renderers default to POST.
	Method string
	// Hidden fields are emitted verbatim, sorted by name.
	Hidden map[string]string
	// Errors hold messages keyed by field path. See MapErrors.
	Errors map[string][]string
	// FormErrors are messages not tied to a field.
	FormErrors []string
	// Subset restricts which fields are rendered.
	Subset FieldSubset
	// Theme is the resolved theme configuration, if any.
	Theme *theme.RendererConfig
}
