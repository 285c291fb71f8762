package template

// TemplateRenderer is the engine seam used by the HTML renderer.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
}
