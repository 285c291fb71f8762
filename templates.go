package pagecms

import (
	"io/fs"

	"github.com/goliatone/go-pagecms/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in admin form templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// EmbeddedAssets exposes the admin stylesheet so Go applications can serve
// it next to their own pages.
//
// Typical mount:
//
//	mux.Handle("/admin/assets/",
//	  http.StripPrefix("/admin/assets/",
//	    http.FileServerFS(pagecms.EmbeddedAssets()),
//	  ),
//	)
func EmbeddedAssets() fs.FS {
	return html.AssetsFS()
}
