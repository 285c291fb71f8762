package render

import (
	"context"

	"github.com/goliatone/go-pagecms/pkg/editor"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Renderer turns a Page into a byte representation (HTML, JSON, terminal
// transcript).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options Options) ([]byte, error)
}

// Page is the view model shared by every renderer.
type Page struct {
	ID         string                   `json:"id"`
	Status     store.Status             `json:"status"`
	Fields     []fields.FieldDescriptor `json:"fields"`
	Categories []fields.Category        `json:"categories"`
	SessionID  string                   `json:"session_id,omitempty"`
	State      editor.State             `json:"state"`
	Pending    []editor.Entry           `json:"pending"`
	Error      string                   `json:"error,omitempty"`
}

// NewPage builds a page from a snapshot. When sess is not nil its pending
// values are overlaid onto the descriptors.
func NewPage(snap store.PageSnapshot, sess *editor.Session) Page {
	page := Page{
		ID:      snap.Page,
		Status:  snap.Status,
		Fields:  snap.Fields,
		State:   editor.StateIdle,
		Pending: []editor.Entry{},
	}
	if snap.Err != nil {
		page.Error = snap.Err.Error()
	}
	if sess != nil {
		info := sess.Info()
		page.Fields = sess.Apply(snap.Fields)
		page.SessionID = info.ID
		page.State = info.State
		page.Pending = info.Pending
		if info.LastError != "" {
			page.Error = info.LastError
		}
	}
	if page.Fields == nil {
		page.Fields = []fields.FieldDescriptor{}
	}
	page.Categories = fields.Group(page.Fields)
	return page
}

// Dirty reports whether path has a pending edit.
func (p Page) Dirty(path string) bool {
	for _, entry := range p.Pending {
		if entry.Path == path {
			return true
		}
	}
	return false
}
