package store

import (
	"context"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/fields"
)

// Status classifies a page snapshot.
type Status string

const (
	// StatusReady means the page has editable fields.
	StatusReady Status = "ready"
	// StatusEmpty means the document loaded but the page has nothing to edit.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the document could not be loaded.
	StatusUnavailable Status = "unavailable"
)

// PageSnapshot is the editable view of one page at load time.
type PageSnapshot struct {
	Page     string
	Status   Status
	Fields   []fields.FieldDescriptor
	Document content.Document
	Err      error
}

// Snapshot loads the document through r and flattens pageID. A load failure
// is reported through Status and Err rather than as an empty field list.
func Snapshot(ctx context.Context, r Reader, pageID string, opts ...fields.Option) PageSnapshot {
	snap := PageSnapshot{Page: pageID, Fields: []fields.FieldDescriptor{}}
	doc, err := r.Load(ctx)
	if err != nil {
		snap.Status = StatusUnavailable
		snap.Err = err
		return snap
	}
	snap.Document = doc
	snap.Fields = fields.Flatten(&doc, pageID, opts...)
	if len(snap.Fields) == 0 {
		snap.Status = StatusEmpty
	} else {
		snap.Status = StatusReady
	}
	return snap
}
