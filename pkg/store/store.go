// Package store defines the content store contracts used by the editor and
// the HTTP surface, plus the page snapshot that combines a load with field
// flattening.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-pagecms/pkg/content"
)

var (
	// ErrNotFound is returned when the backing document does not exist.
	ErrNotFound = errors.New("store: content not found")
	// ErrUnavailable wraps transport or I/O failures talking to a backend.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Reader loads the whole content document.
type Reader interface {
	Load(ctx context.Context) (content.Document, error)
}

// Writer persists one string field addressed by a dot path.
type Writer interface {
	UpdateField(ctx context.Context, path, value string) error
}

// Store combines Reader and Writer.
type Store interface {
	Reader
	Writer
}

// Watcher is implemented by stores that can report external changes. Watch
// blocks until ctx is done, invoking fn after each change.
type Watcher interface {
	Watch(ctx context.Context, fn func()) error
}

// Closer is implemented by stores holding resources.
type Closer interface {
	Close() error
}

// Seeder is implemented by stores that can replace the whole document, used
// when importing content.
type Seeder interface {
	Seed(ctx context.Context, doc content.Document) error
}
