// Package memory provides an in-memory content store. It records every write
// attempt and can be told to fail specific paths, which makes it the default
// backend for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Write is one recorded UpdateField call.
type Write struct {
	Path  string
	Value string
	Err   error
}

// Option customises a Store.
type Option func(*Store)

// WithFailure makes writes to path fail with err.
func WithFailure(path string, err error) Option {
	return func(s *Store) {
		s.failures[path] = err
	}
}

// WithLoadError makes Load fail with err.
func WithLoadError(err error) Option {
	return func(s *Store) {
		s.loadErr = err
	}
}

// Store keeps a content document in memory.
type Store struct {
	mu       sync.RWMutex
	doc      content.Document
	failures map[string]error
	loadErr  error
	writes   []Write
	watchers map[int]func()
	nextID   int
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Watcher = (*Store)(nil)
	_ store.Seeder  = (*Store)(nil)
)

// New returns a store seeded with a copy of doc.
func New(doc content.Document, opts ...Option) *Store {
	s := &Store{
		doc:      doc.Clone(),
		failures: make(map[string]error),
		watchers: make(map[int]func()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns a copy of the current document.
func (s *Store) Load(ctx context.Context) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return content.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return content.Document{}, s.loadErr
	}
	return s.doc.Clone(), nil
}

// UpdateField sets path to value unless a failure is configured for it.
func (s *Store) UpdateField(ctx context.Context, path, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	err := s.failures[path]
	if err == nil {
		err = s.doc.SetString(path, value)
	}
	s.writes = append(s.writes, Write{Path: path, Value: value, Err: err})
	var notify []func()
	if err == nil {
		for _, fn := range s.watchers {
			notify = append(notify, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return err
}

// Seed replaces the document and notifies watchers.
func (s *Store) Seed(ctx context.Context, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc.Clone()
	notify := make([]func(), 0, len(s.watchers))
	for _, fn := range s.watchers {
		notify = append(notify, fn)
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

// Watch calls fn after every successful write until ctx is done.
func (s *Store) Watch(ctx context.Context, fn func()) error {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	delete(s.watchers, id)
	s.mu.Unlock()
	return nil
}

// Fail configures path to fail with err from now on.
func (s *Store) Fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = err
}

// Heal clears a configured failure.
func (s *Store) Heal(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Writes returns every recorded write attempt, failed ones included.
func (s *Store) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Write(nil), s.writes...)
}

// Document returns a copy of the stored document.
func (s *Store) Document() content.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}
