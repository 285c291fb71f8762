// Package filestore keeps the content document in a JSON file on disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/internal/store/rawjson"
	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileMode sets the permissions used when the file is (re)written.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// Store reads and writes a single JSON file. Writes are serialised and
// replace the file atomically.
type Store struct {
	path   string
	mode   fs.FileMode
	logger *zap.Logger
	mu     sync.Mutex
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Watcher = (*Store)(nil)
	_ store.Seeder  = (*Store)(nil)
)

// New returns a store backed by path. The file does not need to exist until
// the first write.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve %s: %w", path, err)
	}
	s := &Store{
		path:   abs,
		mode:   0o644,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Path returns the absolute file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the file.
func (s *Store) Load(ctx context.Context) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return content.Document{}, err
	}
	data, err := s.read()
	if err != nil {
		return content.Document{}, err
	}
	doc, err := rawjson.Decode(data)
	if err != nil {
		return content.Document{}, fmt.Errorf("filestore: parse %s: %w", s.path, err)
	}
	return doc, nil
}

// UpdateField rewrites path inside the file. A missing file is created.
func (s *Store) UpdateField(ctx context.Context, path, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if errors.Is(err, store.ErrNotFound) {
		data = nil
	} else if err != nil {
		return err
	}
	updated, err := rawjson.SetString(data, path, value)
	if err != nil {
		return fmt.Errorf("filestore: update %q: %w", path, err)
	}
	if err := s.writeAtomic(updated); err != nil {
		return err
	}
	s.logger.Debug("field written", zap.String("file", s.path), zap.String("path", path))
	return nil
}

// Seed replaces the file with doc, indented with two spaces.
func (s *Store) Seed(ctx context.Context, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := doc.MarshalIndent("", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeAtomic(append(data, '\n')); err != nil {
		return err
	}
	s.logger.Info("document seeded", zap.String("file", s.path))
	return nil
}

func (s *Store) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, s.path, err)
	}
	return data, nil
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", store.ErrUnavailable, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", store.ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", store.ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %v", store.ErrUnavailable, tmpName, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", store.ErrUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: rename %s: %v", store.ErrUnavailable, s.path, err)
	}
	return nil
}

// Watch reports changes to the file, including those made through this
// store, until ctx is done. The parent directory is watched so editors that
// replace the file on save are still observed.
func (s *Store) Watch(ctx context.Context, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("filestore: watch %s: %w", filepath.Dir(s.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.logger.Debug("content file changed", zap.String("file", s.path), zap.String("op", event.Op.String()))
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}
