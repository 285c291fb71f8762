// Package sqlstore keeps content documents in SQLite, one row per app.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-pagecms/internal/store/rawjson"
	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// DefaultApp names the row used when no app is configured.
const DefaultApp = "default"

const schema = `
CREATE TABLE IF NOT EXISTS page_content (
	app TEXT PRIMARY KEY,
	document TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const upsert = `
INSERT INTO page_content (app, document, updated_at) VALUES (?, ?, ?)
ON CONFLICT(app) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`

// Option customises a Store.
type Option func(*Store)

// WithApp selects the row the store reads and writes.
func WithApp(app string) Option {
	return func(s *Store) {
		if app != "" {
			s.app = app
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock swaps the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a content store over a SQLite table.
type Store struct {
	db     *sql.DB
	owned  bool
	app    string
	logger *zap.Logger
	now    func() time.Time
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Seeder = (*Store)(nil)
	_ store.Closer = (*Store)(nil)
)

// Open opens the SQLite database at dsn and prepares the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: busy_timeout: %w", err)
	}
	s, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing database handle and prepares the schema.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	s := &Store{
		db:     db,
		app:    DefaultApp,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return s, nil
}

// Load returns the document stored for the app.
func (s *Store) Load(ctx context.Context) (content.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM page_content WHERE app = ?", s.app).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Document{}, fmt.Errorf("%w: app %q", store.ErrNotFound, s.app)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	doc, err := rawjson.Decode([]byte(raw))
	if err != nil {
		return content.Document{}, fmt.Errorf("sqlstore: decode app %q: %w", s.app, err)
	}
	return doc, nil
}

// UpdateField sets path inside the stored document within a transaction.
func (s *Store) UpdateField(ctx context.Context, path, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", store.ErrUnavailable, err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT document FROM page_content WHERE app = ?", s.app).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: select: %v", store.ErrUnavailable, err)
	}
	updated, err := rawjson.SetString([]byte(raw), path, value)
	if err != nil {
		return fmt.Errorf("sqlstore: update %q: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, upsert, s.app, string(updated), s.timestamp()); err != nil {
		return fmt.Errorf("%w: upsert: %v", store.ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", store.ErrUnavailable, err)
	}
	s.logger.Debug("field written", zap.String("app", s.app), zap.String("path", path))
	return nil
}

// Seed replaces the stored document.
func (s *Store) Seed(ctx context.Context, doc content.Document) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("sqlstore: encode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsert, s.app, string(data), s.timestamp()); err != nil {
		return fmt.Errorf("%w: seed: %v", store.ErrUnavailable, err)
	}
	return nil
}

// UpdatedAt reports when the app's document last changed.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM page_content WHERE app = ?", s.app).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: app %q", store.ErrNotFound, s.app)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Close releases the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
