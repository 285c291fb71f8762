package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/fields"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "editing":
		*s = StateEditing
	case "saving":
		*s = StateSaving
	default:
		return fmt.Errorf("editor: unknown state %q", text)
	}
	return nil
}

// Writer persists a single field. Implementations may be called concurrently
// by different sessions but never concurrently by the same session.
type Writer interface {
	UpdateField(ctx context.Context, path, value string) error
}

// ValueFilter rewrites a value before it is buffered.
type ValueFilter func(path, value string) string

// SaveResult describes a completed batch.
type SaveResult struct {
	Batch   string  `json:"batch,omitempty"`
	Written []Entry `json:"written"`
}

// Info is a point-in-time view of a session.
type Info struct {
	ID        string    `json:"id"`
	Page      string    `json:"page,omitempty"`
	State     State     `json:"state"`
	Pending   []Entry   `json:"pending"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if strings.TrimSpace(id) != "" {
			s.id = id
		}
	}
}

// WithPage records the page the session edits. Changes are then limited to
// paths under pages.<pageID> or the root key <pageID>.
func WithPage(pageID string) Option {
	return func(s *Session) {
		s.page = pageID
	}
}

// WithClock swaps the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithValueFilter installs a filter applied to every changed value.
func WithValueFilter(filter ValueFilter) Option {
	return func(s *Session) {
		s.filter = filter
	}
}

// Session buffers edits for one page and flushes them through a Writer.
type Session struct {
	mu sync.Mutex

	id     string
	page   string
	writer Writer
	logger *zap.Logger
	filter ValueFilter
	now    func() time.Time

	state     State
	buffer    *Buffer
	lastErr   error
	createdAt time.Time
	updatedAt time.Time
}

// New creates an idle session writing through writer.
func New(writer Writer, opts ...Option) (*Session, error) {
	if writer == nil {
		return nil, ErrNoWriter
	}
	s := &Session{
		writer: writer,
		logger: zap.NewNop(),
		now:    time.Now,
		state:  StateIdle,
		buffer: NewBuffer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.id == "" {
		s.id = ulid.Make().String()
	}
	s.createdAt = s.now()
	s.updatedAt = s.createdAt
	s.logger = s.logger.With(zap.String("session", s.id))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Page returns the page the session was opened for.
func (s *Session) Page() string {
	return s.page
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the buffered edits in insertion order.
func (s *Session) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Entries()
}

// Dirty reports whether path has a buffered edit.
func (s *Session) Dirty(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buffer.Get(path)
	return ok
}

// Value returns the buffered value for path, or fallback when the path is
// clean.
func (s *Session) Value(path, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.buffer.Get(path); ok {
		return value
	}
	return fallback
}

// LastActivity returns the time of the most recent change, save or cancel.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Info snapshots the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:        s.id,
		Page:      s.page,
		State:     s.state,
		Pending:   s.buffer.Entries(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.lastErr != nil {
		info.LastError = s.lastErr.Error()
	}
	return info
}

// Change buffers value for path and moves the session to Editing.
func (s *Session) Change(path, value string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	if err := content.ValidatePath(path); err != nil {
		return err
	}
	if !s.owns(path) {
		return fmt.Errorf("%w: %q is not under page %q", ErrOutsidePage, path, s.page)
	}
	if s.filter != nil {
		value = s.filter(path, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSaving {
		return invalidTransition("change", s.state)
	}
	s.buffer.Set(path, value)
	s.state = StateEditing
	s.updatedAt = s.now()
	s.logger.Debug("field changed", zap.String("path", path), zap.Int("pending", s.buffer.Len()))
	return nil
}

func (s *Session) owns(path string) bool {
	if s.page == "" {
		return true
	}
	return strings.HasPrefix(path, fields.PagesKey+"."+s.page+".") || strings.HasPrefix(path, s.page+".")
}

// SaveAll writes every buffered edit in insertion order. Writes stop at the
// first failure, which is reported as a *SaveError; the session then returns
// to Editing with the buffer untouched. On success the buffer is cleared and
// the session returns to Idle.
func (s *Session) SaveAll(ctx context.Context) (SaveResult, error) {
	s.mu.Lock()
	if s.state == StateSaving {
		s.mu.Unlock()
		return SaveResult{}, invalidTransition("save", StateSaving)
	}
	if s.buffer.Len() == 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return SaveResult{Written: []Entry{}}, nil
	}
	entries := s.buffer.Entries()
	s.state = StateSaving
	s.mu.Unlock()

	batch := ulid.Make().String()
	logger := s.logger.With(zap.String("batch", batch))
	logger.Debug("save started", zap.Int("entries", len(entries)))

	written := make([]Entry, 0, len(entries))
	for i, entry := range entries {
		if err := s.writer.UpdateField(ctx, entry.Path, entry.Value); err != nil {
			saveErr := &SaveError{
				Batch:   batch,
				Path:    entry.Path,
				Index:   i,
				Written: written,
				Err:     err,
			}
			s.mu.Lock()
			s.state = StateEditing
			s.lastErr = saveErr
			s.updatedAt = s.now()
			s.mu.Unlock()
			logger.Error("save failed",
				zap.String("path", entry.Path),
				zap.Int("index", i),
				zap.Int("written", len(written)),
				zap.Error(err),
			)
			return SaveResult{Batch: batch, Written: written}, saveErr
		}
		written = append(written, entry)
	}

	s.mu.Lock()
	s.buffer.Reset()
	s.state = StateIdle
	s.lastErr = nil
	s.updatedAt = s.now()
	s.mu.Unlock()
	logger.Info("save completed", zap.Int("written", len(written)))
	return SaveResult{Batch: batch, Written: written}, nil
}

// Cancel discards pending edits. Cancelling an idle session is a no-op.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSaving:
		return invalidTransition("cancel", s.state)
	case StateEditing:
		s.logger.Debug("edits discarded", zap.Int("pending", s.buffer.Len()))
		s.buffer.Reset()
		s.state = StateIdle
		s.lastErr = nil
		s.updatedAt = s.now()
	}
	return nil
}

// Apply overlays buffered values onto descs. The input slice is not modified.
func (s *Session) Apply(descs []fields.FieldDescriptor) []fields.FieldDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fields.FieldDescriptor, len(descs))
	for i, desc := range descs {
		if value, ok := s.buffer.Get(desc.Path); ok {
			desc.Value = value
		}
		out[i] = desc
	}
	return out
}
