package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps the sessions opened through the HTTP surface. When full, the
// least recently active session that is not saving is evicted; sessions idle
// for longer than the TTL are removed by Cleanup.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
}

// NewRegistry creates a registry. A non-positive maxSessions disables the
// capacity limit and a non-positive ttl disables expiry.
func NewRegistry(maxSessions int, ttl time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Open creates a session writing through writer and registers it under a new
// UUID.
func (r *Registry) Open(writer Writer, opts ...Option) (*Session, error) {
	opts = append(opts, WithID(uuid.New().String()), WithClock(r.now))
	sess, err := New(writer, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		if !r.evictLocked() {
			return nil, ErrRegistryFull
		}
	}
	r.sessions[sess.ID()] = sess
	return sess, nil
}

func (r *Registry) evictLocked() bool {
	var oldestID string
	var oldestTime time.Time
	for id, sess := range r.sessions {
		if sess.State() == StateSaving {
			continue
		}
		last := sess.LastActivity()
		if oldestID == "" || last.Before(oldestTime) {
			oldestID = id
			oldestTime = last
		}
	}
	if oldestID == "" {
		return false
	}
	delete(r.sessions, oldestID)
	return true
}

// Get retrieves a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close removes a session. Sessions mid-save cannot be closed.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.State() == StateSaving {
		return invalidTransition("close", StateSaving)
	}
	delete(r.sessions, id)
	return nil
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup removes sessions inactive for longer than the TTL and returns how
// many were dropped.
func (r *Registry) Cleanup() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, sess := range r.sessions {
		if sess.State() == StateSaving {
			continue
		}
		if sess.LastActivity().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until the returned stop function is
// called.
func (r *Registry) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				r.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
