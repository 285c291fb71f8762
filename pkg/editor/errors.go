package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the
	// session's current state.
	ErrInvalidTransition = errors.New("editor: invalid state transition")
	// ErrEmptyPath is returned by Change for a blank field path.
	ErrEmptyPath = errors.New("editor: field path is empty")
	// ErrOutsidePage is returned by Change for a path that does not belong to
	// the session's page.
	ErrOutsidePage = errors.New("editor: path is outside the session page")
	// ErrSessionNotFound is returned by the registry for unknown ids.
	ErrSessionNotFound = errors.New("editor: session not found")
	// ErrRegistryFull is returned when every slot holds a session mid-save.
	ErrRegistryFull = errors.New("editor: too many active sessions")
	// ErrNoWriter is returned when a session is created without a writer.
	ErrNoWriter = errors.New("editor: writer is required")
)

// SaveError reports the write that stopped a batch. Written lists the entries
// already persisted before the failure.
type SaveError struct {
	Batch   string
	Path    string
	Index   int
	Written []Entry
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("editor: save %s failed at %q (entry %d): %v", e.Batch, e.Path, e.Index, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

func invalidTransition(op string, state State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, state)
}
