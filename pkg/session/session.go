// Package session manages named conversation transcripts with checkpoint
// and fork support, so callers can branch or rewind a dialogue without
// rebuilding it entry by entry.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cexll/modelbridge-go/pkg/transcript"
)

var (
	// ErrInvalidSessionID reports an empty or whitespace-only identifier.
	ErrInvalidSessionID = errors.New("session: invalid session id")
	// ErrInvalidCheckpointName reports an empty checkpoint name.
	ErrInvalidCheckpointName = errors.New("session: invalid checkpoint name")
	// ErrCheckpointNotFound reports a Resume against an unknown checkpoint.
	ErrCheckpointNotFound = errors.New("session: checkpoint not found")
	// ErrSessionClosed reports use of a session after Close.
	ErrSessionClosed = errors.New("session: closed")
)

// Session owns one conversation transcript plus named snapshots of it.
type Session struct {
	id string

	mu          sync.RWMutex
	entries     []transcript.Entry
	checkpoints map[string][]transcript.Entry
	closed      bool
}

// New constructs an empty session with the provided identifier.
func New(id string) (*Session, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	return &Session{
		id:          trimmed,
		checkpoints: make(map[string][]transcript.Entry),
	}, nil
}

// ID returns the stable identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Append adds entries to the conversation in order.
func (s *Session) Append(entries ...transcript.Entry) error {
	for _, e := range entries {
		if e == nil {
			return transcript.ErrNilEntry
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.entries = append(s.entries, entries...)
	return nil
}

// Transcript materializes the current conversation as a transcript snapshot.
// Mutating the returned transcript does not affect the session.
func (s *Session) Transcript() *transcript.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transcript.Of(s.entries...)
}

// Len reports the number of entries recorded so far.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Checkpoint stores a snapshot of the conversation under the provided name,
// replacing any previous snapshot with the same name.
func (s *Session) Checkpoint(name string) error {
	normalized, err := normalizeCheckpointName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.checkpoints[normalized] = cloneEntries(s.entries)
	return nil
}

// Resume replaces the current conversation with the named checkpoint.
func (s *Session) Resume(name string) error {
	normalized, err := normalizeCheckpointName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	snapshot, ok := s.checkpoints[normalized]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCheckpointNotFound, normalized)
	}
	s.entries = cloneEntries(snapshot)
	return nil
}

// Fork clones the current conversation and checkpoints into a new session.
func (s *Session) Fork(id string) (*Session, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	forked := &Session{
		id:          trimmed,
		entries:     cloneEntries(s.entries),
		checkpoints: make(map[string][]transcript.Entry, len(s.checkpoints)),
	}
	for name, snapshot := range s.checkpoints {
		forked.checkpoints[name] = cloneEntries(snapshot)
	}
	return forked, nil
}

// Close releases the session state. Subsequent operations fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	s.checkpoints = nil
	return nil
}

func normalizeCheckpointName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidCheckpointName
	}
	return trimmed, nil
}

// Entries are immutable value types, so a shallow copy of the slice is a
// safe snapshot.
func cloneEntries(src []transcript.Entry) []transcript.Entry {
	if len(src) == 0 {
		return nil
	}
	dst := make([]transcript.Entry, len(src))
	copy(dst, src)
	return dst
}
