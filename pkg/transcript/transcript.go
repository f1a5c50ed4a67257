package transcript

import (
	"errors"
	"sync"
)

// ErrNilEntry reports an attempt to append a nil entry.
var ErrNilEntry = errors.New("transcript: entry cannot be nil")

// Transcript is an ordered, append-only conversation log. Entries are never
// mutated or removed once appended; readers receive snapshot copies of the
// entry slice, so conversions stay pure folds.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// New constructs an empty Transcript.
func New() *Transcript {
	return &Transcript{entries: make([]Entry, 0, 16)}
}

// Of builds a Transcript pre-populated with entries, mostly for tests and
// one-shot calls.
func Of(entries ...Entry) *Transcript {
	t := New()
	for _, e := range entries {
		_ = t.Append(e)
	}
	return t
}

// Append adds one entry to the end of the log.
func (t *Transcript) Append(e Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return nil
}

// Entries returns a snapshot copy of the entry slice.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
