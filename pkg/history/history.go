// Package history keeps a bounded ring of past text values. The newest
// entry sits at the front; re-saving an existing value moves it back to the
// front instead of duplicating it, and the oldest entry is evicted at
// capacity.
package history

import (
	"strings"
	"sync"
)

// DefaultMaxEntries is the ring capacity used when none is configured.
const DefaultMaxEntries = 50

// Ring is a bounded, de-duplicated history of text values.
type Ring struct {
	mu      sync.Mutex
	entries []string
	max     int
}

// NewRing creates a ring with the given capacity. Non-positive capacities
// fall back to DefaultMaxEntries.
func NewRing(max int) *Ring {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Ring{
		entries: make([]string, 0, max),
		max:     max,
	}
}

// Push records text as the most recent entry. Empty or whitespace-only
// values are ignored. An already-present value moves to the front.
func (r *Ring) Push(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e == text {
			copy(r.entries[1:i+1], r.entries[:i])
			r.entries[0] = text
			return
		}
	}
	if len(r.entries) >= r.max {
		r.entries = r.entries[:r.max-1]
	}
	r.entries = append([]string{text}, r.entries...)
}

// Get returns the entry at index i, 0 being the most recent.
func (r *Ring) Get(i int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.entries) {
		return "", false
	}
	return r.entries[i], true
}

// Entries returns a copy of all entries, newest first.
func (r *Ring) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Replace swaps the ring contents for the given entries, newest first,
// truncating at capacity. Used when restoring persisted history.
func (r *Ring) Replace(entries []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(entries)
	if n > r.max {
		n = r.max
	}
	r.entries = make([]string, n)
	copy(r.entries, entries[:n])
}

// Len returns the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear removes all entries.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}
