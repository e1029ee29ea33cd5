// Package store persists the small per-surface client state that must
// survive reloads: the last manually dragged height and the text history.
// Snapshots are msgpack encoded and written atomically.
package store

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/internal/utils"
)

const snapshotVersion = 1

// State is the durable snapshot shape.
type State struct {
	Version        int      `msgpack:"v"`
	ManualHeightPx int      `msgpack:"manual_height_px,omitempty"`
	History        []string `msgpack:"history,omitempty"`
	UpdatedAt      int64    `msgpack:"updated_at,omitempty"`
}

// Store reads and writes one State snapshot at a fixed path. A Store with
// an empty path works as a no-op in-memory store.
type Store struct {
	mu    sync.Mutex
	path  string
	state State
	log   *log.Logger
}

// Open loads the snapshot at path, starting from a zero state when the
// file is missing or unreadable. Decode failures are degraded to a warning,
// never an error: stale persisted state is not worth failing a bind over.
func Open(path string) *Store {
	s := &Store{
		path:  path,
		state: State{Version: snapshotVersion},
		log:   logger.Default("store"),
	}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnf("Failed to read state snapshot %s: %v", path, err)
		}
		return s
	}
	var snap State
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		s.log.Warnf("Discarding corrupt state snapshot %s: %v", path, err)
		return s
	}
	if snap.Version != 0 && snap.Version != snapshotVersion {
		s.log.Warnf("Discarding state snapshot %s with unsupported version %d", path, snap.Version)
		return s
	}
	snap.Version = snapshotVersion
	s.state = snap
	return s
}

// ManualHeight returns the persisted manual height in pixels, 0 when none
// was recorded.
func (s *Store) ManualHeight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ManualHeightPx
}

// SetManualHeight records a manually dragged height and saves.
func (s *Store) SetManualHeight(px int) error {
	s.mu.Lock()
	s.state.ManualHeightPx = px
	s.mu.Unlock()
	return s.Save()
}

// History returns a copy of the persisted history entries, newest first.
func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.state.History))
	copy(out, s.state.History)
	return out
}

// SetHistory records the history entries (newest first) and saves.
func (s *Store) SetHistory(entries []string) error {
	s.mu.Lock()
	s.state.History = make([]string, len(entries))
	copy(s.state.History, entries)
	s.mu.Unlock()
	return s.Save()
}

// Save writes the current state atomically. A Store without a path is a
// no-op.
func (s *Store) Save() error {
	s.mu.Lock()
	s.state.UpdatedAt = time.Now().Unix()
	snap := s.state
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		s.log.Warnf("Failed to persist state snapshot to %s: %v", path, err)
		return err
	}
	return nil
}
