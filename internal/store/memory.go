// internal/store/memory.go
//
// In-memory implementation of the match Store interface.
// This is the session-equivalent persistence layer: one *game.Match per
// match ID, read-modify-written around every API call.
//
// Characteristics:
//   - Stores *game.Match objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; finished matches are persisted
//     separately in SQLite by the HTTP layer.
//   - ErrNotFound is returned for missing match IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/ymgn/shiritori-go/internal/game"
)

// ErrNotFound is returned by Get for an unknown match ID.
var ErrNotFound = errors.New("match not found")

// Store defines the persistence interface for live matches.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a match.
	Save(ctx context.Context, m *game.Match) error

	// Get retrieves a match by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*game.Match, error)

	// Delete removes a match. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex
	matches map[string]*game.Match
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{matches: make(map[string]*game.Match)}
}

// Save adds or updates the match in the map.
func (s *memory) Save(ctx context.Context, m *game.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return nil
}

// Get looks up a match by ID.
func (s *memory) Get(ctx context.Context, id string) (*game.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.matches[id]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

// Delete removes a match by ID.
func (s *memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}
