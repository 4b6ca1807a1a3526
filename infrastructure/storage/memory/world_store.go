// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/storyforge/autopilot-go/domain/world"
)

// worldEntry holds a serialized snapshot of a world state.
type worldEntry struct {
	data []byte
}

// WorldStore is an in-memory implementation of world.Store. States are
// stored serialized so callers never share mutable state with the
// store.
type WorldStore struct {
	worlds map[string]*worldEntry
	mu     sync.RWMutex
}

// NewWorldStore creates a new in-memory world store.
func NewWorldStore() *WorldStore {
	return &WorldStore{
		worlds: make(map[string]*worldEntry),
	}
}

// Load retrieves the world state for a project.
func (s *WorldStore) Load(ctx context.Context, projectID string) (*world.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if projectID == "" {
		return nil, world.ErrInvalidProjectID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.worlds[projectID]
	if !ok {
		return nil, world.ErrNotFound
	}

	var state world.State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Save persists the world state for a project, replacing any previous
// snapshot.
func (s *WorldStore) Save(ctx context.Context, projectID string, state *world.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if projectID == "" {
		return world.ErrInvalidProjectID
	}
	if state == nil {
		return world.ErrInvalidValue
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.worlds[projectID] = &worldEntry{data: data}
	return nil
}

// Delete removes the stored world state for a project.
func (s *WorldStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.worlds[projectID]; !ok {
		return world.ErrNotFound
	}

	delete(s.worlds, projectID)
	return nil
}

// Count returns the number of stored world states.
func (s *WorldStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.worlds)
}
