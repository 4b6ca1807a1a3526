package world

import "context"

// Store persists world state across sessions. The planning core only
// touches it at session boundaries; durable storage, history, and
// versioning beyond this contract belong to the embedding service.
// Implementations are in infrastructure/storage.
type Store interface {
	// Load returns the stored state for a project, or ErrNotFound if the
	// project has no stored state yet.
	Load(ctx context.Context, projectID string) (*State, error)

	// Save persists the state for a project, replacing any previous state.
	Save(ctx context.Context, projectID string, state *State) error
}
