// Package filesystem provides filesystem-based storage implementations.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/storyforge/autopilot-go/domain/world"
)

// WorldStore implements world.Store using one JSON file per project.
// Saves go through a temp file and rename so a crash never leaves a
// half-written snapshot.
type WorldStore struct {
	basePath string
}

// NewWorldStore creates a filesystem world store rooted at basePath.
func NewWorldStore(basePath string) (*WorldStore, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create world directory: %w", err)
	}
	return &WorldStore{basePath: basePath}, nil
}

// Load retrieves the world state for a project.
func (s *WorldStore) Load(ctx context.Context, projectID string) (*world.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.worldPath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, world.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read world state: %w", err)
	}

	var state world.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode world state: %w", err)
	}
	return &state, nil
}

// Save persists the world state for a project.
func (s *WorldStore) Save(ctx context.Context, projectID string, state *world.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateProjectID(projectID); err != nil {
		return err
	}
	if state == nil {
		return world.ErrInvalidValue
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode world state: %w", err)
	}

	path := s.worldPath(projectID)
	tmp, err := os.CreateTemp(s.basePath, ".world-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write world state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace world state: %w", err)
	}
	return nil
}

// Delete removes the stored world state for a project.
func (s *WorldStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateProjectID(projectID); err != nil {
		return err
	}

	if err := os.Remove(s.worldPath(projectID)); err != nil {
		if os.IsNotExist(err) {
			return world.ErrNotFound
		}
		return fmt.Errorf("failed to delete world state: %w", err)
	}
	return nil
}

func (s *WorldStore) worldPath(projectID string) string {
	return filepath.Join(s.basePath, projectID+".json")
}

// validateProjectID rejects IDs that would escape the base directory.
func validateProjectID(projectID string) error {
	if projectID == "" {
		return world.ErrInvalidProjectID
	}
	if strings.ContainsAny(projectID, "/\\") || strings.Contains(projectID, "..") {
		return world.ErrInvalidProjectID
	}
	return nil
}

var _ world.Store = (*WorldStore)(nil)
