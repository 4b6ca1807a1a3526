package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/storyforge/autopilot-go/domain/world"
)

// WorldStore is a SQLite-backed implementation of world.Store.
type WorldStore struct {
	db *sql.DB
}

// NewWorldStore creates a new SQLite world store with the given
// configuration.
func NewWorldStore(cfg Config, opts ...Option) (*WorldStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &WorldStore{db: db}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewWorldStoreFromDB creates a world store from an existing database
// connection.
func NewWorldStoreFromDB(db *sql.DB) (*WorldStore, error) {
	s := &WorldStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the world_states table if it doesn't exist.
func (s *WorldStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS world_states (
			project_id TEXT PRIMARY KEY,
			facts BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Load retrieves the world state for a project.
func (s *WorldStore) Load(ctx context.Context, projectID string) (*world.State, error) {
	if projectID == "" {
		return nil, world.ErrInvalidProjectID
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT facts FROM world_states WHERE project_id = ?`,
		projectID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, world.ErrNotFound
		}
		return nil, err
	}

	var state world.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save persists the world state for a project, replacing any previous
// snapshot.
func (s *WorldStore) Save(ctx context.Context, projectID string, state *world.State) error {
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

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO world_states (project_id, facts, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET facts = excluded.facts, updated_at = excluded.updated_at`,
		projectID, data, now, now,
	)
	return err
}

// Delete removes the stored world state for a project.
func (s *WorldStore) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return world.ErrInvalidProjectID
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM world_states WHERE project_id = ?`,
		projectID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return world.ErrNotFound
	}
	return nil
}

// Close closes the underlying database connection.
func (s *WorldStore) Close() error {
	return s.db.Close()
}

var _ world.Store = (*WorldStore)(nil)
