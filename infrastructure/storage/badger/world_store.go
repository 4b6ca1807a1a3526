package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/storyforge/autopilot-go/domain/world"
)

// WorldStore is a BadgerDB-backed implementation of world.Store.
type WorldStore struct {
	db        *badger.DB
	keyPrefix string
	stopGC    chan struct{}
	gcOnce    sync.Once
}

// NewWorldStore creates a new BadgerDB world store with the given
// configuration.
func NewWorldStore(cfg Config, opts ...Option) (*WorldStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &WorldStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		stopGC:    make(chan struct{}),
	}

	if !cfg.InMemory && cfg.GCInterval > 0 {
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// NewWorldStoreFromDB creates a world store from an existing database.
func NewWorldStoreFromDB(db *badger.DB, keyPrefix string) *WorldStore {
	return &WorldStore{
		db:        db,
		keyPrefix: keyPrefix,
		stopGC:    make(chan struct{}),
	}
}

// runGC periodically runs value log garbage collection.
func (s *WorldStore) runGC(interval time.Duration, discardRatio float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to collect.
			for {
				if err := s.db.RunValueLogGC(discardRatio); err != nil {
					break
				}
			}
		case <-s.stopGC:
			return
		}
	}
}

func (s *WorldStore) worldKey(projectID string) []byte {
	return []byte(s.keyPrefix + "world:" + projectID)
}

// Load retrieves the world state for a project.
func (s *WorldStore) Load(ctx context.Context, projectID string) (*world.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, world.ErrInvalidProjectID
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.worldKey(projectID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
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

// Save persists the world state for a project.
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

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.worldKey(projectID), data)
	})
}

// Delete removes the stored world state for a project.
func (s *WorldStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if projectID == "" {
		return world.ErrInvalidProjectID
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.worldKey(projectID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return world.ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Close stops GC and closes the database.
func (s *WorldStore) Close() error {
	s.gcOnce.Do(func() {
		close(s.stopGC)
	})
	return s.db.Close()
}

var _ world.Store = (*WorldStore)(nil)
