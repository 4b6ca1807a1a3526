package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/storyforge/autopilot-go/domain/world"
)

// ErrConnectionFailed indicates the Redis server could not be reached.
var ErrConnectionFailed = errors.New("redis: connection failed")

// WorldStore is a Redis-backed implementation of world.Store.
type WorldStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewWorldStore creates a new Redis world store with the given
// configuration. The connection is verified with a ping.
func NewWorldStore(cfg Config, opts ...ConfigOption) (*WorldStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return &WorldStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewWorldStoreFromClient creates a world store from an existing Redis
// client.
func NewWorldStoreFromClient(client *redis.Client, keyPrefix string) *WorldStore {
	return &WorldStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *WorldStore) worldKey(projectID string) string {
	return s.keyPrefix + "world:" + projectID
}

// Load retrieves the world state for a project.
func (s *WorldStore) Load(ctx context.Context, projectID string) (*world.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, world.ErrInvalidProjectID
	}

	data, err := s.client.Get(ctx, s.worldKey(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

// Save persists the world state for a project. World snapshots do not
// expire.
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

	return s.client.Set(ctx, s.worldKey(projectID), data, 0).Err()
}

// Delete removes the stored world state for a project.
func (s *WorldStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if projectID == "" {
		return world.ErrInvalidProjectID
	}

	deleted, err := s.client.Del(ctx, s.worldKey(projectID)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return world.ErrNotFound
	}
	return nil
}

// Close closes the Redis client.
func (s *WorldStore) Close() error {
	return s.client.Close()
}

var _ world.Store = (*WorldStore)(nil)
