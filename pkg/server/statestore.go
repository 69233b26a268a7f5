package server

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/zapzapgame/zapzap/pkg/server/internal/statestore"
)

// RedisOptions configures the redis-backed game state store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStateStore connects to redis and returns a GameStateStore keeping
// one live snapshot per party.
func NewRedisStateStore(ctx context.Context, opts RedisOptions) (GameStateStore, error) {
	return statestore.NewRedisStore(ctx, statestore.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewRedisStateStoreFromClient wraps an existing redis client. Used by tests
// running against an in-process redis.
func NewRedisStateStoreFromClient(client *redis.Client) GameStateStore {
	return statestore.NewRedisStoreFromClient(client)
}
