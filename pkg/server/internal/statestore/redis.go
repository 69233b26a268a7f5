// Package statestore keeps the live round state of each party in redis so a
// restarted daemon can pick up in-flight games.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zapzapgame/zapzap/pkg/game"
)

// stateTTL bounds how long an abandoned party's snapshot survives.
const stateTTL = 7 * 24 * time.Hour

// RedisStore stores one JSON state snapshot per party.
type RedisStore struct {
	client *redis.Client
}

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func stateKey(partyID string) string {
	return "zapzap:state:" + partyID
}

// SaveState writes the party's state snapshot, refreshing its TTL.
func (s *RedisStore) SaveState(ctx context.Context, partyID string, st *game.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(partyID), data, stateTTL).Err(); err != nil {
		return fmt.Errorf("save state for party %s: %w", partyID, err)
	}
	return nil
}

// LoadState returns the party's state snapshot, or (nil, nil) when none is
// stored.
func (s *RedisStore) LoadState(ctx context.Context, partyID string) (*game.State, error) {
	data, err := s.client.Get(ctx, stateKey(partyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state for party %s: %w", partyID, err)
	}
	st := &game.State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("unmarshal state for party %s: %w", partyID, err)
	}
	return st, nil
}

// DeleteState removes the party's snapshot once the party is over.
func (s *RedisStore) DeleteState(ctx context.Context, partyID string) error {
	if err := s.client.Del(ctx, stateKey(partyID)).Err(); err != nil {
		return fmt.Errorf("delete state for party %s: %w", partyID, err)
	}
	return nil
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
