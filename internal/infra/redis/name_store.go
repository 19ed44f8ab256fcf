package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NameStore keeps session display names in Redis:
//
//	HSET deck:profile:{sessionID} name {name}
//
// A zero TTL keeps names until they are cleared.
type NameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNameStore(client *redis.Client, ttl time.Duration) *NameStore {
	return &NameStore{client: client, ttl: ttl}
}

func (s *NameStore) GetName(ctx context.Context, sessionID string) (string, error) {
	name, err := s.client.HGet(ctx, s.key(sessionID), "name").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return name, err
}

func (s *NameStore) SetName(ctx context.Context, sessionID, name string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(sessionID), "name", name)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sessionID), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *NameStore) DeleteName(ctx context.Context, sessionID string) error {
	return s.client.HDel(ctx, s.key(sessionID), "name").Err()
}

func (s *NameStore) key(sessionID string) string {
	return "deck:profile:" + sessionID
}
