package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
)

// RedisStore keeps flag snapshots in Redis so multiple instances share
// one cache and an invalidation from any instance is seen by all.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(tenantID int64, flagKey string) string {
	return fmt.Sprintf("flaghub:snapshot:%d:%s", tenantID, flagKey)
}

func (s *RedisStore) Get(ctx context.Context, tenantID int64, flagKey string) (*engine.Flag, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(tenantID, flagKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var flag engine.Flag
	if err := json.Unmarshal(raw, &flag); err != nil {
		// Corrupt entry, drop it and fall through to the source of truth.
		_ = s.client.Del(ctx, redisKey(tenantID, flagKey)).Err()
		return nil, false, nil
	}
	return &flag, true, nil
}

func (s *RedisStore) Set(ctx context.Context, tenantID int64, flagKey string, flag *engine.Flag) error {
	if flag == nil {
		return nil
	}

	raw, err := json.Marshal(flag)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(tenantID, flagKey), raw, s.ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, tenantID int64, flagKey string) error {
	return s.client.Del(ctx, redisKey(tenantID, flagKey)).Err()
}
