package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type IdempotencyStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *goredis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func Key(scope, owner, key string) string {
	return "idem:" + scope + ":" + owner + ":" + key
}

// Seen claims key and reports whether someone already had it.
func (s *IdempotencyStore) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget releases a claimed key so a failed request can be retried.
func (s *IdempotencyStore) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
