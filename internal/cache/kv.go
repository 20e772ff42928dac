package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL is how long idle session keys are kept.
const SessionTTL = 30 * 24 * time.Hour

// KV is a plain byte store over Redis. Every write refreshes the key's TTL.
type KV struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewKV constructs a KV. A non-positive ttl uses SessionTTL.
func NewKV(client redis.Cmdable, ttl time.Duration) *KV {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &KV{client: client, ttl: ttl}
}

// Get returns the value at key, or nil, nil when it does not exist.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := kv.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return b, nil
}

// Set writes value at key.
func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.client.Set(ctx, key, value, kv.ttl).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}
