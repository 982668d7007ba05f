package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"route-analyzer/internal/ports"
)

// Redis backed persistence for pair caches: one hash per cache kind.
// Useful when several analyzer instances share quota against the same
// routing account and should share cache hits too.
type RedisBackend struct {
	Client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{Client: client, prefix: "route-analyzer"}
}

func (r *RedisBackend) hashKey(kind ports.CacheKind) string {
	return fmt.Sprintf("%s:%s", r.prefix, kind)
}

// Load fetches the whole hash for one kind.
func (r *RedisBackend) Load(ctx context.Context, kind ports.CacheKind) (map[string]string, error) {
	if r.Client == nil {
		return nil, errors.New("cache backend: redis client is nil")
	}

	out, err := r.Client.HGetAll(ctx, r.hashKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cache: hgetall %s: %w", r.hashKey(kind), err)
	}
	return out, nil
}

// Save upserts the given entries into the kind's hash.
func (r *RedisBackend) Save(ctx context.Context, kind ports.CacheKind, entries map[string]string) error {
	if r.Client == nil {
		return errors.New("cache backend: redis client is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	for key := range entries {
		if key == "" {
			return fmt.Errorf("save cache: empty pair key")
		}
	}

	if err := r.Client.HSet(ctx, r.hashKey(kind), entries).Err(); err != nil {
		return fmt.Errorf("save cache: hset %s: %w", r.hashKey(kind), err)
	}
	return nil
}
