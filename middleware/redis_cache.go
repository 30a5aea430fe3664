package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/focusloop/relstore/store"
)

// RedisCache caches read-result envelopes in Redis. Requests opt in per call
// via WithCacheTTL; writes and un-marked reads pass straight through.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache creates a RedisCache over a new client for the given options.
func NewRedisCache(opt *redis.Options) *RedisCache {
	return &RedisCache{Client: redis.NewClient(opt)}
}

func (m *RedisCache) Name() string { return "RedisCache" }

func (m *RedisCache) Init(db *store.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Ping(ctx).Err()
}

func (m *RedisCache) Shutdown() error {
	return m.Client.Close()
}

func (m *RedisCache) Process(ctx context.Context, op store.Op, b *store.BoundStatement, next store.ExecFunc) (*store.Envelope, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(op) {
		return next(ctx, b)
	}
	if ttl < 0 {
		// negative means no expiry; Redis expresses that as 0
		ttl = 0
	}

	key := cacheKey(op, b)
	if data, err := m.Client.Get(ctx, key).Bytes(); err == nil {
		if env, derr := decodeEnvelope(data); derr == nil {
			return env, nil
		}
	}

	env, err := next(ctx, b)
	if err != nil {
		return nil, err
	}
	if data, merr := json.Marshal(env); merr == nil {
		// a cache write failure must not fail the read
		m.Client.Set(ctx, key, data, ttl)
	}
	return env, nil
}
