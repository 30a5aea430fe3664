package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/focusloop/relstore/store"
)

// MemoryCache is an in-process read-result cache for deployments without a
// Redis. Entries are stored as serialized envelopes so cached results cannot
// be mutated by callers.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero time means no expiry
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Name() string { return "MemoryCache" }

func (m *MemoryCache) Init(db *store.DB) error { return nil }

func (m *MemoryCache) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Len reports the number of live entries, expired ones included until their
// next lookup.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Process(ctx context.Context, op store.Op, b *store.BoundStatement, next store.ExecFunc) (*store.Envelope, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(op) {
		return next(ctx, b)
	}

	key := cacheKey(op, b)
	if data, hit := m.get(key); hit {
		if env, derr := decodeEnvelope(data); derr == nil {
			return env, nil
		}
	}

	env, err := next(ctx, b)
	if err != nil {
		return nil, err
	}
	if data, merr := json.Marshal(env); merr == nil {
		m.set(key, data, ttl)
	}
	return env, nil
}

func (m *MemoryCache) get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

func (m *MemoryCache) set(key string, data []byte, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: exp}
	m.mu.Unlock()
}
