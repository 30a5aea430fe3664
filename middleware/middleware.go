// Package middleware provides statement-execution middleware for the storage
// layer: read-result caches and a slow-statement log. Middlewares never alter
// error semantics; a failed statement propagates unchanged.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/focusloop/relstore/store"
)

var (
	_ store.Middleware = (*RedisCache)(nil)
	_ store.Middleware = (*MemoryCache)(nil)
	_ store.Middleware = (*SlowLog)(nil)
)

type ctxKey int

const cacheTTLKey ctxKey = iota

// WithCacheTTL marks a request as cacheable for the given duration. Without
// it the caches pass reads straight through. A zero TTL disables caching for
// the request; a negative TTL caches without expiry.
//
// Cached envelopes round-trip through JSON: integer and float row values
// keep their live types, but driver-specific types such as time.Time come
// back as their JSON string form.
func WithCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, cacheTTLKey, ttl)
}

// cacheTTL extracts the requested TTL. ok is false when the request did not
// opt in to caching.
func cacheTTL(ctx context.Context) (time.Duration, bool) {
	v := ctx.Value(cacheTTLKey)
	if v == nil {
		return 0, false
	}
	ttl, ok := v.(time.Duration)
	if !ok || ttl == 0 {
		return 0, false
	}
	return ttl, true
}

// cacheKey derives a stable key from the operation, query text and bound
// values.
func cacheKey(op store.Op, b *store.BoundStatement) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%v", op, b.Query(), b.Values())))
	return "relstore:cache:" + hex.EncodeToString(sum[:])
}

// cacheable reports whether the operation is a read.
func cacheable(op store.Op) bool {
	return op == store.OpFirst || op == store.OpAll
}

// decodeEnvelope rebuilds a cached envelope. Numbers are decoded through
// json.Number and restored to int64 where they fit, so a cached row carries
// the same value types as a live one.
func decodeEnvelope(data []byte) (*store.Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var env store.Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	restoreNumbers(env.SingleRow)
	for _, r := range env.Rows {
		restoreNumbers(r)
	}
	return &env, nil
}

func restoreNumbers(r store.Row) {
	for k, v := range r {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			r[k] = i
		} else if f, err := n.Float64(); err == nil {
			r[k] = f
		}
	}
}
