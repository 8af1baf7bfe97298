package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"notebookService/internal/apperr"
	"notebookService/internal/cache"
)

// cacheGate is the only path from the services to the cache. Every failure
// comes back as an internal error.
type cacheGate struct {
	c   cache.Cache
	ttl time.Duration
	log zerolog.Logger
}

// lookup returns the cached entity bytes at key.
func (g *cacheGate) lookup(ctx context.Context, key string) (json.RawMessage, bool, error) {
	v, ok, err := g.c.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.Internal(err, "cache get")
	}
	g.trace(key, ok)
	return v, ok, nil
}

// populate serializes v into key and returns the bytes written.
func (g *cacheGate) populate(ctx context.Context, key string, v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Internal(err, "encode cache entry")
	}
	if err := g.c.Set(ctx, key, b, g.ttl); err != nil {
		return nil, apperr.Internal(err, "cache set")
	}
	return b, nil
}

func (g *cacheGate) invalidate(ctx context.Context, keys ...string) error {
	if err := g.c.Del(ctx, keys...); err != nil {
		return apperr.Internal(err, "cache invalidate")
	}
	return nil
}

// lookupList returns the cached collection at key as a JSON array. An empty
// list counts as a miss.
func (g *cacheGate) lookupList(ctx context.Context, key string) (json.RawMessage, bool, error) {
	items, err := g.c.ListRange(ctx, key)
	if err != nil {
		return nil, false, apperr.Internal(err, "cache list range")
	}
	g.trace(key, len(items) > 0)
	if len(items) == 0 {
		return nil, false, nil
	}
	return joinList(items), true, nil
}

func (g *cacheGate) trace(key string, hit bool) {
	if hit {
		g.log.Debug().Str("key", key).Msg("cache hit")
		return
	}
	g.log.Debug().Str("key", key).Msg("cache miss")
}

// rebuildList replaces the collection at key with items, one serialized entity
// per element, and returns the same bytes as a JSON array. The replacement is
// a single cache operation so concurrent rebuilds cannot interleave.
func rebuildList[T any](ctx context.Context, g *cacheGate, key string, items []T) (json.RawMessage, error) {
	encoded := make([][]byte, len(items))
	for i := range items {
		b, err := json.Marshal(items[i])
		if err != nil {
			return nil, apperr.Internal(err, "encode cache entry")
		}
		encoded[i] = b
	}
	if err := g.c.ListReplace(ctx, key, g.ttl, encoded...); err != nil {
		return nil, apperr.Internal(err, "cache replace list")
	}
	return joinList(encoded), nil
}

func joinList(items [][]byte) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(bytes.Join(items, []byte(",")))
	buf.WriteByte(']')
	return buf.Bytes()
}
