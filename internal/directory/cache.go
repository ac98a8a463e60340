package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

// DefaultCacheTTL is used when a Cache is created with a zero TTL.
const DefaultCacheTTL = 6 * time.Hour

// Store is the subset of the redis client used by Cache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache stores lookups of the wrapped Source in redis. Redis failures are
// logged and the lookup falls through to the wrapped Source.
type Cache struct {
	next   Source
	store  Store
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ Source = (*Cache)(nil)

func NewCache(next Source, store Store, prefix string, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		next:   next,
		store:  store,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheKey is the redis key holding the entries of level under parents.
func CacheKey(prefix string, level causelist.Level, parents []string) string {
	parts := make([]string, 0, len(parents)+2)
	parts = append(parts, "hierarchy", strings.ReplaceAll(level.String(), " ", "_"))
	for _, p := range parents {
		parts = append(parts, url.PathEscape(p))
	}
	return prefix + strings.Join(parts, ":")
}

func (c *Cache) Lookup(ctx context.Context, level causelist.Level, parents []string) ([]Entry, error) {
	key := CacheKey(c.prefix, level, parents)

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entries []Entry
		if jerr := json.Unmarshal(raw, &entries); jerr == nil {
			return entries, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Cache read failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	entries, err := c.next.Lookup(ctx, level, parents)
	if err != nil || len(entries) == 0 {
		return entries, err
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return entries, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return entries, nil
}
