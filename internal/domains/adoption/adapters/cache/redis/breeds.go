package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

const (
	DefaultBreedsKey = "dog-adoption:catalog:breeds"
	DefaultBreedsTTL = time.Hour
)

// BreedCache keeps the catalog's breed list in redis. The list is the same for every user, so
// one cache serves all sessions; concurrent misses collapse into a single catalog call.
type BreedCache struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

type Option func(*BreedCache)

func WithKey(key string) Option {
	return func(c *BreedCache) {
		if key != "" {
			c.key = key
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *BreedCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *BreedCache) {
		c.logger = logger
	}
}

// NewBreedCache builds the cache on an existing redis client.
func NewBreedCache(client goredis.UniversalClient, opts ...Option) *BreedCache {
	c := &BreedCache{client: client, key: DefaultBreedsKey, ttl: DefaultBreedsTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Decorate wraps a session's gateway so ListBreeds reads through the cache.
func (c *BreedCache) Decorate(inner ports.CatalogGateway) ports.CatalogGateway {
	return &cachedGateway{CatalogGateway: inner, cache: c}
}

// Breeds returns the cached list or loads it. Redis failures degrade to calling load.
func (c *BreedCache) Breeds(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	if breeds, ok := c.get(ctx); ok {
		return breeds, nil
	}
	fill := func() (any, error) {
		breeds, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, breeds)
		return breeds, nil
	}
	v, err, shared := c.group.Do(c.key, fill)
	if shared && callerSpecific(ctx, err) {
		v, err = fill()
	}
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// callerSpecific reports whether a shared load failed for reasons that belong to the caller that
// ran it: its credential was rejected, or its context ended while ctx is still live.
func callerSpecific(ctx context.Context, err error) bool {
	if errors.Is(err, ports.ErrUnauthorized) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err() == nil
	}
	return false
}

// Invalidate drops the cached list.
func (c *BreedCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *BreedCache) get(ctx context.Context) ([]string, bool) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "breed cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	var breeds []string
	if err := json.Unmarshal(raw, &breeds); err != nil {
		c.logger.WarnContext(ctx, "breed cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	return breeds, true
}

func (c *BreedCache) set(ctx context.Context, breeds []string) {
	raw, err := json.Marshal(breeds)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "breed cache write failed", slog.String("error", err.Error()))
	}
}

type cachedGateway struct {
	ports.CatalogGateway
	cache *BreedCache
}

func (g *cachedGateway) ListBreeds(ctx context.Context) ([]string, error) {
	return g.cache.Breeds(ctx, g.CatalogGateway.ListBreeds)
}
