package metadata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codebender/eratosthenes/pkg/cache"
	"github.com/codebender/eratosthenes/pkg/observability"
)

// keyType labels metadata entries in cache hook events.
const keyType = "metadata"

// DefaultCacheTTL is how long lookups are cached when no TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

// CachingGateway caches lookups of an inner Gateway, including misses.
// Cache failures degrade to uncached lookups and are logged at warn level.
type CachingGateway struct {
	inner  Gateway
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// CachingOptions configures a CachingGateway. Zero values select defaults.
type CachingOptions struct {
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCachingGateway wraps inner with c.
func NewCachingGateway(inner Gateway, c cache.Cache, opts CachingOptions) *CachingGateway {
	if c == nil {
		c = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &CachingGateway{
		inner:  inner,
		cache:  c,
		keyer:  opts.Keyer,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}
}

// cachedLookup is the cached form of a lookup; a nil Record is a cached miss.
type cachedLookup struct {
	Record *Record `json:"record"`
}

// FindActiveByName implements Gateway.
func (g *CachingGateway) FindActiveByName(ctx context.Context, name string) (*Record, error) {
	return g.FindAnyByName(ctx, name, false)
}

// FindAnyByName implements Gateway.
func (g *CachingGateway) FindAnyByName(ctx context.Context, name string, includeDisabled bool) (*Record, error) {
	key := g.keyer.MetadataKey(name, includeDisabled)

	data, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("metadata cache read failed", "library", name, "err", err)
	}
	hooks := observability.Cache()
	if hit {
		var cl cachedLookup
		if err := json.Unmarshal(data, &cl); err == nil {
			hooks.OnCacheHit(ctx, keyType)
			return cl.Record, nil
		}
		_ = g.cache.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, keyType)

	rec, err := g.inner.FindAnyByName(ctx, name, includeDisabled)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedLookup{Record: rec}); err == nil {
		if err := g.cache.Set(ctx, key, data, g.ttl); err != nil {
			g.logger.Warn("metadata cache write failed", "library", name, "err", err)
		} else {
			hooks.OnCacheSet(ctx, keyType, len(data))
		}
	}
	return rec, nil
}

var _ Gateway = (*CachingGateway)(nil)
