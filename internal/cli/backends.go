package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/codebender/eratosthenes/internal/config"
	"github.com/codebender/eratosthenes/pkg/cache"
	"github.com/codebender/eratosthenes/pkg/library"
	"github.com/codebender/eratosthenes/pkg/metadata"
)

// backends holds the connections a command opened. Close releases them in
// reverse order.
type backends struct {
	gateway metadata.Gateway
	closers []func() error
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// closeBackends closes b and logs any failure at warn level.
func (c *CLI) closeBackends(b *backends) {
	if err := b.Close(); err != nil {
		c.Logger.Warn("closing backends failed", "err", err)
	}
}

// openBackends connects the metadata store and the lookup cache selected by
// cfg and layers them into a single gateway.
func (c *CLI) openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	gw, err := c.openGateway(ctx, cfg, b)
	if err != nil {
		b.Close()
		return nil, err
	}

	if cfg.Cache.Backend == config.CacheNone {
		b.gateway = gw
		return b, nil
	}

	store, err := c.openCache(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.closers = append(b.closers, store.Close)

	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix)
	}
	b.gateway = metadata.NewCachingGateway(gw, store, metadata.CachingOptions{
		Keyer:  keyer,
		TTL:    cfg.Cache.TTL,
		Logger: c.Logger,
	})
	return b, nil
}

func (c *CLI) openGateway(ctx context.Context, cfg *config.Config, b *backends) (metadata.Gateway, error) {
	switch cfg.Metadata.Backend {
	case config.MetadataMongo:
		client, err := connectMongo(ctx, cfg.Metadata, c.Logger)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error {
			return client.Disconnect(context.Background())
		})
		coll := client.Database(cfg.Metadata.Database).Collection(cfg.Metadata.Collection)
		c.Logger.Debug("metadata backend", "backend", "mongo", "database", cfg.Metadata.Database, "collection", cfg.Metadata.Collection)
		return metadata.NewMongoGateway(coll), nil
	default:
		c.Logger.Debug("metadata backend", "backend", "memory", "records", len(cfg.Metadata.Seed))
		return metadata.NewMemoryGateway(cfg.Metadata.Seed...), nil
	}
}

func connectMongo(ctx context.Context, cfg config.Metadata, logger *log.Logger) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		pctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if err := client.Ping(pctx, readpref.Primary()); err != nil {
			logger.Warn("mongo ping failed", "err", err)
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func (c *CLI) openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		var rc *cache.RedisCache
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisOptions{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("cache backend", "backend", "redis", "addr", cfg.Cache.RedisAddr)
		return rc, nil
	case config.CacheFile:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return nil, err
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("cache backend", "backend", "file", "dir", dir)
		return fc, nil
	default:
		return cache.NewNullCache(), nil
	}
}

// fileCacheDir returns the configured cache directory or the XDG default.
func fileCacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

// newService builds the resolver over the opened backends.
func (c *CLI) newService(cfg *config.Config, b *backends) *library.Service {
	return library.NewService(library.Options{
		Roots:   cfg.Roots(),
		Gateway: b.gateway,
		Logger:  c.Logger,
	})
}
