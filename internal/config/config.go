// Package config loads the resolver configuration from a TOML file and the
// environment.
//
// Example file:
//
//	[libraries]
//	builtin  = "/opt/codebender/builtin"
//	external = "/opt/codebender/external"
//
//	[server]
//	addr = ":8080"
//
//	[metadata]
//	backend    = "mongo"
//	uri        = "mongodb://localhost:27017"
//	database   = "codebender"
//	collection = "external_libraries"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
//	ttl        = "5m"
//
// Environment variables override the file: ERATOSTHENES_BUILTIN_LIBRARIES,
// ERATOSTHENES_EXTERNAL_LIBRARIES, ERATOSTHENES_ADDR, ERATOSTHENES_MONGO_URI
// and ERATOSTHENES_REDIS_ADDR.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/codebender/eratosthenes/pkg/library"
	"github.com/codebender/eratosthenes/pkg/metadata"
)

// Metadata backends.
const (
	MetadataMemory = "memory"
	MetadataMongo  = "mongo"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Environment variable names.
const (
	EnvBuiltin  = "ERATOSTHENES_BUILTIN_LIBRARIES"
	EnvExternal = "ERATOSTHENES_EXTERNAL_LIBRARIES"
	EnvAddr     = "ERATOSTHENES_ADDR"
	EnvMongoURI = "ERATOSTHENES_MONGO_URI"
	EnvRedis    = "ERATOSTHENES_REDIS_ADDR"
)

// Config is the complete service configuration.
type Config struct {
	Libraries Libraries `toml:"libraries"`
	Server    Server    `toml:"server"`
	Metadata  Metadata  `toml:"metadata"`
	Cache     Cache     `toml:"cache"`
}

// Libraries holds the library tree roots.
type Libraries struct {
	Builtin  string `toml:"builtin"`
	External string `toml:"external"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Metadata selects and configures the external library registry.
type Metadata struct {
	Backend    string            `toml:"backend"`
	URI        string            `toml:"uri"`
	Database   string            `toml:"database"`
	Collection string            `toml:"collection"`
	Timeout    time.Duration     `toml:"timeout"`
	Seed       []metadata.Record `toml:"seed"`
}

// Cache selects and configures the metadata lookup cache.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// Load reads path (skipped when empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes TOML data without touching the environment or validating.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from non-empty environment values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Libraries.Builtin, EnvBuiltin)
	set(&c.Libraries.External, EnvExternal)
	set(&c.Server.Addr, EnvAddr)
	set(&c.Metadata.URI, EnvMongoURI)
	set(&c.Cache.RedisAddr, EnvRedis)
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = MetadataMemory
		if c.Metadata.URI != "" {
			c.Metadata.Backend = MetadataMongo
		}
	}
	if c.Metadata.Database == "" {
		c.Metadata.Database = "codebender"
	}
	if c.Metadata.Collection == "" {
		c.Metadata.Collection = "external_libraries"
	}
	if c.Metadata.Timeout == 0 {
		c.Metadata.Timeout = 5 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheNone
		if c.Cache.RedisAddr != "" {
			c.Cache.Backend = CacheRedis
		}
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = metadata.DefaultCacheTTL
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Libraries.Builtin == "" {
		return fmt.Errorf("libraries.builtin is required (or set %s)", EnvBuiltin)
	}
	if c.Libraries.External == "" {
		return fmt.Errorf("libraries.external is required (or set %s)", EnvExternal)
	}
	switch c.Metadata.Backend {
	case MetadataMemory:
	case MetadataMongo:
		if c.Metadata.URI == "" {
			return fmt.Errorf("metadata.uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown metadata backend %q", c.Metadata.Backend)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Roots returns the library roots for the resolver.
func (c *Config) Roots() library.Roots {
	return library.Roots{Builtin: c.Libraries.Builtin, External: c.Libraries.External}
}
