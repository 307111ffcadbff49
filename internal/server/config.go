package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/chitboxes/pkg/cache"
)

// Environment variables read by LoadConfig.
const (
	EnvAddr          = "CHITBOXES_ADDR"
	EnvRedisAddr     = "CHITBOXES_REDIS_ADDR"
	EnvRedisPassword = "CHITBOXES_REDIS_PASSWORD"
	EnvRedisDB       = "CHITBOXES_REDIS_DB"
	EnvCacheTTL      = "CHITBOXES_CACHE_TTL"
	EnvCacheScope    = "CHITBOXES_CACHE_SCOPE"
	EnvMaxUpload     = "CHITBOXES_MAX_UPLOAD_BYTES"
)

// Defaults for unset variables.
const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 16 << 20
)

// Config holds server settings.
type Config struct {
	Addr string

	// RedisAddr enables the Redis artifact cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL time.Duration
	// CacheScope prefixes every cache key, e.g. "v2:" after a renderer change.
	CacheScope     string
	MaxUploadBytes int64
	Version        string
}

// LoadConfig reads settings from the environment after loading envFiles
// (default ".env"). Missing env files are ignored; variables already set in
// the environment win over file values.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Addr:           getenv(EnvAddr, DefaultAddr),
		RedisAddr:      os.Getenv(EnvRedisAddr),
		RedisPassword:  os.Getenv(EnvRedisPassword),
		CacheScope:     os.Getenv(EnvCacheScope),
		CacheTTL:       cache.TTLArtifact,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		cfg.RedisDB = db
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		cfg.CacheTTL = ttl
	}
	if v := os.Getenv(EnvMaxUpload); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive byte count, got %q", EnvMaxUpload, v)
		}
		cfg.MaxUploadBytes = n
	}
	return cfg, nil
}

// NewKeyer returns the cache keyer for cfg, scoped when CacheScope is set.
func NewKeyer(cfg Config) cache.Keyer {
	if cfg.CacheScope == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, cfg.CacheScope)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
