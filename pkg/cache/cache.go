package cache

import (
	"context"
	"time"
)

// Store keeps opaque values under string keys.
// A zero ttl means the store default; a negative ttl never expires.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Config configures render caching.
type Config struct {
	Enabled    bool          `env:"CACHE_RENDER_ENABLED" envDefault:"false"`
	TTL        time.Duration `env:"CACHE_RENDER_TTL" envDefault:"5m"`
	MaxEntries int           `env:"CACHE_RENDER_MAX_ENTRIES" envDefault:"10000"`
	Prefix     string        `env:"CACHE_RENDER_PREFIX" envDefault:"postmaster:render"`
}
