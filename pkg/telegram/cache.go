package telegram

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/marmos91/telebox/internal/telemetry"
)

// PathResolver resolves a file identifier to its download path.
type PathResolver interface {
	GetFilePath(ctx context.Context, fileID string) (string, error)
}

// CacheMetrics observes path cache lookups. A nil CacheMetrics is valid.
type CacheMetrics interface {
	RecordLookup(hit bool)
}

// CacheConfig sizes the path cache. Bot API download paths stay valid for
// at least an hour, so TTL should stay below that.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Size    int           `mapstructure:"size" yaml:"size" validate:"omitempty,min=1"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"omitempty,max=1h"`
}

// PathCache memoizes successful getFile lookups in an expiring LRU.
// Failures and empty paths are never cached.
type PathCache struct {
	next    PathResolver
	lru     *expirable.LRU[string, string]
	metrics CacheMetrics
}

// NewPathCache wraps next with an LRU of size entries living for ttl.
func NewPathCache(next PathResolver, size int, ttl time.Duration, m CacheMetrics) *PathCache {
	return &PathCache{
		next:    next,
		lru:     expirable.NewLRU[string, string](size, nil, ttl),
		metrics: m,
	}
}

// GetFilePath returns a cached path or asks the wrapped resolver.
func (c *PathCache) GetFilePath(ctx context.Context, fileID string) (string, error) {
	if path, ok := c.lru.Get(fileID); ok {
		c.record(ctx, true)
		return path, nil
	}
	c.record(ctx, false)

	path, err := c.next.GetFilePath(ctx, fileID)
	if err != nil {
		return "", err
	}
	if path != "" {
		c.lru.Add(fileID, path)
	}
	return path, nil
}

func (c *PathCache) record(ctx context.Context, hit bool) {
	telemetry.SetAttributes(ctx, telemetry.CacheHit(hit))
	if c.metrics != nil {
		c.metrics.RecordLookup(hit)
	}
}

// Len returns the number of live entries.
func (c *PathCache) Len() int {
	return c.lru.Len()
}
