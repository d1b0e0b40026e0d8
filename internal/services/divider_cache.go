package services

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CachedDivider memoises a deterministic Divider by input name. Failed divisions are not cached.
type CachedDivider struct {
	next      Divider
	cache     *lru.Cache[string, DividedName]
	hits      metric.Int64Counter
	hitsAttrs metric.AddOption
}

var _ Divider = (*CachedDivider)(nil)

// NewCachedDivider wraps next with an LRU of size entries. hits may be nil.
func NewCachedDivider(next Divider, size int, mode string, hits metric.Int64Counter) (*CachedDivider, error) {
	if next == nil {
		return nil, errors.New("divider cache: divider is required")
	}
	if size <= 0 {
		return nil, errors.New("divider cache: size must be positive")
	}
	cache, err := lru.New[string, DividedName](size)
	if err != nil {
		return nil, err
	}
	return &CachedDivider{
		next:      next,
		cache:     cache,
		hits:      hits,
		hitsAttrs: metric.WithAttributes(attribute.String("mode", mode)),
	}, nil
}

// Divide returns the cached result for name or divides and stores it.
func (c *CachedDivider) Divide(name string) (DividedName, error) {
	if result, ok := c.cache.Get(name); ok {
		if c.hits != nil {
			c.hits.Add(context.Background(), 1, c.hitsAttrs)
		}
		return result, nil
	}
	result, err := c.next.Divide(name)
	if err != nil {
		return DividedName{}, err
	}
	c.cache.Add(name, result)
	return result, nil
}

// Len reports the number of cached names.
func (c *CachedDivider) Len() int {
	return c.cache.Len()
}
