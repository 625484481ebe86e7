package extract

import (
	"context"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"shuttersort/internal/stats"
)

// cacheKey identifies a file's content for caching purposes: a rewritten file
// gets a fresh extraction.
type cacheKey struct {
	path  string
	size  int64
	mtime int64
}

type cachedDate struct {
	when time.Time
	ok   bool
}

// cachedExtractor memoizes extraction results in a bounded LRU. Negative
// results are cached too: a file without metadata stays without metadata
// until it changes.
type cachedExtractor struct {
	inner     Extractor
	cache     *lru.Cache[cacheKey, cachedDate]
	collector *stats.Collector
}

func newCachedExtractor(inner Extractor, capacity int, collector *stats.Collector) (Extractor, error) {
	cache, err := lru.New[cacheKey, cachedDate](capacity)
	if err != nil {
		return nil, fmt.Errorf("build extraction cache: %w", err)
	}
	return &cachedExtractor{inner: inner, cache: cache, collector: collector}, nil
}

func (c *cachedExtractor) Extract(ctx context.Context, path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// Unstattable files bypass the cache; the inner extractor will fail
		// the same way and report no date.
		return c.inner.Extract(ctx, path)
	}

	key := cacheKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if cached, ok := c.cache.Get(key); ok {
		if c.collector != nil {
			c.collector.Increment(stats.CacheHits)
		}
		return cached.when, cached.ok
	}

	if c.collector != nil {
		c.collector.Increment(stats.CacheMisses)
	}
	when, ok := c.inner.Extract(ctx, path)
	c.cache.Add(key, cachedDate{when: when, ok: ok})
	return when, ok
}
