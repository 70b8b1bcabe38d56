package plugins

import (
	"context"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"softcenter/internal/domain"
)

type cacheKey struct {
	filter domain.PopulationFilter
	query  string
}

type cachedEntry struct {
	id   string
	item domain.Item
}

// cachedPlugin remembers complete populations per (filter, query)
type cachedPlugin struct {
	inner Plugin
	cache *lru.Cache[cacheKey, []cachedEntry]
}

// WithCache wraps p with an LRU of complete search populations. Cancelled or
// failed populations are never stored, and installed-only populations always
// go to the backend since installed state changes outside the application.
// A size of zero or less returns p unchanged.
func WithCache(p Plugin, size int) Plugin {
	if size <= 0 {
		return p
	}
	cache, err := lru.New[cacheKey, []cachedEntry](size)
	if err != nil {
		return p
	}
	return &cachedPlugin{inner: p, cache: cache}
}

func (c *cachedPlugin) Name() string { return c.inner.Name() }

func (c *cachedPlugin) Populate(ctx context.Context, sink Sink, filter domain.PopulationFilter, query string) error {
	if filter == domain.FilterInstalled {
		return c.inner.Populate(ctx, sink, filter, query)
	}
	key := cacheKey{filter: filter, query: query}

	if entries, ok := c.cache.Get(key); ok {
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.Add(e.id, e.item); err != nil {
				return err
			}
		}
		return nil
	}

	var recorded []cachedEntry
	recording := SinkFunc(func(id string, item domain.Item) error {
		if err := sink.Add(id, item); err != nil {
			return err
		}
		recorded = append(recorded, cachedEntry{id: id, item: item})
		return nil
	})

	if err := c.inner.Populate(ctx, recording, filter, query); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.cache.Add(key, recorded)
	return nil
}

// Purge drops every cached population
func (c *cachedPlugin) Purge() {
	c.cache.Purge()
}

func (c *cachedPlugin) Close() error {
	if closer, ok := c.inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Purger is implemented by plugins that cache results
type Purger interface {
	Purge()
}
