package nix

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// SearchCache memoizes package search output. Searches are read-only, so
// unlimited concurrency is safe; the cache just keeps repeated queries from
// hammering the backend, and singleflight collapses concurrent identical
// queries into one subprocess.
type SearchCache struct {
	runner Runner
	cache  *lru.LRU[string, string]
	flight singleflight.Group
}

const (
	searchCacheSize = 256
	searchCacheTTL  = 5 * time.Minute
	searchTimeout   = 30 * time.Second
)

// NewSearchCache creates a search cache backed by the given runner.
func NewSearchCache(runner Runner) *SearchCache {
	return &SearchCache{
		runner: runner,
		cache:  lru.NewLRU[string, string](searchCacheSize, nil, searchCacheTTL),
	}
}

// Search runs a package search, serving repeated queries from the cache.
func (c *SearchCache) Search(ctx context.Context, terms []string) (string, error) {
	key := strings.Join(terms, " ")
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}

	out, err, _ := c.flight.Do(key, func() (interface{}, error) {
		searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
		defer cancel()

		argv := append([]string{"nix", "search", "nixpkgs"}, terms...)
		result, err := c.runner.Run(searchCtx, argv)
		if err != nil || result.ExitCode != 0 {
			// Fall back to the legacy search form.
			argv = append([]string{"nix-env", "-qaP"}, terms...)
			result, err = c.runner.Run(searchCtx, argv)
			if err != nil {
				return "", fmt.Errorf("search failed: %w", err)
			}
		}
		c.cache.Add(key, result.Stdout)
		return result.Stdout, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Invalidate drops every cached search result. Called after mutating
// operations that may change what a search would return.
func (c *SearchCache) Invalidate() {
	c.cache.Purge()
}
