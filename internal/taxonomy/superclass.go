package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/entigraph/entigest/internal/sparql"
)

// sleepFunc is the delay between rate-limit retries (injectable for tests).
var sleepFunc = time.Sleep

// SuperclassCache resolves the transitive superclass chain of a type and
// memoizes it for the whole run. Entities share declared types heavily, so
// without the cache the endpoint would see one chain lookup per entity per
// type. Concurrent misses for the same type collapse into a single remote
// call through the flight group; every waiter gets the shared result.
type SuperclassCache struct {
	client     QueryClient
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	mu       sync.RWMutex
	resolved map[string][]string
	flight   singleflight.Group
}

// NewSuperclassCache creates an empty cache over the given client.
func NewSuperclassCache(client QueryClient, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *SuperclassCache {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SuperclassCache{
		client:     client,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
		resolved:   make(map[string][]string),
	}
}

// Superclasses returns the full superclass chain of typeID, including the
// type itself. A lookup that exhausts its retry budget resolves to an empty
// chain, and that outcome is cached like any other: retrying a dead branch
// once per entity is exactly the load pattern the cache exists to prevent.
func (c *SuperclassCache) Superclasses(ctx context.Context, typeID string) []string {
	c.mu.RLock()
	chain, ok := c.resolved[typeID]
	c.mu.RUnlock()
	if ok {
		return chain
	}

	result, _, _ := c.flight.Do(typeID, func() (interface{}, error) {
		chain := c.lookup(ctx, typeID)
		c.mu.Lock()
		c.resolved[typeID] = chain
		c.mu.Unlock()
		return chain, nil
	})
	return result.([]string)
}

// Len reports how many types have been resolved so far.
func (c *SuperclassCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolved)
}

// lookup queries the chain, retrying only on rate-limit refusals with a
// fixed delay between attempts.
func (c *SuperclassCache) lookup(ctx context.Context, typeID string) []string {
	query := sparql.SuperclassQuery(typeID)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		bindings, err := c.client.Select(ctx, query, "superclass", "superclassLabel")
		if err == nil {
			chain := make([]string, 0, len(bindings))
			seen := make(map[string]struct{}, len(bindings))
			for _, b := range bindings {
				if _, dup := seen[b.ID]; dup {
					continue
				}
				seen[b.ID] = struct{}{}
				chain = append(chain, b.ID)
			}
			return chain
		}

		if !errors.Is(err, sparql.ErrRateLimited) {
			c.logger.Warn("superclass lookup failed", "type", typeID, "err", err)
			return nil
		}

		c.logger.Warn("superclass lookup rate limited",
			"type", typeID, "attempt", attempt, "max", c.maxRetries)
		if attempt < c.maxRetries {
			sleepFunc(c.retryDelay)
		}
	}

	c.logger.Warn("superclass lookup gave up after retries", "type", typeID)
	return nil
}
