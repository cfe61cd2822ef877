package taxonomy

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/entigraph/entigest/internal/sparql"
)

// chainClient serves superclass chains and counts remote invocations.
type chainClient struct {
	mu     sync.Mutex
	chains map[string][]string
	calls  int

	// rateLimitUntil fails the first n calls with ErrRateLimited.
	rateLimitUntil int
}

func (c *chainClient) Select(ctx context.Context, query, idVar, labelVar string) ([]sparql.Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.rateLimitUntil {
		return nil, sparql.ErrRateLimited
	}
	for id, chain := range c.chains {
		if strings.Contains(query, "wd:"+id+" ") {
			bindings := make([]sparql.Binding, len(chain))
			for i, s := range chain {
				bindings[i] = sparql.Binding{ID: s}
			}
			return bindings, nil
		}
	}
	return nil, nil
}

func (c *chainClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSuperclassCache_SingleLookupPerType(t *testing.T) {
	client := &chainClient{chains: map[string][]string{
		"Q515": {"Q515", "Q486972", "Q2221906"},
	}}
	cache := NewSuperclassCache(client, 3, 0, nil)

	// N entities sharing type Q515 trigger at most one remote lookup.
	for i := 0; i < 50; i++ {
		chain := cache.Superclasses(context.Background(), "Q515")
		if len(chain) != 3 {
			t.Fatalf("expected chain of 3, got %v", chain)
		}
	}
	if got := client.callCount(); got != 1 {
		t.Errorf("expected 1 remote call, got %d", got)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached type, got %d", cache.Len())
	}
}

func TestSuperclassCache_ConcurrentMissesCollapse(t *testing.T) {
	client := &chainClient{chains: map[string][]string{
		"Q5": {"Q5", "Q154954"},
	}}
	cache := NewSuperclassCache(client, 3, 0, nil)

	var wg sync.WaitGroup
	var mismatch int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chain := cache.Superclasses(context.Background(), "Q5")
			if len(chain) != 2 {
				atomic.AddInt32(&mismatch, 1)
			}
		}()
	}
	wg.Wait()

	if mismatch != 0 {
		t.Errorf("%d goroutines saw a wrong chain", mismatch)
	}
	if got := client.callCount(); got != 1 {
		t.Errorf("expected concurrent misses to collapse to 1 call, got %d", got)
	}
}

func TestSuperclassCache_RetriesOnRateLimitOnly(t *testing.T) {
	var slept int32
	sleepFunc = func(time.Duration) { atomic.AddInt32(&slept, 1) }
	defer func() { sleepFunc = time.Sleep }()

	client := &chainClient{
		chains:         map[string][]string{"Q5": {"Q5"}},
		rateLimitUntil: 2,
	}
	cache := NewSuperclassCache(client, 3, time.Second, nil)

	chain := cache.Superclasses(context.Background(), "Q5")
	if len(chain) != 1 {
		t.Fatalf("expected recovery after retries, got %v", chain)
	}
	if got := client.callCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if slept != 2 {
		t.Errorf("expected 2 inter-retry delays, got %d", slept)
	}
}

func TestSuperclassCache_ExhaustedBudgetCachesEmpty(t *testing.T) {
	sleepFunc = func(time.Duration) {}
	defer func() { sleepFunc = time.Sleep }()

	client := &chainClient{rateLimitUntil: 1 << 30}
	cache := NewSuperclassCache(client, 3, time.Second, nil)

	if chain := cache.Superclasses(context.Background(), "Q42"); len(chain) != 0 {
		t.Fatalf("expected empty chain after exhausted budget, got %v", chain)
	}
	attempts := client.callCount()
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	// The failure is memoized: asking again must not touch the endpoint.
	cache.Superclasses(context.Background(), "Q42")
	if got := client.callCount(); got != attempts {
		t.Errorf("expected no further calls, got %d", got-attempts)
	}
}

func TestSuperclassCache_DeduplicatesChain(t *testing.T) {
	client := &chainClient{chains: map[string][]string{
		"Q515": {"Q515", "Q486972", "Q515"},
	}}
	cache := NewSuperclassCache(client, 3, 0, nil)

	chain := cache.Superclasses(context.Background(), "Q515")
	if len(chain) != 2 {
		t.Errorf("expected deduplicated chain, got %v", chain)
	}
}
