package taxonomy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/entigraph/entigest/internal/sparql"
)

// fakeClient answers subtree queries from a canned root->members table and
// counts invocations per query.
type fakeClient struct {
	trees map[string][]string
	calls map[string]int
	err   error
}

func newFakeClient(trees map[string][]string) *fakeClient {
	return &fakeClient{trees: trees, calls: make(map[string]int)}
}

func (f *fakeClient) Select(ctx context.Context, query, idVar, labelVar string) ([]sparql.Binding, error) {
	f.calls[query]++
	if f.err != nil {
		return nil, f.err
	}
	for root, members := range f.trees {
		if strings.Contains(query, "wd:"+root+" ") || strings.Contains(query, "wd:"+root+"\n") {
			bindings := make([]sparql.Binding, len(members))
			for i, m := range members {
				bindings[i] = sparql.Binding{ID: m}
			}
			return bindings, nil
		}
	}
	return nil, nil
}

func TestClosure_SubtractsExclusions(t *testing.T) {
	client := newFakeClient(map[string][]string{
		"Q43229": {"Q43229", "Q6256", "Q515", "Q783794"}, // org tree includes country, city, company
		"Q6256":  {"Q6256"},
		"Q515":   {"Q515"},
	})
	r := NewResolver(client, nil)

	set := r.Closure(context.Background(), []string{"Q43229"}, []string{"Q6256", "Q515"})

	if !set.Contains("Q783794") || !set.Contains("Q43229") {
		t.Errorf("expected retained members, got %v", set)
	}
	for _, excluded := range []string{"Q6256", "Q515"} {
		if set.Contains(excluded) {
			t.Errorf("excluded id %s must not appear in resolved set", excluded)
		}
	}
}

func TestClosure_Idempotent(t *testing.T) {
	trees := map[string][]string{
		"Q2221906": {"Q2221906", "Q2095", "Q515"},
		"Q2095":    {"Q2095"},
	}
	r1 := NewResolver(newFakeClient(trees), nil)
	r2 := NewResolver(newFakeClient(trees), nil)

	a := r1.Closure(context.Background(), []string{"Q2221906"}, []string{"Q2095"})
	b := r2.Closure(context.Background(), []string{"Q2221906"}, []string{"Q2095"})

	if len(a) != len(b) {
		t.Fatalf("closure not idempotent: %v vs %v", a, b)
	}
	for id := range a {
		if !b.Contains(id) {
			t.Errorf("closure not idempotent: %s missing on re-run", id)
		}
	}
}

func TestClosure_FailureDegradesToEmpty(t *testing.T) {
	client := newFakeClient(nil)
	client.err = errors.New("endpoint down")
	r := NewResolver(client, nil)

	set := r.Closure(context.Background(), []string{"Q43229"}, nil)
	if len(set) != 0 {
		t.Errorf("expected empty set on query failure, got %v", set)
	}
}

func TestClosure_ExclusionFailureOnlyWidensSet(t *testing.T) {
	// The exclusion root is unknown to the fake, so its subtree resolves
	// empty; the main set must survive untouched.
	client := newFakeClient(map[string][]string{
		"Q43229": {"Q43229", "Q783794"},
	})
	r := NewResolver(client, nil)

	set := r.Closure(context.Background(), []string{"Q43229"}, []string{"Q99999"})
	if len(set) != 2 {
		t.Errorf("expected full main set when exclusion is empty, got %v", set)
	}
}

func TestBuild_ConstructsBothSets(t *testing.T) {
	client := newFakeClient(map[string][]string{
		"Q43229":   {"Q43229", "Q783794"},
		"Q2221906": {"Q2221906", "Q515"},
	})
	tax := Build(context.Background(), NewResolver(client, nil))

	if !tax.Organizations.Contains("Q783794") {
		t.Error("expected company in organization set")
	}
	if !tax.Locations.Contains("Q515") {
		t.Error("expected city in location set")
	}
	if tax.Organizations.Contains("Q515") {
		t.Error("city must not leak into organization set")
	}
}
