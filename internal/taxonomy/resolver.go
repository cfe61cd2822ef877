package taxonomy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/entigraph/entigest/internal/sparql"
)

// QueryClient is the slice of the SPARQL client the resolver needs.
type QueryClient interface {
	Select(ctx context.Context, query, idVar, labelVar string) ([]sparql.Binding, error)
}

// Resolver builds taxonomy sets from transitive subclass closures.
type Resolver struct {
	client QueryClient
	logger *slog.Logger
}

// NewResolver creates a resolver over the given query client.
func NewResolver(client QueryClient, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, logger: logger}
}

// Closure resolves the reverse-subclass closure of the roots, minus the
// closure of each exclusion root. Every branch — the root set and each
// exclusion — is independently fault-isolated: a failed query degrades to an
// empty set with a warning instead of an error. A missing branch reduces
// classification recall but never stops a run, and because the fallback is
// invisible in the output, the warning here is the only trace.
func (r *Resolver) Closure(ctx context.Context, roots, exclude []string) Set {
	members := r.subtreeOrEmpty(ctx, roots)
	for _, root := range exclude {
		for id := range r.subtreeOrEmpty(ctx, []string{root}) {
			delete(members, id)
		}
	}
	return members
}

// subtree runs one reverse-subclass reachability query.
func (r *Resolver) subtree(ctx context.Context, roots []string) (Set, error) {
	bindings, err := r.client.Select(ctx, sparql.SubtreeQuery(roots, SubclassOf, true), "id", "")
	if err != nil {
		return nil, fmt.Errorf("subtree of %v: %w", roots, err)
	}
	set := make(Set, len(bindings))
	for _, b := range bindings {
		set[b.ID] = struct{}{}
	}
	return set, nil
}

func (r *Resolver) subtreeOrEmpty(ctx context.Context, roots []string) Set {
	set, err := r.subtree(ctx, roots)
	if err != nil {
		r.logger.Warn("taxonomy subtree failed, proceeding with empty set",
			"roots", roots, "err", err)
		return Set{}
	}
	return set
}

// Build constructs the run's taxonomy: the organization-like and
// location-like sets with their exclusion rules applied.
func Build(ctx context.Context, r *Resolver) *Taxonomy {
	return &Taxonomy{
		Organizations: r.Closure(ctx, organizationRoots, organizationExcludes),
		Locations:     r.Closure(ctx, locationRoots, locationExcludes),
	}
}
