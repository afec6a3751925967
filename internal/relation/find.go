package relation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/factstore/internal/ir"
)

// Filter selects relationships by endpoint and type. Nil fields are
// unconstrained; at least one must be set.
type Filter struct {
	FromItemID       *string
	ToItemID         *string
	RelationshipType *string
}

// AttributeFilters converts f to the equivalent attribute-equality filters.
func (f Filter) AttributeFilters() []AttributeFilter {
	var out []AttributeFilter
	if f.FromItemID != nil {
		out = append(out, AttributeFilter{Attribute: ir.AttrFromItemID, Value: *f.FromItemID})
	}
	if f.ToItemID != nil {
		out = append(out, AttributeFilter{Attribute: ir.AttrToItemID, Value: *f.ToItemID})
	}
	if f.RelationshipType != nil {
		out = append(out, AttributeFilter{Attribute: ir.AttrRelationshipType, Value: *f.RelationshipType})
	}
	return out
}

// AttributeFilter matches items having a fact attribute = value.
type AttributeFilter struct {
	Attribute string
	Value     string
}

// FindRel returns the ids of relationships matching every set field of f.
func (g *Graph) FindRel(ctx context.Context, f Filter) ([]string, error) {
	ids, err := g.Intersect(ctx, f.AttributeFilters())
	if err != nil {
		return nil, fmt.Errorf("find relationship: %w", err)
	}
	return ids, nil
}

// Intersect returns the ids of items that satisfy every filter.
//
// Each filter is one lookup across both drives, run concurrently. The
// smallest candidate set drives the intersection and the result keeps its
// order, newest match first. An empty candidate set ends the search with an
// empty result.
func (g *Graph) Intersect(ctx context.Context, filters []AttributeFilter) ([]string, error) {
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}

	candidates := make([][]string, len(filters))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, filter := range filters {
		i, filter := i, filter
		eg.Go(func() error {
			facts, err := g.store.FetchFacts(egCtx, nil, &filter.Attribute, &filter.Value)
			if err != nil {
				return fmt.Errorf("%s=%s: %w", filter.Attribute, filter.Value, err)
			}
			candidates[i] = facts.ItemIDs()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	driver := 0
	for i, c := range candidates {
		if len(c) < len(candidates[driver]) {
			driver = i
		}
	}
	if len(candidates[driver]) == 0 {
		return []string{}, nil
	}

	others := make([]map[string]struct{}, 0, len(candidates)-1)
	for i, c := range candidates {
		if i == driver {
			continue
		}
		set := make(map[string]struct{}, len(c))
		for _, id := range c {
			set[id] = struct{}{}
		}
		others = append(others, set)
	}

	result := []string{}
	for _, id := range candidates[driver] {
		if inAll(id, others) {
			result = append(result, id)
		}
	}
	return result, nil
}

func inAll(id string, sets []map[string]struct{}) bool {
	for _, set := range sets {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
