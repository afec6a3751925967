package harness

import (
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/relation"
)

// assert evaluates one assertion against the final store state.
func (r *runner) assert(i int, a Assertion) {
	switch a.Type {
	case AssertLiveValue:
		r.assertLiveValue(i, a)
	case AssertNoFact:
		r.assertNoFact(i, a)
	case AssertFactCount:
		r.assertFactCount(i, a)
	case AssertRelated:
		r.assertRelated(i, a)
	default:
		r.result.AddError("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
}

func (r *runner) assertLiveValue(i int, a Assertion) {
	facts, err := r.store.FetchFacts(r.ctx, &a.Item, &a.Attribute, nil)
	if err != nil {
		r.result.AddError("assertions[%d] live_value %s.%s: %v", i, a.Item, a.Attribute, err)
		return
	}
	live, err := r.store.Live(r.ctx, facts)
	if err != nil {
		r.result.AddError("assertions[%d] live_value %s.%s: %v", i, a.Item, a.Attribute, err)
		return
	}
	newest, ok := live.First()
	if !ok {
		r.result.AddError("assertions[%d] live_value %s.%s: no live fact", i, a.Item, a.Attribute)
		return
	}
	if got := displayValue(newest); got != a.Value {
		r.result.AddError("assertions[%d] live_value %s.%s: expected %q, got %q", i, a.Item, a.Attribute, a.Value, got)
	}
}

func (r *runner) assertNoFact(i int, a Assertion) {
	facts, err := r.store.FetchFacts(r.ctx, &a.Item, &a.Attribute, nil)
	if err != nil {
		r.result.AddError("assertions[%d] no_fact %s.%s: %v", i, a.Item, a.Attribute, err)
		return
	}
	live, err := r.store.Live(r.ctx, facts)
	if err != nil {
		r.result.AddError("assertions[%d] no_fact %s.%s: %v", i, a.Item, a.Attribute, err)
		return
	}
	if !live.Empty() {
		r.result.AddError("assertions[%d] no_fact %s.%s: found %d live facts", i, a.Item, a.Attribute, live.Len())
	}
}

func (r *runner) assertFactCount(i int, a Assertion) {
	all, err := r.store.FactsAfter(r.ctx, itemstore.DriveName(a.Drive), 0)
	if err != nil {
		r.result.AddError("assertions[%d] fact_count %s: %v", i, a.Drive, err)
		return
	}
	if all.Len() != a.Count {
		r.result.AddError("assertions[%d] fact_count %s: expected %d, got %d", i, a.Drive, a.Count, all.Len())
	}
}

func (r *runner) assertRelated(i int, a Assertion) {
	ids, err := r.graph.FindRel(r.ctx, relation.Filter{
		FromItemID:       optional(a.From),
		ToItemID:         optional(a.To),
		RelationshipType: optional(a.Relationship),
	})
	if err != nil {
		r.result.AddError("assertions[%d] related: %v", i, err)
		return
	}
	if len(ids) != a.Count {
		r.result.AddError("assertions[%d] related: expected %d relationships, got %d", i, a.Count, len(ids))
	}
}
