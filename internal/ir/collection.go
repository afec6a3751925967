package ir

import "slices"

// FactsCollection is an ordered sequence of facts returned by a query.
// The caller owns the collection; nothing else holds a reference to it.
type FactsCollection struct {
	facts []Fact
}

// NewFactsCollection wraps facts without copying.
func NewFactsCollection(facts ...Fact) *FactsCollection {
	return &FactsCollection{facts: facts}
}

// Len returns the number of facts. A nil collection is empty.
func (c *FactsCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.facts)
}

// Empty reports whether the collection holds no facts.
func (c *FactsCollection) Empty() bool {
	return c.Len() == 0
}

// Facts returns the facts in order. Never nil.
func (c *FactsCollection) Facts() []Fact {
	if c == nil || c.facts == nil {
		return []Fact{}
	}
	return c.facts
}

// At returns the fact at index i.
func (c *FactsCollection) At(i int) Fact {
	return c.facts[i]
}

// First returns the first fact, if any.
func (c *FactsCollection) First() (Fact, bool) {
	if c.Empty() {
		return Fact{}, false
	}
	return c.facts[0], true
}

// Append adds a fact at the end.
func (c *FactsCollection) Append(f Fact) {
	c.facts = append(c.facts, f)
}

// ItemIDs returns the distinct item ids in first-seen order.
func (c *FactsCollection) ItemIDs() []string {
	seen := make(map[string]struct{}, c.Len())
	ids := make([]string, 0, c.Len())
	for _, f := range c.Facts() {
		if _, ok := seen[f.ItemID]; ok {
			continue
		}
		seen[f.ItemID] = struct{}{}
		ids = append(ids, f.ItemID)
	}
	return ids
}

// Filter returns a new collection with the facts for which keep returns true.
func (c *FactsCollection) Filter(keep func(Fact) bool) *FactsCollection {
	out := make([]Fact, 0, c.Len())
	for _, f := range c.Facts() {
		if keep(f) {
			out = append(out, f)
		}
	}
	return &FactsCollection{facts: out}
}

// SortByTimestampDesc orders facts newest first. Stable, so facts sharing a
// timestamp keep their relative order.
func (c *FactsCollection) SortByTimestampDesc() {
	slices.SortStableFunc(c.facts, func(a, b Fact) int {
		switch {
		case a.Timestamp > b.Timestamp:
			return -1
		case a.Timestamp < b.Timestamp:
			return 1
		default:
			return 0
		}
	})
}

// Merge unions the results of the same query run against two drives.
//
// If either input is empty the other is returned unchanged. Otherwise the
// result is a new collection holding a's facts followed by b's facts, stably
// re-sorted by timestamp descending. Each drive already returns its own rows
// newest first; the re-sort extends that order across drives. Inputs must not
// be used after the call.
func Merge(a, b *FactsCollection) *FactsCollection {
	if b.Empty() {
		if a == nil {
			return NewFactsCollection()
		}
		return a
	}
	if a.Empty() {
		return b
	}

	facts := make([]Fact, 0, a.Len()+b.Len())
	facts = append(facts, a.facts...)
	facts = append(facts, b.facts...)

	merged := &FactsCollection{facts: facts}
	merged.SortByTimestampDesc()

	a.facts = nil
	b.facts = nil
	return merged
}
