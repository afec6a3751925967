package itemstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/factstore/internal/ir"
)

// NewItem describes an item to create.
type NewItem struct {
	// ID is the item id. Empty means a fresh id.
	ID string

	// Type is written as the type fact. Empty writes none.
	Type string

	// Attributes are written as extra facts in the same edit.
	Attributes map[string]ir.TypedValue

	// Reference, when set, also relates an existing item to the new one.
	Reference *Reference
}

// Reference is an incoming relationship created together with an item.
type Reference struct {
	From       string
	Type       string
	Attributes map[string]ir.TypedValue
}

// Created reports the ids a Create call produced.
type Created struct {
	ItemID string

	// RelationshipID is empty unless a Reference was given.
	RelationshipID string
}

// Edge is a typed, directed relationship between two items.
type Edge struct {
	From string
	To   string
	Type string

	// Attributes are written as extra facts on the relationship item.
	Attributes map[string]ir.TypedValue
}

// EdgeFacts builds the facts of relationship relID for e, all under factID
// and timestamp. Extra attributes follow in name order.
func EdgeFacts(relID, factID, timestamp string, e Edge) []ir.Fact {
	fact := newFactBuilder(relID, factID, timestamp)
	facts := []ir.Fact{
		fact(ir.AttrCreated, ir.String("")),
		fact(ir.AttrType, ir.String(ir.ItemTypeRelationship)),
		fact(ir.AttrRelationshipType, ir.String(e.Type)),
		fact(ir.AttrFromItemID, ir.ItemRef(e.From)),
		fact(ir.AttrToItemID, ir.ItemRef(e.To)),
	}
	return appendAttributes(facts, fact, e.Attributes)
}

func newFactBuilder(itemID, factID, timestamp string) func(string, ir.TypedValue) ir.Fact {
	return func(attribute string, v ir.TypedValue) ir.Fact {
		f := ir.Fact{FactID: factID, ItemID: itemID, Attribute: attribute, Timestamp: timestamp}
		v.Apply(&f)
		return f
	}
}

func appendAttributes(facts []ir.Fact, fact func(string, ir.TypedValue) ir.Fact, attrs map[string]ir.TypedValue) []ir.Fact {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, attr := range keys {
		facts = append(facts, fact(attr, attrs[attr]))
	}
	return facts
}

// CreateItem writes the created and type facts of a new item as one batch
// sharing a factId. An empty itemID gets a fresh id. Returns the item id.
func (s *Store) CreateItem(ctx context.Context, drive DriveName, itemID, itemType string) (string, error) {
	c, err := s.Create(ctx, drive, NewItem{ID: itemID, Type: itemType})
	if err != nil {
		return "", err
	}
	return c.ItemID, nil
}

// Create writes a new item as one edit: its created fact, its type and
// attributes, and the facts of the incoming reference relationship if one
// is given. Everything shares one factId and one timestamp.
func (s *Store) Create(ctx context.Context, drive DriveName, item NewItem) (Created, error) {
	ref := item.Reference
	if ref != nil && ref.From == "" {
		return Created{}, fmt.Errorf("create item: %w: reference needs a from item", ErrInvalidEdge)
	}

	out := Created{ItemID: item.ID}
	if out.ItemID == "" {
		out.ItemID = s.ids.Generate()
	}
	factID := s.ids.Generate()
	now := formatNow(s.clock)

	fact := newFactBuilder(out.ItemID, factID, now)
	facts := []ir.Fact{fact(ir.AttrCreated, ir.String(""))}
	if item.Type != "" {
		facts = append(facts, fact(ir.AttrType, ir.String(item.Type)))
	}
	facts = appendAttributes(facts, fact, item.Attributes)

	if ref != nil {
		out.RelationshipID = s.ids.Generate()
		facts = append(facts, EdgeFacts(out.RelationshipID, factID, now, Edge{
			From:       ref.From,
			To:         out.ItemID,
			Type:       ref.Type,
			Attributes: ref.Attributes,
		})...)
	}

	if _, err := s.InsertFacts(ctx, drive, facts); err != nil {
		return Created{}, fmt.Errorf("create item: %w", err)
	}
	return out, nil
}

// DeleteItem marks itemID deleted as of now, naming successor as its
// replacement when not empty. Both facts are written as one edit. Live
// hides the item's earlier facts afterwards.
func (s *Store) DeleteItem(ctx context.Context, drive DriveName, itemID, successor string) ([]ir.Fact, error) {
	at := s.clock.Now()
	fact := newFactBuilder(itemID, s.ids.Generate(), ir.FormatTimestamp(at))

	facts := []ir.Fact{fact(ir.AttrDeleted, ir.Timestamp(at))}
	if successor != "" {
		facts = append(facts, fact(ir.AttrSuccessor, ir.ItemRef(successor)))
	}
	stored, err := s.InsertFacts(ctx, drive, facts)
	if err != nil {
		return nil, fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return stored, nil
}

// Define writes one typed attribute value for an item.
func (s *Store) Define(ctx context.Context, drive DriveName, itemID, attribute string, v ir.TypedValue) (ir.Fact, error) {
	f := ir.Fact{ItemID: itemID, Attribute: attribute}
	v.Apply(&f)
	stored, err := s.InsertFact(ctx, drive, f)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("define %s.%s: %w", itemID, attribute, err)
	}
	return stored, nil
}

// RemoveFact soft-deletes f by appending a copy with the removed flag
// toggled and a fresh timestamp. The copy keeps f's factId, so
// WithoutRemoved drops the facts of that edit written before it. Calling
// RemoveFact on a marker appends an unflagged copy, which restores the edit.
func (s *Store) RemoveFact(ctx context.Context, drive DriveName, f ir.Fact) (ir.Fact, error) {
	marker := f
	marker.Ordinal = 0
	marker.Flags = f.Flags ^ ir.FlagRemoved
	marker.Timestamp = ""

	stored, err := s.InsertFact(ctx, drive, marker)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("remove fact %s: %w", f.FactID, err)
	}
	return stored, nil
}

// WithoutRemoved filters a newest-first collection down to its live facts.
//
// A removed-flagged fact hides itself and every older fact sharing its
// factId. Facts newer than the marker stay, so a restoring copy written
// after a removal is live again.
func WithoutRemoved(c *ir.FactsCollection) *ir.FactsCollection {
	removed := make(map[string]struct{})
	live := make([]ir.Fact, 0, c.Len())
	for _, f := range c.Facts() {
		if f.Removed() {
			removed[f.FactID] = struct{}{}
		}
		if _, gone := removed[f.FactID]; gone {
			continue
		}
		live = append(live, f)
	}
	return ir.NewFactsCollection(live...)
}

// Deletions returns, per deleted item, the timestamp of its newest live
// deleted fact.
func (s *Store) Deletions(ctx context.Context) (map[string]string, error) {
	attr := ir.AttrDeleted
	facts, err := s.FetchFacts(ctx, nil, &attr, nil)
	if err != nil {
		return nil, fmt.Errorf("deletions: %w", err)
	}
	out := make(map[string]string)
	for _, f := range WithoutRemoved(facts).Facts() {
		if f.Timestamp > out[f.ItemID] {
			out[f.ItemID] = f.Timestamp
		}
	}
	return out, nil
}

// WithoutDeleted drops the facts of deleted items written at or before the
// deletion. The deleted and successor facts themselves stay, as does
// anything written to the item afterwards.
func WithoutDeleted(c *ir.FactsCollection, deletions map[string]string) *ir.FactsCollection {
	if len(deletions) == 0 {
		return ir.NewFactsCollection(c.Facts()...)
	}
	return c.Filter(func(f ir.Fact) bool {
		at, deleted := deletions[f.ItemID]
		switch {
		case !deleted, f.Timestamp > at:
			return true
		case f.Attribute == ir.AttrDeleted, f.Attribute == ir.AttrSuccessor:
			return true
		}
		return false
	})
}

// Live narrows a newest-first collection to what a reader should see:
// removed edits and deleted items are hidden.
func (s *Store) Live(ctx context.Context, c *ir.FactsCollection) (*ir.FactsCollection, error) {
	live := WithoutRemoved(c)
	if live.Empty() {
		return live, nil
	}
	deletions, err := s.Deletions(ctx)
	if err != nil {
		return nil, err
	}
	return WithoutDeleted(live, deletions), nil
}
