// Package relation encodes typed, directed edges between items as facts and
// finds them again by intersecting attribute-equality lookups.
//
// A relationship is an ordinary item whose facts are
//
//	created           ""
//	type              "relationship"
//	relationshipType  <type>   (string)
//	fromItemId        <from>   (itemId)
//	toItemId          <to>     (itemId)
//
// all written in one batch under one factId and one timestamp.
package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

var (
	// ErrNoFilters is returned by FindRel and Intersect when no filter is set.
	ErrNoFilters = errors.New("relationship lookup needs at least one filter")

	// ErrInvalidEdge is returned by Relate for an edge without both endpoints.
	ErrInvalidEdge = itemstore.ErrInvalidEdge

	// ErrNotRelationship is returned by Endpoints for an item that is not a
	// relationship. It matches itemstore.ErrNotFound.
	ErrNotRelationship = fmt.Errorf("not a relationship: %w", itemstore.ErrNotFound)
)

// Edge describes a relationship to create.
type Edge = itemstore.Edge

// Relationship is a relationship item read back from the store.
type Relationship struct {
	ID        string `json:"id"`
	From      string `json:"from_item_id"`
	To        string `json:"to_item_id"`
	Type      string `json:"relationship_type"`
	Timestamp string `json:"timestamp"`
}

// Graph is the relationship layer over a fact store.
type Graph struct {
	store *itemstore.Store
}

// New creates a Graph over s.
func New(s *itemstore.Store) *Graph {
	return &Graph{store: s}
}

// Relate creates a relationship from one item to another in drive and
// returns the new relationship item id.
func (g *Graph) Relate(ctx context.Context, drive itemstore.DriveName, from, to, relType string) (string, error) {
	return g.RelateEdge(ctx, drive, Edge{From: from, To: to, Type: relType})
}

// RelateEdge creates the relationship described by e.
func (g *Graph) RelateEdge(ctx context.Context, drive itemstore.DriveName, e Edge) (string, error) {
	if e.From == "" || e.To == "" {
		return "", fmt.Errorf("relate: %w: from and to are required", ErrInvalidEdge)
	}

	relID := g.store.NewID()
	factID := g.store.NewID()
	facts := itemstore.EdgeFacts(relID, factID, g.store.Now(), e)

	if _, err := g.store.InsertFacts(ctx, drive, facts); err != nil {
		return "", fmt.Errorf("relate %s -> %s: %w", e.From, e.To, err)
	}
	return relID, nil
}

// Unrelate deletes relationship relID. Endpoints no longer finds it
// afterwards; its facts stay stored.
func (g *Graph) Unrelate(ctx context.Context, drive itemstore.DriveName, relID string) error {
	if _, err := g.Endpoints(ctx, relID); err != nil {
		return fmt.Errorf("unrelate: %w", err)
	}
	if _, err := g.store.DeleteItem(ctx, drive, relID, ""); err != nil {
		return fmt.Errorf("unrelate: %w", err)
	}
	return nil
}

// Endpoints reads back the live relationship stored under relID. When an
// attribute was written more than once the newest value wins.
func (g *Graph) Endpoints(ctx context.Context, relID string) (Relationship, error) {
	facts, err := g.store.FetchFacts(ctx, &relID, nil, nil)
	if err != nil {
		return Relationship{}, fmt.Errorf("endpoints %s: %w", relID, err)
	}

	live, err := g.store.Live(ctx, facts)
	if err != nil {
		return Relationship{}, fmt.Errorf("endpoints %s: %w", relID, err)
	}

	rel := Relationship{ID: relID}
	seen := make(map[string]bool)
	isRel := false
	for _, f := range live.Facts() {
		if seen[f.Attribute] {
			continue
		}
		seen[f.Attribute] = true

		switch f.Attribute {
		case ir.AttrType:
			isRel = f.Value == ir.ItemTypeRelationship
		case ir.AttrRelationshipType:
			rel.Type = f.Value
		case ir.AttrFromItemID:
			rel.From = f.Value
		case ir.AttrToItemID:
			rel.To = f.Value
		case ir.AttrCreated:
			rel.Timestamp = f.Timestamp
		}
	}
	if !isRel {
		return Relationship{}, fmt.Errorf("endpoints %s: %w", relID, ErrNotRelationship)
	}
	return rel, nil
}
