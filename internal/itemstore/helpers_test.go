package itemstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/testutil"
)

// newTestStore opens an in-memory store with a stepping clock and
// sequential ids.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		InMemory: true,
		Clock:    testutil.NewDeterministicClock(),
		IDs:      testutil.NewSequenceGenerator("id"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func stringFact(itemID, attribute, value, timestamp string) ir.Fact {
	return ir.Fact{
		FactID:    "f-" + itemID + "-" + attribute + "-" + value,
		ItemID:    itemID,
		Attribute: attribute,
		Value:     value,
		Type:      ir.TypeString,
		Timestamp: timestamp,
	}
}

func mustInsert(t *testing.T, s *Store, drive DriveName, f ir.Fact) ir.Fact {
	t.Helper()
	stored, err := s.InsertFact(context.Background(), drive, f)
	require.NoError(t, err)
	return stored
}

func values(c *ir.FactsCollection) []string {
	out := make([]string, 0, c.Len())
	for _, f := range c.Facts() {
		out = append(out, f.Value)
	}
	return out
}

func attributes(c *ir.FactsCollection) []string {
	out := make([]string, 0, c.Len())
	for _, f := range c.Facts() {
		out = append(out, f.Attribute)
	}
	return out
}
