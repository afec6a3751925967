package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/testutil"
)

func TestTailer_ReturnsOnlyAppendedFacts(t *testing.T) {
	ctx := context.Background()
	s, err := itemstore.Open(ctx, itemstore.Options{
		InMemory: true,
		Clock:    testutil.NewDeterministicClock(),
		IDs:      testutil.NewSequenceGenerator("id"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.Define(ctx, itemstore.User, "todo-1", "title", ir.String("old"))
	require.NoError(t, err)

	tail := &tailer{store: s, item: "todo-1", last: map[itemstore.DriveName]int64{}}
	facts, err := tail.next(ctx, itemstore.User)
	require.NoError(t, err)
	assert.Empty(t, facts, "first call only records the position")

	_, err = s.Define(ctx, itemstore.User, "todo-1", "title", ir.String("new"))
	require.NoError(t, err)
	_, err = s.Define(ctx, itemstore.User, "todo-2", "title", ir.String("other item"))
	require.NoError(t, err)
	_, err = s.InsertFact(ctx, itemstore.User, ir.Fact{ItemID: "todo-1", Attribute: "done", Value: "true", Type: ir.TypeBoolean, Timestamp: "2020-01-01 00:00:00"})
	require.NoError(t, err)

	facts, err = tail.next(ctx, itemstore.User)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "new", facts[0].Value)
	assert.Equal(t, "done", facts[1].Attribute, "backdated facts are still reported in append order")
	assert.Equal(t, int64(4), tail.last[itemstore.User], "position moves past filtered facts")

	facts, err = tail.next(ctx, itemstore.User)
	require.NoError(t, err)
	assert.Empty(t, facts)
}
