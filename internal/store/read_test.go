package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/queryir"
)

func TestFetch_RoundTrip(t *testing.T) {
	for _, engine := range []Engine{EngineCGO, EnginePureGo} {
		t.Run(string(engine), func(t *testing.T) {
			d := createTestDriveWithEngine(t, engine)
			ctx := context.Background()

			in := ir.Fact{
				FactID:       "f-1",
				ItemID:       "i1",
				Attribute:    "age",
				Value:        "",
				NumericValue: 42.5,
				Type:         ir.TypeNumber,
				Flags:        0,
				Timestamp:    "2024-01-01 10:00:00",
			}
			stored := mustInsert(t, d, in)
			require.Positive(t, stored.Ordinal)

			got, err := d.Fetch(ctx, queryir.FactQuery{ItemID: queryir.Ptr("i1")})
			require.NoError(t, err)
			require.Equal(t, 1, got.Len())

			want := in
			want.Ordinal = stored.Ordinal
			if diff := cmp.Diff(want, got.At(0)); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetch_EmptyResultNotNil(t *testing.T) {
	d := createTestDrive(t)

	got, err := d.Fetch(context.Background(), queryir.FactQuery{ItemID: queryir.Ptr("nobody")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Empty())
	assert.NotNil(t, got.Facts())
}

func seedDrive(t *testing.T, d *Drive) {
	t.Helper()
	mustInsert(t, d, testFact("i1", "name", "Alice", "2024-01-01 10:00:00"))
	mustInsert(t, d, testFact("i1", "name", "Alicia", "2024-01-03 10:00:00"))
	mustInsert(t, d, testFact("i1", "city", "Oslo", "2024-01-02 10:00:00"))
	mustInsert(t, d, testFact("i2", "name", "Alice", "2024-01-04 10:00:00"))
	mustInsert(t, d, numberFact("i1", "age", 30, "2024-01-05 10:00:00"))
	mustInsert(t, d, numberFact("i2", "age", 50, "2024-01-06 10:00:00"))
}

func TestFetch_Shapes(t *testing.T) {
	d := createTestDrive(t)
	seedDrive(t, d)
	s := queryir.Ptr

	tests := []struct {
		name  string
		query queryir.Query
		want  []int64 // ordinals, in result order
	}{
		{"item attribute value", queryir.FactQuery{ItemID: s("i1"), Attribute: s("name"), Value: s("Alice")}, []int64{1}},
		{"item attribute", queryir.FactQuery{ItemID: s("i1"), Attribute: s("name")}, []int64{2, 1}},
		{"attribute value", queryir.FactQuery{Attribute: s("name"), Value: s("Alice")}, []int64{4, 1}},
		{"item", queryir.FactQuery{ItemID: s("i1")}, []int64{5, 2, 3, 1}},
		{"attribute", queryir.FactQuery{Attribute: s("age")}, []int64{6, 5}},
		{"value", queryir.FactQuery{Value: s("Alice")}, []int64{4, 1}},
		{"all", queryir.FactQuery{}, []int64{6, 5, 4, 2, 3, 1}},
		{"item attribute range", queryir.ValueRangeQuery{ItemID: s("i1"), Attribute: s("age"), Min: 0, Max: 100}, []int64{5}},
		{"attribute range", queryir.ValueRangeQuery{Attribute: s("age"), Min: 30, Max: 50}, []int64{6, 5}},
		{"attribute range exclusive of outside", queryir.ValueRangeQuery{Attribute: s("age"), Min: 31, Max: 49}, []int64{}},
		{"range", queryir.ValueRangeQuery{Min: 40, Max: 60}, []int64{6}},
		{"date range inclusive", queryir.DateRangeQuery{AtOrAfter: s("2024-01-02 10:00:00"), AtOrBefore: s("2024-01-04 10:00:00")}, []int64{4, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Fetch(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ordinals(got))
		})
	}
}

func TestFetch_TimestampTieBrokenByOrdinal(t *testing.T) {
	d := createTestDrive(t)
	mustInsert(t, d, testFact("i1", "name", "first", "2024-01-01 10:00:00"))
	mustInsert(t, d, testFact("i1", "name", "second", "2024-01-01 10:00:00"))

	got, err := d.Fetch(context.Background(), queryir.FactQuery{ItemID: queryir.Ptr("i1")})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ordinals(got))
}

func TestFetch_UnsupportedShapes(t *testing.T) {
	d := createTestDrive(t)
	seedDrive(t, d)
	s := queryir.Ptr

	queries := []queryir.Query{
		queryir.FactQuery{ItemID: s("i1"), Value: s("Alice")},
		queryir.ValueRangeQuery{ItemID: s("i1"), Min: 0, Max: 100},
		queryir.DateRangeQuery{AtOrAfter: s("2024-01-01 00:00:00")},
		queryir.DateRangeQuery{AtOrBefore: s("2024-01-01 00:00:00")},
	}

	for _, q := range queries {
		got, err := d.Fetch(context.Background(), q)
		require.Error(t, err)
		assert.ErrorIs(t, err, queryir.ErrUnsupportedQueryShape)
		assert.Nil(t, got, "no partial result")
	}
}

func TestMostRecent(t *testing.T) {
	d := createTestDrive(t)
	ctx := context.Background()

	mustInsert(t, d, testFact("i1", "name", "newest", "2024-01-03 10:00:00"))
	mustInsert(t, d, testFact("i1", "name", "oldest", "2024-01-01 10:00:00"))
	mustInsert(t, d, testFact("i1", "name", "middle", "2024-01-02 10:00:00"))

	got, err := d.MostRecent(ctx, "i1", "name")
	require.NoError(t, err)
	assert.Equal(t, "newest", got.Value, "insertion order does not decide recency")
}

func TestMostRecent_TieBrokenByOrdinal(t *testing.T) {
	d := createTestDrive(t)
	mustInsert(t, d, testFact("i1", "name", "a", "2024-01-01 10:00:00"))
	mustInsert(t, d, testFact("i1", "name", "b", "2024-01-01 10:00:00"))

	got, err := d.MostRecent(context.Background(), "i1", "name")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Value)
}

func TestMostRecent_NotFound(t *testing.T) {
	d := createTestDrive(t)
	mustInsert(t, d, testFact("i1", "name", "Alice", "2024-01-01 10:00:00"))

	_, err := d.MostRecent(context.Background(), "i1", "email")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDebug_AllFactsAndRemove(t *testing.T) {
	d := createTestDrive(t)
	ctx := context.Background()
	seedDrive(t, d)

	all, err := d.Debug().AllFacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 5, 4, 3, 2, 1}, ordinals(all))

	require.NoError(t, d.Debug().RemoveByOrdinal(ctx, 6))

	err = d.Debug().RemoveByOrdinal(ctx, 6)
	assert.ErrorIs(t, err, ErrNotFound)

	// AUTOINCREMENT never hands out a removed ordinal again.
	next := mustInsert(t, d, testFact("i3", "name", "Carol", "2024-01-07 10:00:00"))
	assert.Equal(t, int64(7), next.Ordinal)

	all, err = d.Debug().AllFacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 5, 4, 3, 2, 1}, ordinals(all))
}

func TestFetch_SoftDeletedPassThrough(t *testing.T) {
	d := createTestDrive(t)
	f := testFact("i1", "name", "Alice", "2024-01-01 10:00:00")
	f.Flags = ir.FlagRemoved
	mustInsert(t, d, f)

	got, err := d.Fetch(context.Background(), queryir.FactQuery{ItemID: queryir.Ptr("i1")})
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.True(t, got.At(0).Removed())
}

func TestFetch_ContentIgnoringOrdinal(t *testing.T) {
	d := createTestDrive(t)
	in := testFact("i1", "name", "Alice", "2024-01-01 10:00:00")
	mustInsert(t, d, in)

	got, err := d.Fetch(context.Background(), queryir.FactQuery{Attribute: queryir.Ptr("name")})
	require.NoError(t, err)

	opt := cmpopts.IgnoreFields(ir.Fact{}, "Ordinal")
	if diff := cmp.Diff([]ir.Fact{in}, got.Facts(), opt); diff != "" {
		t.Errorf("fetch mismatch (-want +got):\n%s", diff)
	}
}

func TestAfter_OldestFirst(t *testing.T) {
	d := createTestDrive(t)
	ctx := context.Background()

	last, err := d.LastOrdinal(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	seedDrive(t, d)

	last, err = d.LastOrdinal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), last)

	got, err := d.After(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 6}, ordinals(got))

	got, err = d.After(ctx, last)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestAfter_Closed(t *testing.T) {
	d := createTestDrive(t)
	require.NoError(t, d.Close())

	_, err := d.After(context.Background(), 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.LastOrdinal(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
