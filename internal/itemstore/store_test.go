package itemstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/queryir"
	"github.com/roach88/factstore/internal/store"
)

func TestScenario_UserDriveOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := ir.Fact{
		FactID:       "f-1",
		ItemID:       "i1",
		Attribute:    "name",
		Value:        "Alice",
		NumericValue: 0,
		Type:         ir.TypeString,
		Flags:        0,
		Timestamp:    "2024-01-01 10:00:00",
	}
	stored := mustInsert(t, s, User, in)

	got, err := s.FetchFacts(ctx, queryir.Ptr("i1"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())

	want := in
	want.Ordinal = stored.Ordinal
	if diff := cmp.Diff(want, got.At(0)); diff != "" {
		t.Errorf("fetched fact mismatch (-want +got):\n%s", diff)
	}

	system, err := s.Drive(System)
	require.NoError(t, err)
	all, err := system.Debug().AllFacts(ctx)
	require.NoError(t, err)
	assert.True(t, all.Empty(), "nothing written to system")
}

func TestOpen_OnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := Options{
		UserPath:   filepath.Join(dir, "user.sqlite"),
		SystemPath: filepath.Join(dir, "system.sqlite"),
	}

	s, err := Open(ctx, opts)
	require.NoError(t, err)
	_, err = s.InsertFact(ctx, System, stringFact("i1", "name", "Alice", "2024-01-01 10:00:00"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, opts)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.FetchFacts(ctx, queryir.Ptr("i1"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, values(got))
}

func TestOpen_PureGoEngine(t *testing.T) {
	s, err := Open(context.Background(), Options{InMemory: true, Engine: store.EnginePureGo})
	require.NoError(t, err)
	defer s.Close()

	d, err := s.Drive(User)
	require.NoError(t, err)
	assert.Equal(t, store.EnginePureGo, d.Engine())
}

func TestOpen_MissingPaths(t *testing.T) {
	_, err := Open(context.Background(), Options{UserPath: "user.sqlite"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestOpen_BadSystemPathClosesUser(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(context.Background(), Options{
		UserPath:   filepath.Join(dir, "user.sqlite"),
		SystemPath: filepath.Join(dir, "missing", "system.sqlite"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestDrive_Unknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Drive("archive")
	assert.ErrorIs(t, err, ErrUnknownDrive)

	_, err = s.InsertFact(context.Background(), "archive", stringFact("i1", "a", "v", ""))
	assert.ErrorIs(t, err, ErrUnknownDrive)
}

func TestParseDriveName(t *testing.T) {
	d, err := ParseDriveName("system")
	require.NoError(t, err)
	assert.Equal(t, System, d)

	_, err = ParseDriveName("User")
	assert.ErrorIs(t, err, ErrUnknownDrive)
}
