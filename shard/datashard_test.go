package shard

import (
	"path/filepath"
	"testing"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/shard/errs"
	"github.com/stretchr/testify/require"
)

func newTestDataShard(t *testing.T, capacity uint64) (*DataShard, *fdm.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data_shard")
	mgr := fdm.New(0)
	ds, err := Open(mgr, path, capacity)
	require.NoError(t, err)
	return ds, mgr, path
}

// Open a fresh shard, write one row, reopen it from scratch, and
// confirm the row is still there at the same slot.
func TestOpenEmptyWriteOneReopen(t *testing.T) {
	ds, mgr, path := newTestDataShard(t, 4)

	slot, err := ds.InsertRow([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), slot)

	require.Equal(t, int64(0), ds.Header().LastOffsetIndex())
	got, err := ds.ReadItemFromIndex(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
	require.Equal(t, uint64(3), ds.Header().AvailableSpace())

	reopened, err := Open(mgr, path, 4)
	require.NoError(t, err)
	require.Equal(t, int64(0), reopened.Header().LastOffsetIndex())
	got2, err := reopened.ReadItemFromIndex(0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got2)
	require.Equal(t, uint64(3), reopened.Header().AvailableSpace())
}

func TestInsertRowsAllOrNothing(t *testing.T) {
	ds, _, _ := newTestDataShard(t, 2)

	_, err := ds.InsertRows([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.ErrorIs(t, err, errs.ErrOutOfPositions)
	require.Equal(t, int64(-1), ds.Header().LastOffsetIndex())
}

func TestInsertUntilFullThenOutOfPositions(t *testing.T) {
	ds, _, _ := newTestDataShard(t, 2)

	_, err := ds.InsertRow([]byte("a"))
	require.NoError(t, err)
	_, err = ds.InsertRow([]byte("b"))
	require.NoError(t, err)

	_, full := ds.BreakingPoint()
	require.True(t, full)

	_, err = ds.InsertRow([]byte("c"))
	require.ErrorIs(t, err, errs.ErrOutOfPositions)
}

func TestSwapSlotContents(t *testing.T) {
	ds, _, _ := newTestDataShard(t, 4)

	_, err := ds.InsertRow([]byte("AAA"))
	require.NoError(t, err)
	_, err = ds.InsertRow([]byte("BBB"))
	require.NoError(t, err)

	require.NoError(t, ds.SwapSlotContents(0, 1))

	got0, err := ds.ReadItemFromIndex(0)
	require.NoError(t, err)
	got1, err := ds.ReadItemFromIndex(1)
	require.NoError(t, err)
	require.Equal(t, []byte("BBB"), got0)
	require.Equal(t, []byte("AAA"), got1)
}

func TestResetClearsBuffer(t *testing.T) {
	ds, _, _ := newTestDataShard(t, 4)

	oldID := ds.Header().ID()
	_, err := ds.InsertRow([]byte("row"))
	require.NoError(t, err)

	require.NoError(t, ds.Reset())

	require.Equal(t, int64(-1), ds.Header().LastOffsetIndex())
	require.NotEqual(t, oldID, ds.Header().ID())
	require.Equal(t, uint64(4), ds.Header().AvailableSpace())
}

func TestReadSlotOutOfRange(t *testing.T) {
	ds, _, _ := newTestDataShard(t, 4)

	_, err := ds.InsertRow([]byte("row"))
	require.NoError(t, err)

	_, err = ds.ReadItemFromIndex(5)
	require.ErrorIs(t, err, errs.ErrSlotOutOfRange)
}
