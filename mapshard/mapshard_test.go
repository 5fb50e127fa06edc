package mapshard

import (
	"testing"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/stretchr/testify/require"
)

// Filling the current shard to capacity must trigger a rollover that
// preserves global addressing across the shard boundary.
func TestRollover(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	ms, err := Open(mgr, dir, "data_", 2)
	require.NoError(t, err)

	_, err = ms.InsertRows([][]byte{[]byte("a")})
	require.NoError(t, err)
	_, err = ms.InsertRows([][]byte{[]byte("b")})
	require.NoError(t, err)
	_, err = ms.InsertRows([][]byte{[]byte("c")})
	require.NoError(t, err)

	require.Len(t, ms.PastShards(), 1)

	got0, err := ms.GetElement(0)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), got0)

	got2, err := ms.GetElement(2)
	require.NoError(t, err)
	require.Equal(t, []byte("c"), got2)

	fromMaster, err := ms.GetElementFromMaster(0)
	require.NoError(t, err)
	require.Equal(t, []byte("c"), fromMaster)
}

func TestReopenYieldsSameShardChain(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	ms, err := Open(mgr, dir, "data_", 2)
	require.NoError(t, err)

	for _, row := range [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")} {
		_, err := ms.InsertRows([][]byte{row})
		require.NoError(t, err)
	}
	wantPast := len(ms.PastShards())
	wantCount := ms.ShardCount()

	reopened, err := Open(mgr, dir, "data_", 2)
	require.NoError(t, err)

	require.Len(t, reopened.PastShards(), wantPast)
	require.Equal(t, wantCount, reopened.ShardCount())

	for i := uint64(0); i < 5; i++ {
		got, err := reopened.GetElement(i)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
}

func TestInsertRowsNeverSplitsAcrossShardBoundary(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	ms, err := Open(mgr, dir, "data_", 3)
	require.NoError(t, err)

	_, err = ms.InsertRows([][]byte{[]byte("a"), []byte("b")})
	require.NoError(t, err)

	// Only one slot remains in the current shard; a 2-row batch must
	// roll over rather than splitting across the boundary.
	_, err = ms.InsertRows([][]byte{[]byte("c"), []byte("d")})
	require.NoError(t, err)

	require.Len(t, ms.PastShards(), 1)
	require.Equal(t, uint64(2), ms.PastShards()[0].UsedSlots())
}
