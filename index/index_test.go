package index

import (
	"testing"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/stretchr/testify/require"
)

func pad32(s string) []byte {
	b := make([]byte, 32)
	copy(b, s)
	return b
}

func val8(n uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
	return b
}

// Inserting keys out of order with binary ordering enabled must leave
// the current shard's entries non-decreasing after every insert.
func TestBinaryOrderedInsertKeepsCurrentShardSorted(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	is, err := Open(mgr, dir, "indxtest_", 32, 8, 100, true)
	require.NoError(t, err)

	keys := []string{"z", "h", "i", "j", "b", "d", "e"}
	for i, k := range keys {
		require.NoError(t, is.Insert(pad32(k), val8(uint64(i))))

		// Current shard must be non-decreasing after every insert.
		current := is.ms.Current()
		n := current.UsedSlots()
		for slot := uint64(1); slot < n; slot++ {
			prevRaw, err := current.ReadItemFromIndex(slot - 1)
			require.NoError(t, err)
			curRaw, err := current.ReadItemFromIndex(slot)
			require.NoError(t, err)
			prevKey, _, err := decodeEntry(prevRaw, 32, 8)
			require.NoError(t, err)
			curKey, _, err := decodeEntry(curRaw, 32, 8)
			require.NoError(t, err)
			require.LessOrEqual(t, string(trimZero(prevKey)), string(trimZero(curKey)))
		}
	}

	res, found, err := is.BinarySearch(pad32("e"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, val8(6), res.Value)
}

func trimZero(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return b[:i]
}

func TestBinarySearchMissingKey(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	is, err := Open(mgr, dir, "indxtest_", 32, 8, 100, true)
	require.NoError(t, err)

	require.NoError(t, is.Insert(pad32("a"), val8(0)))
	require.NoError(t, is.Insert(pad32("c"), val8(1)))

	_, found, err := is.BinarySearch(pad32("b"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestBinarySearchFindsPastShardHit(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	// Capacity 1 forces every insert to roll over, so "a" always ends
	// up in a past shard once "b" is inserted.
	is, err := Open(mgr, dir, "indxtest_", 32, 8, 1, true)
	require.NoError(t, err)

	require.NoError(t, is.Insert(pad32("a"), val8(0)))
	require.NoError(t, is.Insert(pad32("b"), val8(1)))

	res, found, err := is.BinarySearch(pad32("a"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, val8(0), res.Value)
}

// Corrupting one entry's bytes on disk must not break lookups of its
// still-intact neighbors.
func TestGetKVOnMalformedEntryReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	mgr := fdm.New(0)

	is, err := Open(mgr, dir, "indxtest_", 32, 8, 100, true)
	require.NoError(t, err)

	require.NoError(t, is.Insert(pad32("a"), val8(0)))
	require.NoError(t, is.Insert(pad32("b"), val8(1)))
	require.NoError(t, is.Insert(pad32("c"), val8(2)))

	current := is.ms.Current()
	offset, ok, err := current.Header().OffsetForSlot(1)
	require.NoError(t, err)
	require.True(t, ok)

	lease, err := mgr.Get(current.Path())
	require.NoError(t, err)
	require.NoError(t, lease.Handle().WriteAt(int64(offset), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}))
	lease.Release()

	_, _, _, found, err := is.GetKV(1)
	require.NoError(t, err)
	require.False(t, found)

	_, foundC, err := is.BinarySearch(pad32("c"))
	require.NoError(t, err)
	require.True(t, foundC)

	_, foundA, err := is.BinarySearch(pad32("a"))
	require.NoError(t, err)
	require.True(t, foundA)
}
