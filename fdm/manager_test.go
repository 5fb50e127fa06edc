package fdm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCachesHandleByPath(t *testing.T) {
	dir := t.TempDir()
	mgr := New(0)
	path := filepath.Join(dir, "a")

	l1, err := mgr.Get(path)
	require.NoError(t, err)
	l2, err := mgr.Get(path)
	require.NoError(t, err)

	require.Same(t, l1.Handle(), l2.Handle())
	l1.Release()
	l2.Release()
}

func TestEvictionRespectsBound(t *testing.T) {
	dir := t.TempDir()
	mgr := New(2)

	l1, err := mgr.Get(filepath.Join(dir, "a"))
	require.NoError(t, err)
	l1.Release()

	l2, err := mgr.Get(filepath.Join(dir, "b"))
	require.NoError(t, err)
	l2.Release()

	require.Equal(t, 2, mgr.Len())

	l3, err := mgr.Get(filepath.Join(dir, "c"))
	require.NoError(t, err)
	l3.Release()

	require.LessOrEqual(t, mgr.Len(), 2)
}

func TestEvictionSkipsLeasedHandle(t *testing.T) {
	dir := t.TempDir()
	mgr := New(1)

	l1, err := mgr.Get(filepath.Join(dir, "a"))
	require.NoError(t, err)
	// l1 stays leased (no Release) while we request a second path; the
	// cache is allowed to exceed its bound rather than close a handle
	// mid-use.
	l2, err := mgr.Get(filepath.Join(dir, "b"))
	require.NoError(t, err)

	require.Equal(t, 2, mgr.Len())

	l1.Release()
	l2.Release()
}

func TestCloseAllClosesEverything(t *testing.T) {
	dir := t.TempDir()
	mgr := New(0)

	l, err := mgr.Get(filepath.Join(dir, "a"))
	require.NoError(t, err)
	l.Release()

	require.NoError(t, mgr.CloseAll())
	require.Zero(t, mgr.Len())
}
