package fh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandle(t *testing.T) (*Handle, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "handle.dat")
	h, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, path
}

func TestAppendAndReadAt(t *testing.T) {
	h, _ := newTestHandle(t)

	off, err := h.Append([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(0), off)

	off2, err := h.Append([]byte("world"))
	require.NoError(t, err)
	require.Equal(t, int64(5), off2)

	got, ok, err := h.ReadAt(0, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), got)

	got2, ok, err := h.ReadAt(5, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("world"), got2)
}

func TestReadAtOutOfRange(t *testing.T) {
	h, _ := newTestHandle(t)

	_, err := h.Append([]byte("hi"))
	require.NoError(t, err)

	_, ok, err := h.ReadAt(0, 100)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriteAtOverwritesInPlace(t *testing.T) {
	h, _ := newTestHandle(t)

	_, err := h.Append([]byte("aaaa"))
	require.NoError(t, err)

	require.NoError(t, h.WriteAt(1, []byte("bb")))

	got, ok, err := h.ReadAt(0, 4)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("abba"), got)
}

func TestTruncateResetsLen(t *testing.T) {
	h, _ := newTestHandle(t)

	_, err := h.Append([]byte("some data"))
	require.NoError(t, err)

	require.NoError(t, h.Truncate(0))

	n, err := h.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOperateRunsExclusively(t *testing.T) {
	h, _ := newTestHandle(t)

	err := h.Operate(func(f *os.File) error {
		_, err := f.WriteAt([]byte("op"), 0)
		return err
	})
	require.NoError(t, err)

	got, ok, err := h.ReadAt(0, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("op"), got)
}
