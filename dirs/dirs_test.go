package dirs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutCreatesNestedDirectories(t *testing.T) {
	base := t.TempDir()
	l := New(base)

	dataDir, err := l.DataDir("orders", "line_items")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "dbs", "orders", "line_items"), dataDir)
	requireDir(t, dataDir)

	tempDir, err := l.TempDir("orders", "line_items")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dataDir, "temps"), tempDir)
	requireDir(t, tempDir)

	indexDir, err := l.IndexDir("orders", "line_items")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dataDir, "indx"), indexDir)
	requireDir(t, indexDir)
}

func TestIndexPrefixIncludesIndexName(t *testing.T) {
	require.Equal(t, "indxby_customer_", IndexPrefix("by_customer"))
}

func requireDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
