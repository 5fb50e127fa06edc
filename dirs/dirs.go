package dirs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout resolves the directories and filename prefixes a table's
// shards live under, given a base storage directory.
type Layout struct {
	Base string
}

// New returns a Layout rooted at base.
func New(base string) Layout { return Layout{Base: base} }

// DB returns (and creates) "<base>/dbs/<db>".
func (l Layout) DB(db string) (string, error) {
	path := filepath.Join(l.Base, "dbs", db)
	return path, mkdir(path)
}

// Table returns (and creates) "<base>/dbs/<db>/<table>".
func (l Layout) Table(db, table string) (string, error) {
	dbPath, err := l.DB(db)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dbPath, table)
	return path, mkdir(path)
}

// DataDir returns (and creates) the table's data shard directory; data
// shard files inside it use the "data_" prefix.
func (l Layout) DataDir(db, table string) (string, error) {
	path, err := l.Table(db, table)
	if err != nil {
		return "", err
	}
	return path, nil
}

// TempDir returns (and creates) "<table>/temps"; temp shard files
// inside it use the "temp_" prefix.
func (l Layout) TempDir(db, table string) (string, error) {
	tablePath, err := l.Table(db, table)
	if err != nil {
		return "", err
	}
	path := filepath.Join(tablePath, "temps")
	return path, mkdir(path)
}

// IndexDir returns (and creates) "<table>/indx"; index shard files
// inside it use the "indx<name>_" prefix.
func (l Layout) IndexDir(db, table string) (string, error) {
	tablePath, err := l.Table(db, table)
	if err != nil {
		return "", err
	}
	path := filepath.Join(tablePath, "indx")
	return path, mkdir(path)
}

// IndexPrefix returns the filename prefix used for a named index's
// shard files: "indx<name>_".
func IndexPrefix(indexName string) string {
	return fmt.Sprintf("indx%s_", indexName)
}

func mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("dirs: mkdir %s: %w", path, err)
	}
	return nil
}
