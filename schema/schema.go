package schema

import "fmt"

// IndexType selects how a composite key is derived from its member
// columns. Hash is the only type the core currently builds keys for.
type IndexType int

const (
	IndexTypeHash IndexType = iota
)

func (t IndexType) String() string {
	switch t {
	case IndexTypeHash:
		return "hash"
	default:
		return fmt.Sprintf("IndexType(%d)", int(t))
	}
}

// Column describes one field of a table. The storage core only needs
// a column's name to extract values via the row codec; Nullable
// documents whether a missing value is legal. Index.Indexable does not
// consult it: indexability depends only on the row's actual values.
type Column struct {
	Name     string
	Nullable bool
}

// Index declares a secondary index: its name, the ordered columns that
// form its composite key, the fixed byte sizes of key and value, and
// whether inserts are kept in sorted order.
type Index struct {
	Name        string
	Members     []string
	Type        IndexType
	KeySize     uint64
	ValueSize   uint64
	BinaryOrder bool
}

// Indexable reports whether row has a non-null value for at least one
// of the index's member columns. A row that is null in every member
// column is skipped entirely rather than indexed under a degenerate
// all-null key.
func (idx Index) Indexable(getValue func(column string) (value string, isNull bool)) bool {
	for _, col := range idx.Members {
		if _, isNull := getValue(col); !isNull {
			return true
		}
	}
	return false
}

// Table describes a table's columns, primary key, and declared
// indexes.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey string
	Indexes    []Index
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
