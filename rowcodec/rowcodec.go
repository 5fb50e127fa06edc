package rowcodec

// Row is a single record, as the core's callers see it. The core
// itself never parses a row's bytes; it only asks a Row for the values
// it needs to build composite index keys.
type Row interface {
	// GetValue returns column's value, stringified, and whether it is
	// null. A missing column is treated as null.
	GetValue(column string) (value string, isNull bool)

	// ToJSON renders the row for the post-reconcile hook.
	ToJSON() ([]byte, error)
}

// Codec serializes rows to and from the opaque bytes a data shard
// stores. table is passed to Deserialize because the encoding is
// schema-dependent (column order, types).
type Codec interface {
	Serialize(row Row) ([]byte, error)
	Deserialize(data []byte, tableName string) (Row, error)
}

// PostReconcileHook is invoked once per reconcile batch that produced
// at least one row, after the table shard has finished indexing it.
type PostReconcileHook interface {
	OnInsert(rowsJSON [][]byte, dbName, tableName string) error
}
