// Package table composes a single table's data map shard, its temp
// ring, and its declared index shards. It installs the reconcile
// callback that groups freshly reconciled rows by affected index,
// builds composite keys, and bulk-inserts them -- the glue that wires
// every other component together.
package table
