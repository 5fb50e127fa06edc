// Package schema holds the declarative description of a table: its
// columns and declared indexes, consumed by the table package to wire
// up index shards.
//
// Column data types and defaults beyond "is this an index member" are
// a row-codec concern and stay out of this package; the storage core
// only needs enough of a column's shape to extract values through the
// row codec's interfaces.
package schema
