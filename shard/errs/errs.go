// Package errs holds the sentinel error kinds shared by the data shard,
// map shard, temp shard, and index shard layers.
//
// Storage-layer code returns these directly or wraps them with
// fmt.Errorf("...: %w", ...) context; callers should compare with
// errors.Is rather than matching error strings.
package errs

import "errors"

var (
	// ErrOutOfPositions is returned by a data shard header when its
	// offset table is full. The map shard swallows this error and
	// rolls over to a new current shard; callers should not normally
	// see it unless rollover itself fails.
	ErrOutOfPositions = errors.New("shard: out of positions")

	// ErrAddingHeaderOffset signals an I/O failure while writing the
	// last-offset-index field of a header.
	ErrAddingHeaderOffset = errors.New("shard: error adding header offset")

	// ErrInvalidHeader signals a corrupt fixed-size prefix on open.
	// Opening the shard fails outright; there is no recovery path.
	ErrInvalidHeader = errors.New("shard: invalid header")

	// ErrIO wraps an underlying file-system failure.
	ErrIO = errors.New("shard: io error")

	// ErrUnknownUID signals a row lacking the field its table's
	// primary key expects.
	ErrUnknownUID = errors.New("shard: unknown uid")

	// ErrInvalidSerialization signals a row codec failure.
	ErrInvalidSerialization = errors.New("shard: invalid serialization")

	// ErrSlotOutOfRange is returned by a map shard when a requested
	// global or local slot index falls outside the addressable range.
	ErrSlotOutOfRange = errors.New("shard: slot out of range")

	// ErrCorruptEntry signals a length-prefix/offset mismatch read
	// back from disk. The offending entry is skipped; the shard
	// remains usable.
	ErrCorruptEntry = errors.New("shard: corrupt entry")
)
