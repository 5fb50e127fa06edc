package table

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/kivanodb/shardcore/schema"
)

// compositeKey builds a fixed-size index key from a row's member
// column values: concatenate (col_name, value) pairs, hash the
// concatenation with xxhash, then pad or truncate to the index's fixed
// key size.
func compositeKey(idx schema.Index, getValue func(column string) (value string, isNull bool)) []byte {
	var buf []byte
	for _, col := range idx.Members {
		val, isNull := getValue(col)
		buf = append(buf, col...)
		buf = append(buf, '=')
		if !isNull {
			buf = append(buf, val...)
		}
		buf = append(buf, '|')
	}

	sum := xxhash.Sum64(buf)
	var hashBytes [8]byte
	binary.LittleEndian.PutUint64(hashBytes[:], sum)

	return padOrTruncate(hashBytes[:], idx.KeySize)
}

// encodeGlobalIndex renders a global slot index as an index value,
// padded or truncated to valueSize.
func encodeGlobalIndex(globalIndex uint64, valueSize uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], globalIndex)
	return padOrTruncate(b[:], valueSize)
}

// decodeGlobalIndex reverses encodeGlobalIndex.
func decodeGlobalIndex(value []byte) uint64 {
	var b [8]byte
	copy(b[:], value)
	return binary.LittleEndian.Uint64(b[:])
}

func padOrTruncate(b []byte, size uint64) []byte {
	out := make([]byte, size)
	copy(out, b)
	return out
}
