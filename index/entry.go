package index

import (
	"encoding/binary"
	"fmt"

	"github.com/kivanodb/shardcore/shard/errs"
)

// entrySize returns the fixed on-disk size of an index entry for the
// given key and value sizes: DU(DU(key) ‖ DU(value)).
//
// The outer wrapper is an 8-byte length prefix over DU(key)‖DU(value),
// which is itself (8+keySize)+(8+valueSize) bytes, giving
// 8 + 8+keySize + 8+valueSize = 24 + keySize + valueSize.
func entrySize(keySize, valueSize uint64) uint64 {
	return 24 + keySize + valueSize
}

// encodeEntry frames key and value into DU(DU(key) ‖ DU(value)).
func encodeEntry(key, value []byte) []byte {
	inner := make([]byte, 0, 8+len(key)+8+len(value))
	inner = appendDU(inner, key)
	inner = appendDU(inner, value)

	out := make([]byte, 0, 8+len(inner))
	out = appendDU(out, inner)
	return out
}

func appendDU(dst, payload []byte) []byte {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	dst = append(dst, lenBuf[:]...)
	return append(dst, payload...)
}

// decodeEntry unwraps an index entry back into (key, value). It
// validates every length prefix against the expected sizes and returns
// errs.ErrCorruptEntry on any mismatch.
func decodeEntry(raw []byte, keySize, valueSize uint64) (key, value []byte, err error) {
	if uint64(len(raw)) != entrySize(keySize, valueSize) {
		return nil, nil, fmt.Errorf("%w: entry length %d, want %d", errs.ErrCorruptEntry, len(raw), entrySize(keySize, valueSize))
	}

	outerLen := binary.LittleEndian.Uint64(raw[0:8])
	inner := raw[8:]
	if outerLen != uint64(len(inner)) {
		return nil, nil, fmt.Errorf("%w: outer length %d, inner bytes %d", errs.ErrCorruptEntry, outerLen, len(inner))
	}

	if uint64(len(inner)) < 16 {
		return nil, nil, fmt.Errorf("%w: inner payload too short", errs.ErrCorruptEntry)
	}

	keyLen := binary.LittleEndian.Uint64(inner[0:8])
	if keyLen != keySize || uint64(len(inner)) < 8+keyLen+8 {
		return nil, nil, fmt.Errorf("%w: key length %d, want %d", errs.ErrCorruptEntry, keyLen, keySize)
	}
	key = inner[8 : 8+keyLen]

	rest := inner[8+keyLen:]
	valueLen := binary.LittleEndian.Uint64(rest[0:8])
	if valueLen != valueSize || uint64(len(rest)) != 8+valueLen {
		return nil, nil, fmt.Errorf("%w: value length %d, want %d", errs.ErrCorruptEntry, valueLen, valueSize)
	}
	value = rest[8 : 8+valueLen]

	return key, value, nil
}
