// Package shard implements the data shard and its fixed-size header:
// an append-only, slot-addressed record file.
package shard

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/fh"
	"github.com/kivanodb/shardcore/shard/errs"
)

// headerFixedSize is max_offsets (8B) + last_offset_index (8B) + id (16B).
const headerFixedSize = 8 + 8 + 16

// DefaultMaxOffsets is used when a caller does not specify a capacity.
const DefaultMaxOffsets = 100

// Header is the fixed-size prefix of a data shard file: capacity,
// last-used slot index, shard UUID, and a dense slot -> byte-offset
// table.
//
// A Header does not hold an open file handle between calls; every
// operation leases one from the shared fdm.Manager for its duration, so
// that the total number of concurrently open descriptors stays bounded
// regardless of how many shards a store accumulates.
type Header struct {
	path string
	fdm  *fdm.Manager

	maxOffsets      uint64
	lastOffsetIndex int64 // -1 sentinel for "empty"
	id              uuid.UUID
	headerSize      int64 // headerFixedSize + maxOffsets*8
}

// OpenHeader reads the header at path if the file is non-empty, or
// writes a fresh one (fresh UUID, zeroed offset table, last index -1)
// if the file is empty. maxOffsets is only used for a freshly created
// header; an existing header's capacity always wins on reopen.
func OpenHeader(mgr *fdm.Manager, path string, maxOffsets uint64) (*Header, error) {
	if maxOffsets == 0 {
		maxOffsets = DefaultMaxOffsets
	}

	lease, err := mgr.Get(path)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	size, err := lease.Handle().Len()
	if err != nil {
		return nil, err
	}

	h := &Header{
		path:            path,
		fdm:             mgr,
		maxOffsets:      maxOffsets,
		lastOffsetIndex: -1,
		id:              uuid.New(),
		headerSize:      headerFixedSize + int64(maxOffsets)*8,
	}

	if size == 0 {
		if err := h.writeFresh(lease.Handle()); err != nil {
			return nil, fmt.Errorf("shard: init header: %w", err)
		}
		return h, nil
	}

	if err := h.readExisting(lease.Handle()); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidHeader, err)
	}
	return h, nil
}

func (h *Header) writeFresh(handle *fh.Handle) error {
	return handle.Operate(func(f *os.File) error {
		buf := make([]byte, h.headerSize)
		binary.LittleEndian.PutUint64(buf[0:8], h.maxOffsets)
		binary.LittleEndian.PutUint64(buf[8:16], uint64(h.lastOffsetIndex))
		idBytes, err := h.id.MarshalBinary()
		if err != nil {
			return err
		}
		copy(buf[16:32], idBytes)
		// offset table (buf[32:]) is already zeroed.
		if _, err := f.WriteAt(buf, 0); err != nil {
			return err
		}
		return nil
	})
}

func (h *Header) readExisting(handle *fh.Handle) error {
	maxOffsetsBytes, ok, err := handle.ReadAt(0, 8)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("truncated header")
	}
	h.maxOffsets = binary.LittleEndian.Uint64(maxOffsetsBytes)
	h.headerSize = headerFixedSize + int64(h.maxOffsets)*8

	lastIdxBytes, ok, err := handle.ReadAt(8, 8)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("truncated header")
	}
	h.lastOffsetIndex = int64(binary.LittleEndian.Uint64(lastIdxBytes))

	idBytes, ok, err := handle.ReadAt(16, 16)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("truncated header")
	}
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return err
	}
	h.id = id

	return nil
}

// MaxOffsets returns the shard's slot capacity.
func (h *Header) MaxOffsets() uint64 { return h.maxOffsets }

// ID returns the shard's UUID.
func (h *Header) ID() uuid.UUID { return h.id }

// HeaderSize returns the byte length of the fixed-size prefix,
// including the offset table.
func (h *Header) HeaderSize() int64 { return h.headerSize }

// LastOffsetIndex returns the highest allocated slot, or -1 if empty.
func (h *Header) LastOffsetIndex() int64 { return h.lastOffsetIndex }

// HasSpace reports whether at least one more slot can be allocated.
func (h *Header) HasSpace() bool {
	if h.lastOffsetIndex == -1 {
		return true
	}
	return h.maxOffsets > uint64(h.lastOffsetIndex+1)
}

// AvailableSpace returns the number of slots still free.
func (h *Header) AvailableSpace() uint64 {
	if h.lastOffsetIndex == -1 {
		return h.maxOffsets
	}
	return h.maxOffsets - uint64(h.lastOffsetIndex+1)
}

func (h *Header) offsetPos(slot uint64) int64 {
	return headerFixedSize + int64(slot)*8
}

// AddNextOffset allocates the next slot (last+1, or 0 when empty) and
// records recordOffset at that slot's position in the offset table.
// Returns errs.ErrOutOfPositions when the header is full.
func (h *Header) AddNextOffset(recordOffset uint64) (uint64, error) {
	if !h.HasSpace() {
		return 0, errs.ErrOutOfPositions
	}

	lease, err := h.fdm.Get(h.path)
	if err != nil {
		return 0, err
	}
	defer lease.Release()
	handle := lease.Handle()

	next := uint64(0)
	if h.lastOffsetIndex >= 0 {
		next = uint64(h.lastOffsetIndex) + 1
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, recordOffset)
	if err := handle.WriteAt(h.offsetPos(next), buf); err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrAddingHeaderOffset, err)
	}

	lastBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(lastBuf, uint64(int64(next)))
	if err := handle.WriteAt(8, lastBuf); err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrAddingHeaderOffset, err)
	}

	h.lastOffsetIndex = int64(next)
	return next, nil
}

// OffsetForSlot reads the byte offset recorded for slot, or (0, false)
// if the slot was never written (the zero-slot's legitimate offset of
// header size never collides with the unused sentinel, since the first
// record always starts after the header).
func (h *Header) OffsetForSlot(slot uint64) (uint64, bool, error) {
	if h.lastOffsetIndex < 0 || slot > uint64(h.lastOffsetIndex) {
		return 0, false, nil
	}

	lease, err := h.fdm.Get(h.path)
	if err != nil {
		return 0, false, err
	}
	defer lease.Release()

	bytes, ok, err := lease.Handle().ReadAt(h.offsetPos(slot), 8)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	val := binary.LittleEndian.Uint64(bytes)
	if val == 0 {
		return 0, false, nil
	}
	if int64(val) < h.headerSize {
		// Spec.md §9's open question: offset zero is overloaded as
		// "unused". Guard against a corrupt table entry pointing
		// into the header itself.
		return 0, false, fmt.Errorf("%w: offset %d before header end %d", errs.ErrCorruptEntry, val, h.headerSize)
	}
	return val, true, nil
}
