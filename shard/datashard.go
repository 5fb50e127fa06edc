package shard

import (
	"fmt"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/shard/errs"
)

// DataShard is an append-only, slot-addressed record file: a path
// resolved through the shared fdm.Manager on every access, paired with
// its Header.
type DataShard struct {
	fdm    *fdm.Manager
	path   string
	header *Header
}

// Open opens or creates the data shard file at path with the given
// slot capacity (ignored if the file already exists and has a header).
// mgr is the process-wide handle cache every read and write is leased
// through, so a store accumulating many past shards never holds more
// native file descriptors open than mgr allows.
func Open(mgr *fdm.Manager, path string, maxOffsets uint64) (*DataShard, error) {
	header, err := OpenHeader(mgr, path, maxOffsets)
	if err != nil {
		return nil, err
	}
	return &DataShard{fdm: mgr, path: path, header: header}, nil
}

// Path returns the backing file path.
func (s *DataShard) Path() string { return s.path }

// Header exposes the shard's header for callers that need capacity or
// identity information (the map shard, mainly).
func (s *DataShard) Header() *Header { return s.header }

// InsertRow appends data and allocates it the next slot index.
func (s *DataShard) InsertRow(data []byte) (uint64, error) {
	if !s.header.HasSpace() {
		return 0, errs.ErrOutOfPositions
	}

	lease, err := s.fdm.Get(s.path)
	if err != nil {
		return 0, err
	}
	offset, err := lease.Handle().Append(data)
	lease.Release()
	if err != nil {
		return 0, err
	}

	return s.header.AddNextOffset(uint64(offset))
}

// InsertRows appends every row in order, or fails without partial
// writes if there is not enough available space for all of them.
func (s *DataShard) InsertRows(rows [][]byte) (uint64, error) {
	if uint64(len(rows)) > s.header.AvailableSpace() {
		return 0, errs.ErrOutOfPositions
	}

	var first uint64
	for i, row := range rows {
		slot, err := s.InsertRow(row)
		if err != nil {
			return 0, fmt.Errorf("shard: insert row %d of %d: %w", i, len(rows), err)
		}
		if i == 0 {
			first = slot
		}
	}
	return first, nil
}

// ReadItemFromIndex returns the record bytes stored at slot. Record
// framing is derived from the offset table: size is the gap to the
// next slot's offset, or to EOF for the last slot.
func (s *DataShard) ReadItemFromIndex(slot uint64) ([]byte, error) {
	offset, ok, err := s.header.OffsetForSlot(slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot %d", errs.ErrSlotOutOfRange, slot)
	}

	var end int64
	if nextOffset, nextOK, err := s.header.OffsetForSlot(slot + 1); err != nil {
		return nil, err
	} else if nextOK {
		end = int64(nextOffset)
	} else {
		lease, err := s.fdm.Get(s.path)
		if err != nil {
			return nil, err
		}
		length, err := lease.Handle().Len()
		lease.Release()
		if err != nil {
			return nil, err
		}
		end = length
	}

	n := end - int64(offset)
	if n < 0 {
		return nil, fmt.Errorf("%w: slot %d has negative length", errs.ErrCorruptEntry, slot)
	}

	lease, err := s.fdm.Get(s.path)
	if err != nil {
		return nil, err
	}
	data, ok, err := lease.Handle().ReadAt(int64(offset), int(n))
	lease.Release()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot %d out of file bounds", errs.ErrCorruptEntry, slot)
	}
	return data, nil
}

// BreakingPoint returns the last allocated slot and true iff the shard
// is full, the signal the map shard uses to decide whether to roll over.
func (s *DataShard) BreakingPoint() (uint64, bool) {
	if s.header.HasSpace() {
		return 0, false
	}
	return uint64(s.header.LastOffsetIndex()), true
}

// UsedSlots returns the number of allocated slots in this shard.
func (s *DataShard) UsedSlots() uint64 {
	if s.header.LastOffsetIndex() < 0 {
		return 0
	}
	return uint64(s.header.LastOffsetIndex()) + 1
}

// SwapSlotContents swaps the byte content stored at two slots in place,
// without touching the offset table. Both slots must already hold
// records of the same size -- the only caller is the index shard's
// bubble-up pass, where every entry has the index's fixed size.
func (s *DataShard) SwapSlotContents(i, j uint64) error {
	dataI, err := s.ReadItemFromIndex(i)
	if err != nil {
		return err
	}
	dataJ, err := s.ReadItemFromIndex(j)
	if err != nil {
		return err
	}
	if len(dataI) != len(dataJ) {
		return fmt.Errorf("shard: swap slots %d,%d: size mismatch %d != %d", i, j, len(dataI), len(dataJ))
	}

	offI, _, err := s.header.OffsetForSlot(i)
	if err != nil {
		return err
	}
	offJ, _, err := s.header.OffsetForSlot(j)
	if err != nil {
		return err
	}

	lease, err := s.fdm.Get(s.path)
	if err != nil {
		return err
	}
	defer lease.Release()

	if err := lease.Handle().WriteAt(int64(offI), dataJ); err != nil {
		return err
	}
	return lease.Handle().WriteAt(int64(offJ), dataI)
}

// Reset truncates the shard back to an empty header, reusing the same
// file and getting a fresh UUID. Used by a temp shard once its buffer
// has been reconciled into its target map shard.
func (s *DataShard) Reset() error {
	maxOffsets := s.header.MaxOffsets()

	lease, err := s.fdm.Get(s.path)
	if err != nil {
		return err
	}
	err = lease.Handle().Truncate(0)
	lease.Release()
	if err != nil {
		return err
	}

	header, err := OpenHeader(s.fdm, s.path, maxOffsets)
	if err != nil {
		return err
	}
	s.header = header
	return nil
}
