package index

import (
	"bytes"
	"fmt"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/mapshard"
	"github.com/kivanodb/shardcore/shard"
)

// Shard is a sorted key/value index over a map shard, entries framed
// as in entry.go, keys and values both fixed-size within one index.
type Shard struct {
	ms          *mapshard.MapShard
	keySize     uint64
	valueSize   uint64
	binaryOrder bool
}

// Open opens or creates an index shard rooted at dir with the given
// fixed key/value sizes and per-shard record capacity. binaryOrder
// enables the bubble-up insertion pass.
func Open(mgr *fdm.Manager, dir, prefix string, keySize, valueSize, capacity uint64, binaryOrder bool) (*Shard, error) {
	ms, err := mapshard.Open(mgr, dir, prefix, capacity)
	if err != nil {
		return nil, err
	}
	return &Shard{ms: ms, keySize: keySize, valueSize: valueSize, binaryOrder: binaryOrder}, nil
}

// KeySize and ValueSize return the index's fixed entry field sizes.
func (s *Shard) KeySize() uint64   { return s.keySize }
func (s *Shard) ValueSize() uint64 { return s.valueSize }

// Insert appends one (key, value) entry and, if binary ordering is
// enabled, bubbles it into place among the current shard's entries.
// key and value must already be exactly keySize and valueSize bytes.
func (s *Shard) Insert(key, value []byte) error {
	if uint64(len(key)) != s.keySize {
		return fmt.Errorf("index: key is %d bytes, want %d", len(key), s.keySize)
	}
	if uint64(len(value)) != s.valueSize {
		return fmt.Errorf("index: value is %d bytes, want %d", len(value), s.valueSize)
	}

	entry := encodeEntry(key, value)
	if _, err := s.ms.InsertRows([][]byte{entry}); err != nil {
		return fmt.Errorf("index: insert: %w", err)
	}

	if s.binaryOrder {
		return s.bubbleUp()
	}
	return nil
}

// InsertMany inserts every (key, value) pair in order, stopping and
// returning the first error encountered.
func (s *Shard) InsertMany(keys, values [][]byte) error {
	if len(keys) != len(values) {
		return fmt.Errorf("index: %d keys but %d values", len(keys), len(values))
	}
	for i := range keys {
		if err := s.Insert(keys[i], values[i]); err != nil {
			return fmt.Errorf("index: insert %d of %d: %w", i, len(keys), err)
		}
	}
	return nil
}

// bubbleUp moves the just-appended entry (at the current shard's last
// slot) leftward while it compares strictly less than its predecessor,
// swapping byte content in place.
func (s *Shard) bubbleUp() error {
	current := s.ms.Current()
	i := current.UsedSlots() - 1
	for i > 0 {
		curEntry, err := current.ReadItemFromIndex(i)
		if err != nil {
			return err
		}
		prevEntry, err := current.ReadItemFromIndex(i - 1)
		if err != nil {
			return err
		}

		curKey, _, err := decodeEntry(curEntry, s.keySize, s.valueSize)
		if err != nil {
			return err
		}
		prevKey, _, err := decodeEntry(prevEntry, s.keySize, s.valueSize)
		if err != nil {
			return err
		}

		if bytes.Compare(curKey, prevKey) >= 0 {
			break
		}

		if err := current.SwapSlotContents(i-1, i); err != nil {
			return err
		}
		i--
	}
	return nil
}

// Result is a successful binary search match.
type Result struct {
	GlobalIndex uint64
	Key         []byte
	Value       []byte
}

// BinarySearch searches the current shard first, then each past shard
// from newest to oldest, returning the first match. Malformed entries
// encountered during the search are skipped rather than aborting it.
func (s *Shard) BinarySearch(key []byte) (Result, bool, error) {
	if uint64(len(key)) != s.keySize {
		return Result{}, false, fmt.Errorf("index: search key is %d bytes, want %d", len(key), s.keySize)
	}

	past := s.ms.PastShards()
	shardsInOrder := append(append([]*shard.DataShard{}, s.ms.Current()), reversePast(past)...)
	// Current shard is searched first, then past shards from newest to
	// oldest -- the likeliest place for a recent duplicate to live.

	// bases[i] is the global index of shardsInOrder[i]'s slot 0: each
	// past shard starts after the used slots of the shards created
	// before it, and the current shard after all past shards.
	bases := make([]uint64, len(shardsInOrder))
	var base uint64
	for i, ds := range past {
		bases[len(past)-i] = base
		base += ds.UsedSlots()
	}
	bases[0] = base

	for i, ds := range shardsInOrder {
		res, found, err := binarySearchShard(ds, key, s.keySize, s.valueSize)
		if err != nil {
			return Result{}, false, err
		}
		if found {
			res.GlobalIndex += bases[i]
			return res, true, nil
		}
	}
	return Result{}, false, nil
}

func reversePast(past []*shard.DataShard) []*shard.DataShard {
	out := make([]*shard.DataShard, len(past))
	for i, ds := range past {
		out[len(past)-1-i] = ds
	}
	return out
}

func binarySearchShard(ds *shard.DataShard, key []byte, keySize, valueSize uint64) (Result, bool, error) {
	used := ds.UsedSlots()
	if used == 0 {
		return Result{}, false, nil
	}

	lo, hi := uint64(0), used-1
	var corrupt []uint64
	for lo <= hi {
		mid := lo + (hi-lo)/2

		raw, err := ds.ReadItemFromIndex(mid)
		if err != nil {
			return Result{}, false, err
		}
		k, v, err := decodeEntry(raw, keySize, valueSize)
		if err != nil {
			// A corrupt entry breaks the shard's sort order locally;
			// record it and fall back to scanning the remaining
			// window linearly rather than trusting a comparison
			// against garbage bytes.
			corrupt = append(corrupt, mid)
			return linearSearchWindow(ds, key, keySize, valueSize, lo, hi, corrupt)
		}

		cmp := bytes.Compare(key, k)
		switch {
		case cmp == 0:
			return Result{GlobalIndex: mid, Key: k, Value: v}, true, nil
		case cmp < 0:
			if mid == 0 {
				return Result{}, false, nil
			}
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return Result{}, false, nil
}

// linearSearchWindow scans [lo, hi] slot by slot, skipping slots
// already known to be corrupt, used as a fallback once binary search
// hits a malformed entry it cannot order against.
func linearSearchWindow(ds *shard.DataShard, key []byte, keySize, valueSize uint64, lo, hi uint64, skip []uint64) (Result, bool, error) {
	isSkipped := func(i uint64) bool {
		for _, s := range skip {
			if s == i {
				return true
			}
		}
		return false
	}

	for i := lo; i <= hi; i++ {
		if isSkipped(i) {
			continue
		}
		raw, err := ds.ReadItemFromIndex(i)
		if err != nil {
			return Result{}, false, err
		}
		k, v, err := decodeEntry(raw, keySize, valueSize)
		if err != nil {
			continue
		}
		if bytes.Equal(k, key) {
			return Result{GlobalIndex: i, Key: k, Value: v}, true, nil
		}
	}
	return Result{}, false, nil
}

// GetKV resolves a global slot index to its parsed (key, value, raw)
// triple. Returns found = false for a malformed entry rather than an
// error.
func (s *Shard) GetKV(globalIndex uint64) (key, value, raw []byte, found bool, err error) {
	raw, err = s.ms.GetElement(globalIndex)
	if err != nil {
		return nil, nil, nil, false, err
	}
	key, value, err = decodeEntry(raw, s.keySize, s.valueSize)
	if err != nil {
		return nil, nil, raw, false, nil
	}
	return key, value, raw, true, nil
}
