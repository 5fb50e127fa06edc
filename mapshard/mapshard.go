package mapshard

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/shard"
)

// filenamePattern matches "<prefix><8-digit seq>_<uuid>", the naming
// scheme that makes a lexical directory listing equal to creation
// order without relying on wall-clock timestamps, which can go
// backwards or tie under concurrent shard creation.
var filenamePattern = regexp.MustCompile(`^(\d{8})_[0-9a-fA-F-]{36}$`)

// MapShard is a chain of one writable current shard plus any number of
// read-only past shards, addressed as a single global slot space.
// Global indices are the concatenation of past shards' actual
// used-slot counts in creation order followed by the current shard,
// not a fixed stride -- a shard finalized short of capacity (its bulk
// insert did not fit in the remaining room) still produces a gapless
// index space.
type MapShard struct {
	fdm        *fdm.Manager
	dir        string
	prefix     string
	maxOffsets uint64

	mu         sync.RWMutex
	current    *shard.DataShard
	currentSeq uint64
	past       []*shard.DataShard // ascending by creation order
	globalBase uint64             // sum of every past shard's used-slot count
}

// Open scans dir for files named "<prefix><seq>_<uuid>", opening the
// newest as the writable current shard and the rest as past shards. If
// none exist, a fresh current shard is created at sequence 0.
func Open(mgr *fdm.Manager, dir, prefix string, maxOffsets uint64) (*MapShard, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mapshard: mkdir %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("mapshard: read dir %s: %w", dir, err)
	}

	type found struct {
		seq  uint64
		name string
	}
	var names []found
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		rest := name[len(prefix):]
		m := filenamePattern.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		seq, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		names = append(names, found{seq: seq, name: name})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].seq < names[j].seq })

	ms := &MapShard{fdm: mgr, dir: dir, prefix: prefix, maxOffsets: maxOffsets}

	if len(names) == 0 {
		ds, err := shard.Open(mgr, filepath.Join(dir, shardFilename(prefix, 0)), maxOffsets)
		if err != nil {
			return nil, err
		}
		ms.current = ds
		ms.currentSeq = 0
		return ms, nil
	}

	for i, f := range names {
		ds, err := shard.Open(mgr, filepath.Join(dir, f.name), maxOffsets)
		if err != nil {
			return nil, err
		}
		if i == len(names)-1 {
			ms.current = ds
			ms.currentSeq = f.seq
		} else {
			ms.past = append(ms.past, ds)
			ms.globalBase += ds.UsedSlots()
		}
	}
	return ms, nil
}

func shardFilename(prefix string, seq uint64) string {
	return fmt.Sprintf("%s%08d_%s", prefix, seq, uuid.New().String())
}

// rolloverLocked demotes the current shard to past and opens a fresh one
// at the next sequence number. Callers must hold mu for writing.
func (ms *MapShard) rolloverLocked() error {
	ms.globalBase += ms.current.UsedSlots()
	ms.past = append(ms.past, ms.current)
	nextSeq := ms.currentSeq + 1

	ds, err := shard.Open(ms.fdm, filepath.Join(ms.dir, shardFilename(ms.prefix, nextSeq)), ms.maxOffsets)
	if err != nil {
		return fmt.Errorf("mapshard: rollover to seq %d: %w", nextSeq, err)
	}
	ms.current = ds
	ms.currentSeq = nextSeq
	return nil
}

// InsertRows appends rows to the current shard, rolling over to a fresh
// shard first if they would not otherwise fit. Returns the global index
// of the first inserted row; the rest occupy consecutive global
// indices.
func (ms *MapShard) InsertRows(rows [][]byte) (uint64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if uint64(len(rows)) > ms.maxOffsets {
		return 0, fmt.Errorf("mapshard: %d rows exceed shard capacity %d", len(rows), ms.maxOffsets)
	}

	if uint64(len(rows)) > ms.current.Header().AvailableSpace() {
		if err := ms.rolloverLocked(); err != nil {
			return 0, err
		}
	}

	localFirst, err := ms.current.InsertRows(rows)
	if err != nil {
		return 0, err
	}

	return ms.globalBase + localFirst, nil
}

// GetElement resolves a global slot index to its record bytes, walking
// past shards in creation order and subtracting their used-slot counts
// until the index falls into a shard, falling back to the current
// shard for whatever remains.
func (ms *MapShard) GetElement(globalIdx uint64) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	remaining := globalIdx
	for _, ds := range ms.past {
		used := ds.UsedSlots()
		if remaining < used {
			return ds.ReadItemFromIndex(remaining)
		}
		remaining -= used
	}
	return ms.current.ReadItemFromIndex(remaining)
}

// GetElementFromMaster reads a record by local slot index from the
// current shard only, bypassing past-shard resolution, for callers
// that already know they are addressing the live shard.
func (ms *MapShard) GetElementFromMaster(localSlot uint64) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.current.ReadItemFromIndex(localSlot)
}

// Current returns the writable current shard.
func (ms *MapShard) Current() *shard.DataShard {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.current
}

// PastShards returns the read-only past shards in ascending creation
// order.
func (ms *MapShard) PastShards() []*shard.DataShard {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]*shard.DataShard, len(ms.past))
	copy(out, ms.past)
	return out
}

// ShardCount returns the total number of shards (past + current).
func (ms *MapShard) ShardCount() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.past) + 1
}
