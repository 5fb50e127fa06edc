package tempshard

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/mapshard"
)

// Ring is a fixed-size pool of temp shards. Writers are distributed
// across the pool round-robin via a lock-free atomic counter, so
// concurrent inserts rarely contend on the same buffer.
type Ring struct {
	shards []*TempShard
	next   uint64 // atomic
}

// OpenRing opens n temp shards named "temp_0".."temp_<n-1>" under dir,
// each with the given per-shard capacity.
func OpenRing(mgr *fdm.Manager, dir string, n int, maxOffsets uint64) (*Ring, error) {
	if n <= 0 {
		return nil, fmt.Errorf("tempshard: ring size must be positive, got %d", n)
	}

	shards := make([]*TempShard, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("temp_%d", i))
		ts, err := Open(mgr, path, maxOffsets)
		if err != nil {
			return nil, fmt.Errorf("tempshard: open ring member %d: %w", i, err)
		}
		shards[i] = ts
	}
	return &Ring{shards: shards}, nil
}

// SetOnReconcile installs the same callback on every member of the ring.
func (r *Ring) SetOnReconcile(cb OnReconcile) {
	for _, ts := range r.shards {
		ts.SetOnReconcile(cb)
	}
}

// InsertRow picks the next temp shard round-robin and appends data to
// it, returning which ring member absorbed the write.
func (r *Ring) InsertRow(data []byte) (memberIdx int, localSlot uint64, err error) {
	idx := int(atomic.AddUint64(&r.next, 1)-1) % len(r.shards)
	slot, err := r.shards[idx].InsertRow(data)
	return idx, slot, err
}

// ReconcileAll drains every ring member into target, in member order.
// A failure part-way through still leaves earlier members reconciled;
// the error identifies which member failed.
func (r *Ring) ReconcileAll(target *mapshard.MapShard) error {
	for i, ts := range r.shards {
		if err := ts.ReconcileAll(target); err != nil {
			return fmt.Errorf("tempshard: reconcile ring member %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of temp shards in the ring.
func (r *Ring) Len() int { return len(r.shards) }
