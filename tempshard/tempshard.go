package tempshard

import (
	"fmt"
	"sync"

	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/mapshard"
	"github.com/kivanodb/shardcore/shard"
)

// ReconciledRow pairs a buffered row's bytes with the global slot index
// it was assigned in the target map shard once reconciled.
type ReconciledRow struct {
	Data        []byte
	GlobalIndex uint64
}

// OnReconcile is invoked once per ReconcileAll call that moved at least
// one row, after the rows have already landed in the target map shard
// and the temp shard's own write lock has been released.
type OnReconcile func(rows []ReconciledRow) error

// TempShard is a small, fixed-capacity write buffer backed by its own
// data shard file. Writers append to it instead of contending on a map
// shard's single current shard; ReconcileAll periodically drains it
// into a target map shard.
type TempShard struct {
	mu          sync.Mutex
	buf         *shard.DataShard
	onReconcile OnReconcile
}

// Open opens or creates a temp shard's backing file with the given
// capacity.
func Open(mgr *fdm.Manager, path string, maxOffsets uint64) (*TempShard, error) {
	buf, err := shard.Open(mgr, path, maxOffsets)
	if err != nil {
		return nil, err
	}
	return &TempShard{buf: buf}, nil
}

// SetOnReconcile installs the callback invoked after a successful
// ReconcileAll. Only one callback is supported; a later call replaces
// the previous one.
func (t *TempShard) SetOnReconcile(cb OnReconcile) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReconcile = cb
}

// InsertRow appends data to the buffer and returns its local slot
// index within the temp shard, not a global index -- the row has no
// global identity until it is reconciled into a map shard.
func (t *TempShard) InsertRow(data []byte) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.InsertRow(data)
}

// HasSpace reports whether the buffer can still accept a row without
// reconciling first.
func (t *TempShard) HasSpace() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, full := t.buf.BreakingPoint()
	return !full
}

// ReconcileAll drains every buffered row into target, then invokes the
// installed callback (if any) with an immutable snapshot of the moved
// rows and their newly assigned global indices.
//
// The buffer is only cleared once the rows have safely landed in
// target: if the insert into target fails (capacity exceeded, a
// rollover I/O error), the buffer is left untouched so the same rows
// can be retried on the next call. The lock is released before the
// callback runs, so a callback that re-enters this temp shard (or any
// other) never deadlocks.
func (t *TempShard) ReconcileAll(target *mapshard.MapShard) error {
	t.mu.Lock()
	n := t.buf.UsedSlots()
	if n == 0 {
		t.mu.Unlock()
		return nil
	}

	rows := make([][]byte, n)
	for i := uint64(0); i < n; i++ {
		data, err := t.buf.ReadItemFromIndex(i)
		if err != nil {
			t.mu.Unlock()
			return fmt.Errorf("tempshard: read buffered row %d: %w", i, err)
		}
		rows[i] = data
	}

	globalFirst, err := target.InsertRows(rows)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("tempshard: reconcile insert: %w", err)
	}

	if err := t.buf.Reset(); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("tempshard: reset after drain: %w", err)
	}
	cb := t.onReconcile
	t.mu.Unlock()

	if cb == nil {
		return nil
	}

	snapshot := make([]ReconciledRow, len(rows))
	for i, row := range rows {
		snapshot[i] = ReconciledRow{Data: row, GlobalIndex: globalFirst + uint64(i)}
	}
	if err := cb(snapshot); err != nil {
		return fmt.Errorf("tempshard: reconcile callback: %w", err)
	}
	return nil
}
