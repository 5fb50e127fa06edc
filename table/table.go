package table

import (
	"fmt"
	"log"

	"github.com/kivanodb/shardcore/config"
	"github.com/kivanodb/shardcore/dirs"
	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/index"
	"github.com/kivanodb/shardcore/mapshard"
	"github.com/kivanodb/shardcore/rowcodec"
	"github.com/kivanodb/shardcore/schema"
	"github.com/kivanodb/shardcore/tempshard"
)

// Shard composes a table's data map shard, its temp ring, and one
// index shard per declared index.
type Shard struct {
	db    string
	table schema.Table

	data  *mapshard.MapShard
	temps *tempshard.Ring

	indexes map[string]*index.Shard // by index name

	codec rowcodec.Codec
	hook  rowcodec.PostReconcileHook // optional
}

// Open wires up a table's storage: its data map shard, temp ring, and
// index shards, all rooted under layout's directory scheme. codec is
// required; hook may be nil.
func Open(mgr *fdm.Manager, layout dirs.Layout, db string, tbl schema.Table, opts config.Options, codec rowcodec.Codec, hook rowcodec.PostReconcileHook) (*Shard, error) {
	dataDir, err := layout.DataDir(db, tbl.Name)
	if err != nil {
		return nil, err
	}
	data, err := mapshard.Open(mgr, dataDir, "data_", opts.MaxRowsPerShard)
	if err != nil {
		return nil, fmt.Errorf("table %s: open data shard: %w", tbl.Name, err)
	}

	tempDir, err := layout.TempDir(db, tbl.Name)
	if err != nil {
		return nil, err
	}
	temps, err := tempshard.OpenRing(mgr, tempDir, opts.MaxTemporaryShards, opts.MaxRowsPerShard)
	if err != nil {
		return nil, fmt.Errorf("table %s: open temp ring: %w", tbl.Name, err)
	}

	indexDir, err := layout.IndexDir(db, tbl.Name)
	if err != nil {
		return nil, err
	}
	indexes := make(map[string]*index.Shard, len(tbl.Indexes))
	for _, idx := range tbl.Indexes {
		is, err := index.Open(mgr, indexDir, dirs.IndexPrefix(idx.Name), idx.KeySize, idx.ValueSize, opts.MaxRecordsPerHashIndexShard, idx.BinaryOrder)
		if err != nil {
			return nil, fmt.Errorf("table %s: open index %s: %w", tbl.Name, idx.Name, err)
		}
		indexes[idx.Name] = is
	}

	s := &Shard{
		db:      db,
		table:   tbl,
		data:    data,
		temps:   temps,
		indexes: indexes,
		codec:   codec,
		hook:    hook,
	}

	temps.SetOnReconcile(s.onReconcile)

	// Replay any rows left over from a crash mid-reconcile through the
	// target map shard once, before accepting new writes.
	if err := temps.ReconcileAll(data); err != nil {
		return nil, fmt.Errorf("table %s: crash-recovery reconcile: %w", tbl.Name, err)
	}

	return s, nil
}

// InsertRow serializes row and appends it to the temp ring, returning
// which ring member absorbed the write. The row has no global index
// and is not yet visible to any index until the next Reconcile.
func (s *Shard) InsertRow(row rowcodec.Row) (memberIdx int, localSlot uint64, err error) {
	data, err := s.codec.Serialize(row)
	if err != nil {
		return 0, 0, fmt.Errorf("table %s: serialize row: %w", s.table.Name, err)
	}
	return s.temps.InsertRow(data)
}

// Reconcile drains the temp ring into the data map shard, indexing
// every reconciled row along the way.
func (s *Shard) Reconcile() error {
	return s.temps.ReconcileAll(s.data)
}

// onReconcile is installed on every temp shard in the ring. It groups
// the freshly reconciled rows by affected index, builds composite
// keys, and bulk-inserts into each index shard, then fires the
// post-reconcile hook if one is installed.
func (s *Shard) onReconcile(rows []tempshard.ReconciledRow) error {
	type pending struct {
		keys   [][]byte
		values [][]byte
	}
	byIndex := make(map[string]*pending, len(s.table.Indexes))

	var rowsJSON [][]byte
	if s.hook != nil {
		rowsJSON = make([][]byte, 0, len(rows))
	}

	for _, r := range rows {
		row, err := s.codec.Deserialize(r.Data, s.table.Name)
		if err != nil {
			log.Printf("table %s: skipping unindexable row at global index %d: %v", s.table.Name, r.GlobalIndex, err)
			continue
		}

		for _, idx := range s.table.Indexes {
			if !idx.Indexable(row.GetValue) {
				continue
			}
			key := compositeKey(idx, row.GetValue)
			value := encodeGlobalIndex(r.GlobalIndex, idx.ValueSize)

			p := byIndex[idx.Name]
			if p == nil {
				p = &pending{}
				byIndex[idx.Name] = p
			}
			p.keys = append(p.keys, key)
			p.values = append(p.values, value)
		}

		if s.hook != nil {
			j, err := row.ToJSON()
			if err != nil {
				log.Printf("table %s: row at global index %d failed to render JSON for hook: %v", s.table.Name, r.GlobalIndex, err)
				continue
			}
			rowsJSON = append(rowsJSON, j)
		}
	}

	for name, p := range byIndex {
		is := s.indexes[name]
		if is == nil {
			continue
		}
		if err := is.InsertMany(p.keys, p.values); err != nil {
			return fmt.Errorf("table %s: index %s: %w", s.table.Name, name, err)
		}
	}

	if s.hook != nil && len(rowsJSON) > 0 {
		if err := s.hook.OnInsert(rowsJSON, s.db, s.table.Name); err != nil {
			return fmt.Errorf("table %s: post-reconcile hook: %w", s.table.Name, err)
		}
	}

	return nil
}

// Lookup resolves a point lookup through a named index: build the same
// composite key the insert path would have built for getValue, binary
// search the index, then resolve the matched global index through the
// data map shard.
func (s *Shard) Lookup(indexName string, getValue func(column string) (value string, isNull bool)) ([]byte, bool, error) {
	is := s.indexes[indexName]
	if is == nil {
		return nil, false, fmt.Errorf("table %s: unknown index %q", s.table.Name, indexName)
	}

	var schemaIdx schema.Index
	found := false
	for _, idx := range s.table.Indexes {
		if idx.Name == indexName {
			schemaIdx = idx
			found = true
			break
		}
	}
	if !found {
		return nil, false, fmt.Errorf("table %s: unknown index %q", s.table.Name, indexName)
	}

	key := compositeKey(schemaIdx, getValue)
	res, hit, err := is.BinarySearch(key)
	if err != nil {
		return nil, false, err
	}
	if !hit {
		return nil, false, nil
	}

	globalIdx := decodeGlobalIndex(res.Value)
	raw, err := s.data.GetElement(globalIdx)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Data returns the table's underlying data map shard.
func (s *Shard) Data() *mapshard.MapShard { return s.data }

// Index returns the named index shard, or nil if no such index exists.
func (s *Shard) Index(name string) *index.Shard { return s.indexes[name] }
