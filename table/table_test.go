package table

import (
	"encoding/json"
	"testing"

	"github.com/kivanodb/shardcore/config"
	"github.com/kivanodb/shardcore/dirs"
	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/rowcodec"
	"github.com/kivanodb/shardcore/schema"
	"github.com/stretchr/testify/require"
)

type stubRow map[string]string

func (r stubRow) GetValue(column string) (string, bool) {
	v, ok := r[column]
	return v, !ok
}

func (r stubRow) ToJSON() ([]byte, error) { return json.Marshal(map[string]string(r)) }

type stubCodec struct{}

func (stubCodec) Serialize(row rowcodec.Row) ([]byte, error) {
	return json.Marshal(map[string]string(row.(stubRow)))
}

func (stubCodec) Deserialize(data []byte, _ string) (rowcodec.Row, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return stubRow(m), nil
}

type recordingHook struct {
	batches [][][]byte
}

func (h *recordingHook) OnInsert(rowsJSON [][]byte, db, table string) error {
	h.batches = append(h.batches, rowsJSON)
	return nil
}

func newTestTable(t *testing.T) (*Shard, *recordingHook) {
	t.Helper()
	dir := t.TempDir()
	mgr := fdm.New(0)
	layout := dirs.New(dir)

	tbl := schema.Table{
		Name:       "users",
		PrimaryKey: "_uid",
		Indexes: []schema.Index{
			{
				Name:        "user_idx",
				Members:     []string{"user"},
				Type:        schema.IndexTypeHash,
				KeySize:     8,
				ValueSize:   8,
				BinaryOrder: true,
			},
		},
	}
	opts := config.Options{
		MaxRowsPerShard:             100,
		MaxTemporaryShards:          2,
		MaxRecordsPerHashIndexShard: 100,
		MaxOpenFileDescriptors:      64,
		BinaryOrder:                 true,
	}

	hook := &recordingHook{}
	ts, err := Open(mgr, layout, "db1", tbl, opts, stubCodec{}, hook)
	require.NoError(t, err)
	return ts, hook
}

// A row inserted into the temp ring must become searchable through its
// index, and fire the post-reconcile hook, once reconciled.
func TestIndexableRowFlowsThroughReconcile(t *testing.T) {
	ts, hook := newTestTable(t)

	_, _, err := ts.InsertRow(stubRow{"user": "alice"})
	require.NoError(t, err)

	require.NoError(t, ts.Reconcile())

	raw, found, err := ts.Lookup("user_idx", func(column string) (string, bool) {
		if column == "user" {
			return "alice", false
		}
		return "", true
	})
	require.NoError(t, err)
	require.True(t, found)

	var row map[string]string
	require.NoError(t, json.Unmarshal(raw, &row))
	require.Equal(t, "alice", row["user"])

	require.Len(t, hook.batches, 1)
	require.Len(t, hook.batches[0], 1)
}

func TestEntirelyNullRowSkipsIndex(t *testing.T) {
	ts, _ := newTestTable(t)

	_, _, err := ts.InsertRow(stubRow{"other": "x"})
	require.NoError(t, err)
	require.NoError(t, ts.Reconcile())

	_, found, err := ts.Lookup("user_idx", func(column string) (string, bool) {
		return "", true
	})
	require.NoError(t, err)
	require.False(t, found)
}
