package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	natomic "github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Options are the enumerated store options a table shard is opened
// with.
type Options struct {
	MaxRowsPerShard             uint64 `json:"max_rows_per_shard"`
	MaxTemporaryShards          int    `json:"max_temporary_shards"`
	MaxRecordsPerHashIndexShard uint64 `json:"max_records_per_hash_index_shard"`
	MaxOpenFileDescriptors      int    `json:"max_open_file_descriptors"`
	BinaryOrder                 bool   `json:"binary_order"`
}

// Default returns the options a freshly created store uses absent any
// config file.
func Default() Options {
	return Options{
		MaxRowsPerShard:             100000,
		MaxTemporaryShards:          8,
		MaxRecordsPerHashIndexShard: 100000,
		MaxOpenFileDescriptors:      256,
		BinaryOrder:                 true,
	}
}

// Load reads a JSONC (JSON-with-comments) config file at path,
// standardizing it to plain JSON before decoding. A missing file is
// not an error; Default() is returned instead.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Options{}, fmt.Errorf("config: invalid JSONC in %s: %w", path, err)
	}

	opts := Default()
	if err := json.Unmarshal(standardized, &opts); err != nil {
		return Options{}, fmt.Errorf("config: invalid JSON in %s: %w", path, err)
	}
	return opts, nil
}

// VerifyOrWrite persists opts to path if no config file exists yet, or
// loads the existing file and reports whether its layout-affecting
// fields (shard capacities, ring width) differ from opts -- those
// fields cannot change after shards have already been created with the
// old values, so a mismatch is an error rather than a silent override.
//
// Writes go through natefinch/atomic so a crash mid-write never leaves
// a half-written config file behind.
func VerifyOrWrite(path string, opts Options) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return writeAtomic(path, opts)
	}

	existing, err := Load(path)
	if err != nil {
		return err
	}

	if existing.MaxRowsPerShard != opts.MaxRowsPerShard ||
		existing.MaxTemporaryShards != opts.MaxTemporaryShards ||
		existing.MaxRecordsPerHashIndexShard != opts.MaxRecordsPerHashIndexShard {
		return fmt.Errorf("config: %s was created with different shard-layout options (have %+v, want %+v)", path, existing, opts)
	}
	return nil
}

func writeAtomic(path string, opts Options) error {
	buf, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := natomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
