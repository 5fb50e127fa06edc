package main

import (
	"encoding/json"
	"fmt"

	"github.com/kivanodb/shardcore/rowcodec"
)

// jsonRow is the simplest workable rowcodec.Row: a flat string-valued
// map, serialized as JSON. It exists to give shardctl something
// concrete to drive inserts and lookups with; real deployments bring
// their own codec.
type jsonRow map[string]string

func (r jsonRow) GetValue(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", true
	}
	return v, false
}

func (r jsonRow) ToJSON() ([]byte, error) {
	return json.Marshal(map[string]string(r))
}

type jsonCodec struct{}

func (jsonCodec) Serialize(row rowcodec.Row) ([]byte, error) {
	r, ok := row.(jsonRow)
	if !ok {
		return nil, fmt.Errorf("shardctl: codec only supports jsonRow")
	}
	return json.Marshal(map[string]string(r))
}

func (jsonCodec) Deserialize(data []byte, _ string) (rowcodec.Row, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("shardctl: decode row: %w", err)
	}
	return jsonRow(m), nil
}
