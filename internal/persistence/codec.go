package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/stepform/stepform/pkg/api"
)

// EncodeSnapshot serializes a snapshot to its persisted JSON layout:
// { "values": { name: { value, timestamp, stepIndex, fieldType,
// visible } }, "lastUpdated": ... }.
func EncodeSnapshot(snap *api.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted payload. A corrupt payload is
// reported as an error for the caller to degrade on; it never panics.
func DecodeSnapshot(data []byte) (*api.Snapshot, error) {
	if len(data) == 0 {
		return api.NewSnapshot(), nil
	}
	var snap api.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Values == nil {
		snap.Values = make(map[string]api.FieldRecord)
	}
	return &snap, nil
}
