package api

import (
	"encoding/json"
	"strings"
	"time"
)

// FieldValue holds a form control's value: a single scalar for text-like
// controls and radios, or a set for checkbox groups and multi-selects.
//
// It marshals as a plain JSON string when it holds one value and as an
// array otherwise, so persisted snapshots stay readable by the summary
// collaborator without extra decoding.
type FieldValue []string

// StringValue returns a FieldValue holding a single scalar.
func StringValue(s string) FieldValue {
	return FieldValue{s}
}

// String returns the scalar value, or the set joined with ", " for
// multi-value fields.
func (v FieldValue) String() string {
	switch len(v) {
	case 0:
		return ""
	case 1:
		return v[0]
	default:
		return strings.Join(v, ", ")
	}
}

// IsZero reports whether the value is empty after trimming whitespace.
func (v FieldValue) IsZero() bool {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Contains reports whether the set includes s exactly.
func (v FieldValue) Contains(s string) bool {
	for _, e := range v {
		if e == s {
			return true
		}
	}
	return false
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FieldValue{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = FieldValue(list)
	return nil
}

// FieldRecord is the persisted value and metadata for one named field.
type FieldRecord struct {
	Value     FieldValue `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
	StepIndex int        `json:"stepIndex"`
	FieldKind FieldKind  `json:"fieldType"`

	// Visible records whether the field's wrapper was on-screen at save
	// time. Only visible records appear in summaries.
	Visible bool `json:"visible"`
}

// Snapshot is the persisted state layout for one form instance.
type Snapshot struct {
	Values      map[string]FieldRecord `json:"values"`
	LastUpdated time.Time              `json:"lastUpdated"`
}

// NewSnapshot returns an empty snapshot ready for upserts.
func NewSnapshot() *Snapshot {
	return &Snapshot{Values: make(map[string]FieldRecord)}
}

// Clone returns a deep copy, so a snapshot handed to a store cannot be
// mutated by later field edits.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Values:      make(map[string]FieldRecord, len(s.Values)),
		LastUpdated: s.LastUpdated,
	}
	for name, rec := range s.Values {
		rec.Value = append(FieldValue(nil), rec.Value...)
		out.Values[name] = rec
	}
	return out
}

// ReadAll projects the snapshot to a plain name-to-value map, dropping
// metadata.
func (s *Snapshot) ReadAll() map[string]FieldValue {
	out := make(map[string]FieldValue, len(s.Values))
	for name, rec := range s.Values {
		out[name] = append(FieldValue(nil), rec.Value...)
	}
	return out
}
