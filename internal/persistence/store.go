// Package persistence stores autosave snapshots: one JSON document per
// form instance, keyed by the form's identifier.
package persistence

import (
	"errors"

	"github.com/stepform/stepform/pkg/api"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a form ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore is the single local key-value contract the autosave
// layer needs. Implementations must tolerate repeated Save calls for the
// same ID (upsert semantics).
type SnapshotStore interface {
	Save(formID string, snap *api.Snapshot) error
	Load(formID string) (*api.Snapshot, error)
	Delete(formID string) error
}
