package persistence

import (
	"sync"

	"github.com/stepform/stepform/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe SnapshotStore backed by a
// map. It is the default store and the degradation target when a durable
// store fails mid-session.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*api.Snapshot
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string]*api.Snapshot),
	}
}

var _ SnapshotStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) Save(formID string, snap *api.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[formID] = snap.Clone()
	return nil
}

func (s *InMemoryStore) Load(formID string) (*api.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[formID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (s *InMemoryStore) Delete(formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, formID)
	return nil
}
