package persistence

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stepform/stepform/pkg/api"
)

// DefaultDebounce is the window within which bursts of field edits
// coalesce into a single store write.
const DefaultDebounce = 500 * time.Millisecond

// FieldMeta is the metadata recorded alongside a field value.
type FieldMeta struct {
	StepIndex int
	Kind      api.FieldKind
	Visible   bool
}

// Autosave owns the in-memory snapshot of one form instance and flushes
// it to a SnapshotStore. Writes are debounced with cancel-on-supersede
// semantics: each new edit replaces the pending flush, so only the most
// recent state eventually lands.
//
// Store failures degrade the session to in-memory-only operation: the
// error is reported once through onError and the snapshot keeps
// accumulating edits without further store traffic.
type Autosave struct {
	formID   string
	debounce time.Duration
	onError  func(error)

	mu       sync.Mutex
	store    SnapshotStore
	snap     *api.Snapshot
	timer    *time.Timer
	degraded bool
	closed   bool
}

// NewAutosave creates an autosave layer over the given store. A nil
// store means in-memory-only from the start. debounce <= 0 selects
// DefaultDebounce. onError is invoked once when the store degrades.
func NewAutosave(formID string, store SnapshotStore, debounce time.Duration, onError func(error)) *Autosave {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}
	a := &Autosave{
		formID:   formID,
		debounce: debounce,
		onError:  onError,
		store:    store,
		snap:     api.NewSnapshot(),
	}
	if store == nil {
		a.degraded = true
	}
	return a
}

// RecordField upserts one field record and schedules a debounced flush.
func (a *Autosave) RecordField(name string, value api.FieldValue, meta FieldMeta) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.upsertLocked(name, value, meta, time.Now())
	a.scheduleLocked()
}

// RecordAll upserts every given field and flushes immediately, so a
// committed save/return action loses nothing to the debounce window.
func (a *Autosave) RecordAll(values map[string]api.FieldValue, metaFor func(name string) FieldMeta) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	now := time.Now()
	for name, v := range values {
		a.upsertLocked(name, v, metaFor(name), now)
	}
	a.mu.Unlock()
	return a.Flush()
}

// Flush cancels any pending debounce and writes the snapshot now.
func (a *Autosave) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

// Restore loads the persisted snapshot and replays every record through
// apply, in field-name order, exactly once per field. Downstream
// listeners observe the restoration as if the user had re-entered the
// data. A missing snapshot is not an error; a failing or corrupt store
// degrades the session silently.
func (a *Autosave) Restore(apply func(name string, rec api.FieldRecord)) error {
	a.mu.Lock()
	store := a.store
	degraded := a.degraded
	a.mu.Unlock()

	if degraded || store == nil {
		return nil
	}

	snap, err := store.Load(a.formID)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil
		}
		a.degrade(err)
		return nil
	}

	a.mu.Lock()
	a.snap = snap.Clone()
	a.mu.Unlock()

	if apply == nil {
		return nil
	}
	names := make([]string, 0, len(snap.Values))
	for name := range snap.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		apply(name, snap.Values[name])
	}
	return nil
}

// ReadAll projects the snapshot to a plain name-to-value map.
func (a *Autosave) ReadAll() map[string]api.FieldValue {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap.ReadAll()
}

// Snapshot returns a copy of the current in-memory snapshot.
func (a *Autosave) Snapshot() *api.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap.Clone()
}

// Record returns the stored record for one field.
func (a *Autosave) Record(name string) (api.FieldRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.snap.Values[name]
	return rec, ok
}

// Reset destroys all field records, in memory and in the store.
func (a *Autosave) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.snap = api.NewSnapshot()
	if a.degraded || a.store == nil {
		return nil
	}
	if err := a.store.Delete(a.formID); err != nil {
		a.degradeLocked(err)
	}
	return nil
}

// Degraded reports whether the store has been abandoned for this
// session.
func (a *Autosave) Degraded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.degraded
}

// Close flushes pending state and stops the debounce timer.
func (a *Autosave) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	err := a.flushLocked()
	a.closed = true
	return err
}

func (a *Autosave) upsertLocked(name string, value api.FieldValue, meta FieldMeta, now time.Time) {
	a.snap.Values[name] = api.FieldRecord{
		Value:     append(api.FieldValue(nil), value...),
		Timestamp: now,
		StepIndex: meta.StepIndex,
		FieldKind: meta.Kind,
		Visible:   meta.Visible,
	}
	a.snap.LastUpdated = now
}

// scheduleLocked arms the debounce timer, superseding any pending flush.
func (a *Autosave) scheduleLocked() {
	if a.degraded {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, func() {
		_ = a.Flush()
	})
}

func (a *Autosave) flushLocked() error {
	a.stopTimerLocked()
	if a.degraded || a.store == nil {
		return nil
	}
	if err := a.store.Save(a.formID, a.snap.Clone()); err != nil {
		a.degradeLocked(err)
		return err
	}
	return nil
}

func (a *Autosave) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosave) degrade(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.degradeLocked(err)
}

func (a *Autosave) degradeLocked(err error) {
	if a.degraded {
		return
	}
	a.degraded = true
	a.onError(err)
}
