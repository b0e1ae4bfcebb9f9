package stepform

import (
	"html/template"
	"sync"
	"time"

	"github.com/stepform/stepform/internal/engine"
	"github.com/stepform/stepform/internal/persistence"
	"github.com/stepform/stepform/pkg/api"
	"github.com/stepform/stepform/pkg/summary"
)

// Session bundles everything one form instance needs: the discovered
// Form, the navigation engine, the autosave layer and the summary/edit
// collaborators, all keyed by the form's identifier.
//
// A Session owns its navigation state and autosave store exclusively and
// must not be shared across form instances on the same page; each
// instance keys its persisted data by its own ID.
//
// Typical usage:
//
//	form, _ := stepform.ParseFile("checkout.html")
//	sess, _ := stepform.NewSession(form,
//	    stepform.WithStore(store),
//	    stepform.WithObserver(stepform.NewLoggingObserver(nil)),
//	)
//	_ = sess.Restore()
//	sess.SetValue("email", "alice@example.com")
//	if err := sess.Advance(); err != nil { ... }
type Session struct {
	form *api.Form
	nav  *engine.Navigator
	auto *persistence.Autosave
	obs  api.Observer

	// listener observes every field mutation, including replays during
	// Restore, exactly once per change.
	listener func(name string, value api.FieldValue)

	mu     sync.RWMutex
	values map[string]api.FieldValue

	editOnce sync.Once
	edit     *summary.Controller
}

type sessionOptions struct {
	store    persistence.SnapshotStore
	obs      api.Observer
	debounce time.Duration
	strict   bool
	listener func(name string, value api.FieldValue)
}

// Option configures a Session.
type Option func(*sessionOptions)

// WithStore selects the autosave persistence backend. The default is a
// fresh in-memory store.
func WithStore(store SnapshotStore) Option {
	return func(o *sessionOptions) { o.store = store }
}

// WithObserver attaches an observer for navigation and store events.
func WithObserver(obs Observer) Option {
	return func(o *sessionOptions) { o.obs = obs }
}

// WithDebounce overrides the autosave coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(o *sessionOptions) { o.debounce = d }
}

// WithStrictMatching disables the legacy case-insensitive branch-key
// fallback, so only exact matches resolve.
func WithStrictMatching() Option {
	return func(o *sessionOptions) { o.strict = true }
}

// WithFieldListener registers a callback observing every field mutation,
// including the replay performed by Restore.
func WithFieldListener(fn func(name string, value FieldValue)) Option {
	return func(o *sessionOptions) { o.listener = fn }
}

// NewSession builds a Session over a discovered form. Construction
// enters step 0 with the default wrapper visible and replays discovery
// warnings through the observer.
func NewSession(form *Form, opts ...Option) (*Session, error) {
	o := sessionOptions{
		store:    persistence.NewInMemoryStore(),
		obs:      api.NoopObserver{},
		debounce: persistence.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		form:     form,
		obs:      o.obs,
		listener: o.listener,
		values:   make(map[string]api.FieldValue),
	}

	s.auto = persistence.NewAutosave(form.ID, o.store, o.debounce, func(err error) {
		o.obs.OnPersistenceError(form.ID, err)
	})

	nav, err := engine.New(form, engine.Config{
		Values: api.ValueSourceFunc(func(name string) (api.FieldValue, bool) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			v, ok := s.values[name]
			return v, ok
		}),
		Observer:       o.obs,
		StrictMatching: o.strict,
	})
	if err != nil {
		_ = s.auto.Close()
		return nil, err
	}
	s.nav = nav
	return s, nil
}

// Form returns the session's immutable form graph.
func (s *Session) Form() *Form { return s.form }

// Navigator exposes the navigation engine.
func (s *Session) Navigator() Navigator { return s.nav }

// SetField records a field mutation: the value lands in the session,
// the autosave layer upserts its record and schedules a debounced
// flush, and the field listener fires.
func (s *Session) SetField(name string, value FieldValue) {
	v := append(api.FieldValue(nil), value...)
	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()

	s.auto.RecordField(name, v, s.metaFor(name))
	if s.listener != nil {
		s.listener(name, v)
	}
}

// SetValue is SetField for a single scalar.
func (s *Session) SetValue(name, value string) {
	s.SetField(name, api.StringValue(value))
}

// Value returns the current value of a named field.
func (s *Session) Value(name string) (FieldValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return append(api.FieldValue(nil), v...), ok
}

// SaveAll recomputes every field's record and flushes immediately,
// bypassing the debounce window. Used before committed save/return
// actions so nothing is lost.
func (s *Session) SaveAll() error {
	s.mu.RLock()
	vals := make(map[string]api.FieldValue, len(s.values))
	for name, v := range s.values {
		vals[name] = append(api.FieldValue(nil), v...)
	}
	s.mu.RUnlock()

	return s.auto.RecordAll(vals, s.metaFor)
}

// Restore re-applies all previously persisted field records onto the
// session and replays each through the field listener exactly once, so
// downstream listeners observe the restoration as if the user had
// re-entered the data. A missing or failing store is not an error.
func (s *Session) Restore() error {
	return s.auto.Restore(func(name string, rec api.FieldRecord) {
		v := append(api.FieldValue(nil), rec.Value...)
		s.mu.Lock()
		s.values[name] = v
		s.mu.Unlock()
		if s.listener != nil {
			s.listener(name, v)
		}
	})
}

// ReadAll projects the autosave snapshot to a plain name-to-value map.
func (s *Session) ReadAll() map[string]FieldValue {
	return s.auto.ReadAll()
}

// Reset destroys all field records, in memory and in the store.
func (s *Session) Reset() error {
	s.mu.Lock()
	s.values = make(map[string]api.FieldValue)
	s.mu.Unlock()
	return s.auto.Reset()
}

// Advance runs the navigation engine's next-step transition and, on
// success, commits all field records with an immediate flush.
func (s *Session) Advance() error {
	if err := s.nav.Advance(); err != nil {
		return err
	}
	return s.SaveAll()
}

// Retreat moves to the previous step.
func (s *Session) Retreat() error { return s.nav.Retreat() }

// GoTo moves to the given step index.
func (s *Session) GoTo(i int) error { return s.nav.GoTo(i) }

// SkipTo jumps to the step containing a matching answer key.
func (s *Session) SkipTo(key string) error { return s.nav.SkipTo(key) }

// JumpToField moves to the step and branch owning the named field.
func (s *Session) JumpToField(name string) error { return s.nav.JumpToField(name) }

// Complete is the authoritative submission entry point: it validates
// the active step, flushes every field record, and raises the
// form-completed notification.
func (s *Session) Complete() error {
	if err := s.nav.ValidateCurrent(); err != nil {
		return err
	}
	if err := s.SaveAll(); err != nil {
		return err
	}
	s.nav.Complete()
	return nil
}

// FieldErrors returns the failures of the most recent validation, for
// inline error markers.
func (s *Session) FieldErrors() []*api.FieldError {
	return s.nav.FieldErrors()
}

// Summary groups the snapshot's visible values by step.
func (s *Session) Summary() []summary.Group {
	return summary.Build(s.form, s.auto.Snapshot())
}

// RenderSummary renders the grouped answers as an editable HTML list.
func (s *Session) RenderSummary() (template.HTML, error) {
	return summary.RenderHTML(s.Summary())
}

// EditController returns the session's edit-mode controller, created on
// first use.
func (s *Session) EditController() *summary.Controller {
	s.editOnce.Do(func() {
		s.edit = summary.NewController(
			s.form,
			s.nav,
			api.ValueSourceFunc(func(name string) (api.FieldValue, bool) {
				return s.Value(name)
			}),
			s.SaveAll,
			s.obs,
		)
	})
	return s.edit
}

// Close flushes pending autosave state and releases the debounce timer.
func (s *Session) Close() error {
	return s.auto.Close()
}

// metaFor derives the record metadata for a field name: its owning step
// (preferring an entry on the active step when the name spans several),
// its kind, and whether its wrapper chain is shown on that step.
func (s *Session) metaFor(name string) persistence.FieldMeta {
	fields := s.form.FieldsNamed(name)
	if len(fields) == 0 {
		return persistence.FieldMeta{
			StepIndex: s.nav.Current(),
			Kind:      api.FieldText,
			Visible:   true,
		}
	}

	f := fields[0]
	for _, cand := range fields {
		if cand.StepIndex == s.nav.Current() {
			f = cand
			break
		}
	}
	return persistence.FieldMeta{
		StepIndex: f.StepIndex,
		Kind:      f.Kind,
		Visible:   s.nav.OnVisibleBranch(f),
	}
}
