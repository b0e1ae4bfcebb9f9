// Package engine implements the navigation state machine of a wizard:
// step classification, branch resolution, wrapper visibility and the
// validation gate. It owns the NavState exclusively; callers observe
// transitions through the api.Observer.
package engine

import (
	"fmt"

	"github.com/stepform/stepform/pkg/api"
)

// Config describes how to construct a Navigator.
type Config struct {
	// Values supplies current field values; the engine reads checked
	// choice inputs through it. Nil means no values are available.
	Values api.ValueSource

	// Observer receives transition notifications. Nil means none.
	Observer api.Observer

	// StrictMatching disables the legacy case-insensitive branch-key
	// fallback.
	StrictMatching bool
}

// Navigator is the engine behind one form instance. Not safe for
// concurrent use: the interaction model is single-flight and
// event-driven.
type Navigator struct {
	form   *api.Form
	values api.ValueSource
	obs    api.Observer
	res    *resolver

	state     api.NavState
	completed bool

	// lastErrors holds the failures of the most recent validation,
	// cleared at the start of the next one.
	lastErrors []*api.FieldError
}

var _ api.Navigator = (*Navigator)(nil)

// New builds a Navigator over a discovered form, replays the form's
// discovery warnings through the observer, and enters step 0 with the
// default wrapper shown.
func New(form *api.Form, cfg Config) (*Navigator, error) {
	if form == nil || len(form.Steps) == 0 {
		return nil, api.ErrNoSteps
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	values := cfg.Values
	if values == nil {
		values = api.ValueSourceFunc(func(string) (api.FieldValue, bool) {
			return nil, false
		})
	}

	n := &Navigator{
		form:   form,
		values: values,
		obs:    obs,
	}
	n.res = newResolver(cfg.StrictMatching, func(w api.Warning) {
		obs.OnCompatWarning(form.ID, w)
	})

	for _, w := range form.Warnings {
		obs.OnCompatWarning(form.ID, w)
	}

	n.state.History = append(n.state.History, 0)
	n.res.show(&form.Steps[0], "")
	obs.OnStepChanged(form.ID, 0, len(form.Steps))

	return n, nil
}

// GoTo moves to step i. Out-of-range indices are a no-op. The branch key
// handed to the resolver is empty for step 0 and the selected branch
// otherwise. Re-entering the terminal step while already on it emits the
// completion notification.
func (n *Navigator) GoTo(i int) error {
	if i < 0 || i >= len(n.form.Steps) {
		return nil
	}

	repeat := i == n.state.Current && n.lastVisited() == i
	n.state.Current = i
	if !repeat {
		n.state.History = append(n.state.History, i)
	}

	key := n.state.SelectedBranch
	if i == 0 {
		key = ""
	}
	n.res.show(&n.form.Steps[i], key)
	n.obs.OnStepChanged(n.form.ID, i, len(n.form.Steps))

	if repeat && i == len(n.form.Steps)-1 {
		n.complete()
	}
	return nil
}

// Advance runs the per-step transition: validate, classify, resolve the
// destination, move.
func (n *Navigator) Advance() error {
	cur := &n.form.Steps[n.state.Current]

	fails, err := validateStep(cur, n.values)
	n.lastErrors = fails
	if err != nil {
		n.obs.OnValidationFailed(n.form.ID, cur.Index, err)
		return err
	}

	var dest string
	if cur.Branching {
		// Branching steps must not silently fall through.
		dest = n.checkedChoice(cur)
		if dest == "" {
			err := fmt.Errorf("%w: step %d", api.ErrNoChoiceSelected, cur.Index)
			n.obs.OnValidationFailed(n.form.ID, cur.Index, err)
			return err
		}
	} else {
		dest = cur.DestKey
	}

	if dest != "" {
		target := n.findStepByKey(dest)
		n.state.SelectedBranch = dest
		if target < 0 {
			err := fmt.Errorf("%w: %q (from step %d)", api.ErrDanglingDestination, dest, cur.Index)
			n.obs.OnConfigError(n.form.ID, err)
			return err
		}
		return n.GoTo(target)
	}

	if n.state.Current == len(n.form.Steps)-1 {
		n.complete()
		return nil
	}
	return n.GoTo(n.state.Current + 1)
}

// Retreat moves to the previous step. At step 0 it is a no-op.
func (n *Navigator) Retreat() error {
	return n.GoTo(n.state.Current - 1)
}

// SkipTo jumps to the step containing an answer wrapper matching key,
// bypassing linear order and the validation gate.
func (n *Navigator) SkipTo(key string) error {
	target := n.findStepByKey(key)
	if target < 0 {
		err := fmt.Errorf("%w: %q (skip target)", api.ErrDanglingDestination, key)
		n.obs.OnConfigError(n.form.ID, err)
		return err
	}
	n.state.SelectedBranch = key
	return n.GoTo(target)
}

// JumpToField moves to the step and wrapper owning the named field,
// selecting the wrapper's branch key first when it has one.
func (n *Navigator) JumpToField(name string) error {
	loc, ok := n.Locate(name)
	if !ok {
		return fmt.Errorf("%w: %q", api.ErrUnknownField, name)
	}
	if loc.BranchKey != "" {
		n.state.SelectedBranch = loc.BranchKey
	}
	return n.GoTo(loc.StepIndex)
}

// Locate returns the step index and owning wrapper's branch key for a
// field name. The first field in document order wins.
func (n *Navigator) Locate(name string) (api.Location, bool) {
	for si := range n.form.Steps {
		step := &n.form.Steps[si]
		for _, f := range step.Fields {
			if f.Name != name {
				continue
			}
			loc := api.Location{StepIndex: si}
			if w := step.Wrapper(f.WrapperPos); w != nil {
				loc.BranchKey = w.Key
			}
			return loc, true
		}
	}
	return api.Location{}, false
}

func (n *Navigator) Current() int { return n.state.Current }

func (n *Navigator) StepCount() int { return len(n.form.Steps) }

func (n *Navigator) Completed() bool { return n.completed }

// State returns a copy of the navigation state.
func (n *Navigator) State() api.NavState {
	s := n.state
	s.History = append([]int(nil), n.state.History...)
	return s
}

// Visible returns the wrappers currently visible on the given step.
func (n *Navigator) Visible(stepIndex int) []api.AnswerWrapper {
	if stepIndex < 0 || stepIndex >= len(n.form.Steps) {
		return nil
	}
	return n.res.visibleWrappers(&n.form.Steps[stepIndex])
}

// FieldVisible reports whether the named field is currently on-screen:
// its step is active and its wrapper chain is shown.
func (n *Navigator) FieldVisible(f api.Field) bool {
	return f.StepIndex == n.state.Current && n.OnVisibleBranch(f)
}

// OnVisibleBranch reports whether the field's wrapper chain is shown on
// its own step, as last resolved, regardless of which step is active.
// Fields outside any wrapper are always on a visible branch; wrapped
// fields on steps never yet resolved are not.
func (n *Navigator) OnVisibleBranch(f api.Field) bool {
	if f.WrapperPos < 0 {
		return true
	}
	return n.res.isVisible(f.StepIndex, f.WrapperPos)
}

// ValidateCurrent runs the validation gate against the active step
// without navigating. It is the submission-time check behind
// Session.Complete.
func (n *Navigator) ValidateCurrent() error {
	cur := &n.form.Steps[n.state.Current]
	fails, err := validateStep(cur, n.values)
	n.lastErrors = fails
	if err != nil {
		n.obs.OnValidationFailed(n.form.ID, cur.Index, err)
	}
	return err
}

// Complete raises the form-completed notification. Submission is the
// authoritative completion signal; the notification still fires at most
// once per session.
func (n *Navigator) Complete() {
	n.complete()
}

// FieldErrors returns the failures of the most recent validation.
func (n *Navigator) FieldErrors() []*api.FieldError {
	return n.lastErrors
}

func (n *Navigator) lastVisited() int {
	if len(n.state.History) == 0 {
		return -1
	}
	return n.state.History[len(n.state.History)-1]
}

// complete raises the form-completed notification exactly once.
func (n *Navigator) complete() {
	if n.completed {
		return
	}
	n.completed = true
	n.obs.OnFormCompleted(n.form.ID)
}

// checkedChoice returns the destination key of the first checked choice
// input in the step, in document order, or "".
func (n *Navigator) checkedChoice(step *api.Step) string {
	for _, f := range step.Fields {
		if !f.IsChoice() {
			continue
		}
		v, ok := n.values.Value(f.Name)
		if !ok {
			continue
		}
		if v.Contains(choiceValue(f)) {
			return f.DestKey
		}
	}
	return ""
}

// findStepByKey locates the step whose wrappers answer to key, using the
// same ordered strategy chain as wrapper resolution: exact match across
// all steps first, then the relaxed legacy match behind a compat
// warning. Returns -1 when nothing matches.
func (n *Navigator) findStepByKey(key string) int {
	if key == "" {
		return -1
	}
	for _, s := range matchStrategies {
		if s.warn && n.res.strict {
			continue
		}
		for si := range n.form.Steps {
			for _, w := range n.form.Steps[si].Wrappers {
				if !s.match(key, w.Key) {
					continue
				}
				if s.warn {
					n.obs.OnCompatWarning(n.form.ID, api.Warning{
						Code: api.WarnRelaxedMatch,
						Message: fmt.Sprintf(
							"destination %q matched step %d wrapper %q only case-insensitively",
							key, si, w.Key),
					})
				}
				return si
			}
		}
	}
	return -1
}
