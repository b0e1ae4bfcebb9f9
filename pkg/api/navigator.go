package api

import (
	"errors"
	"strconv"
)

var (
	// ErrNoSteps is returned when a navigator is built over a form with
	// no discovered steps.
	ErrNoSteps = errors.New("form has no steps")

	// ErrValidationFailed gates advancement: the current step has
	// unsatisfied required fields. Wrapped details name each field.
	ErrValidationFailed = errors.New("step validation failed")

	// ErrNoChoiceSelected is returned by Advance on a branching step with
	// no checked choice input. Branching steps never fall through.
	ErrNoChoiceSelected = errors.New("branching step requires a choice")

	// ErrDanglingDestination marks a destination key that matches no
	// answer wrapper in any step. This is a configuration error and is
	// surfaced loudly instead of guessing a step.
	ErrDanglingDestination = errors.New("destination key matches no step")

	// ErrUnknownField is returned by Locate/JumpToField for a field name
	// the discovered form does not contain.
	ErrUnknownField = errors.New("unknown field")
)

// FieldError is one unsatisfied required field, kept from the most
// recent validation so a rendering layer can attach inline error
// markers.
type FieldError struct {
	Name    string
	Kind    FieldKind
	Message string
}

func (e *FieldError) Error() string {
	return "field " + strconv.Quote(e.Name) + ": " + e.Message
}

// Location names the step and branch key owning a field. It is the
// contract the summary and edit-mode collaborators consume.
type Location struct {
	StepIndex int
	BranchKey string
}

// ValueSource supplies the current value of a named field. The engine
// reads checked choice inputs through it; it never mutates values.
type ValueSource interface {
	Value(name string) (FieldValue, bool)
}

// ValueSourceFunc adapts a function to the ValueSource interface.
type ValueSourceFunc func(name string) (FieldValue, bool)

func (f ValueSourceFunc) Value(name string) (FieldValue, bool) {
	return f(name)
}

// NavState is the navigation state of one form instance. It is owned and
// mutated exclusively by the Navigator; accessors return copies.
type NavState struct {
	// Current is the active step index.
	Current int

	// History is the append-only sequence of visited indices, with
	// consecutive duplicates suppressed.
	History []int

	// SelectedBranch is the most recently chosen branch key. It persists
	// across steps until overwritten and is never reset on revisit.
	SelectedBranch string
}

// Navigator owns the current-step position and history of one form
// instance and resolves every transition.
type Navigator interface {
	// GoTo moves to step i. Out-of-range indices are a no-op. Moving to
	// the terminal step while already there emits completion.
	GoTo(i int) error

	// Advance validates the current step, resolves the destination
	// (branch choice, explicit target, or linear fallthrough) and moves
	// there. On the terminal step with no target it signals completion.
	Advance() error

	// Retreat moves to the previous step.
	Retreat() error

	// SkipTo jumps to the step containing an answer wrapper matching
	// key, bypassing linear order and validation.
	SkipTo(key string) error

	// JumpToField moves to the step and branch owning the named field.
	JumpToField(name string) error

	// Locate returns the step index and branch key owning a field.
	Locate(name string) (Location, bool)

	// Current returns the active step index.
	Current() int

	// StepCount returns the number of discovered steps.
	StepCount() int

	// State returns a copy of the navigation state.
	State() NavState

	// Visible returns the wrappers currently visible on the given step,
	// in document order.
	Visible(stepIndex int) []AnswerWrapper

	// Completed reports whether the completion notification has fired.
	Completed() bool
}
