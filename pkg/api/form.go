package api

// WrapperKind classifies how an answer wrapper sits in the step structure.
type WrapperKind string

const (
	// WrapperContainer is a container-level wrapper: an answer-tagged element
	// with no answer-tagged ancestor inside its step.
	WrapperContainer WrapperKind = "container"

	// WrapperNested is a nested item: an answer-tagged element directly
	// enclosed by a container-level wrapper. Showing a nested item also
	// shows its enclosing container and hides sibling nested items.
	WrapperNested WrapperKind = "nested"

	// WrapperOther marks answer-tagged elements nested deeper than one
	// wrapper level. They are resolved like nested items against their
	// nearest container, but discovery flags them as a structural warning.
	WrapperOther WrapperKind = "other"
)

// FieldKind identifies how a form control's value is read and validated.
// It is derived once at discovery, never re-inspected afterwards.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldCheckbox FieldKind = "checkbox-group"
	FieldRadio    FieldKind = "radio"
	FieldSelect   FieldKind = "select"
	FieldTextarea FieldKind = "textarea"
)

// AnswerWrapper is a conditionally visible sub-region of a step.
type AnswerWrapper struct {
	// Key is the branch identifier this wrapper answers to. The empty
	// string denotes the default wrapper shown when no branch is active.
	Key string

	Kind WrapperKind

	// Pos is the wrapper's document-order position within its step.
	// It identifies the wrapper for visibility tracking.
	Pos int

	// Parent is the Pos of the enclosing container wrapper for nested
	// items, or -1 for container-level wrappers.
	Parent int
}

// Field describes one form control found inside a step.
// Radio groups produce one Field per input element sharing a Name.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool

	// StepIndex is the owning step.
	StepIndex int

	// WrapperPos is the Pos of the nearest enclosing answer wrapper,
	// or -1 when the field sits outside any wrapper.
	WrapperPos int

	// Label is the authored label override, if any.
	Label string

	// Value is the static value attribute of radio/checkbox inputs.
	Value string

	// DestKey is the destination branch key carried by a choice input.
	DestKey string
}

// IsChoice reports whether the field is a choice input: a radio or
// checkbox carrying a destination key. Checked choices drive branching.
func (f Field) IsChoice() bool {
	return f.DestKey != "" && (f.Kind == FieldRadio || f.Kind == FieldCheckbox)
}

// Step is one screen of the wizard.
type Step struct {
	// Index is the step's position in document order. It is the step's
	// stable identity for the session.
	Index int

	// Name is the authored display name for summaries, if any.
	Name string

	// Branching is true when the step or any descendant is flagged as a
	// decision point. Branching steps require a checked choice to advance.
	Branching bool

	// InputFree marks informational steps that bypass validation.
	InputFree bool

	// DestKey is an explicit next-step target authored on the step's
	// wrapper or a non-choice descendant. Empty means linear fallthrough.
	DestKey string

	Wrappers []AnswerWrapper
	Fields   []Field

	// SkipTargets are the answer keys carried by skip controls inside
	// the step, in document order. A UI layer maps the clicked control
	// back to Navigator.SkipTo with its key.
	SkipTargets []string
}

// Wrapper returns the wrapper at the given Pos, or nil.
func (s *Step) Wrapper(pos int) *AnswerWrapper {
	for i := range s.Wrappers {
		if s.Wrappers[i].Pos == pos {
			return &s.Wrappers[i]
		}
	}
	return nil
}

// Form is the static step/wrapper graph discovered from a document.
// It is built once at initialization and immutable for the session.
type Form struct {
	// ID keys the form's persisted state. It comes from the wizard root
	// marker's value, or is generated when the marker carries none.
	ID string

	Steps []Step

	// SummaryStep is the index of the step hosting the summary container,
	// or the last step when no container is marked. Edit-mode returns
	// here after a committed edit.
	SummaryStep int

	// Warnings collects non-fatal discovery findings: legacy attribute
	// names, duplicate answer keys, dangling destinations.
	Warnings []Warning
}

// FieldsNamed returns every field entry sharing the given name, across
// all steps. Radio groups span multiple entries.
func (f *Form) FieldsNamed(name string) []Field {
	var out []Field
	for si := range f.Steps {
		for _, fl := range f.Steps[si].Fields {
			if fl.Name == name {
				out = append(out, fl)
			}
		}
	}
	return out
}

// WarningCode identifies a class of discovery warning.
type WarningCode string

const (
	WarnLegacyAttribute  WarningCode = "legacy-attribute"
	WarnDuplicateAnswer  WarningCode = "duplicate-answer-key"
	WarnDanglingDest     WarningCode = "dangling-destination"
	WarnAmbiguousNesting WarningCode = "ambiguous-nesting"
	WarnRelaxedMatch     WarningCode = "relaxed-branch-match"
)

// Warning is a non-blocking advisory produced during discovery or
// best-effort branch resolution.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return string(w.Code) + ": " + w.Message
}
