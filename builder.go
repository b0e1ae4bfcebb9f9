package stepform

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stepform/stepform/pkg/api"
)

// FormBuilder provides a fluent API for defining forms without an HTML
// document, for tests and headless callers:
//
//	form := stepform.NewForm("checkout").
//	    Step("Contact").
//	    Text("email", true).
//	    Step("Account type").Branching().
//	    Choice("kind", "biz", "biz").
//	    Choice("kind", "personal", "personal").
//	    Step("Details").
//	    Wrapper("biz").Text("company", true).
//	    Wrapper("personal").Text("nickname", false).
//	    Build()
//
// Steps are appended in order; wrapper and field calls attach to the
// most recently added step.
type FormBuilder struct {
	form api.Form
}

// NewForm creates a new form builder. An empty id gets a generated one.
func NewForm(id string) *FormBuilder {
	if id == "" {
		id = uuid.NewString()
	}
	return &FormBuilder{
		form: api.Form{ID: id, SummaryStep: -1},
	}
}

// Step appends a step with the given display name (may be empty).
func (b *FormBuilder) Step(name string) *FormBuilder {
	b.form.Steps = append(b.form.Steps, api.Step{
		Index: len(b.form.Steps),
		Name:  name,
	})
	return b
}

func (b *FormBuilder) current() *api.Step {
	if len(b.form.Steps) == 0 {
		panic("stepform: add a Step before configuring it")
	}
	return &b.form.Steps[len(b.form.Steps)-1]
}

// Branching flags the current step as a decision point.
func (b *FormBuilder) Branching() *FormBuilder {
	b.current().Branching = true
	return b
}

// InputFree marks the current step as informational: it bypasses the
// validation gate entirely.
func (b *FormBuilder) InputFree() *FormBuilder {
	b.current().InputFree = true
	return b
}

// GoTo sets an explicit destination key for the current sequential step.
func (b *FormBuilder) GoTo(key string) *FormBuilder {
	if key == "" {
		panic("stepform: GoTo key must not be empty")
	}
	b.current().DestKey = key
	return b
}

// Wrapper adds a container-level answer wrapper to the current step.
// Subsequent field calls attach to it.
func (b *FormBuilder) Wrapper(key string) *FormBuilder {
	step := b.current()
	step.Wrappers = append(step.Wrappers, api.AnswerWrapper{
		Key:    key,
		Kind:   api.WrapperContainer,
		Pos:    len(step.Wrappers),
		Parent: -1,
	})
	return b
}

// Nested adds a nested item under the most recently added container
// wrapper.
func (b *FormBuilder) Nested(key string) *FormBuilder {
	step := b.current()
	parent := -1
	for i := len(step.Wrappers) - 1; i >= 0; i-- {
		if step.Wrappers[i].Kind == api.WrapperContainer {
			parent = step.Wrappers[i].Pos
			break
		}
	}
	if parent < 0 {
		panic("stepform: Nested requires a preceding Wrapper")
	}
	step.Wrappers = append(step.Wrappers, api.AnswerWrapper{
		Key:    key,
		Kind:   api.WrapperNested,
		Pos:    len(step.Wrappers),
		Parent: parent,
	})
	return b
}

// Field appends an arbitrary control to the current step, attached to
// the most recently added wrapper (if any).
func (b *FormBuilder) Field(name string, kind api.FieldKind, required bool) *FormBuilder {
	return b.addField(api.Field{Name: name, Kind: kind, Required: required})
}

// Text appends a text input.
func (b *FormBuilder) Text(name string, required bool) *FormBuilder {
	return b.Field(name, api.FieldText, required)
}

// Textarea appends a textarea.
func (b *FormBuilder) Textarea(name string, required bool) *FormBuilder {
	return b.Field(name, api.FieldTextarea, required)
}

// Select appends a select control.
func (b *FormBuilder) Select(name string, required bool) *FormBuilder {
	return b.Field(name, api.FieldSelect, required)
}

// Checkbox appends a checkbox with the given static value.
func (b *FormBuilder) Checkbox(name, value string, required bool) *FormBuilder {
	return b.addField(api.Field{
		Name: name, Kind: api.FieldCheckbox, Required: required, Value: value,
	})
}

// Radio appends one radio group member with the given static value.
func (b *FormBuilder) Radio(name, value string, required bool) *FormBuilder {
	return b.addField(api.Field{
		Name: name, Kind: api.FieldRadio, Required: required, Value: value,
	})
}

// Choice appends a radio choice input carrying a destination key: the
// branch taken when it is the checked choice on Advance.
func (b *FormBuilder) Choice(name, value, destKey string) *FormBuilder {
	if destKey == "" {
		panic(fmt.Sprintf("stepform: choice %q has no destination key", name))
	}
	return b.addField(api.Field{
		Name: name, Kind: api.FieldRadio, Value: value, DestKey: destKey,
	})
}

// Label overrides the summary label of the most recently added field.
func (b *FormBuilder) Label(label string) *FormBuilder {
	step := b.current()
	if len(step.Fields) == 0 {
		panic("stepform: Label requires a preceding field")
	}
	step.Fields[len(step.Fields)-1].Label = label
	return b
}

// SummaryStep marks the current step as the review step edit-mode
// returns to. The default is the last step.
func (b *FormBuilder) SummaryStep() *FormBuilder {
	b.form.SummaryStep = b.current().Index
	return b
}

func (b *FormBuilder) addField(f api.Field) *FormBuilder {
	if f.Name == "" {
		panic("stepform: field name must not be empty")
	}
	step := b.current()
	f.StepIndex = step.Index
	f.WrapperPos = -1
	if len(step.Wrappers) > 0 {
		f.WrapperPos = step.Wrappers[len(step.Wrappers)-1].Pos
	}
	step.Fields = append(step.Fields, f)
	return b
}

// Build finalizes the form. The review step defaults to the last step.
func (b *FormBuilder) Build() *Form {
	form := b.form
	if form.SummaryStep < 0 {
		form.SummaryStep = len(form.Steps) - 1
	}
	// Copy so further builder calls cannot mutate the built form.
	form.Steps = append([]api.Step(nil), form.Steps...)
	return &form
}
