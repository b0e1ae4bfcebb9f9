package engine

import (
	"go.uber.org/multierr"

	"github.com/stepform/stepform/pkg/api"
)

// validateStep checks required-field completeness for one step. It
// returns the per-field failures and an aggregate error wrapping
// api.ErrValidationFailed, or (nil, nil) when the step passes. Steps
// marked input-free always pass.
func validateStep(step *api.Step, values api.ValueSource) ([]*api.FieldError, error) {
	if step.InputFree {
		return nil, nil
	}

	var fails []*api.FieldError
	seenRadio := make(map[string]bool)
	for _, f := range step.Fields {
		if !f.Required {
			continue
		}
		// A radio group validates once per name: checking any member
		// satisfies the whole group.
		if f.Kind == api.FieldRadio {
			if seenRadio[f.Name] {
				continue
			}
			seenRadio[f.Name] = true
		}
		if ferr := validateField(f, values); ferr != nil {
			fails = append(fails, ferr)
		}
	}
	if len(fails) == 0 {
		return nil, nil
	}

	err := api.ErrValidationFailed
	for _, f := range fails {
		err = multierr.Append(err, f)
	}
	return fails, err
}

// validateField applies the per-kind required rule: radio groups need a
// checked member, a required checkbox must itself be checked, everything
// else needs a non-blank trimmed value.
func validateField(f api.Field, values api.ValueSource) *api.FieldError {
	v, ok := values.Value(f.Name)

	switch f.Kind {
	case api.FieldRadio:
		if !ok || v.IsZero() {
			return &api.FieldError{Name: f.Name, Kind: f.Kind, Message: "select an option"}
		}
	case api.FieldCheckbox:
		if !ok || !v.Contains(choiceValue(f)) {
			return &api.FieldError{Name: f.Name, Kind: f.Kind, Message: "this box must be checked"}
		}
	default:
		if !ok || v.IsZero() {
			return &api.FieldError{Name: f.Name, Kind: f.Kind, Message: "this field is required"}
		}
	}
	return nil
}

// ValidateField checks a single field against the current values. It is
// the post-edit revalidation contract consumed by the edit-mode
// controller. Returns nil when the field passes.
func ValidateField(f api.Field, values api.ValueSource) error {
	if fe := validateField(f, values); fe != nil {
		return multierr.Append(api.ErrValidationFailed, fe)
	}
	return nil
}

// choiceValue is the value a checked radio/checkbox contributes. Inputs
// without a static value attribute submit "on".
func choiceValue(f api.Field) string {
	if f.Value != "" {
		return f.Value
	}
	return "on"
}
