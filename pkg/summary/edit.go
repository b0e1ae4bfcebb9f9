package summary

import (
	"fmt"

	"github.com/stepform/stepform/internal/engine"
	"github.com/stepform/stepform/pkg/api"
)

// Controller drives the edit-mode flow behind a summary click: jump to
// the owning step and wrapper, then save-or-retry on commit.
type Controller struct {
	form   *api.Form
	nav    api.Navigator
	values api.ValueSource

	// saveAll records every field and flushes immediately; wired to the
	// session's committed-save path.
	saveAll func() error

	obs api.Observer
}

// NewController wires an edit-mode controller over a navigator. saveAll
// is invoked after a successful commit; obs may be nil.
func NewController(form *api.Form, nav api.Navigator, values api.ValueSource, saveAll func() error, obs api.Observer) *Controller {
	if obs == nil {
		obs = api.NoopObserver{}
	}
	if saveAll == nil {
		saveAll = func() error { return nil }
	}
	return &Controller{
		form:    form,
		nav:     nav,
		values:  values,
		saveAll: saveAll,
		obs:     obs,
	}
}

// RequestEdit raises the field-edit-requested event and jumps to the
// step and branch owning the field. The caller should focus the field
// after the step's visibility change has settled.
func (c *Controller) RequestEdit(fieldName string) error {
	if _, ok := c.nav.Locate(fieldName); !ok {
		return fmt.Errorf("%w: %q", api.ErrUnknownField, fieldName)
	}
	c.obs.OnFieldEditRequested(c.form.ID, fieldName)
	return c.nav.JumpToField(fieldName)
}

// CommitEdit revalidates the edited field; on success it persists all
// fields and returns to the review step. On failure it returns the
// validation error so the caller can signal retry, without navigating.
func (c *Controller) CommitEdit(fieldName string) error {
	fields := c.form.FieldsNamed(fieldName)
	if len(fields) == 0 {
		return fmt.Errorf("%w: %q", api.ErrUnknownField, fieldName)
	}
	if err := engine.ValidateField(fields[0], c.values); err != nil {
		return err
	}
	if err := c.saveAll(); err != nil {
		return err
	}
	return c.nav.GoTo(c.form.SummaryStep)
}

// CancelEdit discards the edit attempt and returns to the review step.
func (c *Controller) CancelEdit() error {
	return c.nav.GoTo(c.form.SummaryStep)
}
