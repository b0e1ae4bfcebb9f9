// Package document builds the static step/wrapper graph of a wizard from
// an HTML document. Discovery runs once at initialization; the resulting
// Form is immutable for the session.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/stepform/stepform/pkg/api"
)

// ErrNoWizardRoot is returned when the document contains no element
// carrying the wizard marker. An invalid root is a programmer error and
// is rejected at construction, not degraded.
var ErrNoWizardRoot = errors.New("document has no wizard root")

// Parse reads an HTML document and discovers the wizard rooted at the
// first element carrying the wizard marker.
func Parse(r io.Reader) (*api.Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return FromDocument(doc)
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*api.Form, error) {
	return Parse(strings.NewReader(s))
}

// FromDocument discovers the wizard inside an already parsed document.
func FromDocument(doc *html.Node) (*api.Form, error) {
	d := &discovery{}
	root := d.findRoot(doc)
	if root == nil {
		return nil, ErrNoWizardRoot
	}
	return d.discover(root)
}

type discovery struct {
	warnings []api.Warning
}

func (d *discovery) warnf(code api.WarningCode, format string, args ...any) {
	d.warnings = append(d.warnings, api.Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *discovery) findRoot(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		if ok, legacy := hasAttr(n, AttrWizard); ok {
			if legacy {
				d.warnf(api.WarnLegacyAttribute,
					"wizard root uses deprecated %s marker", legacyAliases[AttrWizard][0])
			}
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if root := d.findRoot(c); root != nil {
			return root
		}
	}
	return nil
}

// discover scans the wizard subtree for step containers in document
// order and builds the ordered Step list. It is idempotent: a fresh
// discovery replaces any prior result. A subtree with zero steps yields
// an empty list, which callers must treat as nothing to navigate.
func (d *discovery) discover(root *html.Node) (*api.Form, error) {
	form := &api.Form{
		ID:          attrVal(root, AttrWizard),
		SummaryStep: -1,
	}
	if form.ID == "" {
		form.ID = uuid.NewString()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n != root {
			if ok, legacy := hasAttr(n, AttrStep); ok {
				idx := len(form.Steps)
				if legacy {
					d.warnf(api.WarnLegacyAttribute,
						"step %d uses deprecated %s marker", idx, legacyAliases[AttrStep][0])
				}
				form.Steps = append(form.Steps, d.scanStep(n, idx))
				if d.containsSummary(n) && form.SummaryStep < 0 {
					form.SummaryStep = idx
				}
				// Steps do not nest; the subtree belongs to this step.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if form.SummaryStep < 0 {
		form.SummaryStep = len(form.Steps) - 1
	}

	d.validate(form)
	form.Warnings = d.warnings
	return form, nil
}

func (d *discovery) containsSummary(n *html.Node) bool {
	if n.Type == html.ElementNode {
		if ok, _ := hasAttr(n, AttrSummary); ok {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if d.containsSummary(c) {
			return true
		}
	}
	return false
}

// scanStep collects the answer wrappers and form controls of one step,
// at any depth, tagging each wrapper with its structural kind.
func (d *discovery) scanStep(stepEl *html.Node, index int) api.Step {
	step := api.Step{
		Index: index,
		Name:  attrVal(stepEl, AttrStepName),
	}
	if ok, _ := hasAttr(stepEl, AttrNoInput); ok {
		step.InputFree = true
	}
	if ok, legacy := hasAttr(stepEl, AttrBranch); ok {
		step.Branching = true
		if legacy {
			d.warnf(api.WarnLegacyAttribute,
				"step %d uses deprecated %s flag", index, legacyAliases[AttrBranch][0])
		}
	}

	// wrapperDest is a destination key authored on the step's first
	// wrapper; anyDest is the first one found on any other non-choice
	// descendant. The wrapper-level key wins.
	var wrapperDest, anyDest string

	// stack holds the Pos of enclosing wrappers during the walk.
	var stack []int

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		pushed := false
		if n.Type == html.ElementNode && n != stepEl {
			if key, ok, legacy := attr(n, AttrAnswer); ok {
				if legacy {
					d.warnf(api.WarnLegacyAttribute,
						"step %d wrapper %q uses deprecated %s attribute",
						index, key, legacyAliases[AttrAnswer][0])
				}
				w := api.AnswerWrapper{
					Key:    key,
					Pos:    len(step.Wrappers),
					Parent: -1,
				}
				switch len(stack) {
				case 0:
					w.Kind = api.WrapperContainer
				case 1:
					w.Kind = api.WrapperNested
					w.Parent = stack[0]
				default:
					w.Kind = api.WrapperOther
					w.Parent = stack[len(stack)-1]
					d.warnf(api.WarnAmbiguousNesting,
						"step %d wrapper %q is nested %d levels deep", index, key, len(stack)+1)
				}
				if w.Pos == 0 {
					wrapperDest = attrVal(n, AttrGoTo)
				}
				step.Wrappers = append(step.Wrappers, w)
				stack = append(stack, w.Pos)
				pushed = true
			}
			if ok, _ := hasAttr(n, AttrBranch); ok {
				step.Branching = true
			}
			if key := attrVal(n, AttrSkipTo); key != "" {
				step.SkipTargets = append(step.SkipTargets, key)
			}
			switch n.Data {
			case "input", "select", "textarea":
				if f, ok := d.scanField(n, index, stack); ok {
					step.Fields = append(step.Fields, f)
				}
			default:
				if dest, ok, legacy := attr(n, AttrGoTo); ok && dest != "" && anyDest == "" {
					anyDest = dest
					if legacy {
						d.warnf(api.WarnLegacyAttribute,
							"step %d destination uses deprecated %s attribute",
							index, legacyAliases[AttrGoTo][0])
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if pushed {
			stack = stack[:len(stack)-1]
		}
	}
	walk(stepEl)

	step.DestKey = wrapperDest
	if step.DestKey == "" {
		step.DestKey = anyDest
	}
	return step
}

func (d *discovery) scanField(n *html.Node, stepIndex int, stack []int) (api.Field, bool) {
	name := attrVal(n, "name")
	if name == "" {
		return api.Field{}, false
	}

	f := api.Field{
		Name:       name,
		StepIndex:  stepIndex,
		WrapperPos: -1,
		Label:      attrVal(n, AttrFieldLabel),
		Value:      attrVal(n, "value"),
	}
	if len(stack) > 0 {
		f.WrapperPos = stack[len(stack)-1]
	}
	if ok, _ := hasAttr(n, "required"); ok {
		f.Required = true
	}

	switch n.Data {
	case "select":
		f.Kind = api.FieldSelect
	case "textarea":
		f.Kind = api.FieldTextarea
	default:
		switch attrVal(n, "type") {
		case "radio":
			f.Kind = api.FieldRadio
		case "checkbox":
			f.Kind = api.FieldCheckbox
		default:
			f.Kind = api.FieldText
		}
	}

	if dest, ok, legacy := attr(n, AttrGoTo); ok && dest != "" {
		f.DestKey = dest
		if legacy {
			d.warnf(api.WarnLegacyAttribute,
				"field %q uses deprecated %s attribute", name, legacyAliases[AttrGoTo][0])
		}
	}
	return f, true
}

// validate flags authoring problems discovery can see statically:
// duplicate answer keys inside one step, and destination keys that match
// no wrapper anywhere. Both are advisories here; the engine still fails
// loudly if a dangling destination is actually taken.
func (d *discovery) validate(form *api.Form) {
	for si := range form.Steps {
		seen := make(map[string]int)
		for _, w := range form.Steps[si].Wrappers {
			if prev, dup := seen[w.Key]; dup {
				d.warnf(api.WarnDuplicateAnswer,
					"step %d has duplicate answer key %q (wrappers %d and %d); first in document order wins",
					si, w.Key, prev, w.Pos)
				continue
			}
			seen[w.Key] = w.Pos
		}
	}

	keys := make(map[string]bool)
	for si := range form.Steps {
		for _, w := range form.Steps[si].Wrappers {
			keys[w.Key] = true
		}
	}
	check := func(dest, from string) {
		if dest == "" || keys[dest] {
			return
		}
		d.warnf(api.WarnDanglingDest,
			"%s targets answer key %q which no step provides", from, dest)
	}
	for si := range form.Steps {
		check(form.Steps[si].DestKey, fmt.Sprintf("step %d", si))
		for _, f := range form.Steps[si].Fields {
			if f.IsChoice() {
				check(f.DestKey, fmt.Sprintf("choice input %q", f.Name))
			}
		}
		for _, key := range form.Steps[si].SkipTargets {
			check(key, fmt.Sprintf("skip control on step %d", si))
		}
	}
}
