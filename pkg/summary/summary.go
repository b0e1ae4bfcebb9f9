// Package summary projects the autosave snapshot into an editable
// review of answers, grouped by step. It consumes the engine's Locate
// contract and the persisted snapshot; it never mutates either.
package summary

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/stepform/stepform/pkg/api"
)

// Item is one answered field in the review list.
type Item struct {
	Field string
	Label string
	Value api.FieldValue

	// BranchKey is the owning wrapper's answer key, used to restore the
	// right branch when the item is clicked for editing.
	BranchKey string
}

// Group collects the answered fields of one step.
type Group struct {
	StepIndex int
	Title     string
	Items     []Item
}

// Build groups the snapshot's visible values by step, in document order.
// Fields the user never reached, and values saved while their wrapper
// was hidden, are excluded. Radio groups collapse to one item.
func Build(form *api.Form, snap *api.Snapshot) []Group {
	if form == nil || snap == nil {
		return nil
	}

	var groups []Group
	for si := range form.Steps {
		step := &form.Steps[si]
		g := Group{StepIndex: si, Title: stepTitle(step)}

		seen := make(map[string]bool)
		for _, f := range step.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true

			rec, ok := snap.Values[f.Name]
			if !ok || !rec.Visible || rec.Value.IsZero() {
				continue
			}

			item := Item{
				Field: f.Name,
				Label: fieldLabel(f),
				Value: append(api.FieldValue(nil), rec.Value...),
			}
			if w := step.Wrapper(f.WrapperPos); w != nil {
				item.BranchKey = w.Key
			}
			g.Items = append(g.Items, item)
		}

		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func stepTitle(step *api.Step) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("Step %d", step.Index+1)
}

func fieldLabel(f api.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

var listTemplate = template.Must(template.New("summary").Parse(strings.TrimSpace(`
<div data-summary-list>
{{- range . }}
  <section data-summary-step="{{ .StepIndex }}">
    <h3>{{ .Title }}</h3>
    <dl>
    {{- range .Items }}
      <div data-edit-field="{{ .Field }}">
        <dt>{{ .Label }}</dt>
        <dd>{{ .Value.String }}</dd>
      </div>
    {{- end }}
    </dl>
  </section>
{{- end }}
</div>
`)))

// RenderHTML renders the grouped answers as a read-only list. Each entry
// carries a data-edit-field attribute for the click-to-edit affordance.
func RenderHTML(groups []Group) (template.HTML, error) {
	var sb strings.Builder
	if err := listTemplate.Execute(&sb, groups); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return template.HTML(sb.String()), nil
}
