package engine

import (
	"fmt"
	"strings"

	"github.com/stepform/stepform/pkg/api"
)

// matchStrategy is one entry in the ordered wrapper-resolution chain:
// strict match first, then the relaxed legacy match. Relaxed matches are
// flagged as compat warnings since they can mask authoring errors.
type matchStrategy struct {
	name  string
	warn  bool
	match func(key, candidate string) bool
}

var matchStrategies = []matchStrategy{
	{name: "exact", match: func(k, c string) bool { return k == c }},
	{name: "case-insensitive", warn: true, match: strings.EqualFold},
}

// resolver decides which wrappers of a step are visible for a branch key
// and tracks visibility per step. It never fails: absence of a match
// degrades to showing the first wrapper in document order.
type resolver struct {
	// visible maps step index to the set of visible wrapper positions.
	visible map[int]map[int]bool

	// strict disables the relaxed case-insensitive fallback.
	strict bool

	warn func(api.Warning)
}

func newResolver(strict bool, warn func(api.Warning)) *resolver {
	if warn == nil {
		warn = func(api.Warning) {}
	}
	return &resolver{
		visible: make(map[int]map[int]bool),
		strict:  strict,
		warn:    warn,
	}
}

// show makes exactly one wrapper chain visible on the step: the matched
// wrapper, plus its enclosing containers when the match is a nested
// item. Sibling wrappers are hidden. A step with zero wrappers is left
// entirely as authored.
func (r *resolver) show(step *api.Step, branchKey string) {
	if len(step.Wrappers) == 0 {
		delete(r.visible, step.Index)
		return
	}

	target := r.match(step, branchKey)
	vis := map[int]bool{target.Pos: true}
	for parent := target.Parent; parent >= 0; {
		vis[parent] = true
		pw := step.Wrapper(parent)
		if pw == nil {
			break
		}
		parent = pw.Parent
	}
	r.visible[step.Index] = vis
}

// match walks the resolution chain in order; the first wrapper in
// document order wins within each pass. Exhausting the chain falls back
// to the first wrapper, treated as the default display.
func (r *resolver) match(step *api.Step, branchKey string) *api.AnswerWrapper {
	for _, s := range matchStrategies {
		if s.warn && r.strict {
			continue
		}
		for i := range step.Wrappers {
			w := &step.Wrappers[i]
			if !s.match(branchKey, w.Key) {
				continue
			}
			if s.warn {
				r.warn(api.Warning{
					Code: api.WarnRelaxedMatch,
					Message: fmt.Sprintf(
						"step %d: branch key %q matched wrapper %q only case-insensitively",
						step.Index, branchKey, w.Key),
				})
			}
			return w
		}
	}
	return &step.Wrappers[0]
}

// visibleWrappers returns the step's visible wrappers in document order.
func (r *resolver) visibleWrappers(step *api.Step) []api.AnswerWrapper {
	vis := r.visible[step.Index]
	if len(vis) == 0 {
		return nil
	}
	out := make([]api.AnswerWrapper, 0, len(vis))
	for _, w := range step.Wrappers {
		if vis[w.Pos] {
			out = append(out, w)
		}
	}
	return out
}

func (r *resolver) isVisible(stepIndex, pos int) bool {
	return r.visible[stepIndex][pos]
}
