package document

import "golang.org/x/net/html"

// Canonical attribute vocabulary. These attributes are the configuration
// surface of the wizard; there is no other wire format.
const (
	AttrWizard     = "data-wizard"
	AttrStep       = "data-form-step"
	AttrAnswer     = "data-answer"
	AttrGoTo       = "data-go-to"
	AttrBranch     = "data-branch"
	AttrNoInput    = "data-no-input"
	AttrSkipTo     = "data-skip-to"
	AttrSummary    = "data-summary"
	AttrStepName   = "data-step-name"
	AttrFieldLabel = "data-field-label"
)

// legacyAliases maps canonical names to deprecated spellings still found
// in older documents. Matches through an alias produce a compat warning.
var legacyAliases = map[string][]string{
	AttrWizard: {"data-multi-step"},
	AttrStep:   {"data-step"},
	AttrAnswer: {"data-answer-key"},
	AttrGoTo:   {"data-goto"},
	AttrBranch: {"data-branching"},
}

// attr looks up name on n, falling back to legacy aliases. It returns the
// value, whether the attribute was present at all, and whether a legacy
// alias supplied it.
func attr(n *html.Node, name string) (val string, ok, legacy bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true, false
		}
	}
	for _, alias := range legacyAliases[name] {
		for _, a := range n.Attr {
			if a.Key == alias {
				return a.Val, true, true
			}
		}
	}
	return "", false, false
}

func hasAttr(n *html.Node, name string) (ok, legacy bool) {
	_, ok, legacy = attr(n, name)
	return ok, legacy
}

func attrVal(n *html.Node, name string) string {
	v, _, _ := attr(n, name)
	return v
}
