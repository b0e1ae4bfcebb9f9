// Package stepform turns a flat HTML form into a multi-step,
// conditionally branching wizard driven entirely by declarative element
// attributes. There is no server component: the library discovers step
// containers, shows exactly one at a time, branches to non-adjacent
// steps based on the user's choice, autosaves field values to a local
// key-value store, and renders an editable summary of answers.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Form
//  2. Navigator
//  3. Session
//  4. Autosave
//  5. Summary
//
// # Form
//
// A Form is the static step/wrapper graph discovered once from an HTML
// document (Parse) or built programmatically (FormBuilder). Steps are
// ordered by document position; each step holds zero or more answer
// wrappers, the conditionally visible sub-regions keyed by branch
// identifiers. The empty key marks the default wrapper.
//
// Discovery is attribute-driven: data-wizard marks the root,
// data-form-step marks a step, data-answer keys a wrapper, data-go-to
// names a destination, data-branch flags a decision point. Deprecated
// spellings are accepted behind compatibility warnings.
//
// # Navigator
//
// The Navigator owns the current-step position, the visit history and
// the selected branch key. Advance validates the active step, classifies
// it as branching or sequential, resolves the destination (checked
// choice, explicit target, or linear fallthrough) and moves there.
// Malformed branch data degrades gracefully: a step whose wrappers match
// no active key still renders its first wrapper, while dangling
// destinations fail loudly as configuration errors.
//
// # Session
//
// Session bundles one form instance: the parsed Form, a Navigator, the
// autosave layer and the summary/edit collaborators, all keyed by the
// form's identifier. It is the only mutation entry point for field
// values and must not be shared across form instances.
//
// # Autosave
//
// Field edits are recorded with step, kind and visibility metadata and
// flushed to a SnapshotStore behind a cancel-on-supersede debounce.
// Committed actions flush immediately. Stores are pluggable:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//
// A failing store degrades the session to in-memory-only operation; it
// never blocks the user.
//
// # Summary
//
// The summary package projects the snapshot's visible values, grouped by
// step, into a read-only list with a click-to-edit affordance backed by
// the Navigator's Locate contract.
//
// For examples, see the /examples directory.
package stepform
