package stepform

import (
	"database/sql"
	"io"
	"os"

	"github.com/stepform/stepform/internal/document"
	"github.com/stepform/stepform/internal/persistence"
	"github.com/stepform/stepform/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Form              = api.Form
	Step              = api.Step
	AnswerWrapper     = api.AnswerWrapper
	WrapperKind       = api.WrapperKind
	Field             = api.Field
	FieldKind         = api.FieldKind
	FieldValue        = api.FieldValue
	FieldRecord       = api.FieldRecord
	Snapshot          = api.Snapshot
	NavState          = api.NavState
	Navigator         = api.Navigator
	Location          = api.Location
	Warning           = api.Warning
	Observer          = api.Observer
	LoggingObserver   = api.LoggingObserver
	CompositeObserver = api.CompositeObserver
	NoopObserver      = api.NoopObserver
)

// SnapshotStore is the persistence contract for autosave snapshots.
type SnapshotStore = persistence.SnapshotStore

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	StringValue          = api.StringValue
)

// Re-export wrapper and field kinds for convenience.

const (
	WrapperContainer = api.WrapperContainer
	WrapperNested    = api.WrapperNested
	WrapperOther     = api.WrapperOther

	FieldText     = api.FieldText
	FieldCheckbox = api.FieldCheckbox
	FieldRadio    = api.FieldRadio
	FieldSelect   = api.FieldSelect
	FieldTextarea = api.FieldTextarea
)

// Re-export sentinel errors callers branch on with errors.Is.

var (
	ErrNoWizardRoot        = document.ErrNoWizardRoot
	ErrNoSteps             = api.ErrNoSteps
	ErrValidationFailed    = api.ErrValidationFailed
	ErrNoChoiceSelected    = api.ErrNoChoiceSelected
	ErrDanglingDestination = api.ErrDanglingDestination
	ErrUnknownField        = api.ErrUnknownField
)

// DefaultDebounce is the default autosave coalescing window.
const DefaultDebounce = persistence.DefaultDebounce

// Parse reads an HTML document and discovers the wizard rooted at the
// first element carrying the data-wizard marker. Documents without such
// a root are rejected immediately.
func Parse(r io.Reader) (*Form, error) {
	return document.Parse(r)
}

// ParseString discovers a wizard from an HTML string.
func ParseString(s string) (*Form, error) {
	return document.ParseString(s)
}

// ParseFile discovers a wizard from an HTML file.
func ParseFile(path string) (*Form, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return document.Parse(f)
}

// Store constructors
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemoryStore returns a non-durable SnapshotStore backed by a map.
func NewInMemoryStore() SnapshotStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteStore returns a SnapshotStore that persists snapshots in a
// SQLite database. The caller is responsible for importing a driver,
// e.g. "modernc.org/sqlite".
func NewSQLiteStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewSQLiteStore(db)
}
