package engine

import (
	"errors"
	"testing"

	"github.com/stepform/stepform/pkg/api"
)

// mapValues is a ValueSource over a plain map, standing in for the
// session's field store.
type mapValues map[string]api.FieldValue

func (m mapValues) Value(name string) (api.FieldValue, bool) {
	v, ok := m[name]
	return v, ok
}

// recordingObserver captures notifications for assertions.
type recordingObserver struct {
	api.NoopObserver
	steps     []int
	completed int
	warnings  []api.Warning
	cfgErrs   []error
	valErrs   []error
}

func (o *recordingObserver) OnStepChanged(formID string, stepIndex, stepCount int) {
	o.steps = append(o.steps, stepIndex)
}

func (o *recordingObserver) OnFormCompleted(formID string) {
	o.completed++
}

func (o *recordingObserver) OnCompatWarning(formID string, w api.Warning) {
	o.warnings = append(o.warnings, w)
}

func (o *recordingObserver) OnConfigError(formID string, err error) {
	o.cfgErrs = append(o.cfgErrs, err)
}

func (o *recordingObserver) OnValidationFailed(formID string, stepIndex int, err error) {
	o.valErrs = append(o.valErrs, err)
}

// onboardingForm mirrors a branching sign-up flow: contact info, an
// account-type decision, per-branch detail wrappers, then a review step.
func onboardingForm() *api.Form {
	return &api.Form{
		ID:          "onboarding",
		SummaryStep: 3,
		Steps: []api.Step{
			{
				Index: 0, Name: "Contact",
				Fields: []api.Field{
					{Name: "email", Kind: api.FieldText, Required: true, StepIndex: 0, WrapperPos: -1},
				},
			},
			{
				Index: 1, Branching: true,
				Fields: []api.Field{
					{Name: "kind", Kind: api.FieldRadio, Value: "biz", DestKey: "biz", StepIndex: 1, WrapperPos: -1},
					{Name: "kind", Kind: api.FieldRadio, Value: "personal", DestKey: "personal", StepIndex: 1, WrapperPos: -1},
				},
			},
			{
				Index: 2,
				Wrappers: []api.AnswerWrapper{
					{Key: "biz", Kind: api.WrapperContainer, Pos: 0, Parent: -1},
					{Key: "personal", Kind: api.WrapperContainer, Pos: 1, Parent: -1},
				},
				Fields: []api.Field{
					{Name: "company", Kind: api.FieldText, StepIndex: 2, WrapperPos: 0},
					{Name: "nickname", Kind: api.FieldText, StepIndex: 2, WrapperPos: 1},
				},
			},
			{Index: 3, Name: "Review", InputFree: true},
		},
	}
}

func TestNewRejectsEmptyForm(t *testing.T) {
	if _, err := New(nil, Config{}); !errors.Is(err, api.ErrNoSteps) {
		t.Fatalf("New(nil) error = %v, want ErrNoSteps", err)
	}
	if _, err := New(&api.Form{ID: "x"}, Config{}); !errors.Is(err, api.ErrNoSteps) {
		t.Fatalf("New(empty) error = %v, want ErrNoSteps", err)
	}
}

func TestNewEntersStepZero(t *testing.T) {
	obs := &recordingObserver{}
	nav, err := New(onboardingForm(), Config{Observer: obs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if nav.Current() != 0 {
		t.Errorf("current = %d, want 0", nav.Current())
	}
	if got := nav.State().History; len(got) != 1 || got[0] != 0 {
		t.Errorf("history = %v, want [0]", got)
	}
	if len(obs.steps) != 1 || obs.steps[0] != 0 {
		t.Errorf("step notifications = %v, want [0]", obs.steps)
	}
}

func TestNewReplaysDiscoveryWarnings(t *testing.T) {
	form := onboardingForm()
	form.Warnings = []api.Warning{
		{Code: api.WarnLegacyAttribute, Message: "old marker"},
	}
	obs := &recordingObserver{}
	if _, err := New(form, Config{Observer: obs}); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(obs.warnings) != 1 || obs.warnings[0].Code != api.WarnLegacyAttribute {
		t.Errorf("warnings = %v", obs.warnings)
	}
}

func TestGoToOutOfRangeIsNoOp(t *testing.T) {
	obs := &recordingObserver{}
	nav, _ := New(onboardingForm(), Config{Observer: obs})

	if err := nav.GoTo(-1); err != nil {
		t.Fatalf("GoTo(-1) error = %v", err)
	}
	if err := nav.GoTo(99); err != nil {
		t.Fatalf("GoTo(99) error = %v", err)
	}
	if nav.Current() != 0 {
		t.Errorf("current = %d, want 0 after out-of-range moves", nav.Current())
	}
	if got := nav.State().History; len(got) != 1 {
		t.Errorf("history = %v, want unchanged", got)
	}
}

func TestHistorySuppressesConsecutiveDuplicates(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})

	nav.GoTo(1)
	nav.GoTo(1)
	nav.GoTo(2)
	nav.GoTo(1)

	want := []int{0, 1, 2, 1}
	got := nav.State().History
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
}

func TestAdvanceBlockedByValidation(t *testing.T) {
	obs := &recordingObserver{}
	nav, _ := New(onboardingForm(), Config{Observer: obs, Values: mapValues{}})

	err := nav.Advance()
	if !errors.Is(err, api.ErrValidationFailed) {
		t.Fatalf("Advance() error = %v, want ErrValidationFailed", err)
	}
	if nav.Current() != 0 {
		t.Errorf("current = %d, want 0 (blocked)", nav.Current())
	}
	fails := nav.FieldErrors()
	if len(fails) != 1 || fails[0].Name != "email" {
		t.Errorf("field errors = %v, want one for email", fails)
	}
	if len(obs.valErrs) != 1 {
		t.Errorf("validation notifications = %d, want 1", len(obs.valErrs))
	}
}

func TestAdvanceClearsStaleFieldErrors(t *testing.T) {
	values := mapValues{}
	nav, _ := New(onboardingForm(), Config{Values: values})

	if err := nav.Advance(); err == nil {
		t.Fatal("expected validation failure")
	}
	values["email"] = api.StringValue("a@b.test")
	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if fails := nav.FieldErrors(); len(fails) != 0 {
		t.Errorf("field errors = %v, want none after passing validation", fails)
	}
}

func TestAdvanceBranchingRequiresChoice(t *testing.T) {
	values := mapValues{"email": api.StringValue("a@b.test")}
	nav, _ := New(onboardingForm(), Config{Values: values})
	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() to branch step error = %v", err)
	}

	err := nav.Advance()
	if !errors.Is(err, api.ErrNoChoiceSelected) {
		t.Fatalf("Advance() error = %v, want ErrNoChoiceSelected", err)
	}
	if nav.Current() != 1 {
		t.Errorf("current = %d, want 1 (blocked)", nav.Current())
	}
}

func TestAdvanceFollowsCheckedChoice(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("biz"),
	}
	nav, _ := New(onboardingForm(), Config{Values: values})
	nav.Advance()

	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if nav.Current() != 2 {
		t.Fatalf("current = %d, want 2", nav.Current())
	}
	if got := nav.State().SelectedBranch; got != "biz" {
		t.Errorf("selected branch = %q, want biz", got)
	}

	vis := nav.Visible(2)
	if len(vis) != 1 || vis[0].Key != "biz" {
		t.Errorf("visible wrappers = %v, want [biz]", vis)
	}
}

func TestBranchRoundTripShowsOtherWrapper(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("biz"),
	}
	nav, _ := New(onboardingForm(), Config{Values: values})
	nav.Advance()
	nav.Advance()

	// Go back, pick the other branch, come forward again.
	nav.Retreat()
	values["kind"] = api.StringValue("personal")
	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	vis := nav.Visible(2)
	if len(vis) != 1 || vis[0].Key != "personal" {
		t.Errorf("visible wrappers = %v, want [personal]", vis)
	}
}

func TestRetreatAtStepZeroIsNoOp(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})
	if err := nav.Retreat(); err != nil {
		t.Fatalf("Retreat() error = %v", err)
	}
	if nav.Current() != 0 {
		t.Errorf("current = %d, want 0", nav.Current())
	}
}

func TestRetreatToStepZeroShowsDefaultWrapper(t *testing.T) {
	form := &api.Form{
		ID: "d",
		Steps: []api.Step{
			{
				Index: 0,
				Wrappers: []api.AnswerWrapper{
					{Key: "intro", Kind: api.WrapperContainer, Pos: 0, Parent: -1},
					{Key: "alt", Kind: api.WrapperContainer, Pos: 1, Parent: -1},
				},
			},
			{Index: 1, InputFree: true},
		},
	}
	nav, _ := New(form, Config{})
	nav.SkipTo("alt")
	nav.GoTo(1)

	// Returning to step 0 resolves the default key, not the selected
	// branch, so the first wrapper shows.
	nav.GoTo(0)
	vis := nav.Visible(0)
	if len(vis) != 1 || vis[0].Key != "intro" {
		t.Errorf("visible wrappers = %v, want [intro]", vis)
	}
}

func TestUnmatchedBranchFallsBackToFirstWrapper(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})
	nav.GoTo(2)

	vis := nav.Visible(2)
	if len(vis) != 1 || vis[0].Key != "biz" {
		t.Errorf("visible wrappers = %v, want fallback to first wrapper", vis)
	}
}

func TestRelaxedKeyMatchWarns(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("biz"),
	}
	form := onboardingForm()
	form.Steps[1].Fields[0].DestKey = "BIZ"
	obs := &recordingObserver{}
	nav, _ := New(form, Config{Observer: obs, Values: values})
	nav.Advance()

	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if nav.Current() != 2 {
		t.Errorf("current = %d, want 2", nav.Current())
	}

	var relaxed int
	for _, w := range obs.warnings {
		if w.Code == api.WarnRelaxedMatch {
			relaxed++
		}
	}
	if relaxed == 0 {
		t.Errorf("expected relaxed-match warnings, got %v", obs.warnings)
	}
}

func TestStrictMatchingDisablesRelaxedFallback(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("biz"),
	}
	form := onboardingForm()
	form.Steps[1].Fields[0].DestKey = "BIZ"
	obs := &recordingObserver{}
	nav, _ := New(form, Config{Observer: obs, Values: values, StrictMatching: true})
	nav.Advance()

	err := nav.Advance()
	if !errors.Is(err, api.ErrDanglingDestination) {
		t.Fatalf("Advance() error = %v, want ErrDanglingDestination", err)
	}
	if len(obs.cfgErrs) != 1 {
		t.Errorf("config error notifications = %d, want 1", len(obs.cfgErrs))
	}
}

func TestDanglingDestinationFailsLoudly(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("biz"),
	}
	form := onboardingForm()
	form.Steps[1].Fields[0].DestKey = "nowhere"
	obs := &recordingObserver{}
	nav, _ := New(form, Config{Observer: obs, Values: values})
	nav.Advance()

	err := nav.Advance()
	if !errors.Is(err, api.ErrDanglingDestination) {
		t.Fatalf("Advance() error = %v, want ErrDanglingDestination", err)
	}
	if nav.Current() != 1 {
		t.Errorf("current = %d, want 1 (no guessed move)", nav.Current())
	}
	// The choice is still recorded even though the move failed.
	if got := nav.State().SelectedBranch; got != "nowhere" {
		t.Errorf("selected branch = %q, want nowhere", got)
	}
}

func TestLinearFallthrough(t *testing.T) {
	form := &api.Form{
		ID: "linear",
		Steps: []api.Step{
			{Index: 0, InputFree: true},
			{Index: 1, InputFree: true},
			{Index: 2, InputFree: true},
		},
	}
	nav, _ := New(form, Config{})
	nav.Advance()
	nav.Advance()
	if nav.Current() != 2 {
		t.Errorf("current = %d, want 2", nav.Current())
	}
}

func TestAdvanceOnTerminalStepCompletes(t *testing.T) {
	obs := &recordingObserver{}
	form := &api.Form{
		ID: "done",
		Steps: []api.Step{
			{Index: 0, InputFree: true},
			{Index: 1, InputFree: true},
		},
	}
	nav, _ := New(form, Config{Observer: obs})
	nav.Advance()
	if err := nav.Advance(); err != nil {
		t.Fatalf("Advance() at terminal error = %v", err)
	}
	if !nav.Completed() {
		t.Error("expected completed")
	}
	if obs.completed != 1 {
		t.Errorf("completion notifications = %d, want 1", obs.completed)
	}

	// Further completion attempts stay silent.
	nav.Advance()
	nav.GoTo(1)
	if obs.completed != 1 {
		t.Errorf("completion notifications = %d, want exactly 1", obs.completed)
	}
}

func TestRepeatGoToAtTerminalCompletes(t *testing.T) {
	obs := &recordingObserver{}
	form := &api.Form{
		ID:    "d",
		Steps: []api.Step{{Index: 0, InputFree: true}, {Index: 1, InputFree: true}},
	}
	nav, _ := New(form, Config{Observer: obs})
	nav.GoTo(1)
	if obs.completed != 0 {
		t.Fatalf("completion fired on first terminal entry")
	}
	nav.GoTo(1)
	if obs.completed != 1 {
		t.Errorf("completion notifications = %d, want 1 on repeat entry", obs.completed)
	}
}

func TestSkipTo(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})
	if err := nav.SkipTo("personal"); err != nil {
		t.Fatalf("SkipTo() error = %v", err)
	}
	if nav.Current() != 2 {
		t.Errorf("current = %d, want 2", nav.Current())
	}
	vis := nav.Visible(2)
	if len(vis) != 1 || vis[0].Key != "personal" {
		t.Errorf("visible wrappers = %v, want [personal]", vis)
	}

	if err := nav.SkipTo("nowhere"); !errors.Is(err, api.ErrDanglingDestination) {
		t.Errorf("SkipTo(nowhere) error = %v, want ErrDanglingDestination", err)
	}
}

func TestLocateAndJumpToField(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})

	loc, ok := nav.Locate("nickname")
	if !ok || loc.StepIndex != 2 || loc.BranchKey != "personal" {
		t.Fatalf("Locate(nickname) = %+v, %v", loc, ok)
	}

	if _, ok := nav.Locate("absent"); ok {
		t.Error("Locate(absent) should miss")
	}
	if err := nav.JumpToField("absent"); !errors.Is(err, api.ErrUnknownField) {
		t.Errorf("JumpToField(absent) error = %v, want ErrUnknownField", err)
	}

	if err := nav.JumpToField("nickname"); err != nil {
		t.Fatalf("JumpToField(nickname) error = %v", err)
	}
	if nav.Current() != 2 {
		t.Errorf("current = %d, want 2", nav.Current())
	}
	vis := nav.Visible(2)
	if len(vis) != 1 || vis[0].Key != "personal" {
		t.Errorf("visible wrappers = %v, want [personal]", vis)
	}
}

func TestNestedWrapperVisibilityChain(t *testing.T) {
	form := &api.Form{
		ID: "nested",
		Steps: []api.Step{
			{Index: 0, InputFree: true},
			{
				Index: 1,
				Wrappers: []api.AnswerWrapper{
					{Key: "plans", Kind: api.WrapperContainer, Pos: 0, Parent: -1},
					{Key: "basic", Kind: api.WrapperNested, Pos: 1, Parent: 0},
					{Key: "pro", Kind: api.WrapperNested, Pos: 2, Parent: 0},
					{Key: "team", Kind: api.WrapperNested, Pos: 3, Parent: 0},
				},
			},
		},
	}
	nav, _ := New(form, Config{})
	if err := nav.SkipTo("pro"); err != nil {
		t.Fatalf("SkipTo(pro) error = %v", err)
	}

	// The matched item and its container show; sibling items hide.
	vis := nav.Visible(1)
	if len(vis) != 2 {
		t.Fatalf("visible wrappers = %v, want container plus matched item", vis)
	}
	if vis[0].Key != "plans" || vis[1].Key != "pro" {
		t.Errorf("visible wrappers = %v, want [plans pro]", vis)
	}
}

func TestFieldVisible(t *testing.T) {
	values := mapValues{
		"email": api.StringValue("a@b.test"),
		"kind":  api.StringValue("personal"),
	}
	nav, _ := New(onboardingForm(), Config{Values: values})
	form := onboardingForm()

	if !nav.FieldVisible(form.Steps[0].Fields[0]) {
		t.Error("email should be visible on its active step")
	}
	if nav.FieldVisible(form.Steps[2].Fields[1]) {
		t.Error("nickname should be hidden while step 2 is inactive")
	}

	nav.Advance()
	nav.Advance()
	if nav.FieldVisible(form.Steps[2].Fields[0]) {
		t.Error("company should be hidden on the personal branch")
	}
	if !nav.FieldVisible(form.Steps[2].Fields[1]) {
		t.Error("nickname should be visible on the personal branch")
	}

	// Branch visibility outlives the active step.
	nav.GoTo(3)
	if nav.FieldVisible(form.Steps[2].Fields[1]) {
		t.Error("nickname is off-screen once step 2 is inactive")
	}
	if !nav.OnVisibleBranch(form.Steps[2].Fields[1]) {
		t.Error("nickname stays on the resolved branch after leaving step 2")
	}
	if nav.OnVisibleBranch(form.Steps[2].Fields[0]) {
		t.Error("company stays off the resolved branch after leaving step 2")
	}
}

func TestValidateCurrentDoesNotNavigate(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{Values: mapValues{}})

	err := nav.ValidateCurrent()
	if !errors.Is(err, api.ErrValidationFailed) {
		t.Fatalf("ValidateCurrent() error = %v, want ErrValidationFailed", err)
	}
	if nav.Current() != 0 {
		t.Errorf("current = %d, want 0", nav.Current())
	}
	if nav.Completed() {
		t.Error("validation alone must not complete the form")
	}
}

func TestStateReturnsCopy(t *testing.T) {
	nav, _ := New(onboardingForm(), Config{})
	s := nav.State()
	s.History[0] = 99
	if nav.State().History[0] != 0 {
		t.Error("mutating the returned history leaked into the navigator")
	}
}
