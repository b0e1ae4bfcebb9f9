package api

import "log/slog"

// Observer receives notifications from the navigation engine and the
// autosave store for logging and UI affordances.
//
// All callbacks run synchronously inside the transition that raised them;
// implementations should be fast and must not call back into the
// Navigator.
type Observer interface {
	// OnStepChanged is raised after every committed transition.
	OnStepChanged(formID string, stepIndex, stepCount int)

	// OnFormCompleted is raised once, when Advance is invoked while
	// already on the terminal step (or Session.Complete succeeds).
	OnFormCompleted(formID string)

	// OnFieldEditRequested is raised by the edit-mode controller when a
	// summary entry is clicked, before the jump happens.
	OnFieldEditRequested(formID, fieldName string)

	// OnValidationFailed is raised when Advance is blocked by required
	// fields or a missing branch choice. err aggregates per-field detail.
	OnValidationFailed(formID string, stepIndex int, err error)

	// OnCompatWarning is raised for non-blocking advisories: legacy
	// attribute names, relaxed case-insensitive branch matches,
	// ambiguous nested/flat structure.
	OnCompatWarning(formID string, w Warning)

	// OnConfigError is raised for authoring errors the engine refuses to
	// guess around, such as dangling destination keys.
	OnConfigError(formID string, err error)

	// OnPersistenceError is raised when the autosave store degrades to
	// in-memory operation after a read/write failure.
	OnPersistenceError(formID string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnStepChanged(formID string, stepIndex, stepCount int)      {}
func (NoopObserver) OnFormCompleted(formID string)                              {}
func (NoopObserver) OnFieldEditRequested(formID, fieldName string)              {}
func (NoopObserver) OnValidationFailed(formID string, stepIndex int, err error) {}
func (NoopObserver) OnCompatWarning(formID string, w Warning)                   {}
func (NoopObserver) OnConfigError(formID string, err error)                     {}
func (NoopObserver) OnPersistenceError(formID string, err error)                {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStepChanged(formID string, stepIndex, stepCount int) {
	for _, o := range c.observers {
		o.OnStepChanged(formID, stepIndex, stepCount)
	}
}

func (c *CompositeObserver) OnFormCompleted(formID string) {
	for _, o := range c.observers {
		o.OnFormCompleted(formID)
	}
}

func (c *CompositeObserver) OnFieldEditRequested(formID, fieldName string) {
	for _, o := range c.observers {
		o.OnFieldEditRequested(formID, fieldName)
	}
}

func (c *CompositeObserver) OnValidationFailed(formID string, stepIndex int, err error) {
	for _, o := range c.observers {
		o.OnValidationFailed(formID, stepIndex, err)
	}
}

func (c *CompositeObserver) OnCompatWarning(formID string, w Warning) {
	for _, o := range c.observers {
		o.OnCompatWarning(formID, w)
	}
}

func (c *CompositeObserver) OnConfigError(formID string, err error) {
	for _, o := range c.observers {
		o.OnConfigError(formID, err)
	}
}

func (c *CompositeObserver) OnPersistenceError(formID string, err error) {
	for _, o := range c.observers {
		o.OnPersistenceError(formID, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs navigation and store
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnStepChanged(formID string, stepIndex, stepCount int) {
	o.Logger.Info("step_changed",
		slog.String("form", formID),
		slog.Int("step", stepIndex),
		slog.Int("steps", stepCount),
	)
}

func (o *LoggingObserver) OnFormCompleted(formID string) {
	o.Logger.Info("form_completed",
		slog.String("form", formID),
	)
}

func (o *LoggingObserver) OnFieldEditRequested(formID, fieldName string) {
	o.Logger.Info("field_edit_requested",
		slog.String("form", formID),
		slog.String("field", fieldName),
	)
}

func (o *LoggingObserver) OnValidationFailed(formID string, stepIndex int, err error) {
	o.Logger.Warn("validation_failed",
		slog.String("form", formID),
		slog.Int("step", stepIndex),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnCompatWarning(formID string, w Warning) {
	o.Logger.Warn("compat_warning",
		slog.String("form", formID),
		slog.String("code", string(w.Code)),
		slog.String("detail", w.Message),
	)
}

func (o *LoggingObserver) OnConfigError(formID string, err error) {
	o.Logger.Error("config_error",
		slog.String("form", formID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPersistenceError(formID string, err error) {
	o.Logger.Error("persistence_error",
		slog.String("form", formID),
		slog.Any("error", err),
	)
}
