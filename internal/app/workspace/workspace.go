// Package workspace persists, restores and transfers the registry's settings record.
package workspace

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/eobrowser/errs"
	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/infra/telemetry"
	"github.com/coachpo/eobrowser/internal/observability"
)

const (
	component     = "workspace"
	backupVersion = "1"
)

// Backup is the export document: the stored settings fields plus a denormalised snapshot of
// every visible service.
type Backup struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
	settings.Settings
	ServicesSnapshot []SnapshotItem `json:"services_snapshot"`
}

// SnapshotItem is one service with resolved name and description and its current state.
type SnapshotItem struct {
	Key            string           `json:"key"`
	IsCustom       bool             `json:"isCustom"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	URL            string           `json:"url"`
	DefaultQuery   string           `json:"defaultQuery"`
	Type           service.Type     `json:"type"`
	Protocol       service.Protocol `json:"protocol"`
	SelectionCount int              `json:"selectionCount"`
	FailureCount   int              `json:"failureCount"`
	IsDisabled     bool             `json:"isDisabled"`
	IsLocked       bool             `json:"isLocked"`
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(w *Workspace) {
		if key != "" {
			w.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLocalizer sets the resolver for user-facing error summaries.
func WithLocalizer(l registry.Localizer) Option {
	return func(w *Workspace) {
		if l != nil {
			w.localizer = l
		}
	}
}

// WithClock overrides the export timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(w *Workspace) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// Workspace orchestrates save, restore, reset, export and import against a settings store.
type Workspace struct {
	registry  *registry.Registry
	store     settingsstore.Store
	key       string
	localizer registry.Localizer
	logger    observability.Logger
	clock     func() time.Time

	operations metric.Int64Counter
}

// New constructs a workspace.
func New(reg *registry.Registry, store settingsstore.Store, opts ...Option) *Workspace {
	w := &Workspace{
		registry:   reg,
		store:      store,
		key:        settingsstore.DefaultKey,
		localizer:  i18n.New(),
		logger:     observability.Log(),
		clock:      time.Now,
		operations: nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	meter := otel.Meter("workspace")
	w.operations, _ = meter.Int64Counter("eob.settings.operations",
		metric.WithDescription("Settings persistence operations"),
		metric.WithUnit("{operation}"))
	return w
}

// Key returns the storage key.
func (w *Workspace) Key() string { return w.key }

// Save writes the current settings record to the store.
func (w *Workspace) Save(ctx context.Context) error {
	stored, _ := w.registry.Capture()
	payload, err := settings.Encode(stored)
	if err != nil {
		w.record(ctx, "save", err)
		return errs.New(component, errs.CodeInvalid, errs.WithMessage("encode settings"), errs.WithCause(err))
	}
	if err := w.store.Save(ctx, w.key, payload); err != nil {
		w.record(ctx, "save", err)
		return errs.New(component, errs.CodeUnavailable, errs.WithMessage("save settings"), errs.WithCause(err))
	}
	w.record(ctx, "save", nil)
	w.logger.Info("settings saved", observability.F("key", w.key), observability.F("bytes", len(payload)))
	return nil
}

// Restore replaces the registry state with the stored record. An absent record restores the
// defaults and an unparseable one degrades to defaults. Store failures leave the state untouched.
func (w *Workspace) Restore(ctx context.Context) error {
	payload, err := w.store.Load(ctx, w.key)
	switch {
	case errors.Is(err, settingsstore.ErrNotFound):
		w.registry.Replace(settings.Default())
		w.record(ctx, "restore", nil)
		w.logger.Info("no saved settings, using defaults", observability.F("key", w.key))
		return nil
	case err != nil:
		w.record(ctx, "restore", err)
		return errs.New(component, errs.CodeUnavailable, errs.WithMessage("load settings"), errs.WithCause(err))
	}
	restored, decodeErr := settings.Decode(payload)
	if decodeErr != nil {
		w.logger.Warn("saved settings unreadable, using defaults",
			observability.F("key", w.key),
			observability.F("error", decodeErr))
	}
	w.registry.Replace(restored)
	w.record(ctx, "restore", nil)
	w.logger.Info("settings restored", observability.F("key", w.key))
	return nil
}

// Bootstrap loads the initial state at process start. It never fails: an unreachable store
// leaves the registry on defaults.
func (w *Workspace) Bootstrap(ctx context.Context) {
	if err := w.Restore(ctx); err != nil {
		w.logger.Warn("restore settings failed; starting from defaults",
			observability.F("key", w.key),
			observability.F("error", err))
		w.registry.Replace(settings.Default())
	}
}

// Reset installs the default settings without touching the store.
func (w *Workspace) Reset() {
	w.registry.Replace(settings.Default())
	w.record(context.Background(), "reset", nil)
	w.logger.Info("settings reset to defaults")
}

// ClearSaved deletes the stored record and resets to defaults.
func (w *Workspace) ClearSaved(ctx context.Context) error {
	if err := w.store.Delete(ctx, w.key); err != nil && !errors.Is(err, settingsstore.ErrNotFound) {
		w.record(ctx, "clear", err)
		return errs.New(component, errs.CodeUnavailable, errs.WithMessage("delete saved settings"), errs.WithCause(err))
	}
	w.registry.Replace(settings.Default())
	w.record(ctx, "clear", nil)
	w.logger.Info("saved settings cleared", observability.F("key", w.key))
	return nil
}

// Export builds the backup document for the current state.
func (w *Workspace) Export() Backup {
	stored, entries := w.registry.Capture()
	items := make([]SnapshotItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, SnapshotItem{
			Key:            e.Key,
			IsCustom:       e.Kind == service.KindCustom.String(),
			Name:           e.Name,
			Description:    e.Description,
			URL:            e.URL,
			DefaultQuery:   e.DefaultQuery,
			Type:           e.Type,
			Protocol:       e.Protocol,
			SelectionCount: e.SelectionCount,
			FailureCount:   e.FailureCount,
			IsDisabled:     e.Disabled,
			IsLocked:       e.Locked,
		})
	}
	w.record(context.Background(), "export", nil)
	return Backup{
		Version:          backupVersion,
		GeneratedAt:      w.clock().UTC(),
		Settings:         stored,
		ServicesSnapshot: items,
	}
}

// ExportJSON renders the backup document as indented JSON.
func (w *Workspace) ExportJSON() ([]byte, error) {
	payload, err := json.MarshalIndent(w.Export(), "", "  ")
	if err != nil {
		return nil, errs.New(component, errs.CodeInvalid, errs.WithMessage("encode backup"), errs.WithCause(err))
	}
	return payload, nil
}

// Import parses a backup or settings document and applies it. Any JSON object or array is
// accepted and migrated, so an array degrades to defaults. Null and scalars are rejected and
// leave the current state untouched.
func (w *Workspace) Import(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		w.record(context.Background(), "import", err)
		return w.importFailed(err.Error(), err)
	}
	switch raw.(type) {
	case map[string]any, []any:
	default:
		err := errors.New("settings document must be a JSON object")
		w.record(context.Background(), "import", err)
		return w.importFailed(err.Error(), err)
	}
	w.registry.Replace(settings.Migrate(raw))
	w.record(context.Background(), "import", nil)
	w.logger.Info("settings imported", observability.F("bytes", len(data)))
	return nil
}

func (w *Workspace) importFailed(details string, cause error) error {
	return errs.New(component, errs.CodeImportFailed,
		errs.WithMessage(w.localizer.T(w.registry.Language(), i18n.KeyImportFailed, nil)),
		errs.WithDetails(details),
		errs.WithCause(cause))
}

func (w *Workspace) record(ctx context.Context, operation string, err error) {
	if w.operations == nil {
		return
	}
	result := telemetry.ResultSuccess
	if err != nil {
		result = telemetry.ResultError
	}
	w.operations.Add(ctx, 1, metric.WithAttributes(telemetry.OperationResultAttributes(operation, result)...))
}
