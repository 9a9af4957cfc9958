// Package registry owns the settings aggregate and applies every catalog mutation atomically
// with the per-URL state keyed on it.
package registry

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/eobrowser/internal/domain/ranking"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/telemetry"
	"github.com/coachpo/eobrowser/internal/observability"
)

const component = "registry"

// Localizer resolves user-facing strings.
type Localizer interface {
	T(lang, key string, params map[string]string) string
}

type keyLocalizer struct{}

func (keyLocalizer) T(_ string, key string, _ map[string]string) string { return key }

// Listener receives the registry version after every committed change.
type Listener func(version uint64)

// Option configures a Registry.
type Option func(*Registry)

// WithLocalizer sets the string resolver used for names, descriptions and validation messages.
func WithLocalizer(l Localizer) Option {
	return func(r *Registry) {
		if l != nil {
			r.localizer = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Registry is the single owner of the settings aggregate, the transient filters and the clone drafts.
type Registry struct {
	mu         sync.RWMutex
	state      settings.Settings
	filters    ranking.Filters
	drafts     map[string]service.Custom
	draftOrder []string
	version    uint64

	listenerMu sync.RWMutex
	listeners  map[int]Listener
	nextID     int

	localizer Localizer
	logger    observability.Logger

	mutationCounter metric.Int64Counter
	failureCounter  metric.Int64Counter
}

// New constructs a registry around an initial settings record.
func New(initial settings.Settings, opts ...Option) *Registry {
	r := &Registry{
		mu:         sync.RWMutex{},
		state:      settings.Migrate(initial),
		filters:    ranking.Filters{},
		drafts:     make(map[string]service.Custom),
		draftOrder: nil,
		version:    0,
		listenerMu: sync.RWMutex{},
		listeners:  make(map[int]Listener),
		nextID:     0,
		localizer:  keyLocalizer{},
		logger:     observability.Log(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.filters = ranking.Cleared(ranking.MaxFailureCount(r.state.Visible(), r.state.FailureCounts))

	meter := otel.Meter("registry")
	r.mutationCounter, _ = meter.Int64Counter("eob.registry.mutations",
		metric.WithDescription("Committed registry mutations"),
		metric.WithUnit("{mutation}"))
	r.failureCounter, _ = meter.Int64Counter("eob.service.failures",
		metric.WithDescription("Query failures recorded against catalog services"),
		metric.WithUnit("{failure}"))
	return r
}

// Subscribe registers a change listener and returns a function that removes it.
func (r *Registry) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	r.listenerMu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.listenerMu.Unlock()
	return func() {
		r.listenerMu.Lock()
		delete(r.listeners, id)
		r.listenerMu.Unlock()
	}
}

// Version returns the number of committed changes.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Snapshot returns a deep copy of the settings aggregate.
func (r *Registry) Snapshot() settings.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Language returns the active UI language.
func (r *Registry) Language() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Language
}

// Target returns the active service URL and query.
func (r *Registry) Target() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.ServiceURL, r.state.Query
}

// Filters returns the current filters.
func (r *Registry) Filters() ranking.Filters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters
}

// Replace installs a new settings aggregate wholesale, resets the filters to the new ceiling and
// drops any open drafts.
func (r *Registry) Replace(next settings.Settings) {
	migrated := settings.Migrate(next)
	_ = r.commit("replace", func(tx *txn) error {
		tx.state = migrated
		tx.clearFilters()
		tx.drafts = map[string]service.Custom{}
		tx.draftOrder = nil
		return nil
	})
}

// txn is a working copy of the mutable registry state. Mutations edit the copy and the registry
// swaps it in only when the mutation succeeds.
type txn struct {
	state      settings.Settings
	filters    ranking.Filters
	drafts     map[string]service.Custom
	draftOrder []string
	touched    bool
}

func (tx *txn) clearFilters() {
	tx.filters = ranking.Cleared(ranking.MaxFailureCount(tx.state.Visible(), tx.state.FailureCounts))
}

func (r *Registry) commit(operation string, fn func(tx *txn) error) error {
	r.mu.Lock()
	drafts := make(map[string]service.Custom, len(r.drafts))
	for id, d := range r.drafts {
		drafts[id] = d
	}
	tx := &txn{
		state:      r.state.Clone(),
		filters:    r.filters,
		drafts:     drafts,
		draftOrder: slices.Clone(r.draftOrder),
		touched:    true,
	}
	if err := fn(tx); err != nil {
		r.mu.Unlock()
		r.logger.Debug("registry mutation rejected",
			observability.F("operation", operation),
			observability.F("error", err))
		return err
	}
	if !tx.touched {
		r.mu.Unlock()
		return nil
	}
	r.state = tx.state
	r.filters = tx.filters
	r.drafts = tx.drafts
	r.draftOrder = tx.draftOrder
	r.version++
	version := r.version
	r.mu.Unlock()

	if r.mutationCounter != nil {
		r.mutationCounter.Add(context.Background(), 1,
			metric.WithAttributes(telemetry.OperationResultAttributes(operation, telemetry.ResultSuccess)...))
	}
	r.notify(version)
	return nil
}

func (r *Registry) notify(version uint64) {
	r.listenerMu.RLock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(version)
	}
}
