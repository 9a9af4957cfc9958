// Package translate fills the per-language description cache for custom services.
package translate

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/telemetry"
	"github.com/coachpo/eobrowser/internal/observability"
)

// Translator produces a translation of text into the named language.
type Translator interface {
	Translate(ctx context.Context, text, languageName string) (string, error)
}

// Cache stores translations keyed by service URL and language code.
type Cache interface {
	Translation(url, lang string) (string, bool)
	StoreTranslation(url, lang, text string) bool
}

// LanguageNames maps a language code to its English display name.
type LanguageNames interface {
	EnglishName(code string) string
}

// Dispatcher runs at most one translation per (url, language) pair at a time.
type Dispatcher struct {
	ctx        context.Context
	translator Translator
	cache      Cache
	names      LanguageNames
	logger     observability.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       conc.WaitGroup

	requests metric.Int64Counter
}

// NewDispatcher constructs a dispatcher whose tasks are bound to ctx.
func NewDispatcher(ctx context.Context, translator Translator, cache Cache, names LanguageNames, logger observability.Logger) *Dispatcher {
	if logger == nil {
		logger = observability.Log()
	}
	meter := otel.Meter("translate")
	requests, _ := meter.Int64Counter("eob.translation.requests",
		metric.WithDescription("Description translation attempts"),
		metric.WithUnit("{request}"))
	return &Dispatcher{
		ctx:        ctx,
		translator: translator,
		cache:      cache,
		names:      names,
		logger:     logger,
		inflight:   make(map[string]struct{}),
		requests:   requests,
	}
}

func pairKey(url, lang string) string {
	return url + "\x00" + lang
}

// Request schedules a translation and reports whether a new task was started.
func (d *Dispatcher) Request(url, text, lang string) bool {
	if text == "" || lang == "" || lang == settings.DefaultLanguage {
		return false
	}
	if _, ok := d.cache.Translation(url, lang); ok {
		return false
	}
	key := pairKey(url, lang)
	d.mu.Lock()
	if _, busy := d.inflight[key]; busy {
		d.mu.Unlock()
		return false
	}
	d.inflight[key] = struct{}{}
	d.mu.Unlock()

	d.wg.Go(func() {
		defer func() {
			d.mu.Lock()
			delete(d.inflight, key)
			d.mu.Unlock()
		}()
		d.run(url, text, lang)
	})
	return true
}

// Prefetch requests translations for every custom entry still awaiting one in the view's language.
func (d *Dispatcher) Prefetch(view registry.View) int {
	started := 0
	for _, entry := range view.Services {
		if entry.Kind != service.KindCustom.String() || !entry.Translating {
			continue
		}
		if d.Request(entry.URL, entry.SourceDescription, view.Language) {
			started++
		}
	}
	return started
}

// InFlight reports the number of running tasks.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Wait blocks until every scheduled task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(url, text, lang string) {
	translated := ""
	var callErr error
	var pc panics.Catcher
	pc.Try(func() {
		translated, callErr = d.translator.Translate(d.ctx, text, d.names.EnglishName(lang))
	})
	if recovered := pc.Recovered(); recovered != nil {
		callErr = recovered.AsError()
	}

	result := telemetry.ResultSuccess
	if callErr != nil {
		result = telemetry.ResultFallback
		d.logger.Warn("translation failed, caching original text",
			observability.F("url", url),
			observability.F("language", lang),
			observability.F("error", callErr))
	}
	if translated == "" {
		translated = text
	}
	if !d.cache.StoreTranslation(url, lang, translated) {
		result = telemetry.ResultSkipped
	}
	if d.requests != nil {
		attrs := append(telemetry.ResultAttributes(result), telemetry.AttrLanguage.String(lang))
		d.requests.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	}
}
