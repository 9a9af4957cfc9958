// Package query executes the active query against a remote OData or REST service.
package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/eobrowser/errs"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/infra/telemetry"
	"github.com/coachpo/eobrowser/internal/observability"
)

const (
	component              = "query"
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseSize = 16 << 20
)

// Catalog is the slice of the registry the executor depends on.
type Catalog interface {
	Target() (string, string)
	Language() string
	RecordFailure(url string) bool
}

// Localizer resolves user-facing strings.
type Localizer interface {
	T(lang, key string, params map[string]string) string
}

// Request names the service URL and resource path. Empty fields fall back to the active target.
type Request struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

// Failure is the user-facing error pair.
type Failure struct {
	Summary string `json:"summary"`
	Details string `json:"details"`
}

// Result is the outcome of one execution.
type Result struct {
	Generation  uint64          `json:"generation"`
	URL         string          `json:"url"`
	Status      int             `json:"status,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       *Failure        `json:"error,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Config tunes the executor.
type Config struct {
	Timeout          time.Duration
	MaxResponseBytes int64
}

// Executor issues remote queries and feeds failures back into the catalog ranking.
type Executor struct {
	client    *http.Client
	catalog   Catalog
	localizer Localizer
	logger    observability.Logger
	maxBody   int64

	generation atomic.Uint64
	mu         sync.RWMutex
	latest     *Result

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewExecutor constructs an executor. A nil client gets a client with the configured timeout.
func NewExecutor(cfg Config, catalog Catalog, client *http.Client, localizer Localizer, logger observability.Logger) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = defaultMaxResponseSize
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if localizer == nil {
		localizer = i18n.New()
	}
	if logger == nil {
		logger = observability.Log()
	}
	e := &Executor{
		client:    client,
		catalog:   catalog,
		localizer: localizer,
		logger:    logger,
		maxBody:   maxBody,
	}
	meter := otel.Meter("query")
	e.requests, _ = meter.Int64Counter("eob.query.requests",
		metric.WithDescription("Remote query executions"),
		metric.WithUnit("{request}"))
	e.duration, _ = meter.Float64Histogram("eob.query.duration",
		metric.WithDescription("Remote query duration"),
		metric.WithUnit("ms"))
	return e
}

// ComposeURL joins a service URL and a resource path with exactly one slash.
func ComposeURL(serviceURL, query string) string {
	base := strings.TrimSpace(serviceURL)
	base = strings.TrimSuffix(base, "/")
	path := strings.TrimSpace(query)
	path = strings.TrimPrefix(path, "/")
	return base + "/" + path
}

// Execute runs the request. On failure the returned error is an *errs.E whose Message is the
// summary and Details the diagnostic text; the Result carries the same pair.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	activeURL, activeQuery := e.catalog.Target()
	serviceURL := req.URL
	if strings.TrimSpace(serviceURL) == "" {
		serviceURL = activeURL
	}
	query := req.Query
	if strings.TrimSpace(req.URL) == "" && query == "" {
		query = activeQuery
	}

	gen := e.generation.Add(1)
	started := time.Now()
	trimmed := strings.TrimSpace(serviceURL)
	result := Result{
		Generation: gen,
		URL:        ComposeURL(serviceURL, query),
		StartedAt:  started.UTC(),
	}

	status, data, err := e.fetch(ctx, trimmed, result.URL)
	result.Status = status
	result.CompletedAt = time.Now().UTC()
	e.observe(ctx, started, err)

	if err != nil {
		env, _ := errs.As(err)
		result.Error = &Failure{Summary: env.Message, Details: env.Details}
		if e.catalog.RecordFailure(trimmed) {
			e.logger.Info("query failure counted against service", observability.F("url", trimmed))
		}
		e.logger.Warn("query failed",
			observability.F("url", result.URL),
			observability.F("status", status),
			observability.F("summary", env.Message))
		e.publish(result)
		return result, err
	}
	result.Data = data
	e.publish(result)
	return result, nil
}

// Latest returns the result of the most recently started execution once it has completed.
func (e *Executor) Latest() (Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latest == nil {
		return Result{}, false
	}
	return *e.latest, true
}

// Pending reports whether the most recently started execution is still running.
func (e *Executor) Pending() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	current := e.generation.Load()
	return current > 0 && (e.latest == nil || e.latest.Generation != current)
}

func (e *Executor) publish(result Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if result.Generation != e.generation.Load() {
		return
	}
	stored := result
	e.latest = &stored
}

func (e *Executor) fetch(ctx context.Context, trimmedURL, fullURL string) (int, json.RawMessage, error) {
	lang := e.catalog.Language()
	if !strings.HasPrefix(trimmedURL, "http") {
		msg := e.localizer.T(lang, i18n.KeyInvalidURL, nil)
		return 0, nil, errs.New(component, errs.CodeInvalid, errs.WithMessage(msg), errs.WithDetails(msg))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, nil, e.networkError(lang, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return 0, nil, e.networkError(lang, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return resp.StatusCode, nil, e.networkError(lang, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, e.remoteError(lang, resp, body)
	}
	if !gjson.ValidBytes(body) {
		cause := fmt.Errorf("response is not valid JSON")
		return resp.StatusCode, nil, errs.New(component, errs.CodeRemote,
			errs.WithMessage(e.localizer.T(lang, i18n.KeyNetworkError, nil)),
			errs.WithDetails(cause.Error()),
			errs.WithCause(cause))
	}
	return resp.StatusCode, unwrapValue(body), nil
}

func (e *Executor) networkError(lang string, err error) error {
	return errs.New(component, errs.CodeNetwork,
		errs.WithMessage(e.localizer.T(lang, i18n.KeyNetworkError, nil)),
		errs.WithDetails(err.Error()),
		errs.WithCause(err))
}

func (e *Executor) remoteError(lang string, resp *http.Response, body []byte) error {
	status := strconv.Itoa(resp.StatusCode)
	summary := e.localizer.T(lang, i18n.KeyHTTPError, map[string]string{"status": status})
	details := statusLine(resp)

	if gjson.ValidBytes(body) {
		message := gjson.GetBytes(body, "error.message")
		switch {
		case message.Type == gjson.String && strings.TrimSpace(message.Str) != "":
			summary = message.Str
		case message.IsObject():
			if value := message.Get("value"); value.Type == gjson.String {
				summary = value.Str
			}
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			details = pretty.String()
		}
	} else if len(bytes.TrimSpace(body)) > 0 {
		details = string(body)
	}

	return errs.New(component, errs.CodeRemote,
		errs.WithMessage(summary),
		errs.WithDetails(details),
		errs.WithCause(errors.New("remote status "+status)))
}

func statusLine(resp *http.Response) string {
	text := http.StatusText(resp.StatusCode)
	if parts := strings.SplitN(resp.Status, " ", 2); len(parts) == 2 && parts[1] != "" {
		text = parts[1]
	}
	return strings.TrimSpace(strconv.Itoa(resp.StatusCode) + " " + text)
}

// unwrapValue returns the value field when it is present and truthy, else the whole document.
func unwrapValue(body []byte) json.RawMessage {
	value := gjson.GetBytes(body, "value")
	if value.Exists() && truthy(value) {
		return json.RawMessage(value.Raw)
	}
	return json.RawMessage(bytes.TrimSpace(body))
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	default:
		return true
	}
}

func (e *Executor) observe(ctx context.Context, started time.Time, err error) {
	result := telemetry.ResultSuccess
	if err != nil {
		result = string(errs.CodeOf(err))
	}
	attrs := metric.WithAttributes(telemetry.ResultAttributes(result)...)
	if e.requests != nil {
		e.requests.Add(ctx, 1, attrs)
	}
	if e.duration != nil {
		e.duration.Record(ctx, float64(time.Since(started).Microseconds())/1000, attrs)
	}
}
