// Package httpserver exposes the explorer's control plane over HTTP.
package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/coachpo/eobrowser/errs"
	"github.com/coachpo/eobrowser/internal/app/query"
	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/app/translate"
	"github.com/coachpo/eobrowser/internal/app/workspace"
	"github.com/coachpo/eobrowser/internal/infra/config"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/observability"
)

const (
	maxJSONBodyBytes   int64 = 1 << 20 // 1 MiB
	maxImportBodyBytes int64 = 8 << 20

	exportFilename = "eob-settings.json"
)

// Deps are the components served by the handler. Translations, ConfigStore and Events may be nil.
type Deps struct {
	Registry     *registry.Registry
	Workspace    *workspace.Workspace
	Query        *query.Executor
	Translations *translate.Dispatcher
	Languages    *i18n.Translator
	ConfigStore  *config.AppConfigStore
	Events       *Hub
	Logger       observability.Logger
}

type httpServer struct {
	registry     *registry.Registry
	workspace    *workspace.Workspace
	query        *query.Executor
	translations *translate.Dispatcher
	languages    *i18n.Translator
	configStore  *config.AppConfigStore
	logger       observability.Logger
}

// NewHandler builds the router.
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = observability.Log()
	}
	languages := deps.Languages
	if languages == nil {
		languages = i18n.New()
	}
	s := &httpServer{
		registry:     deps.Registry,
		workspace:    deps.Workspace,
		query:        deps.Query,
		translations: deps.Translations,
		languages:    languages,
		configStore:  deps.ConfigStore,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.Get("/healthz", s.healthz)
	r.Get("/languages", s.listLanguages)
	r.Get("/config", s.getConfig)

	r.Route("/services", func(r chi.Router) {
		r.Get("/", s.listServices)
		r.Post("/", s.addService)
		r.Post("/actions/select", s.selectService)
		r.Post("/actions/disable", s.toggleDisabled)
		r.Post("/actions/lock", s.toggleLocked)
		r.Post("/actions/reset-failures", s.resetFailures)
		r.Put("/{key}", s.editService)
		r.Delete("/{key}", s.deleteService)
		r.Post("/{key}/clone", s.cloneService)
	})
	r.Get("/drafts", s.listDrafts)
	r.Delete("/drafts/{id}", s.discardDraft)

	r.Post("/order/reorder", s.reorder)
	r.Put("/order/mode", s.setSortMode)

	r.Get("/filters", s.getFilters)
	r.Put("/filters", s.setFilters)
	r.Post("/filters/clear", s.clearFilters)

	r.Put("/language", s.setLanguage)
	r.Put("/target", s.setTarget)

	r.Post("/query", s.runQuery)
	r.Get("/query/latest", s.latestQuery)

	r.Route("/settings", func(r chi.Router) {
		r.Post("/save", s.saveSettings)
		r.Post("/restore", s.restoreSettings)
		r.Post("/reset", s.resetSettings)
		r.Post("/clear", s.clearSettings)
		r.Get("/export", s.exportSettings)
		r.Post("/import", s.importSettings)
	})

	if deps.Events != nil {
		r.Get("/events", deps.Events.ServeHTTP)
	}

	origins := []string{"*"}
	if deps.ConfigStore != nil {
		origins = deps.ConfigStore.Snapshot().APIServer.AllowedOrigins
	}
	return withCORS(origins, r)
}

func (s *httpServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": s.registry.Version()})
}

func (s *httpServer) listLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current":   s.registry.Language(),
		"languages": s.languages.Languages(),
	})
}

func (s *httpServer) getConfig(w http.ResponseWriter, _ *http.Request) {
	if s.configStore == nil {
		writeError(w, http.StatusNotFound, "configuration not available")
		return
	}
	writeJSON(w, http.StatusOK, s.configStore.Snapshot().Redacted())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": message})
}

// writeFailure renders err using its envelope when it carries one.
func writeFailure(w http.ResponseWriter, err error) {
	env, ok := errs.As(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body := map[string]string{"status": "error", "error": env.Message, "code": string(env.Code)}
	if env.Details != "" {
		body["details"] = env.Details
	}
	if body["error"] == "" {
		body["error"] = string(env.Code)
	}
	writeJSON(w, env.Status(), body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer func() {
		_ = r.Body.Close()
	}()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read payload: %v", err))
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		writeError(w, http.StatusBadRequest, "request body required")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode payload: %v", err))
		return false
	}
	return true
}

func withCORS(origins []string, handler http.Handler) http.Handler {
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func trimmedParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(raw)
}
