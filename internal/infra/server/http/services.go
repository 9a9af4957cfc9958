package httpserver

import (
	"net/http"

	"github.com/coachpo/eobrowser/internal/domain/ranking"
	"github.com/coachpo/eobrowser/internal/domain/service"
)

type urlPayload struct {
	URL string `json:"url"`
}

type reorderPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type sortModePayload struct {
	Manual bool `json:"manual"`
}

type languagePayload struct {
	Language string `json:"language"`
}

type targetPayload struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

func (s *httpServer) listServices(w http.ResponseWriter, _ *http.Request) {
	view := s.registry.View()
	if s.translations != nil {
		s.translations.Prefetch(view)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *httpServer) addService(w http.ResponseWriter, r *http.Request) {
	var fields service.Fields
	if !decodeJSON(w, r, &fields) {
		return
	}
	created, err := s.registry.Add(fields)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *httpServer) editService(w http.ResponseWriter, r *http.Request) {
	var fields service.Fields
	if !decodeJSON(w, r, &fields) {
		return
	}
	updated, err := s.registry.Edit(trimmedParam(r, "key"), fields)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *httpServer) deleteService(w http.ResponseWriter, r *http.Request) {
	key := trimmedParam(r, "key")
	if err := s.registry.Delete(key); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "key": key})
}

func (s *httpServer) cloneService(w http.ResponseWriter, r *http.Request) {
	draft, err := s.registry.Clone(trimmedParam(r, "key"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (s *httpServer) listDrafts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"drafts": s.registry.Drafts()})
}

func (s *httpServer) discardDraft(w http.ResponseWriter, r *http.Request) {
	id := trimmedParam(r, "id")
	if err := s.registry.DiscardDraft(id); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded", "id": id})
}

func (s *httpServer) selectService(w http.ResponseWriter, r *http.Request) {
	var payload urlPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := s.registry.Select(payload.URL); err != nil {
		writeFailure(w, err)
		return
	}
	url, q := s.registry.Target()
	writeJSON(w, http.StatusOK, targetPayload{URL: url, Query: q})
}

func (s *httpServer) toggleDisabled(w http.ResponseWriter, r *http.Request) {
	var payload urlPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	disabled, err := s.registry.ToggleDisabled(payload.URL)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": payload.URL, "disabled": disabled})
}

func (s *httpServer) toggleLocked(w http.ResponseWriter, r *http.Request) {
	var payload urlPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	locked, err := s.registry.ToggleLocked(payload.URL)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": payload.URL, "locked": locked})
}

func (s *httpServer) resetFailures(w http.ResponseWriter, r *http.Request) {
	var payload urlPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := s.registry.ResetFailureCount(payload.URL); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": payload.URL, "filters": s.registry.Filters()})
}

func (s *httpServer) reorder(w http.ResponseWriter, r *http.Request) {
	var payload reorderPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := s.registry.Reorder(payload.From, payload.To); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.View())
}

func (s *httpServer) setSortMode(w http.ResponseWriter, r *http.Request) {
	var payload sortModePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	s.registry.SetSortMode(payload.Manual)
	writeJSON(w, http.StatusOK, s.registry.View())
}

func (s *httpServer) getFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Filters())
}

func (s *httpServer) setFilters(w http.ResponseWriter, r *http.Request) {
	var filters ranking.Filters
	if !decodeJSON(w, r, &filters) {
		return
	}
	if err := s.registry.SetFilters(filters); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Filters())
}

func (s *httpServer) clearFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ClearFilters())
}

func (s *httpServer) setLanguage(w http.ResponseWriter, r *http.Request) {
	var payload languagePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := s.registry.SetLanguage(payload.Language); err != nil {
		writeFailure(w, err)
		return
	}
	view := s.registry.View()
	if s.translations != nil {
		s.translations.Prefetch(view)
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": view.Language})
}

func (s *httpServer) setTarget(w http.ResponseWriter, r *http.Request) {
	var payload targetPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	s.registry.SetTarget(payload.URL, payload.Query)
	url, q := s.registry.Target()
	writeJSON(w, http.StatusOK, targetPayload{URL: url, Query: q})
}
