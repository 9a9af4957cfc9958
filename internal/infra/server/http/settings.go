package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/coachpo/eobrowser/internal/app/query"
)

func (s *httpServer) runQuery(w http.ResponseWriter, r *http.Request) {
	var payload query.Request
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &payload) {
			return
		}
	}
	result, err := s.query.Execute(r.Context(), payload)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *httpServer) latestQuery(w http.ResponseWriter, _ *http.Request) {
	result, ok := s.query.Latest()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"pending": s.query.Pending(), "result": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": s.query.Pending(), "result": result})
}

func (s *httpServer) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.Save(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *httpServer) restoreSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.Restore(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.View())
}

func (s *httpServer) resetSettings(w http.ResponseWriter, _ *http.Request) {
	s.workspace.Reset()
	writeJSON(w, http.StatusOK, s.registry.View())
}

func (s *httpServer) clearSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.ClearSaved(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.View())
}

func (s *httpServer) exportSettings(w http.ResponseWriter, _ *http.Request) {
	payload, err := s.workspace.ExportJSON()
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *httpServer) importSettings(w http.ResponseWriter, r *http.Request) {
	defer func() {
		_ = r.Body.Close()
	}()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read payload: %v", err))
		return
	}
	if err := s.workspace.Import(data); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.View())
}
