package registry

import (
	"github.com/coachpo/eobrowser/internal/domain/ranking"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
)

// Entry is a catalog service resolved for display.
type Entry struct {
	Key            string           `json:"key"`
	Kind           string           `json:"kind"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	URL            string           `json:"url"`
	DefaultQuery   string           `json:"defaultQuery"`
	Type           service.Type     `json:"type"`
	Protocol       service.Protocol `json:"protocol"`
	SelectionCount int              `json:"selectionCount"`
	FailureCount   int              `json:"failureCount"`
	Disabled       bool             `json:"isDisabled"`
	Locked         bool             `json:"isLocked"`
	Interactive    bool             `json:"interactive"`
	Active         bool             `json:"active"`
	// Translating is set while a custom description has no cached translation for the language.
	Translating bool `json:"translating"`
	// SourceDescription is the untranslated custom description.
	SourceDescription string `json:"-"`
}

// View is the ordered, filtered catalog plus the state needed to render it.
type View struct {
	Version         uint64          `json:"version"`
	Language        string          `json:"language"`
	ServiceURL      string          `json:"serviceUrl"`
	Query           string          `json:"query"`
	Manual          bool            `json:"isManuallySorted"`
	Filters         ranking.Filters `json:"filters"`
	Protocols       []string        `json:"protocols"`
	MaxFailureCount int             `json:"maxFailureCount"`
	Total           int             `json:"total"`
	Services        []Entry         `json:"services"`
}

// View returns the display model: effective order, then filters.
func (r *Registry) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.state
	visible := s.Visible()
	ordered := ranking.Order(s)
	filtered := ranking.Apply(ordered, r.filters, s)
	return View{
		Version:         r.version,
		Language:        s.Language,
		ServiceURL:      s.ServiceURL,
		Query:           s.Query,
		Manual:          s.IsManuallySorted,
		Filters:         r.filters,
		Protocols:       ranking.Protocols(visible),
		MaxFailureCount: ranking.MaxFailureCount(visible, s.FailureCounts),
		Total:           len(visible),
		Services:        r.entries(s, filtered),
	}
}

// Ordered returns every visible service in display order, ignoring filters.
func (r *Registry) Ordered() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries(r.state, ranking.Order(r.state))
}

func (r *Registry) entries(s settings.Settings, services []service.Service) []Entry {
	out := make([]Entry, 0, len(services))
	for _, svc := range services {
		out = append(out, r.entry(s, svc))
	}
	return out
}

func (r *Registry) entry(s settings.Settings, svc service.Service) Entry {
	url := svc.URL()
	disabled := s.IsDisabled(url)
	locked := s.IsLocked(url)
	name, description := r.resolve(s.Language, svc)
	e := Entry{
		Key:               svc.Key(),
		Kind:              svc.Kind().String(),
		Name:              name,
		Description:       description,
		URL:               url,
		DefaultQuery:      svc.DefaultQuery(),
		Type:              svc.Type(),
		Protocol:          svc.Protocol(),
		SelectionCount:    s.SelectionCounts[url],
		FailureCount:      s.FailureCounts[url],
		Disabled:          disabled,
		Locked:            locked,
		Interactive:       !disabled && !locked,
		Active:            url == s.ServiceURL,
		Translating:       false,
		SourceDescription: description,
	}
	if svc.IsCustom() && description != "" && s.Language != settings.DefaultLanguage {
		if translated, ok := s.Translation(url, s.Language); ok {
			if translated != "" {
				e.Description = translated
			}
		} else {
			e.Translating = true
		}
	}
	return e
}

// Capture returns, from one consistent read, the settings record in its stored form and every
// visible service in display order. The manual order is stored only while manual sorting is on.
func (r *Registry) Capture() (settings.Settings, []Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ordered := ranking.Order(r.state)
	stored := r.state.Clone()
	if stored.IsManuallySorted {
		stored.DisplayedServiceURLs = service.URLs(ordered)
	} else {
		stored.DisplayedServiceURLs = []string{}
	}
	return stored, r.entries(r.state, ordered)
}
