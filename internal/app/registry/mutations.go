package registry

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/coachpo/eobrowser/errs"
	"github.com/coachpo/eobrowser/internal/domain/ranking"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/observability"
)

// Add validates fields and appends a new custom service.
func (r *Registry) Add(fields service.Fields) (service.Custom, error) {
	var created service.Custom
	err := r.commit("add", func(tx *txn) error {
		c, err := r.insert(tx, service.NewID(), fields)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return service.Custom{}, err
	}
	r.logger.Info("service added", observability.F("id", created.ID), observability.F("url", created.URL))
	return created, nil
}

// insert appends a validated custom service with a known id and clears the filters.
func (r *Registry) insert(tx *txn, id string, fields service.Fields) (service.Custom, error) {
	f := fields.Normalised()
	if err := r.validate(tx.state, f, ""); err != nil {
		return service.Custom{}, err
	}
	c := f.ToCustom(id)
	tx.state.CustomServices = append(tx.state.CustomServices, c)
	tx.state.SelectionCounts[c.URL] = 0
	tx.state.FailureCounts[c.URL] = 0
	delete(tx.state.TranslatedDescriptions, c.URL)
	tx.state.DisplayedServiceURLs = appendUnique(removeString(tx.state.DisplayedServiceURLs, c.URL), c.URL)
	tx.clearFilters()
	return c, nil
}

// Edit updates the service identified by key. Editing a preset hides it and creates an
// equivalent custom service; editing a clone draft commits it.
func (r *Registry) Edit(key string, fields service.Fields) (service.Custom, error) {
	var updated service.Custom
	err := r.commit("edit", func(tx *txn) error {
		if _, ok := tx.drafts[key]; ok {
			c, err := r.insert(tx, key, fields)
			if err != nil {
				return err
			}
			delete(tx.drafts, key)
			tx.draftOrder = removeString(tx.draftOrder, key)
			updated = c
			return nil
		}

		target, ok := service.FindByKey(tx.state.Visible(), key)
		if !ok {
			return errs.NotFound(component, "service "+strconv.Quote(key)+" not found")
		}
		f := fields.Normalised()
		if err := r.validate(tx.state, f, key); err != nil {
			return err
		}

		oldURL := target.URL()
		descriptionChanged := true
		if preset, isPreset := target.Preset(); isPreset {
			tx.state.HiddenPresetNameKeys = appendUnique(tx.state.HiddenPresetNameKeys, preset.NameKey)
			updated = f.ToCustom(service.NewID())
			tx.state.CustomServices = append(tx.state.CustomServices, updated)
		} else {
			existing, _ := target.Custom()
			descriptionChanged = existing.Description != f.Description
			updated = f.ToCustom(existing.ID)
			for i := range tx.state.CustomServices {
				if tx.state.CustomServices[i].ID == existing.ID {
					tx.state.CustomServices[i] = updated
					break
				}
			}
		}

		if oldURL != updated.URL {
			renameURL(&tx.state, oldURL, updated.URL)
		}
		if descriptionChanged {
			delete(tx.state.TranslatedDescriptions, updated.URL)
		}
		if _, ok := tx.state.SelectionCounts[updated.URL]; !ok {
			tx.state.SelectionCounts[updated.URL] = 0
		}
		if _, ok := tx.state.FailureCounts[updated.URL]; !ok {
			tx.state.FailureCounts[updated.URL] = 0
		}
		if !slices.Contains(tx.state.DisplayedServiceURLs, updated.URL) {
			tx.state.DisplayedServiceURLs = append(tx.state.DisplayedServiceURLs, updated.URL)
		}
		tx.clearFilters()
		return nil
	})
	if err != nil {
		return service.Custom{}, err
	}
	r.logger.Info("service edited", observability.F("key", key), observability.F("id", updated.ID), observability.F("url", updated.URL))
	return updated, nil
}

// Delete removes a custom service or hides a preset, purging its URL from all per-URL state.
func (r *Registry) Delete(key string) error {
	var removedURL string
	err := r.commit("delete", func(tx *txn) error {
		target, ok := service.FindByKey(tx.state.Visible(), key)
		if !ok {
			return errs.NotFound(component, "service "+strconv.Quote(key)+" not found")
		}
		if preset, isPreset := target.Preset(); isPreset {
			tx.state.HiddenPresetNameKeys = appendUnique(tx.state.HiddenPresetNameKeys, preset.NameKey)
		} else {
			tx.state.CustomServices = slices.DeleteFunc(tx.state.CustomServices, func(c service.Custom) bool {
				return c.ID == key
			})
		}
		removedURL = target.URL()
		purgeURL(&tx.state, removedURL)
		if tx.state.ServiceURL == removedURL {
			first := service.FirstPreset()
			tx.state.ServiceURL = first.URL
			tx.state.Query = first.DefaultQuery
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("service deleted", observability.F("key", key), observability.F("url", removedURL))
	return nil
}

// Clone opens an edit draft copied from the source service with an empty URL.
// Drafts are not part of the catalog until committed through Edit.
func (r *Registry) Clone(key string) (service.Custom, error) {
	var draft service.Custom
	err := r.commit("clone", func(tx *txn) error {
		source, ok := service.FindByKey(tx.state.Visible(), key)
		if !ok {
			return errs.NotFound(component, "service "+strconv.Quote(key)+" not found")
		}
		lang := tx.state.Language
		name, description := r.resolve(lang, source)
		draft = service.Custom{
			ID:           service.NewID(),
			Name:         r.localizer.T(lang, i18n.KeyClonePrefix, nil) + name,
			URL:          "",
			DefaultQuery: source.DefaultQuery(),
			Description:  description,
			Type:         source.Type(),
			Protocol:     source.Protocol(),
		}
		tx.drafts[draft.ID] = draft
		tx.draftOrder = append(tx.draftOrder, draft.ID)
		return nil
	})
	if err != nil {
		return service.Custom{}, err
	}
	return draft, nil
}

// Drafts lists open clone drafts in creation order.
func (r *Registry) Drafts() []service.Custom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]service.Custom, 0, len(r.draftOrder))
	for _, id := range r.draftOrder {
		out = append(out, r.drafts[id])
	}
	return out
}

// DiscardDraft drops an open clone draft.
func (r *Registry) DiscardDraft(id string) error {
	return r.commit("discard_draft", func(tx *txn) error {
		if _, ok := tx.drafts[id]; !ok {
			return errs.NotFound(component, "draft "+strconv.Quote(id)+" not found")
		}
		delete(tx.drafts, id)
		tx.draftOrder = removeString(tx.draftOrder, id)
		return nil
	})
}

// ToggleDisabled flips the disabled flag of url and returns the new value.
// A locked service cannot become disabled.
func (r *Registry) ToggleDisabled(url string) (bool, error) {
	var disabled bool
	err := r.commit("toggle_disabled", func(tx *txn) error {
		if _, ok := service.FindByURL(tx.state.Visible(), url); !ok {
			return errs.NotFound(component, "service "+strconv.Quote(url)+" not found")
		}
		if tx.state.IsDisabled(url) {
			tx.state.DisabledServices = removeString(tx.state.DisabledServices, url)
			disabled = false
			return nil
		}
		if tx.state.IsLocked(url) {
			return errs.Conflict(component, "a locked service cannot be disabled")
		}
		tx.state.DisabledServices = append(tx.state.DisabledServices, url)
		disabled = true
		return nil
	})
	return disabled, err
}

// ToggleLocked flips the locked flag of url and returns the new value.
// A disabled service cannot become locked.
func (r *Registry) ToggleLocked(url string) (bool, error) {
	var locked bool
	err := r.commit("toggle_locked", func(tx *txn) error {
		if _, ok := service.FindByURL(tx.state.Visible(), url); !ok {
			return errs.NotFound(component, "service "+strconv.Quote(url)+" not found")
		}
		if tx.state.IsLocked(url) {
			tx.state.LockedServices = removeString(tx.state.LockedServices, url)
			locked = false
			return nil
		}
		if tx.state.IsDisabled(url) {
			return errs.Conflict(component, "a disabled service cannot be locked")
		}
		tx.state.LockedServices = append(tx.state.LockedServices, url)
		locked = true
		return nil
	})
	return locked, err
}

// ResetFailureCount zeroes the failure count of url. When the filter ceiling equals the old
// maximum it follows the new maximum.
func (r *Registry) ResetFailureCount(url string) error {
	return r.commit("reset_failures", func(tx *txn) error {
		visible := tx.state.Visible()
		if _, ok := service.FindByURL(visible, url); !ok {
			return errs.NotFound(component, "service "+strconv.Quote(url)+" not found")
		}
		oldMax := ranking.MaxFailureCount(visible, tx.state.FailureCounts)
		tx.state.FailureCounts[url] = 0
		if strconv.Itoa(oldMax) == tx.filters.MaxRanking {
			tx.filters.MaxRanking = strconv.Itoa(ranking.MaxFailureCount(visible, tx.state.FailureCounts))
		}
		return nil
	})
}

// Select makes a visible, interactive service the active target. The selection count grows
// only when the active URL actually changes.
func (r *Registry) Select(url string) error {
	return r.commit("select", func(tx *txn) error {
		svc, ok := service.FindByURL(tx.state.Visible(), url)
		if !ok {
			return errs.NotFound(component, "service "+strconv.Quote(url)+" not found")
		}
		if err := requireInteractive(tx.state, svc); err != nil {
			return err
		}
		if tx.state.ServiceURL != url {
			tx.state.SelectionCounts[url]++
		}
		tx.state.ServiceURL = url
		tx.state.Query = svc.DefaultQuery()
		return nil
	})
}

// SetTarget sets a free-form active URL and query without touching any counts.
func (r *Registry) SetTarget(url, query string) {
	_ = r.commit("set_target", func(tx *txn) error {
		tx.state.ServiceURL = url
		tx.state.Query = query
		return nil
	})
}

// RecordFailure counts a failed query against url when it belongs to the visible catalog and
// raises the filter ceiling if the failing service would otherwise be hidden.
// It reports whether a catalog entry matched.
func (r *Registry) RecordFailure(url string) bool {
	matched := false
	_ = r.commit("record_failure", func(tx *txn) error {
		if _, ok := service.FindByURL(tx.state.Visible(), url); !ok {
			tx.touched = false
			return nil
		}
		matched = true
		tx.state.FailureCounts[url]++
		count := tx.state.FailureCounts[url]
		if ceiling, ok := tx.filters.Ceiling(); ok && count > ceiling {
			tx.filters.MaxRanking = strconv.Itoa(count)
		}
		return nil
	})
	if matched {
		if r.failureCounter != nil {
			r.failureCounter.Add(context.Background(), 1)
		}
		r.logger.Info("service failure recorded", observability.F("url", url))
	}
	return matched
}

// Reorder moves the service at index from to index to within the filtered display list,
// stores the resulting order and switches to manual sorting. Services hidden by the filters
// keep their relative order after the moved list.
func (r *Registry) Reorder(from, to int) error {
	return r.commit("reorder", func(tx *txn) error {
		ordered := ranking.Order(tx.state)
		shown := ranking.Apply(ordered, tx.filters, tx.state)
		if from < 0 || from >= len(shown) || to < 0 || to >= len(shown) {
			return errs.Invalid(component, "reorder index out of range")
		}
		if err := requireInteractive(tx.state, shown[from]); err != nil {
			return err
		}
		moved := ranking.Move(service.URLs(shown), from, to)
		for _, url := range service.URLs(ordered) {
			if !slices.Contains(moved, url) {
				moved = append(moved, url)
			}
		}
		tx.state.DisplayedServiceURLs = moved
		tx.state.IsManuallySorted = true
		return nil
	})
}

// SetSortMode switches between manual and automatic ordering. Entering manual mode without a
// stored order captures the current automatic order.
func (r *Registry) SetSortMode(manual bool) {
	_ = r.commit("sort_mode", func(tx *txn) error {
		if manual && !tx.state.IsManuallySorted && len(tx.state.DisplayedServiceURLs) == 0 {
			tx.state.DisplayedServiceURLs = service.URLs(ranking.Order(tx.state))
		}
		tx.state.IsManuallySorted = manual
		return nil
	})
}

// SetLanguage changes the UI language.
func (r *Registry) SetLanguage(code string) error {
	return r.commit("language", func(tx *txn) error {
		if !settings.IsSupportedLanguage(code) {
			return errs.Invalid(component, "unsupported language "+strconv.Quote(code))
		}
		tx.state.Language = code
		return nil
	})
}

// SetFilters replaces the filters. Empty dimensions default to all.
func (r *Registry) SetFilters(f ranking.Filters) error {
	f = withDefaults(f)
	if err := f.Validate(); err != nil {
		return errs.Invalid(component, err.Error())
	}
	return r.commit("filters", func(tx *txn) error {
		tx.filters = f
		return nil
	})
}

// ClearFilters opens every dimension and sets the ceiling to the observed maximum.
func (r *Registry) ClearFilters() ranking.Filters {
	var out ranking.Filters
	_ = r.commit("clear_filters", func(tx *txn) error {
		tx.clearFilters()
		out = tx.filters
		return nil
	})
	return out
}

// Translation returns the cached translation for url in lang.
func (r *Registry) Translation(url, lang string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Translation(url, lang)
}

// StoreTranslation caches a translated description. It reports false when the URL left the
// catalog while the translation was in flight.
func (r *Registry) StoreTranslation(url, lang, text string) bool {
	stored := false
	_ = r.commit("translation", func(tx *txn) error {
		if _, ok := service.FindByURL(tx.state.Visible(), url); !ok {
			tx.touched = false
			return nil
		}
		stored = true
		byLang, ok := tx.state.TranslatedDescriptions[url]
		if !ok {
			byLang = map[string]string{}
			tx.state.TranslatedDescriptions[url] = byLang
		}
		byLang[lang] = text
		return nil
	})
	return stored
}

func (r *Registry) validate(s settings.Settings, f service.Fields, exclude string) error {
	lang := s.Language
	if f.Name == "" || f.URL == "" {
		return errs.Invalid(component, r.localizer.T(lang, i18n.KeyRequiredFields, nil))
	}
	if !isHTTPURL(f.URL) {
		return errs.Invalid(component, r.localizer.T(lang, i18n.KeyURLScheme, nil))
	}
	for _, svc := range s.Visible() {
		if svc.URL() == f.URL && (exclude == "" || svc.Key() != exclude) {
			return errs.Invalid(component, r.localizer.T(lang, i18n.KeyURLExists, nil))
		}
	}
	return nil
}

func (r *Registry) resolve(lang string, svc service.Service) (string, string) {
	if preset, ok := svc.Preset(); ok {
		return r.localizer.T(lang, preset.NameKey, nil), r.localizer.T(lang, preset.DescriptionKey, nil)
	}
	c, _ := svc.Custom()
	return c.Name, c.Description
}

func requireInteractive(s settings.Settings, svc service.Service) error {
	if s.IsLocked(svc.URL()) {
		return errs.Conflict(component, "service is locked")
	}
	if s.IsDisabled(svc.URL()) {
		return errs.Conflict(component, "service is disabled")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Host != ""
}

func renameURL(s *settings.Settings, from, to string) {
	for _, counts := range []map[string]int{s.SelectionCounts, s.FailureCounts} {
		counts[to] = counts[from]
		delete(counts, from)
	}
	if cached, ok := s.TranslatedDescriptions[from]; ok {
		s.TranslatedDescriptions[to] = cached
		delete(s.TranslatedDescriptions, from)
	}
	s.DisabledServices = replaceString(s.DisabledServices, from, to)
	s.LockedServices = replaceString(s.LockedServices, from, to)
	s.DisplayedServiceURLs = replaceString(s.DisplayedServiceURLs, from, to)
	if s.ServiceURL == from {
		s.ServiceURL = to
	}
}

func purgeURL(s *settings.Settings, url string) {
	delete(s.SelectionCounts, url)
	delete(s.FailureCounts, url)
	delete(s.TranslatedDescriptions, url)
	s.DisabledServices = removeString(s.DisabledServices, url)
	s.LockedServices = removeString(s.LockedServices, url)
	s.DisplayedServiceURLs = removeString(s.DisplayedServiceURLs, url)
}

func withDefaults(f ranking.Filters) ranking.Filters {
	if f.Type == "" {
		f.Type = ranking.All
	}
	if f.Status == "" {
		f.Status = ranking.All
	}
	if f.Lock == "" {
		f.Lock = ranking.All
	}
	if f.Protocol == "" {
		f.Protocol = ranking.All
	}
	return f
}

func appendUnique(list []string, value string) []string {
	if slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}

func removeString(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

// replaceString renames value in place, dropping later duplicates of the new name.
func replaceString(list []string, from, to string) []string {
	if !slices.Contains(list, from) {
		return list
	}
	out := make([]string, 0, len(list))
	seen := false
	for _, item := range list {
		if item == from {
			item = to
		}
		if item == to {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, item)
	}
	return out
}
