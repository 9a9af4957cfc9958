// Package settings defines the persisted settings aggregate and its defensive migration.
package settings

import (
	"slices"

	"golang.org/x/text/language"

	"github.com/coachpo/eobrowser/internal/domain/service"
)

// DefaultLanguage is the language used when none, or an unsupported one, is stored.
const DefaultLanguage = "en"

var supportedLanguages = []language.Tag{
	language.English,
	language.French,
	language.Italian,
	language.Chinese,
	language.Japanese,
}

// SupportedLanguages returns the language tags the explorer is localised for.
func SupportedLanguages() []language.Tag {
	return slices.Clone(supportedLanguages)
}

// IsSupportedLanguage reports whether code is exactly one of the supported base codes.
func IsSupportedLanguage(code string) bool {
	for _, tag := range supportedLanguages {
		if tag.String() == code {
			return true
		}
	}
	return false
}

// Settings is the whole persisted state of the explorer.
type Settings struct {
	Language               string                       `json:"language"`
	ServiceURL             string                       `json:"serviceUrl"`
	Query                  string                       `json:"query"`
	SelectionCounts        map[string]int               `json:"selectionCounts"`
	FailureCounts          map[string]int               `json:"failureCounts"`
	IsManuallySorted       bool                         `json:"isManuallySorted"`
	DisplayedServiceURLs   []string                     `json:"displayedServiceUrls"`
	DisabledServices       []string                     `json:"disabledServices"`
	CustomServices         []service.Custom             `json:"customServices"`
	TranslatedDescriptions map[string]map[string]string `json:"translatedDescriptions"`
	HiddenPresetNameKeys   []string                     `json:"hiddenPresetNameKeys"`
	LockedServices         []string                     `json:"lockedServices"`
}

// Default returns the canonical fresh settings record.
func Default() Settings {
	first := service.FirstPreset()
	s := Settings{
		Language:               DefaultLanguage,
		ServiceURL:             first.URL,
		Query:                  first.DefaultQuery,
		SelectionCounts:        map[string]int{},
		FailureCounts:          map[string]int{},
		IsManuallySorted:       false,
		DisplayedServiceURLs:   []string{},
		DisabledServices:       []string{},
		CustomServices:         service.DefaultCustoms(),
		TranslatedDescriptions: map[string]map[string]string{},
		HiddenPresetNameKeys:   []string{},
		LockedServices:         []string{},
	}
	s.ensureCounts()
	return s
}

// Visible returns the merged catalog minus hidden presets.
func (s Settings) Visible() []service.Service {
	return service.Merge(s.CustomServices, s.HiddenPresetNameKeys)
}

// All returns every preset, hidden or not, followed by the customs.
func (s Settings) All() []service.Service {
	return service.Merge(s.CustomServices, nil)
}

// IsDisabled reports whether url is in the disabled set.
func (s Settings) IsDisabled(url string) bool {
	return slices.Contains(s.DisabledServices, url)
}

// IsLocked reports whether url is in the locked set.
func (s Settings) IsLocked(url string) bool {
	return slices.Contains(s.LockedServices, url)
}

// IsHidden reports whether the preset name key is hidden.
func (s Settings) IsHidden(nameKey string) bool {
	return slices.Contains(s.HiddenPresetNameKeys, nameKey)
}

// Translation returns the cached translation for url in lang. ok is false when none was attempted.
func (s Settings) Translation(url, lang string) (string, bool) {
	byLang, ok := s.TranslatedDescriptions[url]
	if !ok {
		return "", false
	}
	text, ok := byLang[lang]
	return text, ok
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.SelectionCounts = cloneCounts(s.SelectionCounts)
	out.FailureCounts = cloneCounts(s.FailureCounts)
	out.DisplayedServiceURLs = cloneStrings(s.DisplayedServiceURLs)
	out.DisabledServices = cloneStrings(s.DisabledServices)
	out.HiddenPresetNameKeys = cloneStrings(s.HiddenPresetNameKeys)
	out.LockedServices = cloneStrings(s.LockedServices)
	out.CustomServices = make([]service.Custom, len(s.CustomServices))
	copy(out.CustomServices, s.CustomServices)
	out.TranslatedDescriptions = make(map[string]map[string]string, len(s.TranslatedDescriptions))
	for url, byLang := range s.TranslatedDescriptions {
		inner := make(map[string]string, len(byLang))
		for lang, text := range byLang {
			inner[lang] = text
		}
		out.TranslatedDescriptions[url] = inner
	}
	return out
}

// ensureCounts gives every catalog URL a selection and failure count entry.
func (s *Settings) ensureCounts() {
	for _, svc := range s.All() {
		url := svc.URL()
		if _, ok := s.SelectionCounts[url]; !ok {
			s.SelectionCounts[url] = 0
		}
		if _, ok := s.FailureCounts[url]; !ok {
			s.FailureCounts[url] = 0
		}
	}
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
