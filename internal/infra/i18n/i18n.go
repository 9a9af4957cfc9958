// Package i18n resolves user-facing strings for the supported languages.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/coachpo/eobrowser/internal/domain/settings"
)

// Language describes a supported language for selection menus.
type Language struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
}

// Translator looks up localized strings.
type Translator struct {
	tables  map[string]map[string]string
	matcher language.Matcher
}

// New returns a translator backed by the compiled-in tables.
func New() *Translator {
	return &Translator{
		tables:  tables,
		matcher: language.NewMatcher(settings.SupportedLanguages()),
	}
}

// T resolves key in lang, falling back to English and finally to the key itself.
// Placeholders of the form {name} are replaced from params.
func (t *Translator) T(lang, key string, params map[string]string) string {
	text, ok := t.tables[lang][key]
	if !ok {
		text, ok = t.tables[settings.DefaultLanguage][key]
	}
	if !ok {
		text = key
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// Languages lists the supported languages with their native and English names.
func (t *Translator) Languages() []Language {
	tags := settings.SupportedLanguages()
	out := make([]Language, 0, len(tags))
	english := display.English.Languages()
	for _, tag := range tags {
		out = append(out, Language{
			Code:        tag.String(),
			Name:        display.Self.Name(tag),
			EnglishName: english.Name(tag),
		})
	}
	return out
}

// EnglishName returns the English name of the language code, or the code when unknown.
func (t *Translator) EnglishName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// Match picks the best supported language for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return settings.DefaultLanguage
	}
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return settings.DefaultLanguage
	}
	return settings.SupportedLanguages()[index].String()
}
