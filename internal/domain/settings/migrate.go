package settings

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/coachpo/eobrowser/internal/domain/service"
)

// Migrate converts an arbitrary decoded value into a complete settings record.
// It never fails: every field that is missing or has the wrong shape keeps its default.
// A Settings value is accepted too, so Migrate(Migrate(x)) equals Migrate(x).
func Migrate(raw any) Settings {
	switch typed := raw.(type) {
	case Settings:
		raw = generic(typed)
	case *Settings:
		if typed != nil {
			raw = generic(*typed)
		}
	}
	out := Default()
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}

	if v, ok := obj["language"].(string); ok && IsSupportedLanguage(v) {
		out.Language = v
	}
	if v, ok := obj["serviceUrl"].(string); ok {
		out.ServiceURL = v
	}
	if v, ok := obj["query"].(string); ok {
		out.Query = v
	}
	if v, ok := obj["isManuallySorted"].(bool); ok {
		out.IsManuallySorted = v
	}

	if v, ok := stringList(obj["displayedServiceUrls"]); ok {
		out.DisplayedServiceURLs = v
	}
	if v, ok := stringList(obj["disabledServices"]); ok {
		out.DisabledServices = v
	}
	if v, ok := stringList(obj["lockedServices"]); ok {
		out.LockedServices = v
	}
	if v, ok := stringList(obj["hiddenPresetNameKeys"]); ok {
		out.HiddenPresetNameKeys = v
	}

	if v, ok := countMap(obj["selectionCounts"]); ok {
		out.SelectionCounts = v
	}
	if v, ok := countMap(obj["failureCounts"]); ok {
		out.FailureCounts = v
	}

	if v, ok := obj["customServices"].([]any); ok {
		out.CustomServices = customList(v)
	}
	if v, ok := obj["translatedDescriptions"].(map[string]any); ok {
		out.TranslatedDescriptions = translationMap(v)
	}

	out.ensureCounts()
	return out
}

// Decode parses stored or imported bytes and migrates the result.
// Empty input yields defaults; unparseable input yields defaults and the parse error.
func Decode(data []byte) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Default(), nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Default(), fmt.Errorf("decode settings: %w", err)
	}
	return Migrate(raw), nil
}

// Encode serialises the settings record.
func Encode(s Settings) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return payload, nil
}

func generic(s Settings) any {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	return raw
}

func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

func countMap(v any) (map[string]int, bool) {
	entries, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(entries))
	for key, value := range entries {
		n, ok := count(value)
		if !ok {
			continue
		}
		out[key] = n
	}
	return out, true
}

func count(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(f), true
}

func customList(items []any) []service.Custom {
	out := make([]service.Custom, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := service.Custom{
			ID:           stringField(obj, "id"),
			Name:         stringField(obj, "name"),
			URL:          stringField(obj, "url"),
			DefaultQuery: stringField(obj, "defaultQuery"),
			Description:  stringField(obj, "description"),
			Type:         service.Type(stringField(obj, "type")),
			Protocol:     service.Protocol(stringField(obj, "protocol")),
		}
		if strings.TrimSpace(c.URL) == "" {
			continue
		}
		// Repeated ids are reissued.
		if _, dup := seen[c.ID]; c.ID == "" || dup {
			c.ID = service.NewID()
		}
		seen[c.ID] = struct{}{}
		if !c.Type.Valid() {
			c.Type = service.TypeFree
		}
		if !c.Protocol.Valid() {
			c.Protocol = service.ProtocolOData
		}
		out = append(out, c)
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func translationMap(entries map[string]any) map[string]map[string]string {
	out := make(map[string]map[string]string, len(entries))
	for url, value := range entries {
		byLang, ok := value.(map[string]any)
		if !ok {
			continue
		}
		inner := make(map[string]string, len(byLang))
		for lang, text := range byLang {
			if s, ok := text.(string); ok {
				inner[lang] = s
			}
		}
		out[url] = inner
	}
	return out
}
