package ranking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
)

// All disables a filter dimension.
const All = "all"

// Status and lock filter values.
const (
	StatusSelectable = "selectable"
	StatusDisabled   = "disabled"
	LockLocked       = "locked"
	LockUnlocked     = "unlocked"
)

// Filters narrows the ordered catalog. Filters are transient and never persisted.
type Filters struct {
	Type       string `json:"type"`
	Status     string `json:"status"`
	Lock       string `json:"lock"`
	Protocol   string `json:"protocol"`
	MaxRanking string `json:"maxRanking"`
}

// Cleared returns filters with every dimension open and the ceiling at max.
func Cleared(max int) Filters {
	return Filters{
		Type:       All,
		Status:     All,
		Lock:       All,
		Protocol:   All,
		MaxRanking: strconv.Itoa(max),
	}
}

// Validate rejects values outside each dimension's domain.
func (f Filters) Validate() error {
	switch f.Type {
	case All, string(service.TypeFree), string(service.TypePaid):
	default:
		return fmt.Errorf("unknown type filter %q", f.Type)
	}
	switch f.Status {
	case All, StatusSelectable, StatusDisabled:
	default:
		return fmt.Errorf("unknown status filter %q", f.Status)
	}
	switch f.Lock {
	case All, LockLocked, LockUnlocked:
	default:
		return fmt.Errorf("unknown lock filter %q", f.Lock)
	}
	if strings.TrimSpace(f.Protocol) == "" {
		return fmt.Errorf("protocol filter required")
	}
	return nil
}

// Ceiling parses MaxRanking the lenient way: leading whitespace, an optional sign and a run of
// digits, ignoring anything after. ok is false when there is no limit.
func (f Filters) Ceiling() (int, bool) {
	text := strings.TrimLeft(f.MaxRanking, " \t\n\r")
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	digits := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Matches reports whether svc passes every active dimension.
func (f Filters) Matches(svc service.Service, s settings.Settings) bool {
	url := svc.URL()
	if f.Type != All && string(svc.Type()) != f.Type {
		return false
	}
	if f.Status != All {
		disabled := s.IsDisabled(url)
		if (f.Status == StatusDisabled) != disabled {
			return false
		}
	}
	if f.Lock != All {
		locked := s.IsLocked(url)
		if (f.Lock == LockLocked) != locked {
			return false
		}
	}
	if f.Protocol != All && string(svc.Protocol()) != f.Protocol {
		return false
	}
	if ceiling, ok := f.Ceiling(); ok && s.FailureCounts[url] > ceiling {
		return false
	}
	return true
}

// Apply keeps the services that match, preserving order.
func Apply(ordered []service.Service, f Filters, s settings.Settings) []service.Service {
	out := make([]service.Service, 0, len(ordered))
	for _, svc := range ordered {
		if f.Matches(svc, s) {
			out = append(out, svc)
		}
	}
	return out
}

// Protocols lists All followed by each distinct protocol in catalog order.
func Protocols(services []service.Service) []string {
	out := []string{All}
	seen := map[string]struct{}{}
	for _, svc := range services {
		p := string(svc.Protocol())
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
