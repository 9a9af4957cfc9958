// Package ranking orders and filters the visible service catalog.
package ranking

import (
	"cmp"
	"slices"

	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
)

// Automatic sorts by ascending failure count, then descending selection count.
// Services with equal keys keep their catalog order.
func Automatic(services []service.Service, selection, failure map[string]int) []service.Service {
	out := slices.Clone(services)
	slices.SortStableFunc(out, func(a, b service.Service) int {
		if c := cmp.Compare(failure[a.URL()], failure[b.URL()]); c != 0 {
			return c
		}
		return cmp.Compare(selection[b.URL()], selection[a.URL()])
	})
	return out
}

// Manual orders services by the stored URL sequence. Stored URLs that are not visible are
// skipped; visible services missing from the sequence follow in catalog order.
func Manual(services []service.Service, order []string) []service.Service {
	byURL := make(map[string]service.Service, len(services))
	for _, svc := range services {
		if _, ok := byURL[svc.URL()]; !ok {
			byURL[svc.URL()] = svc
		}
	}
	out := make([]service.Service, 0, len(services))
	placed := make(map[string]struct{}, len(services))
	for _, url := range order {
		svc, ok := byURL[url]
		if !ok {
			continue
		}
		if _, dup := placed[url]; dup {
			continue
		}
		placed[url] = struct{}{}
		out = append(out, svc)
	}
	for _, svc := range services {
		if _, ok := placed[svc.URL()]; ok {
			continue
		}
		placed[svc.URL()] = struct{}{}
		out = append(out, svc)
	}
	return out
}

// Order returns the visible catalog in the effective display order for s.
func Order(s settings.Settings) []service.Service {
	visible := s.Visible()
	if s.IsManuallySorted {
		return Manual(visible, s.DisplayedServiceURLs)
	}
	return Automatic(visible, s.SelectionCounts, s.FailureCounts)
}

// MaxFailureCount returns the highest failure count among services, or zero.
func MaxFailureCount(services []service.Service, failure map[string]int) int {
	highest := 0
	for _, svc := range services {
		if n := failure[svc.URL()]; n > highest {
			highest = n
		}
	}
	return highest
}

// Move relocates the element at from to index to, shifting the elements in between.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from == to {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}
