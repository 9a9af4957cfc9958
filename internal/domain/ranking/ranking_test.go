package ranking

import (
	"reflect"
	"testing"

	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
)

func custom(url string, typ service.Type, protocol service.Protocol) service.Service {
	return service.FromCustom(service.Custom{ID: "id-" + url, Name: url, URL: url, Type: typ, Protocol: protocol})
}

func urls(services []service.Service) []string {
	return service.URLs(services)
}

func TestAutomaticPrefersFewerFailures(t *testing.T) {
	services := []service.Service{
		custom("a", service.TypeFree, service.ProtocolOData),
		custom("b", service.TypeFree, service.ProtocolOData),
		custom("c", service.TypeFree, service.ProtocolOData),
	}
	selection := map[string]int{"a": 10, "b": 0, "c": 3}
	failure := map[string]int{"a": 2, "b": 1, "c": 1}

	got := urls(Automatic(services, selection, failure))
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAutomaticIsStable(t *testing.T) {
	services := []service.Service{
		custom("a", service.TypeFree, service.ProtocolOData),
		custom("b", service.TypeFree, service.ProtocolOData),
		custom("c", service.TypeFree, service.ProtocolOData),
	}
	got := urls(Automatic(services, map[string]int{}, map[string]int{}))
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected catalog order for equal keys, got %v", got)
	}
}

func TestManualAppendsUnlistedAndSkipsStale(t *testing.T) {
	services := []service.Service{
		custom("u1", service.TypeFree, service.ProtocolOData),
		custom("u2", service.TypeFree, service.ProtocolOData),
		custom("u3", service.TypeFree, service.ProtocolOData),
	}
	got := urls(Manual(services, []string{"u2", "gone", "u1", "u2"}))
	want := []string{"u2", "u1", "u3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = urls(Manual(services, []string{"u1", "u2"}))
	if !reflect.DeepEqual(got, []string{"u1", "u2", "u3"}) {
		t.Fatalf("expected u3 appended, got %v", got)
	}
}

func TestOrderDispatchesOnSortMode(t *testing.T) {
	s := settings.Default()
	presets := service.Presets()
	s.FailureCounts[presets[0].URL] = 5
	auto := Order(s)
	if auto[len(auto)-1].URL() != presets[0].URL {
		t.Fatalf("expected failing preset last in automatic mode")
	}

	s.IsManuallySorted = true
	s.DisplayedServiceURLs = []string{presets[0].URL}
	manual := Order(s)
	if manual[0].URL() != presets[0].URL {
		t.Fatalf("expected stored order to win in manual mode")
	}
}

func TestMaxFailureCount(t *testing.T) {
	services := []service.Service{custom("a", service.TypeFree, service.ProtocolOData), custom("b", service.TypeFree, service.ProtocolOData)}
	if got := MaxFailureCount(services, map[string]int{"a": 2, "b": 7, "stale": 99}); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := MaxFailureCount(nil, nil); got != 0 {
		t.Fatalf("expected 0 for empty catalog, got %d", got)
	}
}

func TestMove(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	if got := Move(items, 0, 2); !reflect.DeepEqual(got, []string{"b", "c", "a", "d"}) {
		t.Fatalf("unexpected forward move %v", got)
	}
	if got := Move(items, 3, 1); !reflect.DeepEqual(got, []string{"a", "d", "b", "c"}) {
		t.Fatalf("unexpected backward move %v", got)
	}
	if !reflect.DeepEqual(items, []string{"a", "b", "c", "d"}) {
		t.Fatalf("input must not be mutated, got %v", items)
	}
}
