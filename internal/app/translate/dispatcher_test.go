package translate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/observability"
)

type fakeTranslator struct {
	calls   atomic.Int32
	gate    chan struct{}
	mu      sync.Mutex
	prompts []string
	out     string
	err     error
	panicky bool
}

func (f *fakeTranslator) Translate(_ context.Context, text, languageName string) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, languageName+":"+text)
	f.mu.Unlock()
	if f.panicky {
		panic("boom")
	}
	return f.out, f.err
}

func newRegistryWithCustom(t *testing.T, lang string) (*registry.Registry, service.Custom) {
	t.Helper()
	reg := registry.New(settings.Default(), registry.WithLocalizer(i18n.New()))
	c, err := reg.Add(service.Fields{Name: "Shop", URL: "https://shop.example/odata/", Description: "A shop."})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.SetLanguage(lang); err != nil {
		t.Fatalf("set language: %v", err)
	}
	return reg, c
}

func TestRequestCachesTranslation(t *testing.T) {
	reg, c := newRegistryWithCustom(t, "fr")
	tr := &fakeTranslator{out: "Une boutique."}
	d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())

	if !d.Request(c.URL, c.Description, "fr") {
		t.Fatalf("expected a task to start")
	}
	d.Wait()

	got, ok := reg.Translation(c.URL, "fr")
	if !ok || got != "Une boutique." {
		t.Fatalf("expected cached translation, got %q %v", got, ok)
	}
	if tr.prompts[0] != "French:A shop." {
		t.Fatalf("expected English language name, got %q", tr.prompts[0])
	}
	if d.Request(c.URL, c.Description, "fr") {
		t.Fatalf("cached pairs must not be requested again")
	}
}

func TestRequestSkipsEnglishAndEmptyText(t *testing.T) {
	reg, c := newRegistryWithCustom(t, "en")
	tr := &fakeTranslator{out: "x"}
	d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())
	if d.Request(c.URL, c.Description, "en") {
		t.Fatalf("english must be skipped")
	}
	if d.Request(c.URL, "", "fr") {
		t.Fatalf("empty text must be skipped")
	}
	d.Wait()
	if tr.calls.Load() != 0 {
		t.Fatalf("expected no translator calls, got %d", tr.calls.Load())
	}
}

func TestRequestDeduplicatesInFlightPairs(t *testing.T) {
	reg, c := newRegistryWithCustom(t, "it")
	tr := &fakeTranslator{out: "Un negozio.", gate: make(chan struct{})}
	d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())

	if !d.Request(c.URL, c.Description, "it") {
		t.Fatalf("expected first request to start")
	}
	for i := 0; i < 5; i++ {
		if d.Request(c.URL, c.Description, "it") {
			t.Fatalf("duplicate request %d started a task", i)
		}
	}
	if d.InFlight() != 1 {
		t.Fatalf("expected one task in flight, got %d", d.InFlight())
	}
	close(tr.gate)
	d.Wait()
	if tr.calls.Load() != 1 {
		t.Fatalf("expected one translator call, got %d", tr.calls.Load())
	}
	if d.InFlight() != 0 {
		t.Fatalf("expected in-flight set drained")
	}
}

func TestFailureCachesOriginalText(t *testing.T) {
	cases := map[string]*fakeTranslator{
		"error": {err: errors.New("quota")},
		"empty": {out: ""},
		"panic": {panicky: true},
	}
	for name, tr := range cases {
		reg, c := newRegistryWithCustom(t, "ja")
		d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())
		d.Request(c.URL, c.Description, "ja")
		d.Wait()
		got, ok := reg.Translation(c.URL, "ja")
		if !ok || got != c.Description {
			t.Fatalf("%s: expected original text cached, got %q %v", name, got, ok)
		}
	}
}

func TestPrefetchCoversPendingCustomEntries(t *testing.T) {
	reg, c := newRegistryWithCustom(t, "zh")
	tr := &fakeTranslator{out: "商店"}
	d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())

	started := d.Prefetch(reg.View())
	d.Wait()
	if started != 2 {
		t.Fatalf("expected the added and default custom services to be requested, got %d", started)
	}
	if got, _ := reg.Translation(c.URL, "zh"); got != "商店" {
		t.Fatalf("expected translation stored, got %q", got)
	}
	for _, entry := range reg.View().Services {
		if entry.Translating {
			t.Fatalf("expected no pending translations, got %+v", entry)
		}
	}
	if d.Prefetch(reg.View()) != 0 {
		t.Fatalf("expected nothing left to prefetch")
	}
}

func TestDeletedServiceTranslationIsDropped(t *testing.T) {
	reg, c := newRegistryWithCustom(t, "fr")
	tr := &fakeTranslator{out: "Une boutique.", gate: make(chan struct{})}
	d := NewDispatcher(context.Background(), tr, reg, i18n.New(), observability.Nop())

	d.Request(c.URL, c.Description, "fr")
	if err := reg.Delete(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(tr.gate)
	d.Wait()
	if _, ok := reg.Snapshot().TranslatedDescriptions[c.URL]; ok {
		t.Fatalf("translation for a deleted service must not be cached")
	}
}
