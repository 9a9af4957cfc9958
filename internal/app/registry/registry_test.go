package registry

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/coachpo/eobrowser/errs"
	"github.com/coachpo/eobrowser/internal/domain/ranking"
	"github.com/coachpo/eobrowser/internal/domain/service"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(settings.Default(), WithLocalizer(i18n.New()))
}

func mustAdd(t *testing.T, r *Registry, name, url string) service.Custom {
	t.Helper()
	c, err := r.Add(service.Fields{Name: name, URL: url, DefaultQuery: "Items", Description: name + " description"})
	if err != nil {
		t.Fatalf("add %s: %v", url, err)
	}
	return c
}

func expectCode(t *testing.T, err error, code errs.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if errs.CodeOf(err) != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func entryByURL(t *testing.T, entries []Entry, url string) (Entry, bool) {
	t.Helper()
	for _, e := range entries {
		if e.URL == url {
			return e, true
		}
	}
	return Entry{}, false
}

func assertURLAbsent(t *testing.T, s settings.Settings, url string) {
	t.Helper()
	if _, ok := s.SelectionCounts[url]; ok {
		t.Fatalf("%s still has a selection count", url)
	}
	if _, ok := s.FailureCounts[url]; ok {
		t.Fatalf("%s still has a failure count", url)
	}
	if slices.Contains(s.DisabledServices, url) || slices.Contains(s.LockedServices, url) {
		t.Fatalf("%s still flagged", url)
	}
	if slices.Contains(s.DisplayedServiceURLs, url) {
		t.Fatalf("%s still in manual order", url)
	}
}

func TestAddInitialisesStateAndClearsFilters(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.SetFilters(ranking.Filters{Type: "paid"}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	c := mustAdd(t, r, "X", "https://x/")
	if !strings.HasPrefix(c.ID, "custom-") {
		t.Fatalf("expected synthetic id, got %q", c.ID)
	}
	snap := r.Snapshot()
	if snap.SelectionCounts["https://x/"] != 0 || snap.FailureCounts["https://x/"] != 0 {
		t.Fatalf("expected zero counts for new service")
	}
	if snap.DisplayedServiceURLs[len(snap.DisplayedServiceURLs)-1] != "https://x/" {
		t.Fatalf("expected url appended to manual order, got %v", snap.DisplayedServiceURLs)
	}
	if r.Filters().Type != ranking.All {
		t.Fatalf("expected filters cleared, got %+v", r.Filters())
	}
	if _, ok := entryByURL(t, r.View().Services, "https://x/"); !ok {
		t.Fatalf("expected new service visible")
	}
}

func TestAddValidation(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Snapshot()
	version := r.Version()

	cases := []struct {
		fields service.Fields
		want   string
	}{
		{service.Fields{Name: "", URL: "https://a/"}, "Service Name and URL are required."},
		{service.Fields{Name: "A", URL: "  "}, "Service Name and URL are required."},
		{service.Fields{Name: "A", URL: "ftp://a/"}, "URL must start with http or https."},
		{service.Fields{Name: "A", URL: service.FirstPreset().URL}, "A service with this URL already exists."},
	}
	for _, tc := range cases {
		_, err := r.Add(tc.fields)
		expectCode(t, err, errs.CodeInvalid)
		e, _ := errs.As(err)
		if e.Message != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, e.Message)
		}
	}
	if !reflect.DeepEqual(before, r.Snapshot()) || r.Version() != version {
		t.Fatalf("rejected adds must not change state")
	}
}

func TestValidationMessagesFollowLanguage(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.SetLanguage("fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	_, err := r.Add(service.Fields{Name: "A", URL: service.FirstPreset().URL})
	e, _ := errs.As(err)
	if e == nil || e.Message != "Un service avec cette URL existe déjà." {
		t.Fatalf("expected localized duplicate message, got %v", err)
	}
}

func TestEditRenamePropagation(t *testing.T) {
	r := newTestRegistry(t)
	c := mustAdd(t, r, "Old", "https://old/")
	if err := r.Select("https://old/"); err != nil {
		t.Fatalf("select: %v", err)
	}
	r.RecordFailure("https://old/")
	r.RecordFailure("https://old/")
	if _, err := r.ToggleLocked("https://old/"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := r.ToggleLocked("https://old/"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := r.ToggleDisabled("https://old/"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := r.ToggleDisabled("https://old/"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	r.SetSortMode(true)
	before := r.Snapshot()
	position := slices.Index(before.DisplayedServiceURLs, "https://old/")

	updated, err := r.Edit(c.ID, service.Fields{Name: "New", URL: "https://new/", Description: c.Description})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.ID != c.ID {
		t.Fatalf("expected identity preserved, got %q", updated.ID)
	}
	after := r.Snapshot()
	if after.SelectionCounts["https://new/"] != 1 || after.FailureCounts["https://new/"] != 2 {
		t.Fatalf("expected counts moved, got sel=%d fail=%d", after.SelectionCounts["https://new/"], after.FailureCounts["https://new/"])
	}
	if slices.Index(after.DisplayedServiceURLs, "https://new/") != position {
		t.Fatalf("expected manual order slot preserved")
	}
	if after.ServiceURL != "https://new/" {
		t.Fatalf("expected active target renamed, got %s", after.ServiceURL)
	}
	assertURLAbsent(t, after, "https://old/")
}

func TestEditRenameCarriesFlags(t *testing.T) {
	r := newTestRegistry(t)
	locked := mustAdd(t, r, "Locked", "https://locked-old/")
	disabled := mustAdd(t, r, "Disabled", "https://disabled-old/")
	if _, err := r.ToggleLocked("https://locked-old/"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := r.ToggleDisabled("https://disabled-old/"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, err := r.Edit(locked.ID, service.Fields{Name: "Locked", URL: "https://locked-new/"}); err != nil {
		t.Fatalf("edit locked: %v", err)
	}
	if _, err := r.Edit(disabled.ID, service.Fields{Name: "Disabled", URL: "https://disabled-new/"}); err != nil {
		t.Fatalf("edit disabled: %v", err)
	}
	snap := r.Snapshot()
	if !snap.IsLocked("https://locked-new/") || !snap.IsDisabled("https://disabled-new/") {
		t.Fatalf("expected flags to follow the rename, got locked=%v disabled=%v", snap.LockedServices, snap.DisabledServices)
	}
	assertURLAbsent(t, snap, "https://locked-old/")
	assertURLAbsent(t, snap, "https://disabled-old/")
}

func TestEditSameURLIsAllowed(t *testing.T) {
	r := newTestRegistry(t)
	c := mustAdd(t, r, "Same", "https://same/")
	updated, err := r.Edit(c.ID, service.Fields{Name: "Renamed", URL: "https://same/"})
	if err != nil {
		t.Fatalf("expected re-save with same url to pass, got %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected name updated, got %q", updated.Name)
	}
	other := mustAdd(t, r, "Other", "https://other/")
	if _, err := r.Edit(other.ID, service.Fields{Name: "Other", URL: "https://same/"}); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestEditPresetPromotesToCustom(t *testing.T) {
	r := newTestRegistry(t)
	preset := service.Presets()[2]
	r.RecordFailure(preset.URL)

	updated, err := r.Edit(preset.NameKey, service.Fields{Name: "My TripPin", URL: preset.URL, DefaultQuery: "Airlines"})
	if err != nil {
		t.Fatalf("edit preset: %v", err)
	}
	snap := r.Snapshot()
	if !snap.IsHidden(preset.NameKey) {
		t.Fatalf("expected preset hidden")
	}
	if updated.ID == "" || updated.ID == preset.NameKey {
		t.Fatalf("expected a fresh custom id, got %q", updated.ID)
	}
	if snap.FailureCounts[preset.URL] != 1 {
		t.Fatalf("expected promoted custom to keep the preset's counts, got %d", snap.FailureCounts[preset.URL])
	}
	view := r.View()
	e, ok := entryByURL(t, view.Services, preset.URL)
	if !ok || e.Kind != "custom" || e.Name != "My TripPin" {
		t.Fatalf("expected custom entry replacing the preset, got %+v", e)
	}
	count := 0
	for _, svc := range view.Services {
		if svc.URL == preset.URL {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one visible service at %s, got %d", preset.URL, count)
	}
}

func TestDeletePurgeAndReAdd(t *testing.T) {
	r := newTestRegistry(t)
	c := mustAdd(t, r, "Doomed", "https://u/")
	if err := r.Select("https://u/"); err != nil {
		t.Fatalf("select: %v", err)
	}
	r.RecordFailure("https://u/")
	r.StoreTranslation("https://u/", "fr", "condamné")
	r.SetSortMode(true)

	if err := r.Delete(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snap := r.Snapshot()
	assertURLAbsent(t, snap, "https://u/")
	if _, ok := snap.TranslatedDescriptions["https://u/"]; ok {
		t.Fatalf("expected translations purged")
	}
	first := service.FirstPreset()
	if snap.ServiceURL != first.URL || snap.Query != first.DefaultQuery {
		t.Fatalf("expected active target reset to first preset, got %s %s", snap.ServiceURL, snap.Query)
	}

	mustAdd(t, r, "Again", "https://u/")
	snap = r.Snapshot()
	if snap.SelectionCounts["https://u/"] != 0 || snap.FailureCounts["https://u/"] != 0 {
		t.Fatalf("expected fresh counts after re-add")
	}
}

func TestDeletePresetHidesIt(t *testing.T) {
	r := newTestRegistry(t)
	preset := service.Presets()[3]
	if err := r.Delete(preset.NameKey); err != nil {
		t.Fatalf("delete preset: %v", err)
	}
	if !r.Snapshot().IsHidden(preset.NameKey) {
		t.Fatalf("expected preset hidden")
	}
	if _, ok := entryByURL(t, r.View().Services, preset.URL); ok {
		t.Fatalf("hidden preset must not be displayed")
	}
	if err := r.Delete(preset.NameKey); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected not found for already hidden preset, got %v", err)
	}
}

func TestDuplicateRejectionLeavesStateUntouched(t *testing.T) {
	r := newTestRegistry(t)
	mustAdd(t, r, "X", "https://x/")
	before := r.Snapshot()
	if _, err := r.Add(service.Fields{Name: "Y", URL: "https://x/"}); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if !reflect.DeepEqual(before, r.Snapshot()) {
		t.Fatalf("state changed after rejected add")
	}
}

func TestCloneThenRequireURL(t *testing.T) {
	r := newTestRegistry(t)
	preset := service.FirstPreset()
	draft, err := r.Clone(preset.NameKey)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if draft.URL != "" {
		t.Fatalf("expected empty url on clone, got %q", draft.URL)
	}
	if draft.Name != "Copy of Copernicus Sentinel-5P Hub" {
		t.Fatalf("unexpected clone name %q", draft.Name)
	}
	if !strings.HasPrefix(draft.Description, "Access atmospheric data") {
		t.Fatalf("expected resolved description, got %q", draft.Description)
	}
	if draft.DefaultQuery != preset.DefaultQuery {
		t.Fatalf("expected query copied")
	}
	for _, e := range r.View().Services {
		if e.Key == draft.ID {
			t.Fatalf("draft must not be displayed")
		}
	}

	fields := service.Fields{Name: draft.Name, DefaultQuery: draft.DefaultQuery, Description: draft.Description}
	if _, err := r.Edit(draft.ID, fields); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected empty url rejected, got %v", err)
	}
	fields.URL = "not-a-url"
	if _, err := r.Edit(draft.ID, fields); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected non-http url rejected, got %v", err)
	}
	fields.URL = preset.URL
	if _, err := r.Edit(draft.ID, fields); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected duplicate url rejected, got %v", err)
	}
	if len(r.Drafts()) != 1 {
		t.Fatalf("expected draft kept after failed commits")
	}

	fields.URL = "https://mirror/"
	committed, err := r.Edit(draft.ID, fields)
	if err != nil {
		t.Fatalf("commit draft: %v", err)
	}
	if committed.ID != draft.ID {
		t.Fatalf("expected draft id kept, got %q", committed.ID)
	}
	if len(r.Drafts()) != 0 {
		t.Fatalf("expected draft consumed")
	}
	if _, ok := entryByURL(t, r.View().Services, "https://mirror/"); !ok {
		t.Fatalf("expected committed clone visible")
	}
}

func TestCloneUsesLocalizedPrefix(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.SetLanguage("it"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	draft, err := r.Clone(service.DefaultCustomID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if draft.Name != "Copia di Default Custom Service" {
		t.Fatalf("unexpected name %q", draft.Name)
	}
	if err := r.DiscardDraft(draft.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if err := r.DiscardDraft(draft.ID); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected not found on second discard, got %v", err)
	}
}

func TestToggleGuards(t *testing.T) {
	r := newTestRegistry(t)
	url := service.FirstPreset().URL

	locked, err := r.ToggleLocked(url)
	if err != nil || !locked {
		t.Fatalf("expected lock, got %v %v", locked, err)
	}
	if _, err := r.ToggleDisabled(url); errs.CodeOf(err) != errs.CodeConflict {
		t.Fatalf("expected conflict disabling a locked service, got %v", err)
	}
	if err := r.Select(url); errs.CodeOf(err) != errs.CodeConflict {
		t.Fatalf("expected conflict selecting a locked service, got %v", err)
	}
	if locked, _ := r.ToggleLocked(url); locked {
		t.Fatalf("expected unlock")
	}

	disabled, err := r.ToggleDisabled(url)
	if err != nil || !disabled {
		t.Fatalf("expected disable, got %v %v", disabled, err)
	}
	if _, err := r.ToggleLocked(url); errs.CodeOf(err) != errs.CodeConflict {
		t.Fatalf("expected conflict locking a disabled service, got %v", err)
	}
	if disabled, _ := r.ToggleDisabled(url); disabled {
		t.Fatalf("expected toggle back to enabled")
	}
	if r.Snapshot().IsDisabled(url) || r.Snapshot().IsLocked(url) {
		t.Fatalf("expected original state after double toggles")
	}
	if _, err := r.ToggleDisabled("https://unknown/"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSelectCountsOnlyOnChange(t *testing.T) {
	r := newTestRegistry(t)
	tripPin := service.Presets()[2]
	if err := r.Select(tripPin.URL); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := r.Select(tripPin.URL); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	snap := r.Snapshot()
	if snap.SelectionCounts[tripPin.URL] != 1 {
		t.Fatalf("expected one counted selection, got %d", snap.SelectionCounts[tripPin.URL])
	}
	if snap.Query != tripPin.DefaultQuery {
		t.Fatalf("expected default query applied, got %q", snap.Query)
	}
}

func TestFilterCeilingNonRegression(t *testing.T) {
	r := newTestRegistry(t)
	url := service.Presets()[1].URL
	r.RecordFailure(url)
	r.RecordFailure(url)
	cleared := r.ClearFilters()
	if cleared.MaxRanking != "2" {
		t.Fatalf("expected ceiling at observed max 2, got %q", cleared.MaxRanking)
	}
	r.RecordFailure(url)
	if r.Filters().MaxRanking != "3" {
		t.Fatalf("expected ceiling raised to 3, got %q", r.Filters().MaxRanking)
	}
	if _, ok := entryByURL(t, r.View().Services, url); !ok {
		t.Fatalf("failing service must remain visible")
	}
	if r.RecordFailure("https://not-in-catalog/") {
		t.Fatalf("unknown url must not be counted")
	}
}

func TestResetFailureCountRecomputesCeiling(t *testing.T) {
	r := newTestRegistry(t)
	a, b := service.Presets()[0].URL, service.Presets()[1].URL
	r.RecordFailure(a)
	r.RecordFailure(a)
	r.RecordFailure(a)
	r.RecordFailure(b)
	r.ClearFilters()

	if err := r.ResetFailureCount(a); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if r.Filters().MaxRanking != "1" {
		t.Fatalf("expected ceiling to follow new max 1, got %q", r.Filters().MaxRanking)
	}

	if err := r.SetFilters(ranking.Filters{MaxRanking: "7"}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	if err := r.ResetFailureCount(b); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if r.Filters().MaxRanking != "7" {
		t.Fatalf("expected user ceiling untouched, got %q", r.Filters().MaxRanking)
	}
}

func TestReorderSwitchesToManual(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Ordered()
	if err := r.Reorder(0, len(before)-1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	snap := r.Snapshot()
	if !snap.IsManuallySorted {
		t.Fatalf("expected manual mode")
	}
	after := r.Ordered()
	if after[len(after)-1].URL != before[0].URL {
		t.Fatalf("expected first entry moved to the end")
	}
	if err := r.Reorder(0, 99); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected out of range rejection, got %v", err)
	}

	if _, err := r.ToggleDisabled(after[0].URL); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := r.Reorder(0, 1); errs.CodeOf(err) != errs.CodeConflict {
		t.Fatalf("expected disabled service drag refused, got %v", err)
	}
}

func entryURLs(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.URL
	}
	return out
}

func newPaidRegistry(t *testing.T) (*Registry, []string) {
	t.Helper()
	r := newTestRegistry(t)
	for _, url := range []string{"https://paid-one/", "https://paid-two/"} {
		if _, err := r.Add(service.Fields{Name: url, URL: url, Type: service.TypePaid}); err != nil {
			t.Fatalf("add %s: %v", url, err)
		}
	}
	mustAdd(t, r, "Free", "https://free/")
	if err := r.SetFilters(ranking.Filters{Type: string(service.TypePaid)}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	shown := entryURLs(r.View().Services)
	if len(shown) != 3 {
		t.Fatalf("expected three paid services, got %v", shown)
	}
	return r, shown
}

func TestReorderUsesFilteredList(t *testing.T) {
	r, shown := newPaidRegistry(t)
	hidden := []string{}
	for _, url := range entryURLs(r.Ordered()) {
		if !slices.Contains(shown, url) {
			hidden = append(hidden, url)
		}
	}

	if err := r.Reorder(0, 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := []string{shown[1], shown[2], shown[0]}
	if got := entryURLs(r.View().Services); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected filtered list %v, got %v", want, got)
	}
	if got := r.Snapshot().DisplayedServiceURLs; !reflect.DeepEqual(got, append(slices.Clone(want), hidden...)) {
		t.Fatalf("expected moved services followed by the hidden ones, got %v", got)
	}
	if err := r.Reorder(0, 3); errs.CodeOf(err) != errs.CodeInvalid {
		t.Fatalf("expected index beyond the filtered list rejected, got %v", err)
	}
}

func TestReorderGuardsTheShownService(t *testing.T) {
	r, shown := newPaidRegistry(t)
	hiddenFirst := r.Ordered()[0].URL
	if slices.Contains(shown, hiddenFirst) {
		t.Fatalf("expected a filtered-out service at the head of the full order")
	}
	if _, err := r.ToggleLocked(hiddenFirst); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := r.Reorder(0, 1); err != nil {
		t.Fatalf("a locked service outside the filter must not block the drag: %v", err)
	}
	if got := entryURLs(r.View().Services); got[0] != shown[1] || got[1] != shown[0] {
		t.Fatalf("expected the shown head moved, got %v", got)
	}
}

func TestReorderAcrossLockedService(t *testing.T) {
	r, _ := newPaidRegistry(t)
	shown := entryURLs(r.View().Services)
	if _, err := r.ToggleLocked(shown[1]); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := r.Reorder(0, 2); err != nil {
		t.Fatalf("moving past a locked service: %v", err)
	}
	want := []string{shown[1], shown[2], shown[0]}
	if got := entryURLs(r.View().Services); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if err := r.Reorder(0, 1); errs.CodeOf(err) != errs.CodeConflict {
		t.Fatalf("expected the locked service itself to stay put, got %v", err)
	}
}

func TestManualModeAppendsNewServices(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Reorder(1, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	mustAdd(t, r, "Late", "https://late/")
	ordered := r.Ordered()
	if ordered[len(ordered)-1].URL != "https://late/" {
		t.Fatalf("expected new service at the end in manual mode")
	}
}

func TestReplaceResetsFiltersAndDrafts(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Clone(service.DefaultCustomID); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if err := r.SetFilters(ranking.Filters{Status: ranking.StatusDisabled}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	next := settings.Default()
	next.FailureCounts[service.FirstPreset().URL] = 4
	r.Replace(next)
	if got := r.Filters(); got != ranking.Cleared(4) {
		t.Fatalf("expected cleared filters with ceiling 4, got %+v", got)
	}
	if len(r.Drafts()) != 0 {
		t.Fatalf("expected drafts dropped")
	}
}

func TestViewResolvesTranslations(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.SetLanguage("fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	custom := service.DefaultCustoms()[0]
	e, _ := entryByURL(t, r.View().Services, custom.URL)
	if !e.Translating || e.Description != custom.Description {
		t.Fatalf("expected pending translation with source text, got %+v", e)
	}
	r.StoreTranslation(custom.URL, "fr", "Un exemple.")
	e, _ = entryByURL(t, r.View().Services, custom.URL)
	if e.Translating || e.Description != "Un exemple." {
		t.Fatalf("expected translated description, got %+v", e)
	}
	p, _ := entryByURL(t, r.View().Services, service.FirstPreset().URL)
	if p.Name != "Hub Copernicus Sentinel-5P" {
		t.Fatalf("expected localized preset name, got %q", p.Name)
	}
}

func TestListenersReceiveVersions(t *testing.T) {
	r := newTestRegistry(t)
	var seen []uint64
	unsubscribe := r.Subscribe(func(v uint64) { seen = append(seen, v) })
	mustAdd(t, r, "A", "https://a/")
	_, _ = r.Add(service.Fields{Name: "dup", URL: "https://a/"})
	r.RecordFailure("https://nowhere/")
	unsubscribe()
	mustAdd(t, r, "B", "https://b/")
	if !reflect.DeepEqual(seen, []uint64{1}) {
		t.Fatalf("expected exactly one notification, got %v", seen)
	}
}
