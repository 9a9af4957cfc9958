package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/observability"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "data"), observability.Nop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestSaveLoadDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "k"); !errors.Is(err, settingsstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, " k ")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("unexpected content %s", got)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if _, err := store.Load(ctx, "k"); !errors.Is(err, settingsstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := newStore(t)
	for i := 0; i < 3; i++ {
		if err := store.Save(context.Background(), "k", []byte(`{}`)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "k.json" {
		t.Fatalf("expected only k.json, got %v", entries)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store := newStore(t)
	for _, key := range []string{"", "../x", "a/b", ".."} {
		if _, err := store.Path(key); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestWatchReportsExternalWritesOnly(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, "k", func(data []byte) { changes <- string(data) })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := store.Save(ctx, "k", []byte(`{"self":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := store.Path("k")
	if err := os.WriteFile(path, []byte(`{"external":true}`), 0o600); err != nil {
		t.Fatalf("external write: %v", err)
	}

	select {
	case got := <-changes:
		if got != `{"external":true}` {
			t.Fatalf("expected external content, got %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for external change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned error: %v", err)
	}
}
