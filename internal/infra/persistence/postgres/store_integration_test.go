//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence/migrations"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "eob"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:secret@%s:%s/eob?sslmode=disable", host, port.Port())
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	if err := migrations.Apply(ctx, dsn, "", nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	version, dirty, ok, err := migrations.Version(ctx, dsn, "")
	if err != nil || !ok || dirty || version != 1 {
		t.Fatalf("expected clean version 1, got %d dirty=%v ok=%v err=%v", version, dirty, ok, err)
	}

	pool, err := Connect(ctx, PoolConfig{DSN: dsn, ConnectTimeout: 30 * time.Second}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	store := NewSettingsStore(pool)

	if _, err := store.Load(ctx, settingsstore.DefaultKey); !errors.Is(err, settingsstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, settingsstore.DefaultKey, []byte(`{"language":"fr"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, settingsstore.DefaultKey, []byte(`{"language":"ja"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Load(ctx, settingsstore.DefaultKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"language": "ja"}` {
		t.Fatalf("unexpected stored value %s", got)
	}
	if err := store.Delete(ctx, settingsstore.DefaultKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, settingsstore.DefaultKey); !errors.Is(err, settingsstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := migrations.Rollback(ctx, dsn, "", 1, nil); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}
