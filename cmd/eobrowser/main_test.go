package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/app/workspace"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/infra/config"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
	"github.com/coachpo/eobrowser/internal/observability"
)

func TestResolveConfigPathDefaults(t *testing.T) {
	require.Equal(t, filepath.Clean(defaultConfigPath), resolveConfigPath(""))
	require.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml"))
}

func TestOpenStoreMemoryAndFile(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultAppConfig()

	cfg.Storage.Backend = persistence.BackendMemory
	handle, err := openStore(ctx, cfg, observability.Nop())
	require.NoError(t, err)
	require.Nil(t, handle.file)
	require.Nil(t, handle.close)

	cfg.Storage.Backend = persistence.BackendFile
	cfg.Storage.File.Dir = t.TempDir()
	handle, err = openStore(ctx, cfg, observability.Nop())
	require.NoError(t, err)
	require.NotNil(t, handle.file)
	require.Equal(t, cfg.Storage.File.Dir, handle.file.Dir())

	cfg.Storage.Backend = persistence.Backend("sqlite")
	_, err = openStore(ctx, cfg, observability.Nop())
	require.Error(t, err)
}

func TestBuildDispatcherDisabledWithoutKey(t *testing.T) {
	cfg := config.DefaultAppConfig()
	reg := registry.New(settings.Default())
	require.Nil(t, buildDispatcher(context.Background(), cfg.Translator, reg, nil, observability.Nop()))
}

func TestWaitWithContextTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	require.Error(t, waitWithContext(ctx, func() { <-block }))
	require.NoError(t, waitWithContext(context.Background(), func() {}))
}

func TestGracefulShutdownSavesOnExit(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Storage.Backend = persistence.BackendMemory
	handle, err := openStore(context.Background(), cfg, observability.Nop())
	require.NoError(t, err)

	reg := registry.New(settings.Default())
	ws := workspace.New(reg, handle.store)
	reg.SetSortMode(true)

	performGracefulShutdown(context.Background(), observability.Nop(), gracefulShutdownConfig{
		workspace:  ws,
		saveOnExit: true,
		store:      handle,
	})

	raw, err := handle.store.Load(context.Background(), ws.Key())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"isManuallySorted":true`)
}
