// Command eobrowser launches the service explorer control plane.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/coachpo/eobrowser/internal/app/query"
	"github.com/coachpo/eobrowser/internal/app/registry"
	"github.com/coachpo/eobrowser/internal/app/translate"
	"github.com/coachpo/eobrowser/internal/app/workspace"
	"github.com/coachpo/eobrowser/internal/domain/settings"
	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/config"
	"github.com/coachpo/eobrowser/internal/infra/i18n"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
	"github.com/coachpo/eobrowser/internal/infra/persistence/file"
	"github.com/coachpo/eobrowser/internal/infra/persistence/memory"
	"github.com/coachpo/eobrowser/internal/infra/persistence/migrations"
	"github.com/coachpo/eobrowser/internal/infra/persistence/postgres"
	redisstore "github.com/coachpo/eobrowser/internal/infra/persistence/redis"
	httpserver "github.com/coachpo/eobrowser/internal/infra/server/http"
	"github.com/coachpo/eobrowser/internal/infra/telemetry"
	"github.com/coachpo/eobrowser/internal/infra/translator"
	"github.com/coachpo/eobrowser/internal/observability"
)

const (
	defaultConfigPath        = "config/app.yaml"
	defaultEnvFile           = ".env"
	postgresPoolName         = "settings"
	shutdownTimeout          = 30 * time.Second
	apiServerShutdownTimeout = 5 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	translationDrainTimeout  = 10 * time.Second
	finalSaveTimeout         = 5 * time.Second
	storeCloseTimeout        = 2 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	apiReadHeaderTimeout     = 5 * time.Second
	redisReadyTimeout        = 10 * time.Second
)

type flags struct {
	configPath string
	envFile    string
}

func main() {
	opts := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	appCfg, err := config.Load(ctx, resolveConfigPath(opts.configPath), opts.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := observability.NewZapLogger(observability.LogConfig{
		Level:       appCfg.Logging.Level,
		Development: appCfg.Environment == config.EnvDev,
		File:        appCfg.Logging.File,
		MaxSizeMB:   appCfg.Logging.MaxSizeMB,
		MaxBackups:  appCfg.Logging.MaxBackups,
		MaxAgeDays:  appCfg.Logging.MaxAgeDays,
		Compress:    appCfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()
	observability.SetLogger(zapLogger)
	logger := observability.Log()

	if err := run(ctx, cancel, appCfg, logger); err != nil {
		logger.Error("eobrowser exited with error", observability.F("error", err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, appCfg config.AppConfig, logger observability.Logger) error {
	logger.Info("configuration initialised",
		observability.F("env", appCfg.Environment),
		observability.F("backend", appCfg.Storage.Backend),
		observability.F("addr", appCfg.APIServer.Addr))

	appStore, err := config.NewAppConfigStore(appCfg, nil)
	if err != nil {
		return fmt.Errorf("initialise app config store: %w", err)
	}

	telemetryProvider, err := initTelemetry(ctx, logger, appCfg)
	if err != nil {
		return err
	}

	handle, err := openStore(ctx, appCfg, logger)
	if err != nil {
		_ = telemetryProvider.Shutdown(context.Background())
		return err
	}

	localizer := i18n.New()
	reg := registry.New(settings.Default(),
		registry.WithLocalizer(localizer),
		registry.WithLogger(logger))
	ws := workspace.New(reg, handle.store,
		workspace.WithKey(appCfg.Storage.Key),
		workspace.WithLocalizer(localizer),
		workspace.WithLogger(logger))
	ws.Bootstrap(ctx)

	executor := query.NewExecutor(query.Config{
		Timeout:          appCfg.Query.Timeout,
		MaxResponseBytes: appCfg.Query.MaxResponseBytes,
	}, reg, nil, localizer, logger)

	dispatcher := buildDispatcher(ctx, appCfg.Translator, reg, localizer, logger)

	hub := httpserver.NewHub(appCfg.APIServer.AllowedOrigins, logger)
	unsubscribe := reg.Subscribe(hub.Publish)
	defer unsubscribe()

	var lifecycle conc.WaitGroup
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if handle.file != nil && appCfg.Storage.File.Watch {
		startWatcher(watchCtx, &lifecycle, logger, handle.file, ws)
	}

	apiServer := buildAPIServer(appCfg.APIServer, httpserver.NewHandler(httpserver.Deps{
		Registry:     reg,
		Workspace:    ws,
		Query:        executor,
		Translations: dispatcher,
		Languages:    localizer,
		ConfigStore:  appStore,
		Events:       hub,
		Logger:       logger,
	}))
	startAPIServer(&lifecycle, logger, apiServer)
	logger.Info("control API listening", observability.F("addr", apiServer.Addr))

	<-ctx.Done()
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, logger, gracefulShutdownConfig{
		server:       apiServer,
		mainCancel:   cancel,
		stopWatch:    stopWatch,
		lifecycle:    &lifecycle,
		translations: dispatcher,
		workspace:    ws,
		saveOnExit:   appCfg.Storage.SaveOnExit,
		store:        handle,
		telemetry:    telemetryProvider,
	})
	logger.Info("shutdown completed", observability.F("elapsed", time.Since(shutdownStart).String()))
	return nil
}

func parseFlags() flags {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to application configuration file (default: %s)", defaultConfigPath))
	envFile := flag.String("env-file", defaultEnvFile, "Path to a dotenv file loaded before environment overrides")
	flag.Parse()
	return flags{configPath: *cfgPath, envFile: *envFile}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Clean(defaultConfigPath)
}

func initTelemetry(ctx context.Context, logger observability.Logger, appCfg config.AppConfig) (*telemetry.Provider, error) {
	telemetryCfg := telemetry.Config{
		Enabled:      appCfg.Telemetry.Enabled,
		OTLPEndpoint: appCfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: appCfg.Telemetry.Insecure,
		ServiceName:  appCfg.Telemetry.ServiceName,
		Environment:  string(appCfg.Environment),
	}
	provider, err := telemetry.NewProvider(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if telemetryCfg.Enabled {
		logger.Info("telemetry initialized",
			observability.F("endpoint", telemetryCfg.OTLPEndpoint),
			observability.F("service", telemetryCfg.ServiceName))
	} else {
		logger.Info("telemetry disabled")
	}
	return provider, nil
}

// storeHandle is the opened settings backend plus whatever it needs released on shutdown.
type storeHandle struct {
	backend persistence.Backend
	store   settingsstore.Store
	file    *file.Store
	close   func() error
}

func openStore(ctx context.Context, appCfg config.AppConfig, logger observability.Logger) (*storeHandle, error) {
	switch appCfg.Storage.Backend {
	case persistence.BackendMemory:
		return &storeHandle{backend: persistence.BackendMemory, store: memory.New()}, nil
	case persistence.BackendFile:
		fs, err := file.New(appCfg.Storage.File.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		logger.Info("file settings store ready", observability.F("dir", fs.Dir()))
		return &storeHandle{backend: persistence.BackendFile, store: fs, file: fs}, nil
	case persistence.BackendPostgres:
		return openPostgres(ctx, appCfg.Database, logger)
	case persistence.BackendRedis:
		return openRedis(ctx, appCfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", appCfg.Storage.Backend)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger observability.Logger) (*storeHandle, error) {
	if cfg.RunMigrations {
		if err := migrations.Apply(ctx, cfg.DSN, "", logger); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	pool, err := postgres.Connect(ctx, postgres.PoolConfig{
		DSN:            cfg.DSN,
		MaxConns:       cfg.MaxConns,
		MinConns:       cfg.MinConns,
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := postgres.ObservePoolMetrics(pool, postgresPoolName); err != nil {
		logger.Warn("register pool metrics failed", observability.F("error", err))
	}
	return &storeHandle{
		backend: persistence.BackendPostgres,
		store:   postgres.NewSettingsStore(pool),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig, logger observability.Logger) (*storeHandle, error) {
	store, err := redisstore.New(redisstore.Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		return nil, err
	}
	if err := store.WaitReady(ctx, redisReadyTimeout, logger); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("redis settings store ready", observability.F("addr", cfg.Addr), observability.F("db", cfg.DB))
	return &storeHandle{backend: persistence.BackendRedis, store: store, close: store.Close}, nil
}

func buildDispatcher(ctx context.Context, cfg config.TranslatorConfig, reg *registry.Registry, localizer *i18n.Translator, logger observability.Logger) *translate.Dispatcher {
	client := translator.New(translator.Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}, nil)
	if !client.Enabled() {
		logger.Info("translator disabled; custom descriptions stay untranslated")
		return nil
	}
	logger.Info("translator enabled", observability.F("model", cfg.Model), observability.F("baseUrl", cfg.BaseURL))
	return translate.NewDispatcher(ctx, client, reg, localizer, logger)
}

func startWatcher(ctx context.Context, lifecycle *conc.WaitGroup, logger observability.Logger, store *file.Store, ws *workspace.Workspace) {
	lifecycle.Go(func() {
		err := store.Watch(ctx, ws.Key(), func([]byte) {
			if err := ws.Restore(ctx); err != nil {
				logger.Warn("reload settings after external change failed", observability.F("error", err))
			}
		})
		if err != nil {
			logger.Error("settings file watcher stopped", observability.F("error", err))
		}
	})
}

func buildAPIServer(cfg config.APIServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: apiReadHeaderTimeout,
	}
}

func startAPIServer(lifecycle *conc.WaitGroup, logger observability.Logger, server *http.Server) {
	lifecycle.Go(func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control server failed", observability.F("error", err))
		}
	})
}

type gracefulShutdownConfig struct {
	server       *http.Server
	mainCancel   context.CancelFunc
	stopWatch    context.CancelFunc
	lifecycle    *conc.WaitGroup
	translations *translate.Dispatcher
	workspace    *workspace.Workspace
	saveOnExit   bool
	store        *storeHandle
	telemetry    *telemetry.Provider
}

func performGracefulShutdown(ctx context.Context, logger observability.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Info("shutdown: " + name)
		if err := fn(stepCtx); err != nil {
			logger.Warn("shutdown step failed", observability.F("step", name), observability.F("error", err))
		} else {
			logger.Debug("shutdown step completed", observability.F("step", name))
		}
	}

	if cfg.server != nil {
		shutdownStep("stopping control server", apiServerShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.server.Shutdown(stepCtx)
		})
	}

	if cfg.stopWatch != nil {
		cfg.stopWatch()
	}
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.lifecycle != nil {
		shutdownStep("waiting for lifecycle goroutines", lifecycleShutdownTimeout, func(stepCtx context.Context) error {
			return waitWithContext(stepCtx, cfg.lifecycle.Wait)
		})
	}

	if cfg.translations != nil {
		shutdownStep("draining translations", translationDrainTimeout, func(stepCtx context.Context) error {
			return waitWithContext(stepCtx, cfg.translations.Wait)
		})
	}

	if cfg.saveOnExit && cfg.workspace != nil {
		shutdownStep("saving settings", finalSaveTimeout, func(stepCtx context.Context) error {
			return cfg.workspace.Save(stepCtx)
		})
	}

	if cfg.store != nil && cfg.store.close != nil {
		shutdownStep("closing "+string(cfg.store.backend)+" store", storeCloseTimeout, func(context.Context) error {
			return cfg.store.close()
		})
	}

	if cfg.telemetry != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.telemetry.Shutdown(stepCtx)
		})
	}
}

func waitWithContext(ctx context.Context, wait func()) error {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting: %w", ctx.Err())
	}
}
