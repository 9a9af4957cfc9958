package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachpo/eobrowser/internal/observability"
)

// PoolConfig controls pool sizing and how long Connect keeps retrying.
type PoolConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

// Connect opens a pgx pool and pings it, retrying with exponential backoff until
// ConnectTimeout elapses.
func Connect(ctx context.Context, cfg PoolConfig, logger observability.Logger) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn required")
	}
	if logger == nil {
		logger = observability.Nop()
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = 5 * time.Second
	for attempt := 1; ; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				logger.Info("postgres pool ready",
					observability.F("maxConns", poolCfg.MaxConns),
					observability.F("attempts", attempt))
				return pool, nil
			}
			pool.Close()
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop || time.Now().Add(sleep).After(deadline) {
			return nil, fmt.Errorf("postgres: connect after %d attempts: %w", attempt, err)
		}
		logger.Warn("postgres connect failed, retrying",
			observability.F("attempt", attempt),
			observability.F("retryIn", sleep.String()),
			observability.F("error", err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
