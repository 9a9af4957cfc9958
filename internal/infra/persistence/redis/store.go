// Package redis stores the settings record under a Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/go-redis/redis/v8"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
	"github.com/coachpo/eobrowser/internal/observability"
)

const keyPrefix = "eob:settings:"

// Config addresses the Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store keeps each settings key as a Redis string.
type Store struct {
	client goredis.UniversalClient
}

// New constructs a store backed by a single-node client.
func New(cfg Config) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis store: address required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis store: ping: %w", err)
	}
	return nil
}

// WaitReady pings until the server answers, backing off exponentially until timeout elapses.
func (s *Store) WaitReady(ctx context.Context, timeout time.Duration, logger observability.Logger) error {
	if logger == nil {
		logger = observability.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = 2 * time.Second
	for attempt := 1; ; attempt++ {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop || time.Now().Add(sleep).After(deadline) {
			return fmt.Errorf("redis store: not ready after %d attempts: %w", attempt, err)
		}
		logger.Warn("redis ping failed, retrying",
			observability.F("attempt", attempt),
			observability.F("retryIn", sleep.String()),
			observability.F("error", err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func redisKey(key string) (string, error) {
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return "", fmt.Errorf("redis store: %w", err)
	}
	return keyPrefix + key, nil
}

// Load returns the stored value or settingsstore.ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	rk, err := redisKey(key)
	if err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, rk).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, settingsstore.ErrNotFound
		}
		return nil, fmt.Errorf("redis store: get %s: %w", rk, err)
	}
	return value, nil
}

// Save sets value without expiry.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	rk, err := redisKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, rk, value, 0).Err(); err != nil {
		return fmt.Errorf("redis store: set %s: %w", rk, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	rk, err := redisKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, rk).Err(); err != nil {
		return fmt.Errorf("redis store: del %s: %w", rk, err)
	}
	return nil
}

var _ settingsstore.Store = (*Store)(nil)
