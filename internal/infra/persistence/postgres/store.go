// Package postgres stores the settings record in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
)

// SettingsStore persists serialised settings in the app_settings table.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore constructs a SettingsStore backed by the provided pgx pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

const (
	settingsUpsertSQL = `
INSERT INTO app_settings (
    key,
    value,
    updated_at
)
VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = NOW();
`
	settingsSelectSQL = `SELECT value::text FROM app_settings WHERE key = $1;`
	settingsDeleteSQL = `DELETE FROM app_settings WHERE key = $1;`
)

// Pool exposes the underlying pool.
func (s *SettingsStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Load returns the stored value or settingsstore.ErrNotFound.
func (s *SettingsStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("settings store: nil pool")
	}
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return nil, fmt.Errorf("settings store: %w", err)
	}
	var value string
	if err := s.pool.QueryRow(ctx, settingsSelectSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, settingsstore.ErrNotFound
		}
		return nil, fmt.Errorf("settings store: load %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save upserts value under key. The value must be a JSON document.
func (s *SettingsStore) Save(ctx context.Context, key string, value []byte) error {
	if s.pool == nil {
		return fmt.Errorf("settings store: nil pool")
	}
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return fmt.Errorf("settings store: %w", err)
	}
	if !json.Valid(value) {
		return fmt.Errorf("settings store: value for %s is not valid JSON", key)
	}
	if _, err := s.pool.Exec(ctx, settingsUpsertSQL, key, string(value)); err != nil {
		return fmt.Errorf("settings store: save %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key. Deleting an absent key is not an error.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	if s.pool == nil {
		return fmt.Errorf("settings store: nil pool")
	}
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return fmt.Errorf("settings store: %w", err)
	}
	if _, err := s.pool.Exec(ctx, settingsDeleteSQL, key); err != nil {
		return fmt.Errorf("settings store: delete %s: %w", key, err)
	}
	return nil
}

var _ settingsstore.Store = (*SettingsStore)(nil)
