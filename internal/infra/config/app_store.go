package config

import (
	"reflect"
	"sync"
)

// AppConfigStore holds the canonical application configuration and persists changes via a callback.
type AppConfigStore struct {
	mu      sync.RWMutex
	cfg     AppConfig
	persist func(AppConfig) error
}

// NewAppConfigStore constructs a configuration store seeded with the supplied configuration snapshot.
func NewAppConfigStore(initial AppConfig, persist func(AppConfig) error) (*AppConfigStore, error) {
	clone := initial.Clone()
	clone.applyDefaults()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	return &AppConfigStore{mu: sync.RWMutex{}, cfg: clone, persist: persist}, nil
}

// Snapshot returns a deep copy of the current application configuration.
func (s *AppConfigStore) Snapshot() AppConfig {
	if s == nil {
		return DefaultAppConfig()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetAllowedOrigins replaces the CORS origin list.
func (s *AppConfigStore) SetAllowedOrigins(origins []string) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	updated := s.cfg.Clone()
	s.mu.RUnlock()
	updated.APIServer.AllowedOrigins = origins
	return s.Replace(updated)
}

// Replace swaps the entire application configuration snapshot.
func (s *AppConfigStore) Replace(cfg AppConfig) error {
	if s == nil {
		return nil
	}
	updated := cfg.Clone()
	updated.applyDefaults()
	if err := updated.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reflect.DeepEqual(s.cfg, updated) {
		s.cfg = updated
		return nil
	}

	if s.persist != nil {
		if err := s.persist(updated.Clone()); err != nil {
			return err
		}
	}

	s.cfg = updated
	return nil
}
