// Package persistence groups the settings store backends.
package persistence

import (
	"fmt"
	"strings"
)

// Backend names a settings store implementation.
type Backend string

const (
	// BackendMemory keeps settings in process memory only.
	BackendMemory Backend = "memory"
	// BackendFile stores settings as a JSON file per key.
	BackendFile Backend = "file"
	// BackendPostgres stores settings in a PostgreSQL table.
	BackendPostgres Backend = "postgres"
	// BackendRedis stores settings under a Redis key.
	BackendRedis Backend = "redis"
)

// Valid reports whether the backend is known.
func (b Backend) Valid() bool {
	switch b {
	case BackendMemory, BackendFile, BackendPostgres, BackendRedis:
		return true
	default:
		return false
	}
}

// NormaliseKey trims a storage key and rejects empty keys.
func NormaliseKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("settings key required")
	}
	return trimmed, nil
}
