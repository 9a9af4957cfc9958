// Package settingsstore defines the key-value persistence contract for the settings record.
package settingsstore

import (
	"context"
	"errors"
)

// DefaultKey is the logical key holding the serialised settings record.
const DefaultKey = "eob-app-settings"

// ErrNotFound reports that no value is stored under the key. Absence is a legal state.
var ErrNotFound = errors.New("settings not found")

// Store persists opaque serialised settings under a key. A Save either fully succeeds or
// reports an error.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
