// Package file stores each settings key as a JSON file in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
	"github.com/coachpo/eobrowser/internal/observability"
)

const fileSuffix = ".json"

// Store writes values atomically through a temp file and rename.
type Store struct {
	dir    string
	logger observability.Logger

	mu      sync.Mutex
	written map[string]uint64
}

// New constructs a store rooted at dir, creating the directory when missing.
func New(dir string, logger observability.Logger) (*Store, error) {
	clean := strings.TrimSpace(dir)
	if clean == "" {
		return nil, fmt.Errorf("file store: directory required")
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", clean, err)
	}
	if logger == nil {
		logger = observability.Log()
	}
	return &Store{dir: clean, logger: logger, written: make(map[string]uint64)}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file holding key.
func (s *Store) Path(key string) (string, error) {
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("file store: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+fileSuffix), nil
}

// Load reads the file for key or returns settingsstore.ErrNotFound.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, settingsstore.ErrNotFound
		}
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	}
	return data, nil
}

// Save replaces the file for key. Readers never observe a partial write.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("file store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file store: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file store: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("file store: close %s: %w", tmpName, err)
	}

	s.mu.Lock()
	s.written[path] = xxhash.Sum64(value)
	s.mu.Unlock()

	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("file store: replace %s: %w", path, err)
	}
	return nil
}

// Delete removes the file for key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.written, path)
	s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file store: delete %s: %w", path, err)
	}
	return nil
}

// Watch invokes onChange with the new content whenever the file for key is replaced by
// another writer. Writes made through this store are ignored. Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, key string, onChange func([]byte)) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file store: create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("file store: watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings file watcher error", observability.F("error", err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					s.logger.Warn("settings file reload failed", observability.F("path", path), observability.F("error", err))
				}
				continue
			}
			if len(data) == 0 || !s.external(path, data) {
				continue
			}
			s.logger.Info("settings file changed externally", observability.F("path", path))
			onChange(data)
		}
	}
}

// external reports whether data differs from the last content this store wrote or saw,
// recording it as seen.
func (s *Store) external(path string, data []byte) bool {
	sum := xxhash.Sum64(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.written[path]; ok && last == sum {
		return false
	}
	s.written[path] = sum
	return true
}

var _ settingsstore.Store = (*Store)(nil)
