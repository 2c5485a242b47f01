// Package storage provides the host-side persistence primitives used by the
// diagnostic logger: a key-value store standing in for browser local storage
// and a download sink standing in for the browser's file download.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrQuotaExceeded is returned when a value does not fit in the store's quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// validKeyPattern restricts keys to names that are safe as file names.
var validKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// KeyValueStore is a string key-value store with whole-value writes.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

func validateKey(key string) error {
	if !validKeyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

// fileStore keeps each key in its own file under dir.
type fileStore struct {
	dir   string
	quota int
	mu    sync.Mutex
}

// NewFileStore creates a KeyValueStore backed by files under dir. A positive
// quota caps the size in bytes of any single value.
func NewFileStore(dir string, quota int) KeyValueStore {
	return &fileStore{dir: dir, quota: quota}
}

func (s *fileStore) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *fileStore) lockPath() string {
	return filepath.Join(s.dir, ".lock")
}

// Get returns the stored value and whether the key exists.
func (s *fileStore) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set replaces the value stored under key. The write goes to a temporary file
// that is renamed into place, so readers never observe a partial value.
func (s *fileStore) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("setting key %s (%d bytes, quota %d): %w", key, len(value), s.quota, ErrQuotaExceeded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("setting key %s: creating directory: %w", key, err)
	}

	unlock, err := lockFile(s.lockPath())
	if err != nil {
		return fmt.Errorf("setting key %s: %w", key, err)
	}
	defer func() { _ = unlock() }()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("setting key %s: creating temp file: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting key %s: writing: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting key %s: closing: %w", key, err)
	}
	if err := os.Rename(tmpName, s.keyPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting key %s: renaming: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *fileStore) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing key %s: %w", key, err)
	}
	return nil
}

// memoryStore is a map-backed KeyValueStore.
type memoryStore struct {
	quota  int
	values map[string]string
	mu     sync.Mutex
}

// NewMemoryStore creates an in-process KeyValueStore. A positive quota caps
// the size in bytes of any single value.
func NewMemoryStore(quota int) KeyValueStore {
	return &memoryStore{quota: quota, values: make(map[string]string)}
}

func (s *memoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(key, value string) error {
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("setting key %s (%d bytes, quota %d): %w", key, len(value), s.quota, ErrQuotaExceeded)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
