// Package store provides the durable client-side key-value storage the
// connector persists its small records into: the provider selection record,
// the local wallet-slot index, and similar fixed-key entries. Secrets go
// through the Keyring instead.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hivebridge-io/hivebridge/internal/fileutil"
)

const (
	// storeFilePermissions is the permission mode for the store file.
	storeFilePermissions = 0o600

	// storeDirPermissions is the permission mode for the store directory.
	storeDirPermissions = 0o750
)

// ErrCorruptStore indicates the store file is malformed JSON.
var ErrCorruptStore = errors.New("store file is corrupted")

// KV is a durable string key-value store.
type KV interface {
	// Get retrieves a value. The second return reports presence.
	Get(key string) (string, bool, error)

	// Set stores a value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Compile-time interface check
var _ KV = (*FileStore)(nil)

// FileStore implements KV as a single JSON file on disk.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	loaded  bool
}

// NewFileStore creates a file-backed store at path. The file is created on
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get retrieves a value.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return "", false, err
	}

	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores a value and persists the whole store.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	s.entries[key] = value
	return s.saveLocked()
}

// Delete removes a key and persists the whole store.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	if _, ok := s.entries[key]; !ok {
		return nil
	}

	delete(s.entries, key)
	return s.saveLocked()
}

// loadLocked reads the store file once. A corrupted file is moved aside so a
// fresh store can take its place; the entry data is small and recreatable.
func (s *FileStore) loadLocked() error {
	if s.loaded {
		return nil
	}

	s.entries = make(map[string]string)
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.entries = make(map[string]string)
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptStore, err, renameErr)
		}
		return nil
	}

	return nil
}

func (s *FileStore) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, storeFilePermissions); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}

	return nil
}
