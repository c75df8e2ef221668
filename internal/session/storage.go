// Package session holds the local-custody key rings: at most one unlocked
// operational ring and at most one unlocked management ring process-wide,
// opened by an explicit login and torn down by an explicit destroy.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hivebridge-io/hivebridge/internal/fileutil"
	"github.com/hivebridge-io/hivebridge/internal/hbcrypto"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

const (
	// ringFileExtension is the extension for encrypted ring files.
	ringFileExtension = ".ring"

	// ringFilePermissions is the permission mode for ring files.
	ringFilePermissions = 0o600

	// ringDirPermissions is the permission mode for the rings directory.
	ringDirPermissions = 0o700
)

// ringNameRegex validates ring file names at the storage boundary.
var ringNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ringFile is the on-disk structure of one encrypted key ring.
type ringFile struct {
	Name         string `json:"name"`
	EncryptedKey []byte `json:"encrypted_key"`
}

// RingStorage persists password-encrypted key rings on the local disk.
type RingStorage struct {
	basePath string
}

// NewRingStorage creates ring storage rooted at basePath.
func NewRingStorage(basePath string) *RingStorage {
	return &RingStorage{basePath: basePath}
}

// Save encrypts a private key WIF under password and writes it as a new ring.
func (s *RingStorage) Save(name, privKeyWIF, password string) error {
	if !ringNameRegex.MatchString(name) {
		return hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"ring": name})
	}

	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return hberr.ErrWalletExists
	}

	if err := os.MkdirAll(s.basePath, ringDirPermissions); err != nil {
		return fmt.Errorf("creating rings directory: %w", err)
	}

	encrypted, err := hbcrypto.Encrypt([]byte(privKeyWIF), password)
	if err != nil {
		return fmt.Errorf("encrypting ring: %w", err)
	}

	data, err := json.MarshalIndent(ringFile{Name: name, EncryptedKey: encrypted}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ring: %w", err)
	}

	if err := fileutil.WriteAtomic(s.ringPath(name), data, ringFilePermissions); err != nil {
		return fmt.Errorf("writing ring file: %w", err)
	}

	return nil
}

// Load decrypts the private key WIF stored under name. The caller owns the
// returned buffer and must Destroy it after parsing. A failed decrypt
// surfaces as ErrInvalidPassword.
func (s *RingStorage) Load(name, password string) (*hbcrypto.SecureBytes, error) {
	if !ringNameRegex.MatchString(name) {
		return nil, hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"ring": name})
	}

	path := s.ringPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, hberr.ErrWalletNotFound
	}

	//nolint:gosec // G304: Path validated by ringNameRegex + ringPath
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ring file: %w", err)
	}

	var rf ringFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing ring file: %w", err)
	}

	plaintext, err := hbcrypto.Decrypt(rf.EncryptedKey, password)
	if err != nil {
		return nil, hberr.ErrInvalidPassword
	}

	sb := hbcrypto.SecureBytesFromSlice(plaintext)
	for i := range plaintext {
		plaintext[i] = 0
	}
	return sb, nil
}

// Exists checks if a ring exists.
func (s *RingStorage) Exists(name string) (bool, error) {
	if !ringNameRegex.MatchString(name) {
		return false, hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"ring": name})
	}

	_, err := os.Stat(s.ringPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a ring file.
func (s *RingStorage) Delete(name string) error {
	if !ringNameRegex.MatchString(name) {
		return hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"ring": name})
	}

	if err := os.Remove(s.ringPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing ring file: %w", err)
	}
	return nil
}

// ringPath returns the full path for a ring file. The name has already been
// validated against ringNameRegex, which prevents traversal.
func (s *RingStorage) ringPath(name string) string {
	path := filepath.Join(s.basePath, name+ringFileExtension)

	// A cleaned path must still end with the ring file name.
	cleanPath := filepath.Clean(path)
	expectedSuffix := string(filepath.Separator) + name + ringFileExtension
	if !strings.HasSuffix(cleanPath, expectedSuffix) {
		return ""
	}

	return cleanPath
}
