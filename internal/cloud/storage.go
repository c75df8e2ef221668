// Package cloud implements the cloud-custody signing provider: account keys
// live in a single age-encrypted JSON file in the user's cloud drive,
// unlocked by an encryption key derived from a user-chosen recovery
// password.
package cloud

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hivebridge-io/hivebridge/internal/cloudapi"
	"github.com/hivebridge-io/hivebridge/internal/hbcrypto"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// WalletFileName is the fixed well-known name of the remote wallet file.
// At most one wallet file exists per authenticated cloud identity.
const WalletFileName = "hivebridge.wallet"

// DriveAPI is the slice of the cloud API the drive store needs.
type DriveAPI interface {
	WalletFile(ctx context.Context) (*cloudapi.FileInfo, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	CreateFile(ctx context.Context, name string, content []byte) (string, error)
	UpdateFile(ctx context.Context, fileID string, content []byte) error
}

// walletContent is the decrypted wallet file body.
type walletContent struct {
	Account string            `json:"account"`
	Keys    map[string]string `json:"keys"` // role -> private key WIF
}

// DriveStore is the lazily-opened handle onto the remote wallet file. One
// handle at a time; Close releases it so the next operation re-opens fresh.
// Callers serialize access per the provider's concurrency contract.
type DriveStore struct {
	api DriveAPI

	mu      sync.Mutex
	content *walletContent
	fileID  string
}

// NewDriveStore creates a drive store over the given API.
func NewDriveStore(api DriveAPI) *DriveStore {
	return &DriveStore{api: api}
}

// IsOpen reports whether a decrypted handle is currently held.
func (s *DriveStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content != nil
}

// Account returns the account name of the open wallet, if any.
func (s *DriveStore) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content == nil {
		return ""
	}
	return s.content.Account
}

// Open downloads and decrypts the remote wallet file with encryptionKey.
// Opening an already-open store is a no-op. A failed decrypt surfaces as
// ErrInvalidPassword: the key derives from the recovery password, so a bad
// key means a bad (or stale) password.
func (s *DriveStore) Open(ctx context.Context, encryptionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content != nil {
		return nil
	}

	info, err := s.api.WalletFile(ctx)
	if err != nil {
		return err
	}
	if !info.Exists {
		return hberr.ErrWalletNotFound
	}

	ciphertext, err := s.api.DownloadFile(ctx, info.FileID)
	if err != nil {
		return err
	}

	plaintext, err := hbcrypto.Decrypt(ciphertext, encryptionKey)
	if err != nil {
		return hberr.ErrInvalidPassword
	}

	var content walletContent
	if err := json.Unmarshal(plaintext, &content); err != nil {
		return hberr.Wrap(err, "parsing wallet file")
	}
	if content.Keys == nil {
		content.Keys = make(map[string]string)
	}

	s.content = &content
	s.fileID = info.FileID
	return nil
}

// Create encrypts an empty wallet for account and uploads it as a new
// remote file, leaving the handle open.
func (s *DriveStore) Create(ctx context.Context, account, encryptionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content != nil {
		return hberr.ErrWalletExists
	}

	info, err := s.api.WalletFile(ctx)
	if err != nil {
		return err
	}
	if info.Exists {
		return hberr.ErrWalletExists
	}

	content := &walletContent{
		Account: account,
		Keys:    make(map[string]string),
	}

	ciphertext, err := encryptContent(content, encryptionKey)
	if err != nil {
		return err
	}

	fileID, err := s.api.CreateFile(ctx, WalletFileName, ciphertext)
	if err != nil {
		return err
	}

	s.content = content
	s.fileID = fileID
	return nil
}

// Key returns the private key WIF for role from the open wallet.
func (s *DriveStore) Key(role wallet.Role) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content == nil {
		return "", false
	}
	wif, ok := s.content.Keys[role.String()]
	return wif, ok
}

// AddKey stores (or overwrites) the key for role and re-uploads the
// encrypted file.
func (s *DriveStore) AddKey(ctx context.Context, role wallet.Role, privKeyWIF, encryptionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content == nil {
		return hberr.ErrWalletNotFound
	}

	previous, hadPrevious := s.content.Keys[role.String()]
	s.content.Keys[role.String()] = privKeyWIF

	ciphertext, err := encryptContent(s.content, encryptionKey)
	if err == nil {
		err = s.api.UpdateFile(ctx, s.fileID, ciphertext)
	}
	if err != nil {
		// Roll back the in-memory handle so it mirrors the remote file.
		if hadPrevious {
			s.content.Keys[role.String()] = previous
		} else {
			delete(s.content.Keys, role.String())
		}
		return err
	}

	return nil
}

// Close releases the decrypted handle. The next operation re-opens fresh.
func (s *DriveStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = nil
	s.fileID = ""
}

func encryptContent(content *walletContent, encryptionKey string) ([]byte, error) {
	plaintext, err := json.Marshal(content)
	if err != nil {
		return nil, hberr.Wrap(err, "marshaling wallet file")
	}
	ciphertext, err := hbcrypto.Encrypt(plaintext, encryptionKey)
	if err != nil {
		return nil, hberr.Wrap(err, "encrypting wallet file")
	}
	return ciphertext, nil
}
