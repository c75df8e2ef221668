package cloud

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/scrypt"

	"github.com/hivebridge-io/hivebridge/internal/store"
)

const (
	// keyringService namespaces cloud secrets in the OS keyring.
	keyringService = "hivebridge-cloud"

	// keyringUser is the fixed entry the derived encryption key lives under.
	// At most one cloud wallet per identity, so one entry suffices.
	keyringUser = "encryption-key"

	// derivedKeyLength is the derived encryption key size in bytes.
	derivedKeyLength = 32

	// saltPrefix namespaces the scrypt salt per account so two accounts
	// never derive the same key from the same password.
	saltPrefix = "hivebridge/cloud-wallet/v1/"

	// wifVersion is the base58check version byte for the encoded key.
	wifVersion = 0x80
)

// scrypt cost parameters for password key derivation.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// KeyCache holds the encryption key derived from the recovery password.
// The password stays the single source of truth for unlocking the cloud
// wallet; this cache is a shortcut so later app loads skip the prompt.
// Wiping it forces a future password prompt, never a failure.
type KeyCache struct {
	ring store.Keyring
}

// NewKeyCache creates a key cache over the given keyring.
func NewKeyCache(ring store.Keyring) *KeyCache {
	return &KeyCache{ring: ring}
}

// DeriveKey derives the wallet encryption key from the recovery password,
// WIF-encoded for storage.
func DeriveKey(password, account string) (string, error) {
	if password == "" {
		return "", errors.New("recovery password is empty")
	}

	raw, err := scrypt.Key([]byte(password), []byte(saltPrefix+account),
		scryptN, scryptR, scryptP, derivedKeyLength)
	if err != nil {
		return "", fmt.Errorf("deriving encryption key: %w", err)
	}

	return base58.CheckEncode(raw, wifVersion), nil
}

// Get returns the cached encryption key, if any.
func (c *KeyCache) Get() (string, bool) {
	key, err := c.ring.Get(keyringService, keyringUser)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// Put caches the derived encryption key.
func (c *KeyCache) Put(keyWIF string) error {
	if err := c.ring.Set(keyringService, keyringUser, keyWIF); err != nil {
		return fmt.Errorf("caching encryption key: %w", err)
	}
	return nil
}

// Clear wipes the cached key. The next unlock falls back to re-deriving
// from the recovery password.
func (c *KeyCache) Clear() error {
	if err := c.ring.Delete(keyringService, keyringUser); err != nil {
		return fmt.Errorf("clearing encryption key: %w", err)
	}
	return nil
}
