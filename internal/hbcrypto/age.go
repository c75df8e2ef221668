// Package hbcrypto wraps age passphrase encryption for the wallet stores.
// Ciphertexts are standard age streams with a single scrypt recipient, so a
// wallet file remains recoverable with the stock age tooling.
package hbcrypto

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"filippo.io/age"
)

// defaultWorkFactor is the scrypt log2(N) cost for passphrase recipients.
const defaultWorkFactor = 18

var (
	workFactorMu sync.RWMutex
	workFactor   = defaultWorkFactor
)

// SetScryptWorkFactor overrides the scrypt work factor. Tests lower it so
// encrypt/decrypt round trips stay fast.
func SetScryptWorkFactor(logN int) {
	workFactorMu.Lock()
	defer workFactorMu.Unlock()
	workFactor = logN
}

func currentWorkFactor() int {
	workFactorMu.RLock()
	defer workFactorMu.RUnlock()
	return workFactor
}

// Encrypt encrypts plaintext using age with a password-based recipient.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(currentWorkFactor())

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext using age with a password-based identity.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}
