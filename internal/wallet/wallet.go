// Package wallet defines the capability contract every signing provider
// implements. Callers above this package are provider-agnostic: they hold a
// Wallet and invoke sign/encrypt/decrypt without knowing whether the keys
// live in an extension, a snap, or a cloud-stored file.
package wallet

import (
	"context"
	"strings"
)

// MemoMarker prefixes every plaintext handed to a provider for memo
// encryption. Providers expect it; EnsureMemoMarker adds it when absent.
const MemoMarker = "#"

// Wallet is the minimal operation set a connected signing provider exposes.
// A Wallet lives for one logical connection session; it holds no key
// material itself beyond what the underlying provider scopes to it.
type Wallet interface {
	// SignTransaction asks the provider to sign tx with the key matching
	// role. It returns the provider's signature artifacts (one or more
	// signature strings) and never mutates tx in a way that hides the role
	// used. Fails with ErrProviderRejected when the user or provider
	// declines, ErrProviderUnavailable when the underlying channel is gone.
	SignTransaction(ctx context.Context, tx Transaction, role Role) ([]string, error)

	// Encrypt encrypts plaintext to the holder of recipientPub. The
	// ciphertext format is provider-defined but must round-trip through
	// Decrypt on a wallet holding the matching private key.
	Encrypt(ctx context.Context, plaintext, recipientPub string) (string, error)

	// Decrypt decrypts a memo addressed to this wallet's key. Fails with
	// ErrDecryptionFailed when the ciphertext was not addressed to it.
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// Transaction is the opaque unsigned-transaction handle this layer signs.
// Construction and schema belong to the on-chain transaction library.
type Transaction interface {
	// Digest returns the digest a provider signs at the key level.
	Digest() ([]byte, error)

	// SigningJSON serializes the transaction to the plain JSON wire shape
	// extension providers expect.
	SigningJSON() ([]byte, error)
}

// EnsureMemoMarker prefixes s with the memo marker if it is not already
// prefixed.
func EnsureMemoMarker(s string) string {
	if strings.HasPrefix(s, MemoMarker) {
		return s
	}
	return MemoMarker + s
}

// StripMemoMarker removes a leading memo marker, if present.
func StripMemoMarker(s string) string {
	return strings.TrimPrefix(s, MemoMarker)
}
