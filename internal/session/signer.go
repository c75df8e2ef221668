package session

import (
	"context"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/metrics"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Signer is the capability contract over one unlocked local ring, bound to
// the role it was resolved for. Signing happens at the digest level; this
// system produces exactly one signature per call, multi-signature
// composition belongs to the caller.
type Signer struct {
	registry *Registry
	role     wallet.Role
	ring     *ring
}

// Compile-time interface check
var _ wallet.Wallet = (*Signer)(nil)

// Role returns the role this signer is bound to.
func (s *Signer) Role() wallet.Role {
	return s.role
}

// PublicKey returns the bound ring's public key.
func (s *Signer) PublicKey() string {
	return s.ring.pubKey
}

// SignTransaction signs the transaction digest with the bound ring.
func (s *Signer) SignTransaction(_ context.Context, tx wallet.Transaction, _ wallet.Role) ([]string, error) {
	return s.GenerateSignatures(tx)
}

// GenerateSignatures computes a digest-level signature with the bound ring
// and returns it as a single-element list.
func (s *Signer) GenerateSignatures(tx wallet.Transaction) (sigs []string, err error) {
	defer func() { metrics.Global.RecordSignOp(err) }()

	if !s.registry.holds(s.ring) {
		return nil, hberr.ErrWalletNotUnlocked
	}

	digest, err := tx.Digest()
	if err != nil {
		return nil, hberr.Wrap(err, "computing transaction digest")
	}

	sig, err := s.ring.key.SignDigest(digest)
	if err != nil {
		return nil, hberr.Wrap(err, "signing transaction")
	}
	return []string{sig}, nil
}

// Encrypt encrypts a memo to recipientPub.
func (s *Signer) Encrypt(_ context.Context, plaintext, recipientPub string) (string, error) {
	ct, err := keys.EncryptMemo(wallet.EnsureMemoMarker(plaintext), recipientPub)
	if err != nil {
		return "", hberr.Wrap(err, "encrypting memo")
	}
	return ct, nil
}

// Decrypt decrypts a memo addressed to the bound ring's key.
func (s *Signer) Decrypt(_ context.Context, ciphertext string) (string, error) {
	if !s.registry.holds(s.ring) {
		return "", hberr.ErrWalletNotUnlocked
	}

	plaintext, err := keys.DecryptMemo(ciphertext, s.ring.key)
	if err != nil {
		return "", hberr.ErrDecryptionFailed
	}
	return plaintext, nil
}
