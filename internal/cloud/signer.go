package cloud

import (
	"context"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/metrics"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Signer is the capability contract over a loaded cloud wallet, bound to
// one account and role. Key material is fetched from the open drive handle
// per operation and zeroed immediately after use.
type Signer struct {
	provider *Provider
	account  string
	role     wallet.Role
}

// Compile-time interface check
var _ wallet.Wallet = (*Signer)(nil)

// SignTransaction signs the transaction digest with the role's key.
func (s *Signer) SignTransaction(ctx context.Context, tx wallet.Transaction, role wallet.Role) (sigs []string, err error) {
	defer func() { metrics.Global.RecordSignOp(err) }()

	priv, err := s.key(ctx, role)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	digest, err := tx.Digest()
	if err != nil {
		return nil, hberr.Wrap(err, "computing transaction digest")
	}

	sig, err := priv.SignDigest(digest)
	if err != nil {
		return nil, hberr.Wrap(err, "signing transaction")
	}
	return []string{sig}, nil
}

// Encrypt encrypts a memo to recipientPub. Encryption needs no local key:
// the ciphertext is addressed to the recipient's public key.
func (s *Signer) Encrypt(_ context.Context, plaintext, recipientPub string) (string, error) {
	ct, err := keys.EncryptMemo(wallet.EnsureMemoMarker(plaintext), recipientPub)
	if err != nil {
		return "", hberr.Wrap(err, "encrypting memo")
	}
	return ct, nil
}

// Decrypt decrypts a memo addressed to this wallet's bound role key.
func (s *Signer) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	priv, err := s.key(ctx, s.role)
	if err != nil {
		return "", err
	}
	defer priv.Zero()

	plaintext, err := keys.DecryptMemo(ciphertext, priv)
	if err != nil {
		return "", hberr.WithDetails(hberr.ErrDecryptionFailed,
			map[string]string{"account": s.account})
	}
	return plaintext, nil
}

// key loads the role's private key from the open wallet handle, opening it
// first when necessary.
func (s *Signer) key(ctx context.Context, role wallet.Role) (*keys.PrivateKey, error) {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()

	if err := s.provider.open(ctx, s.account); err != nil {
		return nil, err
	}

	wif, ok := s.provider.store.Key(role)
	if !ok {
		return nil, hberr.WithDetails(hberr.ErrNotFound,
			map[string]string{"account": s.account, "role": role.String()})
	}

	priv, err := keys.ParseWIF(wif)
	if err != nil {
		return nil, hberr.Wrap(err, "parsing stored key")
	}
	return priv, nil
}
