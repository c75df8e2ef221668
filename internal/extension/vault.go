package extension

import (
	"context"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Vault host method names.
const (
	vaultMethodSignTx      = "signTx"
	vaultMethodEncryptMemo = "encryptMemo"
	vaultMethodDecryptMemo = "decryptMemo"
)

// Vault adapts the vault host's direct-result API to the capability
// contract. Unlike the keychain host there is no error channel: the result
// object carries a success flag and a message, and the adapter inspects
// those instead. The two conventions are intentionally kept separate.
type Vault struct {
	transport VaultTransport
	account   string
}

// Compile-time interface check
var _ wallet.Wallet = (*Vault)(nil)

// NewVault creates a vault-backed wallet for the given account.
func NewVault(transport VaultTransport, account string) *Vault {
	return &Vault{transport: transport, account: account}
}

// SignTransaction converts tx to its signing JSON and requests a signature
// from the host for the given role.
func (v *Vault) SignTransaction(ctx context.Context, tx wallet.Transaction, role wallet.Role) ([]string, error) {
	signingJSON, err := tx.SigningJSON()
	if err != nil {
		return nil, hberr.Wrap(err, "serializing transaction")
	}

	result, err := v.call(ctx, &Request{
		Method:  vaultMethodSignTx,
		Account: v.account,
		Role:    role.String(),
		Tx:      signingJSON,
	})
	if err != nil {
		return nil, err
	}

	sigs, err := decodeSignatures(result.Result)
	if err != nil {
		return nil, hberr.Wrap(err, "decoding sign result")
	}
	return sigs, nil
}

// Encrypt asks the host to encrypt a memo to recipientPub.
func (v *Vault) Encrypt(ctx context.Context, plaintext, recipientPub string) (string, error) {
	result, err := v.call(ctx, &Request{
		Method:  vaultMethodEncryptMemo,
		Account: v.account,
		Params: map[string]string{
			"recipient": recipientPub,
			"message":   wallet.EnsureMemoMarker(plaintext),
		},
	})
	if err != nil {
		return "", err
	}

	ct, err := decodeCiphertext(result.Result)
	if err != nil {
		return "", hberr.Wrap(err, "decoding encrypt result")
	}
	return ct, nil
}

// Decrypt asks the host to decrypt a memo addressed to this account.
func (v *Vault) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	result, err := v.call(ctx, &Request{
		Method:  vaultMethodDecryptMemo,
		Account: v.account,
		Params: map[string]string{
			"message": ciphertext,
		},
	})
	if err != nil {
		return "", err
	}

	var plaintext string
	if unmarshalErr := decodeString(result.Result, &plaintext); unmarshalErr != nil {
		return "", hberr.Wrap(unmarshalErr, "decoding decrypt result")
	}
	return plaintext, nil
}

func (v *Vault) call(ctx context.Context, req *Request) (*VaultResult, error) {
	if v.transport == nil {
		return nil, hberr.ErrProviderUnavailable
	}

	result, err := v.transport.Request(ctx, req)
	if err != nil {
		// A transport-level failure means the channel to the host is gone.
		return nil, hberr.WithDetails(hberr.ErrProviderUnavailable,
			map[string]string{"method": req.Method, "reason": err.Error()})
	}
	if result == nil {
		return nil, hberr.WithDetails(hberr.ErrProviderUnavailable,
			map[string]string{"method": req.Method})
	}
	if !result.Success {
		return nil, hberr.WithDetails(hberr.ErrProviderRejected,
			map[string]string{"method": req.Method, "reason": result.Message})
	}
	return result, nil
}
