package extension

import (
	"context"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Keychain host method names.
const (
	keychainMethodSignTx      = "requestSignTx"
	keychainMethodEncryptMemo = "requestEncodeMessage"
	keychainMethodDecryptMemo = "requestVerifyKey"
)

// Keychain adapts the keychain host's error-channel callback API to the
// capability contract.
type Keychain struct {
	transport KeychainTransport
	account   string
}

// Compile-time interface check
var _ wallet.Wallet = (*Keychain)(nil)

// NewKeychain creates a keychain-backed wallet for the given account.
func NewKeychain(transport KeychainTransport, account string) *Keychain {
	return &Keychain{transport: transport, account: account}
}

// SignTransaction converts tx to its signing JSON and requests a signature
// from the host for the given role.
func (k *Keychain) SignTransaction(ctx context.Context, tx wallet.Transaction, role wallet.Role) ([]string, error) {
	signingJSON, err := tx.SigningJSON()
	if err != nil {
		return nil, hberr.Wrap(err, "serializing transaction")
	}

	resp, err := k.call(ctx, &Request{
		Method:  keychainMethodSignTx,
		Account: k.account,
		Role:    role.String(),
		Tx:      signingJSON,
	})
	if err != nil {
		return nil, err
	}

	sigs, err := decodeSignatures(resp.Result)
	if err != nil {
		return nil, hberr.Wrap(err, "decoding sign result")
	}
	return sigs, nil
}

// Encrypt asks the host to encrypt a memo to recipientPub with this
// account's memo key.
func (k *Keychain) Encrypt(ctx context.Context, plaintext, recipientPub string) (string, error) {
	resp, err := k.call(ctx, &Request{
		Method:  keychainMethodEncryptMemo,
		Account: k.account,
		Params: map[string]string{
			"receiver": recipientPub,
			"message":  wallet.EnsureMemoMarker(plaintext),
		},
	})
	if err != nil {
		return "", err
	}

	ct, err := decodeCiphertext(resp.Result)
	if err != nil {
		return "", hberr.Wrap(err, "decoding encrypt result")
	}
	return ct, nil
}

// Decrypt asks the host to decrypt a memo addressed to this account.
func (k *Keychain) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	resp, err := k.call(ctx, &Request{
		Method:  keychainMethodDecryptMemo,
		Account: k.account,
		Params: map[string]string{
			"message": ciphertext,
		},
	})
	if err != nil {
		return "", err
	}

	var plaintext string
	if unmarshalErr := decodeString(resp.Result, &plaintext); unmarshalErr != nil {
		return "", hberr.Wrap(unmarshalErr, "decoding decrypt result")
	}
	return plaintext, nil
}

// call bridges the host's single-shot callback into a blocking request.
// A nil response from the host means the channel to the extension is gone.
func (k *Keychain) call(ctx context.Context, req *Request) (*Response, error) {
	if k.transport == nil {
		return nil, hberr.ErrProviderUnavailable
	}

	done := make(chan *Response, 1)
	k.transport.Request(req, func(resp *Response) {
		done <- resp
	})

	select {
	case resp := <-done:
		if resp == nil {
			return nil, hberr.WithDetails(hberr.ErrProviderUnavailable,
				map[string]string{"method": req.Method})
		}
		if resp.Error != "" {
			return nil, hberr.WithDetails(hberr.ErrProviderRejected,
				map[string]string{"method": req.Method, "reason": resp.Error})
		}
		return resp, nil
	case <-ctx.Done():
		return nil, hberr.Wrap(ctx.Err(), "keychain request %s abandoned", req.Method)
	}
}
