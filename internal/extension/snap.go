package extension

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Snap method names invoked inside the snap.
const (
	snapMethodSignTx      = "hb_signTransaction"
	snapMethodEncryptMemo = "hb_encryptMemo"
	snapMethodDecryptMemo = "hb_decryptMemo"
)

// Snap adapts a sandboxed snap running inside a host wallet to the
// capability contract. On top of the contract it exposes install and
// detection operations: the snap must be installed in the host before any
// invoke succeeds.
type Snap struct {
	transport SnapTransport
	snapID    string
	account   string

	mu        sync.Mutex
	installed bool
	version   string
}

// Compile-time interface check
var _ wallet.Wallet = (*Snap)(nil)

// NewSnap creates a snap-backed wallet for the given account. Call
// DetectInstalled or InstallSnap before invoking operations.
func NewSnap(transport SnapTransport, snapID, account string) *Snap {
	return &Snap{transport: transport, snapID: snapID, account: account}
}

// IsInstalled reports the last detected install state.
func (s *Snap) IsInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// Version returns the installed snap version, if detected.
func (s *Snap) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// DetectInstalled refreshes the install state from the host's snap listing.
// A listing failure is treated as "not installed", not an error: the host
// itself may be absent.
func (s *Snap) DetectInstalled(ctx context.Context) bool {
	installed, version := false, ""
	if s.transport != nil {
		if snaps, err := s.transport.GetSnaps(ctx); err == nil {
			if manifest, ok := snaps[s.snapID]; ok && manifest.Enabled && !manifest.Blocked {
				installed = true
				version = manifest.Version
			}
		}
	}

	s.mu.Lock()
	s.installed = installed
	s.version = version
	s.mu.Unlock()
	return installed
}

// InstallSnap re-requests permission for the snap at the given version
// (empty means latest) and refreshes the detection state.
func (s *Snap) InstallSnap(ctx context.Context, version string) error {
	if s.transport == nil {
		return hberr.ErrProviderUnavailable
	}

	if err := s.transport.RequestSnaps(ctx, s.snapID, version); err != nil {
		return hberr.WithDetails(hberr.ErrProviderRejected,
			map[string]string{"snap": s.snapID, "reason": err.Error()})
	}

	s.DetectInstalled(ctx)
	return nil
}

// InvokeSnap calls a method inside the snap. It fails fast with
// ErrProviderUnavailable when the snap is not installed.
func (s *Snap) InvokeSnap(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	if !s.IsInstalled() {
		return nil, hberr.WithDetails(hberr.ErrProviderUnavailable,
			map[string]string{"snap": s.snapID, "method": method})
	}

	raw, err := s.transport.InvokeSnap(ctx, s.snapID, method, params)
	if err != nil {
		return nil, hberr.WithDetails(hberr.ErrProviderRejected,
			map[string]string{"snap": s.snapID, "method": method, "reason": err.Error()})
	}
	return raw, nil
}

// SignTransaction signs tx inside the snap with the key matching role.
func (s *Snap) SignTransaction(ctx context.Context, tx wallet.Transaction, role wallet.Role) ([]string, error) {
	signingJSON, err := tx.SigningJSON()
	if err != nil {
		return nil, hberr.Wrap(err, "serializing transaction")
	}

	raw, err := s.InvokeSnap(ctx, snapMethodSignTx, map[string]string{
		"account": s.account,
		"role":    role.String(),
		"tx":      string(signingJSON),
	})
	if err != nil {
		return nil, err
	}

	sigs, err := decodeSignatures(raw)
	if err != nil {
		return nil, hberr.Wrap(err, "decoding sign result")
	}
	return sigs, nil
}

// Encrypt encrypts a memo inside the snap.
func (s *Snap) Encrypt(ctx context.Context, plaintext, recipientPub string) (string, error) {
	raw, err := s.InvokeSnap(ctx, snapMethodEncryptMemo, map[string]string{
		"account":   s.account,
		"recipient": recipientPub,
		"message":   wallet.EnsureMemoMarker(plaintext),
	})
	if err != nil {
		return "", err
	}

	ct, err := decodeCiphertext(raw)
	if err != nil {
		return "", hberr.Wrap(err, "decoding encrypt result")
	}
	return ct, nil
}

// Decrypt decrypts a memo inside the snap.
func (s *Snap) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	raw, err := s.InvokeSnap(ctx, snapMethodDecryptMemo, map[string]string{
		"account": s.account,
		"message": ciphertext,
	})
	if err != nil {
		return "", err
	}

	var plaintext string
	if unmarshalErr := decodeString(raw, &plaintext); unmarshalErr != nil {
		return "", hberr.Wrap(unmarshalErr, "decoding decrypt result")
	}
	return plaintext, nil
}
