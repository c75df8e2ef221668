// Package extension bridges host-injected signing extensions into the
// capability contract. Each adapter wraps one host transport; the transports
// keep their native callback conventions, which differ per host and are
// documented on each interface. Adapters normalize failures into the shared
// error taxonomy and never retry: one call maps to one underlying request.
package extension

import (
	"context"
	"encoding/json"
	"errors"
)

// Request is the plain-JSON wire shape extension hosts expect. Transactions
// are converted to their signing JSON before the request goes out.
type Request struct {
	Method  string            `json:"method"`
	Account string            `json:"account,omitempty"`
	Role    string            `json:"role,omitempty"`
	Tx      json.RawMessage   `json:"tx,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// Response is the error-channel callback shape the keychain host uses: the
// callback receives {error, result} and the caller rejects on a non-empty
// error.
type Response struct {
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// KeychainTransport mirrors the keychain host's injected surface: an
// asynchronous request with a completion callback. The callback is invoked
// exactly once per request, from any goroutine.
type KeychainTransport interface {
	Request(req *Request, done func(*Response))
}

// VaultResult is the direct result object the vault host returns. There is
// no separate error channel; failure is signalled by Success=false with a
// human-readable Message.
type VaultResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// VaultTransport mirrors the vault host's injected surface: a synchronous
// promise-style request returning the result object directly.
type VaultTransport interface {
	Request(ctx context.Context, req *Request) (*VaultResult, error)
}

// SnapManifest describes one installed snap as reported by the host wallet.
type SnapManifest struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
	Blocked bool   `json:"blocked"`
}

// SnapTransport mirrors the host wallet's snap management RPC surface.
type SnapTransport interface {
	// GetSnaps lists the snaps the host has installed, keyed by snap ID.
	GetSnaps(ctx context.Context) (map[string]SnapManifest, error)

	// RequestSnaps asks the host to install or update a snap, prompting the
	// user for permission.
	RequestSnaps(ctx context.Context, snapID, version string) error

	// InvokeSnap calls a method inside an installed snap.
	InvokeSnap(ctx context.Context, snapID, method string, params map[string]string) (json.RawMessage, error)
}

// Detector reports whether a transport's host is currently reachable. The
// availability watcher uses it to gray out absent providers; it never gates
// an actual connect.
type Detector interface {
	Detect(ctx context.Context) bool
}

// decodeSignatures accepts either a single signature string or an array of
// signature strings, the two result shapes hosts emit for sign requests.
func decodeSignatures(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}

// decodeCiphertext unwraps an encrypt result. Hosts return either a bare
// ciphertext string or a map keyed by recipient holding the sole ciphertext.
func decodeCiphertext(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var byRecipient map[string]string
	if err := json.Unmarshal(raw, &byRecipient); err != nil {
		return "", err
	}
	for _, ct := range byRecipient {
		return ct, nil
	}
	return "", errEmptyEncryptResult
}

var errEmptyEncryptResult = errors.New("encrypt result carried no ciphertext")

// decodeString unmarshals a bare JSON string result.
func decodeString(raw json.RawMessage, out *string) error {
	return json.Unmarshal(raw, out)
}
