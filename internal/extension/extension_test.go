package extension

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// fakeKeychainTransport replays a canned response through the callback and
// records the last request for inspection.
type fakeKeychainTransport struct {
	lastReq *Request
	resp    *Response
}

func (f *fakeKeychainTransport) Request(req *Request, done func(*Response)) {
	f.lastReq = req
	done(f.resp)
}

// fakeVaultTransport returns a canned result object.
type fakeVaultTransport struct {
	lastReq *Request
	result  *VaultResult
	err     error
}

func (f *fakeVaultTransport) Request(_ context.Context, req *Request) (*VaultResult, error) {
	f.lastReq = req
	return f.result, f.err
}

// fakeSnapTransport serves a static snap listing and canned invoke results.
type fakeSnapTransport struct {
	snaps      map[string]SnapManifest
	snapsErr   error
	requestErr error
	invoked    []string
	invokeRes  json.RawMessage
	invokeErr  error
}

func (f *fakeSnapTransport) GetSnaps(context.Context) (map[string]SnapManifest, error) {
	return f.snaps, f.snapsErr
}

func (f *fakeSnapTransport) RequestSnaps(_ context.Context, snapID, version string) error {
	if f.requestErr != nil {
		return f.requestErr
	}
	if f.snaps == nil {
		f.snaps = make(map[string]SnapManifest)
	}
	f.snaps[snapID] = SnapManifest{ID: snapID, Version: version, Enabled: true}
	return nil
}

func (f *fakeSnapTransport) InvokeSnap(_ context.Context, _, method string, _ map[string]string) (json.RawMessage, error) {
	f.invoked = append(f.invoked, method)
	return f.invokeRes, f.invokeErr
}

func testTx(t *testing.T) wallet.Transaction {
	t.Helper()
	tx, err := wallet.NewJSONTransaction([]byte(`{"operations":[["transfer",{"to":"bob"}]]}`))
	require.NoError(t, err)
	return tx
}

func TestKeychainSignTransaction(t *testing.T) {
	transport := &fakeKeychainTransport{
		resp: &Response{Result: json.RawMessage(`"1f00sig"`)},
	}
	k := NewKeychain(transport, "alice")

	sigs, err := k.SignTransaction(context.Background(), testTx(t), wallet.RoleActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"1f00sig"}, sigs)
	assert.Equal(t, "requestSignTx", transport.lastReq.Method)
	assert.Equal(t, "alice", transport.lastReq.Account)
	assert.Equal(t, "active", transport.lastReq.Role)
}

func TestKeychainNilResponseIsUnavailable(t *testing.T) {
	k := NewKeychain(&fakeKeychainTransport{resp: nil}, "alice")

	_, err := k.SignTransaction(context.Background(), testTx(t), wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrProviderUnavailable))
}

func TestKeychainErrorChannelIsRejection(t *testing.T) {
	k := NewKeychain(&fakeKeychainTransport{
		resp: &Response{Error: "user_cancel"},
	}, "alice")

	_, err := k.SignTransaction(context.Background(), testTx(t), wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrProviderRejected))
}

func TestKeychainNilTransport(t *testing.T) {
	k := NewKeychain(nil, "alice")
	_, err := k.Encrypt(context.Background(), "hi", "PUBkey")
	assert.True(t, hberr.Is(err, hberr.ErrProviderUnavailable))
}

// silentKeychainTransport accepts the request and never invokes the callback.
type silentKeychainTransport struct{}

func (silentKeychainTransport) Request(*Request, func(*Response)) {}

func TestKeychainContextCancelIsTaxonomyError(t *testing.T) {
	k := NewKeychain(silentKeychainTransport{}, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := k.SignTransaction(ctx, testTx(t), wallet.RolePosting)
	require.Error(t, err)

	var be *hberr.BridgeError
	assert.True(t, errors.As(err, &be))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestKeychainEncryptAddsMemoMarker(t *testing.T) {
	transport := &fakeKeychainTransport{
		resp: &Response{Result: json.RawMessage(`"#ciphertext"`)},
	}
	k := NewKeychain(transport, "alice")

	ct, err := k.Encrypt(context.Background(), "plain note", "PUBkey")
	require.NoError(t, err)
	assert.Equal(t, "#ciphertext", ct)
	assert.Equal(t, "#plain note", transport.lastReq.Params["message"])
}

func TestVaultSignTransaction(t *testing.T) {
	transport := &fakeVaultTransport{
		result: &VaultResult{Success: true, Result: json.RawMessage(`["sig1","sig2"]`)},
	}
	v := NewVault(transport, "alice")

	sigs, err := v.SignTransaction(context.Background(), testTx(t), wallet.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig1", "sig2"}, sigs)
	assert.Equal(t, "signTx", transport.lastReq.Method)
	assert.Equal(t, "owner", transport.lastReq.Role)
}

func TestVaultFailureIsRejection(t *testing.T) {
	v := NewVault(&fakeVaultTransport{
		result: &VaultResult{Success: false, Message: "denied by user"},
	}, "alice")

	_, err := v.SignTransaction(context.Background(), testTx(t), wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrProviderRejected))
}

func TestVaultTransportErrorIsUnavailable(t *testing.T) {
	v := NewVault(&fakeVaultTransport{err: errors.New("connection reset")}, "alice")

	_, err := v.Decrypt(context.Background(), "#ct")
	assert.True(t, hberr.Is(err, hberr.ErrProviderUnavailable))
}

func TestVaultDecrypt(t *testing.T) {
	v := NewVault(&fakeVaultTransport{
		result: &VaultResult{Success: true, Result: json.RawMessage(`"#hello"`)},
	}, "alice")

	pt, err := v.Decrypt(context.Background(), "#ct")
	require.NoError(t, err)
	assert.Equal(t, "#hello", pt)
}

func TestSnapDetectInstalled(t *testing.T) {
	transport := &fakeSnapTransport{
		snaps: map[string]SnapManifest{
			"npm:@hivebridge/wallet-snap": {ID: "npm:@hivebridge/wallet-snap", Version: "1.2.0", Enabled: true},
		},
	}
	s := NewSnap(transport, "npm:@hivebridge/wallet-snap", "alice")

	assert.True(t, s.DetectInstalled(context.Background()))
	assert.True(t, s.IsInstalled())
	assert.Equal(t, "1.2.0", s.Version())
}

func TestSnapDetectBlockedOrMissing(t *testing.T) {
	transport := &fakeSnapTransport{
		snaps: map[string]SnapManifest{
			"npm:other": {ID: "npm:other", Enabled: true},
			"npm:blocked": {
				ID: "npm:blocked", Enabled: true, Blocked: true,
			},
		},
	}

	assert.False(t, NewSnap(transport, "npm:missing", "a").DetectInstalled(context.Background()))
	assert.False(t, NewSnap(transport, "npm:blocked", "a").DetectInstalled(context.Background()))
}

func TestSnapDetectListingFailureMeansNotInstalled(t *testing.T) {
	transport := &fakeSnapTransport{snapsErr: errors.New("host gone")}
	s := NewSnap(transport, "npm:snap", "alice")
	assert.False(t, s.DetectInstalled(context.Background()))
}

func TestSnapInvokeFailsFastWhenNotInstalled(t *testing.T) {
	s := NewSnap(&fakeSnapTransport{}, "npm:snap", "alice")

	_, err := s.SignTransaction(context.Background(), testTx(t), wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrProviderUnavailable))
}

func TestSnapInstallThenSign(t *testing.T) {
	transport := &fakeSnapTransport{invokeRes: json.RawMessage(`"snapsig"`)}
	s := NewSnap(transport, "npm:snap", "alice")

	require.NoError(t, s.InstallSnap(context.Background(), "1.0.0"))
	require.True(t, s.IsInstalled())

	sigs, err := s.SignTransaction(context.Background(), testTx(t), wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, []string{"snapsig"}, sigs)
	assert.Equal(t, []string{"hb_signTransaction"}, transport.invoked)
}

func TestSnapInstallRejected(t *testing.T) {
	transport := &fakeSnapTransport{requestErr: errors.New("user declined")}
	s := NewSnap(transport, "npm:snap", "alice")

	err := s.InstallSnap(context.Background(), "")
	assert.True(t, hberr.Is(err, hberr.ErrProviderRejected))
}

func TestDecodeSignatures(t *testing.T) {
	sigs, err := decodeSignatures(json.RawMessage(`"single"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"single"}, sigs)

	sigs, err = decodeSignatures(json.RawMessage(`["a","b"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sigs)

	_, err = decodeSignatures(json.RawMessage(`{"bad":1}`))
	assert.Error(t, err)
}

func TestDecodeCiphertext(t *testing.T) {
	ct, err := decodeCiphertext(json.RawMessage(`"#ct"`))
	require.NoError(t, err)
	assert.Equal(t, "#ct", ct)

	ct, err = decodeCiphertext(json.RawMessage(`{"PUBrecipient":"#wrapped"}`))
	require.NoError(t, err)
	assert.Equal(t, "#wrapped", ct)

	_, err = decodeCiphertext(json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errEmptyEncryptResult)
}
