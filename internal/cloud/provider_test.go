package cloud

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivebridge-io/hivebridge/internal/cloudapi"
	"github.com/hivebridge-io/hivebridge/internal/hbcrypto"
	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/prompt"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/store"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

func TestMain(m *testing.M) {
	hbcrypto.SetScryptWorkFactor(10)
	os.Exit(m.Run())
}

// fakeAPI is an in-memory cloud collaborator: one wallet file slot and an
// authenticated flag.
type fakeAPI struct {
	mu            sync.Mutex
	authenticated bool
	fileID        string
	fileContent   []byte
	loggedOut     bool
}

func (f *fakeAPI) Status(context.Context) *cloudapi.AuthStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &cloudapi.AuthStatus{Authenticated: f.authenticated}
}

func (f *fakeAPI) VerifyAuth(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authenticated {
		return hberr.ErrAuthExpired
	}
	return nil
}

func (f *fakeAPI) Logout(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = false
	f.loggedOut = true
	return true, nil
}

func (f *fakeAPI) WalletFile(context.Context) (*cloudapi.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authenticated {
		return nil, hberr.ErrAuthExpired
	}
	return &cloudapi.FileInfo{Exists: f.fileID != "", FileID: f.fileID}, nil
}

func (f *fakeAPI) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fileID != f.fileID || f.fileID == "" {
		return nil, hberr.ErrWalletNotFound
	}
	return f.fileContent, nil
}

func (f *fakeAPI) CreateFile(_ context.Context, _ string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileID = "file-1"
	f.fileContent = content
	return f.fileID, nil
}

func (f *fakeAPI) UpdateFile(_ context.Context, fileID string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fileID != f.fileID {
		return hberr.ErrWalletNotFound
	}
	f.fileContent = content
	return nil
}

// fakeKeyring is an in-memory keyring.
type fakeKeyring struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeKeyring() *fakeKeyring {
	return &fakeKeyring{entries: make(map[string]string)}
}

func (f *fakeKeyring) Set(service, user, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[service+"/"+user] = password
	return nil
}

func (f *fakeKeyring) Get(service, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[service+"/"+user]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeKeyring) Delete(service, user string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, service+"/"+user)
	return nil
}

var _ store.Keyring = (*fakeKeyring)(nil)

// answerPrompts settles every prompt the bridge receives with value until
// the test finishes. It counts how many prompts were answered.
func answerPrompts(t *testing.T, bridge *prompt.Bridge, value string) *atomic.Int32 {
	t.Helper()
	var count atomic.Int32
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		for {
			select {
			case <-done:
				return
			case <-bridge.Notify():
				for {
					if _, ok := bridge.Oldest(); !ok {
						break
					}
					bridge.Submit(value)
					count.Add(1)
				}
			}
		}
	}()
	return &count
}

type testEnv struct {
	api      *fakeAPI
	ring     *fakeKeyring
	bridge   *prompt.Bridge
	provider *Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := &fakeAPI{authenticated: true}
	ring := newFakeKeyring()
	bridge := prompt.NewBridge()
	st := settings.NewStore(store.NewFileStore(filepath.Join(t.TempDir(), "settings.json")))
	provider := NewProvider(api, NewDriveStore(api), NewKeyCache(ring), bridge, st)
	return &testEnv{api: api, ring: ring, bridge: bridge, provider: provider}
}

func newWIF(t *testing.T) string {
	t.Helper()
	k, err := keys.Generate()
	require.NoError(t, err)
	return k.WIF()
}

func TestCreateAndLoadWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	wif := newWIF(t)

	info, err := env.provider.CreateWallet(ctx, "alice", wif, wallet.RolePosting, "recovery pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.AccountName)
	assert.Equal(t, wallet.RolePosting, info.Role)
	assert.Contains(t, info.PublicKey, "PUB")

	// Loading with the cached key needs no prompt.
	answered := answerPrompts(t, env.bridge, "recovery pass")
	loaded, err := env.provider.LoadWallet(ctx, "alice", wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, info.PublicKey, loaded.PublicKey)
	assert.Equal(t, int32(0), answered.Load(), "cached key should skip the password prompt")
}

func TestCreateWalletReturnsSuppliedPublicKey(t *testing.T) {
	env := newTestEnv(t)
	k, err := keys.Generate()
	require.NoError(t, err)
	wantPub := k.PublicKey()

	info, err := env.provider.CreateWallet(context.Background(), "alice", k.WIF(), wallet.RolePosting, "pw")
	require.NoError(t, err)
	assert.Equal(t, wantPub, info.PublicKey)
}

func TestCreateWalletRequiresPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.provider.CreateWallet(context.Background(), "alice", newWIF(t), wallet.RolePosting, "")
	assert.True(t, hberr.Is(err, hberr.ErrInvalidInput))
}

func TestCreateWalletTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)

	_, err = env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RoleActive, "pw")
	assert.True(t, hberr.Is(err, hberr.ErrWalletExists))
}

func TestLoadWalletPromptsWhenCacheEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "recovery pass")
	require.NoError(t, err)

	// Simulate a fresh machine: no cached key, no open handle.
	require.NoError(t, env.provider.cache.Clear())
	env.provider.store.Close()

	answered := answerPrompts(t, env.bridge, "recovery pass")
	_, err = env.provider.LoadWallet(ctx, "alice", wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, int32(1), answered.Load())

	// The freshly derived key is cached for the next load.
	_, ok := env.provider.cache.Get()
	assert.True(t, ok)
}

func TestLoadWalletStaleCachedKeyReprompts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "recovery pass")
	require.NoError(t, err)

	// Poison the cache with a key for the wrong password.
	stale, err := DeriveKey("wrong password", "alice")
	require.NoError(t, err)
	require.NoError(t, env.provider.cache.Put(stale))
	env.provider.store.Close()

	answered := answerPrompts(t, env.bridge, "recovery pass")
	_, err = env.provider.LoadWallet(ctx, "alice", wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, int32(1), answered.Load(), "stale cache should fall back to one prompt")
}

func TestLoadWalletUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	env.api.authenticated = false

	_, err := env.provider.LoadWallet(context.Background(), "alice", wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrAuthExpired))
}

func TestLoadWalletMissingRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)

	_, err = env.provider.LoadWallet(ctx, "alice", wallet.RoleOwner)
	assert.True(t, hberr.Is(err, hberr.ErrNotFound))
}

func TestGetWalletInfoMissingFileIsResult(t *testing.T) {
	env := newTestEnv(t)

	info, err := env.provider.GetWalletInfo(context.Background(), "alice", wallet.RolePosting)
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.Nil(t, info.Wallet)
}

func TestGetWalletInfoAuthExpired(t *testing.T) {
	env := newTestEnv(t)
	env.api.authenticated = false

	_, err := env.provider.GetWalletInfo(context.Background(), "alice", wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrAuthExpired))
}

func TestGetAllConfiguredRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)
	_, err = env.provider.AddKey(ctx, "alice", wallet.RoleMemo, newWIF(t))
	require.NoError(t, err)

	roles, err := env.provider.GetAllConfiguredRoles(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []wallet.Role{wallet.RolePosting, wallet.RoleMemo}, roles)
}

func TestAddKeyOverwrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)

	k, err := keys.Generate()
	require.NoError(t, err)
	pub, err := env.provider.AddKey(ctx, "alice", wallet.RolePosting, k.WIF())
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), pub)

	loaded, err := env.provider.LoadWallet(ctx, "alice", wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), loaded.PublicKey)
}

func TestLogoutClearsCacheAndHandle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)

	require.NoError(t, env.provider.Logout(ctx))

	_, ok := env.provider.cache.Get()
	assert.False(t, ok, "logout must wipe the cached key")
	assert.False(t, env.provider.store.IsOpen())
	assert.True(t, env.api.loggedOut)
}

func TestPromptCancelledPropagates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RolePosting, "pw")
	require.NoError(t, err)
	require.NoError(t, env.provider.cache.Clear())
	env.provider.store.Close()

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case <-done:
				return
			case <-env.bridge.Notify():
				for {
					if _, ok := env.bridge.Oldest(); !ok {
						break
					}
					env.bridge.Cancel()
				}
			}
		}
	}()

	_, err = env.provider.LoadWallet(ctx, "alice", wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrPromptCancelled))
}

func TestSignerSignAndMemo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	memoKey, err := keys.Generate()
	require.NoError(t, err)
	_, err = env.provider.CreateWallet(ctx, "alice", memoKey.WIF(), wallet.RoleMemo, "pw")
	require.NoError(t, err)

	signer := env.provider.Signer("alice", wallet.RoleMemo)

	tx, err := wallet.NewJSONTransaction([]byte(`{"operations":[["vote",{"author":"bob"}]]}`))
	require.NoError(t, err)
	sigs, err := signer.SignTransaction(ctx, tx, wallet.RoleMemo)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Len(t, sigs[0], 130)

	ct, err := signer.Encrypt(ctx, "hello", memoKey.PublicKey())
	require.NoError(t, err)
	pt, err := signer.Decrypt(ctx, ct)
	require.NoError(t, err)
	assert.Equal(t, "#hello", pt)
}

func TestSignerDecryptWrongKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.provider.CreateWallet(ctx, "alice", newWIF(t), wallet.RoleMemo, "pw")
	require.NoError(t, err)

	other, err := keys.Generate()
	require.NoError(t, err)
	ct, err := keys.EncryptMemo("#secret", other.PublicKey())
	require.NoError(t, err)

	signer := env.provider.Signer("alice", wallet.RoleMemo)
	_, err = signer.Decrypt(ctx, ct)
	assert.True(t, hberr.Is(err, hberr.ErrDecryptionFailed))
}

func TestDeriveKeyAccountScoped(t *testing.T) {
	k1, err := DeriveKey("same password", "alice")
	require.NoError(t, err)
	k2, err := DeriveKey("same password", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	k3, err := DeriveKey("same password", "alice")
	require.NoError(t, err)
	assert.Equal(t, k1, k3)

	_, err = DeriveKey("", "alice")
	assert.Error(t, err)
}
