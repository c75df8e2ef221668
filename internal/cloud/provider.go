package cloud

import (
	"context"
	"sync"

	"github.com/hivebridge-io/hivebridge/internal/cloudapi"
	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/prompt"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// API is the slice of the cloud API the provider needs beyond the drive
// store's DriveAPI.
type API interface {
	DriveAPI
	Status(ctx context.Context) *cloudapi.AuthStatus
	VerifyAuth(ctx context.Context) error
	Logout(ctx context.Context) (bool, error)
}

// WalletInfo describes one loaded wallet key.
type WalletInfo struct {
	AccountName string
	Role        wallet.Role
	PublicKey   string
}

// Info is the result of a wallet existence probe.
type Info struct {
	Exists bool
	Wallet *WalletInfo
}

// Provider manages the cloud-stored encrypted wallet file. It is an
// explicitly constructed service: the application root owns one instance
// and serializes login/create/load per provider, matching the one
// outstanding-operation contract of the connector core.
type Provider struct {
	api      API
	store    *DriveStore
	cache    *KeyCache
	prompts  *prompt.Bridge
	settings *settings.Store

	mu sync.Mutex // serializes create/load/addkey
}

// NewProvider wires a cloud-custody provider from its collaborators.
func NewProvider(api API, store *DriveStore, cache *KeyCache, prompts *prompt.Bridge, st *settings.Store) *Provider {
	return &Provider{
		api:      api,
		store:    store,
		cache:    cache,
		prompts:  prompts,
		settings: st,
	}
}

// IsAuthenticated reports whether the cloud OAuth session is live. It never
// returns an error; any failure reads as "not authenticated".
func (p *Provider) IsAuthenticated(ctx context.Context) bool {
	return p.api.Status(ctx).Authenticated
}

// CreateWallet creates the remote wallet file for account, locked by a key
// derived from recoveryPassword, and imports the first private key under
// role. The password is threaded through the creation call explicitly; on
// success the derived key is cached so the next load skips the prompt.
func (p *Provider) CreateWallet(ctx context.Context, account, privKeyWIF string, role wallet.Role, recoveryPassword string) (*WalletInfo, error) {
	if recoveryPassword == "" {
		return nil, hberr.WithSuggestion(hberr.ErrInvalidInput,
			"a recovery password is required to create a cloud wallet")
	}
	if !role.Valid() {
		return nil, hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"role": role.String()})
	}

	priv, err := keys.ParseWIF(privKeyWIF)
	if err != nil {
		return nil, hberr.Wrap(err, "parsing private key")
	}
	defer priv.Zero()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Drop any previously open handle so creation starts fresh.
	p.store.Close()

	encryptionKey, err := DeriveKey(recoveryPassword, account)
	if err != nil {
		return nil, hberr.Wrap(err, "deriving encryption key")
	}

	if err := p.store.Create(ctx, account, encryptionKey); err != nil {
		return nil, err
	}
	if err := p.store.AddKey(ctx, role, privKeyWIF, encryptionKey); err != nil {
		return nil, err
	}

	if err := p.cache.Put(encryptionKey); err != nil {
		return nil, err
	}

	return &WalletInfo{
		AccountName: account,
		Role:        role,
		PublicKey:   priv.PublicKey(),
	}, nil
}

// LoadWallet opens the remote wallet and resolves the key for role.
// When no encryption key is cached, the user is prompted for the recovery
// password and the freshly derived key is cached for future loads.
func (p *Provider) LoadWallet(ctx context.Context, account string, role wallet.Role) (*WalletInfo, error) {
	if !p.IsAuthenticated(ctx) {
		return nil, hberr.ErrAuthExpired
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.open(ctx, account); err != nil {
		return nil, err
	}

	wif, ok := p.store.Key(role)
	if !ok {
		return nil, hberr.WithDetails(hberr.ErrNotFound,
			map[string]string{"account": account, "role": role.String()})
	}

	priv, err := keys.ParseWIF(wif)
	if err != nil {
		return nil, hberr.Wrap(err, "parsing stored key")
	}
	defer priv.Zero()

	return &WalletInfo{
		AccountName: account,
		Role:        role,
		PublicKey:   priv.PublicKey(),
	}, nil
}

// GetWalletInfo is a two-phase existence probe: it verifies the OAuth
// session (an expired session surfaces as ErrAuthExpired, distinguishable
// from generic failures), independently checks whether the remote file
// exists at all, and only then attempts the full load. A missing file is a
// result, not an error; a cancelled password prompt propagates as
// ErrPromptCancelled.
func (p *Provider) GetWalletInfo(ctx context.Context, account string, role wallet.Role) (*Info, error) {
	if err := p.api.VerifyAuth(ctx); err != nil {
		return nil, err
	}

	info, err := p.api.WalletFile(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return &Info{Exists: false}, nil
	}

	wi, err := p.LoadWallet(ctx, account, role)
	if err != nil {
		return nil, err
	}
	return &Info{Exists: true, Wallet: wi}, nil
}

// GetAllConfiguredRoles probes every known role and returns the ones whose
// keys load. A role that fails to load is simply not configured; a
// cancelled prompt aborts the whole probe and propagates.
func (p *Provider) GetAllConfiguredRoles(ctx context.Context, account string) ([]wallet.Role, error) {
	var configured []wallet.Role
	for _, role := range wallet.AllRoles {
		_, err := p.LoadWallet(ctx, account, role)
		if err != nil {
			if hberr.Is(err, hberr.ErrPromptCancelled) {
				return nil, err
			}
			continue
		}
		configured = append(configured, role)
	}
	return configured, nil
}

// AddKey stores (or overwrites) the private key for role in the open
// wallet, returning the derived public key.
func (p *Provider) AddKey(ctx context.Context, account string, role wallet.Role, privKeyWIF string) (string, error) {
	if !p.IsAuthenticated(ctx) {
		return "", hberr.ErrAuthExpired
	}
	if !role.Valid() {
		return "", hberr.WithDetails(hberr.ErrInvalidInput,
			map[string]string{"role": role.String()})
	}

	priv, err := keys.ParseWIF(privKeyWIF)
	if err != nil {
		return "", hberr.Wrap(err, "parsing private key")
	}
	defer priv.Zero()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.open(ctx, account); err != nil {
		return "", err
	}

	encryptionKey, err := p.resolveKey(ctx, account)
	if err != nil {
		return "", err
	}

	if err := p.store.AddKey(ctx, role, privKeyWIF, encryptionKey); err != nil {
		return "", err
	}

	return priv.PublicKey(), nil
}

// Logout invalidates the remote OAuth session, releases the wallet handle,
// and wipes the cached encryption key: the cache is the only durable
// "logged in" marker for this provider, so logout must clear it.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Close()
	if err := p.cache.Clear(); err != nil {
		return err
	}

	ok, err := p.api.Logout(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return hberr.WithDetails(hberr.ErrNetworkError,
			map[string]string{"reason": "logout endpoint reported failure"})
	}
	return nil
}

// RequestAccountName returns the account name from persisted settings when
// known, otherwise prompts the user for it.
func (p *Provider) RequestAccountName(ctx context.Context) (string, error) {
	if st, err := p.settings.Load(); err == nil && st != nil && st.AccountName != "" {
		return st.AccountName, nil
	}
	return p.prompts.Request(ctx, prompt.KindAccountName)
}

// Signer builds a role-scoped capability contract instance over the loaded
// cloud wallet. LoadWallet must have succeeded first.
func (p *Provider) Signer(account string, role wallet.Role) *Signer {
	return &Signer{provider: p, account: account, role: role}
}

// open ensures the drive store holds a decrypted handle, resolving the
// encryption key from the cache or, failing that, from a recovery-password
// prompt. A cached key that no longer decrypts the file is wiped and the
// user re-prompted once: the password is the source of truth, the cache is
// only a shortcut.
func (p *Provider) open(ctx context.Context, account string) error {
	if p.store.IsOpen() {
		return nil
	}

	if cached, ok := p.cache.Get(); ok {
		err := p.store.Open(ctx, cached)
		if err == nil {
			return nil
		}
		if !hberr.Is(err, hberr.ErrInvalidPassword) {
			return err
		}
		if clearErr := p.cache.Clear(); clearErr != nil {
			return clearErr
		}
	}

	encryptionKey, err := p.promptAndDerive(ctx, account)
	if err != nil {
		return err
	}

	if err := p.store.Open(ctx, encryptionKey); err != nil {
		return err
	}

	// Only a key that actually decrypted the file is worth caching.
	return p.cache.Put(encryptionKey)
}

// resolveKey returns the encryption key for save operations on an already
// open wallet.
func (p *Provider) resolveKey(ctx context.Context, account string) (string, error) {
	if cached, ok := p.cache.Get(); ok {
		return cached, nil
	}
	return p.promptAndDerive(ctx, account)
}

func (p *Provider) promptAndDerive(ctx context.Context, account string) (string, error) {
	password, err := p.prompts.Request(ctx, prompt.KindPassword)
	if err != nil {
		return "", err
	}

	encryptionKey, err := DeriveKey(password, account)
	if err != nil {
		return "", hberr.Wrap(err, "deriving encryption key")
	}
	return encryptionKey, nil
}
