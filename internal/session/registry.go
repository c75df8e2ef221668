package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hivebridge-io/hivebridge/internal/keys"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Ring names within a slot.
const (
	ringOperational = "operational"
	ringManagement  = "management"
)

// KeyLookup verifies server-side that a public key is registered for an
// account. External collaborator; implementations live with the API client.
type KeyLookup interface {
	IsRegistered(ctx context.Context, account, publicKey string) (bool, error)
}

// ring is one unlocked key ring.
type ring struct {
	key    *keys.PrivateKey
	pubKey string
}

// Registry owns the local-custody session: at most one unlocked
// operational ring and at most one unlocked management ring at a time,
// selected by the persisted wallet-slot index. It is explicitly
// constructed and injectable; callers serialize login/create per the
// connector's concurrency contract.
type Registry struct {
	storage  *RingStorage
	settings *settings.Store
	lookup   KeyLookup

	mu          sync.Mutex
	account     string
	operational *ring
	management  *ring
	destroyed   bool
}

// NewRegistry wires a registry from its collaborators. lookup may be nil,
// in which case server-side key verification is skipped.
func NewRegistry(storage *RingStorage, st *settings.Store, lookup KeyLookup) *Registry {
	return &Registry{
		storage:  storage,
		settings: st,
		lookup:   lookup,
	}
}

// Login unlocks the current slot's key rings with password. Unlocking the
// operational ring is mandatory: failure there is ErrInvalidPassword.
// Unlocking the management ring is attempted but tolerated to fail, which
// reads as "no owner-equivalent key imported".
func (r *Registry) Login(account, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return hberr.WithSuggestion(hberr.ErrWalletNotUnlocked,
			"registry was destroyed; construct a new one")
	}
	if r.operational != nil {
		return hberr.WithSuggestion(hberr.ErrWalletExists,
			"a session is already unlocked; log out first")
	}

	slot, err := r.settings.SlotIndex()
	if err != nil {
		return err
	}
	if slot == 0 {
		return hberr.WithSuggestion(hberr.ErrWalletNotFound,
			"no local wallet exists; create one first")
	}

	operational, err := r.unlockRing(ringName(slot, ringOperational), password)
	if err != nil {
		if hberr.Is(err, hberr.ErrWalletNotFound) {
			return err
		}
		return hberr.ErrInvalidPassword
	}

	// Management ring is optional: absence or a failed unlock both mean the
	// user never imported an owner-equivalent key.
	management, mgmtErr := r.unlockRing(ringName(slot, ringManagement), password)
	if mgmtErr != nil {
		management = nil
	}

	r.account = account
	r.operational = operational
	r.management = management
	return nil
}

// CreateWallet allocates the next wallet slot, encrypts the supplied keys
// under newPassword, and locks the rings immediately: creation never leaves
// an unlocked session behind.
func (r *Registry) CreateWallet(newPassword, operationalWIF, managementWIF string) (int, error) {
	if newPassword == "" {
		return 0, hberr.WithSuggestion(hberr.ErrInvalidInput,
			"a password is required to create a wallet")
	}
	if _, err := keys.ParseWIF(operationalWIF); err != nil {
		return 0, hberr.Wrap(err, "parsing operational key")
	}
	if managementWIF != "" {
		if _, err := keys.ParseWIF(managementWIF); err != nil {
			return 0, hberr.Wrap(err, "parsing management key")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.settings.NextSlotIndex()
	if err != nil {
		return 0, err
	}

	if err := r.storage.Save(ringName(slot, ringOperational), operationalWIF, newPassword); err != nil {
		return 0, err
	}
	if managementWIF != "" {
		if err := r.storage.Save(ringName(slot, ringManagement), managementWIF, newPassword); err != nil {
			return 0, err
		}
	}

	return slot, nil
}

// LoggedIn reports whether an operational ring is unlocked. The management
// ring alone never counts as logged in.
func (r *Registry) LoggedIn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operational != nil
}

// For returns a role-scoped signer bound to the ring matching role: the
// owner role resolves to the management ring, every other role to the
// operational ring. Fails with ErrWalletNotUnlocked when the required ring
// was never opened, and with ErrKeyNotRegistered when the resolved public
// key is unknown server-side.
func (r *Registry) For(ctx context.Context, role wallet.Role) (*Signer, error) {
	r.mu.Lock()
	bound := r.operational
	if role == wallet.RoleOwner {
		bound = r.management
	}
	account := r.account
	r.mu.Unlock()

	if bound == nil {
		return nil, hberr.WithDetails(hberr.ErrWalletNotUnlocked,
			map[string]string{"role": role.String()})
	}

	if r.lookup != nil {
		registered, err := r.lookup.IsRegistered(ctx, account, bound.pubKey)
		if err != nil {
			return nil, hberr.Wrap(err, "verifying key registration")
		}
		if !registered {
			return nil, hberr.WithDetails(hberr.ErrKeyNotRegistered,
				map[string]string{"account": account, "role": role.String()})
		}
	}

	return &Signer{registry: r, role: role, ring: bound}, nil
}

// Logout locks both rings without destroying the registry. A later Login
// re-opens them.
func (r *Registry) Logout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockRings()
}

// Destroy tears down the whole registry: both rings are zeroed and no
// further login succeeds on this instance. This is all-or-nothing teardown;
// any signer sharing this registry is invalidated with it.
func (r *Registry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockRings()
	r.destroyed = true
}

// holds reports whether rg is one of the currently unlocked rings. A signer
// bound before a logout fails this check even after a re-login: its ring key
// was zeroed and a fresh unlock builds a new ring.
func (r *Registry) holds(rg *ring) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rg != nil && (rg == r.operational || rg == r.management)
}

func (r *Registry) lockRings() {
	if r.operational != nil {
		r.operational.key.Zero()
		r.operational = nil
	}
	if r.management != nil {
		r.management.key.Zero()
		r.management = nil
	}
	r.account = ""
}

func (r *Registry) unlockRing(name, password string) (*ring, error) {
	wif, err := r.storage.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer wif.Destroy()

	priv, err := keys.ParseWIF(strings.TrimSpace(string(wif.Bytes())))
	if err != nil {
		return nil, hberr.Wrap(err, "parsing ring key")
	}

	return &ring{key: priv, pubKey: priv.PublicKey()}, nil
}

func ringName(slot int, kind string) string {
	return fmt.Sprintf("slot%d-%s", slot, kind)
}
