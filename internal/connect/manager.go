// Package connect orchestrates provider selection: which wallet kind is
// active, the selection dialog lifecycle, and construction of the matching
// capability contract instance. State transitions are published on an event
// feed so callers subscribe instead of polling.
package connect

import (
	"context"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/event"

	"github.com/hivebridge-io/hivebridge/internal/cloud"
	"github.com/hivebridge-io/hivebridge/internal/extension"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// State is a connection state.
type State int

// Connection states.
const (
	StateDisconnected State = iota
	StateSelecting
	StateConnecting
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSelecting:
		return "selecting"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Event is published on every state or selector change.
type Event struct {
	State        State
	WalletKind   settings.Kind
	SelectorOpen bool
}

// Providers bundles the per-kind collaborators the manager dispatches to.
// Nil transports are allowed; the matching adapter then fails with
// ErrProviderUnavailable at call time, never at construction.
type Providers struct {
	Keychain extension.KeychainTransport
	Vault    extension.VaultTransport
	Snap     extension.SnapTransport
	SnapID   string
	Cloud    *cloud.Provider
}

// Manager is the connection/selection state machine. One instance is owned
// by the application root.
type Manager struct {
	providers Providers
	settings  *settings.Store

	mu           sync.Mutex
	state        State
	selectorOpen bool
	activeKind   settings.Kind
	active       wallet.Wallet

	feed event.Feed
}

// NewManager creates a manager in the Disconnected state.
func NewManager(providers Providers, st *settings.Store) *Manager {
	return &Manager{
		providers: providers,
		settings:  st,
		state:     StateDisconnected,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ActiveWallet returns the held capability contract instance, if connected.
func (m *Manager) ActiveWallet() (wallet.Wallet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != nil
}

// Subscribe registers a channel for state events. The returned subscription
// must be unsubscribed on teardown.
func (m *Manager) Subscribe(ch chan<- Event) event.Subscription {
	return m.feed.Subscribe(ch)
}

// OpenSelect opens the provider selection dialog. Connecting from any state
// is allowed; opening the selector while connected lets the user switch
// providers.
func (m *Manager) OpenSelect() {
	m.mu.Lock()
	if m.state == StateDisconnected {
		m.state = StateSelecting
	}
	m.selectorOpen = true
	ev := m.snapshotLocked()
	m.mu.Unlock()

	m.feed.Send(ev)
}

// CloseSelect closes the selection dialog. Cancelling an untouched
// selection returns to Disconnected.
func (m *Manager) CloseSelect() {
	m.mu.Lock()
	m.selectorOpen = false
	if m.state == StateSelecting {
		m.state = StateDisconnected
	}
	ev := m.snapshotLocked()
	m.mu.Unlock()

	m.feed.Send(ev)
}

// Connect builds the capability contract for the selection record, stores
// it as the active wallet, and persists the record. The record is
// overwritten on every successful reconnect or provider switch.
func (m *Manager) Connect(ctx context.Context, st *settings.Settings, role wallet.Role) error {
	if err := st.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	prev := m.state
	m.state = StateConnecting
	ev := m.snapshotLocked()
	m.mu.Unlock()
	m.feed.Send(ev)

	w, err := m.CreateWalletFor(ctx, st, role)
	if err == nil {
		err = m.settings.Save(st)
	}
	if err != nil {
		m.mu.Lock()
		m.state = prev
		ev = m.snapshotLocked()
		m.mu.Unlock()
		m.feed.Send(ev)
		return err
	}

	m.mu.Lock()
	m.active = w
	m.activeKind = st.WalletKind
	m.state = StateConnected
	ev = m.snapshotLocked()
	m.mu.Unlock()
	m.feed.Send(ev)

	return nil
}

// CreateWalletFor dispatches the selection record to the matching adapter
// constructor. An unknown wallet kind is fatal: the record is corrupt or
// from a newer version.
func (m *Manager) CreateWalletFor(ctx context.Context, st *settings.Settings, role wallet.Role) (wallet.Wallet, error) {
	switch st.WalletKind {
	case settings.KindKeychain:
		return extension.NewKeychain(m.providers.Keychain, st.AccountName), nil

	case settings.KindVault:
		return extension.NewVault(m.providers.Vault, st.AccountName), nil

	case settings.KindSnap:
		snap := extension.NewSnap(m.providers.Snap, m.providers.SnapID, st.AccountName)
		// Detection is advisory; an uninstalled snap still constructs and
		// fails per-call with ErrProviderUnavailable.
		snap.DetectInstalled(ctx)
		return snap, nil

	case settings.KindCloud:
		if m.providers.Cloud == nil {
			return nil, hberr.ErrProviderUnavailable
		}
		account := st.AccountName
		if account == "" {
			var err error
			if account, err = m.providers.Cloud.RequestAccountName(ctx); err != nil {
				return nil, err
			}
			st.AccountName = account
		}
		if _, err := m.providers.Cloud.LoadWallet(ctx, account, role); err != nil {
			return nil, err
		}
		return m.providers.Cloud.Signer(account, role), nil

	default:
		return nil, hberr.WithSuggestion(
			hberr.WithDetails(hberr.ErrUnsupportedWallet,
				map[string]string{"wallet_kind": string(st.WalletKind)}),
			suggestKind(string(st.WalletKind)),
		)
	}
}

// ResetWallet drops the active capability contract reference. Underlying
// provider sessions stay up; tearing those down is the provider-specific
// logout's job.
func (m *Manager) ResetWallet() {
	m.mu.Lock()
	m.active = nil
	m.activeKind = ""
	m.state = StateDisconnected
	ev := m.snapshotLocked()
	m.mu.Unlock()

	m.feed.Send(ev)
}

// Logout resets the active wallet and clears the persisted selection
// record wholesale.
func (m *Manager) Logout() error {
	m.ResetWallet()
	return m.settings.Clear()
}

// WaitConnected blocks until the machine is Connected and the selection
// dialog has closed, or ctx is cancelled. It subscribes to the event feed,
// so it resolves as soon as the combined condition holds.
func (m *Manager) WaitConnected(ctx context.Context) error {
	ch := make(chan Event, 16)
	sub := m.Subscribe(ch)
	defer sub.Unsubscribe()

	// The condition may already hold before any event arrives.
	m.mu.Lock()
	ready := m.state == StateConnected && !m.selectorOpen
	m.mu.Unlock()
	if ready {
		return nil
	}

	for {
		select {
		case ev := <-ch:
			if ev.State == StateConnected && !ev.SelectorOpen {
				return nil
			}
		case err := <-sub.Err():
			if err != nil {
				return err
			}
			return hberr.ErrGeneral
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) snapshotLocked() Event {
	return Event{
		State:        m.state,
		WalletKind:   m.activeKind,
		SelectorOpen: m.selectorOpen,
	}
}

// suggestKind proposes the closest known wallet kind for a typo'd record.
func suggestKind(input string) string {
	best := ""
	bestDist := 4 // only suggest close matches
	for _, k := range settings.KnownKinds {
		if d := levenshtein.ComputeDistance(input, string(k)); d < bestDist {
			best = string(k)
			bestDist = d
		}
	}
	if best == "" {
		return "supported wallet kinds: keychain, vault, snap, cloud"
	}
	return "did you mean " + best + "?"
}
