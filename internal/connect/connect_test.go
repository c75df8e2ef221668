package connect

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivebridge-io/hivebridge/internal/extension"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/store"
	"github.com/hivebridge-io/hivebridge/internal/wallet"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// okKeychain answers every request with a canned signature.
type okKeychain struct{}

func (okKeychain) Request(_ *extension.Request, done func(*extension.Response)) {
	done(&extension.Response{Result: json.RawMessage(`"sig"`)})
}

func newSettingsStore(t *testing.T) *settings.Store {
	t.Helper()
	return settings.NewStore(store.NewFileStore(filepath.Join(t.TempDir(), "settings.json")))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(Providers{Keychain: okKeychain{}, SnapID: "npm:snap"}, newSettingsStore(t))
}

func TestSelectorLifecycle(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, StateDisconnected, m.State())

	m.OpenSelect()
	assert.Equal(t, StateSelecting, m.State())

	m.CloseSelect()
	assert.Equal(t, StateDisconnected, m.State())
}

func TestConnectKeychain(t *testing.T) {
	m := newTestManager(t)
	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}

	require.NoError(t, m.Connect(context.Background(), st, wallet.RolePosting))
	assert.Equal(t, StateConnected, m.State())

	w, ok := m.ActiveWallet()
	require.True(t, ok)

	tx, err := wallet.NewJSONTransaction([]byte(`{"operations":[]}`))
	require.NoError(t, err)
	sigs, err := w.SignTransaction(context.Background(), tx, wallet.RolePosting)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig"}, sigs)
}

func TestConnectPersistsSelection(t *testing.T) {
	ss := newSettingsStore(t)
	m := NewManager(Providers{Keychain: okKeychain{}}, ss)

	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}
	require.NoError(t, m.Connect(context.Background(), st, wallet.RolePosting))

	persisted, err := ss.Load()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, settings.KindKeychain, persisted.WalletKind)
	assert.Equal(t, "alice", persisted.AccountName)
}

func TestConnectInvalidRecord(t *testing.T) {
	m := newTestManager(t)
	err := m.Connect(context.Background(), &settings.Settings{AccountName: "orphan"}, wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrInvalidInput))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestConnectFailureRestoresState(t *testing.T) {
	// Cloud selected but no cloud provider wired.
	m := NewManager(Providers{}, newSettingsStore(t))

	err := m.Connect(context.Background(),
		&settings.Settings{WalletKind: settings.KindCloud, AccountName: "alice"}, wallet.RolePosting)
	assert.True(t, hberr.Is(err, hberr.ErrProviderUnavailable))
	assert.Equal(t, StateDisconnected, m.State())

	_, ok := m.ActiveWallet()
	assert.False(t, ok)
}

// brokenKV fails every write.
type brokenKV struct{}

func (brokenKV) Get(string) (string, bool, error) { return "", false, nil }
func (brokenKV) Set(string, string) error         { return errors.New("disk full") }
func (brokenKV) Delete(string) error              { return nil }

func TestConnectSaveFailureRestoresState(t *testing.T) {
	ss := settings.NewStore(brokenKV{})
	m := NewManager(Providers{Keychain: okKeychain{}}, ss)

	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}
	err := m.Connect(context.Background(), st, wallet.RolePosting)
	require.Error(t, err)

	assert.Equal(t, StateDisconnected, m.State())
	_, ok := m.ActiveWallet()
	assert.False(t, ok)
}

func TestCreateWalletForUnknownKind(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateWalletFor(context.Background(),
		&settings.Settings{WalletKind: "cloudd"}, wallet.RolePosting)
	require.True(t, hberr.Is(err, hberr.ErrUnsupportedWallet))

	var be *hberr.BridgeError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "cloudd", be.Details["wallet_kind"])
	assert.Equal(t, "did you mean cloud?", be.Suggestion)
}

func TestSuggestKind(t *testing.T) {
	assert.Equal(t, "did you mean cloud?", suggestKind("clown"))
	assert.Equal(t, "did you mean keychain?", suggestKind("keychains"))
	assert.True(t, strings.HasPrefix(suggestKind("metamask"), "supported wallet kinds:"))
}

func TestLogoutClearsEverything(t *testing.T) {
	ss := newSettingsStore(t)
	m := NewManager(Providers{Keychain: okKeychain{}}, ss)

	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}
	require.NoError(t, m.Connect(context.Background(), st, wallet.RolePosting))

	require.NoError(t, m.Logout())
	assert.Equal(t, StateDisconnected, m.State())

	persisted, err := ss.Load()
	require.NoError(t, err)
	assert.Nil(t, persisted)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	m := newTestManager(t)

	ch := make(chan Event, 16)
	sub := m.Subscribe(ch)
	defer sub.Unsubscribe()

	m.OpenSelect()
	ev := <-ch
	assert.Equal(t, StateSelecting, ev.State)
	assert.True(t, ev.SelectorOpen)

	m.CloseSelect()
	ev = <-ch
	assert.Equal(t, StateDisconnected, ev.State)
	assert.False(t, ev.SelectorOpen)
}

func TestWaitConnected(t *testing.T) {
	m := newTestManager(t)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- m.WaitConnected(ctx)
	}()

	m.OpenSelect()
	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}
	require.NoError(t, m.Connect(context.Background(), st, wallet.RolePosting))
	m.CloseSelect()

	require.NoError(t, <-done)
}

func TestWaitConnectedFastPath(t *testing.T) {
	m := newTestManager(t)
	st := &settings.Settings{WalletKind: settings.KindKeychain, AccountName: "alice"}
	require.NoError(t, m.Connect(context.Background(), st, wallet.RolePosting))

	// Already connected: resolves without any new event.
	require.NoError(t, m.WaitConnected(context.Background()))
}

func TestWaitConnectedContextCancel(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, m.WaitConnected(ctx))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "selecting", StateSelecting.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestWatcherProbes(t *testing.T) {
	var up atomic.Bool
	up.Store(true)

	w := NewWatcher(5*time.Millisecond, map[settings.Kind]Probe{
		settings.KindCloud: func(context.Context) bool { return up.Load() },
	})

	ch := make(chan Availability, 16)
	sub := w.Subscribe(ch)
	defer sub.Unsubscribe()

	w.Start(context.Background())
	defer w.Stop()

	snapshot := <-ch
	assert.True(t, snapshot[settings.KindCloud])
	assert.True(t, w.Current()[settings.KindCloud])

	// Flip reachability; only the change is published.
	up.Store(false)
	select {
	case snapshot = <-ch:
		assert.False(t, snapshot[settings.KindCloud])
	case <-time.After(2 * time.Second):
		t.Fatal("no availability event after probe change")
	}
}

func TestWatcherStartIsIdempotent(t *testing.T) {
	w := NewWatcher(time.Minute, nil)
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()

	// Stop on a stopped watcher is a no-op.
	w.Stop()
}
