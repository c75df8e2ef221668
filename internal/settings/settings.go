// Package settings persists the provider selection record: which wallet kind
// the user connected with and, once known, the account name. The record is
// created on the first successful connect, overwritten on every reconnect or
// provider switch, and cleared wholesale on logout.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hivebridge-io/hivebridge/internal/store"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// Kind identifies a signing provider.
type Kind string

// Supported wallet kinds.
const (
	KindKeychain Kind = "keychain" // extension bridge, error-channel callbacks
	KindVault    Kind = "vault"    // extension bridge, direct-result callbacks
	KindSnap     Kind = "snap"     // sandboxed snap inside a host wallet
	KindCloud    Kind = "cloud"    // cloud-stored encrypted key file
)

// KnownKinds lists every supported wallet kind.
var KnownKinds = []Kind{KindKeychain, KindVault, KindSnap, KindCloud}

// Storage keys. Fixed so records survive across versions.
const (
	settingsKey  = "wallet_settings"
	slotIndexKey = "local_wallet_slot"
)

// ParseKind parses a wallet kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown wallet kind %q", s)
}

// Settings is the persisted provider selection record.
// Invariant: AccountName set implies WalletKind set.
type Settings struct {
	WalletKind  Kind   `json:"wallet_kind,omitempty"`
	AccountName string `json:"account_name,omitempty"`
}

// Validate checks the record invariant.
func (s *Settings) Validate() error {
	if s.AccountName != "" && s.WalletKind == "" {
		return hberr.WithSuggestion(hberr.ErrInvalidInput,
			"an account name requires a wallet kind")
	}
	if s.WalletKind != "" {
		if _, err := ParseKind(string(s.WalletKind)); err != nil {
			return hberr.Wrap(err, "validating settings")
		}
	}
	return nil
}

// Store reads and writes settings through the durable KV.
type Store struct {
	kv store.KV
}

// NewStore creates a settings store over the given KV.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted selection record, or nil when none exists.
func (s *Store) Load() (*Settings, error) {
	raw, ok, err := s.kv.Get(settingsKey)
	if err != nil {
		return nil, hberr.Wrap(err, "loading settings")
	}
	if !ok {
		return nil, nil
	}

	var st Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, hberr.Wrap(err, "parsing settings")
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save persists the selection record, overwriting any previous one.
func (s *Store) Save(st *Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return hberr.Wrap(err, "marshaling settings")
	}
	if err := s.kv.Set(settingsKey, string(raw)); err != nil {
		return hberr.Wrap(err, "saving settings")
	}
	return nil
}

// Clear removes the selection record.
func (s *Store) Clear() error {
	if err := s.kv.Delete(settingsKey); err != nil {
		return hberr.Wrap(err, "clearing settings")
	}
	return nil
}

// SlotIndex returns the persisted local wallet-slot index, or 0 when none
// has been allocated yet.
func (s *Store) SlotIndex() (int, error) {
	raw, ok, err := s.kv.Get(slotIndexKey)
	if err != nil {
		return 0, hberr.Wrap(err, "loading slot index")
	}
	if !ok {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, hberr.Wrap(err, "parsing slot index")
	}
	return n, nil
}

// NextSlotIndex allocates the next wallet-slot index and persists it.
// Indexes are monotonically increasing so a new local wallet never collides
// with an old slot.
func (s *Store) NextSlotIndex() (int, error) {
	current, err := s.SlotIndex()
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := s.kv.Set(slotIndexKey, strconv.Itoa(next)); err != nil {
		return 0, hberr.Wrap(err, "saving slot index")
	}
	return next, nil
}
