package keys

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic indicates the mnemonic is not valid BIP39.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// Hardened child indexes per ring. One mnemonic yields the whole key ring.
const (
	IndexOperational uint32 = 0
	IndexManagement  uint32 = 1
)

// GenerateMnemonic creates a new BIP39 mnemonic phrase.
// wordCount must be 12 (128 bits entropy) or 24 (256 bits entropy).
func GenerateMnemonic(wordCount int) (string, error) {
	var bitSize int
	switch wordCount {
	case 12:
		bitSize = 128
	case 24:
		bitSize = 256
	default:
		return "", fmt.Errorf("word count must be 12 or 24, got %d", wordCount)
	}

	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", err
	}

	return bip39.NewMnemonic(entropy)
}

// DeriveKey derives the private key at the given hardened child index from a
// BIP39 mnemonic. Roles map to fixed indexes so a single mnemonic yields the
// whole key ring.
func DeriveKey(mnemonic, passphrase string, index uint32) (*PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	defer ZeroBytes(seed)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	child, err := master.NewChildKey(bip32.FirstHardenedChild + index)
	if err != nil {
		return nil, fmt.Errorf("deriving child key %d: %w", index, err)
	}

	return FromBytes(child.Key)
}
