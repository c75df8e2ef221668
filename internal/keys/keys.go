// Package keys provides the secp256k1 key primitives the providers build on:
// WIF encoding, public key derivation, digest signing, and memo encryption.
package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// wifVersion is the base58check version byte for private keys.
	wifVersion = 0x80

	// pubKeyPrefix prefixes every encoded public key.
	pubKeyPrefix = "PUB"

	// pubKeyVersion is the base58check version byte for public keys.
	pubKeyVersion = 0x00

	// privKeyLength is the raw private key length in bytes.
	privKeyLength = 32
)

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// Generate creates a new random private key.
func Generate() (*PrivateKey, error) {
	k, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// FromBytes builds a private key from 32 raw bytes.
func FromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != privKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", privKeyLength, len(b))
	}
	k, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// ParseWIF decodes a base58check-encoded private key.
func ParseWIF(wif string) (*PrivateKey, error) {
	raw, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("decoding WIF: %w", err)
	}
	if version != wifVersion {
		return nil, fmt.Errorf("unexpected WIF version byte 0x%02x", version)
	}
	return FromBytes(raw)
}

// WIF returns the base58check encoding of the private key.
func (k *PrivateKey) WIF() string {
	return base58.CheckEncode(crypto.FromECDSA(k.key), wifVersion)
}

// PublicKey returns the encoded compressed public key.
func (k *PrivateKey) PublicKey() string {
	return EncodePublicKey(&k.key.PublicKey)
}

// ECDSA exposes the underlying key for memo encryption.
func (k *PrivateKey) ECDSA() *ecdsa.PrivateKey {
	return k.key
}

// SignDigest signs a 32-byte digest and returns the hex-encoded recoverable
// signature.
func (k *PrivateKey) SignDigest(digest []byte) (string, error) {
	if len(digest) != 32 {
		return "", fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := crypto.Sign(digest, k.key)
	if err != nil {
		return "", fmt.Errorf("signing digest: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Zero wipes the private scalar. The key must not be used afterwards.
func (k *PrivateKey) Zero() {
	if k.key != nil && k.key.D != nil {
		k.key.D.SetInt64(0)
	}
}

// EncodePublicKey encodes an ECDSA public key in the compressed prefixed form.
func EncodePublicKey(pub *ecdsa.PublicKey) string {
	return pubKeyPrefix + base58.CheckEncode(crypto.CompressPubkey(pub), pubKeyVersion)
}

// DecodePublicKey parses an encoded public key string.
func DecodePublicKey(s string) (*ecdsa.PublicKey, error) {
	if len(s) <= len(pubKeyPrefix) || s[:len(pubKeyPrefix)] != pubKeyPrefix {
		return nil, fmt.Errorf("public key missing %q prefix", pubKeyPrefix)
	}
	raw, version, err := base58.CheckDecode(s[len(pubKeyPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if version != pubKeyVersion {
		return nil, fmt.Errorf("unexpected public key version byte 0x%02x", version)
	}
	pub, err := crypto.DecompressPubkey(raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing public key: %w", err)
	}
	return pub, nil
}

// ZeroBytes securely zeros a byte slice.
// runtime.KeepAlive prevents the compiler from optimizing away the zeroing
// as a dead store when the slice is not used afterward.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
