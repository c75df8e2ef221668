package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto/ecies"
)

// EncryptMemo encrypts plaintext to the holder of the encoded recipient
// public key. The result is base64 so it can travel inside a memo field.
func EncryptMemo(plaintext, recipientPub string) (string, error) {
	pub, err := DecodePublicKey(recipientPub)
	if err != nil {
		return "", fmt.Errorf("parsing recipient key: %w", err)
	}

	eciesPub := ecies.ImportECDSAPublic(pub)
	ct, err := ecies.Encrypt(rand.Reader, eciesPub, []byte(plaintext), nil, nil)
	if err != nil {
		return "", fmt.Errorf("encrypting memo: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptMemo decrypts a memo ciphertext produced by EncryptMemo with the
// matching private key. The error is opaque on purpose: a failed decrypt
// does not distinguish wrong key from corrupted data.
func DecryptMemo(ciphertext string, key *PrivateKey) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding memo ciphertext: %w", err)
	}

	eciesPriv := ecies.ImportECDSA(key.ECDSA())
	pt, err := eciesPriv.Decrypt(ct, nil, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting memo: %w", err)
	}

	return string(pt), nil
}
