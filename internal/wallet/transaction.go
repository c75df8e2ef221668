package wallet

import (
	"crypto/sha256"
	"encoding/json"

	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// JSONTransaction wraps an unsigned transaction already expressed as JSON.
// The digest is the SHA-256 of the compact serialization, which is what
// key-level providers sign directly.
type JSONTransaction struct {
	raw json.RawMessage
}

// NewJSONTransaction validates and wraps raw transaction JSON.
func NewJSONTransaction(raw []byte) (*JSONTransaction, error) {
	if !json.Valid(raw) {
		return nil, hberr.WithSuggestion(hberr.ErrInvalidInput,
			"transaction must be valid JSON")
	}

	// Compact once so the digest is stable across formatting.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, hberr.Wrap(err, "parsing transaction")
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return nil, hberr.Wrap(err, "serializing transaction")
	}

	return &JSONTransaction{raw: compact}, nil
}

// Digest returns the SHA-256 of the compact serialization.
func (t *JSONTransaction) Digest() ([]byte, error) {
	sum := sha256.Sum256(t.raw)
	return sum[:], nil
}

// SigningJSON returns the compact serialization.
func (t *JSONTransaction) SigningJSON() ([]byte, error) {
	return t.raw, nil
}
