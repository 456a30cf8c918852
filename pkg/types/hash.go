// Package types defines the ledger primitives used to assemble HAL
// minting transactions: hashes, outpoints, addresses, assets and values.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the length of a transaction id in bytes.
const HashSize = 32

// ScriptHashSize is the length of a script or key hash in bytes.
const ScriptHashSize = 28

// Hash represents a 256-bit hash value (transaction ids, registry roots).
type Hash [HashSize]byte

// ScriptHash is a 224-bit hash identifying a validator, a minting policy
// or a verification key.
type ScriptHash [ScriptHashSize]byte

// PolicyID identifies a minting policy. It equals the policy script hash.
type PolicyID ScriptHash

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash converts a hex string to a Hash.
// Returns an error if the string is not exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// IsZero returns true if the script hash is all zeros.
func (s ScriptHash) IsZero() bool {
	return s == ScriptHash{}
}

// String returns the hex-encoded script hash.
func (s ScriptHash) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalJSON encodes the script hash as a hex string.
func (s ScriptHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string into a script hash.
func (s *ScriptHash) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := HexToScriptHash(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HexToScriptHash converts a 56-character hex string to a ScriptHash.
func HexToScriptHash(s string) (ScriptHash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ScriptHash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != ScriptHashSize {
		return ScriptHash{}, fmt.Errorf("script hash must be %d bytes, got %d", ScriptHashSize, len(b))
	}
	var h ScriptHash
	copy(h[:], b)
	return h, nil
}

// String returns the hex-encoded policy id.
func (p PolicyID) String() string {
	return ScriptHash(p).String()
}

// MarshalJSON encodes the policy id as a hex string.
func (p PolicyID) MarshalJSON() ([]byte, error) {
	return ScriptHash(p).MarshalJSON()
}

// UnmarshalJSON decodes a hex string into a policy id.
func (p *PolicyID) UnmarshalJSON(data []byte) error {
	return (*ScriptHash)(p).UnmarshalJSON(data)
}

// Compare orders policy ids bytewise. It returns -1, 0 or +1.
func (p PolicyID) Compare(o PolicyID) int {
	for i := 0; i < ScriptHashSize; i++ {
		if p[i] != o[i] {
			if p[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
