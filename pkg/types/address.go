package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "addr"
	TestnetHRP = "addr_test"
)

// Network ids carried in the low nibble of the address header.
const (
	TestnetID uint8 = 0
	MainnetID uint8 = 1
)

// Header type nibbles for the shelley address kinds used by the protocol.
const (
	addrBaseKeyKey       = 0x0
	addrBaseScriptKey    = 0x1
	addrBaseKeyScript    = 0x2
	addrBaseScriptScript = 0x3
	addrEnterpriseKey    = 0x6
	addrEnterpriseScript = 0x7
)

// Credential is either a verification key hash or a script hash.
type Credential struct {
	Script bool       `json:"script"`
	Hash   ScriptHash `json:"hash"`
}

// Address is a shelley payment address with an optional stake part.
type Address struct {
	NetworkID uint8
	Payment   Credential
	Stake     *Credential
}

// NewScriptAddress returns an enterprise address locked by a script.
func NewScriptAddress(networkID uint8, script ScriptHash) Address {
	return Address{NetworkID: networkID, Payment: Credential{Script: true, Hash: script}}
}

// NewKeyAddress returns an address locked by a key hash, with an optional
// stake key hash.
func NewKeyAddress(networkID uint8, key ScriptHash, stake *ScriptHash) Address {
	a := Address{NetworkID: networkID, Payment: Credential{Hash: key}}
	if stake != nil {
		a.Stake = &Credential{Hash: *stake}
	}
	return a
}

// IsZero returns true if the address has no payment credential.
func (a Address) IsZero() bool {
	return a.Payment.Hash.IsZero() && a.Stake == nil
}

// IsScript reports whether the payment part is a script credential.
func (a Address) IsScript() bool {
	return a.Payment.Script
}

// IsMainnet reports whether the address belongs to mainnet.
func (a Address) IsMainnet() bool {
	return a.NetworkID == MainnetID
}

// Equal compares two addresses by their serialized form.
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

func (a Address) header() byte {
	var kind byte
	switch {
	case a.Stake == nil && a.Payment.Script:
		kind = addrEnterpriseScript
	case a.Stake == nil:
		kind = addrEnterpriseKey
	case a.Payment.Script && a.Stake.Script:
		kind = addrBaseScriptScript
	case a.Payment.Script:
		kind = addrBaseScriptKey
	case a.Stake.Script:
		kind = addrBaseKeyScript
	default:
		kind = addrBaseKeyKey
	}
	return kind<<4 | (a.NetworkID & 0x0f)
}

// Bytes returns the raw address bytes: header | payment(28) [| stake(28)].
func (a Address) Bytes() []byte {
	size := 1 + ScriptHashSize
	if a.Stake != nil {
		size += ScriptHashSize
	}
	b := make([]byte, 0, size)
	b = append(b, a.header())
	b = append(b, a.Payment.Hash[:]...)
	if a.Stake != nil {
		b = append(b, a.Stake.Hash[:]...)
	}
	return b
}

// String returns the bech32-encoded address (e.g. "addr1...").
func (a Address) String() string {
	hrp := TestnetHRP
	if a.IsMainnet() {
		hrp = MainnetHRP
	}
	s, err := Bech32Encode(hrp, a.Bytes())
	if err != nil {
		return hex.EncodeToString(a.Bytes())
	}
	return s
}

// Hex returns the raw hex-encoded address bytes.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Bytes())
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a bech32 or hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressFromBytes decodes raw shelley address bytes.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) == 0 {
		return Address{}, fmt.Errorf("empty address")
	}
	kind := b[0] >> 4
	a := Address{NetworkID: b[0] & 0x0f}

	var withStake bool
	switch kind {
	case addrBaseKeyKey, addrBaseScriptKey, addrBaseKeyScript, addrBaseScriptScript:
		withStake = true
	case addrEnterpriseKey, addrEnterpriseScript:
	default:
		return Address{}, fmt.Errorf("unsupported address type %d", kind)
	}

	want := 1 + ScriptHashSize
	if withStake {
		want += ScriptHashSize
	}
	if len(b) != want {
		return Address{}, fmt.Errorf("address type %d must be %d bytes, got %d", kind, want, len(b))
	}

	a.Payment.Script = kind == addrBaseScriptKey || kind == addrBaseScriptScript || kind == addrEnterpriseScript
	copy(a.Payment.Hash[:], b[1:1+ScriptHashSize])
	if withStake {
		stake := &Credential{Script: kind == addrBaseKeyScript || kind == addrBaseScriptScript}
		copy(stake.Hash[:], b[1+ScriptHashSize:])
		a.Stake = stake
	}
	return a, nil
}

// ParseAddress parses a bech32 ("addr1...", "addr_test1...") or raw hex
// address string.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	if strings.HasPrefix(s, MainnetHRP+"1") || strings.HasPrefix(s, TestnetHRP+"1") {
		hrp, data, err := Bech32Decode(s)
		if err != nil {
			return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
		}
		a, err := AddressFromBytes(data)
		if err != nil {
			return Address{}, err
		}
		if (hrp == MainnetHRP) != a.IsMainnet() {
			return Address{}, fmt.Errorf("address prefix %q does not match network id %d", hrp, a.NetworkID)
		}
		return a, nil
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	return AddressFromBytes(decoded)
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
