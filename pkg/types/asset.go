package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxAssetNameSize is the ledger limit on asset name length in bytes.
const MaxAssetNameSize = 32

// AssetName is the raw byte name of a native asset under a policy.
type AssetName []byte

// HexToAssetName decodes a hex asset name and enforces the size limit.
func HexToAssetName(s string) (AssetName, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid asset name hex: %w", err)
	}
	if len(b) > MaxAssetNameSize {
		return nil, fmt.Errorf("asset name must be at most %d bytes, got %d", MaxAssetNameSize, len(b))
	}
	return AssetName(b), nil
}

// Hex returns the hex-encoded asset name.
func (n AssetName) Hex() string {
	return hex.EncodeToString(n)
}

// String returns the hex-encoded asset name.
func (n AssetName) String() string {
	return n.Hex()
}

// MarshalJSON encodes the asset name as hex.
func (n AssetName) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Hex())
}

// UnmarshalJSON decodes a hex asset name.
func (n *AssetName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HexToAssetName(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// AssetClass identifies one kind of native asset: policy + name.
type AssetClass struct {
	Policy PolicyID  `json:"policy"`
	Name   AssetName `json:"name"`
}

// NewAssetClass builds an asset class from a policy and a hex token name.
func NewAssetClass(policy PolicyID, hexName string) (AssetClass, error) {
	name, err := HexToAssetName(hexName)
	if err != nil {
		return AssetClass{}, err
	}
	return AssetClass{Policy: policy, Name: name}, nil
}

// Unit returns the conventional "policy.name" string.
func (a AssetClass) Unit() string {
	return a.Policy.String() + "." + a.Name.Hex()
}

// String returns the unit string.
func (a AssetClass) String() string {
	return a.Unit()
}

// Equal reports whether both asset classes name the same asset.
func (a AssetClass) Equal(b AssetClass) bool {
	return a.Policy == b.Policy && string(a.Name) == string(b.Name)
}

// ParseAssetClass parses a "policy.name" (or concatenated policy+name) unit.
func ParseAssetClass(unit string) (AssetClass, error) {
	policyHex, nameHex, ok := strings.Cut(unit, ".")
	if !ok {
		if len(unit) < ScriptHashSize*2 {
			return AssetClass{}, fmt.Errorf("asset unit %q too short", unit)
		}
		policyHex, nameHex = unit[:ScriptHashSize*2], unit[ScriptHashSize*2:]
	}
	policy, err := HexToScriptHash(policyHex)
	if err != nil {
		return AssetClass{}, fmt.Errorf("asset unit %q: %w", unit, err)
	}
	return NewAssetClass(PolicyID(policy), nameHex)
}
