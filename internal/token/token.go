// Package token derives the CIP-68 token pair minted for a registered name
// and checks the mint section of a fulfillment transaction.
//
// Every name yields two assets under the minting policy: a reference token
// (label 100) that carries the metadata datum at the reference-storage
// address, and a user token (label 222) delivered to the buyer. The asset
// names are the 4-byte CIP-67 label prefix followed by the UTF-8 name.
package token

import (
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// CIP-67 labels of the token pair.
const (
	LabelReference = 100
	LabelUser      = 222
)

// PrefixSize is the byte length of a CIP-67 label prefix.
const PrefixSize = 4

// MaxNameSize is the longest name whose prefixed asset name still fits the
// ledger's asset name limit.
const MaxNameSize = types.MaxAssetNameSize - PrefixSize

// Hex prefixes for the two labels.
var (
	ReferencePrefix = LabelPrefix(LabelReference) // 000643b0
	UserPrefix      = LabelPrefix(LabelUser)      // 000de140
)

// ErrInvalidAssetName is returned for names that cannot form an asset name.
var ErrInvalidAssetName = errors.New("invalid asset name")

// Identity is the reference/user asset pair for one name.
type Identity struct {
	Name      string           `json:"name"`
	Reference types.AssetClass `json:"reference"`
	User      types.AssetClass `json:"user"`
}

// DeriveIdentity computes the token pair for name under policy. It is pure:
// the same inputs always produce the same identity.
func DeriveIdentity(policy types.PolicyID, name string) (Identity, error) {
	if err := ValidateName(name); err != nil {
		return Identity{}, err
	}
	nameHex := hex.EncodeToString([]byte(name))
	ref, err := types.NewAssetClass(policy, ReferencePrefix+nameHex)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidAssetName, err)
	}
	user, err := types.NewAssetClass(policy, UserPrefix+nameHex)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidAssetName, err)
	}
	return Identity{Name: name, Reference: ref, User: user}, nil
}

// ValidateName checks that name is non-empty UTF-8 of at most MaxNameSize bytes.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidAssetName)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: %q is not valid utf-8", ErrInvalidAssetName, name)
	case len(name) > MaxNameSize:
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrInvalidAssetName, name, len(name), MaxNameSize)
	}
	return nil
}

// NameOf returns the name carried by a labelled asset name, with its label.
func NameOf(assetName types.AssetName) (label int, name string, ok bool) {
	if len(assetName) < PrefixSize {
		return 0, "", false
	}
	label, ok = ParseLabel(assetName[:PrefixSize])
	if !ok {
		return 0, "", false
	}
	return label, string(assetName[PrefixSize:]), true
}
