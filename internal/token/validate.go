package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Mint batch validation errors.
var (
	ErrDuplicateIdentity = errors.New("identity minted twice in one batch")
	ErrMintQuantity      = errors.New("unexpected mint quantity")
	ErrUnexpectedMint    = errors.New("unexpected asset minted")
	ErrBurnQuantity      = errors.New("order token burn does not match batch size")
	ErrTokenPlacement    = errors.New("minted token not placed in exactly one output")
)

// Batch describes what a fulfillment transaction is expected to mint.
type Batch struct {
	Policy     types.PolicyID
	OrderToken types.AssetClass
	Identities []Identity
}

// CheckUnique reports the first name whose identity repeats in ids.
func CheckUnique(ids []Identity) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := id.Reference.Unit()
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateIdentity, id.Name)
		}
		seen[key] = true
	}
	return nil
}

// ValidateMintBatch checks the mint section of a built transaction:
//   - every identity's reference and user token is minted exactly once
//   - nothing else is minted under the batch policy
//   - exactly len(Identities) order tokens are burned
//   - every minted token sits in exactly one output, with quantity 1
func ValidateMintBatch(t *tx.Transaction, b Batch) error {
	if err := CheckUnique(b.Identities); err != nil {
		return err
	}

	expected := make(map[string]bool, 2*len(b.Identities))
	for _, id := range b.Identities {
		for _, class := range []types.AssetClass{id.Reference, id.User} {
			if class.Policy != b.Policy {
				return fmt.Errorf("%w: %s not under policy %s", ErrUnexpectedMint, class, b.Policy)
			}
			if q := t.MintedQuantity(class); q.Cmp(big.NewInt(1)) != 0 {
				return fmt.Errorf("%w: %s minted %s, want 1", ErrMintQuantity, class, q)
			}
			expected[class.Unit()] = true
		}
	}
	for _, class := range t.Mint.Classes() {
		if class.Policy == b.Policy && !expected[class.Unit()] {
			return fmt.Errorf("%w: %s", ErrUnexpectedMint, class)
		}
	}

	burned := t.MintedQuantity(b.OrderToken)
	if want := big.NewInt(-int64(len(b.Identities))); burned.Cmp(want) != 0 {
		return fmt.Errorf("%w: burned %s, want %d", ErrBurnQuantity, new(big.Int).Neg(burned), len(b.Identities))
	}

	for unit := range expected {
		class, err := types.ParseAssetClass(unit)
		if err != nil {
			return err
		}
		holders := 0
		for _, out := range t.Outputs {
			q := out.Value.Quantity(class)
			if q.Sign() == 0 {
				continue
			}
			if q.Cmp(big.NewInt(1)) != 0 {
				return fmt.Errorf("%w: output holds %s of %s", ErrTokenPlacement, q, class)
			}
			holders++
		}
		if holders != 1 {
			return fmt.Errorf("%w: %s in %d outputs", ErrTokenPlacement, class, holders)
		}
	}
	return nil
}
