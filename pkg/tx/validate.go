package tx

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Ledger limits checked by Validate.
const (
	MaxTxInputs  = 512
	MaxTxOutputs = 512
	// MaxTxSize is the protocol maximum serialized body size in bytes.
	MaxTxSize = 16384
)

// Validation errors.
var (
	ErrNoInputs           = errors.New("transaction has no inputs")
	ErrNoOutputs          = errors.New("transaction has no outputs")
	ErrDuplicateInput     = errors.New("duplicate input")
	ErrNegativeOutput     = errors.New("output value is negative")
	ErrNegativeFee        = errors.New("fee is negative")
	ErrTooManyInputs      = errors.New("too many inputs")
	ErrTooManyOutputs     = errors.New("too many outputs")
	ErrTxTooLarge         = errors.New("transaction body too large")
	ErrRedeemerIndex      = errors.New("redeemer index out of range")
	ErrBelowMinLovelace   = errors.New("output below minimum lovelace")
	ErrMissingInput       = errors.New("input not resolved")
	ErrInsufficientInputs = errors.New("inputs do not cover outputs")
)

// Validate checks transaction structure and basic rules.
// This does NOT check UTxO existence (that requires the UTxO set).
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(tx.Inputs) > MaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), MaxTxInputs)
	}
	if len(tx.Outputs) > MaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), MaxTxOutputs)
	}
	if tx.Fee != nil && tx.Fee.Sign() < 0 {
		return ErrNegativeFee
	}

	seen := make(map[types.Outpoint]bool, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if seen[in] {
			return fmt.Errorf("input %d (%s): %w", i, in, ErrDuplicateInput)
		}
		seen[in] = true
	}

	for i, out := range tx.Outputs {
		if out.Lovelace().Sign() < 0 {
			return fmt.Errorf("output %d: %w", i, ErrNegativeOutput)
		}
		for _, class := range out.Value.Assets.Classes() {
			if out.Value.Quantity(class).Sign() < 0 {
				return fmt.Errorf("output %d asset %s: %w", i, class, ErrNegativeOutput)
			}
		}
	}

	mintPolicies := len(tx.Mint.Policies())
	for _, r := range tx.Redeemers {
		limit := len(tx.Inputs)
		if r.Tag == RedeemerMint {
			limit = mintPolicies
		}
		if int(r.Index) >= limit {
			return fmt.Errorf("%s redeemer %d: %w", r.Tag, r.Index, ErrRedeemerIndex)
		}
	}

	body, err := tx.BodyBytes()
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	if len(body) > MaxTxSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrTxTooLarge, len(body), MaxTxSize)
	}
	return nil
}

// CheckMinLovelace verifies every output holds at least its minimum lovelace.
func (tx *Transaction) CheckMinLovelace(coinsPerUTxOByte *big.Int) error {
	for i, out := range tx.Outputs {
		minimum, err := MinLovelace(out, coinsPerUTxOByte)
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if out.Lovelace().Cmp(minimum) < 0 {
			return fmt.Errorf("output %d: %w: has %s, needs %s", i, ErrBelowMinLovelace, out.Lovelace(), minimum)
		}
	}
	return nil
}

// Excess returns inputs + mint - outputs - fee, given the resolved outputs
// of every input. The result is what a balancer still has to route to the
// change address. Any negative component is ErrInsufficientInputs.
func (tx *Transaction) Excess(resolved map[types.Outpoint]Output) (types.Value, error) {
	excess := types.NewValue(nil)
	for _, op := range tx.Inputs {
		out, ok := resolved[op]
		if !ok {
			return types.Value{}, fmt.Errorf("%s: %w", op, ErrMissingInput)
		}
		excess = excess.Add(out.Value)
	}
	for _, class := range tx.Mint.Classes() {
		excess.AddAsset(class, tx.Mint.Quantity(class))
	}
	for _, out := range tx.Outputs {
		excess.Lovelace.Sub(excess.Lovelace, out.Lovelace())
		for _, class := range out.Value.Assets.Classes() {
			excess.AddAsset(class, new(big.Int).Neg(out.Value.Quantity(class)))
		}
	}
	if tx.Fee != nil {
		excess.Lovelace.Sub(excess.Lovelace, tx.Fee)
	}

	if excess.Lovelace.Sign() < 0 {
		return types.Value{}, fmt.Errorf("%w: short %s lovelace", ErrInsufficientInputs, new(big.Int).Neg(excess.Lovelace))
	}
	for _, class := range excess.Assets.Classes() {
		if q := excess.Quantity(class); q.Sign() < 0 {
			return types.Value{}, fmt.Errorf("%w: short %s of %s", ErrInsufficientInputs, new(big.Int).Neg(q), class)
		}
	}
	return excess, nil
}
