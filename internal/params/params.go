// Package params fetches the ledger parameters a fulfillment depends on:
// the min-lovelace coefficient and the linear fee constants.
package params

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// ErrInvalidParams is returned when fetched parameters are unusable.
var ErrInvalidParams = errors.New("invalid network parameters")

// Network holds the parameters of one network.
type Network struct {
	CoinsPerUTxOByte     *big.Int `json:"coins_per_utxo_byte"`
	MinFeeA              *big.Int `json:"min_fee_a"`
	MinFeeB              *big.Int `json:"min_fee_b"`
	MaxTxSize            int      `json:"max_tx_size,omitempty"`
	CollateralPercentage int      `json:"collateral_percentage,omitempty"`
}

// FeeParams returns the linear fee constants.
func (n *Network) FeeParams() tx.FeeParams {
	return tx.FeeParams{MinFeeA: n.MinFeeA, MinFeeB: n.MinFeeB}
}

// Validate checks the parameters are usable for assembly.
func (n *Network) Validate() error {
	switch {
	case n == nil:
		return fmt.Errorf("%w: nil", ErrInvalidParams)
	case n.CoinsPerUTxOByte == nil || n.CoinsPerUTxOByte.Sign() <= 0:
		return fmt.Errorf("%w: coins per utxo byte must be positive", ErrInvalidParams)
	case n.MinFeeA == nil || n.MinFeeA.Sign() < 0:
		return fmt.Errorf("%w: min fee a must not be negative", ErrInvalidParams)
	case n.MinFeeB == nil || n.MinFeeB.Sign() < 0:
		return fmt.Errorf("%w: min fee b must not be negative", ErrInvalidParams)
	case n.MaxTxSize < 0 || n.CollateralPercentage < 0:
		return fmt.Errorf("%w: negative limit", ErrInvalidParams)
	}
	return nil
}

// Clone returns a deep copy.
func (n *Network) Clone() *Network {
	cp := *n
	cp.CoinsPerUTxOByte = cloneInt(n.CoinsPerUTxOByte)
	cp.MinFeeA = cloneInt(n.MinFeeA)
	cp.MinFeeB = cloneInt(n.MinFeeB)
	return &cp
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

// Provider returns the current parameters of a network.
type Provider interface {
	Fetch(ctx context.Context, network types.Network) (*Network, error)
}
