package mint

import (
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// SettlementAmount returns totalPrice - totalMinLovelace - reservedFee. A
// negative result is an error; it is never clamped.
func SettlementAmount(totalPrice, totalMinLovelace, reservedFee *big.Int) (*big.Int, error) {
	amount := new(big.Int).Sub(totalPrice, totalMinLovelace)
	amount.Sub(amount, reservedFee)
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: collected %s lovelace, outputs need %s and fee reserve %s",
			ErrAccountingInconsistency, totalPrice, totalMinLovelace, reservedFee)
	}
	return amount, nil
}

// settlementOutput pays amount to the protocol with an inline void datum.
func settlementOutput(paymentAddr types.Address, amount *big.Int) tx.Output {
	return tx.NewOutput(paymentAddr, types.NewValue(amount), plutus.Void())
}
