package mint

import (
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/internal/token"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// handleRecord is everything needed to mint one name. It is built once per
// order and consumed once by the assembler.
type handleRecord struct {
	input       tx.TxInput
	destination types.Address
	datum       plutus.Data
	identity    token.Identity
	refOutput   tx.Output
	userOutput  tx.Output
}

// accountant builds min-lovelace corrected outputs and keeps the running
// total of lovelace they lock.
type accountant struct {
	coinsPerUTxOByte *big.Int
	total            *big.Int
}

func newAccountant(coinsPerUTxOByte *big.Int) *accountant {
	return &accountant{coinsPerUTxOByte: coinsPerUTxOByte, total: new(big.Int)}
}

// tokenOutput returns an output holding one unit of class, raised to its
// minimum lovelace.
func (a *accountant) tokenOutput(addr types.Address, class types.AssetClass, datum plutus.Data) (tx.Output, error) {
	value := types.Lovelace(1).WithAsset(class, big.NewInt(1))
	out := tx.NewOutput(addr, value, datum)
	if err := tx.CorrectLovelace(&out, a.coinsPerUTxOByte); err != nil {
		return tx.Output{}, fmt.Errorf("correct lovelace for %s: %w", class, err)
	}
	a.total.Add(a.total, out.Value.Lovelace)
	return out, nil
}

// record builds the reference and user outputs of one order.
func (a *accountant) record(in tx.TxInput, id token.Identity, refAddr, dest types.Address, datum plutus.Data) (*handleRecord, error) {
	ref, err := a.tokenOutput(refAddr, id.Reference, datum)
	if err != nil {
		return nil, err
	}
	user, err := a.tokenOutput(dest, id.User, nil)
	if err != nil {
		return nil, err
	}
	return &handleRecord{
		input:       in,
		destination: dest,
		datum:       datum,
		identity:    id,
		refOutput:   ref,
		userOutput:  user,
	}, nil
}

// Total returns the lovelace committed to outputs so far.
func (a *accountant) Total() *big.Int {
	return new(big.Int).Set(a.total)
}
