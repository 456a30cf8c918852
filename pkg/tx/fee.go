package tx

import (
	"fmt"
	"math/big"
)

// Size estimates for parts of the signed transaction that are not in the body.
const (
	// vkeyWitnessSize is one [vkey(32), signature(64)] witness with CBOR heads.
	vkeyWitnessSize = 101
	// txEnvelopeOverhead covers the outer [body, witnesses, valid, aux] array
	// and the witness set map heads.
	txEnvelopeOverhead = 8
)

// FeeParams are the linear fee coefficients: fee = MinFeeA * size + MinFeeB.
type FeeParams struct {
	MinFeeA *big.Int
	MinFeeB *big.Int
}

// EstimateSize returns the estimated serialized size in bytes of tx once it
// carries redeemers and signers key witnesses.
func EstimateSize(tx *Transaction, signers int) (int, error) {
	body, err := tx.BodyBytes()
	if err != nil {
		return 0, err
	}
	size := txEnvelopeOverhead + len(body) + signers*vkeyWitnessSize
	if len(tx.Redeemers) > 0 {
		rs, err := EncodeRedeemers(tx.Redeemers)
		if err != nil {
			return 0, err
		}
		size += len(rs)
	}
	return size, nil
}

// MinFee returns the linear size fee for tx. Script execution costs are not
// included: execution units are only known after evaluation.
func MinFee(tx *Transaction, params FeeParams, signers int) (*big.Int, error) {
	if params.MinFeeA == nil || params.MinFeeB == nil {
		return nil, fmt.Errorf("fee parameters not set")
	}
	size, err := EstimateSize(tx, signers)
	if err != nil {
		return nil, fmt.Errorf("estimate size: %w", err)
	}
	fee := new(big.Int).Mul(params.MinFeeA, big.NewInt(int64(size)))
	return fee.Add(fee, params.MinFeeB), nil
}
