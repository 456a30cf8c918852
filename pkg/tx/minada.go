package tx

import (
	"errors"
	"fmt"
	"math/big"
)

// UTxOEntryOverhead is the fixed per-entry byte overhead the ledger adds to
// an output's serialized size when computing its minimum lovelace.
const UTxOEntryOverhead = 160

// maxCorrectionRounds bounds the fixpoint iteration in CorrectLovelace. The
// lovelace field can grow by at most a few bytes, so it settles in two or
// three rounds.
const maxCorrectionRounds = 8

// ErrLovelaceUnstable is returned when the minimum never settles.
var ErrLovelaceUnstable = errors.New("minimum lovelace did not converge")

// MinLovelace returns (UTxOEntryOverhead + size(out)) * coinsPerUTxOByte for
// the output as currently encoded.
func MinLovelace(out Output, coinsPerUTxOByte *big.Int) (*big.Int, error) {
	if coinsPerUTxOByte == nil || coinsPerUTxOByte.Sign() <= 0 {
		return nil, fmt.Errorf("coins per utxo byte must be positive")
	}
	size, err := OutputSize(out)
	if err != nil {
		return nil, err
	}
	minimum := big.NewInt(int64(UTxOEntryOverhead + size))
	return minimum.Mul(minimum, coinsPerUTxOByte), nil
}

// CorrectLovelace raises out's lovelace to its minimum, repeating until the
// minimum no longer changes (a larger amount can take more bytes to encode).
// Outputs already above the minimum are left as they are.
func CorrectLovelace(out *Output, coinsPerUTxOByte *big.Int) error {
	for i := 0; i < maxCorrectionRounds; i++ {
		minimum, err := MinLovelace(*out, coinsPerUTxOByte)
		if err != nil {
			return err
		}
		if out.Lovelace().Cmp(minimum) >= 0 {
			return nil
		}
		out.Value = out.Value.Clone()
		out.Value.Lovelace = minimum
	}
	return ErrLovelaceUnstable
}
