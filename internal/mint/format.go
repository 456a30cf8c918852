package mint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// lovelacePerAda is the decimal exponent between lovelace and ada.
const lovelacePerAda = 6

// FormatADA renders a lovelace amount as ada with six decimals.
func FormatADA(lovelace *big.Int) string {
	if lovelace == nil {
		lovelace = new(big.Int)
	}
	return decimal.NewFromBigInt(lovelace, -lovelacePerAda).StringFixed(lovelacePerAda) + " ADA"
}
