// Package wallet selects operator UTxOs to fund the parts of a fulfillment
// the orders do not pay for, such as script collateral.
package wallet

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/koralabs/hal-minting-contracts/internal/utxo"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUTXOs           = errors.New("no UTXOs available")
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []*utxo.UTXO // Selected UTXOs to spend.
	Total  *big.Int     // Sum of selected input lovelace.
	Change *big.Int     // Change = Total - target.
}

// AdaOnly returns the UTxOs holding no native assets and no datum.
// Collateral must come from such outputs.
func AdaOnly(utxos []*utxo.UTXO) []*utxo.UTXO {
	out := make([]*utxo.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Output.Value.HasAssets() || u.Output.Datum != nil {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SelectCoins chooses UTXOs to cover target lovelace. It tries two strategies:
//  1. Single UTXO: finds the smallest single UTXO that covers the target (minimizes inputs).
//  2. Largest-first accumulation: greedily adds the largest UTXOs until the target is met.
//
// Returns the strategy that produces the least change (waste). At most
// maxInputs UTxOs are used by the accumulation strategy; zero means no limit.
func SelectCoins(utxos []*utxo.UTXO, target *big.Int, maxInputs int) (*CoinSelection, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if target == nil || target.Sign() <= 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	// Filter out zero-value UTXOs and sort by value ascending.
	candidates := make([]*utxo.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Output.Lovelace().Sign() > 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Output.Lovelace().Cmp(candidates[j].Output.Lovelace()) < 0
	})

	// Strategy 1: Single UTXO, the smallest one that covers the target.
	var single *CoinSelection
	for _, u := range candidates {
		if v := u.Output.Lovelace(); v.Cmp(target) >= 0 {
			single = &CoinSelection{
				Inputs: []*utxo.UTXO{u},
				Total:  v,
				Change: new(big.Int).Sub(v, target),
			}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: Largest-first accumulation.
	var accum *CoinSelection
	var selected []*utxo.UTXO
	total := new(big.Int)
	for i := len(candidates) - 1; i >= 0; i-- {
		if maxInputs > 0 && len(selected) == maxInputs {
			break
		}
		selected = append(selected, candidates[i])
		total.Add(total, candidates[i].Output.Lovelace())
		if total.Cmp(target) >= 0 {
			accum = &CoinSelection{
				Inputs: selected,
				Total:  total,
				Change: new(big.Int).Sub(total, target),
			}
			break
		}
	}

	// Pick the best result.
	switch {
	case single != nil && accum != nil:
		// Prefer whichever produces less change (less waste).
		if single.Change.Cmp(accum.Change) <= 0 {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, totalValue(candidates), target)
	}
}

func totalValue(utxos []*utxo.UTXO) *big.Int {
	total := new(big.Int)
	for _, u := range utxos {
		total.Add(total, u.Output.Lovelace())
	}
	return total
}
