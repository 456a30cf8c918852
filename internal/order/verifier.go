package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/internal/utxo"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Verification errors.
var (
	ErrWrongAddress  = errors.New("order input not at orders script address")
	ErrSpent         = errors.New("order input already spent")
	ErrMissingProof  = errors.New("order input must hold exactly one order token")
	ErrOutputChanged = errors.New("order input differs from known utxo")
)

// Verifier decides whether an order input is genuine and may be spent.
type Verifier interface {
	Verify(ctx context.Context, network types.Network, input tx.TxInput, script config.ScriptDetails) error
}

// ScriptVerifier checks order inputs against the local UTxO state.
type ScriptVerifier struct {
	UTxOs      utxo.Set
	OrderToken types.AssetClass
	Decoder    Decoder
}

// NewScriptVerifier returns a verifier using the plutus order datum layout.
func NewScriptVerifier(utxos utxo.Set, orderToken types.AssetClass) *ScriptVerifier {
	return &ScriptVerifier{UTxOs: utxos, OrderToken: orderToken, Decoder: PlutusDecoder{}}
}

// Verify implements Verifier. The input must be locked by the orders spend
// script, still be unspent with the same address, value and datum, hold exactly one order
// token and carry a decodable datum.
func (v *ScriptVerifier) Verify(ctx context.Context, network types.Network, input tx.TxInput, script config.ScriptDetails) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	want := script.Address(network)
	got := input.Output.Address
	if !got.IsScript() || got.Payment.Hash != want.Payment.Hash || got.NetworkID != want.NetworkID {
		return fmt.Errorf("%w: %s", ErrWrongAddress, got)
	}

	known, err := v.UTxOs.Get(input.Outpoint)
	if err != nil {
		if errors.Is(err, utxo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSpent, input.Outpoint)
		}
		return fmt.Errorf("lookup %s: %w", input.Outpoint, err)
	}
	if !known.Output.Address.Equal(got) ||
		!known.Output.Value.Equal(input.Output.Value) ||
		!sameDatum(known.Output.Datum, input.Output.Datum) {
		return fmt.Errorf("%w: %s", ErrOutputChanged, input.Outpoint)
	}

	if qty := input.Output.Value.Quantity(v.OrderToken); qty.Cmp(one) != 0 {
		return fmt.Errorf("%w: %s holds %s", ErrMissingProof, input.Outpoint, qty)
	}

	decoder := v.Decoder
	if decoder == nil {
		decoder = PlutusDecoder{}
	}
	if _, err := decoder.Decode(input.Output.Datum, network); err != nil {
		return err
	}

	log.Orders.Debug().
		Str("outpoint", input.Outpoint.String()).
		Msg("Order input verified")
	return nil
}

// sameDatum compares inline datums; price and destination come from the
// datum, so it must match the one on chain byte for byte.
func sameDatum(a, b plutus.Data) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return plutus.Equal(a, b)
}
