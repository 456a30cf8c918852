// Package order models pending registration orders: normalizing a batch
// into processing order, decoding order datums, and checking that an order
// input is genuine before it is spent.
package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Order errors.
var (
	ErrDuplicateOrder    = errors.New("order input listed twice")
	ErrInvalidOrderDatum = errors.New("invalid order datum")
)

// Order is one pending registration order.
type Order struct {
	// Input is the locked order UTxO, resolved with its inline datum.
	Input tx.TxInput `json:"input"`
	// Name is the requested name, UTF-8.
	Name string `json:"name"`
	// Datum is attached to the reference token output.
	Datum plutus.Data `json:"-"`
}

// orderJSON is the JSON form of an Order; the datum is CBOR hex.
type orderJSON struct {
	Input tx.TxInput `json:"input"`
	Name  string     `json:"name"`
	Datum string     `json:"datum,omitempty"`
}

// MarshalJSON encodes the order with its datum as CBOR hex.
func (o Order) MarshalJSON() ([]byte, error) {
	j := orderJSON{Input: o.Input, Name: o.Name}
	if o.Datum != nil {
		s, err := plutus.ToHex(o.Datum)
		if err != nil {
			return nil, err
		}
		j.Datum = s
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an order written by MarshalJSON.
func (o *Order) UnmarshalJSON(data []byte) error {
	var j orderJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.Input = j.Input
	o.Name = j.Name
	o.Datum = nil
	if j.Datum != "" {
		d, err := plutus.FromHex(j.Datum)
		if err != nil {
			return fmt.Errorf("order %q datum: %w", j.Name, err)
		}
		o.Datum = d
	}
	return nil
}

// Details is what an order datum tells the assembler.
type Details struct {
	Destination types.Address
	Price       *big.Int
	Owner       types.ScriptHash
}

// Normalize returns the orders in the ledger's canonical input order:
// ascending by transaction id bytes, then by output index. The input slice
// is not modified.
func Normalize(orders []Order) ([]Order, error) {
	out := make([]Order, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Input.Outpoint.Compare(out[j].Input.Outpoint) < 0
	})
	for i := 1; i < len(out); i++ {
		if out[i].Input.Outpoint == out[i-1].Input.Outpoint {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, out[i].Input.Outpoint)
		}
	}
	return out, nil
}

// Outpoints returns the order input outpoints in slice order.
func Outpoints(orders []Order) []types.Outpoint {
	ops := make([]types.Outpoint, len(orders))
	for i, o := range orders {
		ops[i] = o.Input.Outpoint
	}
	return ops
}

// Names returns the requested names in slice order.
func Names(orders []Order) []string {
	names := make([]string, len(orders))
	for i, o := range orders {
		names[i] = o.Name
	}
	return names
}

var one = big.NewInt(1)
