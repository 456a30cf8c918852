// Package tx defines the transaction model, the incremental builder used as
// the transaction-in-progress, and the ledger's CBOR serialization rules
// needed for sizing outputs and deriving transaction ids.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/crypto"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Output defines a new UTxO. Datum is an inline datum; nil means none.
type Output struct {
	Address types.Address
	Value   types.Value
	Datum   plutus.Data
}

// NewOutput builds an output holding a copy of value.
func NewOutput(addr types.Address, value types.Value, datum plutus.Data) Output {
	return Output{Address: addr, Value: value.Clone(), Datum: datum}
}

// Lovelace returns the output's lovelace (never nil).
func (o Output) Lovelace() *big.Int {
	if o.Value.Lovelace == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(o.Value.Lovelace)
}

// outputJSON is the JSON representation of Output with a hex CBOR datum.
type outputJSON struct {
	Address types.Address `json:"address"`
	Value   types.Value   `json:"value"`
	Datum   *string       `json:"datum,omitempty"`
}

// MarshalJSON encodes the output with its datum as CBOR hex.
func (o Output) MarshalJSON() ([]byte, error) {
	j := outputJSON{Address: o.Address, Value: o.Value}
	if o.Datum != nil {
		s, err := plutus.ToHex(o.Datum)
		if err != nil {
			return nil, err
		}
		j.Datum = &s
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an output with a CBOR hex datum.
func (o *Output) UnmarshalJSON(data []byte) error {
	var j outputJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.Address = j.Address
	o.Value = j.Value
	o.Datum = nil
	if j.Datum != nil {
		d, err := plutus.FromHex(*j.Datum)
		if err != nil {
			return fmt.Errorf("output datum: %w", err)
		}
		o.Datum = d
	}
	return nil
}

// TxInput is a resolved input: the outpoint plus the output it points at.
type TxInput struct {
	Outpoint types.Outpoint `json:"outpoint"`
	Output   Output         `json:"output"`
}

// RedeemerTag identifies what a redeemer is attached to.
type RedeemerTag uint8

const (
	RedeemerSpend RedeemerTag = 0
	RedeemerMint  RedeemerTag = 1
)

// String returns a readable tag name.
func (t RedeemerTag) String() string {
	switch t {
	case RedeemerSpend:
		return "spend"
	case RedeemerMint:
		return "mint"
	default:
		return "unknown"
	}
}

// Redeemer points at a sorted input or a sorted policy by index.
type Redeemer struct {
	Tag   RedeemerTag
	Index uint32
	Data  plutus.Data
}

// redeemerJSON is the JSON representation of Redeemer.
type redeemerJSON struct {
	Tag   string `json:"tag"`
	Index uint32 `json:"index"`
	Data  string `json:"data"`
}

// MarshalJSON encodes the redeemer with CBOR hex data.
func (r Redeemer) MarshalJSON() ([]byte, error) {
	s, err := plutus.ToHex(r.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(redeemerJSON{Tag: r.Tag.String(), Index: r.Index, Data: s})
}

// Transaction is a built, unsigned transaction.
type Transaction struct {
	Inputs          []types.Outpoint `json:"inputs"`
	ReferenceInputs []types.Outpoint `json:"reference_inputs,omitempty"`
	Collateral      []types.Outpoint `json:"collateral,omitempty"`
	Outputs         []Output         `json:"outputs"`
	Fee             *big.Int         `json:"fee"`
	Mint            types.MultiAsset `json:"-"`
	Redeemers       []Redeemer       `json:"redeemers,omitempty"`

	// ChangeAddress is carried for the balancer; it is not part of the body.
	ChangeAddress *types.Address `json:"change_address,omitempty"`
}

// Hash computes the transaction id: BLAKE2b-256 of the CBOR body.
// Redeemers and witnesses are not part of the body.
func (t *Transaction) Hash() (types.Hash, error) {
	body, err := t.BodyBytes()
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Blake2b256(body), nil
}

// BodyBytes returns the CBOR transaction body.
func (t *Transaction) BodyBytes() ([]byte, error) {
	return encodeBody(t)
}

// BodyHex returns the CBOR transaction body as hex.
func (t *Transaction) BodyHex() (string, error) {
	b, err := t.BodyBytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TotalOutputLovelace returns the sum of lovelace over all outputs.
func (t *Transaction) TotalOutputLovelace() *big.Int {
	total := new(big.Int)
	for _, out := range t.Outputs {
		total.Add(total, out.Lovelace())
	}
	return total
}

// MintedQuantity returns the net minted quantity of class (negative for burns).
func (t *Transaction) MintedQuantity(class types.AssetClass) *big.Int {
	return t.Mint.Quantity(class)
}

// RedeemersFor returns the redeemers carrying tag.
func (t *Transaction) RedeemersFor(tag RedeemerTag) []Redeemer {
	var out []Redeemer
	for _, r := range t.Redeemers {
		if r.Tag == tag {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON encodes the transaction with mint quantities keyed by unit.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	var mint map[string]*big.Int
	for _, class := range t.Mint.Classes() {
		if mint == nil {
			mint = make(map[string]*big.Int)
		}
		mint[class.Unit()] = t.Mint.Quantity(class)
	}
	return json.Marshal(struct {
		*alias
		Mint map[string]*big.Int `json:"mint,omitempty"`
	}{alias: (*alias)(t), Mint: mint})
}
