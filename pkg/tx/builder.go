package tx

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Builder errors.
var (
	ErrDuplicatePolicy  = errors.New("policy already minting in this transaction")
	ErrOutputIndexRange = errors.New("output index out of range")
	ErrMissingRedeemer  = errors.New("script interaction without redeemer")
)

type mintEntry struct {
	policy   types.PolicyID
	assets   map[string]*big.Int
	redeemer plutus.Data
}

// Builder constructs transactions incrementally. A Builder is not safe for
// concurrent use; it is owned by whoever is assembling the transaction.
type Builder struct {
	inputs     []TxInput
	spends     map[types.Outpoint]plutus.Data
	mints      []mintEntry
	outputs    []Output
	collateral []types.Outpoint
	refInputs  []types.Outpoint
	change     *types.Address
	fee        *big.Int
	err        error
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{spends: make(map[types.Outpoint]plutus.Data)}
}

// AddInput adds a key-locked input.
func (b *Builder) AddInput(in TxInput) *Builder {
	b.inputs = append(b.inputs, in)
	return b
}

// AddScriptInput adds a script-locked input spent with redeemer.
func (b *Builder) AddScriptInput(in TxInput, redeemer plutus.Data) *Builder {
	if redeemer == nil {
		b.setErr(fmt.Errorf("spend %s: %w", in.Outpoint, ErrMissingRedeemer))
		return b
	}
	b.inputs = append(b.inputs, in)
	b.spends[in.Outpoint] = redeemer
	return b
}

// MintPolicyTokens mints (positive) or burns (negative) tokens under policy,
// keyed by raw asset name. Each policy may be used once per transaction.
func (b *Builder) MintPolicyTokens(policy types.PolicyID, tokens map[string]*big.Int, redeemer plutus.Data) *Builder {
	if b.Minting(policy) {
		b.setErr(fmt.Errorf("mint %s: %w", policy, ErrDuplicatePolicy))
		return b
	}
	if redeemer == nil {
		b.setErr(fmt.Errorf("mint %s: %w", policy, ErrMissingRedeemer))
		return b
	}
	assets := make(map[string]*big.Int, len(tokens))
	for name, qty := range tokens {
		assets[name] = new(big.Int).Set(qty)
	}
	b.mints = append(b.mints, mintEntry{policy: policy, assets: assets, redeemer: redeemer})
	return b
}

// Minting reports whether policy already has a mint entry.
func (b *Builder) Minting(policy types.PolicyID) bool {
	for _, m := range b.mints {
		if m.policy == policy {
			return true
		}
	}
	return false
}

// AddOutput appends outputs.
func (b *Builder) AddOutput(outs ...Output) *Builder {
	b.outputs = append(b.outputs, outs...)
	return b
}

// InsertOutputs places outs starting at index, shifting later outputs back.
// index may equal the current output count.
func (b *Builder) InsertOutputs(index int, outs ...Output) error {
	if index < 0 || index > len(b.outputs) {
		return fmt.Errorf("%w: %d (have %d outputs)", ErrOutputIndexRange, index, len(b.outputs))
	}
	merged := make([]Output, 0, len(b.outputs)+len(outs))
	merged = append(merged, b.outputs[:index]...)
	merged = append(merged, outs...)
	merged = append(merged, b.outputs[index:]...)
	b.outputs = merged
	return nil
}

// AddCollateral adds a collateral input.
func (b *Builder) AddCollateral(op types.Outpoint) *Builder {
	b.collateral = append(b.collateral, op)
	return b
}

// AddReferenceInput adds a read-only reference input.
func (b *Builder) AddReferenceInput(op types.Outpoint) *Builder {
	b.refInputs = append(b.refInputs, op)
	return b
}

// SetChangeAddress records where the balancer should send leftover value.
func (b *Builder) SetChangeAddress(addr types.Address) *Builder {
	a := addr
	b.change = &a
	return b
}

// SetFee sets the transaction fee.
func (b *Builder) SetFee(fee *big.Int) *Builder {
	b.fee = new(big.Int).Set(fee)
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Inputs returns a copy of the inputs in insertion order.
func (b *Builder) Inputs() []TxInput {
	return append([]TxInput(nil), b.inputs...)
}

// Outputs returns a copy of the outputs.
func (b *Builder) Outputs() []Output {
	return append([]Output(nil), b.outputs...)
}

// OutputCount returns the number of outputs added so far.
func (b *Builder) OutputCount() int {
	return len(b.outputs)
}

// ChangeAddress returns the change address, if set.
func (b *Builder) ChangeAddress() (types.Address, bool) {
	if b.change == nil {
		return types.Address{}, false
	}
	return *b.change, true
}

// Build returns the constructed transaction. Inputs are sorted into ledger
// order and redeemer indices are resolved against the sorted inputs and
// sorted policies. Build does not mutate the builder and does NOT validate;
// call Validate separately.
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}

	sorted := make([]TxInput, len(b.inputs))
	copy(sorted, b.inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Outpoint.Compare(sorted[j].Outpoint) < 0
	})

	t := &Transaction{
		Inputs:          make([]types.Outpoint, 0, len(sorted)),
		ReferenceInputs: append([]types.Outpoint(nil), b.refInputs...),
		Collateral:      append([]types.Outpoint(nil), b.collateral...),
		Outputs:         make([]Output, 0, len(b.outputs)),
		Fee:             new(big.Int),
		ChangeAddress:   b.change,
	}
	if b.fee != nil {
		t.Fee.Set(b.fee)
	}
	for i, in := range sorted {
		t.Inputs = append(t.Inputs, in.Outpoint)
		if r, ok := b.spends[in.Outpoint]; ok {
			t.Redeemers = append(t.Redeemers, Redeemer{Tag: RedeemerSpend, Index: uint32(i), Data: r})
		}
	}
	for _, out := range b.outputs {
		t.Outputs = append(t.Outputs, NewOutput(out.Address, out.Value, out.Datum))
	}

	if len(b.mints) > 0 {
		t.Mint = make(types.MultiAsset)
		redeemers := make(map[types.PolicyID]plutus.Data, len(b.mints))
		for _, m := range b.mints {
			for name, qty := range m.assets {
				t.Mint.Add(types.AssetClass{Policy: m.policy, Name: types.AssetName(name)}, qty)
			}
			redeemers[m.policy] = m.redeemer
		}
		policies := make([]types.PolicyID, 0, len(redeemers))
		for p := range redeemers {
			policies = append(policies, p)
		}
		sort.Slice(policies, func(i, j int) bool { return policies[i].Compare(policies[j]) < 0 })
		for i, p := range policies {
			t.Redeemers = append(t.Redeemers, Redeemer{Tag: RedeemerMint, Index: uint32(i), Data: redeemers[p]})
		}
	}
	return t, nil
}
