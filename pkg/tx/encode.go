package tx

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Transaction body map keys.
const (
	bodyInputs          = 0
	bodyOutputs         = 1
	bodyFee             = 2
	bodyMint            = 9
	bodyCollateral      = 13
	bodyReferenceInputs = 18
)

// Post-alonzo output map keys.
const (
	outputAddress = 0
	outputValue   = 1
	outputDatum   = 2
)

// datumInline is the datum option discriminant for inline datums.
const datumInline = 1

// tagEncodedCBOR wraps embedded CBOR (RFC 8949 tag 24).
const tagEncodedCBOR = 24

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		BigIntConvert: cbor.BigIntConvertShortest,
	}.EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeOutput serializes an output in the post-alonzo map format.
func EncodeOutput(o Output) ([]byte, error) {
	val, err := encodeValue(o.Value, false)
	if err != nil {
		return nil, fmt.Errorf("output value: %w", err)
	}
	m := map[int]interface{}{
		outputAddress: o.Address.Bytes(),
		outputValue:   val,
	}
	if o.Datum != nil {
		raw, err := plutus.Encode(o.Datum)
		if err != nil {
			return nil, fmt.Errorf("output datum: %w", err)
		}
		m[outputDatum] = []interface{}{datumInline, cbor.Tag{Number: tagEncodedCBOR, Content: raw}}
	}
	return encMode.Marshal(m)
}

// OutputSize returns the serialized size of an output in bytes.
func OutputSize(o Output) (int, error) {
	b, err := EncodeOutput(o)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// encodeValue writes coin or [coin, multiasset]. Mint maps allow negative
// quantities; output values do not.
func encodeValue(v types.Value, allowNegative bool) (cbor.RawMessage, error) {
	coin := v.Lovelace
	if coin == nil {
		coin = new(big.Int)
	}
	if coin.Sign() < 0 {
		return nil, fmt.Errorf("negative lovelace %s", coin)
	}
	coinBytes, err := encMode.Marshal(coin)
	if err != nil {
		return nil, err
	}
	if !v.HasAssets() {
		return cbor.RawMessage(coinBytes), nil
	}
	assets, err := encodeMultiAsset(v.Assets, allowNegative)
	if err != nil {
		return nil, err
	}
	buf := appendHead(nil, 4, 2)
	buf = append(buf, coinBytes...)
	buf = append(buf, assets...)
	return cbor.RawMessage(buf), nil
}

// encodeMultiAsset writes {policy: {name: qty}} in canonical key order.
func encodeMultiAsset(m types.MultiAsset, allowNegative bool) (cbor.RawMessage, error) {
	policies := m.Policies()
	buf := appendHead(nil, 5, uint64(len(policies)))
	for _, policy := range policies {
		pb, err := encMode.Marshal(policy[:])
		if err != nil {
			return nil, err
		}
		buf = append(buf, pb...)

		names := m.Names(policy)
		buf = appendHead(buf, 5, uint64(len(names)))
		for _, name := range names {
			if len(name) > types.MaxAssetNameSize {
				return nil, fmt.Errorf("asset name %s exceeds %d bytes", name, types.MaxAssetNameSize)
			}
			qty := m.Quantity(types.AssetClass{Policy: policy, Name: name})
			if qty.Sign() < 0 && !allowNegative {
				return nil, fmt.Errorf("negative quantity %s for %s.%s", qty, policy, name)
			}
			nb, err := encMode.Marshal([]byte(name))
			if err != nil {
				return nil, err
			}
			qb, err := encMode.Marshal(qty)
			if err != nil {
				return nil, err
			}
			buf = append(buf, nb...)
			buf = append(buf, qb...)
		}
	}
	return cbor.RawMessage(buf), nil
}

func encodeOutpoints(ops []types.Outpoint) []interface{} {
	out := make([]interface{}, 0, len(ops))
	for _, op := range ops {
		out = append(out, []interface{}{op.TxID[:], op.Index})
	}
	return out
}

func encodeBody(t *Transaction) ([]byte, error) {
	outputs := make([]cbor.RawMessage, 0, len(t.Outputs))
	for i, o := range t.Outputs {
		b, err := EncodeOutput(o)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs = append(outputs, cbor.RawMessage(b))
	}
	fee := t.Fee
	if fee == nil {
		fee = new(big.Int)
	}

	body := map[int]interface{}{
		bodyInputs:  encodeOutpoints(t.Inputs),
		bodyOutputs: outputs,
		bodyFee:     fee,
	}
	if len(t.Mint) > 0 {
		mint, err := encodeMultiAsset(t.Mint, true)
		if err != nil {
			return nil, fmt.Errorf("mint: %w", err)
		}
		body[bodyMint] = mint
	}
	if len(t.Collateral) > 0 {
		body[bodyCollateral] = encodeOutpoints(t.Collateral)
	}
	if len(t.ReferenceInputs) > 0 {
		body[bodyReferenceInputs] = encodeOutpoints(t.ReferenceInputs)
	}
	return encMode.Marshal(body)
}

// EncodeRedeemers serializes redeemers as [[tag, index, data, ex_units]].
// Execution units are left at zero for the fee-estimation pass to fill.
func EncodeRedeemers(rs []Redeemer) ([]byte, error) {
	items := make([]interface{}, 0, len(rs))
	for i, r := range rs {
		raw, err := plutus.RawMessage(r.Data)
		if err != nil {
			return nil, fmt.Errorf("redeemer %d: %w", i, err)
		}
		items = append(items, []interface{}{uint8(r.Tag), r.Index, raw, []interface{}{0, 0}})
	}
	return encMode.Marshal(items)
}

func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|24, byte(n))
	case n <= 0xffff:
		return binary.BigEndian.AppendUint16(append(buf, m|25), uint16(n))
	case n <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(buf, m|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(buf, m|27), n)
	}
}
