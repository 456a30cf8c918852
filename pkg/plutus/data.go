// Package plutus implements the subset of Plutus data needed by the HAL
// validators: constructors, integers, byte strings, lists and maps, with
// CBOR encoding compatible with the ledger.
package plutus

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Data is a Plutus data value.
type Data interface {
	isData()
}

// Constr is a tagged constructor application.
type Constr struct {
	Index  uint64
	Fields []Data
}

// Int is an arbitrary precision integer.
type Int struct {
	Value *big.Int
}

// Bytes is a byte string.
type Bytes []byte

// List is an ordered list of data.
type List []Data

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   Data
	Value Data
}

// Map is an association list; entry order is preserved on the wire.
type Map []Pair

func (Constr) isData() {}
func (Int) isData()    {}
func (Bytes) isData()  {}
func (List) isData()   {}
func (Map) isData()    {}

// NewConstr builds a constructor value.
func NewConstr(index uint64, fields ...Data) Constr {
	return Constr{Index: index, Fields: fields}
}

// NewInt wraps an int64.
func NewInt(n int64) Int {
	return Int{Value: big.NewInt(n)}
}

// NewBigInt wraps a copy of n.
func NewBigInt(n *big.Int) Int {
	return Int{Value: new(big.Int).Set(n)}
}

// Equal reports structural equality of two data values.
func Equal(a, b Data) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}
	eb, err := Encode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// ToHex encodes d as CBOR hex.
func ToHex(d Data) (string, error) {
	b, err := Encode(d)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// FromHex decodes CBOR hex into data.
func FromHex(s string) (Data, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("plutus data hex: %w", err)
	}
	return Decode(b)
}

// AsConstr asserts d is a constructor with the given index and field count.
func AsConstr(d Data, index uint64, fields int) (Constr, error) {
	c, ok := d.(Constr)
	if !ok {
		return Constr{}, fmt.Errorf("expected constructor, got %T", d)
	}
	if c.Index != index {
		return Constr{}, fmt.Errorf("expected constructor %d, got %d", index, c.Index)
	}
	if fields >= 0 && len(c.Fields) != fields {
		return Constr{}, fmt.Errorf("constructor %d: expected %d fields, got %d", index, fields, len(c.Fields))
	}
	return c, nil
}

// AsBytes asserts d is a byte string.
func AsBytes(d Data) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, fmt.Errorf("expected bytes, got %T", d)
	}
	return []byte(b), nil
}

// AsInt asserts d is an integer.
func AsInt(d Data) (*big.Int, error) {
	i, ok := d.(Int)
	if !ok || i.Value == nil {
		return nil, fmt.Errorf("expected integer, got %T", d)
	}
	return new(big.Int).Set(i.Value), nil
}
