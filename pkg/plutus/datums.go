package plutus

import (
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// OrderDatum is the datum locked with every order input:
// Constr 0 [owner_key_hash, price, destination_address].
type OrderDatum struct {
	Owner       types.ScriptHash
	Price       *big.Int
	Destination types.Address
}

// ToData encodes the order datum.
func (o OrderDatum) ToData() Data {
	price := o.Price
	if price == nil {
		price = new(big.Int)
	}
	return NewConstr(0,
		Bytes(o.Owner[:]),
		NewBigInt(price),
		AddressToData(o.Destination),
	)
}

// DecodeOrderDatum decodes an order datum. The network fixes the address
// network id of the destination.
func DecodeOrderDatum(d Data, network types.Network) (OrderDatum, error) {
	c, err := AsConstr(d, 0, 3)
	if err != nil {
		return OrderDatum{}, fmt.Errorf("order datum: %w", err)
	}
	owner, err := AsBytes(c.Fields[0])
	if err != nil {
		return OrderDatum{}, fmt.Errorf("order datum owner: %w", err)
	}
	if len(owner) != types.ScriptHashSize {
		return OrderDatum{}, fmt.Errorf("order datum owner must be %d bytes, got %d", types.ScriptHashSize, len(owner))
	}
	price, err := AsInt(c.Fields[1])
	if err != nil {
		return OrderDatum{}, fmt.Errorf("order datum price: %w", err)
	}
	if price.Sign() < 0 {
		return OrderDatum{}, fmt.Errorf("order datum price is negative: %s", price)
	}
	dest, err := AddressFromData(c.Fields[2], network)
	if err != nil {
		return OrderDatum{}, fmt.Errorf("order datum destination: %w", err)
	}

	od := OrderDatum{Price: price, Destination: dest}
	copy(od.Owner[:], owner)
	return od, nil
}

// MintingData is the datum of the minting-data input: Constr 0 [root].
// The root commits to every name minted so far.
type MintingData struct {
	Root types.Hash
}

// ToData encodes the minting data datum.
func (m MintingData) ToData() Data {
	return NewConstr(0, Bytes(m.Root[:]))
}

// DecodeMintingData decodes a minting data datum.
func DecodeMintingData(d Data) (MintingData, error) {
	c, err := AsConstr(d, 0, 1)
	if err != nil {
		return MintingData{}, fmt.Errorf("minting data: %w", err)
	}
	root, err := AsBytes(c.Fields[0])
	if err != nil {
		return MintingData{}, fmt.Errorf("minting data root: %w", err)
	}
	if len(root) != types.HashSize {
		return MintingData{}, fmt.Errorf("minting data root must be %d bytes, got %d", types.HashSize, len(root))
	}
	var md MintingData
	copy(md.Root[:], root)
	return md, nil
}

// CIP68Datum builds a reference token datum: Constr 0 [metadata, version, extra].
// Metadata keys and values are UTF-8 byte strings, kept in the given order.
func CIP68Datum(metadata []Pair, version int64, extra Data) Data {
	if extra == nil {
		extra = Void()
	}
	return NewConstr(0, Map(metadata), NewInt(version), extra)
}

// TextPair is a convenience for CIP-68 metadata entries.
func TextPair(key, value string) Pair {
	return Pair{Key: Bytes(key), Value: Bytes(value)}
}
