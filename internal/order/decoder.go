package order

import (
	"fmt"

	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Decoder extracts order details from an order input's datum.
type Decoder interface {
	Decode(datum plutus.Data, network types.Network) (Details, error)
}

// PlutusDecoder decodes the on-chain OrderDatum layout.
type PlutusDecoder struct{}

// Decode implements Decoder.
func (PlutusDecoder) Decode(datum plutus.Data, network types.Network) (Details, error) {
	if datum == nil {
		return Details{}, fmt.Errorf("%w: missing inline datum", ErrInvalidOrderDatum)
	}
	od, err := plutus.DecodeOrderDatum(datum, network)
	if err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrInvalidOrderDatum, err)
	}
	return Details{Destination: od.Destination, Price: od.Price, Owner: od.Owner}, nil
}
