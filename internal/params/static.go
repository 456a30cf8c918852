package params

import (
	"context"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Static serves fixed parameters regardless of network.
type Static struct {
	params *Network
}

// NewStatic returns a provider for p.
func NewStatic(p *Network) *Static {
	return &Static{params: p.Clone()}
}

// Fetch implements Provider.
func (s *Static) Fetch(ctx context.Context, _ types.Network) (*Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	return s.params.Clone(), nil
}
