package mint

import (
	"context"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/registry"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// OrderedAsset is a requested name with what its order pays.
type OrderedAsset struct {
	Name        string
	Destination types.Address
	Price       *big.Int
}

// PrepareParams describes the batch a Preparer seeds a builder for.
type PrepareParams struct {
	Network types.Network
	Assets  []OrderedAsset
	Scripts config.DeployedScripts
}

// Prepared is a builder seeded with everything a fulfillment needs besides
// the orders themselves: the minting-data spend and its output at index 0,
// collateral and the change address.
type Prepared struct {
	Builder    *tx.Builder
	Settings   config.Settings
	TotalPrice *big.Int
	// Staged is the registry update the transaction commits to, if the
	// preparer tracks one.
	Staged *registry.Staged
}

// Preparer seeds a transaction for a batch of names.
type Preparer interface {
	Prepare(ctx context.Context, p PrepareParams) (*Prepared, error)
}
