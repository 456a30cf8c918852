// Package prepare seeds fulfillment transactions: it stages the registry
// update for the batch, spends the minting-data output and re-creates it
// with the new root, picks collateral from the operator wallet and totals
// what the orders pay.
package prepare

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/internal/mint"
	"github.com/koralabs/hal-minting-contracts/internal/registry"
	"github.com/koralabs/hal-minting-contracts/internal/utxo"
	"github.com/koralabs/hal-minting-contracts/internal/wallet"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Preparation errors.
var (
	ErrNoMintingData        = errors.New("minting data output not found")
	ErrAmbiguousMintingData = errors.New("more than one minting data output")
	ErrRootMismatch         = errors.New("minting data root does not match registry")
	ErrInvalidPrice         = errors.New("invalid order price")
)

// Collateral defaults.
const (
	DefaultCollateral   = 5_000_000
	maxCollateralInputs = 3
)

// UTxOIndex finds UTxOs by address.
type UTxOIndex interface {
	GetByAddress(addr types.Address) ([]*utxo.UTXO, error)
}

// Preparer implements mint.Preparer on the local registry and UTxO state.
type Preparer struct {
	Registry *registry.Registry
	UTxOs    UTxOIndex
	Wallet   types.Address
	Settings config.Settings
	// Collateral is the lovelace to lock as collateral; nil means
	// DefaultCollateral.
	Collateral *big.Int
}

// New returns a preparer for cfg.
func New(cfg *config.Config, reg *registry.Registry, utxos UTxOIndex) (*Preparer, error) {
	addr, err := cfg.WalletAddress()
	if err != nil {
		return nil, fmt.Errorf("wallet address: %w", err)
	}
	return &Preparer{
		Registry: reg,
		UTxOs:    utxos,
		Wallet:   addr,
		Settings: cfg.Settings,
	}, nil
}

// Prepare implements mint.Preparer. Output 0 of the returned builder is the
// re-created minting-data output. The registry itself is not changed.
func (p *Preparer) Prepare(ctx context.Context, params mint.PrepareParams) (*mint.Prepared, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(params.Assets))
	total := new(big.Int)
	for i, a := range params.Assets {
		if a.Price == nil || a.Price.Sign() < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, a.Name)
		}
		names[i] = a.Name
		total.Add(total, a.Price)
	}

	staged, err := p.Registry.Stage(names)
	if err != nil {
		return nil, fmt.Errorf("stage names: %w", err)
	}

	md, datum, err := p.mintingData(params.Network, params.Scripts.MintingData)
	if err != nil {
		return nil, err
	}
	if datum.Root != staged.OldRoot {
		return nil, fmt.Errorf("%w: on chain %s, registry %s", ErrRootMismatch, datum.Root, staged.OldRoot)
	}

	collateral, err := p.selectCollateral()
	if err != nil {
		return nil, err
	}

	b := tx.NewBuilder()
	b.AddScriptInput(md.TxInput(), plutus.MintingDataMint(names))
	b.AddOutput(tx.NewOutput(md.Output.Address, md.Output.Value, plutus.MintingData{Root: staged.NewRoot}.ToData()))
	for _, c := range collateral.Inputs {
		b.AddCollateral(c.Outpoint)
	}
	b.SetChangeAddress(p.Wallet)

	log.Prepare.Debug().
		Int("names", len(names)).
		Str("old_root", staged.OldRoot.String()).
		Str("new_root", staged.NewRoot.String()).
		Str("minting_data", md.Outpoint.String()).
		Msg("Prepared fulfillment")

	return &mint.Prepared{
		Builder:    b,
		Settings:   p.Settings,
		TotalPrice: total,
		Staged:     staged,
	}, nil
}

// mintingData finds the single output at the minting data script address
// carrying a minting data datum.
func (p *Preparer) mintingData(network types.Network, script config.ScriptDetails) (*utxo.UTXO, plutus.MintingData, error) {
	utxos, err := p.UTxOs.GetByAddress(script.Address(network))
	if err != nil {
		return nil, plutus.MintingData{}, fmt.Errorf("minting data lookup: %w", err)
	}

	var (
		found *utxo.UTXO
		datum plutus.MintingData
	)
	for _, u := range utxos {
		if u.Output.Datum == nil {
			continue
		}
		d, err := plutus.DecodeMintingData(u.Output.Datum)
		if err != nil {
			continue
		}
		if found != nil {
			return nil, plutus.MintingData{}, fmt.Errorf("%w: %s and %s", ErrAmbiguousMintingData, found.Outpoint, u.Outpoint)
		}
		found, datum = u, d
	}
	if found == nil {
		return nil, plutus.MintingData{}, ErrNoMintingData
	}
	return found, datum, nil
}

func (p *Preparer) selectCollateral() (*wallet.CoinSelection, error) {
	utxos, err := p.UTxOs.GetByAddress(p.Wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet lookup: %w", err)
	}
	target := p.Collateral
	if target == nil {
		target = big.NewInt(DefaultCollateral)
	}
	sel, err := wallet.SelectCoins(wallet.AdaOnly(utxos), target, maxCollateralInputs)
	if err != nil {
		return nil, fmt.Errorf("select collateral: %w", err)
	}
	return sel, nil
}
