// Package mint assembles the transaction that fulfills a batch of HAL
// registration orders: it mints the CIP-68 token pair for every name, burns
// the order tokens, spends the order inputs and pays the collected price,
// less the minted outputs and the fee reserve, to the protocol.
package mint

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/internal/order"
	"github.com/koralabs/hal-minting-contracts/internal/params"
	"github.com/koralabs/hal-minting-contracts/internal/token"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Assembler builds fulfillment transactions. Its collaborators are fixed
// for its lifetime; each Assemble call owns its own builder.
type Assembler struct {
	Params   params.Provider
	Preparer Preparer
	Decoder  order.Decoder
	Verifier order.Verifier

	Scripts        config.DeployedScripts
	OrderTokenName types.AssetName
	ReservedFee    *big.Int
	// Signers is the number of key witnesses assumed for the fee estimate.
	Signers int
}

// New builds an Assembler from configuration.
func New(cfg *config.Config, provider params.Provider, preparer Preparer, verifier order.Verifier) *Assembler {
	return &Assembler{
		Params:         provider,
		Preparer:       preparer,
		Decoder:        order.PlutusDecoder{},
		Verifier:       verifier,
		Scripts:        cfg.Scripts,
		OrderTokenName: cfg.Orders.TokenName,
		ReservedFee:    new(big.Int).Set(cfg.Fee.Reserved),
		Signers:        cfg.Fee.Signers,
	}
}

// Result is an assembled, unsigned fulfillment.
type Result struct {
	BatchID    string
	Builder    *tx.Builder
	Prepared   *Prepared
	Orders     []order.Order
	Identities []token.Identity

	TotalPrice       *big.Int
	TotalMinLovelace *big.Int
	Settlement       *big.Int
	EstimatedFee     *big.Int
}

// Assemble fulfills orders on network. Orders are processed in the ledger's
// input order. Every fallible step runs before the prepared builder is
// touched, so on error the builder is left as the preparer returned it.
func (a *Assembler) Assemble(ctx context.Context, network types.Network, orders []order.Order) (*Result, error) {
	if len(orders) == 0 {
		return nil, ErrEmptyBatch
	}

	batchID := uuid.NewString()
	logger := log.Mint.With().Str("batch", batchID).Str("network", network.String()).Logger()
	start := time.Now()

	sorted, err := order.Normalize(orders)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrderInput, err)
	}
	logger.Info().Int("orders", len(sorted)).Msg("Assembling fulfillment")

	details, err := a.decode(network, sorted)
	if err != nil {
		return nil, err
	}

	netParams, err := a.Params.Fetch(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("%w: network parameters: %w", ErrUpstreamFetch, err)
	}
	if err := netParams.Validate(); err != nil {
		return nil, fmt.Errorf("%w: network parameters: %w", ErrUpstreamFetch, err)
	}

	prepared, err := a.prepare(ctx, network, sorted, details)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("total_price", prepared.TotalPrice.String()).
		Int("seed_outputs", prepared.Builder.OutputCount()).
		Msg("Transaction prepared")

	policy := a.Scripts.MintProxy.PolicyID()
	identities := make([]token.Identity, len(sorted))
	for i, o := range sorted {
		id, err := token.DeriveIdentity(policy, o.Name)
		if err != nil {
			return nil, orderError(o, err)
		}
		if err := a.Verifier.Verify(ctx, network, o.Input, a.Scripts.OrdersSpend); err != nil {
			return nil, orderError(o, err)
		}
		identities[i] = id
	}
	if err := token.CheckUnique(identities); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrderInput, err)
	}

	acct := newAccountant(netParams.CoinsPerUTxOByte)
	records := make([]*handleRecord, len(sorted))
	for i, o := range sorted {
		if o.Datum == nil {
			return nil, orderError(o, fmt.Errorf("missing reference datum"))
		}
		rec, err := acct.record(o.Input, identities[i], prepared.Settings.RefSpendAddress, details[i].Destination, o.Datum)
		if err != nil {
			return nil, orderError(o, err)
		}
		records[i] = rec
	}

	settlement, err := SettlementAmount(prepared.TotalPrice, acct.Total(), a.ReservedFee)
	if err != nil {
		return nil, err
	}

	if err := a.checkBuilder(prepared.Builder); err != nil {
		return nil, err
	}

	if err := a.apply(prepared.Builder, prepared.Settings, records, settlement); err != nil {
		return nil, err
	}

	fee := a.estimateFee(logger, prepared.Builder, netParams)

	logger.Info().
		Int("minted", 2*len(records)).
		Str("settlement", FormatADA(settlement)).
		Str("min_lovelace", FormatADA(acct.Total())).
		Dur("took", time.Since(start)).
		Msg("Fulfillment assembled")

	return &Result{
		BatchID:          batchID,
		Builder:          prepared.Builder,
		Prepared:         prepared,
		Orders:           sorted,
		Identities:       identities,
		TotalPrice:       new(big.Int).Set(prepared.TotalPrice),
		TotalMinLovelace: acct.Total(),
		Settlement:       settlement,
		EstimatedFee:     fee,
	}, nil
}

func orderError(o order.Order, err error) error {
	return fmt.Errorf("%w: %s (%q): %w", ErrInvalidOrderInput, o.Input.Outpoint, o.Name, err)
}

func (a *Assembler) decode(network types.Network, orders []order.Order) ([]order.Details, error) {
	decoder := a.Decoder
	if decoder == nil {
		decoder = order.PlutusDecoder{}
	}
	details := make([]order.Details, len(orders))
	for i, o := range orders {
		d, err := decoder.Decode(o.Input.Output.Datum, network)
		if err != nil {
			return nil, orderError(o, err)
		}
		details[i] = d
	}
	return details, nil
}

func (a *Assembler) prepare(ctx context.Context, network types.Network, orders []order.Order, details []order.Details) (*Prepared, error) {
	assets := make([]OrderedAsset, len(orders))
	for i, o := range orders {
		assets[i] = OrderedAsset{
			Name:        o.Name,
			Destination: details[i].Destination,
			Price:       details[i].Price,
		}
	}

	prepared, err := a.Preparer.Prepare(ctx, PrepareParams{
		Network: network,
		Assets:  assets,
		Scripts: a.Scripts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: prepare transaction: %w", ErrUpstreamFetch, err)
	}
	if prepared == nil || prepared.Builder == nil || prepared.TotalPrice == nil {
		return nil, fmt.Errorf("%w: prepare transaction: incomplete result", ErrUpstreamFetch)
	}
	return prepared, nil
}

// checkBuilder rejects prepared builders the batch cannot be applied to.
func (a *Assembler) checkBuilder(b *tx.Builder) error {
	if b.OutputCount() == 0 {
		return fmt.Errorf("%w: prepared transaction has no first output", ErrUpstreamFetch)
	}
	for _, p := range []types.PolicyID{a.Scripts.MintProxy.PolicyID(), a.Scripts.OrdersMint.PolicyID()} {
		if b.Minting(p) {
			return fmt.Errorf("%w: prepared transaction already mints under %s", ErrUpstreamFetch, p)
		}
	}
	return nil
}

// apply writes the batch into the builder. The outputs go in first so a
// failed insert leaves the builder untouched.
func (a *Assembler) apply(b *tx.Builder, settings config.Settings, records []*handleRecord, settlement *big.Int) error {
	outs := make([]tx.Output, 0, 1+2*len(records))
	outs = append(outs, settlementOutput(settings.PaymentAddress, settlement))
	for _, r := range records {
		outs = append(outs, r.refOutput, r.userOutput)
	}
	if err := b.InsertOutputs(1, outs...); err != nil {
		return fmt.Errorf("%w: insert outputs: %w", ErrUpstreamFetch, err)
	}

	handles := make(map[string]*big.Int, 2*len(records))
	for _, r := range records {
		handles[string(r.identity.Reference.Name)] = big.NewInt(1)
		handles[string(r.identity.User.Name)] = big.NewInt(1)
	}
	b.MintPolicyTokens(a.Scripts.MintProxy.PolicyID(), handles, plutus.Void())

	burn := map[string]*big.Int{string(a.OrderTokenName): big.NewInt(-int64(len(records)))}
	b.MintPolicyTokens(a.Scripts.OrdersMint.PolicyID(), burn, plutus.OrdersMintExecuteOrders())

	for _, r := range records {
		b.AddScriptInput(r.input, plutus.OrdersSpendExecuteOrders())
	}
	for _, ref := range a.Scripts.RefScripts() {
		b.AddReferenceInput(ref)
	}
	return nil
}

// estimateFee sets the linear fee estimate on the builder and warns when it
// exceeds the reserve. Estimation problems are logged, not returned.
func (a *Assembler) estimateFee(logger zerolog.Logger, b *tx.Builder, p *params.Network) *big.Int {
	built, err := b.Build()
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot build transaction for fee estimate")
		return nil
	}
	fee, err := tx.MinFee(built, p.FeeParams(), a.Signers)
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot estimate fee")
		return nil
	}
	b.SetFee(fee)

	if fee.Cmp(a.ReservedFee) > 0 {
		logger.Warn().
			Str("estimate", FormatADA(fee)).
			Str("reserved", FormatADA(a.ReservedFee)).
			Msg("Estimated fee exceeds reserve")
	}
	if err := built.CheckMinLovelace(p.CoinsPerUTxOByte); err != nil {
		logger.Warn().Err(err).Msg("Transaction has an output below its minimum")
	}
	return fee
}
