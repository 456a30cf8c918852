package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/internal/mint"
	"github.com/koralabs/hal-minting-contracts/internal/order"
	"github.com/koralabs/hal-minting-contracts/internal/params"
	"github.com/koralabs/hal-minting-contracts/internal/prepare"
	"github.com/koralabs/hal-minting-contracts/internal/registry"
	"github.com/koralabs/hal-minting-contracts/internal/storage"
	"github.com/koralabs/hal-minting-contracts/internal/token"
	"github.com/koralabs/hal-minting-contracts/internal/utxo"
	"github.com/koralabs/hal-minting-contracts/pkg/merkle"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// state is the opened local database.
type state struct {
	db       *storage.BadgerDB
	registry *registry.Registry
	utxos    *utxo.Store
}

func openState(cfg *config.Config) (*state, error) {
	defer log.Benchmark("open state")()

	db, err := storage.NewBadger(cfg.StateDir())
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(storage.NewPrefixDB(db, storage.NamespaceRegistry))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return &state{
		db:       db,
		registry: reg,
		utxos:    utxo.NewStore(storage.NewPrefixDB(db, storage.NamespaceUTxO)),
	}, nil
}

func (s *state) Close() {
	if err := s.db.Close(); err != nil {
		log.Storage.Warn().Err(err).Msg("Failed to close state database")
	}
}

// commit records a built batch: the registry names and the UTxO changes
// go to disk in one badger transaction.
func (s *state) commit(staged *registry.Staged, batchID string, hash types.Hash, t *tx.Transaction) error {
	b := s.db.NewBatch()
	if err := s.utxos.ApplyBatch(b, hash, t); err != nil {
		return fmt.Errorf("apply transaction to utxo state: %w", err)
	}
	if err := s.registry.CommitWith(staged, batchID, b); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// mint
// =============================================================================

var mintCommand = &cli.Command{
	Name:  "mint",
	Usage: "Assemble the fulfillment transaction for a batch of orders",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "orders",
			Required: true,
			Usage:    "JSON file with the orders to fulfill",
		},
		&cli.BoolFlag{
			Name:  "commit",
			Usage: "record the batch in the local registry and UTxO state",
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "do not ask for confirmation before committing",
		},
	},
	Action: runMint,
}

// mintOutput is what the mint command prints.
type mintOutput struct {
	BatchID     string            `json:"batch_id"`
	TxHash      types.Hash        `json:"tx_hash"`
	Transaction *tx.Transaction   `json:"transaction"`
	BodyCBOR    string            `json:"body_cbor"`
	Identities  []token.Identity  `json:"identities"`
	Summary     map[string]string `json:"summary"`
	Committed   bool              `json:"committed"`
}

func readOrders(path string) ([]order.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orders []order.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return orders, nil
}

func runMint(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if err := config.ValidateDeployment(cfg); err != nil {
		return err
	}

	orders, err := readOrders(cCtx.String("orders"))
	if err != nil {
		return err
	}

	st, err := openState(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := params.FromConfig(cfg.Params)
	if err != nil {
		return err
	}
	preparer, err := prepare.New(cfg, st.registry, st.utxos)
	if err != nil {
		return err
	}
	assembler := mint.New(cfg, provider, preparer, order.NewScriptVerifier(st.utxos, cfg.OrderToken()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := assembler.Assemble(ctx, cfg.Network, orders)
	if err != nil {
		return err
	}
	t, err := res.Builder.Build()
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	hash, err := t.Hash()
	if err != nil {
		return err
	}
	body, err := t.BodyHex()
	if err != nil {
		return err
	}
	resolved := make(map[types.Outpoint]tx.Output)
	for _, in := range res.Builder.Inputs() {
		resolved[in.Outpoint] = in.Output
	}
	change := "insufficient"
	if excess, err := t.Excess(resolved); err != nil {
		log.Warn().Err(err).Msg("Inputs do not cover outputs and fee; the balancer must add wallet inputs")
	} else {
		change = mint.FormatADA(excess.Lovelace)
	}

	out := mintOutput{
		BatchID:     res.BatchID,
		TxHash:      hash,
		Transaction: t,
		BodyCBOR:    body,
		Identities:  res.Identities,
		Summary: map[string]string{
			"orders":        fmt.Sprint(len(res.Orders)),
			"total_price":   mint.FormatADA(res.TotalPrice),
			"min_lovelace":  mint.FormatADA(res.TotalMinLovelace),
			"settlement":    mint.FormatADA(res.Settlement),
			"estimated_fee": mint.FormatADA(res.EstimatedFee),
			"reserved_fee":  mint.FormatADA(cfg.Fee.Reserved),
			"change":        change,
		},
	}

	if cCtx.Bool("commit") {
		if !cCtx.Bool("yes") && !confirm(fmt.Sprintf("Commit %d name(s) to the local registry?", len(res.Orders))) {
			return fmt.Errorf("commit cancelled")
		}
		if err := st.commit(res.Prepared.Staged, res.BatchID, hash, t); err != nil {
			return err
		}
		commitment, err := utxo.Commitment(st.utxos)
		if err != nil {
			return err
		}
		log.Info().
			Str("batch", res.BatchID).
			Str("tx", hash.String()).
			Str("registry_root", st.registry.Root().String()).
			Str("utxo_commitment", commitment.String()).
			Msg("Batch committed")
		out.Committed = true
	}
	return printJSON(cCtx.App.Writer, out)
}

// confirm asks a yes/no question on the terminal. Without a terminal it
// answers no.
func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Warn().Msg("No terminal to confirm on; pass --yes to commit non-interactively")
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// =============================================================================
// derive
// =============================================================================

var deriveCommand = &cli.Command{
	Name:      "derive",
	Usage:     "Print the reference and user assets minted for a name",
	ArgsUsage: "<name>...",
	Action: func(cCtx *cli.Context) error {
		if cCtx.NArg() == 0 {
			return fmt.Errorf("usage: halmint derive <name>...")
		}
		cfg, err := loadConfig(cCtx)
		if err != nil {
			return err
		}
		policy := cfg.Scripts.MintProxy.PolicyID()
		ids := make([]token.Identity, 0, cCtx.NArg())
		for _, name := range cCtx.Args().Slice() {
			id, err := token.DeriveIdentity(policy, name)
			if err != nil {
				return fmt.Errorf("%q: %w", name, err)
			}
			ids = append(ids, id)
		}
		return printJSON(cCtx.App.Writer, ids)
	},
}

// =============================================================================
// registry
// =============================================================================

var registryCommand = &cli.Command{
	Name:  "registry",
	Usage: "Inspect the local registry of minted names",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List registered names",
			Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
				recs := make([]*registry.Record, 0, st.registry.Count())
				for _, name := range st.registry.Names() {
					rec, err := st.registry.Get(name)
					if err != nil {
						return err
					}
					recs = append(recs, rec)
				}
				return printJSON(cCtx.App.Writer, recs)
			}),
		},
		{
			Name:  "root",
			Usage: "Print the registry root",
			Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
				return printJSON(cCtx.App.Writer, map[string]interface{}{
					"root":  st.registry.Root(),
					"names": st.registry.Count(),
				})
			}),
		},
		{
			Name:      "proof",
			Usage:     "Print the inclusion proof of a registered name",
			ArgsUsage: "<name>",
			Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
				if cCtx.NArg() != 1 {
					return fmt.Errorf("usage: halmint registry proof <name>")
				}
				name := cCtx.Args().First()
				path, err := st.registry.Proof(name)
				if err != nil {
					return err
				}
				root := st.registry.Root()
				return printJSON(cCtx.App.Writer, map[string]interface{}{
					"name":     name,
					"leaf":     registry.Leaf(name),
					"root":     root,
					"path":     path,
					"verified": merkle.Verify(root, registry.Leaf(name), path),
				})
			}),
		},
	},
}

// =============================================================================
// utxo
// =============================================================================

var utxoCommand = &cli.Command{
	Name:  "utxo",
	Usage: "Manage the local UTxO state",
	Subcommands: []*cli.Command{
		{
			Name:      "import",
			Usage:     "Import UTxOs from a JSON file",
			ArgsUsage: "<file.json>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "replace", Usage: "clear the UTxO state first"},
			},
			Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
				if cCtx.NArg() != 1 {
					return fmt.Errorf("usage: halmint utxo import <file.json>")
				}
				data, err := os.ReadFile(filepath.Clean(cCtx.Args().First()))
				if err != nil {
					return err
				}
				var utxos []*utxo.UTXO
				if err := json.Unmarshal(data, &utxos); err != nil {
					return fmt.Errorf("parse utxos: %w", err)
				}
				if cCtx.Bool("replace") {
					if err := st.utxos.ClearAll(); err != nil {
						return err
					}
				}
				for _, u := range utxos {
					if err := st.utxos.Put(u); err != nil {
						return fmt.Errorf("import %s: %w", u.Outpoint, err)
					}
				}
				log.Storage.Info().Int("utxos", len(utxos)).Msg("UTxOs imported")
				return nil
			}),
		},
		{
			Name:  "list",
			Usage: "List known UTxOs",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "address", Usage: "only UTxOs at this address"},
				&cli.StringFlag{Name: "policy", Usage: "only UTxOs holding assets under this policy id"},
			},
			Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
				var utxos []*utxo.UTXO
				switch {
				case cCtx.IsSet("address"):
					addr, err := types.ParseAddress(cCtx.String("address"))
					if err != nil {
						return err
					}
					if utxos, err = st.utxos.GetByAddress(addr); err != nil {
						return err
					}
				case cCtx.IsSet("policy"):
					hash, err := types.HexToScriptHash(cCtx.String("policy"))
					if err != nil {
						return err
					}
					if utxos, err = st.utxos.GetByPolicy(types.PolicyID(hash)); err != nil {
						return err
					}
				default:
					if err := st.utxos.ForEach(func(u *utxo.UTXO) error {
						utxos = append(utxos, u)
						return nil
					}); err != nil {
						return err
					}
				}

				total := new(big.Int)
				for _, u := range utxos {
					total.Add(total, u.Output.Lovelace())
				}
				log.Storage.Debug().Int("utxos", len(utxos)).Str("total", mint.FormatADA(total)).Msg("UTxOs listed")
				return printJSON(cCtx.App.Writer, utxos)
			}),
		},
		utxoFindCommand,
		utxoCommitmentCommand,
	},
}

var utxoFindCommand = &cli.Command{
	Name:      "find",
	Usage:     "Print the single UTxO holding an asset",
	ArgsUsage: "<policy.name>",
	Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
		if cCtx.NArg() != 1 {
			return fmt.Errorf("usage: halmint utxo find <policy.name>")
		}
		class, err := types.ParseAssetClass(cCtx.Args().First())
		if err != nil {
			return err
		}
		u, err := st.utxos.FindAsset(class)
		if err != nil {
			return err
		}
		return printJSON(cCtx.App.Writer, u)
	}),
}

var utxoCommitmentCommand = &cli.Command{
	Name:  "commitment",
	Usage: "Print the merkle commitment over the UTxO state",
	Action: withState(func(cCtx *cli.Context, _ *config.Config, st *state) error {
		commitment, err := utxo.Commitment(st.utxos)
		if err != nil {
			return err
		}
		return printJSON(cCtx.App.Writer, map[string]interface{}{"commitment": commitment})
	}),
}

// withState loads the config and opens the state database around action.
func withState(action func(*cli.Context, *config.Config, *state) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		cfg, err := loadConfig(cCtx)
		if err != nil {
			return err
		}
		st, err := openState(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return action(cCtx, cfg, st)
	}
}

// =============================================================================
// init-config
// =============================================================================

var initConfigCommand = &cli.Command{
	Name:  "init-config",
	Usage: "Write a default config file for the selected network",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
	},
	Action: func(cCtx *cli.Context) error {
		network, err := types.ParseNetwork(strings.ToLower(cCtx.String("network")))
		if err != nil {
			return err
		}
		cfg := config.Default(network)
		cfg.DataDir = cCtx.String("datadir")
		path := cCtx.String("config")
		if path == "" {
			path = cfg.ConfigFile()
		}
		if _, err := os.Stat(path); err == nil && !cCtx.Bool("force") {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return err
		}
		if err := config.WriteDefaultConfig(path, network); err != nil {
			return err
		}
		log.Info().Str("path", path).Str("network", network.String()).Msg("Wrote default config")
		return nil
	},
}
