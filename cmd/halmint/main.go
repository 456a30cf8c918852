// halmint assembles HAL registration-order fulfillment transactions.
//
// Usage:
//
//	halmint [global flags] mint --orders orders.json [--commit]
//	halmint derive <name>
//	halmint registry list|root|proof <name>
//	halmint utxo import <file.json> | utxo list [--address addr]
//	halmint init-config
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "network",
		Value: string(types.Preprod),
		Usage: "network to build for: mainnet, preprod or preview",
	},
	&cli.StringFlag{
		Name:  "datadir",
		Value: config.DefaultDataDir(),
		Usage: "data directory holding the config file and local state",
	},
	&cli.StringFlag{
		Name:  "config",
		Usage: "config file (default <datadir>/halmint.conf)",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "log level: debug, info, warn, error",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Usage: "log in JSON format (default when stderr is not a terminal)",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "halmint",
		Usage: "Assemble HAL handle minting transactions from pending orders",
		Flags: flags,
		Commands: []*cli.Command{
			mintCommand,
			deriveCommand,
			registryCommand,
			utxoCommand,
			initConfigCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration: network defaults, then the config
// file (if present), then command-line flags. Logging is initialized from
// the result.
func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	network, err := types.ParseNetwork(strings.ToLower(cCtx.String("network")))
	if err != nil {
		return nil, err
	}
	cfg := config.Default(network)
	cfg.DataDir = cCtx.String("datadir")

	path := cCtx.String("config")
	if path == "" {
		path = cfg.ConfigFile()
	}
	if cCtx.IsSet("config") {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	values, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// Explicit flags win over the file.
	if cCtx.IsSet("network") {
		cfg.Network = network
	}
	if cCtx.IsSet("datadir") {
		cfg.DataDir = cCtx.String("datadir")
	}
	if cCtx.IsSet("log-level") {
		cfg.Log.Level = cCtx.String("log-level")
	}
	jsonLogs := cfg.Log.JSON || !term.IsTerminal(int(os.Stderr.Fd()))
	if cCtx.IsSet("log-json") {
		jsonLogs = cCtx.Bool("log-json")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := log.Init(log.Options{Level: cfg.Log.Level, JSON: jsonLogs, File: cfg.Log.File}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	log.Debug().
		Str("network", cfg.Network.String()).
		Str("datadir", cfg.DataDir).
		Str("params", cfg.Params.Source).
		Msg("Config loaded")
	return cfg, nil
}
