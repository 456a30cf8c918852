// Package config handles halmint configuration.
//
// Configuration is split into two categories:
//   - Deployment: script hashes and protocol addresses, fixed per network
//     once the contracts are deployed
//   - Operator settings: data directory, fee reserve, parameter source,
//     logging; can vary per operator
package config

import (
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Config holds the full runtime configuration.
type Config struct {
	// Core
	Network types.Network `conf:"network"`
	DataDir string        `conf:"datadir"`

	// Deployed contracts
	Scripts DeployedScripts

	// Protocol settings
	Settings Settings

	// Order token
	Orders OrdersConfig

	// Fee reserve
	Fee FeeConfig

	// Network parameters source
	Params ParamsConfig

	// Operator wallet
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// Settings are the protocol addresses a fulfillment pays into.
type Settings struct {
	// RefSpendAddress receives the reference tokens with their datums.
	RefSpendAddress types.Address `conf:"settings.ref_spend_address"`
	// PaymentAddress receives the settlement output.
	PaymentAddress types.Address `conf:"settings.payment_address"`
}

// OrdersConfig identifies the order-proof token.
type OrdersConfig struct {
	// TokenName is the raw asset name of the order token under the
	// orders-mint policy.
	TokenName types.AssetName `conf:"orders.token_name"`
}

// FeeConfig controls the fee reserved out of collected payments.
type FeeConfig struct {
	// Reserved is withheld from the settlement to cover the fee.
	Reserved *big.Int `conf:"fee.reserved"`
	// Signers is the number of key witnesses assumed when estimating fees.
	Signers int `conf:"fee.signers"`
}

// Parameter sources.
const (
	ParamsStatic = "static"
	ParamsHTTP   = "http"
)

// ParamsConfig selects where network parameters come from.
type ParamsConfig struct {
	Source   string        `conf:"params.source"`
	URL      string        `conf:"params.url"`
	Timeout  time.Duration `conf:"params.timeout"`
	CacheTTL time.Duration `conf:"params.cache_ttl"`

	// Static values, used when Source is "static".
	CoinsPerUTxOByte *big.Int `conf:"params.coins_per_utxo_byte"`
	MinFeeA          *big.Int `conf:"params.min_fee_a"`
	MinFeeB          *big.Int `conf:"params.min_fee_b"`
}

// WalletConfig holds the operator's wallet address, used for collateral
// selection and as the change address.
type WalletConfig struct {
	Address string `conf:"wallet.address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.halmint
//	macOS:   ~/Library/Application Support/Halmint
//	Windows: %APPDATA%\Halmint
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".halmint"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Halmint")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Halmint")
		}
		return filepath.Join(home, "AppData", "Roaming", "Halmint")
	default:
		return filepath.Join(home, ".halmint")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the database directory holding the registry and UTxOs.
func (c *Config) StateDir() string {
	return filepath.Join(c.NetworkDataDir(), "state")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "halmint.conf")
}

// OrderToken returns the order-proof asset class.
func (c *Config) OrderToken() types.AssetClass {
	return types.AssetClass{Policy: c.Scripts.OrdersMint.PolicyID(), Name: c.Orders.TokenName}
}
