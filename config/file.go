package config

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
// The network key is applied first so per-network values see it.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	if v, ok := values["network"]; ok {
		if err := setConfigValue(cfg, "network", v); err != nil {
			return fmt.Errorf("config key %q: %w", "network", err)
		}
	}
	for key, value := range values {
		if key == "network" {
			continue
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	if name, field, ok := scriptKey(key); ok {
		return setScriptValue(cfg, name, field, value)
	}

	switch key {
	// Core
	case "network":
		n, err := types.ParseNetwork(value)
		if err != nil {
			return err
		}
		cfg.Network = n
	case "datadir":
		cfg.DataDir = value

	// Settings
	case "settings.ref_spend_address":
		addr, err := types.ParseAddress(value)
		if err != nil {
			return err
		}
		cfg.Settings.RefSpendAddress = addr
	case "settings.payment_address":
		addr, err := types.ParseAddress(value)
		if err != nil {
			return err
		}
		cfg.Settings.PaymentAddress = addr

	// Orders
	case "orders.token_name":
		name, err := types.HexToAssetName(value)
		if err != nil {
			return err
		}
		cfg.Orders.TokenName = name

	// Fee
	case "fee.reserved":
		n, err := parseAmount(value)
		if err != nil {
			return err
		}
		cfg.Fee.Reserved = n
	case "fee.signers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Fee.Signers = n

	// Params
	case "params.source":
		cfg.Params.Source = strings.ToLower(value)
	case "params.url":
		cfg.Params.URL = value
	case "params.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Params.Timeout = d
	case "params.cache_ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Params.CacheTTL = d
	case "params.coins_per_utxo_byte":
		n, err := parseAmount(value)
		if err != nil {
			return err
		}
		cfg.Params.CoinsPerUTxOByte = n
	case "params.min_fee_a":
		n, err := parseAmount(value)
		if err != nil {
			return err
		}
		cfg.Params.MinFeeA = n
	case "params.min_fee_b":
		n, err := parseAmount(value)
		if err != nil {
			return err
		}
		cfg.Params.MinFeeB = n

	// Wallet
	case "wallet.address":
		cfg.Wallet.Address = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// scriptKey splits "scripts.<name>.<field>".
func scriptKey(key string) (name, field string, ok bool) {
	rest, found := strings.CutPrefix(key, "scripts.")
	if !found {
		return "", "", false
	}
	return strings.Cut(rest, ".")
}

func setScriptValue(cfg *Config, name, field, value string) error {
	var s *ScriptDetails
	switch name {
	case "mint_proxy":
		s = &cfg.Scripts.MintProxy
	case "minting_data":
		s = &cfg.Scripts.MintingData
	case "orders_spend":
		s = &cfg.Scripts.OrdersSpend
	case "orders_mint":
		s = &cfg.Scripts.OrdersMint
	default:
		return fmt.Errorf("unknown script %q", name)
	}

	switch field {
	case "hash":
		h, err := types.HexToScriptHash(value)
		if err != nil {
			return err
		}
		s.ValidatorHash = h
	case "ref":
		if value == "" {
			s.RefScript = nil
			return nil
		}
		op, err := types.ParseOutpoint(value)
		if err != nil {
			return err
		}
		s.RefScript = &op
	default:
		return fmt.Errorf("unknown script field %q", field)
	}
	return nil
}

// parseAmount parses a non-negative integer amount, allowing _ separators.
func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", s)
	}
	return n, nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network types.Network) error {
	cfg := Default(network)
	content := `# halmint configuration
#
# Deployment values (script hashes, protocol addresses) must match the
# contracts deployed on the selected network.

# Network: mainnet, preprod or preview
network = ` + string(network) + `

# Data directory (default: ~/.halmint)
# datadir = ~/.halmint

# ============================================================================
# Deployed scripts (hash = 28-byte hex, ref = txid#index of reference script)
# ============================================================================

# scripts.mint_proxy.hash =
# scripts.mint_proxy.ref =
# scripts.minting_data.hash =
# scripts.minting_data.ref =
# scripts.orders_spend.hash =
# scripts.orders_spend.ref =
# scripts.orders_mint.hash =
# scripts.orders_mint.ref =

# ============================================================================
# Protocol settings
# ============================================================================

# settings.ref_spend_address =
# settings.payment_address =

# Order-proof token asset name (hex)
orders.token_name = ` + cfg.Orders.TokenName.Hex() + `

# ============================================================================
# Fees
# ============================================================================

# Lovelace withheld from the settlement to cover the transaction fee
fee.reserved = ` + cfg.Fee.Reserved.String() + `
fee.signers = ` + strconv.Itoa(cfg.Fee.Signers) + `

# ============================================================================
# Network parameters
# ============================================================================

# Source: http or static
params.source = ` + cfg.Params.Source + `
params.url = ` + cfg.Params.URL + `
params.timeout = ` + cfg.Params.Timeout.String() + `
params.cache_ttl = ` + cfg.Params.CacheTTL.String() + `

# Used when params.source = static
params.coins_per_utxo_byte = ` + cfg.Params.CoinsPerUTxOByte.String() + `
params.min_fee_a = ` + cfg.Params.MinFeeA.String() + `
params.min_fee_b = ` + cfg.Params.MinFeeB.String() + `

# ============================================================================
# Operator wallet (collateral and change)
# ============================================================================

# wallet.address =

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
