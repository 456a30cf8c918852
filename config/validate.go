package config

import (
	"fmt"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := types.ParseNetwork(string(cfg.Network)); err != nil {
		return err
	}
	if cfg.Fee.Reserved == nil || cfg.Fee.Reserved.Sign() < 0 {
		return fmt.Errorf("fee.reserved must be a non-negative amount")
	}
	if cfg.Fee.Signers < 0 {
		return fmt.Errorf("fee.signers must not be negative")
	}
	if len(cfg.Orders.TokenName) == 0 {
		return fmt.Errorf("orders.token_name must be set")
	}

	switch cfg.Params.Source {
	case ParamsHTTP:
		if cfg.Params.URL == "" {
			return fmt.Errorf("params.url is required for params.source=http")
		}
		if cfg.Params.Timeout <= 0 {
			return fmt.Errorf("params.timeout must be positive")
		}
	case ParamsStatic:
		for name, v := range map[string]interface{ Sign() int }{
			"params.coins_per_utxo_byte": cfg.Params.CoinsPerUTxOByte,
			"params.min_fee_a":           cfg.Params.MinFeeA,
			"params.min_fee_b":           cfg.Params.MinFeeB,
		} {
			if v == nil || v.Sign() < 0 {
				return fmt.Errorf("%s must be set for params.source=static", name)
			}
		}
		if cfg.Params.CoinsPerUTxOByte.Sign() == 0 {
			return fmt.Errorf("params.coins_per_utxo_byte must be positive")
		}
	default:
		return fmt.Errorf("params.source must be %q or %q", ParamsHTTP, ParamsStatic)
	}
	if cfg.Params.CacheTTL < 0 {
		return fmt.Errorf("params.cache_ttl must not be negative")
	}

	if cfg.Wallet.Address != "" {
		if _, err := parseNetworkAddress(cfg.Wallet.Address, cfg.Network); err != nil {
			return fmt.Errorf("wallet.address: %w", err)
		}
	}
	return nil
}

// ValidateDeployment checks that everything a fulfillment needs is set and
// belongs to the configured network.
func ValidateDeployment(cfg *Config) error {
	scripts := map[string]ScriptDetails{
		"scripts.mint_proxy":   cfg.Scripts.MintProxy,
		"scripts.minting_data": cfg.Scripts.MintingData,
		"scripts.orders_spend": cfg.Scripts.OrdersSpend,
		"scripts.orders_mint":  cfg.Scripts.OrdersMint,
	}
	for name, s := range scripts {
		if !s.Deployed() {
			return fmt.Errorf("%s.hash must be set", name)
		}
	}

	for name, addr := range map[string]types.Address{
		"settings.ref_spend_address": cfg.Settings.RefSpendAddress,
		"settings.payment_address":   cfg.Settings.PaymentAddress,
	} {
		if addr.IsZero() {
			return fmt.Errorf("%s must be set", name)
		}
		if addr.NetworkID != cfg.Network.ID() {
			return fmt.Errorf("%s belongs to network id %d, not %s", name, addr.NetworkID, cfg.Network)
		}
	}
	if cfg.Wallet.Address == "" {
		return fmt.Errorf("wallet.address must be set")
	}
	return nil
}

// WalletAddress parses the configured operator address.
func (c *Config) WalletAddress() (types.Address, error) {
	return parseNetworkAddress(c.Wallet.Address, c.Network)
}

func parseNetworkAddress(s string, network types.Network) (types.Address, error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, err
	}
	if addr.NetworkID != network.ID() {
		return types.Address{}, fmt.Errorf("address %s is not a %s address", s, network)
	}
	return addr, nil
}
