package params

import (
	"fmt"

	"github.com/koralabs/hal-minting-contracts/config"
)

// FromConfig builds the provider selected by cfg. A positive cache TTL
// wraps it in a Cached provider.
func FromConfig(cfg config.ParamsConfig) (Provider, error) {
	var p Provider
	switch cfg.Source {
	case config.ParamsStatic:
		p = NewStatic(&Network{
			CoinsPerUTxOByte: cfg.CoinsPerUTxOByte,
			MinFeeA:          cfg.MinFeeA,
			MinFeeB:          cfg.MinFeeB,
		})
	case config.ParamsHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("params: http source without url")
		}
		p = NewHTTP(cfg.URL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("params: unknown source %q", cfg.Source)
	}
	if cfg.CacheTTL > 0 {
		p = NewCached(p, cfg.CacheTTL)
	}
	return p, nil
}
