package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Defaults shared by every network.
const (
	// DefaultReservedFee is withheld from the collected price for the fee.
	DefaultReservedFee = 2_000_000
	// DefaultOrderTokenName is the asset name of order-proof tokens.
	DefaultOrderTokenName = "HAL_ORDER"
	// DefaultParamsURL serves live network parameters; %s is the network.
	DefaultParamsURL = "https://network-status.helios-lang.io/%s/config"

	DefaultParamsTimeout  = 10 * time.Second
	DefaultParamsCacheTTL = 5 * time.Minute

	defaultCoinsPerUTxOByte = 4310
	defaultMinFeeA          = 44
	defaultMinFeeB          = 155381
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return defaultFor(types.Mainnet)
}

// DefaultPreprod returns the default configuration for the preprod testnet.
func DefaultPreprod() *Config {
	return defaultFor(types.Preprod)
}

// DefaultPreview returns the default configuration for the preview testnet.
func DefaultPreview() *Config {
	return defaultFor(types.Preview)
}

// Default returns the default configuration for the given network.
func Default(network types.Network) *Config {
	switch network {
	case types.Preprod:
		return DefaultPreprod()
	case types.Preview:
		return DefaultPreview()
	default:
		return DefaultMainnet()
	}
}

func defaultFor(network types.Network) *Config {
	return &Config{
		Network: network,
		DataDir: DefaultDataDir(),
		Orders: OrdersConfig{
			TokenName: types.AssetName(DefaultOrderTokenName),
		},
		Fee: FeeConfig{
			Reserved: big.NewInt(DefaultReservedFee),
			Signers:  1,
		},
		Params: ParamsConfig{
			Source:           ParamsHTTP,
			URL:              fmt.Sprintf(DefaultParamsURL, network),
			Timeout:          DefaultParamsTimeout,
			CacheTTL:         DefaultParamsCacheTTL,
			CoinsPerUTxOByte: big.NewInt(defaultCoinsPerUTxOByte),
			MinFeeA:          big.NewInt(defaultMinFeeA),
			MinFeeB:          big.NewInt(defaultMinFeeB),
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
