package types

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Bech32Encode encodes raw bytes under hrp. Shelley addresses are longer
// than the BIP-173 90 character limit, so no limit is applied.
func Bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("bech32: empty HRP")
	}
	s, err := bech32.EncodeFromBase256(hrp, data)
	if err != nil {
		return "", fmt.Errorf("bech32: %w", err)
	}
	return s, nil
}

// Bech32Decode decodes s into its human-readable part and raw bytes.
func Bech32Decode(s string) (string, []byte, error) {
	hrp, groups, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: %w", err)
	}
	data, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("bech32: convert bits: %w", err)
	}
	return hrp, data, nil
}
