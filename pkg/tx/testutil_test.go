package tx

import (
	"math/big"
	"testing"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

func testAddress(b byte) types.Address {
	return types.NewKeyAddress(types.TestnetID, types.ScriptHash{b}, nil)
}

func testScriptAddress(b byte) types.Address {
	return types.NewScriptAddress(types.TestnetID, types.ScriptHash{b})
}

func testInput(txid byte, index uint32, lovelace int64) TxInput {
	return TxInput{
		Outpoint: types.Outpoint{TxID: types.Hash{txid}, Index: index},
		Output:   NewOutput(testAddress(0xaa), types.Lovelace(lovelace), nil),
	}
}

func testClass(t *testing.T, policy byte, hexName string) types.AssetClass {
	t.Helper()
	c, err := types.NewAssetClass(types.PolicyID{policy}, hexName)
	if err != nil {
		t.Fatalf("asset class: %v", err)
	}
	return c
}

func one() *big.Int { return big.NewInt(1) }
