package order

import (
	"encoding/json"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

var (
	ordersScript = config.ScriptDetails{ValidatorHash: types.ScriptHash{0x0a}}
	orderToken   = types.AssetClass{Policy: types.PolicyID{0x0b}, Name: types.AssetName("HAL_ORDER")}
	buyer        = types.NewKeyAddress(types.TestnetID, types.ScriptHash{0x0c}, nil)
)

func orderDatum(price int64) plutus.Data {
	return plutus.OrderDatum{
		Owner:       types.ScriptHash{0x0d},
		Price:       big.NewInt(price),
		Destination: buyer,
	}.ToData()
}

func testOrder(txid byte, index uint32, name string) Order {
	value := types.Lovelace(5_000_000).WithAsset(orderToken, big.NewInt(1))
	return Order{
		Input: tx.TxInput{
			Outpoint: types.Outpoint{TxID: types.Hash{txid}, Index: index},
			Output:   tx.NewOutput(ordersScript.Address(types.Preprod), value, orderDatum(5_000_000)),
		},
		Name:  name,
		Datum: plutus.CIP68Datum([]plutus.Pair{plutus.TextPair("name", name)}, 1, nil),
	}
}

func TestNormalize_CanonicalOrder(t *testing.T) {
	orders := []Order{
		testOrder(0x02, 0, "c"),
		testOrder(0x01, 10, "b"),
		testOrder(0x01, 2, "a"),
	}

	got, err := Normalize(orders)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, o := range got {
		if o.Name != want[i] {
			t.Errorf("position %d = %q, want %q", i, o.Name, want[i])
		}
	}
	// Input slice untouched.
	if orders[0].Name != "c" {
		t.Error("Normalize() modified its input")
	}
}

func TestNormalize_MatchesBuiltInputOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(12)
		orders := make([]Order, 0, n)
		seen := make(map[types.Outpoint]bool)
		for len(orders) < n {
			o := testOrder(byte(rng.Intn(4)), uint32(rng.Intn(300)), "")
			if seen[o.Input.Outpoint] {
				continue
			}
			seen[o.Input.Outpoint] = true
			orders = append(orders, o)
		}

		got, err := Normalize(orders)
		if err != nil {
			t.Fatalf("round %d: Normalize() error: %v", round, err)
		}

		b := tx.NewBuilder()
		for _, o := range orders {
			b.AddScriptInput(o.Input, plutus.OrdersSpendExecuteOrders())
		}
		built, err := b.Build()
		if err != nil {
			t.Fatalf("round %d: Build() error: %v", round, err)
		}

		for i, op := range Outpoints(got) {
			if built.Inputs[i] != op {
				t.Fatalf("round %d: position %d = %s, ledger order has %s", round, i, op, built.Inputs[i])
			}
		}
	}
}

func TestNormalize_Duplicate(t *testing.T) {
	orders := []Order{testOrder(0x01, 0, "a"), testOrder(0x01, 0, "b")}
	if _, err := Normalize(orders); !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("Normalize() error = %v, want ErrDuplicateOrder", err)
	}
}

func TestNormalize_Empty(t *testing.T) {
	got, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize(nil) error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Normalize(nil) = %v", got)
	}
}

func TestNames(t *testing.T) {
	got := Names([]Order{testOrder(0x01, 0, "x"), testOrder(0x01, 1, "y")})
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Names() = %v", got)
	}
}

func TestOrder_JSON(t *testing.T) {
	o := testOrder(0x03, 1, "alice")
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var got Order
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Name != "alice" || got.Input.Outpoint != o.Input.Outpoint {
		t.Errorf("decoded order = %+v", got)
	}
	if !plutus.Equal(got.Datum, o.Datum) {
		t.Error("datum changed in JSON roundtrip")
	}
	if !plutus.Equal(got.Input.Output.Datum, o.Input.Output.Datum) {
		t.Error("input datum changed in JSON roundtrip")
	}
}

func TestPlutusDecoder(t *testing.T) {
	d, err := PlutusDecoder{}.Decode(orderDatum(3_000_000), types.Preprod)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if d.Price.Int64() != 3_000_000 {
		t.Errorf("Price = %s", d.Price)
	}
	if !d.Destination.Equal(buyer) {
		t.Errorf("Destination = %s", d.Destination)
	}

	for name, datum := range map[string]plutus.Data{
		"nil":   nil,
		"void":  plutus.Void(),
		"bytes": plutus.Bytes("x"),
	} {
		if _, err := (PlutusDecoder{}).Decode(datum, types.Preprod); !errors.Is(err, ErrInvalidOrderDatum) {
			t.Errorf("%s: error = %v, want ErrInvalidOrderDatum", name, err)
		}
	}
}
