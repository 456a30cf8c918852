package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/koralabs/hal-minting-contracts/config"
	"github.com/koralabs/hal-minting-contracts/internal/mint"
	"github.com/koralabs/hal-minting-contracts/internal/order"
	"github.com/koralabs/hal-minting-contracts/internal/utxo"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

func runApp(t *testing.T, dir string, args ...string) error {
	t.Helper()
	_, err := runAppOutput(t, dir, args...)
	return err
}

// runAppOutput runs the CLI and returns what it printed to stdout.
func runAppOutput(t *testing.T, dir string, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	base := []string{"halmint", "--datadir", dir, "--log-level", "disabled"}
	err := app.Run(append(base, args...))
	return out.Bytes(), err
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	if err := runApp(t, dir, "--network", "preview", "init-config"); err != nil {
		t.Fatalf("init-config: %v", err)
	}
	path := filepath.Join(dir, "halmint.conf")
	values, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["network"] != "preview" {
		t.Errorf("network = %q, want preview", values["network"])
	}

	if err := runApp(t, dir, "init-config"); err == nil {
		t.Fatal("expected error when config exists")
	}
	if err := runApp(t, dir, "init-config", "--force"); err != nil {
		t.Fatalf("init-config --force: %v", err)
	}
}

func TestUTxOImport(t *testing.T) {
	dir := t.TempDir()

	var txID types.Hash
	txID[0] = 0xaa
	var key types.ScriptHash
	key[0] = 0x01
	u := &utxo.UTXO{
		Outpoint: types.Outpoint{TxID: txID, Index: 3},
		Output:   tx.NewOutput(types.NewKeyAddress(types.TestnetID, key, nil), types.Lovelace(7_000_000), nil),
	}
	data, err := json.Marshal([]*utxo.UTXO{u})
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "utxos.json")
	if err := os.WriteFile(file, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := runApp(t, dir, "utxo", "import", file); err != nil {
		t.Fatalf("utxo import: %v", err)
	}
	if err := runApp(t, dir, "utxo", "list", "--address", u.Output.Address.String()); err != nil {
		t.Fatalf("utxo list: %v", err)
	}
	if err := runApp(t, dir, "utxo", "commitment"); err != nil {
		t.Fatalf("utxo commitment: %v", err)
	}

	cfg := config.Default(types.Preprod)
	cfg.DataDir = dir
	st, err := openState(cfg)
	if err != nil {
		t.Fatalf("openState: %v", err)
	}
	defer st.Close()
	got, err := st.utxos.Get(u.Outpoint)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Output.Value.Equal(u.Output.Value) {
		t.Fatalf("value = %s, want %s", got.Output.Value, u.Output.Value)
	}
}

func TestRegistryCommandsOnEmptyState(t *testing.T) {
	dir := t.TempDir()
	if err := runApp(t, dir, "registry", "root"); err != nil {
		t.Fatalf("registry root: %v", err)
	}
	if err := runApp(t, dir, "registry", "list"); err != nil {
		t.Fatalf("registry list: %v", err)
	}
	if err := runApp(t, dir, "registry", "proof", "alice"); err == nil {
		t.Fatal("expected error for unregistered name")
	}
}

func TestDerive(t *testing.T) {
	dir := t.TempDir()
	if err := runApp(t, dir, "derive", "alice", "bob"); err != nil {
		t.Fatalf("derive: %v", err)
	}
	if err := runApp(t, dir, "derive"); err == nil {
		t.Fatal("expected usage error")
	}
	if err := runApp(t, dir, "derive", ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestMintRequiresDeployment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "orders.json")
	if err := os.WriteFile(file, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := runApp(t, dir, "mint", "--orders", file); err == nil {
		t.Fatal("expected error without deployed scripts")
	}
}

func openTestState(t *testing.T, dir string) *state {
	t.Helper()
	cfg := config.Default(types.Preprod)
	cfg.DataDir = dir
	st, err := openState(cfg)
	if err != nil {
		t.Fatalf("openState: %v", err)
	}
	return st
}

// deployment is a preprod deployment written to a config file.
type deployment struct {
	scripts  config.DeployedScripts
	refSpend types.Address
	payment  types.Address
	wallet   types.Address
	reserved int64
}

func newDeployment() deployment {
	return deployment{
		scripts: config.DeployedScripts{
			MintProxy:   config.ScriptDetails{ValidatorHash: types.ScriptHash{0x51}},
			MintingData: config.ScriptDetails{ValidatorHash: types.ScriptHash{0x52}},
			OrdersSpend: config.ScriptDetails{ValidatorHash: types.ScriptHash{0x53}},
			OrdersMint:  config.ScriptDetails{ValidatorHash: types.ScriptHash{0x54}},
		},
		refSpend: types.NewScriptAddress(types.TestnetID, types.ScriptHash{0x55}),
		payment:  types.NewKeyAddress(types.TestnetID, types.ScriptHash{0x56}, nil),
		wallet:   types.NewKeyAddress(types.TestnetID, types.ScriptHash{0x57}, nil),
		reserved: 500_000,
	}
}

func (d deployment) write(t *testing.T, dir string) {
	t.Helper()
	conf := fmt.Sprintf(`network = preprod
scripts.mint_proxy.hash = %s
scripts.minting_data.hash = %s
scripts.orders_spend.hash = %s
scripts.orders_mint.hash = %s
settings.ref_spend_address = %s
settings.payment_address = %s
wallet.address = %s
fee.reserved = %d
params.source = static
params.coins_per_utxo_byte = 4310
params.min_fee_a = 44
params.min_fee_b = 155381
`,
		d.scripts.MintProxy.ValidatorHash, d.scripts.MintingData.ValidatorHash,
		d.scripts.OrdersSpend.ValidatorHash, d.scripts.OrdersMint.ValidatorHash,
		d.refSpend, d.payment, d.wallet, d.reserved)
	if err := os.WriteFile(filepath.Join(dir, "halmint.conf"), []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}
}

func (d deployment) order(txid byte, name string, price int64) order.Order {
	class := types.AssetClass{Policy: d.scripts.OrdersMint.PolicyID(), Name: types.AssetName(config.DefaultOrderTokenName)}
	datum := plutus.OrderDatum{
		Owner:       types.ScriptHash{0x60, txid},
		Price:       big.NewInt(price),
		Destination: types.NewKeyAddress(types.TestnetID, types.ScriptHash{0x61, txid}, nil),
	}.ToData()
	return order.Order{
		Input: tx.TxInput{
			Outpoint: types.Outpoint{TxID: types.Hash{txid}, Index: 0},
			Output: tx.NewOutput(
				d.scripts.OrdersSpend.Address(types.Preprod),
				types.Lovelace(price).WithAsset(class, big.NewInt(1)),
				datum,
			),
		},
		Name:  name,
		Datum: plutus.CIP68Datum([]plutus.Pair{plutus.TextPair("name", "$"+name)}, 1, nil),
	}
}

func TestMintCommit(t *testing.T) {
	dir := t.TempDir()
	d := newDeployment()
	d.write(t, dir)

	mintingData := &utxo.UTXO{
		Outpoint: types.Outpoint{TxID: types.Hash{0xd0}, Index: 0},
		Output: tx.NewOutput(
			d.scripts.MintingData.Address(types.Preprod),
			types.Lovelace(2_000_000),
			plutus.MintingData{Root: types.Hash{}}.ToData(),
		),
	}
	collateral := &utxo.UTXO{
		Outpoint: types.Outpoint{TxID: types.Hash{0xd1}, Index: 0},
		Output:   tx.NewOutput(d.wallet, types.Lovelace(20_000_000), nil),
	}
	alice := d.order(0x01, "alice", 6_000_000)
	bob := d.order(0x02, "bob", 9_000_000)

	utxos := []*utxo.UTXO{mintingData, collateral, utxo.FromTxInput(alice.Input), utxo.FromTxInput(bob.Input)}
	utxoFile := filepath.Join(dir, "utxos.json")
	writeJSON(t, utxoFile, utxos)
	if err := runApp(t, dir, "utxo", "import", utxoFile); err != nil {
		t.Fatalf("utxo import: %v", err)
	}

	ordersFile := filepath.Join(dir, "orders.json")
	writeJSON(t, ordersFile, []order.Order{bob, alice})
	printed, err := runAppOutput(t, dir, "mint", "--orders", ordersFile, "--commit", "--yes")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	var out struct {
		TxHash    types.Hash        `json:"tx_hash"`
		Summary   map[string]string `json:"summary"`
		Committed bool              `json:"committed"`
	}
	if err := json.Unmarshal(printed, &out); err != nil {
		t.Fatalf("parse mint output: %v\n%s", err, printed)
	}
	if !out.Committed {
		t.Fatal("mint output not marked committed")
	}
	if out.Summary["orders"] != "2" || out.Summary["total_price"] != mint.FormatADA(big.NewInt(15_000_000)) {
		t.Errorf("summary = %v", out.Summary)
	}

	func() {
		st := openTestState(t, dir)
		defer st.Close()

		// Settlement sits at index 1 and, with the handle outputs and the
		// reserve, adds up to what the orders paid.
		settlement, err := st.utxos.Get(types.Outpoint{TxID: out.TxHash, Index: 1})
		if err != nil {
			t.Fatalf("settlement output: %v", err)
		}
		if !settlement.Output.Address.Equal(d.payment) {
			t.Errorf("output 1 address = %s, want payment address", settlement.Output.Address)
		}
		if got := mint.FormatADA(settlement.Output.Lovelace()); out.Summary["settlement"] != got {
			t.Errorf("printed settlement %s, state has %s", out.Summary["settlement"], got)
		}
		paid := big.NewInt(d.reserved)
		for i := uint32(1); i <= 5; i++ {
			u, err := st.utxos.Get(types.Outpoint{TxID: out.TxHash, Index: i})
			if err != nil {
				t.Fatalf("output %d: %v", i, err)
			}
			paid.Add(paid, u.Output.Lovelace())
		}
		if paid.Cmp(big.NewInt(15_000_000)) != 0 {
			t.Errorf("outputs plus reserve = %s, want 15000000", paid)
		}

		// The registry and the re-created minting data agree on the new root.
		if !st.registry.Has("alice") || !st.registry.Has("bob") {
			t.Fatal("names not registered")
		}
		newData, err := st.utxos.Get(types.Outpoint{TxID: out.TxHash, Index: 0})
		if err != nil {
			t.Fatalf("minting data output: %v", err)
		}
		md, err := plutus.DecodeMintingData(newData.Output.Datum)
		if err != nil {
			t.Fatalf("minting data datum: %v", err)
		}
		if md.Root.IsZero() || md.Root != st.registry.Root() {
			t.Errorf("minting data root = %s, registry root = %s", md.Root, st.registry.Root())
		}

		// Spent inputs are gone.
		for _, op := range []types.Outpoint{alice.Input.Outpoint, bob.Input.Outpoint, mintingData.Outpoint} {
			if ok, _ := st.utxos.Has(op); ok {
				t.Errorf("%s still unspent", op)
			}
		}
	}()

	// The committed state is consistent enough to assemble the next batch.
	carol := d.order(0x03, "carol", 7_000_000)
	writeJSON(t, utxoFile, []*utxo.UTXO{utxo.FromTxInput(carol.Input)})
	if err := runApp(t, dir, "utxo", "import", utxoFile); err != nil {
		t.Fatalf("utxo import: %v", err)
	}
	writeJSON(t, ordersFile, []order.Order{carol})
	if err := runApp(t, dir, "mint", "--orders", ordersFile); err != nil {
		t.Fatalf("second mint: %v", err)
	}
}

func TestMintRejectsTamperedOrder(t *testing.T) {
	dir := t.TempDir()
	d := newDeployment()
	d.write(t, dir)

	alice := d.order(0x01, "alice", 6_000_000)
	utxoFile := filepath.Join(dir, "utxos.json")
	writeJSON(t, utxoFile, []*utxo.UTXO{
		{
			Outpoint: types.Outpoint{TxID: types.Hash{0xd0}, Index: 0},
			Output: tx.NewOutput(
				d.scripts.MintingData.Address(types.Preprod),
				types.Lovelace(2_000_000),
				plutus.MintingData{Root: types.Hash{}}.ToData(),
			),
		},
		{
			Outpoint: types.Outpoint{TxID: types.Hash{0xd1}, Index: 0},
			Output:   tx.NewOutput(d.wallet, types.Lovelace(20_000_000), nil),
		},
		utxo.FromTxInput(alice.Input),
	})
	if err := runApp(t, dir, "utxo", "import", utxoFile); err != nil {
		t.Fatalf("utxo import: %v", err)
	}

	cheap := d.order(0x01, "alice", 1)
	cheap.Input.Output.Value = alice.Input.Output.Value
	ordersFile := filepath.Join(dir, "orders.json")
	writeJSON(t, ordersFile, []order.Order{cheap})
	if err := runApp(t, dir, "mint", "--orders", ordersFile, "--commit", "--yes"); !errors.Is(err, order.ErrOutputChanged) {
		t.Fatalf("mint error = %v, want ErrOutputChanged", err)
	}

	st := openTestState(t, dir)
	defer st.Close()
	if st.registry.Has("alice") {
		t.Error("tampered order was committed")
	}
}
