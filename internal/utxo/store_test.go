package utxo

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/koralabs/hal-minting-contracts/internal/storage"
	"github.com/koralabs/hal-minting-contracts/pkg/crypto"
	"github.com/koralabs/hal-minting-contracts/pkg/plutus"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

var (
	walletAddr = types.NewKeyAddress(types.TestnetID, types.ScriptHash{0x01, 0x02}, nil)
	scriptAddr = types.NewScriptAddress(types.TestnetID, types.ScriptHash{0x0a})
	orderClass = types.AssetClass{Policy: types.PolicyID{0x0b}, Name: types.AssetName("HAL_ORDER")}
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemory())
}

func makeOutpoint(data string, index uint32) types.Outpoint {
	return types.Outpoint{
		TxID:  crypto.Hash([]byte(data)),
		Index: index,
	}
}

func makeUTXO(data string, index uint32, lovelace int64) *UTXO {
	return &UTXO{
		Outpoint: makeOutpoint(data, index),
		Output:   tx.NewOutput(walletAddr, types.Lovelace(lovelace), nil),
		Slot:     1,
	}
}

func makeOrderUTXO(data string, index uint32) *UTXO {
	value := types.Lovelace(5_000_000).WithAsset(orderClass, big.NewInt(1))
	return &UTXO{
		Outpoint: makeOutpoint(data, index),
		Output:   tx.NewOutput(scriptAddr, value, plutus.Void()),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	s := testStore(t)
	u := makeOrderUTXO("tx1", 0)

	if err := s.Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := s.Get(u.Outpoint)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Outpoint != u.Outpoint {
		t.Error("Outpoint mismatch")
	}
	if !got.Output.Value.Equal(u.Output.Value) {
		t.Errorf("Value = %s, want %s", got.Output.Value, u.Output.Value)
	}
	if !got.Output.Address.Equal(u.Output.Address) {
		t.Error("Address mismatch")
	}
	if !plutus.Equal(got.Output.Datum, u.Output.Datum) {
		t.Error("Datum mismatch")
	}
}

func TestStore_GetNonexistent(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(makeOutpoint("missing", 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() for nonexistent UTXO = %v, want ErrNotFound", err)
	}
}

func TestStore_Has(t *testing.T) {
	s := testStore(t)
	u := makeUTXO("tx1", 0, 1000)

	if ok, _ := s.Has(u.Outpoint); ok {
		t.Error("Has() should be false before Put()")
	}
	s.Put(u)
	if ok, _ := s.Has(u.Outpoint); !ok {
		t.Error("Has() should be true after Put()")
	}
}

func TestStore_DeleteCleansIndexes(t *testing.T) {
	s := testStore(t)
	u := makeOrderUTXO("tx1", 0)
	s.Put(u)

	if err := s.Delete(u.Outpoint); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if ok, _ := s.Has(u.Outpoint); ok {
		t.Error("UTXO still present after Delete()")
	}
	byAddr, _ := s.GetByAddress(scriptAddr)
	if len(byAddr) != 0 {
		t.Errorf("address index has %d entries after Delete()", len(byAddr))
	}
	byPolicy, _ := s.GetByPolicy(orderClass.Policy)
	if len(byPolicy) != 0 {
		t.Errorf("policy index has %d entries after Delete()", len(byPolicy))
	}
}

func TestStore_GetByAddress(t *testing.T) {
	s := testStore(t)
	s.Put(makeUTXO("tx1", 0, 1000))
	s.Put(makeUTXO("tx2", 1, 2000))
	s.Put(makeOrderUTXO("tx3", 0))

	// A base address sharing the payment part must not match.
	stake := types.ScriptHash{0x09}
	base := types.NewKeyAddress(types.TestnetID, walletAddr.Payment.Hash, &stake)
	s.Put(&UTXO{Outpoint: makeOutpoint("tx4", 0), Output: tx.NewOutput(base, types.Lovelace(1), nil)})

	utxos, err := s.GetByAddress(walletAddr)
	if err != nil {
		t.Fatalf("GetByAddress() error: %v", err)
	}
	if len(utxos) != 2 {
		t.Errorf("GetByAddress() returned %d, want 2", len(utxos))
	}
}

func TestStore_FindAsset(t *testing.T) {
	s := testStore(t)
	s.Put(makeUTXO("tx1", 0, 1000))

	if _, err := s.FindAsset(orderClass); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindAsset() on empty index = %v, want ErrNotFound", err)
	}

	u := makeOrderUTXO("tx2", 0)
	s.Put(u)
	got, err := s.FindAsset(orderClass)
	if err != nil {
		t.Fatalf("FindAsset() error: %v", err)
	}
	if got.Outpoint != u.Outpoint {
		t.Errorf("FindAsset() = %s, want %s", got.Outpoint, u.Outpoint)
	}

	s.Put(makeOrderUTXO("tx3", 0))
	if _, err := s.FindAsset(orderClass); err == nil {
		t.Error("FindAsset() should fail when two UTXOs hold the asset")
	}
}

func TestStore_Apply(t *testing.T) {
	s := testStore(t)
	in := makeUTXO("tx1", 0, 10_000_000)
	s.Put(in)

	built, err := tx.NewBuilder().
		AddInput(in.TxInput()).
		AddOutput(tx.NewOutput(walletAddr, types.Lovelace(4_000_000), nil), tx.NewOutput(scriptAddr, types.Lovelace(5_000_000), nil)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	txID, err := built.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := s.Apply(txID, built); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if ok, _ := s.Has(in.Outpoint); ok {
		t.Error("spent input still present")
	}
	for i := uint32(0); i < 2; i++ {
		if ok, _ := s.Has(types.Outpoint{TxID: txID, Index: i}); !ok {
			t.Errorf("output %d not added", i)
		}
	}
}

// flakyDB fails batched puts of keys starting with failKey.
type flakyDB struct {
	*storage.MemoryDB
	failKey []byte
}

func (f flakyDB) NewBatch() storage.Batch {
	return flakyBatch{Batch: f.MemoryDB.NewBatch(), failKey: f.failKey}
}

type flakyBatch struct {
	storage.Batch
	failKey []byte
}

func (b flakyBatch) Put(key, value []byte) error {
	if bytes.HasPrefix(key, b.failKey) {
		return errors.New("disk full")
	}
	return b.Batch.Put(key, value)
}

// noDeletes has no batch support and rejects every delete.
type noDeletes struct{ storage.DB }

func (noDeletes) Delete([]byte) error { return errors.New("read-only") }

func TestStore_ApplyIsAtomic(t *testing.T) {
	in := makeUTXO("tx1", 0, 10_000_000)
	built, err := tx.NewBuilder().
		AddInput(in.TxInput()).
		AddOutput(tx.NewOutput(walletAddr, types.Lovelace(4_000_000), nil), tx.NewOutput(scriptAddr, types.Lovelace(5_000_000), nil)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	txID, err := built.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	s := NewStore(flakyDB{MemoryDB: storage.NewMemory(), failKey: utxoKey(types.Outpoint{TxID: txID, Index: 1})})
	if err := s.Put(in); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := s.Apply(txID, built); err == nil {
		t.Fatal("Apply() should fail when an output cannot be written")
	}
	if ok, _ := s.Has(in.Outpoint); !ok {
		t.Error("input spent by a failed Apply")
	}
	if ok, _ := s.Has(types.Outpoint{TxID: txID, Index: 0}); ok {
		t.Error("output 0 written by a failed Apply")
	}
	if utxos, _ := s.GetByAddress(walletAddr); len(utxos) != 1 {
		t.Errorf("address index has %d entries, want 1", len(utxos))
	}
}

func TestStore_ApplyBatchWaitsForCommit(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	in := makeUTXO("tx1", 0, 10_000_000)
	s.Put(in)

	built, err := tx.NewBuilder().
		AddInput(in.TxInput()).
		AddOutput(tx.NewOutput(walletAddr, types.Lovelace(9_000_000), nil)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	txID, _ := built.Hash()

	b := db.NewBatch()
	if err := s.ApplyBatch(b, txID, built); err != nil {
		t.Fatalf("ApplyBatch() error: %v", err)
	}
	if ok, _ := s.Has(in.Outpoint); !ok {
		t.Fatal("input spent before Commit")
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ok, _ := s.Has(in.Outpoint); ok {
		t.Error("input still present after Commit")
	}
	if ok, _ := s.Has(types.Outpoint{TxID: txID, Index: 0}); !ok {
		t.Error("output missing after Commit")
	}
}

func TestStore_DeleteReportsIndexErrors(t *testing.T) {
	mem := storage.NewMemory()
	u := makeOrderUTXO("tx1", 0)
	if err := NewStore(mem).Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := NewStore(noDeletes{mem}).Delete(u.Outpoint); err == nil {
		t.Fatal("Delete() should report the failed index delete")
	}
}

func TestStore_ClearAll(t *testing.T) {
	s := testStore(t)
	s.Put(makeUTXO("tx1", 0, 1000))
	s.Put(makeOrderUTXO("tx2", 0))

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error: %v", err)
	}
	count := 0
	s.ForEach(func(*UTXO) error { count++; return nil })
	if count != 0 {
		t.Errorf("ForEach() after ClearAll() visited %d", count)
	}
	if utxos, _ := s.GetByPolicy(orderClass.Policy); len(utxos) != 0 {
		t.Error("policy index survived ClearAll()")
	}
}

func TestStore_Badger(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()

	s := NewStore(storage.NewPrefixDB(db, storage.NamespaceUTxO))
	u := makeOrderUTXO("tx1", 3)
	if err := s.Put(u); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := s.FindAsset(orderClass)
	if err != nil {
		t.Fatalf("FindAsset() error: %v", err)
	}
	if got.Outpoint != u.Outpoint {
		t.Errorf("FindAsset() = %s, want %s", got.Outpoint, u.Outpoint)
	}
}
