package utxo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koralabs/hal-minting-contracts/internal/storage"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// ErrNotFound is returned when an outpoint is not in the set.
var ErrNotFound = errors.New("utxo not found")

// Key prefixes for the UTXO store.
var (
	prefixUTXO   = []byte("u/") // u/<txid><index> -> UTXO JSON
	prefixAddr   = []byte("a/") // a/<len><address><txid><index> -> empty (index)
	prefixPolicy = []byte("p/") // p/<policy><txid><index> -> empty (asset index)
)

const outpointKeySize = types.HashSize + 4

// Store implements Set backed by a storage.DB.
type Store struct {
	db storage.DB
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func appendOutpoint(key []byte, op types.Outpoint) []byte {
	key = append(key, op.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, op.Index)
}

func outpointFromKey(key []byte) (types.Outpoint, bool) {
	if len(key) < outpointKeySize {
		return types.Outpoint{}, false
	}
	tail := key[len(key)-outpointKeySize:]
	var op types.Outpoint
	copy(op.TxID[:], tail[:types.HashSize])
	op.Index = binary.BigEndian.Uint32(tail[types.HashSize:])
	return op, true
}

// utxoKey builds a storage key for an outpoint: "u/" + txid(32) + index(4).
func utxoKey(op types.Outpoint) []byte {
	return appendOutpoint(append([]byte{}, prefixUTXO...), op)
}

// addrPrefix is "a/" + len(1) + address bytes. The length byte keeps a
// 29-byte enterprise address from prefixing a 57-byte base address.
func addrPrefix(addr types.Address) []byte {
	raw := addr.Bytes()
	key := append([]byte{}, prefixAddr...)
	key = append(key, byte(len(raw)))
	return append(key, raw...)
}

func addrKey(addr types.Address, op types.Outpoint) []byte {
	return appendOutpoint(addrPrefix(addr), op)
}

func policyPrefix(policy types.PolicyID) []byte {
	return append(append([]byte{}, prefixPolicy...), policy[:]...)
}

func policyKey(policy types.PolicyID, op types.Outpoint) []byte {
	return appendOutpoint(policyPrefix(policy), op)
}

// Get retrieves a UTXO by its outpoint.
func (s *Store) Get(outpoint types.Outpoint) (*UTXO, error) {
	data, err := s.db.Get(utxoKey(outpoint))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", outpoint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("utxo get: %w", err)
	}
	var u UTXO
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("utxo unmarshal: %w", err)
	}
	return &u, nil
}

func indexKeys(u *UTXO) [][]byte {
	keys := [][]byte{addrKey(u.Output.Address, u.Outpoint)}
	for _, policy := range u.Output.Value.Assets.Policies() {
		keys = append(keys, policyKey(policy, u.Outpoint))
	}
	return keys
}

// Put stores a UTXO and updates the address and policy indexes.
func (s *Store) Put(u *UTXO) error {
	b := storage.NewBatch(s.db)
	if err := s.stagePut(b, u); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	return nil
}

func (s *Store) stagePut(b storage.Batch, u *UTXO) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("utxo marshal: %w", err)
	}
	if err := b.Put(utxoKey(u.Outpoint), data); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	for _, key := range indexKeys(u) {
		if err := b.Put(key, []byte{}); err != nil {
			return fmt.Errorf("utxo index put: %w", err)
		}
	}
	return nil
}

// Delete removes a UTXO and its index entries.
func (s *Store) Delete(outpoint types.Outpoint) error {
	b := storage.NewBatch(s.db)
	if err := s.stageDelete(b, outpoint); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	return nil
}

// stageDelete reads the UTXO first so its secondary indexes go with it.
func (s *Store) stageDelete(b storage.Batch, outpoint types.Outpoint) error {
	u, err := s.Get(outpoint)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	default:
		for _, key := range indexKeys(u) {
			if err := b.Delete(key); err != nil {
				return fmt.Errorf("utxo index delete: %w", err)
			}
		}
	}
	if err := b.Delete(utxoKey(outpoint)); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	return nil
}

// Has checks if a UTXO exists for the given outpoint.
func (s *Store) Has(outpoint types.Outpoint) (bool, error) {
	return s.db.Has(utxoKey(outpoint))
}

// ForEach iterates over all UTXOs in the store in outpoint order.
func (s *Store) ForEach(fn func(*UTXO) error) error {
	return s.db.ForEach(prefixUTXO, func(key, value []byte) error {
		var u UTXO
		if err := json.Unmarshal(value, &u); err != nil {
			return fmt.Errorf("utxo unmarshal: %w", err)
		}
		return fn(&u)
	})
}

// Apply records a built transaction: its inputs are removed from the set
// and its outputs are added under txID. Either all of it lands or none.
func (s *Store) Apply(txID types.Hash, t *tx.Transaction) error {
	b := storage.NewBatch(s.db)
	if err := s.stageApply(b, txID, t); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("apply %s: %w", txID, err)
	}
	return nil
}

// ApplyBatch stages the writes of Apply into b without committing it. b is
// a batch of the database the store was created on, or of the DB it is a
// view of.
func (s *Store) ApplyBatch(b storage.Batch, txID types.Hash, t *tx.Transaction) error {
	return s.stageApply(storage.Scoped(s.db, b), txID, t)
}

func (s *Store) stageApply(b storage.Batch, txID types.Hash, t *tx.Transaction) error {
	for _, op := range t.Inputs {
		if err := s.stageDelete(b, op); err != nil {
			return fmt.Errorf("spend %s: %w", op, err)
		}
	}
	for i, out := range t.Outputs {
		u := &UTXO{Outpoint: types.Outpoint{TxID: txID, Index: uint32(i)}, Output: out}
		if err := s.stagePut(b, u); err != nil {
			return fmt.Errorf("add output %d: %w", i, err)
		}
	}
	return nil
}

// ClearAll removes all UTXOs and their secondary indexes.
func (s *Store) ClearAll() error {
	var keys [][]byte
	for _, prefix := range [][]byte{prefixUTXO, prefixAddr, prefixPolicy} {
		if err := s.db.ForEach(prefix, func(key, _ []byte) error {
			k := make([]byte, len(key))
			copy(k, key)
			keys = append(keys, k)
			return nil
		}); err != nil {
			return fmt.Errorf("scan prefix %s: %w", prefix, err)
		}
	}
	for _, key := range keys {
		if err := s.db.Delete(key); err != nil {
			return fmt.Errorf("delete utxo key: %w", err)
		}
	}
	return nil
}

// scanIndex loads every UTXO referenced by index keys under prefix.
func (s *Store) scanIndex(prefix []byte) ([]*UTXO, error) {
	var utxos []*UTXO
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		op, ok := outpointFromKey(key[len(prefix):])
		if !ok {
			return nil // Malformed key, skip.
		}
		u, err := s.Get(op)
		if err != nil {
			return nil // UTXO may have been spent, skip.
		}
		utxos = append(utxos, u)
		return nil
	})
	return utxos, err
}

// GetByAddress returns all UTXOs sitting at the given address.
func (s *Store) GetByAddress(addr types.Address) ([]*UTXO, error) {
	utxos, err := s.scanIndex(addrPrefix(addr))
	if err != nil {
		return nil, fmt.Errorf("scan address index: %w", err)
	}
	return utxos, nil
}

// GetByPolicy returns all UTXOs holding any asset under policy.
func (s *Store) GetByPolicy(policy types.PolicyID) ([]*UTXO, error) {
	utxos, err := s.scanIndex(policyPrefix(policy))
	if err != nil {
		return nil, fmt.Errorf("scan policy index: %w", err)
	}
	return utxos, nil
}

// FindAsset returns the single UTXO holding class. It fails when none or
// more than one UTXO holds it.
func (s *Store) FindAsset(class types.AssetClass) (*UTXO, error) {
	candidates, err := s.GetByPolicy(class.Policy)
	if err != nil {
		return nil, err
	}
	var found *UTXO
	for _, u := range candidates {
		if u.Output.Value.Quantity(class).Sign() == 0 {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("asset %s held by %s and %s", class, found.Outpoint, u.Outpoint)
		}
		found = u
	}
	if found == nil {
		return nil, fmt.Errorf("asset %s: %w", class, ErrNotFound)
	}
	return found, nil
}
