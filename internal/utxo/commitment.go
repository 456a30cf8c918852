package utxo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/koralabs/hal-minting-contracts/pkg/crypto"
	"github.com/koralabs/hal-minting-contracts/pkg/merkle"
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Commitment computes a merkle root over all UTXOs in the store.
// Each UTXO is hashed deterministically, the hashes are sorted, and
// a merkle tree is built from them. Returns a zero hash for an empty set.
func Commitment(store *Store) (types.Hash, error) {
	var hashes []types.Hash

	err := store.ForEach(func(u *UTXO) error {
		h, err := hashUTXO(u)
		if err != nil {
			return err
		}
		hashes = append(hashes, h)
		return nil
	})
	if err != nil {
		return types.Hash{}, fmt.Errorf("utxo commitment: %w", err)
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return merkle.Root(hashes), nil
}

// hashUTXO produces a deterministic BLAKE3 hash of a UTXO.
// Format: txid(32) | index(4) | cbor(output)
func hashUTXO(u *UTXO) (types.Hash, error) {
	out, err := tx.EncodeOutput(u.Output)
	if err != nil {
		return types.Hash{}, fmt.Errorf("encode %s: %w", u.Outpoint, err)
	}
	buf := appendOutpoint(nil, u.Outpoint)
	buf = append(buf, out...)
	return crypto.Hash(buf), nil
}
