// Package crypto provides the hash functions used by HAL minting:
// BLAKE3 for registry commitments and BLAKE2b for ledger identities.
package crypto

import (
	"github.com/koralabs/hal-minting-contracts/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// PlutusVersion selects the language tag prepended to a script before
// hashing it.
type PlutusVersion byte

const (
	PlutusV1 PlutusVersion = 0x01
	PlutusV2 PlutusVersion = 0x02
	PlutusV3 PlutusVersion = 0x03
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}

// Blake2b256 computes a BLAKE2b-256 digest. Transaction ids are the
// BLAKE2b-256 of the serialized body.
func Blake2b256(data []byte) types.Hash {
	return blake2b.Sum256(data)
}

// Blake2b224 computes a BLAKE2b-224 digest (key and script hashes).
func Blake2b224(data []byte) types.ScriptHash {
	h, err := blake2b.New(types.ScriptHashSize, nil)
	if err != nil {
		// Only fails for sizes outside [1, 64].
		panic(err)
	}
	h.Write(data)
	var out types.ScriptHash
	copy(out[:], h.Sum(nil))
	return out
}

// ScriptHash derives the hash of a serialized plutus script. The same hash
// is the validator hash, the script credential and, for minting scripts,
// the policy id.
func ScriptHash(version PlutusVersion, script []byte) types.ScriptHash {
	buf := make([]byte, 0, len(script)+1)
	buf = append(buf, byte(version))
	buf = append(buf, script...)
	return Blake2b224(buf)
}
