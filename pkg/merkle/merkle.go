// Package merkle builds binary BLAKE3 merkle trees over sorted leaves and
// produces inclusion proofs against their roots.
package merkle

import (
	"errors"

	"github.com/koralabs/hal-minting-contracts/pkg/crypto"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// ErrLeafIndex is returned when a proof is requested for a missing leaf.
var ErrLeafIndex = errors.New("leaf index out of range")

// Root calculates the merkle root of leaves.
//
// Algorithm:
//   - 0 leaves: returns zero hash
//   - 1 leaf: returns that leaf
//   - Otherwise: pairwise hash, duplicating the last element if odd count,
//     then recurse on the resulting layer until one hash remains.
func Root(leaves []types.Hash) types.Hash {
	if len(leaves) == 0 {
		return types.Hash{}
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	// Work on a copy so we don't mutate the caller's slice.
	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

func nextLevel(level []types.Hash) []types.Hash {
	if len(level)%2 != 0 {
		level = append(level, level[len(level)-1])
	}
	next := make([]types.Hash, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		next[i/2] = crypto.HashConcat(level[i], level[i+1])
	}
	return next
}

// Step is one sibling on the path from a leaf to the root.
type Step struct {
	Sibling types.Hash `json:"sibling"`
	// Left is true when the sibling is the left operand.
	Left bool `json:"left"`
}

// Proof returns the sibling path for leaves[index].
func Proof(leaves []types.Hash, index int) ([]Step, error) {
	if index < 0 || index >= len(leaves) {
		return nil, ErrLeafIndex
	}
	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	var path []Step
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		if index%2 == 0 {
			path = append(path, Step{Sibling: level[index+1]})
		} else {
			path = append(path, Step{Sibling: level[index-1], Left: true})
		}
		level = nextLevel(level)
		index /= 2
	}
	return path, nil
}

// Verify reports whether leaf with path hashes up to root.
func Verify(root, leaf types.Hash, path []Step) bool {
	h := leaf
	for _, s := range path {
		if s.Left {
			h = crypto.HashConcat(s.Sibling, h)
		} else {
			h = crypto.HashConcat(h, s.Sibling)
		}
	}
	return h == root
}
