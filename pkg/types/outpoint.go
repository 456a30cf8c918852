package types

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Outpoint references a specific output of a previous transaction.
type Outpoint struct {
	TxID  Hash   `json:"txid"`
	Index uint32 `json:"index"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID.IsZero() && o.Index == 0
}

// String returns "txid#index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s#%d", o.TxID.String(), o.Index)
}

// Compare orders outpoints the way the ledger orders transaction inputs:
// by transaction id bytes, then by output index numerically.
// It returns -1, 0 or +1.
func (o Outpoint) Compare(other Outpoint) int {
	if c := bytes.Compare(o.TxID[:], other.TxID[:]); c != 0 {
		return c
	}
	switch {
	case o.Index < other.Index:
		return -1
	case o.Index > other.Index:
		return 1
	default:
		return 0
	}
}

// ParseOutpoint parses "txid#index" (a ":" separator is also accepted).
func ParseOutpoint(s string) (Outpoint, error) {
	sep := strings.LastIndexAny(s, "#:")
	if sep < 0 {
		return Outpoint{}, fmt.Errorf("outpoint %q: missing index separator", s)
	}
	txID, err := HexToHash(s[:sep])
	if err != nil {
		return Outpoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}
	idx, err := strconv.ParseUint(s[sep+1:], 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("outpoint %q: invalid index: %w", s, err)
	}
	return Outpoint{TxID: txID, Index: uint32(idx)}, nil
}
