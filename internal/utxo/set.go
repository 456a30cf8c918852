// Package utxo keeps the locally known unspent outputs: order inputs
// awaiting fulfillment, the minting-data output and the operator's wallet
// UTxOs.
package utxo

import (
	"github.com/koralabs/hal-minting-contracts/pkg/tx"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// UTXO represents an unspent transaction output.
type UTXO struct {
	Outpoint types.Outpoint `json:"outpoint"`
	Output   tx.Output      `json:"output"`
	Slot     uint64         `json:"slot,omitempty"`
}

// TxInput returns the UTxO as a resolved transaction input.
func (u *UTXO) TxInput() tx.TxInput {
	return tx.TxInput{Outpoint: u.Outpoint, Output: u.Output}
}

// FromTxInput wraps a resolved input as a UTXO.
func FromTxInput(in tx.TxInput) *UTXO {
	return &UTXO{Outpoint: in.Outpoint, Output: in.Output}
}

// Set is the interface for UTXO storage.
type Set interface {
	Get(outpoint types.Outpoint) (*UTXO, error)
	Put(utxo *UTXO) error
	Delete(outpoint types.Outpoint) error
	Has(outpoint types.Outpoint) (bool, error)
}
