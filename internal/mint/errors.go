package mint

import "errors"

// Assembly errors. Every failure aborts the whole batch.
var (
	// ErrEmptyBatch is returned when no orders are supplied.
	ErrEmptyBatch = errors.New("no orders requested")
	// ErrUpstreamFetch wraps failures of network parameter retrieval or
	// transaction preparation.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrInvalidOrderInput names an order that failed decoding, identity
	// derivation or verification.
	ErrInvalidOrderInput = errors.New("invalid order input")
	// ErrAccountingInconsistency is returned when the collected price does
	// not cover the minted outputs and the reserved fee.
	ErrAccountingInconsistency = errors.New("accounting inconsistency")
)
