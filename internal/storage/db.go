// Package storage provides the key-value stores backing the name registry
// and the UTxO state.
package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch collects writes that are applied together on Commit.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by databases that can commit writes atomically.
type Batcher interface {
	NewBatch() Batch
}

// NewBatch returns a batch for db. Writes are atomic when db is a Batcher
// and replayed in order on Commit otherwise.
func NewBatch(db DB) Batch {
	if batcher, ok := db.(Batcher); ok {
		return batcher.NewBatch()
	}
	return &writeThroughBatch{db: db}
}

// Scoper is implemented by views over a parent DB that can write into a
// batch of that parent.
type Scoper interface {
	Scope(parent Batch) Batch
}

// Scoped returns b as seen through db. When db is a view of another DB, b
// must be a batch of that DB.
func Scoped(db DB, b Batch) Batch {
	if s, ok := db.(Scoper); ok {
		return s.Scope(b)
	}
	return b
}

// batchOp is a buffered write; a nil value means delete.
type batchOp struct {
	key   []byte
	value []byte
}

func newBatchOp(key, value []byte, del bool) batchOp {
	op := batchOp{key: append([]byte(nil), key...)}
	if !del {
		op.value = append([]byte{}, value...)
	}
	return op
}
