package storage

// Namespaces of the state database. Each store gets its own PrefixDB so the
// registry and the UTxO state can share one badger directory.
var (
	NamespaceRegistry = []byte("reg/")
	NamespaceUTxO     = []byte("utxo/")
)

// PrefixDB confines a store to the keys under a fixed prefix of an inner DB.
// Keys passed in and handed back are relative to the prefix.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns a view of inner under prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

func (p *PrefixDB) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(out, p.prefix...), k...)
}

// Get implements DB.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.key(key))
}

// Put implements DB.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.key(key), value)
}

// Delete implements DB.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.key(key))
}

// Has implements DB.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.key(key))
}

// ForEach implements DB. fn sees keys without the namespace prefix.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close does nothing; the inner DB owns the underlying resources.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch implements Batcher. The batch is atomic when the inner DB is a
// Batcher and applied write by write otherwise.
func (p *PrefixDB) NewBatch() Batch {
	return &prefixBatch{db: p, inner: NewBatch(p.inner)}
}

// Scope implements Scoper. Writes to the returned batch land under the
// prefix in parent, which must be a batch of the inner DB.
func (p *PrefixDB) Scope(parent Batch) Batch {
	return &prefixBatch{db: p, inner: parent}
}

type prefixBatch struct {
	db    *PrefixDB
	inner Batch
}

func (b *prefixBatch) Put(key, value []byte) error {
	return b.inner.Put(b.db.key(key), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.inner.Delete(b.db.key(key))
}

func (b *prefixBatch) Commit() error {
	return b.inner.Commit()
}

// writeThroughBatch buffers writes for a DB without batch support and
// replays them in order on Commit.
type writeThroughBatch struct {
	db  DB
	ops []batchOp
}

func (b *writeThroughBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, newBatchOp(key, value, false))
	return nil
}

func (b *writeThroughBatch) Delete(key []byte) error {
	b.ops = append(b.ops, newBatchOp(key, nil, true))
	return nil
}

func (b *writeThroughBatch) Commit() error {
	for _, op := range b.ops {
		var err error
		if op.value == nil {
			err = b.db.Delete(op.key)
		} else {
			err = b.db.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}
