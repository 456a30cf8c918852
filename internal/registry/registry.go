// Package registry tracks the names already minted and the merkle root that
// commits to them. The root is what the minting-data output carries on
// chain; a fulfillment stages the next root and commits it once the
// transaction is accepted.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/koralabs/hal-minting-contracts/internal/log"
	"github.com/koralabs/hal-minting-contracts/internal/storage"
	"github.com/koralabs/hal-minting-contracts/internal/token"
	"github.com/koralabs/hal-minting-contracts/pkg/crypto"
	"github.com/koralabs/hal-minting-contracts/pkg/merkle"
	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Registry errors.
var (
	ErrAlreadyRegistered = errors.New("name already registered")
	ErrDuplicateName     = errors.New("name requested twice in batch")
	ErrNotRegistered     = errors.New("name not registered")
	ErrStaleStage        = errors.New("registry changed since batch was staged")
	ErrEmptyStage        = errors.New("no names to stage")
)

// DB key prefix for registry persistence.
var prefixName = []byte("n/")

// Record is one registered name.
type Record struct {
	Name       string    `json:"name"`
	BatchID    string    `json:"batch_id,omitempty"`
	Registered time.Time `json:"registered"`
}

// Registry holds the set of registered names. It is safe for concurrent use.
type Registry struct {
	db      storage.DB
	records map[string]*Record
	mu      sync.RWMutex
}

// nameKey builds a DB key for a name: "n/" + name bytes.
func nameKey(name string) []byte {
	key := make([]byte, 0, len(prefixName)+len(name))
	key = append(key, prefixName...)
	return append(key, name...)
}

// Leaf returns the merkle leaf of a name.
func Leaf(name string) types.Hash {
	return crypto.Hash([]byte(name))
}

// Open loads the registry persisted in db.
func Open(db storage.DB) (*Registry, error) {
	r := &Registry{db: db, records: make(map[string]*Record)}
	err := db.ForEach(prefixName, func(_, value []byte) error {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		r.records[rec.Name] = &rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	log.Registry.Debug().Int("names", len(r.records)).Msg("Registry loaded")
	return r, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[name]
	return ok
}

// Get returns the record of a registered name.
func (r *Registry) Get(name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	cp := *rec
	return &cp, nil
}

// Count returns the number of registered names.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(nil)
}

// sortedNames returns registered names plus extra, sorted. Caller holds mu.
func (r *Registry) sortedNames(extra []string) []string {
	names := make([]string, 0, len(r.records)+len(extra))
	for name := range r.records {
		names = append(names, name)
	}
	names = append(names, extra...)
	sort.Strings(names)
	return names
}

func rootOf(names []string) types.Hash {
	leaves := make([]types.Hash, len(names))
	for i, n := range names {
		leaves[i] = Leaf(n)
	}
	return merkle.Root(leaves)
}

// Root returns the commitment over every registered name.
func (r *Registry) Root() types.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return rootOf(r.sortedNames(nil))
}

// Proof returns the inclusion path of name against Root.
func (r *Registry) Proof(name string) ([]merkle.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.records[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	names := r.sortedNames(nil)
	leaves := make([]types.Hash, len(names))
	for i, n := range names {
		leaves[i] = Leaf(n)
	}
	return merkle.Proof(leaves, sort.SearchStrings(names, name))
}

// Staged is a batch of names checked against the registry, with the root
// the registry will have once they are committed.
type Staged struct {
	Names   []string   `json:"names"`
	OldRoot types.Hash `json:"old_root"`
	NewRoot types.Hash `json:"new_root"`
}

// Stage checks names and computes the next root without changing the
// registry. Names must be valid, unique within the batch and unregistered.
func (r *Registry) Stage(names []string) (*Staged, error) {
	if len(names) == 0 {
		return nil, ErrEmptyStage
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := token.ValidateName(name); err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		if _, ok := r.records[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
		}
	}
	return &Staged{
		Names:   append([]string(nil), names...),
		OldRoot: rootOf(r.sortedNames(nil)),
		NewRoot: rootOf(r.sortedNames(names)),
	}, nil
}

// Commit persists a staged batch. It fails with ErrStaleStage if the
// registry changed after s was staged.
func (r *Registry) Commit(s *Staged, batchID string) error {
	b := storage.NewBatch(r.db)
	return r.commit(s, batchID, b, b)
}

// CommitWith adds the records of a staged batch to b and commits b, so
// writes other stores staged in b land together with the names. b must be
// a batch of the database r was opened on, or of the DB it is a view of.
// The registry only changes in memory once b has committed.
func (r *Registry) CommitWith(s *Staged, batchID string, b storage.Batch) error {
	return r.commit(s, batchID, b, storage.Scoped(r.db, b))
}

// commit stages the records into scoped, a view of b, then commits b.
func (r *Registry) commit(s *Staged, batchID string, b, scoped storage.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rootOf(r.sortedNames(nil)) != s.OldRoot {
		return ErrStaleStage
	}

	now := time.Now().UTC()
	recs := make([]*Record, 0, len(s.Names))
	for _, name := range s.Names {
		if _, ok := r.records[name]; ok {
			return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
		}
		recs = append(recs, &Record{Name: name, BatchID: batchID, Registered: now})
	}

	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %q: %w", rec.Name, err)
		}
		if err := scoped.Put(nameKey(rec.Name), data); err != nil {
			return fmt.Errorf("stage record %q: %w", rec.Name, err)
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("commit registry batch: %w", err)
	}
	for _, rec := range recs {
		r.records[rec.Name] = rec
	}

	log.Registry.Info().
		Int("names", len(recs)).
		Str("batch", batchID).
		Str("root", s.NewRoot.String()).
		Msg("Registry committed")
	return nil
}
