package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/koralabs/hal-minting-contracts/internal/storage"
	"github.com/koralabs/hal-minting-contracts/internal/token"
	"github.com/koralabs/hal-minting-contracts/pkg/merkle"
)

func openMemory(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(storage.NewMemory())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return r
}

func stageAndCommit(t *testing.T, r *Registry, names ...string) *Staged {
	t.Helper()
	s, err := r.Stage(names)
	if err != nil {
		t.Fatalf("Stage(%v) error: %v", names, err)
	}
	if err := r.Commit(s, "batch"); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	return s
}

func TestRegistry_EmptyRoot(t *testing.T) {
	r := openMemory(t)
	if !r.Root().IsZero() {
		t.Errorf("empty registry root = %s, want zero", r.Root())
	}
}

func TestRegistry_StageDoesNotMutate(t *testing.T) {
	r := openMemory(t)
	s, err := r.Stage([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if r.Count() != 0 || r.Has("alice") {
		t.Error("Stage() registered names")
	}
	if s.OldRoot != r.Root() {
		t.Error("OldRoot does not match current root")
	}
	if s.NewRoot == s.OldRoot {
		t.Error("NewRoot should differ from OldRoot")
	}
}

func TestRegistry_CommitMatchesStagedRoot(t *testing.T) {
	r := openMemory(t)
	s := stageAndCommit(t, r, "bob", "alice")
	if r.Root() != s.NewRoot {
		t.Errorf("Root() = %s, want staged %s", r.Root(), s.NewRoot)
	}
	if !r.Has("alice") || !r.Has("bob") {
		t.Error("committed names missing")
	}
	got := r.Names()
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Names() = %v", got)
	}

	rec, err := r.Get("bob")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.BatchID != "batch" || rec.Registered.IsZero() {
		t.Errorf("record = %+v", rec)
	}
}

func TestRegistry_RootIndependentOfOrder(t *testing.T) {
	a := openMemory(t)
	b := openMemory(t)
	stageAndCommit(t, a, "x", "y", "z")
	stageAndCommit(t, b, "z")
	stageAndCommit(t, b, "y", "x")
	if a.Root() != b.Root() {
		t.Error("root depends on registration order")
	}
}

func TestRegistry_StageErrors(t *testing.T) {
	r := openMemory(t)
	stageAndCommit(t, r, "taken")

	tests := []struct {
		name  string
		names []string
		want  error
	}{
		{"empty", nil, ErrEmptyStage},
		{"duplicate", []string{"a", "a"}, ErrDuplicateName},
		{"registered", []string{"new", "taken"}, ErrAlreadyRegistered},
		{"invalid", []string{""}, token.ErrInvalidAssetName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Stage(tt.names); !errors.Is(err, tt.want) {
				t.Errorf("Stage() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_StaleStage(t *testing.T) {
	r := openMemory(t)
	s1, err := r.Stage([]string{"one"})
	if err != nil {
		t.Fatal(err)
	}
	s2, err := r.Stage([]string{"two"})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Commit(s1, "b1"); err != nil {
		t.Fatalf("Commit(s1) error: %v", err)
	}
	if err := r.Commit(s2, "b2"); !errors.Is(err, ErrStaleStage) {
		t.Errorf("Commit(s2) error = %v, want ErrStaleStage", err)
	}
	if r.Has("two") {
		t.Error("stale batch was committed")
	}
}

func TestRegistry_Proof(t *testing.T) {
	r := openMemory(t)
	stageAndCommit(t, r, "a", "b", "c", "d", "e")
	root := r.Root()

	for _, name := range r.Names() {
		path, err := r.Proof(name)
		if err != nil {
			t.Fatalf("Proof(%q) error: %v", name, err)
		}
		if !merkle.Verify(root, Leaf(name), path) {
			t.Errorf("proof for %q does not verify", name)
		}
	}

	if _, err := r.Proof("zzz"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Proof(missing) error = %v, want ErrNotRegistered", err)
	}
}

func TestRegistry_Persistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	r, err := Open(storage.NewPrefixDB(db, storage.NamespaceRegistry))
	if err != nil {
		t.Fatal(err)
	}
	s := stageAndCommit(t, r, "alice", "bob")
	db.Close()

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	r, err = Open(storage.NewPrefixDB(db, storage.NamespaceRegistry))
	if err != nil {
		t.Fatal(err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if r.Root() != s.NewRoot {
		t.Errorf("reloaded root = %s, want %s", r.Root(), s.NewRoot)
	}
}

// failingBatch stages writes but never commits them.
type failingBatch struct{ storage.Batch }

func (failingBatch) Commit() error { return errors.New("disk full") }

func TestRegistry_CommitWithSharedBatch(t *testing.T) {
	inner := storage.NewMemory()
	other := storage.NewPrefixDB(inner, storage.NamespaceUTxO)
	r, err := Open(storage.NewPrefixDB(inner, storage.NamespaceRegistry))
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Stage([]string{"alice"})
	if err != nil {
		t.Fatal(err)
	}

	b := inner.NewBatch()
	storage.Scoped(other, b).Put([]byte("spent"), []byte("x"))
	if err := r.CommitWith(s, "b1", b); err != nil {
		t.Fatalf("CommitWith() error: %v", err)
	}
	if !r.Has("alice") || r.Root() != s.NewRoot {
		t.Error("registry not updated")
	}
	if ok, _ := other.Has([]byte("spent")); !ok {
		t.Error("write from the other store was not committed")
	}
	if _, err := inner.Get([]byte("reg/n/alice")); err != nil {
		t.Errorf("record not under registry namespace: %v", err)
	}

	reopened, err := Open(storage.NewPrefixDB(inner, storage.NamespaceRegistry))
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Root() != s.NewRoot {
		t.Errorf("reopened root = %s, want %s", reopened.Root(), s.NewRoot)
	}
}

func TestRegistry_CommitWithFailedBatch(t *testing.T) {
	inner := storage.NewMemory()
	r, err := Open(storage.NewPrefixDB(inner, storage.NamespaceRegistry))
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Stage([]string{"alice"})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.CommitWith(s, "b1", failingBatch{inner.NewBatch()}); err == nil {
		t.Fatal("CommitWith() should fail when the batch does not commit")
	}
	if r.Has("alice") || r.Root() != s.OldRoot {
		t.Error("registry changed in memory after a failed commit")
	}
	if ok, _ := inner.Has([]byte("reg/n/alice")); ok {
		t.Error("record persisted after a failed commit")
	}

	// The stage is still valid and can be retried.
	if err := r.Commit(s, "b1"); err != nil {
		t.Fatalf("retry Commit() error: %v", err)
	}
}
