package types

import (
	"sort"
	"strings"
	"testing"
)

func TestOutpoint_IsZero(t *testing.T) {
	var zero Outpoint
	if !zero.IsZero() {
		t.Error("zero-value Outpoint should be zero")
	}

	nonZero := Outpoint{TxID: Hash{0x01}, Index: 0}
	if nonZero.IsZero() {
		t.Error("Outpoint with non-zero TxID should not be zero")
	}

	nonZero2 := Outpoint{TxID: Hash{}, Index: 1}
	if nonZero2.IsZero() {
		t.Error("Outpoint with non-zero Index should not be zero")
	}
}

func TestOutpoint_String(t *testing.T) {
	o := Outpoint{TxID: Hash{0xab}, Index: 3}
	s := o.String()

	if !strings.HasPrefix(s, "ab") {
		t.Errorf("String() should start with txid hex, got %s", s)
	}
	if !strings.HasSuffix(s, "#3") {
		t.Errorf("String() should end with '#3', got %s", s)
	}
}

func TestOutpoint_Compare_NumericIndex(t *testing.T) {
	// "#10" sorts before "#2" as a string; the ledger compares numerically.
	a := Outpoint{TxID: Hash{0x01}, Index: 2}
	b := Outpoint{TxID: Hash{0x01}, Index: 10}
	if a.Compare(b) != -1 {
		t.Errorf("Compare(#2, #10) = %d, want -1", a.Compare(b))
	}
	if strings.Compare(a.String(), b.String()) != 1 {
		t.Fatal("test premise: string order should differ from ledger order")
	}
}

func TestOutpoint_Compare_TxIDFirst(t *testing.T) {
	ops := []Outpoint{
		{TxID: Hash{0x03}, Index: 0},
		{TxID: Hash{0x01}, Index: 5},
		{TxID: Hash{0x02}, Index: 1},
		{TxID: Hash{0x01}, Index: 1},
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Compare(ops[j]) < 0 })

	want := []Outpoint{
		{TxID: Hash{0x01}, Index: 1},
		{TxID: Hash{0x01}, Index: 5},
		{TxID: Hash{0x02}, Index: 1},
		{TxID: Hash{0x03}, Index: 0},
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestParseOutpoint(t *testing.T) {
	o := Outpoint{TxID: Hash{0xaa, 0xbb}, Index: 7}

	for _, s := range []string{o.String(), o.TxID.String() + ":7"} {
		got, err := ParseOutpoint(s)
		if err != nil {
			t.Fatalf("ParseOutpoint(%q) error: %v", s, err)
		}
		if got != o {
			t.Errorf("ParseOutpoint(%q) = %s, want %s", s, got, o)
		}
	}

	for _, bad := range []string{"", "abcd", o.TxID.String() + "#x", "zz#1"} {
		if _, err := ParseOutpoint(bad); err == nil {
			t.Errorf("ParseOutpoint(%q) should fail", bad)
		}
	}
}
