package plutus

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

func TestEncode_KnownVectors(t *testing.T) {
	twoTo64 := new(big.Int).Lsh(big.NewInt(1), 64)

	tests := []struct {
		name string
		data Data
		want string
	}{
		{"void", Void(), "d87980"},
		{"constr 1", NewConstr(1), "d87a80"},
		{"constr 7 medium tag", NewConstr(7), "d9050080"},
		{"constr 200 general tag", NewConstr(200), "d8668218c880"},
		{"small int", NewInt(5), "05"},
		{"negative int", NewInt(-1), "20"},
		{"bignum", NewBigInt(twoTo64), "c249010000000000000000"},
		{"bytes", Bytes{0xab}, "41ab"},
		{"list", List{NewInt(1), NewInt(2)}, "820102"},
		{"map keeps order", Map{{Key: Bytes("b"), Value: NewInt(1)}, {Key: Bytes("a"), Value: NewInt(2)}}, "a2416201416102"},
		{"constr with fields", NewConstr(0, Bytes{0x01}, NewInt(3)), "d87982410103"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHex(tt.data)
			if err != nil {
				t.Fatalf("ToHex() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToHex() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecode_Roundtrip(t *testing.T) {
	d := NewConstr(0,
		Map{TextPair("name", "$alice"), TextPair("image", "ipfs://x")},
		NewInt(2),
		List{NewConstr(9, NewInt(-42)), Bytes{}},
		NewBigInt(new(big.Int).Lsh(big.NewInt(1), 80)),
	)

	enc, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	dec, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !Equal(d, dec) {
		t.Errorf("roundtrip mismatch")
	}
}

func TestDecode_IndefiniteForms(t *testing.T) {
	// Constr 0 with an indefinite field list [1, 2].
	raw, _ := hex.DecodeString("d8799f0102ff")
	d, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	c, err := AsConstr(d, 0, 2)
	if err != nil {
		t.Fatalf("AsConstr() error: %v", err)
	}
	n, _ := AsInt(c.Fields[1])
	if n.Int64() != 2 {
		t.Errorf("field[1] = %s, want 2", n)
	}

	// Chunked byte string "ab" + "cd".
	raw, _ = hex.DecodeString("5f41ab41cdff")
	d, err = Decode(raw)
	if err != nil {
		t.Fatalf("Decode(chunked) error: %v", err)
	}
	b, _ := AsBytes(d)
	if hex.EncodeToString(b) != "abcd" {
		t.Errorf("chunked bytes = %x, want abcd", b)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{"empty", ""},
		{"text string", "6161"},
		{"trailing bytes", "0102"},
		{"truncated list", "8301"},
		{"unknown tag", "d9010080"},
		{"constr without list", "d87901"},
		{"missing break", "9f01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := hex.DecodeString(tt.hex)
			if err != nil {
				t.Fatalf("bad test hex: %v", err)
			}
			if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%s) error = %v, want ErrMalformed", tt.hex, err)
			}
		})
	}
}

func TestEncode_NilRejected(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("Encode(nil) should fail")
	}
	if _, err := Encode(Int{}); err == nil {
		t.Error("Encode(Int{}) should fail")
	}
}
