package types

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestValue_AddAsset_RemovesZero(t *testing.T) {
	class := AssetClass{Policy: PolicyID{0x01}, Name: AssetName("hal")}
	v := Lovelace(2_000_000)

	v.AddAsset(class, big.NewInt(3))
	if got := v.Quantity(class); got.Int64() != 3 {
		t.Fatalf("Quantity() = %s, want 3", got)
	}

	v.AddAsset(class, big.NewInt(-3))
	if v.HasAssets() {
		t.Error("asset entry should be removed when it reaches zero")
	}
}

func TestValue_Clone_IsDeep(t *testing.T) {
	class := AssetClass{Policy: PolicyID{0x01}, Name: AssetName("a")}
	v := Lovelace(10).WithAsset(class, big.NewInt(1))
	c := v.Clone()

	c.Lovelace.SetInt64(99)
	c.AddAsset(class, big.NewInt(5))

	if v.Lovelace.Int64() != 10 {
		t.Errorf("original lovelace mutated: %s", v.Lovelace)
	}
	if v.Quantity(class).Int64() != 1 {
		t.Errorf("original asset mutated: %s", v.Quantity(class))
	}
}

func TestValue_Add(t *testing.T) {
	a := AssetClass{Policy: PolicyID{0x01}, Name: AssetName("a")}
	b := AssetClass{Policy: PolicyID{0x02}, Name: AssetName("b")}

	sum := Lovelace(5).WithAsset(a, big.NewInt(1)).Add(Lovelace(7).WithAsset(b, big.NewInt(2)))
	want := Lovelace(12).WithAsset(a, big.NewInt(1)).WithAsset(b, big.NewInt(2))
	if !sum.Equal(want) {
		t.Errorf("Add() = %s, want %s", sum, want)
	}
}

func TestMultiAsset_CanonicalOrder(t *testing.T) {
	p1 := PolicyID{0x02}
	p0 := PolicyID{0x01}
	m := make(MultiAsset)
	m.Add(AssetClass{Policy: p1, Name: AssetName("bb")}, big.NewInt(1))
	m.Add(AssetClass{Policy: p1, Name: AssetName("a")}, big.NewInt(1))
	m.Add(AssetClass{Policy: p0, Name: AssetName("z")}, big.NewInt(1))

	classes := m.Classes()
	if len(classes) != 3 {
		t.Fatalf("Classes() len = %d, want 3", len(classes))
	}
	if classes[0].Policy != p0 {
		t.Errorf("first policy = %s, want %s", classes[0].Policy, p0)
	}
	if string(classes[1].Name) != "a" || string(classes[2].Name) != "bb" {
		t.Errorf("names under policy not in length-then-bytes order: %s, %s", classes[1].Name, classes[2].Name)
	}
}

func TestValue_JSON(t *testing.T) {
	class := AssetClass{Policy: PolicyID{0xab}, Name: AssetName("hal")}
	v := Lovelace(1_500_000).WithAsset(class, big.NewInt(1))

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Value
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("JSON roundtrip = %s, want %s", got, v)
	}
}

func TestParseAssetClass(t *testing.T) {
	class := AssetClass{Policy: PolicyID{0xab}, Name: AssetName("hal")}

	for _, unit := range []string{class.Unit(), class.Policy.String() + class.Name.Hex()} {
		got, err := ParseAssetClass(unit)
		if err != nil {
			t.Fatalf("ParseAssetClass(%q) error: %v", unit, err)
		}
		if !got.Equal(class) {
			t.Errorf("ParseAssetClass(%q) = %s, want %s", unit, got, class)
		}
	}

	if _, err := ParseAssetClass("abcd"); err == nil {
		t.Error("short unit should fail")
	}
}
