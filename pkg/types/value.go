package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
)

// MultiAsset maps policy -> asset name (raw bytes as string key) -> quantity.
// Negative quantities only appear in mint fields (burns).
type MultiAsset map[PolicyID]map[string]*big.Int

// Value is an amount of lovelace plus native assets. All amounts are
// arbitrary precision integers.
type Value struct {
	Lovelace *big.Int
	Assets   MultiAsset
}

// NewValue returns a value holding the given lovelace and no assets.
func NewValue(lovelace *big.Int) Value {
	l := new(big.Int)
	if lovelace != nil {
		l.Set(lovelace)
	}
	return Value{Lovelace: l}
}

// Lovelace is shorthand for NewValue(big.NewInt(n)).
func Lovelace(n int64) Value {
	return NewValue(big.NewInt(n))
}

// WithAsset returns a copy of v holding qty more of the given asset.
func (v Value) WithAsset(class AssetClass, qty *big.Int) Value {
	out := v.Clone()
	out.AddAsset(class, qty)
	return out
}

// AddAsset adds qty of the asset to v in place. Entries that reach zero are
// removed.
func (v *Value) AddAsset(class AssetClass, qty *big.Int) {
	if v.Assets == nil {
		v.Assets = make(MultiAsset)
	}
	v.Assets.Add(class, qty)
}

// Quantity returns the held quantity of an asset (zero if absent).
func (v Value) Quantity(class AssetClass) *big.Int {
	return v.Assets.Quantity(class)
}

// HasAssets reports whether v carries any native asset.
func (v Value) HasAssets() bool {
	return len(v.Assets) > 0
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := NewValue(v.Lovelace)
	if v.Assets != nil {
		out.Assets = v.Assets.Clone()
	}
	return out
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	out := v.Clone()
	if o.Lovelace != nil {
		out.Lovelace.Add(out.Lovelace, o.Lovelace)
	}
	for policy, names := range o.Assets {
		for name, qty := range names {
			out.AddAsset(AssetClass{Policy: policy, Name: AssetName(name)}, qty)
		}
	}
	return out
}

// Equal reports whether v and o hold exactly the same amounts.
func (v Value) Equal(o Value) bool {
	lv, lo := v.Lovelace, o.Lovelace
	if lv == nil {
		lv = new(big.Int)
	}
	if lo == nil {
		lo = new(big.Int)
	}
	if lv.Cmp(lo) != 0 {
		return false
	}
	return v.Assets.Equal(o.Assets)
}

// String returns a compact human-readable form.
func (v Value) String() string {
	l := v.Lovelace
	if l == nil {
		l = new(big.Int)
	}
	if !v.HasAssets() {
		return fmt.Sprintf("%s lovelace", l)
	}
	return fmt.Sprintf("%s lovelace + %d asset(s)", l, v.Assets.Count())
}

// valueJSON is the JSON representation of a Value.
type valueJSON struct {
	Lovelace *big.Int            `json:"lovelace"`
	Assets   map[string]*big.Int `json:"assets,omitempty"`
}

// MarshalJSON encodes the value with "policy.name" asset keys.
func (v Value) MarshalJSON() ([]byte, error) {
	j := valueJSON{Lovelace: v.Lovelace}
	if j.Lovelace == nil {
		j.Lovelace = new(big.Int)
	}
	for _, class := range v.Assets.Classes() {
		if j.Assets == nil {
			j.Assets = make(map[string]*big.Int)
		}
		j.Assets[class.Unit()] = v.Assets.Quantity(class)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a value written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var j valueJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*v = NewValue(j.Lovelace)
	for unit, qty := range j.Assets {
		class, err := ParseAssetClass(unit)
		if err != nil {
			return err
		}
		v.AddAsset(class, qty)
	}
	return nil
}

// Add adds qty of class in place, dropping entries that reach zero.
func (m MultiAsset) Add(class AssetClass, qty *big.Int) {
	if qty == nil || qty.Sign() == 0 {
		return
	}
	names, ok := m[class.Policy]
	if !ok {
		names = make(map[string]*big.Int)
		m[class.Policy] = names
	}
	key := string(class.Name)
	cur, ok := names[key]
	if !ok {
		cur = new(big.Int)
		names[key] = cur
	}
	cur.Add(cur, qty)
	if cur.Sign() == 0 {
		delete(names, key)
		if len(names) == 0 {
			delete(m, class.Policy)
		}
	}
}

// Quantity returns the quantity of class (zero if absent).
func (m MultiAsset) Quantity(class AssetClass) *big.Int {
	if names, ok := m[class.Policy]; ok {
		if q, ok := names[string(class.Name)]; ok {
			return new(big.Int).Set(q)
		}
	}
	return new(big.Int)
}

// Count returns the number of distinct asset classes.
func (m MultiAsset) Count() int {
	n := 0
	for _, names := range m {
		n += len(names)
	}
	return n
}

// Clone returns a deep copy.
func (m MultiAsset) Clone() MultiAsset {
	out := make(MultiAsset, len(m))
	for policy, names := range m {
		cp := make(map[string]*big.Int, len(names))
		for name, qty := range names {
			cp[name] = new(big.Int).Set(qty)
		}
		out[policy] = cp
	}
	return out
}

// Equal reports whether both maps hold identical quantities.
func (m MultiAsset) Equal(o MultiAsset) bool {
	if m.Count() != o.Count() {
		return false
	}
	for policy, names := range m {
		for name, qty := range names {
			if o.Quantity(AssetClass{Policy: policy, Name: AssetName(name)}).Cmp(qty) != 0 {
				return false
			}
		}
	}
	return true
}

// Policies returns the policy ids in canonical (bytewise) order.
func (m MultiAsset) Policies() []PolicyID {
	out := make([]PolicyID, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// Names returns the asset names under policy in canonical order
// (shorter first, then bytewise).
func (m MultiAsset) Names(policy PolicyID) []AssetName {
	names := m[policy]
	out := make([]AssetName, 0, len(names))
	for n := range names {
		out = append(out, AssetName(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return bytes.Compare(out[i], out[j]) < 0
	})
	return out
}

// Classes returns every asset class in canonical order.
func (m MultiAsset) Classes() []AssetClass {
	var out []AssetClass
	for _, p := range m.Policies() {
		for _, n := range m.Names(p) {
			out = append(out, AssetClass{Policy: p, Name: n})
		}
	}
	return out
}
