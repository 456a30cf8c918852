package plutus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// CBOR major types.
const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
)

// Constructor tag ranges (CIP-0005 compact encoding).
const (
	tagConstrSmall     = 121  // constructors 0..6
	tagConstrMedium    = 1280 // constructors 7..127
	tagConstrGeneral   = 102  // [index, fields] for any index
	tagPositiveBignum  = 2
	tagNegativeBignum  = 3
	maxSmallConstr     = 6
	maxMediumConstr    = 127
	maxMediumConstrTag = tagConstrMedium + maxMediumConstr - 7
)

// ErrMalformed is returned for CBOR that is not valid Plutus data.
var ErrMalformed = errors.New("malformed plutus data")

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{BigIntConvert: cbor.BigIntConvertShortest}.EncMode()
	if err != nil {
		panic(err)
	}
}

// Encode serializes d to CBOR.
func Encode(d Data) ([]byte, error) {
	v, err := toCBOR(d)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(v)
}

// MustEncode is like Encode but panics on error. Intended for fixed
// redeemers and tests.
func MustEncode(d Data) []byte {
	b, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return b
}

// RawMessage returns the CBOR of d for embedding in larger structures.
func RawMessage(d Data) (cbor.RawMessage, error) {
	b, err := Encode(d)
	if err != nil {
		return nil, err
	}
	return cbor.RawMessage(b), nil
}

func toCBOR(d Data) (interface{}, error) {
	switch v := d.(type) {
	case Constr:
		fields, err := listToCBOR(v.Fields)
		if err != nil {
			return nil, err
		}
		switch {
		case v.Index <= maxSmallConstr:
			return cbor.Tag{Number: tagConstrSmall + v.Index, Content: fields}, nil
		case v.Index <= maxMediumConstr:
			return cbor.Tag{Number: tagConstrMedium + v.Index - 7, Content: fields}, nil
		default:
			return cbor.Tag{Number: tagConstrGeneral, Content: []interface{}{v.Index, fields}}, nil
		}
	case Int:
		if v.Value == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrMalformed)
		}
		return v.Value, nil
	case Bytes:
		return []byte(v), nil
	case List:
		return listToCBOR(v)
	case Map:
		return mapToCBOR(v)
	case nil:
		return nil, fmt.Errorf("%w: nil data", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrMalformed, d)
	}
}

func listToCBOR(items []Data) ([]interface{}, error) {
	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := toCBOR(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// mapToCBOR writes the map by hand so entry order survives; Go maps would
// be reordered by the encoder.
func mapToCBOR(m Map) (cbor.RawMessage, error) {
	buf := appendHead(nil, majorMap, uint64(len(m)))
	for i, p := range m {
		k, err := Encode(p.Key)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		v, err := Encode(p.Value)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		buf = append(buf, k...)
		buf = append(buf, v...)
	}
	return cbor.RawMessage(buf), nil
}

func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|24, byte(n))
	case n <= 0xffff:
		return binary.BigEndian.AppendUint16(append(buf, m|25), uint16(n))
	case n <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(buf, m|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(buf, m|27), n)
	}
}

// Decode parses CBOR into Plutus data. Trailing bytes are rejected.
func Decode(b []byte) (Data, error) {
	d, rest, err := decodeItem(b, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return d, nil
}

// maxDepth bounds nesting so hostile datums cannot exhaust the stack.
const maxDepth = 128

type head struct {
	major      byte
	arg        uint64
	indefinite bool
	size       int
}

func readHead(b []byte) (head, error) {
	if len(b) == 0 {
		return head{}, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	h := head{major: b[0] >> 5, size: 1}
	info := b[0] & 0x1f
	need := func(n int) error {
		if len(b) < 1+n {
			return fmt.Errorf("%w: truncated header", ErrMalformed)
		}
		h.size = 1 + n
		return nil
	}
	switch {
	case info < 24:
		h.arg = uint64(info)
	case info == 24:
		if err := need(1); err != nil {
			return head{}, err
		}
		h.arg = uint64(b[1])
	case info == 25:
		if err := need(2); err != nil {
			return head{}, err
		}
		h.arg = uint64(binary.BigEndian.Uint16(b[1:]))
	case info == 26:
		if err := need(4); err != nil {
			return head{}, err
		}
		h.arg = uint64(binary.BigEndian.Uint32(b[1:]))
	case info == 27:
		if err := need(8); err != nil {
			return head{}, err
		}
		h.arg = binary.BigEndian.Uint64(b[1:])
	case info == 31:
		h.indefinite = true
	default:
		return head{}, fmt.Errorf("%w: reserved additional info %d", ErrMalformed, info)
	}
	return h, nil
}

func decodeItem(b []byte, depth int) (Data, []byte, error) {
	if depth > maxDepth {
		return nil, nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}
	h, err := readHead(b)
	if err != nil {
		return nil, nil, err
	}

	switch h.major {
	case majorUint, majorNegInt:
		if h.indefinite {
			return nil, nil, fmt.Errorf("%w: indefinite integer", ErrMalformed)
		}
		n := new(big.Int).SetUint64(h.arg)
		if h.major == majorNegInt {
			n.Neg(n).Sub(n, big.NewInt(1))
		}
		return Int{Value: n}, b[h.size:], nil

	case majorBytes:
		var bs []byte
		rest, err := cbor.UnmarshalFirst(b, &bs)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if bs == nil {
			bs = []byte{}
		}
		return Bytes(bs), rest, nil

	case majorArray:
		items, rest, err := decodeItems(b, h, 1, depth)
		if err != nil {
			return nil, nil, err
		}
		list := make(List, len(items))
		copy(list, items)
		return list, rest, nil

	case majorMap:
		items, rest, err := decodeItems(b, h, 2, depth)
		if err != nil {
			return nil, nil, err
		}
		m := make(Map, 0, len(items)/2)
		for i := 0; i < len(items); i += 2 {
			m = append(m, Pair{Key: items[i], Value: items[i+1]})
		}
		return m, rest, nil

	case majorTag:
		return decodeTag(b, h, depth)

	default:
		return nil, nil, fmt.Errorf("%w: unsupported major type %d", ErrMalformed, h.major)
	}
}

// decodeItems reads the elements of an array (width 1) or map (width 2).
func decodeItems(b []byte, h head, width int, depth int) ([]Data, []byte, error) {
	rest := b[h.size:]
	var items []Data

	if h.indefinite {
		for {
			if len(rest) == 0 {
				return nil, nil, fmt.Errorf("%w: missing break", ErrMalformed)
			}
			if rest[0] == 0xff {
				rest = rest[1:]
				break
			}
			item, next, err := decodeItem(rest, depth+1)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, item)
			rest = next
		}
		if len(items)%width != 0 {
			return nil, nil, fmt.Errorf("%w: odd number of map items", ErrMalformed)
		}
		return items, rest, nil
	}

	if h.arg > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("%w: length %d exceeds input", ErrMalformed, h.arg)
	}
	total := h.arg * uint64(width)
	items = make([]Data, 0, total)
	for i := uint64(0); i < total; i++ {
		item, next, err := decodeItem(rest, depth+1)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
		rest = next
	}
	return items, rest, nil
}

func decodeTag(b []byte, h head, depth int) (Data, []byte, error) {
	if h.indefinite {
		return nil, nil, fmt.Errorf("%w: indefinite tag", ErrMalformed)
	}
	num := h.arg

	switch {
	case num == tagPositiveBignum || num == tagNegativeBignum:
		var n big.Int
		rest, err := cbor.UnmarshalFirst(b, &n)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bignum: %v", ErrMalformed, err)
		}
		return Int{Value: &n}, rest, nil

	case num >= tagConstrSmall && num <= tagConstrSmall+maxSmallConstr:
		return decodeConstrFields(b[h.size:], num-tagConstrSmall, depth)

	case num >= tagConstrMedium && num <= maxMediumConstrTag:
		return decodeConstrFields(b[h.size:], num-tagConstrMedium+7, depth)

	case num == tagConstrGeneral:
		content, rest, err := decodeItem(b[h.size:], depth+1)
		if err != nil {
			return nil, nil, err
		}
		pair, ok := content.(List)
		if !ok || len(pair) != 2 {
			return nil, nil, fmt.Errorf("%w: tag 102 expects [index, fields]", ErrMalformed)
		}
		idx, err := AsInt(pair[0])
		if err != nil || idx.Sign() < 0 || !idx.IsUint64() {
			return nil, nil, fmt.Errorf("%w: bad constructor index", ErrMalformed)
		}
		fields, ok := pair[1].(List)
		if !ok {
			return nil, nil, fmt.Errorf("%w: constructor fields must be a list", ErrMalformed)
		}
		return Constr{Index: idx.Uint64(), Fields: []Data(fields)}, rest, nil

	default:
		return nil, nil, fmt.Errorf("%w: unsupported tag %d", ErrMalformed, num)
	}
}

func decodeConstrFields(b []byte, index uint64, depth int) (Data, []byte, error) {
	content, rest, err := decodeItem(b, depth+1)
	if err != nil {
		return nil, nil, err
	}
	fields, ok := content.(List)
	if !ok {
		return nil, nil, fmt.Errorf("%w: constructor %d fields must be a list", ErrMalformed, index)
	}
	return Constr{Index: index, Fields: []Data(fields)}, rest, nil
}
