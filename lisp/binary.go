package lisp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// This file contains the format for binary encoding of parsed S-expression
// trees. Only parse-time node kinds are encodable: nil, bool, int, float64,
// string, Symbol, and List. Closures and memoized cells exist only at
// evaluation time and refuse to encode.
//
// Symbols are written as their literal plus a builtin flag and re-interned
// through the decoding Provider, so a tree decoded into a Provider seeded
// with CoreSymbols gets the reserved singletons back by identity.

const (
	tagNil byte = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagSymbol
	tagList
)

// Tree wraps a parsed S-expression together with the Provider its symbols
// live in, giving it an encoding.BinaryMarshaler/BinaryUnmarshaler surface
// for use with REZI and anything else speaking those interfaces.
type Tree struct {
	Root    any
	Symbols *Provider
}

func (t Tree) MarshalBinary() ([]byte, error) {
	return EncodeTree(t.Symbols, t.Root)
}

func (t *Tree) UnmarshalBinary(data []byte) error {
	if t.Symbols == nil {
		t.Symbols = NewProvider(CoreSymbols())
	}
	root, err := DecodeTree(t.Symbols, data)
	if err != nil {
		return err
	}
	t.Root = root
	return nil
}

// EncodeTree encodes a parsed tree to bytes. Symbol literals resolve through
// the given Provider, which must be the one the tree was parsed with. A node
// that only exists at evaluation time (a closure, a memoized cell) or an
// opaque host value returns an error.
func EncodeTree(symbols *Provider, root any) ([]byte, error) {
	return encNode(symbols, nil, root)
}

func encNode(symbols *Provider, buf []byte, node any) ([]byte, error) {
	switch v := node.(type) {
	case nil:
		return append(buf, tagNil), nil
	case bool:
		buf = append(buf, tagBool)
		if v {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case int:
		buf = append(buf, tagInt)
		return binary.AppendVarint(buf, int64(v)), nil
	case float64:
		buf = append(buf, tagFloat)
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(v)), nil
	case string:
		buf = append(buf, tagString)
		return encString(buf, v), nil
	case *Symbol:
		buf = append(buf, tagSymbol)
		buf = encString(buf, symbols.NameOf(v))
		if v.IsBuiltin() {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case *List:
		buf = append(buf, tagList)
		buf = binary.AppendVarint(buf, int64(len(v.Items)))
		var err error
		for i := range v.Items {
			buf, err = encNode(symbols, buf, v.Items[i])
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("cannot encode %T node; only parse-time nodes are encodable", node)
	}
}

func encString(buf []byte, s string) []byte {
	buf = binary.AppendVarint(buf, int64(len(s)))
	return append(buf, s...)
}

// DecodeTree decodes a tree previously produced by EncodeTree, interning
// symbol literals through the given Provider. Decoding must consume the data
// exactly; leftover bytes are an error.
func DecodeTree(symbols *Provider, data []byte) (any, error) {
	node, n, err := decNode(symbols, data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("decoded byte count mismatch; only consumed %d/%d bytes", n, len(data))
	}
	return node, nil
}

func decNode(symbols *Provider, data []byte) (node any, n int, err error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("unexpected end of data")
	}

	tag := data[0]
	rest := data[1:]
	n = 1

	switch tag {
	case tagNil:
		return nil, n, nil
	case tagBool:
		if len(rest) < 1 {
			return nil, 0, fmt.Errorf("unexpected end of data in bool node")
		}
		return rest[0] == 1, n + 1, nil
	case tagInt:
		iv, vn := binary.Varint(rest)
		if vn <= 0 {
			return nil, 0, fmt.Errorf("malformed varint in int node")
		}
		return int(iv), n + vn, nil
	case tagFloat:
		if len(rest) < 8 {
			return nil, 0, fmt.Errorf("unexpected end of data in float node")
		}
		return math.Float64frombits(binary.BigEndian.Uint64(rest)), n + 8, nil
	case tagString:
		s, sn, err := decString(rest)
		if err != nil {
			return nil, 0, err
		}
		return s, n + sn, nil
	case tagSymbol:
		literal, sn, err := decString(rest)
		if err != nil {
			return nil, 0, err
		}
		rest = rest[sn:]
		if len(rest) < 1 {
			return nil, 0, fmt.Errorf("unexpected end of data in symbol node")
		}
		return symbols.Intern(literal, rest[0] == 1), n + sn + 1, nil
	case tagList:
		count, vn := binary.Varint(rest)
		if vn <= 0 || count < 0 {
			return nil, 0, fmt.Errorf("malformed item count in list node")
		}
		n += vn
		rest = rest[vn:]
		items := make([]any, 0, count)
		for i := int64(0); i < count; i++ {
			item, in, err := decNode(symbols, rest)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, item)
			rest = rest[in:]
			n += in
		}
		return &List{Items: items}, n, nil
	default:
		return nil, 0, fmt.Errorf("unknown node tag %#02x", tag)
	}
}

func decString(data []byte) (string, int, error) {
	strLen, vn := binary.Varint(data)
	if vn <= 0 || strLen < 0 {
		return "", 0, fmt.Errorf("malformed string length")
	}
	data = data[vn:]
	if int64(len(data)) < strLen {
		return "", 0, fmt.Errorf("unexpected end of data in string node")
	}
	return string(data[:strLen]), vn + int(strLen), nil
}
