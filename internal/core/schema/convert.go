package schema

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
)

// FromAny builds a node of type t from a JSON-like value: map[string]any,
// []any, bool, string, the Go integer types, float64 and json.Number.
// Bytes are accepted as []byte or a standard base64 string. Absent or nil
// optional fields become nil nodes.
func FromAny(t *Type, v any) (*Node, error) {
	return fromAny(t, v, RootPath)
}

func fromAny(t *Type, v any, path string) (*Node, error) {
	if t.kind == KindOptional {
		if v == nil {
			return nil, nil
		}
		return fromAny(t.elem, v, path)
	}
	if v == nil {
		return nil, Mismatchf(path, "missing %s value", t.kind)
	}

	switch t.kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, Mismatchf(path, "want boolean, have %T", v)
		}
		return NewBool(b), nil
	case KindInt:
		i, err := toInt64(v)
		if err != nil {
			return nil, Mismatchf(path, "%v", err)
		}
		return NewInt(i), nil
	case KindUint:
		u, err := toUint64(v)
		if err != nil {
			return nil, Mismatchf(path, "%v", err)
		}
		return NewUint(u), nil
	case KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, Mismatchf(path, "%v", err)
		}
		return NewFloat(f), nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, Mismatchf(path, "want string, have %T", v)
		}
		return NewString(s), nil
	case KindBytes:
		switch b := v.(type) {
		case []byte:
			return NewBytes(b), nil
		case string:
			raw, err := base64.StdEncoding.DecodeString(b)
			if err != nil {
				return nil, Mismatchf(path, "bytes: %v", err)
			}
			return &Node{kind: KindBytes, raw: raw}, nil
		}
		return nil, Mismatchf(path, "want bytes, have %T", v)
	case KindSequence:
		list, ok := v.([]any)
		if !ok {
			return nil, Mismatchf(path, "want array, have %T", v)
		}
		n := &Node{kind: KindSequence, items: make([]*Node, len(list))}
		for i, it := range list {
			c, err := fromAny(t.elem, it, IndexPath(path, i))
			if err != nil {
				return nil, err
			}
			n.items[i] = c
		}
		return n, nil
	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, Mismatchf(path, "want object, have %T", v)
		}
		for k := range m {
			if _, known := t.index[k]; !known {
				return nil, Mismatchf(FieldPath(path, k), "unexpected field")
			}
		}
		n := &Node{kind: KindObject, items: make([]*Node, len(t.fields))}
		for i, f := range t.fields {
			c, err := fromAny(f.Type, m[f.Name], FieldPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			n.items[i] = c
		}
		return n, nil
	}
	return nil, Mismatchf(path, "unsupported type %s", t.kind)
}

// ToAny converts a node of type t back to a JSON-like value. Absent
// optionals map to nil; objects map to map[string]any.
func ToAny(t *Type, n *Node) any {
	if n == nil {
		return nil
	}
	if t.kind == KindOptional {
		return ToAny(t.elem, n)
	}
	switch t.kind {
	case KindBool:
		return n.b
	case KindInt:
		return n.i
	case KindUint:
		return n.u
	case KindFloat:
		return n.f
	case KindString:
		return n.s
	case KindBytes:
		return n.raw
	case KindSequence:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = ToAny(t.elem, it)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(t.fields))
		for i, f := range t.fields {
			if i < len(n.items) {
				out[f.Name] = ToAny(f.Type, n.items[i])
			}
		}
		return out
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, errOutOfRange(x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, errNotInteger(x)
		}
		return int64(x), nil
	case json.Number:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return 0, errWrongType("int", v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, errOutOfRange(x)
		}
		return uint64(x), nil
	case int64:
		if x < 0 {
			return 0, errOutOfRange(x)
		}
		return uint64(x), nil
	case uint64:
		return x, nil
	case float64:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxUint64 {
			return 0, errNotInteger(x)
		}
		return uint64(x), nil
	case json.Number:
		return strconv.ParseUint(string(x), 10, 64)
	}
	return 0, errWrongType("uint", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	return 0, errWrongType("float", v)
}
