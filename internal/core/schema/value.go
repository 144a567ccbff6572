package schema

import (
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/pkg/bitio"
)

// EncodeValue appends the full binary form of n to w:
//
//   - boolean: one byte; int: zig-zag varint; uint: uvarint
//   - float: IEEE-754 little-endian; string, bytes: uvarint length + data
//   - optional: presence byte, then the value if present
//   - sequence: uvarint count, then each element
//   - object: every field in declared order
func EncodeValue(w *bitio.Writer, t *Type, n *Node) error {
	return encodeValue(w, t, n, RootPath)
}

func encodeValue(w *bitio.Writer, t *Type, n *Node, path string) error {
	if t.kind == KindOptional {
		w.WriteBool(n != nil)
		if n == nil {
			return nil
		}
		return encodeValue(w, t.elem, n, path)
	}
	if n == nil {
		return Mismatchf(path, "missing %s value", t.kind)
	}
	if n.kind != t.kind {
		return Mismatchf(path, "have %s, want %s", n.kind, t.kind)
	}

	switch t.kind {
	case KindBool:
		w.WriteBool(n.b)
	case KindInt:
		w.WriteVarint(n.i)
	case KindUint:
		w.WriteUvarint(n.u)
	case KindFloat:
		w.WriteFloat64(n.f)
	case KindString:
		w.WriteString(n.s)
	case KindBytes:
		w.WriteBytes(n.raw)
	case KindSequence:
		w.WriteUvarint(uint64(len(n.items)))
		for i, it := range n.items {
			if err := encodeValue(w, t.elem, it, IndexPath(path, i)); err != nil {
				return err
			}
		}
	case KindObject:
		if len(n.items) != len(t.fields) {
			return Mismatchf(path, "%s has %d fields, node has %d", t.name, len(t.fields), len(n.items))
		}
		for i, f := range t.fields {
			if err := encodeValue(w, f.Type, n.items[i], FieldPath(path, f.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeValue reads one full value of type t from r.
func DecodeValue(r *bitio.Reader, t *Type) (*Node, error) {
	n, err := decodeValue(r, t)
	if err != nil {
		return nil, domain.ErrDeltaMalformed.WithCause(err)
	}
	return n, nil
}

func decodeValue(r *bitio.Reader, t *Type) (*Node, error) {
	switch t.kind {
	case KindOptional:
		present, err := r.ReadBool()
		if err != nil || !present {
			return nil, err
		}
		return decodeValue(r, t.elem)
	case KindBool:
		v, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		return NewBool(v), nil
	case KindInt:
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		return NewInt(v), nil
	case KindUint:
		v, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		return NewUint(v), nil
	case KindFloat:
		v, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return NewFloat(v), nil
	case KindString:
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return NewString(v), nil
	case KindBytes:
		v, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindBytes, raw: v}, nil
	case KindSequence:
		count, err := r.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if err := checkCount(r, t.elem, count); err != nil {
			return nil, err
		}
		n := &Node{kind: KindSequence, items: make([]*Node, count)}
		for i := range n.items {
			if n.items[i], err = decodeValue(r, t.elem); err != nil {
				return nil, err
			}
		}
		return n, nil
	case KindObject:
		n := &Node{kind: KindObject, items: make([]*Node, len(t.fields))}
		for i, f := range t.fields {
			c, err := decodeValue(r, f.Type)
			if err != nil {
				return nil, err
			}
			n.items[i] = c
		}
		return n, nil
	}
	return nil, Mismatchf(RootPath, "unsupported type %s", t.kind)
}

// MarshalValue returns the full binary form of n.
func MarshalValue(t *Type, n *Node) ([]byte, error) {
	var w bitio.Writer
	if err := EncodeValue(&w, t, n); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UnmarshalValue decodes a full value and rejects trailing bytes.
func UnmarshalValue(t *Type, data []byte) (*Node, error) {
	r := bitio.NewReader(data)
	n, err := DecodeValue(r, t)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, domain.ErrDeltaMalformed.Detailf("%d trailing bytes", r.Remaining())
	}
	return n, nil
}

// maxZeroWidthCount bounds sequences of elements that encode to no bytes.
const maxZeroWidthCount = 1 << 16

// checkCount rejects element counts that the remaining input cannot hold.
func checkCount(r *bitio.Reader, elem *Type, count uint64) error {
	limit := uint64(r.Remaining())
	if zeroWidth(elem) {
		limit = maxZeroWidthCount
	}
	if count > limit {
		return bitio.ErrLengthOutOfRange
	}
	return nil
}

func zeroWidth(t *Type) bool {
	if t.kind != KindObject {
		return false
	}
	for _, f := range t.fields {
		if !zeroWidth(f.Type) {
			return false
		}
	}
	return true
}
