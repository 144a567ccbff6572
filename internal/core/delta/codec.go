package delta

import (
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
	"github.com/yndnr/tickstate-go/pkg/bitio"
)

// Wire op bytes. Only fields of optional, object and sequence type carry
// one; a set primitive field is always a replacement.
const (
	wireReplace byte = 1
	wirePatch   byte = 2
	wireClear   byte = 3
)

// Encoder encodes deltas into a reused buffer. It is not safe for
// concurrent use.
type Encoder struct {
	w bitio.Writer
}

// NewEncoder returns an Encoder with an initial buffer of capacity bytes.
func NewEncoder(capacity int) *Encoder {
	return &Encoder{w: *bitio.NewWriter(capacity)}
}

// Encode encodes d. The returned slice is owned by the Encoder and is only
// valid until the next call.
func (e *Encoder) Encode(t *schema.Type, d Delta) ([]byte, error) {
	e.w.Reset()
	if err := encodeRoot(&e.w, t, d); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// Encode returns the wire form of the root delta d of object type t:
//
//	[bit-vector over fields, MSB-first][encoded set fields in order]
func Encode(t *schema.Type, d Delta) ([]byte, error) {
	return AppendEncode(nil, t, d)
}

// AppendEncode appends the wire form of d to dst.
func AppendEncode(dst []byte, t *schema.Type, d Delta) ([]byte, error) {
	w := bitio.AppendWriter(dst)
	if err := encodeRoot(w, t, d); err != nil {
		return dst, err
	}
	return w.Bytes(), nil
}

func encodeRoot(w *bitio.Writer, t *schema.Type, d Delta) error {
	if t.Kind() != schema.KindObject {
		return schema.Mismatchf(schema.RootPath, "root type is %s, want object", t.Kind())
	}
	switch d.Op {
	case OpUnchanged:
		w.ReserveBits(t.NumField())
		return nil
	case OpPatch:
		return writeFields(w, t, d, schema.RootPath)
	}
	return schema.Mismatchf(schema.RootPath, "root delta must be a patch, have %s", d.Op)
}

func writeFields(w *bitio.Writer, t *schema.Type, d Delta, path string) error {
	if d.Items != nil || len(d.Fields) != t.NumField() {
		return schema.Mismatchf(path, "%s delta has %d fields, want %d", t.Name(), len(d.Fields), t.NumField())
	}
	off := w.ReserveBits(len(d.Fields))
	for i, fd := range d.Fields {
		if fd.Op != OpUnchanged {
			w.SetBit(off, i)
		}
	}
	for i, fd := range d.Fields {
		if fd.Op == OpUnchanged {
			continue
		}
		f := t.Field(i)
		if err := writeField(w, f.Type, fd, schema.FieldPath(path, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func writeField(w *bitio.Writer, t *schema.Type, d Delta, path string) error {
	if t.Kind().IsPrimitive() {
		if d.Op != OpReplace {
			return schema.Mismatchf(path, "%s field with %s delta", t.Kind(), d.Op)
		}
		return schema.EncodeValue(w, t, d.Value)
	}

	inner := t
	if t.Kind() == schema.KindOptional {
		inner = t.Elem()
	}
	switch d.Op {
	case OpReplace:
		if d.Value == nil {
			return schema.Mismatchf(path, "replacement without value")
		}
		w.WriteUint8(wireReplace)
		return schema.EncodeValue(w, inner, d.Value)
	case OpPatch:
		w.WriteUint8(wirePatch)
		return writePatch(w, inner, d, path)
	case OpClear:
		if t.Kind() != schema.KindOptional {
			return schema.Mismatchf(path, "clear on non-optional %s", t.Kind())
		}
		w.WriteUint8(wireClear)
		return nil
	}
	return schema.Mismatchf(path, "unknown op %s", d.Op)
}

func writePatch(w *bitio.Writer, t *schema.Type, d Delta, path string) error {
	switch t.Kind() {
	case schema.KindObject:
		return writeFields(w, t, d, path)
	case schema.KindSequence:
		if d.Fields != nil {
			return schema.Mismatchf(path, "object delta on sequence")
		}
		w.WriteUvarint(uint64(len(d.Items)))
		off := w.ReserveBits(len(d.Items))
		for i, it := range d.Items {
			if it.Op != OpUnchanged {
				w.SetBit(off, i)
			}
		}
		for i, it := range d.Items {
			if it.Op == OpUnchanged {
				continue
			}
			if err := writeField(w, t.Elem(), it, schema.IndexPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return schema.Mismatchf(path, "partial delta on %s", t.Kind())
}

// Decode parses the wire form produced by Encode. Fields whose bit is
// unset decode as OpUnchanged. Malformed or truncated input fails with
// domain.ErrDeltaMalformed.
func Decode(t *schema.Type, data []byte) (Delta, error) {
	if t.Kind() != schema.KindObject {
		return Delta{}, schema.Mismatchf(schema.RootPath, "root type is %s, want object", t.Kind())
	}
	r := bitio.NewReader(data)
	d, err := readFields(r, t)
	if err != nil {
		if !domain.IsDomainError(err, "") {
			err = domain.ErrDeltaMalformed.WithCause(err)
		}
		return Delta{}, err
	}
	if r.Remaining() != 0 {
		return Delta{}, domain.ErrDeltaMalformed.Detailf("%d trailing bytes", r.Remaining())
	}
	return d, nil
}

func readFields(r *bitio.Reader, t *schema.Type) (Delta, error) {
	n := t.NumField()
	vec, err := r.ReadBits(n)
	if err != nil {
		return Delta{}, err
	}
	fields := make([]Delta, n)
	for i := range fields {
		if !bitio.BitAt(vec, i) {
			continue
		}
		if fields[i], err = readField(r, t.Field(i).Type); err != nil {
			return Delta{}, err
		}
	}
	return Delta{Op: OpPatch, Fields: fields}, nil
}

func readField(r *bitio.Reader, t *schema.Type) (Delta, error) {
	if t.Kind().IsPrimitive() {
		v, err := schema.DecodeValue(r, t)
		if err != nil {
			return Delta{}, err
		}
		return Replace(v), nil
	}

	inner := t
	if t.Kind() == schema.KindOptional {
		inner = t.Elem()
	}
	op, err := r.ReadUint8()
	if err != nil {
		return Delta{}, err
	}
	switch op {
	case wireReplace:
		v, err := schema.DecodeValue(r, inner)
		if err != nil {
			return Delta{}, err
		}
		if v == nil {
			return Delta{}, domain.ErrDeltaMalformed.WithDetails("replacement decoded to absent value")
		}
		return Replace(v), nil
	case wirePatch:
		return readPatch(r, inner)
	case wireClear:
		if t.Kind() != schema.KindOptional {
			return Delta{}, domain.ErrDeltaMalformed.Detailf("clear on non-optional %s", t.Kind())
		}
		return Clear(), nil
	}
	return Delta{}, domain.ErrDeltaMalformed.Detailf("unknown op byte 0x%02x", op)
}

func readPatch(r *bitio.Reader, t *schema.Type) (Delta, error) {
	switch t.Kind() {
	case schema.KindObject:
		return readFields(r, t)
	case schema.KindSequence:
		count, err := r.ReadUvarint()
		if err != nil {
			return Delta{}, err
		}
		if count > uint64(r.Remaining())*8 {
			return Delta{}, bitio.ErrLengthOutOfRange
		}
		vec, err := r.ReadBits(int(count))
		if err != nil {
			return Delta{}, err
		}
		items := make([]Delta, count)
		for i := range items {
			if !bitio.BitAt(vec, i) {
				continue
			}
			if items[i], err = readField(r, t.Elem()); err != nil {
				return Delta{}, err
			}
		}
		return Delta{Op: OpPatch, Items: items}, nil
	}
	return Delta{}, domain.ErrDeltaMalformed.Detailf("partial delta on %s", t.Kind())
}
