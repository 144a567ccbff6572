package schema

import (
	"fmt"
	"strings"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// Kind identifies the shape of a Type or Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindOptional
	KindSequence
	KindObject
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "boolean",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindString:   "string",
	KindBytes:    "bytes",
	KindOptional: "optional",
	KindSequence: "sequence",
	KindObject:   "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsPrimitive reports whether k has no children.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindBytes
}

// Type is an immutable snapshot shape.
type Type struct {
	kind   Kind
	name   string
	elem   *Type
	fields []Field
	index  map[string]int
}

// Field is one named member of an object type.
type Field struct {
	Name string
	Type *Type
}

// F declares an object field.
func F(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}

var (
	boolType   = &Type{kind: KindBool}
	intType    = &Type{kind: KindInt}
	uintType   = &Type{kind: KindUint}
	floatType  = &Type{kind: KindFloat}
	stringType = &Type{kind: KindString}
	bytesType  = &Type{kind: KindBytes}
)

func Bool() *Type { return boolType }
func Int() *Type { return intType }
func Uint() *Type { return uintType }
func Float() *Type { return floatType }
func String() *Type { return stringType }
func Bytes() *Type { return bytesType }

// Optional returns an optional of elem. It panics if elem is nil or
// itself optional; use NewOptionalType to get an error instead.
func Optional(elem *Type) *Type {
	t, err := NewOptionalType(elem)
	if err != nil {
		panic(err)
	}
	return t
}

// NewOptionalType is Optional returning an error.
func NewOptionalType(elem *Type) (*Type, error) {
	if elem == nil {
		return nil, domain.ErrSchemaInvalid.WithDetails("optional of nil type")
	}
	if elem.kind == KindOptional {
		return nil, domain.ErrSchemaInvalid.WithDetails("optional of optional")
	}
	return &Type{kind: KindOptional, elem: elem}, nil
}

// Sequence returns an ordered sequence of elem. It panics if elem is nil.
func Sequence(elem *Type) *Type {
	t, err := NewSequenceType(elem)
	if err != nil {
		panic(err)
	}
	return t
}

// NewSequenceType is Sequence returning an error.
func NewSequenceType(elem *Type) (*Type, error) {
	if elem == nil {
		return nil, domain.ErrSchemaInvalid.WithDetails("sequence of nil type")
	}
	return &Type{kind: KindSequence, elem: elem}, nil
}

// Object returns an object type with fields in the given order. It panics
// on an empty or duplicate field name or a nil field type.
func Object(name string, fields ...Field) *Type {
	t, err := NewObjectType(name, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// NewObjectType is Object returning an error.
func NewObjectType(name string, fields ...Field) (*Type, error) {
	t := &Type{
		kind:   KindObject,
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, domain.ErrSchemaInvalid.Detailf("%s: field %d has no name", name, i)
		}
		if f.Type == nil {
			return nil, domain.ErrSchemaInvalid.Detailf("%s.%s: nil type", name, f.Name)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, domain.ErrSchemaInvalid.Detailf("%s.%s: duplicate field", name, f.Name)
		}
		t.fields[i] = f
		t.index[f.Name] = i
	}
	return t, nil
}

func (t *Type) Kind() Kind { return t.kind }

// Name returns the object type name, or "" for other kinds.
func (t *Type) Name() string { return t.name }

// Elem returns the element type of an optional or sequence.
func (t *Type) Elem() *Type { return t.elem }

func (t *Type) NumField() int { return len(t.fields) }

func (t *Type) Field(i int) Field { return t.fields[i] }

// FieldIndex returns the declared position of the named field.
func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// String returns the canonical description of t, used for fingerprints.
func (t *Type) String() string {
	var b strings.Builder
	t.describe(&b)
	return b.String()
}

func (t *Type) describe(b *strings.Builder) {
	switch t.kind {
	case KindOptional:
		t.elem.describe(b)
		b.WriteByte('?')
	case KindSequence:
		t.elem.describe(b)
		b.WriteString("[]")
	case KindObject:
		b.WriteString(t.name)
		b.WriteByte('{')
		for i, f := range t.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			f.Type.describe(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString(t.kind.String())
	}
}
