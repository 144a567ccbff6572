package schema

import (
	"fmt"
	"strconv"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// RootPath is the path of the snapshot root in mismatch errors.
const RootPath = "$"

// Mismatchf returns a schema mismatch error located at path.
func Mismatchf(path, format string, args ...any) error {
	return domain.ErrSchemaMismatch.WithDetails(path + ": " + fmt.Sprintf(format, args...))
}

// FieldPath extends path with an object field.
func FieldPath(path, name string) string {
	return path + "." + name
}

// IndexPath extends path with a sequence index.
func IndexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// Validate checks that n conforms to t.
func Validate(t *Type, n *Node) error {
	return validate(t, n, RootPath)
}

// ValidateAt is Validate reporting errors relative to path.
func ValidateAt(t *Type, n *Node, path string) error {
	return validate(t, n, path)
}

func validate(t *Type, n *Node, path string) error {
	if t.kind == KindOptional {
		if n == nil {
			return nil
		}
		return validate(t.elem, n, path)
	}
	if n == nil {
		return Mismatchf(path, "missing %s value", t.kind)
	}
	if n.kind != t.kind {
		return Mismatchf(path, "have %s, want %s", n.kind, t.kind)
	}

	switch t.kind {
	case KindSequence:
		for i, it := range n.items {
			if err := validate(t.elem, it, IndexPath(path, i)); err != nil {
				return err
			}
		}
	case KindObject:
		if len(n.items) != len(t.fields) {
			return Mismatchf(path, "%s has %d fields, node has %d", t.name, len(t.fields), len(n.items))
		}
		for i, f := range t.fields {
			if err := validate(f.Type, n.items[i], FieldPath(path, f.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}
