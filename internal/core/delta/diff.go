package delta

import (
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

// Diff returns the delta that turns prev into cur. Both must be objects of
// type t. The result is always an object-shaped OpPatch envelope, even when
// nothing changed.
//
// Replacement values share nodes with cur; snapshots are not mutated after
// they are committed, and Patch clones what it adopts.
func Diff(t *schema.Type, prev, cur *schema.Node) (Delta, error) {
	if t.Kind() != schema.KindObject {
		return Delta{}, schema.Mismatchf(schema.RootPath, "root type is %s, want object", t.Kind())
	}
	if err := checkObject(t, prev, schema.RootPath); err != nil {
		return Delta{}, err
	}
	if err := checkObject(t, cur, schema.RootPath); err != nil {
		return Delta{}, err
	}
	fields, _, err := diffFields(t, prev, cur, schema.RootPath)
	if err != nil {
		return Delta{}, err
	}
	return Delta{Op: OpPatch, Fields: fields}, nil
}

func diffValue(t *schema.Type, prev, cur *schema.Node, path string) (Delta, error) {
	switch t.Kind() {
	case schema.KindOptional:
		switch {
		case prev == nil && cur == nil:
			return Delta{}, nil
		case prev == nil:
			if err := schema.ValidateAt(t.Elem(), cur, path); err != nil {
				return Delta{}, err
			}
			return Replace(cur), nil
		case cur == nil:
			if err := schema.ValidateAt(t.Elem(), prev, path); err != nil {
				return Delta{}, err
			}
			return Clear(), nil
		}
		return diffValue(t.Elem(), prev, cur, path)

	case schema.KindSequence:
		if err := checkKind(t, prev, path); err != nil {
			return Delta{}, err
		}
		if err := checkKind(t, cur, path); err != nil {
			return Delta{}, err
		}
		common := min(prev.Len(), cur.Len())
		items := make([]Delta, cur.Len())
		changed := prev.Len() != cur.Len()
		for i := 0; i < common; i++ {
			d, err := diffValue(t.Elem(), prev.Child(i), cur.Child(i), schema.IndexPath(path, i))
			if err != nil {
				return Delta{}, err
			}
			if d.Op != OpUnchanged {
				changed = true
			}
			items[i] = d
		}
		for i := common; i < cur.Len(); i++ {
			if err := schema.ValidateAt(t.Elem(), cur.Child(i), schema.IndexPath(path, i)); err != nil {
				return Delta{}, err
			}
			if c := cur.Child(i); c != nil {
				items[i] = Replace(c)
			} else {
				items[i] = Clear()
			}
		}
		if !changed {
			return Delta{}, nil
		}
		return Delta{Op: OpPatch, Items: items}, nil

	case schema.KindObject:
		if err := checkObject(t, prev, path); err != nil {
			return Delta{}, err
		}
		if err := checkObject(t, cur, path); err != nil {
			return Delta{}, err
		}
		fields, changed, err := diffFields(t, prev, cur, path)
		if err != nil || !changed {
			return Delta{}, err
		}
		return Delta{Op: OpPatch, Fields: fields}, nil
	}

	if err := checkKind(t, prev, path); err != nil {
		return Delta{}, err
	}
	if err := checkKind(t, cur, path); err != nil {
		return Delta{}, err
	}
	if prev.Equal(cur) {
		return Delta{}, nil
	}
	return Replace(cur), nil
}

func diffFields(t *schema.Type, prev, cur *schema.Node, path string) ([]Delta, bool, error) {
	fields := make([]Delta, t.NumField())
	changed := false
	for i := range fields {
		f := t.Field(i)
		d, err := diffValue(f.Type, prev.Child(i), cur.Child(i), schema.FieldPath(path, f.Name))
		if err != nil {
			return nil, false, err
		}
		if d.Op != OpUnchanged {
			changed = true
		}
		fields[i] = d
	}
	return fields, changed, nil
}

func checkKind(t *schema.Type, n *schema.Node, path string) error {
	if n.Kind() != t.Kind() {
		if n == nil {
			return schema.Mismatchf(path, "missing %s value", t.Kind())
		}
		return schema.Mismatchf(path, "have %s, want %s", n.Kind(), t.Kind())
	}
	return nil
}

func checkObject(t *schema.Type, n *schema.Node, path string) error {
	if err := checkKind(t, n, path); err != nil {
		return err
	}
	if n.Len() != t.NumField() {
		return schema.Mismatchf(path, "%s has %d fields, node has %d", t.Name(), t.NumField(), n.Len())
	}
	return nil
}
