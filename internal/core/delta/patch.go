package delta

import (
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

// Patch applies d to state in place and returns the patched root. state
// must be the snapshot d was diffed from, and each delta must be applied
// exactly once, in the order it was produced.
//
// A delta whose shape does not fit t, or a partial delta against an absent
// value, fails with domain.ErrSchemaMismatch. State may be partially
// patched when that happens.
func Patch(t *schema.Type, state *schema.Node, d Delta) (*schema.Node, error) {
	if t.Kind() != schema.KindObject {
		return nil, schema.Mismatchf(schema.RootPath, "root type is %s, want object", t.Kind())
	}
	return patchValue(t, state, d, schema.RootPath)
}

func patchValue(t *schema.Type, cur *schema.Node, d Delta, path string) (*schema.Node, error) {
	switch d.Op {
	case OpUnchanged:
		return cur, nil

	case OpReplace:
		vt := t
		if t.Kind() == schema.KindOptional {
			vt = t.Elem()
		}
		if d.Value == nil {
			return nil, schema.Mismatchf(path, "replacement without value")
		}
		if err := schema.ValidateAt(vt, d.Value, path); err != nil {
			return nil, err
		}
		return d.Value.Clone(), nil

	case OpClear:
		if t.Kind() != schema.KindOptional {
			return nil, schema.Mismatchf(path, "clear on non-optional %s", t.Kind())
		}
		return nil, nil

	case OpPatch:
		switch t.Kind() {
		case schema.KindOptional:
			if cur == nil {
				return nil, schema.Mismatchf(path, "partial delta against absent value")
			}
			return patchValue(t.Elem(), cur, d, path)
		case schema.KindObject:
			return patchObject(t, cur, d, path)
		case schema.KindSequence:
			return patchSequence(t, cur, d, path)
		}
		return nil, schema.Mismatchf(path, "partial delta on %s", t.Kind())
	}
	return nil, schema.Mismatchf(path, "unknown op %s", d.Op)
}

func patchObject(t *schema.Type, cur *schema.Node, d Delta, path string) (*schema.Node, error) {
	if err := checkObject(t, cur, path); err != nil {
		return nil, err
	}
	if d.Items != nil || len(d.Fields) != t.NumField() {
		return nil, schema.Mismatchf(path, "%s delta has %d fields, want %d", t.Name(), len(d.Fields), t.NumField())
	}
	for i, fd := range d.Fields {
		if fd.Op == OpUnchanged {
			continue
		}
		f := t.Field(i)
		c, err := patchValue(f.Type, cur.Child(i), fd, schema.FieldPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		cur.SetChild(i, c)
	}
	return cur, nil
}

func patchSequence(t *schema.Type, cur *schema.Node, d Delta, path string) (*schema.Node, error) {
	if err := checkKind(t, cur, path); err != nil {
		return nil, err
	}
	if d.Fields != nil {
		return nil, schema.Mismatchf(path, "object delta on sequence")
	}
	for i, it := range d.Items {
		ipath := schema.IndexPath(path, i)
		if i < cur.Len() {
			if it.Op == OpUnchanged {
				continue
			}
			c, err := patchValue(t.Elem(), cur.Child(i), it, ipath)
			if err != nil {
				return nil, err
			}
			cur.SetChild(i, c)
			continue
		}
		if it.Op != OpReplace && it.Op != OpClear {
			return nil, schema.Mismatchf(ipath, "appended element must be a full value, have %s", it.Op)
		}
		c, err := patchValue(t.Elem(), nil, it, ipath)
		if err != nil {
			return nil, err
		}
		cur.Append(c)
	}
	cur.Truncate(len(d.Items))
	return cur, nil
}
