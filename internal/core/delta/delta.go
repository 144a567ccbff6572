// Package delta computes, applies and encodes structural differences
// between two snapshots of the same schema.
//
// A Delta mirrors the shape of the schema type it was computed against.
// Each node carries an explicit Op:
//
//   - OpUnchanged: leave the target untouched (the zero value)
//   - OpReplace: Value is the full new value
//   - OpClear: an optional became absent
//   - OpPatch: a partial update; Fields for objects, Items for sequences
//
// An optional that stays present is diffed as its inner type, so its
// delta is whatever the inner type produced. An appended sequence element
// that is an absent optional is recorded as OpClear.
package delta

import (
	"fmt"
	"strings"

	"github.com/yndnr/tickstate-go/internal/core/schema"
)

// Op is the outcome recorded for one delta node.
type Op uint8

const (
	OpUnchanged Op = iota
	OpReplace
	OpClear
	OpPatch
)

func (o Op) String() string {
	switch o {
	case OpUnchanged:
		return "unchanged"
	case OpReplace:
		return "replace"
	case OpClear:
		return "clear"
	case OpPatch:
		return "patch"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Delta is one node of a structural difference.
type Delta struct {
	Op     Op
	Value  *schema.Node
	Fields []Delta
	Items  []Delta
}

// Unchanged returns the no-op delta.
func Unchanged() Delta { return Delta{} }

// Replace returns a full-value delta.
func Replace(v *schema.Node) Delta { return Delta{Op: OpReplace, Value: v} }

// Clear returns the delta for an optional that became absent.
func Clear() Delta { return Delta{Op: OpClear} }

// PatchFields returns a partial object delta. fields must have one entry
// per declared field.
func PatchFields(fields ...Delta) Delta { return Delta{Op: OpPatch, Fields: fields} }

// PatchItems returns a partial sequence delta whose length is the new
// sequence length.
func PatchItems(items ...Delta) Delta {
	if items == nil {
		items = []Delta{}
	}
	return Delta{Op: OpPatch, Items: items}
}

// IsUnchanged reports whether d is a no-op at every node.
func (d Delta) IsUnchanged() bool {
	switch d.Op {
	case OpUnchanged:
		return true
	case OpPatch:
		if d.Items != nil {
			return false
		}
		for _, f := range d.Fields {
			if !f.IsUnchanged() {
				return false
			}
		}
		return true
	}
	return false
}

// String renders d for logs and debugging.
func (d Delta) String() string {
	var b strings.Builder
	d.format(&b)
	return b.String()
}

func (d Delta) format(b *strings.Builder) {
	switch d.Op {
	case OpUnchanged:
		b.WriteByte('_')
	case OpReplace:
		b.WriteString(d.Value.String())
	case OpClear:
		b.WriteString("<clear>")
	case OpPatch:
		list, open, end := d.Fields, byte('{'), byte('}')
		if d.Items != nil {
			list, open, end = d.Items, '[', ']'
		}
		b.WriteByte(open)
		for i, c := range list {
			if i > 0 {
				b.WriteByte(' ')
			}
			c.format(b)
		}
		b.WriteByte(end)
	default:
		b.WriteString(d.Op.String())
	}
}
