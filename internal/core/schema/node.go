package schema

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is one value in a snapshot tree.
//
// Primitive nodes are immutable. Object and sequence nodes are mutated in
// place by the patch engine; everywhere else they are treated as values
// and copied with Clone.
type Node struct {
	kind  Kind
	b     bool
	i     int64
	u     uint64
	f     float64
	s     string
	raw   []byte
	items []*Node
}

func NewBool(v bool) *Node { return &Node{kind: KindBool, b: v} }
func NewInt(v int64) *Node { return &Node{kind: KindInt, i: v} }
func NewUint(v uint64) *Node { return &Node{kind: KindUint, u: v} }
func NewFloat(v float64) *Node { return &Node{kind: KindFloat, f: v} }
func NewString(v string) *Node { return &Node{kind: KindString, s: v} }

// NewBytes copies v into a new bytes node.
func NewBytes(v []byte) *Node {
	return &Node{kind: KindBytes, raw: append([]byte(nil), v...)}
}

// NewSequence returns a sequence node holding items.
func NewSequence(items ...*Node) *Node {
	return &Node{kind: KindSequence, items: append(make([]*Node, 0, len(items)), items...)}
}

// NewObject returns an object node whose children are given in declared
// field order. A nil child is an absent optional field.
func NewObject(fields ...*Node) *Node {
	return &Node{kind: KindObject, items: append(make([]*Node, 0, len(fields)), fields...)}
}

// Kind returns the node kind. A nil node reports KindInvalid.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindInvalid
	}
	return n.kind
}

func (n *Node) AsBool() bool { return n.b }
func (n *Node) AsInt() int64 { return n.i }
func (n *Node) AsUint() uint64 { return n.u }
func (n *Node) AsFloat() float64 { return n.f }
func (n *Node) AsString() string { return n.s }
func (n *Node) AsBytes() []byte { return n.raw }
func (n *Node) Len() int { return len(n.items) }
func (n *Node) Child(i int) *Node { return n.items[i] }
func (n *Node) SetChild(i int, c *Node) { n.items[i] = c }

// Append adds an element to a sequence node.
func (n *Node) Append(c *Node) {
	n.items = append(n.items, c)
}

// Truncate shortens a sequence node to size elements.
func (n *Node) Truncate(size int) {
	if size >= len(n.items) {
		return
	}
	for i := size; i < len(n.items); i++ {
		n.items[i] = nil
	}
	n.items = n.items[:size]
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.raw != nil {
		c.raw = append([]byte(nil), n.raw...)
	}
	if n.items != nil {
		c.items = make([]*Node, len(n.items))
		for i, it := range n.items {
			c.items[i] = it.Clone()
		}
	}
	return &c
}

// Equal reports whether n and o are structurally equal. Floats compare by
// bit pattern so that a snapshot always equals itself, NaN included.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindBool:
		return n.b == o.b
	case KindInt:
		return n.i == o.i
	case KindUint:
		return n.u == o.u
	case KindFloat:
		return math.Float64bits(n.f) == math.Float64bits(o.f)
	case KindString:
		return n.s == o.s
	case KindBytes:
		return bytes.Equal(n.raw, o.raw)
	case KindSequence, KindObject:
		if len(n.items) != len(o.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders n for debugging. Object fields are shown positionally.
func (n *Node) String() string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

func (n *Node) format(b *strings.Builder) {
	if n == nil {
		b.WriteString("<absent>")
		return
	}
	switch n.kind {
	case KindBool:
		b.WriteString(strconv.FormatBool(n.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(n.i, 10))
	case KindUint:
		b.WriteString(strconv.FormatUint(n.u, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(n.f, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(n.s))
	case KindBytes:
		fmt.Fprintf(b, "0x%x", n.raw)
	case KindSequence, KindObject:
		open, end := byte('['), byte(']')
		if n.kind == KindObject {
			open, end = '{', '}'
		}
		b.WriteByte(open)
		for i, it := range n.items {
			if i > 0 {
				b.WriteByte(' ')
			}
			it.format(b)
		}
		b.WriteByte(end)
	}
}
