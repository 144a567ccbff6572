package delta

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

var (
	playerType = schema.Object("Player", schema.F("paddle", schema.Int()), schema.F("score", schema.Int()))
	ballType   = schema.Object("Ball", schema.F("x", schema.Float()), schema.F("y", schema.Float()))
	pongType   = schema.Object("Pong",
		schema.F("playerA", playerType),
		schema.F("playerB", playerType),
		schema.F("ball", ballType),
	)
)

func pong(aPaddle, aScore, bPaddle, bScore int64, x, y float64) *schema.Node {
	return schema.NewObject(
		schema.NewObject(schema.NewInt(aPaddle), schema.NewInt(aScore)),
		schema.NewObject(schema.NewInt(bPaddle), schema.NewInt(bScore)),
		schema.NewObject(schema.NewFloat(x), schema.NewFloat(y)),
	)
}

func TestDiff_PongExample(t *testing.T) {
	prev := pong(100, 0, 50, 2, 1, 1)
	cur := pong(100, 0, 190, 2, 301.894, 175.072)

	got, err := Diff(pongType, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	want := PatchFields(
		Unchanged(),
		PatchFields(Replace(schema.NewInt(190)), Unchanged()),
		PatchFields(Replace(schema.NewFloat(301.894)), Replace(schema.NewFloat(175.072))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}

	data, err := Encode(pongType, got)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	prefix := []byte{0x60, wirePatch, 0x80, 0xFC, 0x02, wirePatch, 0xC0}
	if !bytes.HasPrefix(data, prefix) || len(data) != len(prefix)+16 {
		t.Errorf("Encode() = % x, want prefix % x and %d bytes", data, prefix, len(prefix)+16)
	}

	decoded, err := Decode(pongType, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(got, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	patched, err := Patch(pongType, prev.Clone(), decoded)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !patched.Equal(cur) {
		t.Errorf("Patch() = %s, want %s", patched, cur)
	}
}

func TestDiff_Identical(t *testing.T) {
	a := pong(1, 2, 3, 4, 5, 6)
	d, err := Diff(pongType, a, a.Clone())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.Op != OpPatch || len(d.Fields) != 3 {
		t.Fatalf("Diff() envelope = %s, want object patch", d)
	}
	if !d.IsUnchanged() {
		t.Errorf("Diff(A, A) = %s, want unchanged", d)
	}
	for i, f := range d.Fields {
		if f.Op != OpUnchanged {
			t.Errorf("field %d = %s, want unchanged", i, f.Op)
		}
	}

	data, err := Encode(pongType, d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(data, []byte{0x00}) {
		t.Errorf("Encode(unchanged) = % x, want 00", data)
	}
}

var (
	itemType = schema.Object("Item", schema.F("kind", schema.Uint()), schema.F("qty", schema.Int()))
	seqType  = schema.Object("Bag",
		schema.F("items", schema.Sequence(itemType)),
		schema.F("tags", schema.Sequence(schema.Optional(schema.String()))),
		schema.F("owner", schema.Optional(itemType)),
	)
)

func bag(items []*schema.Node, tags []*schema.Node, owner *schema.Node) *schema.Node {
	return schema.NewObject(schema.NewSequence(items...), schema.NewSequence(tags...), owner)
}

func item(kind uint64, qty int64) *schema.Node {
	return schema.NewObject(schema.NewUint(kind), schema.NewInt(qty))
}

func TestDiff_SequenceGrow(t *testing.T) {
	prev := bag([]*schema.Node{item(1, 1)}, nil, nil)
	cur := bag([]*schema.Node{item(1, 2), item(2, 5), item(3, 7)}, []*schema.Node{nil, schema.NewString("x")}, nil)

	d, err := Diff(seqType, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	items := d.Fields[0]
	if items.Op != OpPatch || len(items.Items) != 3 {
		t.Fatalf("items delta = %s, want 3-element patch", items)
	}
	if items.Items[0].Op != OpPatch {
		t.Errorf("existing element op = %s, want patch", items.Items[0].Op)
	}
	for i := 1; i < 3; i++ {
		if items.Items[i].Op != OpReplace {
			t.Errorf("appended element %d op = %s, want replace", i, items.Items[i].Op)
		}
	}
	tags := d.Fields[1]
	if tags.Items[0].Op != OpClear || tags.Items[1].Op != OpReplace {
		t.Errorf("tags delta = %s", tags)
	}

	roundTrip(t, seqType, prev, cur)
}

func TestDiff_SequenceShrink(t *testing.T) {
	prev := bag([]*schema.Node{item(1, 1), item(2, 2), item(3, 3)}, nil, nil)
	cur := bag([]*schema.Node{item(1, 1)}, nil, nil)

	d, err := Diff(seqType, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	items := d.Fields[0]
	if items.Op != OpPatch || len(items.Items) != 1 || items.Items[0].Op != OpUnchanged {
		t.Fatalf("items delta = %s, want [_]", items)
	}

	patched := roundTrip(t, seqType, prev, cur)
	if patched.Child(0).Len() != 1 {
		t.Errorf("patched length = %d, want 1", patched.Child(0).Len())
	}
}

func TestDiff_Optional(t *testing.T) {
	tests := []struct {
		name   string
		prev   *schema.Node
		cur    *schema.Node
		wantOp Op
	}{
		{"both absent", nil, nil, OpUnchanged},
		{"appears", nil, item(1, 1), OpReplace},
		{"disappears", item(1, 1), nil, OpClear},
		{"inner change", item(1, 1), item(1, 2), OpPatch},
		{"same", item(1, 1), item(1, 1), OpUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := bag(nil, nil, tt.prev)
			cur := bag(nil, nil, tt.cur)
			d, err := Diff(seqType, prev, cur)
			if err != nil {
				t.Fatalf("Diff: %v", err)
			}
			if got := d.Fields[2].Op; got != tt.wantOp {
				t.Fatalf("owner op = %s, want %s", got, tt.wantOp)
			}
			roundTrip(t, seqType, prev, cur)
		})
	}
}

func TestDiff_SchemaMismatch(t *testing.T) {
	good := pong(1, 1, 1, 1, 1, 1)
	tests := []struct {
		name string
		prev *schema.Node
		cur  *schema.Node
	}{
		{"missing field", good, schema.NewObject(good.Child(0), good.Child(1))},
		{"wrong kind", good, schema.NewObject(good.Child(0), good.Child(1), schema.NewInt(3))},
		{"nil root", nil, good},
		{"wrong primitive", good, pong(1, 1, 1, 1, 1, 1).Clone()},
	}
	tests[3].cur.Child(2).SetChild(0, schema.NewString("x"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Diff(pongType, tt.prev, tt.cur); !errors.Is(err, domain.ErrSchemaMismatch) {
				t.Fatalf("err = %v, want ErrSchemaMismatch", err)
			}
		})
	}
}

func TestPatch_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name  string
		state *schema.Node
		d     Delta
	}{
		{"clear non-optional", bag(nil, nil, nil), PatchFields(Clear(), Unchanged(), Unchanged())},
		{"partial against absent", bag(nil, nil, nil), PatchFields(Unchanged(), Unchanged(), PatchFields(Unchanged(), Unchanged()))},
		{"field count", bag(nil, nil, nil), PatchFields(Unchanged())},
		{"partial appended element", bag(nil, nil, nil), PatchFields(PatchItems(PatchFields(Unchanged(), Unchanged())), Unchanged(), Unchanged())},
		{"wrong replacement", bag(nil, nil, nil), PatchFields(Replace(schema.NewInt(1)), Unchanged(), Unchanged())},
		{"partial primitive", bag([]*schema.Node{item(1, 1)}, nil, nil), PatchFields(PatchItems(PatchFields(PatchItems(), Unchanged())), Unchanged(), Unchanged())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Patch(seqType, tt.state, tt.d); !errors.Is(err, domain.ErrSchemaMismatch) {
				t.Fatalf("err = %v, want ErrSchemaMismatch", err)
			}
		})
	}
}

func TestPatch_AdoptsCopies(t *testing.T) {
	prev := bag(nil, nil, nil)
	cur := bag([]*schema.Node{item(1, 1)}, nil, item(9, 9))
	d, err := Diff(seqType, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	state, err := Patch(seqType, prev, d)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if state != prev {
		t.Error("Patch should return the same root instance")
	}
	state.Child(2).SetChild(1, schema.NewInt(0))
	if cur.Child(2).Child(1).AsInt() != 9 {
		t.Error("patched state aliases the source snapshot")
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated value", []byte{0x60, wirePatch, 0x80, 0xFC}},
		{"bad op byte", []byte{0x80, 0x09}},
		{"trailing bytes", []byte{0x00, 0x00}},
		{"clear on object", []byte{0x80, wireClear}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(pongType, tt.data); !errors.Is(err, domain.ErrDeltaMalformed) {
				t.Fatalf("err = %v, want ErrDeltaMalformed", err)
			}
		})
	}
}

func TestEncoder_Reuse(t *testing.T) {
	enc := NewEncoder(64)
	prev := pong(100, 0, 50, 2, 1, 1)
	cur := pong(100, 0, 190, 2, 301.894, 175.072)
	d, err := Diff(pongType, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	want, err := Encode(pongType, d)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := enc.Encode(pongType, d)
		if err != nil {
			t.Fatalf("Encoder.Encode: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("iteration %d: % x, want % x", i, got, want)
		}
	}

	prefixed, err := AppendEncode([]byte{0xAB}, pongType, d)
	if err != nil {
		t.Fatalf("AppendEncode: %v", err)
	}
	if prefixed[0] != 0xAB || !bytes.Equal(prefixed[1:], want) {
		t.Errorf("AppendEncode() = % x", prefixed)
	}
}

func TestDiffPatch_Random(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := genValue(rnd, gameType, 0)
		b := mutate(rnd, gameType, a, 0)
		roundTrip(t, gameType, a, b)

		same, err := Diff(gameType, a, a.Clone())
		if err != nil {
			t.Fatalf("Diff(A, A): %v", err)
		}
		if !same.IsUnchanged() {
			t.Fatalf("Diff(A, A) = %s for %s", same, a)
		}
	}
}

// roundTrip checks patch(copy(prev), decode(encode(diff(prev, cur)))) == cur.
func roundTrip(t *testing.T, typ *schema.Type, prev, cur *schema.Node) *schema.Node {
	t.Helper()
	d, err := Diff(typ, prev, cur)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	data, err := Encode(typ, d)
	if err != nil {
		t.Fatalf("Encode(%s): %v", d, err)
	}
	decoded, err := Decode(typ, data)
	if err != nil {
		t.Fatalf("Decode(% x): %v", data, err)
	}
	if diff := cmp.Diff(d, decoded); diff != "" {
		t.Fatalf("codec round trip mismatch (-want +got):\n%s", diff)
	}
	patched, err := Patch(typ, prev.Clone(), decoded)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !patched.Equal(cur) {
		t.Fatalf("Patch() = %s\nwant %s\ndelta %s", patched, cur, d)
	}
	return patched
}

var (
	vecType  = schema.Object("Vec", schema.F("x", schema.Float()), schema.F("y", schema.Float()))
	unitType = schema.Object("Unit", schema.F("id", schema.String()), schema.F("hp", schema.Int()), schema.F("inv", schema.Sequence(itemType)), schema.F("buff", schema.Optional(vecType)))
	gameType = schema.Object("Game",
		schema.F("tick", schema.Uint()),
		schema.F("name", schema.String()),
		schema.F("over", schema.Bool()),
		schema.F("ratio", schema.Float()),
		schema.F("blob", schema.Bytes()),
		schema.F("winner", schema.Optional(schema.String())),
		schema.F("pos", schema.Optional(vecType)),
		schema.F("units", schema.Sequence(unitType)),
		schema.F("tags", schema.Sequence(schema.Optional(schema.String()))),
		schema.F("grid", schema.Sequence(schema.Sequence(schema.Int()))),
		schema.F("marks", schema.Optional(schema.Sequence(schema.Uint()))),
	)
)

func genValue(rnd *rand.Rand, t *schema.Type, depth int) *schema.Node {
	switch t.Kind() {
	case schema.KindBool:
		return schema.NewBool(rnd.Intn(2) == 0)
	case schema.KindInt:
		return schema.NewInt(int64(rnd.Intn(5) - 2))
	case schema.KindUint:
		return schema.NewUint(uint64(rnd.Intn(4)))
	case schema.KindFloat:
		return schema.NewFloat(float64(rnd.Intn(3)) / 2)
	case schema.KindString:
		return schema.NewString(string(rune('a' + rnd.Intn(3))))
	case schema.KindBytes:
		return schema.NewBytes(make([]byte, rnd.Intn(3)))
	case schema.KindOptional:
		if rnd.Intn(3) == 0 {
			return nil
		}
		return genValue(rnd, t.Elem(), depth+1)
	case schema.KindSequence:
		n := rnd.Intn(4)
		if depth > 3 {
			n = 0
		}
		items := make([]*schema.Node, n)
		for i := range items {
			items[i] = genValue(rnd, t.Elem(), depth+1)
		}
		return schema.NewSequence(items...)
	case schema.KindObject:
		fields := make([]*schema.Node, t.NumField())
		for i := range fields {
			fields[i] = genValue(rnd, t.Field(i).Type, depth+1)
		}
		return schema.NewObject(fields...)
	}
	panic("unreachable")
}

// mutate returns a copy of n with random edits.
func mutate(rnd *rand.Rand, t *schema.Type, n *schema.Node, depth int) *schema.Node {
	if rnd.Intn(5) == 0 {
		return genValue(rnd, t, depth)
	}
	switch t.Kind() {
	case schema.KindOptional:
		if n == nil {
			return nil
		}
		return mutate(rnd, t.Elem(), n, depth)
	case schema.KindSequence:
		out := schema.NewSequence()
		for i := 0; i < n.Len(); i++ {
			out.Append(mutate(rnd, t.Elem(), n.Child(i), depth+1))
		}
		switch rnd.Intn(3) {
		case 0:
			out.Append(genValue(rnd, t.Elem(), depth+1))
		case 1:
			if out.Len() > 0 {
				out.Truncate(rnd.Intn(out.Len()))
			}
		}
		return out
	case schema.KindObject:
		fields := make([]*schema.Node, t.NumField())
		for i := range fields {
			fields[i] = mutate(rnd, t.Field(i).Type, n.Child(i), depth+1)
		}
		return schema.NewObject(fields...)
	}
	return n.Clone()
}
