package variant

import (
	"bytes"
	"testing"

	"github.com/godot-re/gdre/bio"
)

// TestV4Vector3Conformance pins the Vector3 encoding scenario: a V4 stream
// encoding Vector3(1.5, -2.0, 0.0) begins with tag 7 followed by the three
// little-endian IEEE-754 floats.
func TestV4Vector3Conformance(t *testing.T) {
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	c := NewCodec(V4, nil, 0)
	v := Variant{Kind: KindVector3, Value: Vector3{X: 1.5, Y: -2.0, Z: 0.0}}
	if err := c.Encode(w, v); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	want := []byte{
		0x07, 0x00, 0x00, 0x00, // tag
		0x00, 0x00, 0xc0, 0x3f, // 1.5
		0x00, 0x00, 0x00, 0xc0, // -2.0
		0x00, 0x00, 0x00, 0x00, // 0.0
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("Encode() = % x, want % x", buf.Bytes(), want)
	}

	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	got, err := c.Decode(r)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	gv := got.Value.(Vector3)
	if gv.X != 1.5 || gv.Y != -2.0 || gv.Z != 0.0 {
		t.Fatalf("Decode() = %+v, want {1.5 -2 0}", gv)
	}
}

func roundTrip(t *testing.T, gen Generation, strings StringTable, v Variant) Variant {
	t.Helper()
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	c := NewCodec(gen, strings, 0)
	if err := c.Encode(w, v); err != nil {
		t.Fatalf("Encode(%s, %s) failed: %v", gen, v.Kind, err)
	}
	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	c2 := NewCodec(gen, strings, 0)
	got, err := c2.Decode(r)
	if err != nil {
		t.Fatalf("Decode(%s, %s) failed: %v", gen, v.Kind, err)
	}
	return got
}

func TestRoundTripScalarsAllGenerations(t *testing.T) {
	gens := []Generation{V2, V3, V4}
	for _, gen := range gens {
		t.Run(gen.String(), func(t *testing.T) {
			values := []Variant{
				Nil,
				Bool(true),
				Bool(false),
				Int32(42),
				Float32(3.25),
				String("res://scene.tscn"),
			}
			for _, v := range values {
				got := roundTrip(t, gen, nil, v)
				if got.Kind != v.Kind && !(v.Kind == KindNil && got.Kind == KindNil) {
					t.Fatalf("%s: Kind = %v, want %v", gen, got.Kind, v.Kind)
				}
			}
		})
	}
}

func TestRoundTripInt64Float64V4(t *testing.T) {
	got := roundTrip(t, V4, nil, Int64(1<<40))
	if got.Value.(int64) != 1<<40 {
		t.Fatalf("Int64 round trip = %v, want %v", got.Value, int64(1<<40))
	}
	got = roundTrip(t, V4, nil, Float64(1.0/3.0))
	if got.Value.(float64) != 1.0/3.0 {
		t.Fatalf("Float64 round trip = %v, want %v", got.Value, 1.0/3.0)
	}
}

func TestRoundTripInt64FlagV3(t *testing.T) {
	got := roundTrip(t, V3, nil, Int64(1<<40))
	if got.Kind != KindInt64 || got.Value.(int64) != 1<<40 {
		t.Fatalf("V3 Int64 round trip = %+v", got)
	}
}

func TestV3VectorIntNotRepresentable(t *testing.T) {
	c := NewCodec(V3, nil, 0)
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	v := Variant{Kind: KindVector2i, Value: Vector2i{X: 1, Y: 2}}
	if err := c.Encode(w, v); err == nil {
		t.Fatal("Encode() of Vector2i under V3 should fail, V3 has no integer-vector tags")
	}
}

func TestNodePathInlineWithoutStringTable(t *testing.T) {
	np := NodePath{Names: []string{"root", "Sprite"}, Subnames: []string{"texture"}, Absolute: true}
	got := roundTrip(t, V4, nil, Variant{Kind: KindNodePath, Value: np})
	gnp := got.Value.(NodePath)
	if len(gnp.Names) != 2 || gnp.Names[0] != "root" || gnp.Names[1] != "Sprite" {
		t.Fatalf("NodePath.Names = %v", gnp.Names)
	}
	if len(gnp.Subnames) != 1 || gnp.Subnames[0] != "texture" {
		t.Fatalf("NodePath.Subnames = %v", gnp.Subnames)
	}
	if !gnp.Absolute {
		t.Fatal("NodePath.Absolute should round trip true")
	}
}

func TestNodePathWithStringTable(t *testing.T) {
	st := NewSimpleStringTable([]string{"root", "Sprite", "texture"})
	np := NodePath{Names: []string{"root", "Sprite"}, Subnames: []string{"texture"}}
	got := roundTrip(t, V4, st, Variant{Kind: KindNodePath, Value: np})
	gnp := got.Value.(NodePath)
	if gnp.Names[0] != "root" || gnp.Subnames[0] != "texture" {
		t.Fatalf("NodePath via StringTable = %+v", gnp)
	}
}

func TestNodePathV2TrailingProperty(t *testing.T) {
	np := NodePath{Names: []string{"root"}, Property: "offset"}
	got := roundTrip(t, V2, nil, Variant{Kind: KindNodePath, Value: np})
	gnp := got.Value.(NodePath)
	if gnp.Property != "offset" {
		t.Fatalf("V2 NodePath.Property = %q, want %q", gnp.Property, "offset")
	}
}

func TestDictionaryAndArrayNesting(t *testing.T) {
	inner := &Dictionary{Entries: []DictEntry{
		{Key: String("x"), Value: Int32(1)},
		{Key: String("y"), Value: Int32(2)},
	}}
	arr := &Array{Items: []Variant{
		Int32(1),
		{Kind: KindDictionary, Value: inner},
		String("leaf"),
	}}
	got := roundTrip(t, V4, nil, Variant{Kind: KindArray, Value: arr})
	garr := got.Value.(*Array)
	if len(garr.Items) != 3 {
		t.Fatalf("Array len = %d, want 3", len(garr.Items))
	}
	gd := garr.Items[1].Value.(*Dictionary)
	v, ok := gd.Get(String("y"))
	if !ok || v.Value.(int32) != 2 {
		t.Fatalf("nested Dictionary[y] = %+v, ok=%v", v, ok)
	}
}

func TestDepthGuardExceeded(t *testing.T) {
	c := NewCodec(V4, nil, 4)
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)

	// Build an Array nested deeper than the cap by repeated encode calls
	// that share the same Codec (and thus the same DepthGuard).
	a := &Array{}
	cur := a
	for i := 0; i < 10; i++ {
		inner := &Array{}
		cur.Items = append(cur.Items, Variant{Kind: KindArray, Value: inner})
		cur = inner
	}
	if err := c.Encode(w, Variant{Kind: KindArray, Value: a}); err == nil {
		t.Fatal("Encode() of an over-deep Array should fail under a depth guard of 4")
	}
}

func TestPackedArraysRoundTrip(t *testing.T) {
	tests := []Variant{
		{Kind: KindPackedByteArray, Value: []byte{1, 2, 3}},
		{Kind: KindPackedInt32Array, Value: []int32{-1, 0, 1}},
		{Kind: KindPackedFloat32Array, Value: []float32{1.5, -2.5}},
		{Kind: KindPackedStringArray, Value: []string{"a", "bb"}},
		{Kind: KindPackedVector2Array, Value: []Vector2{{X: 1, Y: 2}}},
		{Kind: KindPackedVector3Array, Value: []Vector3{{X: 1, Y: 2, Z: 3}}},
		{Kind: KindPackedColorArray, Value: []Color{{R: 1, G: 0, B: 0, A: 1}}},
	}
	for _, v := range tests {
		t.Run(v.Kind.String(), func(t *testing.T) {
			got := roundTrip(t, V4, nil, v)
			if got.Kind != v.Kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, v.Kind)
			}
		})
	}
}

func TestPackedInt64Float64ArraysV4Only(t *testing.T) {
	got := roundTrip(t, V4, nil, Variant{Kind: KindPackedInt64Array, Value: []int64{1, 2, 3}})
	if vals := got.Value.([]int64); len(vals) != 3 || vals[2] != 3 {
		t.Fatalf("PackedInt64Array round trip = %v", vals)
	}

	c := NewCodec(V3, nil, 0)
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	if err := c.Encode(w, Variant{Kind: KindPackedInt64Array, Value: []int64{1}}); err == nil {
		t.Fatal("Encode() of PackedInt64Array under V3 should fail")
	}
}

func TestObjectKindsRoundTrip(t *testing.T) {
	tests := []ObjectRef{
		{Kind: ObjectEmpty},
		{Kind: ObjectExternalByPath, Type: "Texture2D", Path: "res://a.png"},
		{Kind: ObjectInternalByIndex, Subindex: 7},
		{Kind: ObjectExternalByIndex, ExternalIdx: 3},
	}
	for _, obj := range tests {
		got := roundTrip(t, V4, nil, Variant{Kind: KindObject, Value: obj})
		gobj := got.Value.(ObjectRef)
		if gobj.Kind != obj.Kind {
			t.Fatalf("ObjectRef.Kind = %v, want %v", gobj.Kind, obj.Kind)
		}
	}
}

func TestV2ImageHookUnset(t *testing.T) {
	prev := V2ImageDecoder
	V2ImageDecoder = nil
	defer func() { V2ImageDecoder = prev }()

	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	if err := w.WriteU32(v2TagImage); err != nil {
		t.Fatalf("WriteU32() failed: %v", err)
	}
	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	c := NewCodec(V2, nil, 0)
	if _, err := c.Decode(r); err == nil {
		t.Fatal("Decode() of a V2 Image tag with no registered decoder should fail")
	}
}

func TestUnknownTagFails(t *testing.T) {
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	if err := w.WriteU32(0xff); err != nil {
		t.Fatalf("WriteU32() failed: %v", err)
	}
	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	c := NewCodec(V4, nil, 0)
	if _, err := c.Decode(r); err == nil {
		t.Fatal("Decode() of an unknown tag should fail")
	}
}
