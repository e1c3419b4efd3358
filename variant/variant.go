// Package variant implements Godot's tagged polymorphic Variant wire
// format across the three engine generations the toolkit supports (V2,
// V3, V4). A single recursive encoder/decoder walks a generation-specific
// tag table; values held in memory are generation-neutral so a Variant
// decoded from a V2 stream can be re-encoded as V4 and vice versa.
//
// The table-driven dispatch here is grounded on the teacher's metadata
// table decoders (dotnet_metadata_tables.go), which look up a row layout
// by table id before decoding fields — the same shape applies to looking
// up a Kind by wire tag before decoding a value.
package variant

import "fmt"

// Generation selects the wire layout: tag assignments, string-table
// presence, NodePath encoding, and the availability of UID/script-class
// metadata all follow from this one value.
type Generation int

const (
	V2 Generation = iota
	V3
	V4
)

func (g Generation) String() string {
	switch g {
	case V2:
		return "v2"
	case V3:
		return "v3"
	case V4:
		return "v4"
	default:
		return "unknown"
	}
}

// Kind discriminates the canonical, generation-neutral Variant value set.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindStringName
	KindVector2
	KindVector2i
	KindRect2
	KindRect2i
	KindVector3
	KindVector3i
	KindTransform2D
	KindPlane
	KindQuaternion
	KindAABB
	KindBasis
	KindTransform3D
	KindColor
	KindNodePath
	KindRID
	KindObject
	KindDictionary
	KindArray
	KindPackedByteArray
	KindPackedInt32Array
	KindPackedInt64Array
	KindPackedFloat32Array
	KindPackedFloat64Array
	KindPackedStringArray
	KindPackedVector2Array
	KindPackedVector3Array
	KindPackedColorArray
)

var kindNames = map[Kind]string{
	KindNil: "Nil", KindBool: "Bool", KindInt32: "Int32", KindInt64: "Int64",
	KindFloat32: "Float32", KindFloat64: "Float64", KindString: "String",
	KindStringName: "StringName", KindVector2: "Vector2", KindVector2i: "Vector2i",
	KindRect2: "Rect2", KindRect2i: "Rect2i", KindVector3: "Vector3", KindVector3i: "Vector3i",
	KindTransform2D: "Transform2D", KindPlane: "Plane", KindQuaternion: "Quaternion",
	KindAABB: "AABB", KindBasis: "Basis", KindTransform3D: "Transform3D", KindColor: "Color",
	KindNodePath: "NodePath", KindRID: "RID", KindObject: "Object",
	KindDictionary: "Dictionary", KindArray: "Array",
	KindPackedByteArray: "PackedByteArray", KindPackedInt32Array: "PackedInt32Array",
	KindPackedInt64Array: "PackedInt64Array", KindPackedFloat32Array: "PackedFloat32Array",
	KindPackedFloat64Array: "PackedFloat64Array", KindPackedStringArray: "PackedStringArray",
	KindPackedVector2Array: "PackedVector2Array", KindPackedVector3Array: "PackedVector3Array",
	KindPackedColorArray: "PackedColorArray",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Variant is the in-memory, generation-neutral polymorphic value. Value
// holds one of the Go types documented per Kind below:
//
//	KindNil                -> nil
//	KindBool               -> bool
//	KindInt32              -> int32
//	KindInt64              -> int64
//	KindFloat32            -> float32
//	KindFloat64            -> float64
//	KindString,StringName  -> string
//	KindVector2            -> Vector2
//	KindVector2i           -> Vector2i
//	KindRect2              -> Rect2
//	KindRect2i             -> Rect2i
//	KindVector3            -> Vector3
//	KindVector3i           -> Vector3i
//	KindTransform2D        -> Transform2D
//	KindPlane              -> Plane
//	KindQuaternion         -> Quaternion
//	KindAABB               -> AABB
//	KindBasis              -> Basis
//	KindTransform3D        -> Transform3D
//	KindColor              -> Color
//	KindNodePath           -> NodePath
//	KindRID                -> RID
//	KindObject             -> ObjectRef
//	KindDictionary         -> *Dictionary
//	KindArray              -> *Array
//	KindPacked*Array       -> []byte/[]int32/[]int64/[]float32/[]float64/[]string/[]Vector2/[]Vector3/[]Color
type Variant struct {
	Kind  Kind
	Value interface{}
}

// Nil is the canonical empty Variant.
var Nil = Variant{Kind: KindNil}

func Bool(b bool) Variant       { return Variant{Kind: KindBool, Value: b} }
func Int32(v int32) Variant     { return Variant{Kind: KindInt32, Value: v} }
func Int64(v int64) Variant     { return Variant{Kind: KindInt64, Value: v} }
func Float32(v float32) Variant { return Variant{Kind: KindFloat32, Value: v} }
func Float64(v float64) Variant { return Variant{Kind: KindFloat64, Value: v} }
func String(s string) Variant   { return Variant{Kind: KindString, Value: s} }
func StringName(s string) Variant {
	return Variant{Kind: KindStringName, Value: s}
}

// Vector2 is a 2D single-precision vector.
type Vector2 struct{ X, Y float32 }

// Vector2i is a 2D 32-bit integer vector.
type Vector2i struct{ X, Y int32 }

// Rect2 is an axis-aligned rectangle with single-precision fields.
type Rect2 struct {
	Position Vector2
	Size     Vector2
}

// Rect2i is an axis-aligned rectangle with integer fields.
type Rect2i struct {
	Position Vector2i
	Size     Vector2i
}

// Vector3 is a 3D single-precision vector.
type Vector3 struct{ X, Y, Z float32 }

// Vector3i is a 3D 32-bit integer vector.
type Vector3i struct{ X, Y, Z int32 }

// Transform2D is a 2D affine transform: two basis columns and an origin.
type Transform2D struct {
	X, Y   Vector2
	Origin Vector2
}

// Plane is a 3D plane in normal-distance form.
type Plane struct {
	Normal Vector3
	D      float32
}

// Quaternion is a unit quaternion rotation.
type Quaternion struct{ X, Y, Z, W float32 }

// AABB is a 3D axis-aligned bounding box.
type AABB struct {
	Position Vector3
	Size     Vector3
}

// Basis is a 3x3 rotation/scale matrix stored as three row vectors.
type Basis struct {
	Rows [3]Vector3
}

// Transform3D is a 3D affine transform: a Basis plus an origin.
type Transform3D struct {
	Basis  Basis
	Origin Vector3
}

// Color is an RGBA color with single-precision channels in [0, 1].
type Color struct{ R, G, B, A float32 }

// NodePath references a location in a scene tree, with optional subnames
// and (V2 only) a trailing property name.
type NodePath struct {
	Names    []string
	Subnames []string
	Property string // V2 only; empty when absent
	Absolute bool
}

// RID is an opaque resource identifier.
type RID struct{ ID uint64 }

// ObjectKind discriminates the four ways an Object Variant can be stored.
type ObjectKind uint8

const (
	ObjectEmpty ObjectKind = iota
	ObjectExternalByPath
	ObjectInternalByIndex
	ObjectExternalByIndex
	// ObjectInlineBag carries a full class+property bag inline. It is only
	// produced when decoding V2 embedded Image/InputEvent objects (see the
	// legacyobj package).
	ObjectInlineBag
)

// ObjectRef is the decoded form of a Variant Object: either empty, a
// legacy path reference, an index into a ResourceGraph's internal or
// external resource tables, or (V2 legacy only) an inline property bag.
type ObjectRef struct {
	Kind ObjectKind

	// ObjectExternalByPath
	Type string
	Path string

	// ObjectInternalByIndex
	Subindex uint32

	// ObjectExternalByIndex
	ExternalIdx uint32

	// ObjectInlineBag
	ClassName  string
	Properties *Dictionary
}

// DictEntry is one key/value pair of a Dictionary, order-preserving.
type DictEntry struct {
	Key   Variant
	Value Variant
}

// Dictionary is an insertion-ordered string-keyed (or Variant-keyed) map.
type Dictionary struct {
	Entries []DictEntry
}

// Get returns the value for key and whether it was present.
func (d *Dictionary) Get(key Variant) (Variant, bool) {
	for _, e := range d.Entries {
		if variantEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return Nil, false
}

// Set appends or overwrites the entry for key, preserving first-seen order.
func (d *Dictionary) Set(key, value Variant) {
	for i, e := range d.Entries {
		if variantEqual(e.Key, key) {
			d.Entries[i].Value = value
			return
		}
	}
	d.Entries = append(d.Entries, DictEntry{Key: key, Value: value})
}

// Array is an ordered, heterogeneous Variant sequence.
type Array struct {
	Items []Variant
}

func variantEqual(a, b Variant) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindString, KindStringName:
		return a.Value.(string) == b.Value.(string)
	case KindInt32:
		return a.Value.(int32) == b.Value.(int32)
	case KindInt64:
		return a.Value.(int64) == b.Value.(int64)
	case KindBool:
		return a.Value.(bool) == b.Value.(bool)
	default:
		return fmt.Sprintf("%v", a.Value) == fmt.Sprintf("%v", b.Value)
	}
}
