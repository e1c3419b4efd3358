package variant

// Tag layout, per spec §4.2: one u32 per value. The low byte carries the
// type id; flag bits live in the high half.
const (
	tagTypeMask = 0xFF

	// flagEncode64 (V3 only) distinguishes Int32/Int64 and Float32/Float64:
	// when set, an Int/Real tag decodes to the 64-bit canonical Kind.
	flagEncode64 = 1 << 16

	// flagObjectAsID stores an Object as an 8-byte opaque id instead of the
	// inline kind-byte-stream form (§4.2 "Object").
	flagObjectAsID = 1 << 17
)

type tagTable struct {
	kindToTag map[Kind]uint32
	tagToKind map[uint32]Kind
}

func newTagTable(pairs [][2]interface{}) *tagTable {
	t := &tagTable{
		kindToTag: make(map[Kind]uint32, len(pairs)),
		tagToKind: make(map[uint32]Kind, len(pairs)),
	}
	for _, p := range pairs {
		k := p[0].(Kind)
		tag := uint32(p[1].(int))
		t.kindToTag[k] = tag
		t.tagToKind[tag] = k
	}
	return t
}

func (t *tagTable) tagFor(k Kind) (uint32, bool) {
	tag, ok := t.kindToTag[k]
	return tag, ok
}

func (t *tagTable) kindFor(tag uint32) (Kind, bool) {
	k, ok := t.tagToKind[tag]
	return k, ok
}

// v4Table covers every V4 Kind directly; Int32/Int64 and Float32/Float64
// each get their own tag (no 64-bit flag in V4). Vector3's tag (7) is
// pinned by the S1 conformance scenario; the remaining assignments are
// this implementation's own internally-consistent scheme (see DESIGN.md).
var v4Table = newTagTable([][2]interface{}{
	{KindNil, 0}, {KindBool, 1}, {KindInt32, 2}, {KindInt64, 3},
	{KindFloat32, 4}, {KindFloat64, 5}, {KindString, 6},
	{KindVector3, 7}, {KindVector2, 8}, {KindVector2i, 9},
	{KindRect2, 10}, {KindRect2i, 11}, {KindVector3i, 12},
	{KindTransform2D, 13}, {KindPlane, 14}, {KindQuaternion, 15},
	{KindAABB, 16}, {KindBasis, 17}, {KindTransform3D, 18}, {KindColor, 19},
	{KindStringName, 20}, {KindNodePath, 21}, {KindRID, 22}, {KindObject, 23},
	{KindDictionary, 24}, {KindArray, 25},
	{KindPackedByteArray, 26}, {KindPackedInt32Array, 27}, {KindPackedInt64Array, 28},
	{KindPackedFloat32Array, 29}, {KindPackedFloat64Array, 30}, {KindPackedStringArray, 31},
	{KindPackedVector2Array, 32}, {KindPackedVector3Array, 33}, {KindPackedColorArray, 34},
})

// v3TagInt/v3TagReal are decoded/encoded together with flagEncode64 to
// select the 32- or 64-bit canonical Kind.
const (
	v3TagNil         = 0
	v3TagBool        = 1
	v3TagInt         = 2
	v3TagReal        = 3
	v3TagString      = 4
	v3TagVector2     = 5
	v3TagRect2       = 6
	v3TagVector3     = 7
	v3TagTransform2D = 8 // Matrix32
	v3TagPlane       = 9
	v3TagQuat        = 10
	v3TagAABB        = 11
	v3TagBasis       = 12 // Matrix3
	v3TagTransform3D = 13 // Transform
	v3TagColor       = 14
	v3TagNodePath    = 15
	v3TagRID         = 16
	v3TagObject      = 17
	v3TagDictionary  = 18
	v3TagArray       = 19
	v3TagPoolByte    = 20
	v3TagPoolInt     = 21
	v3TagPoolReal    = 22
	v3TagPoolString  = 23
	v3TagPoolVector2 = 24
	v3TagPoolVector3 = 25
	v3TagPoolColor   = 26
)

// v3Table covers every V3 Kind except Int/Int64/Float32/Float64 (handled
// via v3TagInt/v3TagReal + flagEncode64) and StringName (V3 has no
// distinct StringName tag; it round-trips as String).
var v3Table = newTagTable([][2]interface{}{
	{KindNil, v3TagNil}, {KindBool, v3TagBool}, {KindString, v3TagString},
	{KindVector2, v3TagVector2}, {KindRect2, v3TagRect2}, {KindVector3, v3TagVector3},
	{KindTransform2D, v3TagTransform2D}, {KindPlane, v3TagPlane}, {KindQuaternion, v3TagQuat},
	{KindAABB, v3TagAABB}, {KindBasis, v3TagBasis}, {KindTransform3D, v3TagTransform3D},
	{KindColor, v3TagColor}, {KindNodePath, v3TagNodePath}, {KindRID, v3TagRID},
	{KindObject, v3TagObject}, {KindDictionary, v3TagDictionary}, {KindArray, v3TagArray},
	{KindPackedByteArray, v3TagPoolByte}, {KindPackedInt32Array, v3TagPoolInt},
	{KindPackedFloat32Array, v3TagPoolReal}, {KindPackedStringArray, v3TagPoolString},
	{KindPackedVector2Array, v3TagPoolVector2}, {KindPackedVector3Array, v3TagPoolVector3},
	{KindPackedColorArray, v3TagPoolColor},
})

// v2 tags. V2 additionally has Image (15) and InputEvent (19), both
// normalized to KindObject on decode via the legacyobj hooks in codec.go.
const (
	v2TagNil         = 0
	v2TagBool        = 1
	v2TagInt         = 2
	v2TagReal        = 3
	v2TagString      = 4
	v2TagVector2     = 5
	v2TagRect2       = 6
	v2TagVector3     = 7
	v2TagPlane       = 8
	v2TagQuat        = 9
	v2TagAABB        = 10
	v2TagMatrix3     = 11
	v2TagTransform   = 12
	v2TagMatrix32    = 13
	v2TagColor       = 14
	v2TagImage       = 15
	v2TagNodePath    = 16
	v2TagRID         = 17
	v2TagObject      = 18
	v2TagInputEvent  = 19
	v2TagDictionary  = 20
	v2TagArray       = 21
	v2TagRawArray    = 22
	v2TagIntArray    = 23
	v2TagRealArray   = 24
	v2TagStringArray = 25
	v2TagVector2Arr  = 26
	v2TagVector3Arr  = 27
	v2TagColorArray  = 28
)

var v2Table = newTagTable([][2]interface{}{
	{KindNil, v2TagNil}, {KindBool, v2TagBool}, {KindString, v2TagString},
	{KindVector2, v2TagVector2}, {KindRect2, v2TagRect2}, {KindVector3, v2TagVector3},
	{KindPlane, v2TagPlane}, {KindQuaternion, v2TagQuat}, {KindAABB, v2TagAABB},
	{KindBasis, v2TagMatrix3}, {KindTransform3D, v2TagTransform}, {KindTransform2D, v2TagMatrix32},
	{KindColor, v2TagColor}, {KindNodePath, v2TagNodePath}, {KindRID, v2TagRID},
	{KindObject, v2TagObject}, {KindDictionary, v2TagDictionary}, {KindArray, v2TagArray},
	{KindPackedByteArray, v2TagRawArray}, {KindPackedInt32Array, v2TagIntArray},
	{KindPackedFloat32Array, v2TagRealArray}, {KindPackedStringArray, v2TagStringArray},
	{KindPackedVector2Array, v2TagVector2Arr}, {KindPackedVector3Array, v2TagVector3Arr},
	{KindPackedColorArray, v2TagColorArray},
})

func tableFor(gen Generation) *tagTable {
	switch gen {
	case V2:
		return v2Table
	case V3:
		return v3Table
	default:
		return v4Table
	}
}
