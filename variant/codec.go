package variant

import (
	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
)

// Hooks the legacyobj package installs at init time so this codec can
// normalize V2's embedded Image/InputEvent objects into canonical V4-shaped
// Objects without variant importing legacyobj (which itself imports
// variant for the Variant/ObjectRef types).
var (
	V2ImageDecoder      func(r *bio.Reader) (ObjectRef, error)
	V2ImageEncoder      func(w *bio.Writer, obj ObjectRef) (bool, error)
	V2InputEventDecoder func(r *bio.Reader) (ObjectRef, error)
	V2InputEventEncoder func(w *bio.Writer, obj ObjectRef) (bool, error)
)

// Codec encodes/decodes Variants for one engine generation.
type Codec struct {
	Gen     Generation
	Strings StringTable // optional; nil means NodePath names are inline strings
	depth   *bio.DepthGuard
}

// NewCodec returns a Codec for gen. strings may be nil. maxDepth <= 0 uses
// bio.DefaultMaxDepth.
func NewCodec(gen Generation, strings StringTable, maxDepth int) *Codec {
	return &Codec{Gen: gen, Strings: strings, depth: bio.NewDepthGuard(maxDepth)}
}

// Decode reads one Variant from r.
func (c *Codec) Decode(r *bio.Reader) (Variant, error) {
	if err := c.depth.Enter(); err != nil {
		return Nil, err
	}
	defer c.depth.Exit()

	rawTag, err := r.ReadU32()
	if err != nil {
		return Nil, err
	}
	tag := rawTag & tagTypeMask
	flags := rawTag &^ tagTypeMask

	switch c.Gen {
	case V4:
		return c.decodeV4(r, tag)
	case V3:
		return c.decodeV3(r, tag, flags)
	default:
		return c.decodeV2(r, tag)
	}
}

// Encode writes v to w using the generation's tag table.
func (c *Codec) Encode(w *bio.Writer, v Variant) error {
	if err := c.depth.Enter(); err != nil {
		return err
	}
	defer c.depth.Exit()

	switch c.Gen {
	case V4:
		return c.encodeV4(w, v)
	case V3:
		return c.encodeV3(w, v)
	default:
		return c.encodeV2(w, v)
	}
}

// --- shared scalar/composite helpers -------------------------------------

func (c *Codec) readVector2(r *bio.Reader) (Vector2, error) {
	x, err := r.ReadF32()
	if err != nil {
		return Vector2{}, err
	}
	y, err := r.ReadF32()
	if err != nil {
		return Vector2{}, err
	}
	return Vector2{X: x, Y: y}, nil
}

func (c *Codec) writeVector2(w *bio.Writer, v Vector2) error {
	if err := w.WriteF32(v.X); err != nil {
		return err
	}
	return w.WriteF32(v.Y)
}

func (c *Codec) readVector2i(r *bio.Reader) (Vector2i, error) {
	x, err := r.ReadI32()
	if err != nil {
		return Vector2i{}, err
	}
	y, err := r.ReadI32()
	if err != nil {
		return Vector2i{}, err
	}
	return Vector2i{X: x, Y: y}, nil
}

func (c *Codec) writeVector2i(w *bio.Writer, v Vector2i) error {
	if err := w.WriteI32(v.X); err != nil {
		return err
	}
	return w.WriteI32(v.Y)
}

func (c *Codec) readVector3(r *bio.Reader) (Vector3, error) {
	x, err := r.ReadF32()
	if err != nil {
		return Vector3{}, err
	}
	y, err := r.ReadF32()
	if err != nil {
		return Vector3{}, err
	}
	z, err := r.ReadF32()
	if err != nil {
		return Vector3{}, err
	}
	return Vector3{X: x, Y: y, Z: z}, nil
}

func (c *Codec) writeVector3(w *bio.Writer, v Vector3) error {
	if err := w.WriteF32(v.X); err != nil {
		return err
	}
	if err := w.WriteF32(v.Y); err != nil {
		return err
	}
	return w.WriteF32(v.Z)
}

func (c *Codec) readVector3i(r *bio.Reader) (Vector3i, error) {
	x, err := r.ReadI32()
	if err != nil {
		return Vector3i{}, err
	}
	y, err := r.ReadI32()
	if err != nil {
		return Vector3i{}, err
	}
	z, err := r.ReadI32()
	if err != nil {
		return Vector3i{}, err
	}
	return Vector3i{X: x, Y: y, Z: z}, nil
}

func (c *Codec) writeVector3i(w *bio.Writer, v Vector3i) error {
	if err := w.WriteI32(v.X); err != nil {
		return err
	}
	if err := w.WriteI32(v.Y); err != nil {
		return err
	}
	return w.WriteI32(v.Z)
}

func (c *Codec) readRect2(r *bio.Reader) (Rect2, error) {
	pos, err := c.readVector2(r)
	if err != nil {
		return Rect2{}, err
	}
	size, err := c.readVector2(r)
	if err != nil {
		return Rect2{}, err
	}
	return Rect2{Position: pos, Size: size}, nil
}

func (c *Codec) writeRect2(w *bio.Writer, v Rect2) error {
	if err := c.writeVector2(w, v.Position); err != nil {
		return err
	}
	return c.writeVector2(w, v.Size)
}

func (c *Codec) readRect2i(r *bio.Reader) (Rect2i, error) {
	pos, err := c.readVector2i(r)
	if err != nil {
		return Rect2i{}, err
	}
	size, err := c.readVector2i(r)
	if err != nil {
		return Rect2i{}, err
	}
	return Rect2i{Position: pos, Size: size}, nil
}

func (c *Codec) writeRect2i(w *bio.Writer, v Rect2i) error {
	if err := c.writeVector2i(w, v.Position); err != nil {
		return err
	}
	return c.writeVector2i(w, v.Size)
}

func (c *Codec) readTransform2D(r *bio.Reader) (Transform2D, error) {
	x, err := c.readVector2(r)
	if err != nil {
		return Transform2D{}, err
	}
	y, err := c.readVector2(r)
	if err != nil {
		return Transform2D{}, err
	}
	o, err := c.readVector2(r)
	if err != nil {
		return Transform2D{}, err
	}
	return Transform2D{X: x, Y: y, Origin: o}, nil
}

func (c *Codec) writeTransform2D(w *bio.Writer, v Transform2D) error {
	if err := c.writeVector2(w, v.X); err != nil {
		return err
	}
	if err := c.writeVector2(w, v.Y); err != nil {
		return err
	}
	return c.writeVector2(w, v.Origin)
}

func (c *Codec) readPlane(r *bio.Reader) (Plane, error) {
	n, err := c.readVector3(r)
	if err != nil {
		return Plane{}, err
	}
	d, err := r.ReadF32()
	if err != nil {
		return Plane{}, err
	}
	return Plane{Normal: n, D: d}, nil
}

func (c *Codec) writePlane(w *bio.Writer, v Plane) error {
	if err := c.writeVector3(w, v.Normal); err != nil {
		return err
	}
	return w.WriteF32(v.D)
}

func (c *Codec) readQuaternion(r *bio.Reader) (Quaternion, error) {
	vals := make([]float32, 4)
	for i := range vals {
		v, err := r.ReadF32()
		if err != nil {
			return Quaternion{}, err
		}
		vals[i] = v
	}
	return Quaternion{X: vals[0], Y: vals[1], Z: vals[2], W: vals[3]}, nil
}

func (c *Codec) writeQuaternion(w *bio.Writer, v Quaternion) error {
	for _, f := range []float32{v.X, v.Y, v.Z, v.W} {
		if err := w.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readAABB(r *bio.Reader) (AABB, error) {
	pos, err := c.readVector3(r)
	if err != nil {
		return AABB{}, err
	}
	size, err := c.readVector3(r)
	if err != nil {
		return AABB{}, err
	}
	return AABB{Position: pos, Size: size}, nil
}

func (c *Codec) writeAABB(w *bio.Writer, v AABB) error {
	if err := c.writeVector3(w, v.Position); err != nil {
		return err
	}
	return c.writeVector3(w, v.Size)
}

func (c *Codec) readBasis(r *bio.Reader) (Basis, error) {
	var b Basis
	for i := range b.Rows {
		v, err := c.readVector3(r)
		if err != nil {
			return Basis{}, err
		}
		b.Rows[i] = v
	}
	return b, nil
}

func (c *Codec) writeBasis(w *bio.Writer, v Basis) error {
	for _, row := range v.Rows {
		if err := c.writeVector3(w, row); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readTransform3D(r *bio.Reader) (Transform3D, error) {
	b, err := c.readBasis(r)
	if err != nil {
		return Transform3D{}, err
	}
	o, err := c.readVector3(r)
	if err != nil {
		return Transform3D{}, err
	}
	return Transform3D{Basis: b, Origin: o}, nil
}

func (c *Codec) writeTransform3D(w *bio.Writer, v Transform3D) error {
	if err := c.writeBasis(w, v.Basis); err != nil {
		return err
	}
	return c.writeVector3(w, v.Origin)
}

func (c *Codec) readColor(r *bio.Reader) (Color, error) {
	vals := make([]float32, 4)
	for i := range vals {
		v, err := r.ReadF32()
		if err != nil {
			return Color{}, err
		}
		vals[i] = v
	}
	return Color{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}

func (c *Codec) writeColor(w *bio.Writer, v Color) error {
	for _, f := range []float32{v.R, v.G, v.B, v.A} {
		if err := w.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readNodePathName(r *bio.Reader) (string, error) {
	if c.Strings != nil {
		idx, err := r.ReadU32()
		if err != nil {
			return "", err
		}
		return c.Strings.Lookup(idx)
	}
	return r.ReadPaddedString()
}

func (c *Codec) writeNodePathName(w *bio.Writer, s string) error {
	if c.Strings != nil {
		return w.WriteU32(c.Strings.Intern(s))
	}
	return w.WritePaddedString(s)
}

// readNodePath implements the "new" NodePath format shared by V3/V4; V2
// adds a trailing property name (see readNodePathV2).
func (c *Codec) readNodePath(r *bio.Reader) (NodePath, error) {
	nameCount, err := r.ReadU16()
	if err != nil {
		return NodePath{}, err
	}
	subCountRaw, err := r.ReadU16()
	if err != nil {
		return NodePath{}, err
	}
	absolute := subCountRaw&0x8000 != 0
	subCount := subCountRaw &^ 0x8000

	names := make([]string, nameCount)
	for i := range names {
		s, err := c.readNodePathName(r)
		if err != nil {
			return NodePath{}, err
		}
		names[i] = s
	}
	subnames := make([]string, subCount)
	for i := range subnames {
		s, err := c.readNodePathName(r)
		if err != nil {
			return NodePath{}, err
		}
		subnames[i] = s
	}
	return NodePath{Names: names, Subnames: subnames, Absolute: absolute}, nil
}

func (c *Codec) writeNodePath(w *bio.Writer, np NodePath) error {
	if err := w.WriteU16(uint16(len(np.Names))); err != nil {
		return err
	}
	subCount := uint16(len(np.Subnames))
	if np.Absolute {
		subCount |= 0x8000
	}
	if err := w.WriteU16(subCount); err != nil {
		return err
	}
	for _, n := range np.Names {
		if err := c.writeNodePathName(w, n); err != nil {
			return err
		}
	}
	for _, n := range np.Subnames {
		if err := c.writeNodePathName(w, n); err != nil {
			return err
		}
	}
	return nil
}

// readNodePathV2 reads the "new" NodePath layout plus the V2 trailing
// property identifier, moving it into the Property field (or leaving it
// empty when the zero-length sentinel is present).
func (c *Codec) readNodePathV2(r *bio.Reader) (NodePath, error) {
	np, err := c.readNodePath(r)
	if err != nil {
		return NodePath{}, err
	}
	prop, err := c.readNodePathName(r)
	if err != nil {
		return NodePath{}, err
	}
	np.Property = prop
	return np, nil
}

func (c *Codec) writeNodePathV2(w *bio.Writer, np NodePath) error {
	if err := c.writeNodePath(w, np); err != nil {
		return err
	}
	return c.writeNodePathName(w, np.Property)
}

func (c *Codec) readRID(r *bio.Reader) (RID, error) {
	v, err := r.ReadU64()
	return RID{ID: v}, err
}

func (c *Codec) writeRID(w *bio.Writer, v RID) error {
	return w.WriteU64(v.ID)
}

// object kind byte-stream enum shared by all three generations.
const (
	objByteEmpty          = 0
	objByteExternalByPath = 1
	objByteInternalByIdx  = 2
	objByteExternalByIdx  = 3
)

func (c *Codec) readObject(r *bio.Reader) (ObjectRef, error) {
	kind, err := r.ReadU8()
	if err != nil {
		return ObjectRef{}, err
	}
	switch kind {
	case objByteEmpty:
		return ObjectRef{Kind: ObjectEmpty}, nil
	case objByteExternalByPath:
		typ, err := r.ReadPaddedString()
		if err != nil {
			return ObjectRef{}, err
		}
		path, err := r.ReadPaddedString()
		if err != nil {
			return ObjectRef{}, err
		}
		return ObjectRef{Kind: ObjectExternalByPath, Type: typ, Path: path}, nil
	case objByteInternalByIdx:
		idx, err := r.ReadU32()
		if err != nil {
			return ObjectRef{}, err
		}
		return ObjectRef{Kind: ObjectInternalByIndex, Subindex: idx}, nil
	case objByteExternalByIdx:
		idx, err := r.ReadU32()
		if err != nil {
			return ObjectRef{}, err
		}
		return ObjectRef{Kind: ObjectExternalByIndex, ExternalIdx: idx}, nil
	default:
		off, _ := r.Tell()
		return ObjectRef{}, gdreerr.New(gdreerr.CorruptData, "unknown Object kind byte").At(off)
	}
}

func (c *Codec) writeObject(w *bio.Writer, obj ObjectRef) error {
	switch obj.Kind {
	case ObjectEmpty, ObjectInlineBag:
		// ObjectInlineBag has no wire representation outside the V2 legacy
		// hooks; callers that reach here with one are writing a generic
		// Object and it degrades to empty.
		return w.WriteU8(objByteEmpty)
	case ObjectExternalByPath:
		if err := w.WriteU8(objByteExternalByPath); err != nil {
			return err
		}
		if err := w.WritePaddedString(obj.Type); err != nil {
			return err
		}
		return w.WritePaddedString(obj.Path)
	case ObjectInternalByIndex:
		if err := w.WriteU8(objByteInternalByIdx); err != nil {
			return err
		}
		return w.WriteU32(obj.Subindex)
	case ObjectExternalByIndex:
		if err := w.WriteU8(objByteExternalByIdx); err != nil {
			return err
		}
		return w.WriteU32(obj.ExternalIdx)
	default:
		return gdreerr.New(gdreerr.CorruptData, "unknown ObjectRef.Kind")
	}
}

// containerCount reads a container's element count, masking off the
// historical "shared" top bit (spec §4.2: "top bit reserved and masked off").
func containerCount(r *bio.Reader) (uint32, error) {
	raw, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return raw &^ 0x80000000, nil
}

func (c *Codec) readDictionary(r *bio.Reader) (*Dictionary, error) {
	n, err := containerCount(r)
	if err != nil {
		return nil, err
	}
	d := &Dictionary{Entries: make([]DictEntry, 0, n)}
	for i := uint32(0); i < n; i++ {
		key, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		val, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		d.Entries = append(d.Entries, DictEntry{Key: key, Value: val})
	}
	return d, nil
}

func (c *Codec) writeDictionary(w *bio.Writer, d *Dictionary) error {
	if err := w.WriteU32(uint32(len(d.Entries))); err != nil {
		return err
	}
	for _, e := range d.Entries {
		if err := c.Encode(w, e.Key); err != nil {
			return err
		}
		if err := c.Encode(w, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readArray(r *bio.Reader) (*Array, error) {
	n, err := containerCount(r)
	if err != nil {
		return nil, err
	}
	a := &Array{Items: make([]Variant, 0, n)}
	for i := uint32(0); i < n; i++ {
		v, err := c.Decode(r)
		if err != nil {
			return nil, err
		}
		a.Items = append(a.Items, v)
	}
	return a, nil
}

func (c *Codec) writeArray(w *bio.Writer, a *Array) error {
	if err := w.WriteU32(uint32(len(a.Items))); err != nil {
		return err
	}
	for _, v := range a.Items {
		if err := c.Encode(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readPackedByteArray(r *bio.Reader) ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	pad := bio.AlignPad(n)
	if pad > 0 {
		if _, err := r.ReadBytes(int(pad)); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func writePackedByteArray(w *bio.Writer, data []byte) error {
	if err := w.WriteU32(uint32(len(data))); err != nil {
		return err
	}
	if err := w.WriteBytes(data); err != nil {
		return err
	}
	pad := bio.AlignPad(uint32(len(data)))
	if pad == 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, pad))
}

func readPackedInt32Array(r *bio.Reader) ([]int32, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		v, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writePackedInt32Array(w *bio.Writer, vals []int32) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteI32(v); err != nil {
			return err
		}
	}
	return nil
}

func readPackedInt64Array(r *bio.Reader) ([]int64, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		v, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writePackedInt64Array(w *bio.Writer, vals []int64) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteI64(v); err != nil {
			return err
		}
	}
	return nil
}

func readPackedFloat32Array(r *bio.Reader) ([]float32, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		v, err := r.ReadF32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writePackedFloat32Array(w *bio.Writer, vals []float32) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteF32(v); err != nil {
			return err
		}
	}
	return nil
}

func readPackedFloat64Array(r *bio.Reader) ([]float64, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		v, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writePackedFloat64Array(w *bio.Writer, vals []float64) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := w.WriteF64(v); err != nil {
			return err
		}
	}
	return nil
}

func readPackedStringArray(r *bio.Reader) ([]string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func writePackedStringArray(w *bio.Writer, vals []string) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, s := range vals {
		if err := w.WritePaddedString(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readPackedVector2Array(r *bio.Reader) ([]Vector2, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]Vector2, n)
	for i := range out {
		v, err := c.readVector2(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Codec) writePackedVector2Array(w *bio.Writer, vals []Vector2) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := c.writeVector2(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readPackedVector3Array(r *bio.Reader) ([]Vector3, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]Vector3, n)
	for i := range out {
		v, err := c.readVector3(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Codec) writePackedVector3Array(w *bio.Writer, vals []Vector3) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := c.writeVector3(w, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) readPackedColorArray(r *bio.Reader) ([]Color, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]Color, n)
	for i := range out {
		v, err := c.readColor(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Codec) writePackedColorArray(w *bio.Writer, vals []Color) error {
	if err := w.WriteU32(uint32(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := c.writeColor(w, v); err != nil {
			return err
		}
	}
	return nil
}
