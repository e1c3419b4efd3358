package variant

import "github.com/godot-re/gdre/bio"

func (c *Codec) decodeV4(r *bio.Reader, tag uint32) (Variant, error) {
	kind, ok := v4Table.kindFor(tag)
	if !ok {
		return Nil, errUnknownTag(V4, tag)
	}
	switch kind {
	case KindNil:
		return Nil, nil
	case KindBool:
		v, err := r.ReadU32()
		return Bool(v != 0), err
	case KindInt32:
		v, err := r.ReadI32()
		return Int32(v), err
	case KindInt64:
		v, err := r.ReadI64()
		return Int64(v), err
	case KindFloat32:
		v, err := r.ReadF32()
		return Float32(v), err
	case KindFloat64:
		v, err := r.ReadF64()
		return Float64(v), err
	case KindString:
		v, err := r.ReadPaddedString()
		return String(v), err
	case KindStringName:
		v, err := r.ReadPaddedString()
		return StringName(v), err
	case KindVector2:
		v, err := c.readVector2(r)
		return Variant{Kind: KindVector2, Value: v}, err
	case KindVector2i:
		v, err := c.readVector2i(r)
		return Variant{Kind: KindVector2i, Value: v}, err
	case KindRect2:
		v, err := c.readRect2(r)
		return Variant{Kind: KindRect2, Value: v}, err
	case KindRect2i:
		v, err := c.readRect2i(r)
		return Variant{Kind: KindRect2i, Value: v}, err
	case KindVector3:
		v, err := c.readVector3(r)
		return Variant{Kind: KindVector3, Value: v}, err
	case KindVector3i:
		v, err := c.readVector3i(r)
		return Variant{Kind: KindVector3i, Value: v}, err
	case KindTransform2D:
		v, err := c.readTransform2D(r)
		return Variant{Kind: KindTransform2D, Value: v}, err
	case KindPlane:
		v, err := c.readPlane(r)
		return Variant{Kind: KindPlane, Value: v}, err
	case KindQuaternion:
		v, err := c.readQuaternion(r)
		return Variant{Kind: KindQuaternion, Value: v}, err
	case KindAABB:
		v, err := c.readAABB(r)
		return Variant{Kind: KindAABB, Value: v}, err
	case KindBasis:
		v, err := c.readBasis(r)
		return Variant{Kind: KindBasis, Value: v}, err
	case KindTransform3D:
		v, err := c.readTransform3D(r)
		return Variant{Kind: KindTransform3D, Value: v}, err
	case KindColor:
		v, err := c.readColor(r)
		return Variant{Kind: KindColor, Value: v}, err
	case KindNodePath:
		v, err := c.readNodePath(r)
		return Variant{Kind: KindNodePath, Value: v}, err
	case KindRID:
		v, err := c.readRID(r)
		return Variant{Kind: KindRID, Value: v}, err
	case KindObject:
		v, err := c.readObject(r)
		return Variant{Kind: KindObject, Value: v}, err
	case KindDictionary:
		v, err := c.readDictionary(r)
		return Variant{Kind: KindDictionary, Value: v}, err
	case KindArray:
		v, err := c.readArray(r)
		return Variant{Kind: KindArray, Value: v}, err
	case KindPackedByteArray:
		v, err := readPackedByteArray(r)
		return Variant{Kind: KindPackedByteArray, Value: v}, err
	case KindPackedInt32Array:
		v, err := readPackedInt32Array(r)
		return Variant{Kind: KindPackedInt32Array, Value: v}, err
	case KindPackedInt64Array:
		v, err := readPackedInt64Array(r)
		return Variant{Kind: KindPackedInt64Array, Value: v}, err
	case KindPackedFloat32Array:
		v, err := readPackedFloat32Array(r)
		return Variant{Kind: KindPackedFloat32Array, Value: v}, err
	case KindPackedFloat64Array:
		v, err := readPackedFloat64Array(r)
		return Variant{Kind: KindPackedFloat64Array, Value: v}, err
	case KindPackedStringArray:
		v, err := readPackedStringArray(r)
		return Variant{Kind: KindPackedStringArray, Value: v}, err
	case KindPackedVector2Array:
		v, err := c.readPackedVector2Array(r)
		return Variant{Kind: KindPackedVector2Array, Value: v}, err
	case KindPackedVector3Array:
		v, err := c.readPackedVector3Array(r)
		return Variant{Kind: KindPackedVector3Array, Value: v}, err
	case KindPackedColorArray:
		v, err := c.readPackedColorArray(r)
		return Variant{Kind: KindPackedColorArray, Value: v}, err
	default:
		return Nil, errUnknownTag(V4, tag)
	}
}

func (c *Codec) encodeV4(w *bio.Writer, v Variant) error {
	tag, ok := v4Table.tagFor(v.Kind)
	if !ok {
		return errNotRepresentable(V4, v.Kind)
	}
	if err := w.WriteU32(tag); err != nil {
		return err
	}
	switch v.Kind {
	case KindNil:
		return nil
	case KindBool:
		b := uint32(0)
		if v.Value.(bool) {
			b = 1
		}
		return w.WriteU32(b)
	case KindInt32:
		return w.WriteI32(v.Value.(int32))
	case KindInt64:
		return w.WriteI64(v.Value.(int64))
	case KindFloat32:
		return w.WriteF32(v.Value.(float32))
	case KindFloat64:
		return w.WriteF64(v.Value.(float64))
	case KindString, KindStringName:
		return w.WritePaddedString(v.Value.(string))
	case KindVector2:
		return c.writeVector2(w, v.Value.(Vector2))
	case KindVector2i:
		return c.writeVector2i(w, v.Value.(Vector2i))
	case KindRect2:
		return c.writeRect2(w, v.Value.(Rect2))
	case KindRect2i:
		return c.writeRect2i(w, v.Value.(Rect2i))
	case KindVector3:
		return c.writeVector3(w, v.Value.(Vector3))
	case KindVector3i:
		return c.writeVector3i(w, v.Value.(Vector3i))
	case KindTransform2D:
		return c.writeTransform2D(w, v.Value.(Transform2D))
	case KindPlane:
		return c.writePlane(w, v.Value.(Plane))
	case KindQuaternion:
		return c.writeQuaternion(w, v.Value.(Quaternion))
	case KindAABB:
		return c.writeAABB(w, v.Value.(AABB))
	case KindBasis:
		return c.writeBasis(w, v.Value.(Basis))
	case KindTransform3D:
		return c.writeTransform3D(w, v.Value.(Transform3D))
	case KindColor:
		return c.writeColor(w, v.Value.(Color))
	case KindNodePath:
		return c.writeNodePath(w, v.Value.(NodePath))
	case KindRID:
		return c.writeRID(w, v.Value.(RID))
	case KindObject:
		return c.writeObject(w, v.Value.(ObjectRef))
	case KindDictionary:
		return c.writeDictionary(w, v.Value.(*Dictionary))
	case KindArray:
		return c.writeArray(w, v.Value.(*Array))
	case KindPackedByteArray:
		return writePackedByteArray(w, v.Value.([]byte))
	case KindPackedInt32Array:
		return writePackedInt32Array(w, v.Value.([]int32))
	case KindPackedInt64Array:
		return writePackedInt64Array(w, v.Value.([]int64))
	case KindPackedFloat32Array:
		return writePackedFloat32Array(w, v.Value.([]float32))
	case KindPackedFloat64Array:
		return writePackedFloat64Array(w, v.Value.([]float64))
	case KindPackedStringArray:
		return writePackedStringArray(w, v.Value.([]string))
	case KindPackedVector2Array:
		return c.writePackedVector2Array(w, v.Value.([]Vector2))
	case KindPackedVector3Array:
		return c.writePackedVector3Array(w, v.Value.([]Vector3))
	case KindPackedColorArray:
		return c.writePackedColorArray(w, v.Value.([]Color))
	default:
		return errNotRepresentable(V4, v.Kind)
	}
}
