package variant

import "github.com/godot-re/gdre/bio"

func (c *Codec) decodeV3(r *bio.Reader, tag, flags uint32) (Variant, error) {
	is64 := flags&flagEncode64 != 0

	switch tag {
	case v3TagNil:
		return Nil, nil
	case v3TagBool:
		v, err := r.ReadU32()
		return Bool(v != 0), err
	case v3TagInt:
		if is64 {
			v, err := r.ReadI64()
			return Int64(v), err
		}
		v, err := r.ReadI32()
		return Int32(v), err
	case v3TagReal:
		if is64 {
			v, err := r.ReadF64()
			return Float64(v), err
		}
		v, err := r.ReadF32()
		return Float32(v), err
	case v3TagString:
		v, err := r.ReadPaddedString()
		return String(v), err
	case v3TagVector2:
		v, err := c.readVector2(r)
		return Variant{Kind: KindVector2, Value: v}, err
	case v3TagRect2:
		v, err := c.readRect2(r)
		return Variant{Kind: KindRect2, Value: v}, err
	case v3TagVector3:
		v, err := c.readVector3(r)
		return Variant{Kind: KindVector3, Value: v}, err
	case v3TagTransform2D:
		v, err := c.readTransform2D(r)
		return Variant{Kind: KindTransform2D, Value: v}, err
	case v3TagPlane:
		v, err := c.readPlane(r)
		return Variant{Kind: KindPlane, Value: v}, err
	case v3TagQuat:
		v, err := c.readQuaternion(r)
		return Variant{Kind: KindQuaternion, Value: v}, err
	case v3TagAABB:
		v, err := c.readAABB(r)
		return Variant{Kind: KindAABB, Value: v}, err
	case v3TagBasis:
		v, err := c.readBasis(r)
		return Variant{Kind: KindBasis, Value: v}, err
	case v3TagTransform3D:
		v, err := c.readTransform3D(r)
		return Variant{Kind: KindTransform3D, Value: v}, err
	case v3TagColor:
		v, err := c.readColor(r)
		return Variant{Kind: KindColor, Value: v}, err
	case v3TagNodePath:
		v, err := c.readNodePath(r)
		return Variant{Kind: KindNodePath, Value: v}, err
	case v3TagRID:
		v, err := c.readRID(r)
		return Variant{Kind: KindRID, Value: v}, err
	case v3TagObject:
		v, err := c.readObject(r)
		return Variant{Kind: KindObject, Value: v}, err
	case v3TagDictionary:
		v, err := c.readDictionary(r)
		return Variant{Kind: KindDictionary, Value: v}, err
	case v3TagArray:
		v, err := c.readArray(r)
		return Variant{Kind: KindArray, Value: v}, err
	case v3TagPoolByte:
		v, err := readPackedByteArray(r)
		return Variant{Kind: KindPackedByteArray, Value: v}, err
	case v3TagPoolInt:
		v, err := readPackedInt32Array(r)
		return Variant{Kind: KindPackedInt32Array, Value: v}, err
	case v3TagPoolReal:
		v, err := readPackedFloat32Array(r)
		return Variant{Kind: KindPackedFloat32Array, Value: v}, err
	case v3TagPoolString:
		v, err := readPackedStringArray(r)
		return Variant{Kind: KindPackedStringArray, Value: v}, err
	case v3TagPoolVector2:
		v, err := c.readPackedVector2Array(r)
		return Variant{Kind: KindPackedVector2Array, Value: v}, err
	case v3TagPoolVector3:
		v, err := c.readPackedVector3Array(r)
		return Variant{Kind: KindPackedVector3Array, Value: v}, err
	case v3TagPoolColor:
		v, err := c.readPackedColorArray(r)
		return Variant{Kind: KindPackedColorArray, Value: v}, err
	default:
		return Nil, errUnknownTag(V3, tag)
	}
}

func (c *Codec) encodeV3(w *bio.Writer, v Variant) error {
	switch v.Kind {
	case KindNil:
		if err := w.WriteU32(v3TagNil); err != nil {
			return err
		}
		return nil
	case KindBool:
		if err := w.WriteU32(v3TagBool); err != nil {
			return err
		}
		b := uint32(0)
		if v.Value.(bool) {
			b = 1
		}
		return w.WriteU32(b)
	case KindInt32:
		if err := w.WriteU32(v3TagInt); err != nil {
			return err
		}
		return w.WriteI32(v.Value.(int32))
	case KindInt64:
		if err := w.WriteU32(v3TagInt | flagEncode64); err != nil {
			return err
		}
		return w.WriteI64(v.Value.(int64))
	case KindFloat32:
		if err := w.WriteU32(v3TagReal); err != nil {
			return err
		}
		return w.WriteF32(v.Value.(float32))
	case KindFloat64:
		if err := w.WriteU32(v3TagReal | flagEncode64); err != nil {
			return err
		}
		return w.WriteF64(v.Value.(float64))
	case KindString, KindStringName:
		if err := w.WriteU32(v3TagString); err != nil {
			return err
		}
		return w.WritePaddedString(v.Value.(string))
	case KindVector2:
		if err := w.WriteU32(v3TagVector2); err != nil {
			return err
		}
		return c.writeVector2(w, v.Value.(Vector2))
	case KindRect2:
		if err := w.WriteU32(v3TagRect2); err != nil {
			return err
		}
		return c.writeRect2(w, v.Value.(Rect2))
	case KindVector3:
		if err := w.WriteU32(v3TagVector3); err != nil {
			return err
		}
		return c.writeVector3(w, v.Value.(Vector3))
	case KindTransform2D:
		if err := w.WriteU32(v3TagTransform2D); err != nil {
			return err
		}
		return c.writeTransform2D(w, v.Value.(Transform2D))
	case KindPlane:
		if err := w.WriteU32(v3TagPlane); err != nil {
			return err
		}
		return c.writePlane(w, v.Value.(Plane))
	case KindQuaternion:
		if err := w.WriteU32(v3TagQuat); err != nil {
			return err
		}
		return c.writeQuaternion(w, v.Value.(Quaternion))
	case KindAABB:
		if err := w.WriteU32(v3TagAABB); err != nil {
			return err
		}
		return c.writeAABB(w, v.Value.(AABB))
	case KindBasis:
		if err := w.WriteU32(v3TagBasis); err != nil {
			return err
		}
		return c.writeBasis(w, v.Value.(Basis))
	case KindTransform3D:
		if err := w.WriteU32(v3TagTransform3D); err != nil {
			return err
		}
		return c.writeTransform3D(w, v.Value.(Transform3D))
	case KindColor:
		if err := w.WriteU32(v3TagColor); err != nil {
			return err
		}
		return c.writeColor(w, v.Value.(Color))
	case KindNodePath:
		if err := w.WriteU32(v3TagNodePath); err != nil {
			return err
		}
		return c.writeNodePath(w, v.Value.(NodePath))
	case KindRID:
		if err := w.WriteU32(v3TagRID); err != nil {
			return err
		}
		return c.writeRID(w, v.Value.(RID))
	case KindObject:
		if err := w.WriteU32(v3TagObject); err != nil {
			return err
		}
		return c.writeObject(w, v.Value.(ObjectRef))
	case KindDictionary:
		if err := w.WriteU32(v3TagDictionary); err != nil {
			return err
		}
		return c.writeDictionary(w, v.Value.(*Dictionary))
	case KindArray:
		if err := w.WriteU32(v3TagArray); err != nil {
			return err
		}
		return c.writeArray(w, v.Value.(*Array))
	case KindPackedByteArray:
		if err := w.WriteU32(v3TagPoolByte); err != nil {
			return err
		}
		return writePackedByteArray(w, v.Value.([]byte))
	case KindPackedInt32Array:
		if err := w.WriteU32(v3TagPoolInt); err != nil {
			return err
		}
		return writePackedInt32Array(w, v.Value.([]int32))
	case KindPackedFloat32Array:
		if err := w.WriteU32(v3TagPoolReal); err != nil {
			return err
		}
		return writePackedFloat32Array(w, v.Value.([]float32))
	case KindPackedStringArray:
		if err := w.WriteU32(v3TagPoolString); err != nil {
			return err
		}
		return writePackedStringArray(w, v.Value.([]string))
	case KindPackedVector2Array:
		if err := w.WriteU32(v3TagPoolVector2); err != nil {
			return err
		}
		return c.writePackedVector2Array(w, v.Value.([]Vector2))
	case KindPackedVector3Array:
		if err := w.WriteU32(v3TagPoolVector3); err != nil {
			return err
		}
		return c.writePackedVector3Array(w, v.Value.([]Vector3))
	case KindPackedColorArray:
		if err := w.WriteU32(v3TagPoolColor); err != nil {
			return err
		}
		return c.writePackedColorArray(w, v.Value.([]Color))
	default:
		return errNotRepresentable(V3, v.Kind)
	}
}
