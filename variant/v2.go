package variant

import (
	"strings"

	"github.com/godot-re/gdre/bio"
)

func (c *Codec) decodeV2(r *bio.Reader, tag uint32) (Variant, error) {
	switch tag {
	case v2TagNil:
		return Nil, nil
	case v2TagBool:
		v, err := r.ReadU32()
		return Bool(v != 0), err
	case v2TagInt:
		v, err := r.ReadI32()
		return Int32(v), err
	case v2TagReal:
		v, err := r.ReadF32()
		return Float32(v), err
	case v2TagString:
		v, err := r.ReadPaddedString()
		return String(v), err
	case v2TagVector2:
		v, err := c.readVector2(r)
		return Variant{Kind: KindVector2, Value: v}, err
	case v2TagRect2:
		v, err := c.readRect2(r)
		return Variant{Kind: KindRect2, Value: v}, err
	case v2TagVector3:
		v, err := c.readVector3(r)
		return Variant{Kind: KindVector3, Value: v}, err
	case v2TagPlane:
		v, err := c.readPlane(r)
		return Variant{Kind: KindPlane, Value: v}, err
	case v2TagQuat:
		v, err := c.readQuaternion(r)
		return Variant{Kind: KindQuaternion, Value: v}, err
	case v2TagAABB:
		v, err := c.readAABB(r)
		return Variant{Kind: KindAABB, Value: v}, err
	case v2TagMatrix3:
		v, err := c.readBasis(r)
		return Variant{Kind: KindBasis, Value: v}, err
	case v2TagTransform:
		v, err := c.readTransform3D(r)
		return Variant{Kind: KindTransform3D, Value: v}, err
	case v2TagMatrix32:
		v, err := c.readTransform2D(r)
		return Variant{Kind: KindTransform2D, Value: v}, err
	case v2TagColor:
		v, err := c.readColor(r)
		return Variant{Kind: KindColor, Value: v}, err
	case v2TagImage:
		if V2ImageDecoder == nil {
			return Nil, errUnknownTag(V2, tag)
		}
		obj, err := V2ImageDecoder(r)
		return Variant{Kind: KindObject, Value: obj}, err
	case v2TagNodePath:
		v, err := c.readNodePathV2(r)
		return Variant{Kind: KindNodePath, Value: v}, err
	case v2TagRID:
		v, err := c.readRID(r)
		return Variant{Kind: KindRID, Value: v}, err
	case v2TagObject:
		v, err := c.readObject(r)
		return Variant{Kind: KindObject, Value: v}, err
	case v2TagInputEvent:
		if V2InputEventDecoder == nil {
			return Nil, errUnknownTag(V2, tag)
		}
		obj, err := V2InputEventDecoder(r)
		return Variant{Kind: KindObject, Value: obj}, err
	case v2TagDictionary:
		v, err := c.readDictionary(r)
		return Variant{Kind: KindDictionary, Value: v}, err
	case v2TagArray:
		v, err := c.readArray(r)
		return Variant{Kind: KindArray, Value: v}, err
	case v2TagRawArray:
		v, err := readPackedByteArray(r)
		return Variant{Kind: KindPackedByteArray, Value: v}, err
	case v2TagIntArray:
		v, err := readPackedInt32Array(r)
		return Variant{Kind: KindPackedInt32Array, Value: v}, err
	case v2TagRealArray:
		v, err := readPackedFloat32Array(r)
		return Variant{Kind: KindPackedFloat32Array, Value: v}, err
	case v2TagStringArray:
		v, err := readPackedStringArray(r)
		return Variant{Kind: KindPackedStringArray, Value: v}, err
	case v2TagVector2Arr:
		v, err := c.readPackedVector2Array(r)
		return Variant{Kind: KindPackedVector2Array, Value: v}, err
	case v2TagVector3Arr:
		v, err := c.readPackedVector3Array(r)
		return Variant{Kind: KindPackedVector3Array, Value: v}, err
	case v2TagColorArray:
		v, err := c.readPackedColorArray(r)
		return Variant{Kind: KindPackedColorArray, Value: v}, err
	default:
		return Nil, errUnknownTag(V2, tag)
	}
}

func (c *Codec) encodeV2(w *bio.Writer, v Variant) error {
	switch v.Kind {
	case KindNil:
		return w.WriteU32(v2TagNil)
	case KindBool:
		if err := w.WriteU32(v2TagBool); err != nil {
			return err
		}
		b := uint32(0)
		if v.Value.(bool) {
			b = 1
		}
		return w.WriteU32(b)
	case KindInt32, KindInt64:
		if err := w.WriteU32(v2TagInt); err != nil {
			return err
		}
		if v.Kind == KindInt64 {
			return w.WriteI32(int32(v.Value.(int64)))
		}
		return w.WriteI32(v.Value.(int32))
	case KindFloat32, KindFloat64:
		if err := w.WriteU32(v2TagReal); err != nil {
			return err
		}
		if v.Kind == KindFloat64 {
			return w.WriteF32(float32(v.Value.(float64)))
		}
		return w.WriteF32(v.Value.(float32))
	case KindString, KindStringName:
		if err := w.WriteU32(v2TagString); err != nil {
			return err
		}
		return w.WritePaddedString(v.Value.(string))
	case KindVector2:
		if err := w.WriteU32(v2TagVector2); err != nil {
			return err
		}
		return c.writeVector2(w, v.Value.(Vector2))
	case KindRect2:
		if err := w.WriteU32(v2TagRect2); err != nil {
			return err
		}
		return c.writeRect2(w, v.Value.(Rect2))
	case KindVector3:
		if err := w.WriteU32(v2TagVector3); err != nil {
			return err
		}
		return c.writeVector3(w, v.Value.(Vector3))
	case KindPlane:
		if err := w.WriteU32(v2TagPlane); err != nil {
			return err
		}
		return c.writePlane(w, v.Value.(Plane))
	case KindQuaternion:
		if err := w.WriteU32(v2TagQuat); err != nil {
			return err
		}
		return c.writeQuaternion(w, v.Value.(Quaternion))
	case KindAABB:
		if err := w.WriteU32(v2TagAABB); err != nil {
			return err
		}
		return c.writeAABB(w, v.Value.(AABB))
	case KindBasis:
		if err := w.WriteU32(v2TagMatrix3); err != nil {
			return err
		}
		return c.writeBasis(w, v.Value.(Basis))
	case KindTransform3D:
		if err := w.WriteU32(v2TagTransform); err != nil {
			return err
		}
		return c.writeTransform3D(w, v.Value.(Transform3D))
	case KindTransform2D:
		if err := w.WriteU32(v2TagMatrix32); err != nil {
			return err
		}
		return c.writeTransform2D(w, v.Value.(Transform2D))
	case KindColor:
		if err := w.WriteU32(v2TagColor); err != nil {
			return err
		}
		return c.writeColor(w, v.Value.(Color))
	case KindNodePath:
		if err := w.WriteU32(v2TagNodePath); err != nil {
			return err
		}
		return c.writeNodePathV2(w, v.Value.(NodePath))
	case KindRID:
		if err := w.WriteU32(v2TagRID); err != nil {
			return err
		}
		return c.writeRID(w, v.Value.(RID))
	case KindObject:
		obj := v.Value.(ObjectRef)
		if obj.Kind == ObjectInlineBag && strings.HasPrefix(obj.ClassName, "InputEvent") && V2InputEventEncoder != nil {
			if err := w.WriteU32(v2TagInputEvent); err != nil {
				return err
			}
			_, err := V2InputEventEncoder(w, obj)
			return err
		}
		if obj.Kind == ObjectInlineBag && obj.ClassName == "Image" && V2ImageEncoder != nil {
			if err := w.WriteU32(v2TagImage); err != nil {
				return err
			}
			_, err := V2ImageEncoder(w, obj)
			return err
		}
		if err := w.WriteU32(v2TagObject); err != nil {
			return err
		}
		return c.writeObject(w, obj)
	case KindDictionary:
		if err := w.WriteU32(v2TagDictionary); err != nil {
			return err
		}
		return c.writeDictionary(w, v.Value.(*Dictionary))
	case KindArray:
		if err := w.WriteU32(v2TagArray); err != nil {
			return err
		}
		return c.writeArray(w, v.Value.(*Array))
	case KindPackedByteArray:
		if err := w.WriteU32(v2TagRawArray); err != nil {
			return err
		}
		return writePackedByteArray(w, v.Value.([]byte))
	case KindPackedInt32Array:
		if err := w.WriteU32(v2TagIntArray); err != nil {
			return err
		}
		return writePackedInt32Array(w, v.Value.([]int32))
	case KindPackedFloat32Array:
		if err := w.WriteU32(v2TagRealArray); err != nil {
			return err
		}
		return writePackedFloat32Array(w, v.Value.([]float32))
	case KindPackedStringArray:
		if err := w.WriteU32(v2TagStringArray); err != nil {
			return err
		}
		return writePackedStringArray(w, v.Value.([]string))
	case KindPackedVector2Array:
		if err := w.WriteU32(v2TagVector2Arr); err != nil {
			return err
		}
		return c.writePackedVector2Array(w, v.Value.([]Vector2))
	case KindPackedVector3Array:
		if err := w.WriteU32(v2TagVector3Arr); err != nil {
			return err
		}
		return c.writePackedVector3Array(w, v.Value.([]Vector3))
	case KindPackedColorArray:
		if err := w.WriteU32(v2TagColorArray); err != nil {
			return err
		}
		return c.writePackedColorArray(w, v.Value.([]Color))
	default:
		return errNotRepresentable(V2, v.Kind)
	}
}
