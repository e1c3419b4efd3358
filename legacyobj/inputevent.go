package legacyobj

import (
	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// V2 InputEvent kind discriminants, grounded on
// compat/input_event_parser_v2.cpp's decode_input_event switch.
const (
	v2EvKey         = 1
	v2EvMouseButton = 3
	v2EvJoyMotion   = 4
	v2EvJoyButton   = 5
	v2EvScreenTouch = 6
)

// Key modifier bits as laid out in the wire's mods field (§4.6 S5: mods=2
// decodes to shift held). These are the event payload's own bit positions,
// not Godot's internal KeyModifierMask constants.
const (
	modShift = 1 << 1
	modCtrl  = 1 << 2
	modAlt   = 1 << 3
	modMeta  = 1 << 4
)

// v2KeyReturn/v2KeyKpEnter are the two V2 special scancodes that changed
// meaning between V2 and V4: V2's KEY_RETURN becomes V4's Enter, and the
// V2 keypad-enter hack (SPECIAL|0x80, since V2 had no dedicated KP_ENTER
// scancode) becomes V4's Kp Enter with an extra physical_keycode so the
// distinction survives a round trip.
const (
	v2SpecialMask = 0x1000000
	v2KeyReturn   = v2SpecialMask | 0x05
	v2KeyKpEnter  = v2SpecialMask | 0x80
)

// DecodeInputEvent reads a V2-encoded InputEvent Variant payload and returns
// it as a canonical ObjectRef. It implements the variant.V2InputEventDecoder
// hook.
func DecodeInputEvent(r *bio.Reader) (variant.ObjectRef, error) {
	kind, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}
	device, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}

	switch kind {
	case v2EvKey:
		mods, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		scancode, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		props := newBag("InputEventKey")
		prop(props, "device", variant.Int32(int32(device)))
		keycode := scancode
		prop(props, "keycode", variant.Int32(int32(convertV2KeyToV4(keycode))))
		if scancode == v2KeyKpEnter {
			prop(props, "physical_keycode", variant.Int32(int32(v2KeyKpEnter)))
		}
		prop(props, "shift_pressed", variant.Bool(mods&modShift != 0))
		prop(props, "ctrl_pressed", variant.Bool(mods&modCtrl != 0))
		prop(props, "alt_pressed", variant.Bool(mods&modAlt != 0))
		prop(props, "meta_pressed", variant.Bool(mods&modMeta != 0))
		return bagObject("InputEventKey", props), nil

	case v2EvMouseButton:
		idx, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		props := newBag("InputEventMouseButton")
		prop(props, "device", variant.Int32(int32(device)))
		prop(props, "button_index", variant.Int32(int32(idx)))
		return bagObject("InputEventMouseButton", props), nil

	case v2EvJoyButton:
		idx, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		// V4 dropped dedicated L2/R2 buttons; they became analog triggers.
		if idx == v2JoyL2 || idx == v2JoyR2 {
			props := newBag("InputEventJoypadMotion")
			prop(props, "device", variant.Int32(int32(device)))
			axis := axisTriggerLeft
			if idx == v2JoyR2 {
				axis = axisTriggerRight
			}
			prop(props, "axis", variant.Int32(int32(axis)))
			prop(props, "axis_value", variant.Float32(1.0))
			return bagObject("InputEventJoypadMotion", props), nil
		}
		props := newBag("InputEventJoypadButton")
		prop(props, "device", variant.Int32(int32(device)))
		prop(props, "button_index", variant.Int32(int32(convertV2JoyButtonToV4(idx))))
		return bagObject("InputEventJoypadButton", props), nil

	case v2EvJoyMotion:
		axis, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		val, err := r.ReadF32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		props := newBag("InputEventJoypadMotion")
		prop(props, "device", variant.Int32(int32(device)))
		prop(props, "axis", variant.Int32(int32(axis)))
		prop(props, "axis_value", variant.Float32(val))
		return bagObject("InputEventJoypadMotion", props), nil

	case v2EvScreenTouch:
		idx, err := r.ReadU32()
		if err != nil {
			return variant.ObjectRef{}, err
		}
		props := newBag("InputEventScreenTouch")
		prop(props, "device", variant.Int32(int32(device)))
		prop(props, "index", variant.Int32(int32(idx)))
		return bagObject("InputEventScreenTouch", props), nil

	default:
		off, _ := r.Tell()
		return variant.ObjectRef{}, gdreerr.New(gdreerr.CorruptData, "unknown V2 InputEvent kind").At(off)
	}
}

// EncodeInputEvent writes obj back out in the V2 InputEvent wire shape for
// the classes this package produces, reporting handled=false otherwise.
func EncodeInputEvent(w *bio.Writer, obj variant.ObjectRef) (bool, error) {
	if obj.Kind != variant.ObjectInlineBag || obj.Properties == nil {
		return false, nil
	}
	deviceV, _ := obj.Properties.Get(variant.StringName("device"))
	device := uint32(0)
	if deviceV.Kind == variant.KindInt32 {
		device = uint32(deviceV.Value.(int32))
	}

	switch obj.ClassName {
	case "InputEventKey":
		keycodeV, _ := obj.Properties.Get(variant.StringName("keycode"))
		scancode := convertV4KeyToV2(uint32(keycodeV.Value.(int32)))
		if physV, ok := obj.Properties.Get(variant.StringName("physical_keycode")); ok && uint32(physV.Value.(int32)) == v2KeyKpEnter {
			scancode = v2KeyKpEnter
		}
		var mods uint32
		if b, ok := obj.Properties.Get(variant.StringName("shift_pressed")); ok && b.Value.(bool) {
			mods |= modShift
		}
		if b, ok := obj.Properties.Get(variant.StringName("ctrl_pressed")); ok && b.Value.(bool) {
			mods |= modCtrl
		}
		if b, ok := obj.Properties.Get(variant.StringName("alt_pressed")); ok && b.Value.(bool) {
			mods |= modAlt
		}
		if b, ok := obj.Properties.Get(variant.StringName("meta_pressed")); ok && b.Value.(bool) {
			mods |= modMeta
		}
		return true, writeInputEventHeader(w, v2EvKey, device, mods, scancode)

	case "InputEventMouseButton":
		idxV, _ := obj.Properties.Get(variant.StringName("button_index"))
		return true, writeInputEventHeader(w, v2EvMouseButton, device, uint32(idxV.Value.(int32)))

	case "InputEventJoypadButton":
		idxV, _ := obj.Properties.Get(variant.StringName("button_index"))
		v2idx := convertV4JoyButtonToV2(uint32(idxV.Value.(int32)))
		return true, writeInputEventHeader(w, v2EvJoyButton, device, v2idx)

	case "InputEventJoypadMotion":
		axisV, _ := obj.Properties.Get(variant.StringName("axis"))
		valV, _ := obj.Properties.Get(variant.StringName("axis_value"))
		axis := uint32(axisV.Value.(int32))
		val := valV.Value.(float32)
		if (axis == axisTriggerLeft || axis == axisTriggerRight) && val == 1.0 {
			v2idx := uint32(v2JoyL2)
			if axis == axisTriggerRight {
				v2idx = v2JoyR2
			}
			return true, writeInputEventHeader(w, v2EvJoyButton, device, v2idx)
		}
		if err := w.WriteU32(v2EvJoyMotion); err != nil {
			return true, err
		}
		if err := w.WriteU32(device); err != nil {
			return true, err
		}
		if err := w.WriteU32(axis); err != nil {
			return true, err
		}
		return true, w.WriteF32(val)

	case "InputEventScreenTouch":
		idxV, _ := obj.Properties.Get(variant.StringName("index"))
		return true, writeInputEventHeader(w, v2EvScreenTouch, device, uint32(idxV.Value.(int32)))

	default:
		return false, nil
	}
}

func writeInputEventHeader(w *bio.Writer, kind, device uint32, payload ...uint32) error {
	if err := w.WriteU32(kind); err != nil {
		return err
	}
	if err := w.WriteU32(device); err != nil {
		return err
	}
	for _, v := range payload {
		if err := w.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

// Joypad button ids, grounded on input_event_parser_v2.cpp's
// convert_v2_joy_button_to_v4_joy_button table. Buttons V4 kept at the same
// index are passed through unchanged (the default case in that switch).
const (
	v2JoyL        = 9
	v2JoyR        = 10
	v2JoyL2       = 11
	v2JoyR2       = 12
	v2JoyL3       = 13
	v2JoyR3       = 14
	v2JoySelect   = 15
	v2JoyStart    = 16
	v2JoyDPadUp   = 17
	v2JoyDPadDown = 18
	v2JoyDPadLeft = 19
	v2JoyDPadRight = 20
)

// V4 JoyButton ids (core/input/input_enums.h) that V2's shoulder/stick/menu
// buttons remap to.
const (
	v4JoyLeftShoulder = 9
	v4JoyRightShoulder = 10
	v4JoyLeftStick    = 7
	v4JoyRightStick   = 8
	v4JoyBack         = 4
	v4JoyStart        = 6
	v4JoyDPadUp       = 11
	v4JoyDPadDown     = 12
	v4JoyDPadLeft     = 13
	v4JoyDPadRight    = 14
)

// JoyAxis ids V4 maps the dropped L2/R2 trigger buttons onto.
const (
	axisTriggerLeft  = 4
	axisTriggerRight = 5
)

func convertV2JoyButtonToV4(jb uint32) uint32 {
	switch jb {
	case v2JoyL:
		return v4JoyLeftShoulder
	case v2JoyR:
		return v4JoyRightShoulder
	case v2JoyL3:
		return v4JoyLeftStick
	case v2JoyR3:
		return v4JoyRightStick
	case v2JoySelect:
		return v4JoyBack
	case v2JoyStart:
		return v4JoyStart
	case v2JoyDPadUp:
		return v4JoyDPadUp
	case v2JoyDPadDown:
		return v4JoyDPadDown
	case v2JoyDPadLeft:
		return v4JoyDPadLeft
	case v2JoyDPadRight:
		return v4JoyDPadRight
	default:
		return jb
	}
}

func convertV4JoyButtonToV2(jb uint32) uint32 {
	switch jb {
	case v4JoyLeftShoulder:
		return v2JoyL
	case v4JoyRightShoulder:
		return v2JoyR
	case v4JoyLeftStick:
		return v2JoyL3
	case v4JoyRightStick:
		return v2JoyR3
	case v4JoyBack:
		return v2JoySelect
	case v4JoyStart:
		return v2JoyStart
	case v4JoyDPadUp:
		return v2JoyDPadUp
	case v4JoyDPadDown:
		return v2JoyDPadDown
	case v4JoyDPadLeft:
		return v2JoyDPadLeft
	case v4JoyDPadRight:
		return v2JoyDPadRight
	default:
		return jb
	}
}

// convertV2KeyToV4/convertV4KeyToV2 special-case V2's keypad-enter hack and
// Return/Enter swap (input_event_parser_v2.cpp's convert_v2_key_to_v4_key);
// every other scancode is ASCII-compatible and passes through unchanged.
func convertV2KeyToV4(spkey uint32) uint32 {
	if spkey&v2SpecialMask == 0 {
		return spkey
	}
	if spkey == v2KeyKpEnter {
		return v4KeyKpEnter
	}
	if spkey == v2KeyReturn {
		return v4KeyEnter
	}
	return spkey
}

func convertV4KeyToV2(key uint32) uint32 {
	if key == v4KeyKpEnter {
		return v2KeyKpEnter
	}
	if key == v4KeyEnter {
		return v2KeyReturn
	}
	return key
}

// v4KeyEnter/v4KeyKpEnter are V4's distinct Enter and numpad-Enter scancodes
// (core/os/keyboard.h); V2 only had the latter as the SPECIAL|0x80 hack.
const (
	v4KeyEnter   = v2SpecialMask | 0x04
	v4KeyKpEnter = v2SpecialMask | 0x0b
)
