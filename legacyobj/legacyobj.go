// Package legacyobj normalizes the two object kinds V2 serialized directly
// inline in a Variant stream — Image and InputEvent (§4.6) — into canonical
// V4-shaped Objects, so every downstream consumer (resource graph, text
// writer) sees one uniform Object representation regardless of source
// engine generation.
//
// It registers itself with the variant package through the V2ImageDecoder/
// V2InputEventDecoder hook variables at init time, the same dependency
// direction the teacher's icon.go uses to hand a resource-shaped binary
// sub-object back up to its caller without that caller needing to know the
// sub-object's internal layout.
package legacyobj

import (
	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/variant"
)

func init() {
	variant.V2ImageDecoder = DecodeImage
	variant.V2ImageEncoder = EncodeImage
	variant.V2InputEventDecoder = DecodeInputEvent
	variant.V2InputEventEncoder = EncodeInputEvent
}

// Options controls how unsupported legacy data is handled.
type Options struct {
	// Strict rejects unsupported V2 Image formats with UnsupportedFormat
	// instead of mapping them to a lossy placeholder.
	Strict bool
}

var defaultOptions Options

// SetOptions changes the package-level decode options. There is exactly one
// active configuration because the hooks the variant package calls are
// themselves package-level; a concurrent caller that needs two different
// policies should decode sequentially.
func SetOptions(o Options) { defaultOptions = o }

func prop(d *variant.Dictionary, name string, v variant.Variant) {
	d.Set(variant.StringName(name), v)
}

func newBag(class string) *variant.Dictionary {
	return &variant.Dictionary{}
}

func bagObject(class string, props *variant.Dictionary) variant.ObjectRef {
	return variant.ObjectRef{Kind: variant.ObjectInlineBag, ClassName: class, Properties: props}
}

// readU32 is a thin alias for r.ReadU32; image.go and inputevent.go call
// r.ReadU32 directly.
func readU32(r *bio.Reader) (uint32, error) { return r.ReadU32() }
