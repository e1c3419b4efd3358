package legacyobj

import (
	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/gdrelog"
	"github.com/godot-re/gdre/variant"
)

// V2 image encoding kinds (§4.6): how the pixel payload that follows is
// packed. Raw is the only one this package decodes into pixels; Lossless/
// Lossy payloads are kept as an opaque blob since no PNG/WebP codec is wired
// into this package (that collaborator lives behind the image-codec service
// boundary in the surrounding toolkit, not inside the Variant decoder).
const (
	imgEncodingEmpty    = 0
	imgEncodingRaw      = 1
	imgEncodingLossless = 2
	imgEncodingLossy    = 3
)

// V2 image format ids, grounded on image_parser_v2.cpp's V2Image::Type enum.
const (
	v2FmtGrayscale      = 0
	v2FmtIntensity      = 1
	v2FmtGrayscaleAlpha = 2
	v2FmtRGB            = 3
	v2FmtRGBA           = 4
	v2FmtIndexed        = 5
	v2FmtIndexedAlpha   = 6
	v2FmtBC1            = 7
	v2FmtBC2            = 8
	v2FmtBC3            = 9
	v2FmtBC4            = 10
	v2FmtBC5            = 11
	v2FmtPVRTC2         = 12
	v2FmtPVRTC2Alpha    = 13
	v2FmtPVRTC4         = 14
	v2FmtPVRTC4Alpha    = 15
	v2FmtETC            = 16
	v2FmtATC            = 17
	v2FmtATCAlphaExpl   = 18
	v2FmtATCAlphaInterp = 19
	v2FmtCustom         = 30
)

// FormatCustomPlaceholder is the canonical format name this package
// substitutes for a V2 format id with no lossless V4 equivalent — either
// IMAGE_FORMAT_CUSTOM itself, or a format V4 simply dropped (Intensity,
// Indexed, ATC). The mapping is lossy by construction (open question (i) in
// the format notes): a real asset pipeline should treat any Image carrying
// this format as needing manual re-export, not as a faithful decode.
const FormatCustomPlaceholder = "ETC2_RA_AS_RG"

var v2FormatToCanonical = map[uint32]string{
	v2FmtGrayscale:      "L8",
	v2FmtGrayscaleAlpha: "LA8",
	v2FmtRGB:            "RGB8",
	v2FmtRGBA:           "RGBA8",
	v2FmtBC1:            "DXT1",
	v2FmtBC2:            "DXT3",
	v2FmtBC3:            "DXT5",
	v2FmtBC4:            "RGTC_R",
	v2FmtBC5:            "RGTC_RG",
	v2FmtPVRTC2:         "PVRTC1_2",
	v2FmtPVRTC2Alpha:    "PVRTC1_2A",
	v2FmtPVRTC4:         "PVRTC1_4",
	v2FmtPVRTC4Alpha:    "PVRTC1_4A",
	v2FmtETC:            "ETC",
}

var canonicalToV2Format = func() map[string]uint32 {
	out := make(map[string]uint32, len(v2FormatToCanonical))
	for k, v := range v2FormatToCanonical {
		out[v] = k
	}
	return out
}()

// log is the package-wide diagnostic sink for lossy-placeholder demotions.
// It defaults to discarding records; callers that want the warnings surfaced
// install their own Helper with SetLogger, mirroring the teacher's pattern
// of an injectable logger rather than a global singleton tied to os.Stderr.
var log = gdrelog.Nop()

// SetLogger replaces the Helper used for lossy-format warnings.
func SetLogger(h *gdrelog.Helper) { log = h }

// DecodeImage reads a V2-encoded Image Variant payload and returns it as a
// canonical ObjectRef carrying an "Image"-shaped property bag. It implements
// the variant.V2ImageDecoder hook.
func DecodeImage(r *bio.Reader) (variant.ObjectRef, error) {
	encoding, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}

	props := newBag("Image")
	if encoding == imgEncodingEmpty {
		return bagObject("Image", props), nil
	}

	if encoding != imgEncodingRaw {
		data, err := readLengthPrefixedPadded(r)
		if err != nil {
			return variant.ObjectRef{}, err
		}
		prop(props, "encoding", variant.Int32(int32(encoding)))
		prop(props, "encoded_data", variant.Variant{Kind: variant.KindPackedByteArray, Value: data})
		return bagObject("Image", props), nil
	}

	width, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}
	height, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}
	mipmaps, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}
	format, err := r.ReadU32()
	if err != nil {
		return variant.ObjectRef{}, err
	}
	data, err := readLengthPrefixedPadded(r)
	if err != nil {
		return variant.ObjectRef{}, err
	}

	canonical, ok := v2FormatToCanonical[format]
	wasIndexed := format == v2FmtIndexed || format == v2FmtIndexedAlpha
	lossy := !ok
	if !ok {
		if defaultOptions.Strict {
			off, _ := r.Tell()
			return variant.ObjectRef{}, gdreerr.New(gdreerr.UnsupportedFormat, "unsupported legacy image format").At(off)
		}
		canonical = FormatCustomPlaceholder
		log.Warnf("legacy Image format id %d has no lossless V4 mapping; demoted to %s (lossy)", format, canonical)
	}

	prop(props, "width", variant.Int32(int32(width)))
	prop(props, "height", variant.Int32(int32(height)))
	prop(props, "mipmaps", variant.Int32(int32(mipmaps)))
	prop(props, "format", variant.String(canonical))
	prop(props, "data", variant.Variant{Kind: variant.KindPackedByteArray, Value: data})
	prop(props, "lossy", variant.Bool(lossy))
	prop(props, "was_indexed", variant.Bool(wasIndexed))

	return bagObject("Image", props), nil
}

// EncodeImage writes obj back out in the V2 Image wire shape if obj is an
// Image-classed inline bag; it reports handled=false for anything else so
// the caller's generic Object encoder takes over.
func EncodeImage(w *bio.Writer, obj variant.ObjectRef) (bool, error) {
	if obj.Kind != variant.ObjectInlineBag || obj.ClassName != "Image" {
		return false, nil
	}
	if obj.Properties == nil || len(obj.Properties.Entries) == 0 {
		return true, w.WriteU32(imgEncodingEmpty)
	}

	if encV, ok := obj.Properties.Get(variant.StringName("encoding")); ok {
		enc := uint32(encV.Value.(int32))
		if err := w.WriteU32(enc); err != nil {
			return true, err
		}
		dataV, _ := obj.Properties.Get(variant.StringName("encoded_data"))
		data, _ := dataV.Value.([]byte)
		return true, writeLengthPrefixedPadded(w, data)
	}

	if err := w.WriteU32(imgEncodingRaw); err != nil {
		return true, err
	}
	widthV, _ := obj.Properties.Get(variant.StringName("width"))
	heightV, _ := obj.Properties.Get(variant.StringName("height"))
	mipsV, _ := obj.Properties.Get(variant.StringName("mipmaps"))
	formatV, _ := obj.Properties.Get(variant.StringName("format"))
	dataV, _ := obj.Properties.Get(variant.StringName("data"))

	if err := w.WriteU32(uint32(widthV.Value.(int32))); err != nil {
		return true, err
	}
	if err := w.WriteU32(uint32(heightV.Value.(int32))); err != nil {
		return true, err
	}
	if err := w.WriteU32(uint32(mipsV.Value.(int32))); err != nil {
		return true, err
	}
	format, ok := canonicalToV2Format[formatV.Value.(string)]
	if !ok {
		return true, gdreerr.New(gdreerr.UnsupportedFormat, "no V2 format id for canonical format "+formatV.Value.(string))
	}
	if err := w.WriteU32(format); err != nil {
		return true, err
	}
	data, _ := dataV.Value.([]byte)
	return true, writeLengthPrefixedPadded(w, data)
}

func readLengthPrefixedPadded(r *bio.Reader) ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	if pad := bio.AlignPad(n); pad > 0 {
		if _, err := r.ReadBytes(int(pad)); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func writeLengthPrefixedPadded(w *bio.Writer, data []byte) error {
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
