package bio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/godot-re/gdre/gdreerr"
)

// Writer writes primitive values to a byte sink, tracking the running
// offset the way the teacher's checksum/structUnpack code tracks offsets
// into an mmap'd image.
type Writer struct {
	w   io.Writer
	off int64
	big bool
}

// NewWriter wraps w for primitive writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// SetBigEndian switches the scalar byte order.
func (w *Writer) SetBigEndian(big bool) { w.big = big }

// Tell returns the number of bytes written so far.
func (w *Writer) Tell() int64 { return w.off }

func (w *Writer) order() binary.ByteOrder {
	if w.big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WriteBytes writes b verbatim.
func (w *Writer) WriteBytes(b []byte) error {
	n, err := w.w.Write(b)
	w.off += int64(n)
	if err != nil {
		return gdreerr.Wrap(gdreerr.Io, "write failed", err)
	}
	return nil
}

// WriteU8 writes one byte.
func (w *Writer) WriteU8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

// WriteU16 writes a 16-bit unsigned integer.
func (w *Writer) WriteU16(v uint16) error {
	b := make([]byte, 2)
	w.order().PutUint16(b, v)
	return w.WriteBytes(b)
}

// WriteU32 writes a 32-bit unsigned integer.
func (w *Writer) WriteU32(v uint32) error {
	b := make([]byte, 4)
	w.order().PutUint32(b, v)
	return w.WriteBytes(b)
}

// WriteU64 writes a 64-bit unsigned integer.
func (w *Writer) WriteU64(v uint64) error {
	b := make([]byte, 8)
	w.order().PutUint64(b, v)
	return w.WriteBytes(b)
}

// WriteI32 writes a 32-bit signed integer.
func (w *Writer) WriteI32(v int32) error { return w.WriteU32(uint32(v)) }

// WriteI64 writes a 64-bit signed integer.
func (w *Writer) WriteI64(v int64) error { return w.WriteU64(uint64(v)) }

// WriteF32 writes an IEEE-754 single-precision float.
func (w *Writer) WriteF32(v float32) error {
	return w.WriteU32(math.Float32bits(v))
}

// WriteF64 writes an IEEE-754 double-precision float.
func (w *Writer) WriteF64(v float64) error {
	return w.WriteU64(math.Float64bits(v))
}

// WritePaddedString writes a Godot-style length-prefixed, NUL-terminated,
// 4-byte-padded string.
func (w *Writer) WritePaddedString(s string) error {
	raw := append([]byte(s), 0)
	if err := w.WriteU32(uint32(len(raw))); err != nil {
		return err
	}
	if err := w.WriteBytes(raw); err != nil {
		return err
	}
	pad := AlignPad(uint32(len(raw)))
	if pad == 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, pad))
}

// WriteRawString writes s with no length prefix, NUL terminator, or padding.
func (w *Writer) WriteRawString(s string) error {
	return w.WriteBytes([]byte(s))
}
