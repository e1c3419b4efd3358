// Package bio provides the endian-aware primitive I/O every wire codec in
// this module is built on: bounds-checked scalar reads/writes, 4-byte
// padded strings, and alignment helpers. It generalizes the bounds-checked
// reader pattern the teacher uses for PE images (ReadUint32/structUnpack in
// helper.go) into something that streams over an arbitrary io.ReadSeeker
// instead of a single in-memory mmap.
package bio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/godot-re/gdre/gdreerr"
)

// Reader reads primitive values from a seekable byte stream. All reads are
// bounds-checked against the declared stream length; nothing ever panics on
// truncated or adversarial input.
type Reader struct {
	r    io.ReadSeeker
	size int64
	big  bool
}

// NewReader wraps r, a stream of the given total length, for bounds-checked
// reads. size may be -1 if unknown; bounds checks are then best-effort
// (errors still surface from the underlying Read, just later).
func NewReader(r io.ReadSeeker, size int64) *Reader {
	return &Reader{r: r, size: size}
}

// SetBigEndian switches the scalar byte order. Resource files honor a
// big_endian header flag; PCK directories and bytecode buffers are always
// little-endian.
func (r *Reader) SetBigEndian(big bool) { r.big = big }

// BigEndian reports the current byte order.
func (r *Reader) BigEndian() bool { return r.big }

// Tell returns the current stream offset.
func (r *Reader) Tell() (int64, error) {
	return r.r.Seek(0, io.SeekCurrent)
}

// Seek moves to an absolute offset.
func (r *Reader) Seek(off int64) error {
	_, err := r.r.Seek(off, io.SeekStart)
	if err != nil {
		return gdreerr.Wrap(gdreerr.Io, "seek failed", err)
	}
	return nil
}

// Len returns the declared stream length, or -1 if unknown.
func (r *Reader) Len() int64 { return r.size }

// EOF reports whether the current offset has reached the declared length.
func (r *Reader) EOF() bool {
	if r.size < 0 {
		return false
	}
	off, err := r.Tell()
	if err != nil {
		return true
	}
	return off >= r.size
}

// Remaining returns the number of bytes left before the declared length, or
// -1 if the length is unknown.
func (r *Reader) Remaining() int64 {
	if r.size < 0 {
		return -1
	}
	off, err := r.Tell()
	if err != nil {
		return -1
	}
	return r.size - off
}

func (r *Reader) checkBounds(n int64) error {
	if r.size < 0 {
		return nil
	}
	off, err := r.Tell()
	if err != nil {
		return gdreerr.Wrap(gdreerr.Io, "tell failed", err)
	}
	if n < 0 || off+n > r.size {
		return gdreerr.New(gdreerr.CorruptData, "read past end of stream").At(off)
	}
	return nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.checkBounds(int64(n)); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		off, _ := r.Tell()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, gdreerr.New(gdreerr.CorruptData, "unexpected end of stream").At(off)
		}
		return nil, gdreerr.Wrap(gdreerr.Io, "read failed", err).At(off)
	}
	return buf, nil
}

func (r *Reader) order() binary.ByteOrder {
	if r.big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a 16-bit unsigned integer.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order().Uint16(b), nil
}

// ReadU32 reads a 32-bit unsigned integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order().Uint32(b), nil
}

// ReadU64 reads a 64-bit unsigned integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order().Uint64(b), nil
}

// ReadI32 reads a 32-bit signed integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadI64 reads a 64-bit signed integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads an IEEE-754 single-precision float.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads an IEEE-754 double-precision float.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadPaddedString reads a Godot-style length-prefixed string: a u32 length
// that includes the terminating NUL, followed by that many bytes, padded to
// a 4-byte boundary. The trailing NUL (and padding) is stripped from the
// returned string.
func (r *Reader) ReadPaddedString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	pad := AlignPad(n)
	if pad > 0 {
		if _, err := r.ReadBytes(int(pad)); err != nil {
			return "", err
		}
	}
	// Strip the NUL terminator(s) within the declared length.
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end]), nil
}

// ReadRawString reads n raw bytes with no length prefix or padding, and
// returns them as a string (used for PCK directory entry paths, which carry
// their own explicit length with no NUL/padding).
func (r *Reader) ReadRawString(n int) (string, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AlignPad returns the number of padding bytes needed to round n up to the
// next multiple of 4, mirroring the teacher's alignDword helper.
func AlignPad(n uint32) uint32 {
	rem := n % 4
	if rem == 0 {
		return 0
	}
	return 4 - rem
}
