package resource

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
)

// Compression modes, matching Godot's core/io/file_access_compressed.h
// CompressionMode enum. FastLZ has no maintained Go implementation among
// the retrieved example repos (see DESIGN.md); a stream using it fails
// with UnsupportedVersion rather than silently misdecoding.
const (
	compressFastLZ = 0
	compressDeflate = 1
	compressZSTD    = 2
	compressGzip    = 3
)

// unwrapCompressed reads the RSCC wrapper body (mode, uncompressed size,
// then the compressed payload to the end of the declared stream) and
// returns a fresh Reader over the decompressed bytes.
func unwrapCompressed(r *bio.Reader) (*bio.Reader, int64, error) {
	mode, err := r.ReadU32()
	if err != nil {
		return nil, 0, err
	}
	uncompressedSize, err := r.ReadU64()
	if err != nil {
		return nil, 0, err
	}

	remaining := r.Remaining()
	if remaining < 0 {
		return nil, 0, gdreerr.New(gdreerr.CorruptData, "compressed resource stream has unknown length")
	}
	payload, err := r.ReadBytes(int(remaining))
	if err != nil {
		return nil, 0, err
	}

	plain, err := decompress(mode, payload, int(uncompressedSize))
	if err != nil {
		return nil, 0, err
	}
	dr := bio.NewReader(bytes.NewReader(plain), int64(len(plain)))
	return dr, int64(len(plain)), nil
}

func decompress(mode uint32, payload []byte, expectedSize int) ([]byte, error) {
	switch mode {
	case compressZSTD:
		dec, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "opening zstd stream", err)
		}
		defer dec.Close()
		return readAllExpect(dec, expectedSize)
	case compressGzip:
		gz, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "opening gzip stream", err)
		}
		defer gz.Close()
		return readAllExpect(gz, expectedSize)
	case compressDeflate:
		fr := flate.NewReader(bytes.NewReader(payload))
		defer fr.Close()
		return readAllExpect(fr, expectedSize)
	case compressFastLZ:
		return nil, gdreerr.New(gdreerr.UnsupportedVersion, "FastLZ-compressed resource streams are not supported")
	default:
		return nil, gdreerr.New(gdreerr.UnsupportedVersion, "unknown resource compression mode")
	}
}

func readAllExpect(r io.Reader, expectedSize int) ([]byte, error) {
	buf := make([]byte, 0, maxInt(expectedSize, 0))
	b := bytes.NewBuffer(buf)
	if _, err := io.Copy(b, r); err != nil {
		return nil, gdreerr.Wrap(gdreerr.CorruptData, "decompressing resource stream", err)
	}
	return b.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
