package resource

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/godot-re/gdre/bio"
)

func wrapCompressed(t *testing.T, mode uint32, plain []byte) []byte {
	t.Helper()

	var payload bytes.Buffer
	switch mode {
	case compressGzip:
		gw := gzip.NewWriter(&payload)
		if _, err := gw.Write(plain); err != nil {
			t.Fatalf("gzip write failed: %v", err)
		}
		if err := gw.Close(); err != nil {
			t.Fatalf("gzip close failed: %v", err)
		}
	case compressDeflate:
		fw, err := flate.NewWriter(&payload, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate.NewWriter failed: %v", err)
		}
		if _, err := fw.Write(plain); err != nil {
			t.Fatalf("flate write failed: %v", err)
		}
		if err := fw.Close(); err != nil {
			t.Fatalf("flate close failed: %v", err)
		}
	case compressZSTD:
		zw, err := zstd.NewWriter(&payload)
		if err != nil {
			t.Fatalf("zstd.NewWriter failed: %v", err)
		}
		if _, err := zw.Write(plain); err != nil {
			t.Fatalf("zstd write failed: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("zstd close failed: %v", err)
		}
	default:
		t.Fatalf("unsupported mode in test helper: %d", mode)
	}

	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU32(mode))
	mustWrite(t, w.WriteU64(uint64(len(plain))))
	mustWrite(t, w.WriteBytes(payload.Bytes()))
	return buf.Bytes()
}

func TestUnwrapCompressedGzip(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog")
	data := wrapCompressed(t, compressGzip, plain)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	dr, size, err := unwrapCompressed(r)
	if err != nil {
		t.Fatalf("unwrapCompressed() failed: %v", err)
	}
	if size != int64(len(plain)) {
		t.Fatalf("decompressed size = %d, want %d", size, len(plain))
	}
	got, err := dr.ReadBytes(len(plain))
	if err != nil {
		t.Fatalf("ReadBytes() failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("decompressed bytes = %q, want %q", got, plain)
	}
}

func TestUnwrapCompressedDeflate(t *testing.T) {
	plain := []byte("deflate round trip")
	data := wrapCompressed(t, compressDeflate, plain)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	dr, _, err := unwrapCompressed(r)
	if err != nil {
		t.Fatalf("unwrapCompressed() failed: %v", err)
	}
	got, err := dr.ReadBytes(len(plain))
	if err != nil || !bytes.Equal(got, plain) {
		t.Fatalf("decompressed bytes = %q, err=%v, want %q", got, err, plain)
	}
}

func TestUnwrapCompressedZSTD(t *testing.T) {
	plain := []byte("zstd round trip through the resource compression wrapper")
	data := wrapCompressed(t, compressZSTD, plain)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	dr, _, err := unwrapCompressed(r)
	if err != nil {
		t.Fatalf("unwrapCompressed() failed: %v", err)
	}
	got, err := dr.ReadBytes(len(plain))
	if err != nil || !bytes.Equal(got, plain) {
		t.Fatalf("decompressed bytes = %q, err=%v, want %q", got, err, plain)
	}
}

func TestUnwrapCompressedFastLZUnsupported(t *testing.T) {
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU32(compressFastLZ))
	mustWrite(t, w.WriteU64(0))
	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if _, _, err := unwrapCompressed(r); err == nil {
		t.Fatal("unwrapCompressed() should fail on FastLZ-compressed streams")
	}
}

func TestLoadWithRSCCWrapper(t *testing.T) {
	inner := buildV4Resource(t)

	var payload bytes.Buffer
	gw := gzip.NewWriter(&payload)
	if _, err := gw.Write(inner); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}

	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU32(CompressedMagic))
	mustWrite(t, w.WriteU32(compressGzip))
	mustWrite(t, w.WriteU64(uint64(len(inner))))
	mustWrite(t, w.WriteBytes(payload.Bytes()))

	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	g, err := Load(r, &LoadOptions{Policy: FakeLoad})
	if err != nil {
		t.Fatalf("Load() of an RSCC-wrapped stream failed: %v", err)
	}
	if g.Main().Type != "Node2D" {
		t.Fatalf("main.Type = %q, want Node2D", g.Main().Type)
	}
}
