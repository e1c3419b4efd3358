package pck

import (
	"bytes"
	"crypto/md5"
	"io"
	"testing"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/crypt"
)

type entryFixture struct {
	path    string
	content []byte
	md5Sum  bool // true: compute a real MD5; false: leave zeroed (unset)
}

// buildArchive writes a standalone format-2 PCK with the given entries and
// returns the full image, with each entry's content placed right after the
// directory at the offset its directory record names.
func buildArchive(t *testing.T, fixtures []entryFixture, packFlags uint32, dirKey []byte) []byte {
	t.Helper()

	// First pass: compute directory size so content offsets are known, by
	// writing the directory into a scratch buffer with placeholder offsets
	// of 0, then fixing them up once the header+directory length is fixed.
	headerLen := 4 + 4*4 + 4 + 8 + 16*4 + 4 // magic+version+engine*3+flags+filebase+reserved+file_count
	dirLen := 0
	for _, f := range fixtures {
		dirLen += 4 + len(f.path) + 8 + 8 + 16 + 4
	}

	contentOffsets := make([]uint64, len(fixtures))
	off := uint64(headerLen + dirLen)
	for i, f := range fixtures {
		contentOffsets[i] = off
		off += uint64(len(f.content))
	}

	var dirBuf bytes.Buffer
	dw := bio.NewWriter(&dirBuf)
	for i, f := range fixtures {
		mustWrite(t, dw.WriteU32(uint32(len(f.path))))
		mustWrite(t, dw.WriteRawString(f.path))
		mustWrite(t, dw.WriteU64(contentOffsets[i]))
		mustWrite(t, dw.WriteU64(uint64(len(f.content))))
		var sum [16]byte
		if f.md5Sum {
			sum = md5.Sum(f.content)
		}
		mustWrite(t, dw.WriteBytes(sum[:]))
		mustWrite(t, dw.WriteU32(0)) // entry_flags
	}

	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU32(Magic))
	mustWrite(t, w.WriteU32(2)) // format_version
	mustWrite(t, w.WriteU32(4))
	mustWrite(t, w.WriteU32(2))
	mustWrite(t, w.WriteU32(0))
	mustWrite(t, w.WriteU32(packFlags))
	mustWrite(t, w.WriteU64(0)) // file_base
	for i := 0; i < 16; i++ {
		mustWrite(t, w.WriteU32(0))
	}
	mustWrite(t, w.WriteU32(uint32(len(fixtures))))

	if packFlags&packFlagDirEncrypted != 0 {
		enc, err := crypt.Encrypt(dirBuf.Bytes(), dirKey, bytes.Repeat([]byte{0x11}, 16))
		if err != nil {
			t.Fatalf("crypt.Encrypt() failed: %v", err)
		}
		mustWrite(t, w.WriteBytes(enc))
	} else {
		mustWrite(t, w.WriteBytes(dirBuf.Bytes()))
	}

	for _, f := range fixtures {
		mustWrite(t, w.WriteBytes(f.content))
	}
	return buf.Bytes()
}

func mustWrite(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestOpenStandaloneArchive(t *testing.T) {
	fixtures := []entryFixture{
		{path: "res://scene.tscn", content: []byte("scene data"), md5Sum: true},
		{path: "res://textures/a.png", content: []byte("png bytes"), md5Sum: true},
	}
	img := buildArchive(t, fixtures, 0, nil)

	h, err := OpenBytes(img, nil)
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	if h.Info.FormatVersion != 2 {
		t.Fatalf("FormatVersion = %d, want 2", h.Info.FormatVersion)
	}
	if len(h.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(h.Entries))
	}
	if h.Entries[0].Path != "res://scene.tscn" {
		t.Fatalf("Entries[0].Path = %q", h.Entries[0].Path)
	}

	r, size, err := h.Open(&h.Entries[0])
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	got := make([]byte, size)
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull() failed: %v", err)
	}
	if string(got) != "scene data" {
		t.Fatalf("entry content = %q, want %q", got, "scene data")
	}
}

func TestEmbeddedAtEndArchive(t *testing.T) {
	fixtures := []entryFixture{{path: "res://a.txt", content: []byte("hi"), md5Sum: true}}
	pck := buildArchive(t, fixtures, 0, nil)

	var buf bytes.Buffer
	buf.WriteString("fake executable stub bytes before the payload")
	buf.Write(pck)
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU64(uint64(len(pck))))
	mustWrite(t, w.WriteU32(Magic))

	h, err := OpenBytes(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("OpenBytes() on an embedded-at-end image failed: %v", err)
	}
	defer h.Close()
	if len(h.Entries) != 1 || h.Entries[0].Path != "res://a.txt" {
		t.Fatalf("Entries = %+v", h.Entries)
	}
}

func TestBadMagicFails(t *testing.T) {
	if _, err := OpenBytes([]byte{0, 0, 0, 0, 1, 2, 3, 4}, nil); err == nil {
		t.Fatal("OpenBytes() of a non-PCK image should fail")
	}
}

func TestPathSanitization(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		malformed bool
	}{
		{"res://ok/path.tres", "res://ok/path.tres", false},
		{"res://~evil", "res://_evil", true},
		{"res:///leading", "res://_leading", true},
		{"res://a//b", "res://a/b", true},
		{"res://a/../b", "res://a/_/b", true},
		{`res://bad\name:x`, "res://bad_name_x", true},
	}
	for _, tt := range tests {
		got, malformed := sanitizePath(tt.raw)
		if got != tt.want || malformed != tt.malformed {
			t.Errorf("sanitizePath(%q) = (%q, %v), want (%q, %v)", tt.raw, got, malformed, tt.want, tt.malformed)
		}
	}
}

func TestVerifyChecksum(t *testing.T) {
	fixtures := []entryFixture{
		{path: "res://good.txt", content: []byte("hello"), md5Sum: true},
		{path: "res://unset.txt", content: []byte("world"), md5Sum: false},
	}
	img := buildArchive(t, fixtures, 0, nil)
	h, err := OpenBytes(img, nil)
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	ok, err := h.Verify(&h.Entries[0])
	if err != nil || !ok {
		t.Fatalf("Verify(good) = %v, %v", ok, err)
	}
	ok, err = h.Verify(&h.Entries[1])
	if err != nil || !ok {
		t.Fatalf("Verify(unset MD5) should report ok=true: %v, %v", ok, err)
	}
	if !h.Entries[1].MD5Unset {
		t.Fatal("Entries[1].MD5Unset should be true")
	}
}

func TestVerifyChecksumMismatch(t *testing.T) {
	fixtures := []entryFixture{{path: "res://bad.txt", content: []byte("hello"), md5Sum: true}}
	img := buildArchive(t, fixtures, 0, nil)
	h, err := OpenBytes(img, nil)
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	// Corrupt a byte of the MD5 to force a mismatch.
	h.Entries[0].MD5[0] ^= 0xff
	ok, err := h.Verify(&h.Entries[0])
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if ok {
		t.Fatal("Verify() should report false for a corrupted MD5")
	}
}

func TestOpenEmbeddedBytesMatchesOpenBytes(t *testing.T) {
	fixtures := []entryFixture{{path: "res://a.txt", content: []byte("hi"), md5Sum: true}}
	pck := buildArchive(t, fixtures, 0, nil)

	var buf bytes.Buffer
	buf.WriteString("fake self-contained-export stub bytes")
	buf.Write(pck)
	w := bio.NewWriter(&buf)
	mustWrite(t, w.WriteU64(uint64(len(pck))))
	mustWrite(t, w.WriteU32(Magic))

	h, err := OpenEmbeddedBytes(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("OpenEmbeddedBytes() failed: %v", err)
	}
	defer h.Close()
	if len(h.Entries) != 1 || h.Entries[0].Path != "res://a.txt" {
		t.Fatalf("Entries = %+v", h.Entries)
	}
}

func TestCursorMatchesEntries(t *testing.T) {
	fixtures := []entryFixture{
		{path: "res://scene.tscn", content: []byte("scene data"), md5Sum: true},
		{path: "res://textures/a.png", content: []byte("png bytes"), md5Sum: true},
	}
	img := buildArchive(t, fixtures, 0, nil)
	h, err := OpenBytes(img, nil)
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	cur, err := h.Cursor()
	if err != nil {
		t.Fatalf("Cursor() failed: %v", err)
	}
	var got []PackEntry
	for {
		e, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, e)
	}
	if len(got) != len(h.Entries) {
		t.Fatalf("cursor yielded %d entries, want %d", len(got), len(h.Entries))
	}
	for i := range got {
		if got[i].Path != h.Entries[i].Path || got[i].Size != h.Entries[i].Size {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], h.Entries[i])
		}
	}

	if _, ok, err := cur.Next(); err != nil || ok {
		t.Fatalf("Next() past the end should report ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestCursorOverEncryptedDirectory(t *testing.T) {
	key := bytes.Repeat([]byte{0x09}, crypt.KeySize)
	fixtures := []entryFixture{{path: "res://secret.gd", content: []byte("var x = 1"), md5Sum: true}}
	img := buildArchive(t, fixtures, packFlagDirEncrypted, key)

	h, err := OpenBytes(img, &Options{Key: key})
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	cur, err := h.Cursor()
	if err != nil {
		t.Fatalf("Cursor() failed: %v", err)
	}
	e, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next() failed: ok=%v err=%v", ok, err)
	}
	if e.Path != "res://secret.gd" {
		t.Fatalf("Path = %q", e.Path)
	}
}

func TestOpenEncryptedDirectoryRequiresKey(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, crypt.KeySize)
	fixtures := []entryFixture{{path: "res://secret.gd", content: []byte("var x = 1"), md5Sum: true}}
	img := buildArchive(t, fixtures, packFlagDirEncrypted, key)

	if _, err := OpenBytes(img, nil); err == nil {
		t.Fatal("OpenBytes() of an encrypted-directory archive without a key should fail")
	}

	h, err := OpenBytes(img, &Options{Key: key})
	if err != nil {
		t.Fatalf("OpenBytes() with the correct key failed: %v", err)
	}
	defer h.Close()
	if len(h.Entries) != 1 || h.Entries[0].Path != "res://secret.gd" {
		t.Fatalf("Entries = %+v", h.Entries)
	}
}

func TestOpenEncryptedEntry(t *testing.T) {
	key := bytes.Repeat([]byte{0x03}, crypt.KeySize)
	plain := []byte("encrypted file contents")
	enc, err := crypt.Encrypt(plain, key, bytes.Repeat([]byte{0x22}, 16))
	if err != nil {
		t.Fatalf("crypt.Encrypt() failed: %v", err)
	}
	fixtures := []entryFixture{{path: "res://plain.txt", content: []byte("x"), md5Sum: true}}
	img := buildArchive(t, fixtures, 0, nil)
	img = append(img, enc...)

	h, err := OpenBytes(img, &Options{Key: key})
	if err != nil {
		t.Fatalf("OpenBytes() failed: %v", err)
	}
	defer h.Close()

	e := PackEntry{
		Offset:    uint64(len(img) - len(enc)),
		Size:      uint64(len(enc)),
		Encrypted: true,
	}
	r, size, err := h.Open(&e)
	if err != nil {
		t.Fatalf("Open() of an encrypted entry failed: %v", err)
	}
	got := make([]byte, size)
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatalf("ReadFull() failed: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("decrypted content = %q, want %q", got, plain)
	}
}
