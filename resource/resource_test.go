package resource

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

func mustWrite(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

// buildV4Resource writes a minimal format-4 RSRC stream with one external
// (a Texture2D), and two internals: a sub-resource with no properties and a
// main resource that references the external by index and holds a plain int.
func buildV4Resource(t *testing.T) []byte {
	t.Helper()

	var body bytes.Buffer
	w := bio.NewWriter(&body)

	// header
	mustWrite(t, w.WriteU32(Magic))
	mustWrite(t, w.WriteU32(0)) // big_endian
	mustWrite(t, w.WriteU32(0)) // use_real64
	mustWrite(t, w.WriteU32(4)) // engine_major
	mustWrite(t, w.WriteU32(3)) // engine_minor
	mustWrite(t, w.WriteU32(4)) // format_version
	mustWrite(t, w.WritePaddedString("Node2D"))
	mustWrite(t, w.WriteU64(0)) // import_metadata_offset
	for i := 0; i < 14; i++ {
		mustWrite(t, w.WriteU32(0))
	}
	mustWrite(t, w.WriteU32(0)) // flags: no uid/script_class

	// string pool: property names
	strs := []string{"texture", "value"}
	mustWrite(t, w.WriteU32(uint32(len(strs))))
	for _, s := range strs {
		mustWrite(t, w.WritePaddedString(s))
	}

	// externals
	mustWrite(t, w.WriteU32(1))
	mustWrite(t, w.WritePaddedString("Texture2D"))
	mustWrite(t, w.WritePaddedString("res://icon.png"))
	mustWrite(t, w.WriteU64(0)) // uid

	// internal headers: we need placeholder offsets, fixed below.
	subPath := "local://sub_1"
	mainPath := ""
	headerTailLen := 0
	{
		var tmp bytes.Buffer
		tw := bio.NewWriter(&tmp)
		mustWrite(t, tw.WriteU32(2))
		mustWrite(t, tw.WritePaddedString(subPath))
		mustWrite(t, tw.WriteU64(0))
		mustWrite(t, tw.WritePaddedString(mainPath))
		mustWrite(t, tw.WriteU64(0))
		headerTailLen = tmp.Len()
	}

	bodyStart := body.Len() + headerTailLen

	var subBody bytes.Buffer
	sw := bio.NewWriter(&subBody)
	mustWrite(t, sw.WritePaddedString("GradientTexture2D"))
	mustWrite(t, sw.WriteU32(0)) // 0 properties

	subOffset := uint64(bodyStart)

	var mainBody bytes.Buffer
	mw := bio.NewWriter(&mainBody)
	mustWrite(t, mw.WritePaddedString("Node2D"))
	mustWrite(t, mw.WriteU32(2)) // 2 properties
	// texture -> external by index 0
	mustWrite(t, mw.WriteU32(0)) // name idx "texture"
	codec := variant.NewCodec(variant.V4, nil, 0)
	mustWrite(t, codec.Encode(mw, variant.Variant{
		Kind:  variant.KindObject,
		Value: variant.ObjectRef{Kind: variant.ObjectExternalByIndex, ExternalIdx: 0},
	}))
	// value -> plain int
	mustWrite(t, mw.WriteU32(1)) // name idx "value"
	mustWrite(t, codec.Encode(mw, variant.Int32(42)))

	mainOffset := subOffset + uint64(subBody.Len())

	mustWrite(t, w.WriteU32(2))
	mustWrite(t, w.WritePaddedString(subPath))
	mustWrite(t, w.WriteU64(subOffset))
	mustWrite(t, w.WritePaddedString(mainPath))
	mustWrite(t, w.WriteU64(mainOffset))

	if got := uint64(body.Len()); got != subOffset {
		t.Fatalf("computed subOffset %d does not match actual body length %d", subOffset, got)
	}

	mustWrite(t, w.WriteBytes(subBody.Bytes()))
	mustWrite(t, w.WriteBytes(mainBody.Bytes()))

	mustWrite(t, w.WriteU32(Magic)) // trailing sentinel
	return body.Bytes()
}

func TestLoadFakePolicy(t *testing.T) {
	data := buildV4Resource(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	g, err := Load(r, &LoadOptions{Policy: FakeLoad})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(g.Externals) != 1 || g.Externals[0].Path != "res://icon.png" {
		t.Fatalf("Externals = %+v", g.Externals)
	}
	if len(g.Internals) != 2 {
		t.Fatalf("Internals count = %d, want 2", len(g.Internals))
	}
	main := g.Main()
	if main.Type != "Node2D" {
		t.Fatalf("main.Type = %q, want Node2D", main.Type)
	}
	texV, ok := main.Properties.Get(variant.StringName("texture"))
	if !ok {
		t.Fatal("main resource should have a texture property")
	}
	obj := texV.Value.(variant.ObjectRef)
	if obj.Kind != variant.ObjectExternalByIndex || obj.ExternalIdx != 0 {
		t.Fatalf("texture property = %+v, want ObjectExternalByIndex(0)", obj)
	}
	if len(g.DependencyErrors) != 0 {
		t.Fatalf("FakeLoad should never populate DependencyErrors, got %v", g.DependencyErrors)
	}
}

type stubLookup struct {
	resolved []string
	fail     bool
}

func (s *stubLookup) Resolve(resType, path string) (interface{}, error) {
	if s.fail {
		return nil, gdreerr.New(gdreerr.DependencyMissing, "not found")
	}
	s.resolved = append(s.resolved, path)
	return struct{}{}, nil
}

func TestLoadRealPolicyResolvesExternal(t *testing.T) {
	data := buildV4Resource(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	lookup := &stubLookup{}
	g, err := Load(r, &LoadOptions{Policy: RealLoad, Lookup: lookup})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(lookup.resolved) != 1 || lookup.resolved[0] != "res://icon.png" {
		t.Fatalf("lookup.resolved = %v", lookup.resolved)
	}
	if len(g.DependencyErrors) != 0 {
		t.Fatalf("DependencyErrors = %v, want none", g.DependencyErrors)
	}
}

func TestLoadRealPolicyMissingDependencyDemoted(t *testing.T) {
	data := buildV4Resource(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	lookup := &stubLookup{fail: true}
	g, err := Load(r, &LoadOptions{Policy: RealLoad, Lookup: lookup, AbortOnMissing: false})
	if err != nil {
		t.Fatalf("Load() should demote a missing external, not fail: %v", err)
	}
	if len(g.DependencyErrors) != 1 || g.DependencyErrors[0] != "res://icon.png" {
		t.Fatalf("DependencyErrors = %v", g.DependencyErrors)
	}
}

func TestLoadRealPolicyMissingDependencyAbortsWhenRequested(t *testing.T) {
	data := buildV4Resource(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	lookup := &stubLookup{fail: true}
	_, err := Load(r, &LoadOptions{Policy: RealLoad, Lookup: lookup, AbortOnMissing: true})
	if err == nil {
		t.Fatal("Load() should fail when AbortOnMissing is set and a dependency is missing")
	}
}

func TestLoadMissingTrailingMagicFails(t *testing.T) {
	data := buildV4Resource(t)
	truncated := data[:len(data)-4]
	r := bio.NewReader(bytes.NewReader(truncated), int64(len(truncated)))
	if _, err := Load(r, &LoadOptions{Policy: FakeLoad}); err == nil {
		t.Fatal("Load() should fail when the trailing RSRC sentinel is missing")
	}
}

func TestLoadBadMagicFails(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	if _, err := Load(r, nil); err == nil {
		t.Fatal("Load() should fail on a non-RSRC/RSCC stream")
	}
}

// buildV2ResourceWithImportMetadata writes a minimal V2 (format_version 1,
// pre-section-flags) RSRC stream with no internals/externals and a trailing
// ImportMetadata record: one source (path+md5) and one non-string option,
// matching ResourceLoaderBinaryCompat::load_import_metadata's layout.
func buildV2ResourceWithImportMetadata(t *testing.T, sourceMD5 string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bio.NewWriter(&buf)

	mustWrite(t, w.WriteU32(Magic))
	mustWrite(t, w.WriteU32(0)) // big_endian
	mustWrite(t, w.WriteU32(0)) // use_real64
	mustWrite(t, w.WriteU32(2)) // engine_major
	mustWrite(t, w.WriteU32(0)) // engine_minor
	mustWrite(t, w.WriteU32(1)) // format_version
	mustWrite(t, w.WritePaddedString(""))
	importMDOffsetPos := buf.Len()
	mustWrite(t, w.WriteU64(0)) // import_metadata_offset, patched below
	for i := 0; i < 14; i++ {
		mustWrite(t, w.WriteU32(0))
	}
	mustWrite(t, w.WriteU32(0)) // string pool: empty
	mustWrite(t, w.WriteU32(0)) // externals: empty
	mustWrite(t, w.WriteU32(0)) // internal headers: empty

	importOffset := uint64(buf.Len())
	binary.LittleEndian.PutUint64(buf.Bytes()[importMDOffsetPos:importMDOffsetPos+8], importOffset)

	mustWrite(t, w.WritePaddedString("EditorImportPlugin"))
	mustWrite(t, w.WriteU32(1)) // 1 source
	mustWrite(t, w.WritePaddedString("res://icon.png"))
	mustWrite(t, w.WritePaddedString(sourceMD5))
	mustWrite(t, w.WriteU32(1)) // 1 option
	mustWrite(t, w.WritePaddedString("compress/mode"))
	codec := variant.NewCodec(variant.V2, nil, 0)
	mustWrite(t, codec.Encode(w, variant.Int32(2)))

	mustWrite(t, w.WriteU32(Magic)) // trailing sentinel
	return buf.Bytes()
}

func TestLoadImportMetadataSourcesAndOptions(t *testing.T) {
	data := buildV2ResourceWithImportMetadata(t, "d41d8cd98f00b204e9800998ecf8427e")
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	g, err := Load(r, &LoadOptions{Policy: FakeLoad})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if g.Import == nil {
		t.Fatal("Import metadata should be populated")
	}
	if g.Import.Editor != "EditorImportPlugin" {
		t.Fatalf("Editor = %q", g.Import.Editor)
	}
	if len(g.Import.Sources) != 1 {
		t.Fatalf("Sources count = %d, want 1", len(g.Import.Sources))
	}
	src := g.Import.Sources[0]
	if src.Path != "res://icon.png" || src.MD5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("Sources[0] = %+v", src)
	}
	optV, ok := g.Import.Options.Get(variant.StringName("compress/mode"))
	if !ok {
		t.Fatal("compress/mode option should be present")
	}
	if optV.Kind != variant.KindInt32 || optV.Value.(int32) != 2 {
		t.Fatalf("compress/mode option = %+v, want Int32(2)", optV)
	}
}

func TestVerifySourceMD5sDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "icon.png"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("writing fixture source file: %v", err)
	}

	data := buildV2ResourceWithImportMetadata(t, "not-the-real-hash")
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	g, err := Load(r, &LoadOptions{Policy: FakeLoad})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	g.Import.Sources[0].Path = "icon.png"

	mismatch, err := g.Import.VerifySourceMD5s(dir)
	if err != nil {
		t.Fatalf("VerifySourceMD5s() failed: %v", err)
	}
	if len(mismatch) != 1 || mismatch[0] != "icon.png" {
		t.Fatalf("mismatch = %v, want [icon.png]", mismatch)
	}

	// Matching digest: re-stamp the source with the real one and confirm no mismatch.
	g.Import.Sources[0].MD5 = "5eb63bbbe01eeed093cb22bb8f5acdc3"
	mismatch, err = g.Import.VerifySourceMD5s(dir)
	if err != nil {
		t.Fatalf("VerifySourceMD5s() failed: %v", err)
	}
	if len(mismatch) != 0 {
		t.Fatalf("mismatch = %v, want none", mismatch)
	}
}
