// Package resource implements the binary resource/scene loader (§4.3):
// the "RSRC" layout (optionally wrapped in a compressed "RSCC" stream),
// decoded into a self-sufficient ResourceGraph that the text writer and
// any re-binary writer consume without ever touching the original
// stream again. The tree/table walking here follows the teacher's
// resource.go directory-walking shape (parse a header, then a flat table
// of entries, each either more structure or a leaf) generalized from a PE
// resource directory to a Godot resource body table.
package resource

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/gdrelog"
	"github.com/godot-re/gdre/variant"
)

// Magic is the "RSRC" header magic, read as a little-endian u32.
const Magic = 0x43525352

// CompressedMagic is the "RSCC" wrapper magic that precedes a compressed
// resource stream; present only when the exporter's compression setting
// wrapped this particular resource, per §4.3 step 1.
const CompressedMagic = 0x43435352

// format≥3 header flag bits.
const (
	flagNamedSceneIDs = 1 << 0
	flagUIDs          = 1 << 1
	flagScriptClass   = 1 << 2
)

// Header carries a resource file's generation and layout metadata.
type Header struct {
	BigEndian            bool
	UseReal64            bool
	EngineMajor          uint32
	EngineMinor          uint32
	FormatVersion        uint32
	RootType             string
	ImportMetadataOffset uint64 // V2 only; 0 if absent
	Flags                uint32 // format >= 3 only
	UID                  uint64 // format >= 3 and flagUIDs only
	ScriptClass          string // format >= 3 and flagScriptClass only
}

// NamedSceneIDs/UIDs/ScriptClass report the format>=3 flag bits.
func (h Header) NamedSceneIDs() bool  { return h.Flags&flagNamedSceneIDs != 0 }
func (h Header) HasUID() bool         { return h.Flags&flagUIDs != 0 }
func (h Header) HasScriptClass() bool { return h.Flags&flagScriptClass != 0 }

// ExternalResource is one entry of the external-reference table.
type ExternalResource struct {
	Type string
	Path string
	UID  uint64 // format >= 3 only
}

// InternalResource is one entry of the internal resource table, decoded
// in place: Properties holds the (name, Variant) pairs read from its body
// at BodyOffset, and Type is the class name stored with the body.
type InternalResource struct {
	Path       string
	BodyOffset uint64
	Type       string
	Properties *variant.Dictionary
	// Placeholder is set when a load policy replaced this resource's body
	// with a marker instead of decoding it: Type and Path are kept,
	// Properties is nil, and Subindex is not filled in.
	Placeholder bool
	Subindex    uint32
}

// ImportSource is one entry of a V2 ImportMetadata's source list: the
// original asset path and the md5 digest the importer recorded for it.
type ImportSource struct {
	Path string
	MD5  string
}

// ImportMetadata is the V2-only import record trailing a resource file
// (§4.3 step 10): which editor produced it, the source file list, and the
// import options map.
type ImportMetadata struct {
	Editor  string
	Sources []ImportSource
	Options *variant.Dictionary

	// SourceMD5Mismatch holds the Sources[i].Path of every source whose
	// recorded MD5 didn't match the last VerifySourceMD5s recompute; nil
	// until that's been called. Lets a caller tell a re-imported asset
	// (recomputed hash differs) from a merely renamed one (path differs,
	// hash doesn't).
	SourceMD5Mismatch []string
}

// VerifySourceMD5s recomputes the MD5 digest of each source file at
// root/Sources[i].Path and compares it against the digest ImportMetadata
// recorded at import time, mirroring resource_loader_compat.cpp's
// get_md5_hash/_rewrite_import_metadata recompute-and-compare. It returns
// (and stores on SourceMD5Mismatch) the paths whose recomputed digest
// disagrees with the stored one.
func (md *ImportMetadata) VerifySourceMD5s(root string) ([]string, error) {
	md.SourceMD5Mismatch = nil
	for _, src := range md.Sources {
		sum, err := md5File(filepath.Join(root, filepath.FromSlash(src.Path)))
		if err != nil {
			return nil, err
		}
		if sum != src.MD5 {
			md.SourceMD5Mismatch = append(md.SourceMD5Mismatch, src.Path)
		}
	}
	return md.SourceMD5Mismatch, nil
}

func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stats summarizes a decoded ResourceGraph, mirroring the teacher's
// pattern of a small summary struct alongside the detailed parse result.
type Stats struct {
	ExternalCount int
	InternalCount int
	BytesRead     int64
}

// ResourceGraph is the self-sufficient decoded form of one resource file.
// Every downstream consumer (text writer, re-binary writer) operates on
// this graph alone; it never re-reads the original stream.
type ResourceGraph struct {
	Header     Header
	StringPool *variant.SimpleStringTable
	Externals  []ExternalResource
	Internals  []InternalResource
	Import     *ImportMetadata

	// DependencyErrors records the paths of externals that could not be
	// resolved under RealLoad/GltfLoad without AbortOnMissing. FakeLoad
	// never resolves externals and leaves it empty.
	DependencyErrors []string

	Stats Stats
}

// Main returns the last internal resource, which §4.3 step 9 designates
// the main resource of the file.
func (g *ResourceGraph) Main() *InternalResource {
	if len(g.Internals) == 0 {
		return nil
	}
	return &g.Internals[len(g.Internals)-1]
}

// LoadPolicy selects how external (and, for FAKE_LOAD, internal)
// references are materialized while decoding a resource body.
type LoadPolicy int

const (
	// FakeLoad leaves every external reference unresolved, as an index
	// into Externals (which records its type and path), and with
	// FakePlaceholdersForInternals replaces every internal resource but
	// the main one with a placeholder keeping its type and path; the
	// placeholder's Subindex is not filled in. Used for inspection and
	// round-trip conversion without a real asset pipeline present. It is
	// the LoadPolicy zero value, so a zero-valued LoadOptions is always
	// safe: no external I/O, never fatal on a missing dependency.
	FakeLoad LoadPolicy = iota
	// RealLoad resolves every external reference through Lookup; an
	// unresolved reference is fatal unless AbortOnMissing is false.
	RealLoad
	// GltfLoad behaves like RealLoad but routes mesh/texture subresources
	// through GltfLookup instead of Lookup; everything else is unchanged.
	GltfLoad
)

// Lookup resolves an external resource reference to a caller-owned value
// during RealLoad/GltfLoad. The returned value is opaque to this package;
// it is only threaded through the decoded graph for a caller that wants
// to inspect or re-serialize it.
type Lookup interface {
	Resolve(resType, path string) (interface{}, error)
}

// LoadOptions configures Load. The zero value selects FakeLoad with no
// collaborators, which is always safe (no external I/O, never fatal on a
// missing dependency).
type LoadOptions struct {
	Policy LoadPolicy

	// Lookup resolves externals under RealLoad. When it is nil, every
	// external reference is treated as unresolved: fatal (DependencyMissing)
	// with AbortOnMissing, otherwise recorded in DependencyErrors.
	Lookup Lookup
	// GltfLookup resolves mesh/texture externals under GltfLoad; other
	// externals still go through Lookup.
	GltfLookup Lookup

	// AbortOnMissing makes an unresolved external under RealLoad/GltfLoad
	// fatal (DependencyMissing) instead of demoted to a placeholder with a
	// DependencyErrors entry.
	AbortOnMissing bool

	// FakePlaceholdersForInternals additionally replaces every internal
	// resource but the main one with a placeholder under FakeLoad,
	// instead of decoding their property bags.
	FakePlaceholdersForInternals bool

	MaxDepth int
	Logger   *gdrelog.Helper
}

func (o *LoadOptions) logger() *gdrelog.Helper {
	if o == nil || o.Logger == nil {
		return gdrelog.Nop()
	}
	return o.Logger
}

func (o *LoadOptions) policy() LoadPolicy {
	if o == nil {
		return FakeLoad
	}
	return o.Policy
}

func (o *LoadOptions) lookup() Lookup {
	if o == nil {
		return nil
	}
	return o.Lookup
}

// Load decodes a resource stream, transparently unwrapping an "RSCC"
// compression wrapper first if present (§4.3 step 1).
func Load(r *bio.Reader, opts *LoadOptions) (*ResourceGraph, error) {
	log := opts.logger()

	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic == CompressedMagic {
		dr, size, err := unwrapCompressed(r)
		if err != nil {
			return nil, err
		}
		r = dr
		log.Debugf("resource: unwrapped RSCC stream, %d decompressed bytes", size)
		magic, err = r.ReadU32()
		if err != nil {
			return nil, err
		}
	}
	if magic != Magic {
		return nil, gdreerr.New(gdreerr.BadMagic, "no RSRC magic at resource stream start")
	}

	g := &ResourceGraph{}
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	g.Header = hdr
	r.SetBigEndian(hdr.BigEndian)

	strs, err := readStringPool(r)
	if err != nil {
		return nil, err
	}
	g.StringPool = variant.NewSimpleStringTable(strs)

	externals, err := readExternals(r, hdr)
	if err != nil {
		return nil, err
	}
	g.Externals = externals

	internalHeaders, err := readInternalHeaders(r, hdr)
	if err != nil {
		return nil, err
	}

	codec := variant.NewCodec(genFor(hdr.EngineMajor), g.StringPool, opts.fieldMaxDepth())
	internals := make([]InternalResource, len(internalHeaders))
	for i, ih := range internalHeaders {
		isMain := i == len(internalHeaders)-1
		body, err := decodeBody(r, codec, ih, g, opts, isMain, log)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "decoding internal resource body", err).
				In(breadcrumbResource(i, ih.Path))
		}
		internals[i] = body
	}
	g.Internals = internals

	if hdr.FormatVersion <= 3 && hdr.ImportMetadataOffset != 0 {
		if err := r.Seek(int64(hdr.ImportMetadataOffset)); err != nil {
			return nil, err
		}
		md, err := readImportMetadata(r, codec)
		if err != nil {
			return nil, err
		}
		g.Import = md
	}

	if err := verifyTrailingMagic(r); err != nil {
		return nil, err
	}

	g.Stats = Stats{
		ExternalCount: len(g.Externals),
		InternalCount: len(g.Internals),
	}
	if off, err := r.Tell(); err == nil {
		g.Stats.BytesRead = off
	}
	return g, nil
}

func (o *LoadOptions) fieldMaxDepth() int {
	if o == nil {
		return 0
	}
	return o.MaxDepth
}

func breadcrumbResource(idx int, path string) string {
	if path == "" {
		return "resource #" + strconv.Itoa(idx)
	}
	return "resource #" + strconv.Itoa(idx) + " (" + path + ")"
}

// genFor maps an engine major version to the Variant codec generation
// whose tag table its resource bodies were written with.
func genFor(engineMajor uint32) variant.Generation {
	switch engineMajor {
	case 2:
		return variant.V2
	case 3:
		return variant.V3
	default:
		return variant.V4
	}
}

func readHeader(r *bio.Reader) (Header, error) {
	var h Header
	bigEndianRaw, err := r.ReadU32()
	if err != nil {
		return h, err
	}
	h.BigEndian = bigEndianRaw != 0
	r.SetBigEndian(h.BigEndian)

	useReal64Raw, err := r.ReadU32()
	if err != nil {
		return h, err
	}
	h.UseReal64 = useReal64Raw != 0

	if h.EngineMajor, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.EngineMinor, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.FormatVersion, err = r.ReadU32(); err != nil {
		return h, err
	}

	if h.RootType, err = r.ReadPaddedString(); err != nil {
		return h, err
	}
	if h.ImportMetadataOffset, err = r.ReadU64(); err != nil {
		return h, err
	}
	for i := 0; i < 14; i++ {
		if _, err = r.ReadU32(); err != nil {
			return h, err
		}
	}

	if h.FormatVersion >= 3 {
		if h.Flags, err = r.ReadU32(); err != nil {
			return h, err
		}
		if h.HasUID() {
			if h.UID, err = r.ReadU64(); err != nil {
				return h, err
			}
		}
		if h.HasScriptClass() {
			if h.ScriptClass, err = r.ReadPaddedString(); err != nil {
				return h, err
			}
		}
	}
	return h, nil
}

func readStringPool(r *bio.Reader) ([]string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func readExternals(r *bio.Reader, hdr Header) ([]ExternalResource, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]ExternalResource, n)
	for i := range out {
		typ, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		path, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		e := ExternalResource{Type: typ, Path: path}
		if hdr.FormatVersion >= 3 {
			if e.UID, err = r.ReadU64(); err != nil {
				return nil, err
			}
		}
		out[i] = e
	}
	return out, nil
}

type internalHeader struct {
	Path       string
	BodyOffset uint64
}

func readInternalHeaders(r *bio.Reader, hdr Header) ([]internalHeader, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]internalHeader, n)
	for i := range out {
		path, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		offset, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		out[i] = internalHeader{Path: path, BodyOffset: offset}
	}
	return out, nil
}

func decodeBody(r *bio.Reader, codec *variant.Codec, ih internalHeader, g *ResourceGraph,
	opts *LoadOptions, isMain bool, log *gdrelog.Helper) (InternalResource, error) {

	if err := r.Seek(int64(ih.BodyOffset)); err != nil {
		return InternalResource{}, err
	}
	typ, err := r.ReadPaddedString()
	if err != nil {
		return InternalResource{}, err
	}
	count, err := r.ReadU32()
	if err != nil {
		return InternalResource{}, err
	}

	policy := opts.policy()
	if policy == FakeLoad && !isMain && opts != nil && opts.FakePlaceholdersForInternals {
		// Still must consume the body bytes to leave the stream positioned
		// correctly for the next resource; decode and discard.
		if _, err := readPropertyPairs(r, codec, g.StringPool, count); err != nil {
			return InternalResource{}, err
		}
		return InternalResource{Path: ih.Path, BodyOffset: ih.BodyOffset, Type: typ, Placeholder: true}, nil
	}

	props, err := readPropertyPairs(r, codec, g.StringPool, count)
	if err != nil {
		return InternalResource{}, err
	}

	if policy != FakeLoad {
		if err := resolveExternalObjects(props, g, opts, log); err != nil {
			return InternalResource{}, err
		}
	}

	return InternalResource{Path: ih.Path, BodyOffset: ih.BodyOffset, Type: typ, Properties: props}, nil
}

func readPropertyPairs(r *bio.Reader, codec *variant.Codec, strs *variant.SimpleStringTable, count uint32) (*variant.Dictionary, error) {
	d := &variant.Dictionary{}
	for i := uint32(0); i < count; i++ {
		nameIdx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := strs.Lookup(nameIdx)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "property name index out of range", err).
				In("property #" + strconv.Itoa(int(i)))
		}
		val, err := codec.Decode(r)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "decoding property value", err).
				In("property '" + name + "'")
		}
		d.Set(variant.StringName(name), val)
	}
	return d, nil
}

// resolveExternalObjects resolves every external-by-index reference found in
// props against the configured Lookup collaborator. A reference that fails
// to resolve is fatal (DependencyMissing) when opts.AbortOnMissing is set; otherwise
// it is demoted to a placeholder and recorded in g.DependencyErrors, per the
// load policy's missing-dependency semantics.
func resolveExternalObjects(props *variant.Dictionary, g *ResourceGraph, opts *LoadOptions, log *gdrelog.Helper) error {
	for _, e := range props.Entries {
		obj, ok := e.Value.Value.(variant.ObjectRef)
		if !ok || obj.Kind != variant.ObjectExternalByIndex {
			continue
		}
		if int(obj.ExternalIdx) >= len(g.Externals) {
			continue
		}
		ext := g.Externals[obj.ExternalIdx]
		lookup := opts.lookup()
		if opts.policy() == GltfLoad && opts.GltfLookup != nil && isMeshOrTexture(ext.Type) {
			lookup = opts.GltfLookup
		}
		if lookup == nil {
			if opts.AbortOnMissing {
				return gdreerr.New(gdreerr.DependencyMissing, fmt.Sprintf("external dependency %q has no Lookup collaborator configured", ext.Path)).In(ext.Path)
			}
			g.DependencyErrors = append(g.DependencyErrors, ext.Path)
			log.Warnf("resource: no Lookup collaborator configured, external %q left unresolved", ext.Path)
			continue
		}
		if _, err := lookup.Resolve(ext.Type, ext.Path); err != nil {
			if opts.AbortOnMissing {
				return gdreerr.Wrap(gdreerr.DependencyMissing, "external dependency did not resolve", err).In(ext.Path)
			}
			g.DependencyErrors = append(g.DependencyErrors, ext.Path)
			log.Warnf("resource: external dependency %q did not resolve: %v", ext.Path, err)
		}
	}
	return nil
}

func isMeshOrTexture(resType string) bool {
	switch resType {
	case "Mesh", "ArrayMesh", "Texture", "Texture2D", "CompressedTexture2D":
		return true
	default:
		return false
	}
}

// readImportMetadata reads the V2 ResourceImportMetadatav2 record:
// editor name, then a (path, md5) pair per source, then a (name, Variant)
// pair per import option, matching
// ResourceLoaderBinaryCompat::load_import_metadata.
func readImportMetadata(r *bio.Reader, codec *variant.Codec) (*ImportMetadata, error) {
	md := &ImportMetadata{Options: &variant.Dictionary{}}
	var err error
	if md.Editor, err = r.ReadPaddedString(); err != nil {
		return nil, err
	}
	srcCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	md.Sources = make([]ImportSource, srcCount)
	for i := range md.Sources {
		path, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		md5, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		md.Sources[i] = ImportSource{Path: path, MD5: md5}
	}
	optCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < optCount; i++ {
		name, err := r.ReadPaddedString()
		if err != nil {
			return nil, err
		}
		val, err := codec.Decode(r)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "decoding import option value", err).
				In("import option '" + name + "'")
		}
		md.Options.Set(variant.StringName(name), val)
	}
	return md, nil
}

func verifyTrailingMagic(r *bio.Reader) error {
	raw, err := r.ReadU32()
	if err != nil {
		return err
	}
	if raw != Magic {
		off, _ := r.Tell()
		return gdreerr.New(gdreerr.CorruptData, "missing RSRC sentinel at end of resource stream").At(off - 4)
	}
	return nil
}
