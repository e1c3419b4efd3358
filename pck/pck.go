// Package pck reads Godot's PCK archive format (§4.1): magic detection
// across the standalone and embedded-in-executable layouts, the v1/v2
// directory (optionally encrypted), per-entry MD5 verification, and path
// sanitization. It memory-maps the archive file the way the teacher's
// pe.New maps a PE image (file.go), since large .pck files are common and
// most of an archive's bytes are never touched during a directory scan.
package pck

import (
	"bytes"
	"crypto/md5"
	"io"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/crypt"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/gdrelog"
)

// Magic is Godot's PCK header magic, "GDPC" read as a little-endian u32.
const Magic = 0x43504447

// footerSize is the trailing (pck_size u64, magic u32) pair closing an
// embedded-in-executable archive.
const footerSize = 8 + 4

// packFlagDirEncrypted is bit 0 of the format-2 pack_flags word.
const packFlagDirEncrypted = 1 << 0

// entryFlagEncrypted is bit 0 of the format-2 per-entry flags word.
const entryFlagEncrypted = 1 << 0

// Header carries the archive's format and engine metadata.
type Header struct {
	FormatVersion uint32
	EngineMajor   uint32
	EngineMinor   uint32
	EnginePatch   uint32
	PackFlags     uint32 // format 2 only
	FileBase      uint64 // format 2 only
	FileCount     uint32
}

// DirEncrypted reports whether the directory itself was read through the
// encryption transport.
func (h Header) DirEncrypted() bool {
	return h.FormatVersion >= 2 && h.PackFlags&packFlagDirEncrypted != 0
}

// PackEntry is one file record from the archive directory.
type PackEntry struct {
	Path       string
	RawPath    string // path exactly as stored, before sanitization
	Malformed  bool   // sanitizePath rewrote RawPath to produce Path
	Offset     uint64
	Size       uint64
	MD5        [16]byte
	MD5Unset   bool // all-zero MD5, per spec treated as "unset" and never failed
	Encrypted  bool
	ChecksumOK bool // filled in by Verify
}

// Options configures Open/OpenBytes.
type Options struct {
	// Key decrypts an encrypted directory or entry. Required only if the
	// archive needs it; Open fails with MissingKey otherwise.
	Key []byte

	Logger *gdrelog.Helper
}

func (o *Options) logger() *gdrelog.Helper {
	if o == nil || o.Logger == nil {
		return gdrelog.Nop()
	}
	return o.Logger
}

func (o *Options) key() []byte {
	if o == nil {
		return nil
	}
	return o.Key
}

// ArchiveHandle is an open PCK archive: parsed directory plus the means to
// stream any entry's content.
type ArchiveHandle struct {
	Info    Header
	Entries []PackEntry

	data         mmap.MMap
	mapped       bool // true only when data came from a real mmap.Map, not OpenBytes
	f            *os.File
	key          []byte
	logger       *gdrelog.Helper
	entriesStart int64 // byte offset of the directory's first entry, for Cursor
}

// Open memory-maps the file at path and parses its directory. It locates
// the header the same way OpenEmbedded does — at offset 0 or via the
// embedded-in-executable footer — so a standalone .pck and a self-contained
// export both work through this one entry point.
func Open(path string, opts *Options) (*ArchiveHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gdreerr.Wrap(gdreerr.Io, "opening archive", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, gdreerr.Wrap(gdreerr.Io, "memory-mapping archive", err)
	}
	h, err := openMapped(data, opts)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	h.f = f
	h.mapped = true
	return h, nil
}

// OpenBytes parses an in-memory archive image, for callers that already
// have the bytes (an extracted embedded PCK section, a test fixture). The
// bytes are not memory-mapped, so Close is a no-op on them.
func OpenBytes(data []byte, opts *Options) (*ArchiveHandle, error) {
	return openMapped(mmap.MMap(data), opts)
}

// OpenEmbedded opens a host executable or self-contained Godot export and
// locates the GDPC archive packed into it. §4.1 names this as a layout
// distinct from a standalone .pck, but the discovery it needs — scan for
// the magic at offset 0, and failing that walk back from the file's tail
// through the (pck_size, magic) footer Godot's exporter writes for a
// self-contained binary — is exactly locateHeader's two-branch scan,
// grounded in PckDumper::_get_magic_number (original_source/utility/
// pck_dumper.cpp): same offset-0 probe, same end-4/end-12 footer walk back
// to the repeated magic. OpenEmbedded exists as the named entry point
// SPEC_FULL.md calls for; it does not need a third detection mechanism
// because locateHeader already covers both physical layouts.
func OpenEmbedded(path string, opts *Options) (*ArchiveHandle, error) {
	return Open(path, opts)
}

// OpenEmbeddedBytes is OpenEmbedded for an in-memory host-binary image.
func OpenEmbeddedBytes(data []byte, opts *Options) (*ArchiveHandle, error) {
	return OpenBytes(data, opts)
}

func openMapped(data mmap.MMap, opts *Options) (*ArchiveHandle, error) {
	log := opts.logger()
	headerStart, err := locateHeader(data)
	if err != nil {
		return nil, err
	}

	r := bio.NewReader(bytes.NewReader([]byte(data)), int64(len(data)))
	if err := r.Seek(headerStart + 4); err != nil {
		return nil, err
	}

	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	log.Infof("pck: format version %d, engine %d.%d.%d, %d files",
		hdr.FormatVersion, hdr.EngineMajor, hdr.EngineMinor, hdr.EnginePatch, hdr.FileCount)

	entriesStart, err := r.Tell()
	if err != nil {
		return nil, err
	}

	entries, err := readEntries(r, hdr, opts.key())
	if err != nil {
		return nil, err
	}

	return &ArchiveHandle{
		Info:         hdr,
		Entries:      entries,
		data:         data,
		key:          opts.key(),
		logger:       log,
		entriesStart: entriesStart,
	}, nil
}

// locateHeader finds the offset of the GDPC magic per the three layouts in
// §4.1: standalone (magic at 0), embedded-at-end (footer pck_size+magic),
// and the compressed-stream layout which belongs to individual resource
// files (§4.3), not whole archives, so it is not handled here.
func locateHeader(data []byte) (int64, error) {
	if len(data) >= 4 && readMagicAt(data, 0) {
		return 0, nil
	}
	if len(data) >= footerSize {
		size := int64(len(data))
		if readMagicAt(data, size-4) {
			pckSize := int64(littleEndianU64(data[size-12 : size-4]))
			headerStart := (size - 4) - (pckSize + 8)
			if headerStart >= 0 && readMagicAt(data, headerStart) {
				return headerStart, nil
			}
		}
	}
	return 0, gdreerr.New(gdreerr.BadMagic, "no GDPC magic found in standalone or embedded-at-end position")
}

func readMagicAt(data []byte, off int64) bool {
	if off < 0 || off+4 > int64(len(data)) {
		return false
	}
	return littleEndianU32(data[off:off+4]) == Magic
}

func littleEndianU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func littleEndianU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func readHeader(r *bio.Reader) (Header, error) {
	var h Header
	var err error
	if h.FormatVersion, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.FormatVersion == 0 || h.FormatVersion > 2 {
		return h, gdreerr.New(gdreerr.UnsupportedVersion, "pck format version must be 1 or 2")
	}
	if h.EngineMajor, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.EngineMinor, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.EnginePatch, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.FormatVersion == 2 {
		if h.PackFlags, err = r.ReadU32(); err != nil {
			return h, err
		}
		if h.FileBase, err = r.ReadU64(); err != nil {
			return h, err
		}
	}
	for i := 0; i < 16; i++ {
		if _, err = r.ReadU32(); err != nil {
			return h, err
		}
	}
	if h.FileCount, err = r.ReadU32(); err != nil {
		return h, err
	}
	return h, nil
}

func readEntries(r *bio.Reader, hdr Header, key []byte) ([]PackEntry, error) {
	if !hdr.DirEncrypted() {
		return readEntryList(r, hdr)
	}
	if key == nil {
		return nil, gdreerr.New(gdreerr.MissingKey, "directory is encrypted and no key was supplied")
	}
	off, err := r.Tell()
	if err != nil {
		return nil, err
	}
	rest, err := r.ReadBytes(int(r.Len() - off))
	if err != nil {
		return nil, err
	}
	cr, err := crypt.NewReader(bytes.NewReader(rest), key)
	if err != nil {
		return nil, err
	}
	dr := bio.NewReader(cr, -1)
	return readEntryList(dr, hdr)
}

func readEntryList(r *bio.Reader, hdr Header) ([]PackEntry, error) {
	entries := make([]PackEntry, 0, hdr.FileCount)
	for i := uint32(0); i < hdr.FileCount; i++ {
		e, err := readOneEntry(r, hdr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readOneEntry(r *bio.Reader, hdr Header) (PackEntry, error) {
	var e PackEntry
	pathLen, err := r.ReadU32()
	if err != nil {
		return e, err
	}
	raw, err := r.ReadRawString(int(pathLen))
	if err != nil {
		return e, err
	}
	e.RawPath = raw
	e.Path, e.Malformed = sanitizePath(raw)

	if e.Offset, err = r.ReadU64(); err != nil {
		return e, err
	}
	e.Offset += hdr.FileBase
	if e.Size, err = r.ReadU64(); err != nil {
		return e, err
	}
	md5Bytes, err := r.ReadBytes(16)
	if err != nil {
		return e, err
	}
	copy(e.MD5[:], md5Bytes)
	e.MD5Unset = e.MD5 == [16]byte{}

	if hdr.FormatVersion == 2 {
		flags, err := r.ReadU32()
		if err != nil {
			return e, err
		}
		e.Encrypted = flags&entryFlagEncrypted != 0
	}
	return e, nil
}

// sanitizePath applies the "same name unless disallowed" rewrite rules of
// §4.1 to the prefix-stripped body of raw, reporting whether anything
// changed.
func sanitizePath(raw string) (string, bool) {
	prefix := ""
	body := raw
	for _, p := range []string{"res://", "local://"} {
		if strings.HasPrefix(raw, p) {
			prefix = p
			body = raw[len(p):]
			break
		}
	}
	orig := body

	if strings.HasPrefix(body, "~") {
		body = "_" + body[1:]
	}
	for strings.HasPrefix(body, "/") {
		body = "_" + body[1:]
	}
	for strings.Contains(body, "//") {
		body = strings.ReplaceAll(body, "//", "/")
	}
	// "..." and ".." must be collapsed before "./", or a ".." immediately
	// followed by "/" (as in "a/../b") would only have its second dot eaten
	// by the "./" rule, leaving a stray "." behind.
	body = strings.ReplaceAll(body, "...", "_")
	body = strings.ReplaceAll(body, "..", "_")
	body = strings.ReplaceAll(body, "./", "_")
	for _, ch := range []string{`\`, ":", "|", "?", ">", "<", "*", `"`} {
		body = strings.ReplaceAll(body, ch, "_")
	}

	return prefix + body, body != orig
}

// EntryCursor lazily decodes one PackEntry at a time from an archive's
// directory stream (§9's "iterator-shaped reads": cursors with next), for a
// caller scanning a very large archive's directory without holding every
// entry in memory at once. ArchiveHandle.Entries already holds the fully
// materialized form for callers that want random access or repeated scans.
type EntryCursor struct {
	r         *bio.Reader
	hdr       Header
	remaining uint32
}

// Cursor returns a fresh EntryCursor over h's directory, independent of (and
// not sharing read position with) h.Entries or any other open cursor. For
// an encrypted directory this still has to decrypt the remaining stream up
// front — crypt.Reader can't be re-entered mid-archive — but entries are
// decoded one at a time as Next is called rather than collected into a
// slice.
func (h *ArchiveHandle) Cursor() (*EntryCursor, error) {
	r := bio.NewReader(bytes.NewReader([]byte(h.data)), int64(len(h.data)))
	if err := r.Seek(h.entriesStart); err != nil {
		return nil, err
	}
	if !h.Info.DirEncrypted() {
		return &EntryCursor{r: r, hdr: h.Info, remaining: h.Info.FileCount}, nil
	}
	if h.key == nil {
		return nil, gdreerr.New(gdreerr.MissingKey, "directory is encrypted and no key was supplied")
	}
	off, err := r.Tell()
	if err != nil {
		return nil, err
	}
	rest, err := r.ReadBytes(int(r.Len() - off))
	if err != nil {
		return nil, err
	}
	cr, err := crypt.NewReader(bytes.NewReader(rest), h.key)
	if err != nil {
		return nil, err
	}
	dr := bio.NewReader(cr, -1)
	return &EntryCursor{r: dr, hdr: h.Info, remaining: h.Info.FileCount}, nil
}

// Next decodes the next entry in the directory, reporting ok=false once the
// cursor is exhausted.
func (c *EntryCursor) Next() (entry PackEntry, ok bool, err error) {
	if c.remaining == 0 {
		return PackEntry{}, false, nil
	}
	e, err := readOneEntry(c.r, c.hdr)
	if err != nil {
		return PackEntry{}, false, err
	}
	c.remaining--
	return e, true, nil
}

// Open returns a ByteStream over an entry's content, decrypting it first if
// the entry's flags require it.
func (h *ArchiveHandle) Open(e *PackEntry) (io.ReadSeeker, int64, error) {
	if e.Offset+e.Size > uint64(len(h.data)) {
		return nil, 0, gdreerr.New(gdreerr.CorruptData, "entry extends past end of archive").In(e.Path)
	}
	view := h.data[e.Offset : e.Offset+e.Size]

	if !e.Encrypted {
		return bytes.NewReader(view), int64(len(view)), nil
	}
	if h.key == nil {
		return nil, 0, gdreerr.New(gdreerr.MissingKey, "entry is encrypted and no key was supplied").In(e.Path)
	}
	cr, err := crypt.NewReader(bytes.NewReader(view), h.key)
	if err != nil {
		return nil, 0, err
	}
	plainSize := int64(len(view)) - 32 // MAC(16) + IV(16)
	if plainSize < 0 {
		return nil, 0, gdreerr.New(gdreerr.CorruptData, "encrypted entry shorter than MAC+IV header").In(e.Path)
	}
	return &finalizingReader{cr: cr, remaining: plainSize}, plainSize, nil
}

// finalizingReader wraps a crypt.Reader and verifies its MAC once the
// caller has consumed exactly the declared plaintext length.
type finalizingReader struct {
	cr        *crypt.Reader
	remaining int64
	finalErr  error
	finalized bool
}

func (f *finalizingReader) Read(p []byte) (int, error) {
	if f.remaining <= 0 {
		f.finalizeOnce()
		if f.finalErr != nil {
			return 0, f.finalErr
		}
		return 0, io.EOF
	}
	if int64(len(p)) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.cr.Read(p)
	f.remaining -= int64(n)
	if f.remaining <= 0 {
		f.finalizeOnce()
		if err == nil {
			err = f.finalErr
		}
	}
	return n, err
}

func (f *finalizingReader) finalizeOnce() {
	if f.finalized {
		return
	}
	f.finalized = true
	f.finalErr = f.cr.Finalize()
}

func (f *finalizingReader) Seek(offset int64, whence int) (int64, error) {
	return f.cr.Seek(offset, whence)
}

// Verify streams e's content through MD5 and compares it to e.MD5, setting
// e.ChecksumOK. A zero MD5 is treated as unset and always reports ok.
func (h *ArchiveHandle) Verify(e *PackEntry) (bool, error) {
	if e.MD5Unset {
		e.ChecksumOK = true
		return true, nil
	}
	r, size, err := h.Open(e)
	if err != nil {
		return false, err
	}
	sum := md5.New()
	if _, err := io.CopyN(sum, r, size); err != nil && err != io.EOF {
		return false, gdreerr.Wrap(gdreerr.Io, "streaming entry for checksum", err).In(e.Path)
	}
	ok := bytes.Equal(sum.Sum(nil), e.MD5[:])
	e.ChecksumOK = ok
	return ok, nil
}

// Close releases the archive's backing file and mapping.
func (h *ArchiveHandle) Close() error {
	var err error
	if h.mapped && h.data != nil {
		err = h.data.Unmap()
	}
	if h.f != nil {
		if cerr := h.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
