// Package gdscript decodes compiled GDScript bytecode (§4.8): the "GDSC"
// container emitted by GDScriptTokenizerBuffer::parse_code_string, and a
// best-effort linear disassembly back to readable source text. Grounded on
// bruvzg/gdsdecomp's bytecode/bytecode_base.cpp (GDScriptDecomp::
// get_ids_consts_tokens, the reference decoder) and editor/
// gdscript_tokenizer_old.h/.cpp (the token tag enum, token_names table, and
// the builtin-function argument-count table this package reproduces in
// tables.go). The per-revision dispatch table is modeled on the teacher's
// row-table lookup in dotnet_metadata_tables.go: a revision is looked up
// once by id, then every subsequent field decode consults the returned
// table instead of branching on version throughout the decoder.
package gdscript

import (
	"bytes"
	"encoding/binary"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// Magic is the fixed 4-byte GDSC container header.
const Magic = "GDSC"

// identifierXorMask obfuscates identifier bytes in the bytecode stream.
const identifierXorMask = 0xb6

// Bytecode is one decoded GDSC stream: identifier/constant pools, a
// token-index-to-source-line map, and the flat token stream itself.
type Bytecode struct {
	Version     uint32
	Identifiers []string
	Constants   []variant.Variant
	// Lines maps a token index to the source line it starts, populated
	// for exactly the token indices the compiler recorded a line change
	// at (not every index has an entry).
	Lines  map[uint32]uint32
	Tokens []Token
}

// Token is one decoded bytecode instruction: a tag (the low 8 bits of the
// wire word, see TOKEN_BITS/TOKEN_MASK in gdscript_tokenizer_old.h) plus
// whatever payload the encoder packed into the upper 24 bits for that tag
// (identifier index, constant index, builtin id, or newline indent depth).
type Token struct {
	Tag     uint32
	Payload uint32
}

const tokenBits = 8
const tokenMask = (1 << tokenBits) - 1
const tokenByteMask = 0x80

// Decode parses a GDSC stream per the layout in get_ids_consts_tokens:
// header, identifiers (XOR 0xB6, NUL-terminated), constants (Variants in
// rev's generation), the line map, and the token stream. Every multi-byte
// field in a GDSC container is little-endian regardless of the resource
// stream's own endianness flag, so this reads raw bytes and decodes with
// binary.LittleEndian throughout rather than relying on bio.Reader's mode.
func Decode(r *bio.Reader, rev *Revision) (*Bytecode, error) {
	header, err := r.ReadBytes(24)
	if err != nil {
		return nil, gdreerr.Wrap(gdreerr.Io, "reading GDSC header", err)
	}
	if string(header[0:4]) != Magic {
		return nil, gdreerr.New(gdreerr.BadMagic, "no GDSC magic at bytecode stream start")
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	identifierCount := binary.LittleEndian.Uint32(header[8:12])
	constantCount := binary.LittleEndian.Uint32(header[12:16])
	lineCount := binary.LittleEndian.Uint32(header[16:20])
	tokenCount := binary.LittleEndian.Uint32(header[20:24])

	if rev != nil && version > rev.MaxVersion {
		return nil, gdreerr.New(gdreerr.UnknownRevision, "bytecode version newer than the selected revision supports")
	}

	b := &Bytecode{Version: version, Lines: map[uint32]uint32{}}

	b.Identifiers = make([]string, identifierCount)
	for i := uint32(0); i < identifierCount; i++ {
		lenBytes, err := r.ReadBytes(4)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.Io, "reading identifier length", err)
		}
		n := binary.LittleEndian.Uint32(lenBytes)
		raw, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.Io, "reading identifier bytes", err)
		}
		for j := range raw {
			raw[j] ^= identifierXorMask
		}
		if len(raw) > 0 {
			raw[len(raw)-1] = 0
		}
		if nul := bytes.IndexByte(raw, 0); nul >= 0 {
			raw = raw[:nul]
		}
		b.Identifiers[i] = string(raw)
	}

	gen := variant.V4
	if rev != nil {
		gen = rev.VariantGeneration
	}
	codec := variant.NewCodec(gen, nil, 64)
	b.Constants = make([]variant.Variant, constantCount)
	for i := uint32(0); i < constantCount; i++ {
		v, err := codec.Decode(r)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "decoding bytecode constant", err)
		}
		b.Constants[i] = v
	}

	for i := uint32(0); i < lineCount; i++ {
		pair, err := r.ReadBytes(8)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.Io, "reading line map entry", err)
		}
		tokenIdx := binary.LittleEndian.Uint32(pair[0:4])
		line := binary.LittleEndian.Uint32(pair[4:8])
		b.Lines[tokenIdx] = line
	}

	b.Tokens = make([]Token, tokenCount)
	for i := uint32(0); i < tokenCount; i++ {
		first, err := r.ReadBytes(1)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.Io, "reading token", err)
		}
		if first[0]&tokenByteMask == 0 {
			b.Tokens[i] = Token{Tag: uint32(first[0]) & tokenMask}
			continue
		}
		rest, err := r.ReadBytes(3)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.Io, "reading wide token", err)
		}
		word := binary.LittleEndian.Uint32([]byte{first[0], rest[0], rest[1], rest[2]})
		word &^= tokenByteMask
		b.Tokens[i] = Token{Tag: word & tokenMask, Payload: word >> tokenBits}
	}

	return b, nil
}
