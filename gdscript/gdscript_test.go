package gdscript

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/variant"
)

// buildGDSC assembles a minimal GDSC stream for: "foo = 5\n" then EOF,
// using only single-byte tokens (every payload below is index 0, which
// always round-trips through the 1-byte token form).
func buildGDSC(t *testing.T) []byte {
	t.Helper()
	var body bytes.Buffer

	// one identifier: "foo" -> stored length must include the implicit
	// NUL terminator and be padded to a multiple of 4, per
	// GDScriptTokenizerBuffer::parse_code_string.
	ident := []byte("foo\x00")
	extra := (4 - len(ident)%4) % 4
	for i := 0; i < extra; i++ {
		ident = append(ident, 0)
	}
	for i := range ident {
		ident[i] ^= identifierXorMask
	}
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(ident)))
	body.Write(lenBuf)
	body.Write(ident)

	// one constant: Int32(5), encoded via the real V3 variant codec.
	codec := variant.NewCodec(variant.V3, nil, 16)
	w := bio.NewWriter(&body)
	if err := codec.Encode(w, variant.Int32(5)); err != nil {
		t.Fatalf("encoding constant: %v", err)
	}

	// line map: one entry, token index 0 starts at source line 1.
	lineBuf := make([]byte, 8)
	binary.LittleEndian.PutUint32(lineBuf[0:4], 0)
	binary.LittleEndian.PutUint32(lineBuf[4:8], 1)
	body.Write(lineBuf)

	// tokens: identifier(0), '=' , constant(0), newline(indent 0), eof.
	body.WriteByte(1)  // KindIdentifier tag
	body.WriteByte(23) // '='
	body.WriteByte(2)  // KindConstant tag
	body.WriteByte(89) // newline
	body.WriteByte(96) // eof

	var out bytes.Buffer
	out.WriteString(Magic)
	header := make([]byte, 20)
	binary.LittleEndian.PutUint32(header[0:4], Modern.MaxVersion) // bytecode_version
	binary.LittleEndian.PutUint32(header[4:8], 1)  // identifier_count
	binary.LittleEndian.PutUint32(header[8:12], 1) // constant_count
	binary.LittleEndian.PutUint32(header[12:16], 1) // line_count
	binary.LittleEndian.PutUint32(header[16:20], 5) // token_count
	out.Write(header)
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	data := buildGDSC(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	bc, err := Decode(r, Modern)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(bc.Identifiers) != 1 || bc.Identifiers[0] != "foo" {
		t.Fatalf("Identifiers = %v, want [foo]", bc.Identifiers)
	}
	if len(bc.Constants) != 1 || bc.Constants[0].Value.(int32) != 5 {
		t.Fatalf("Constants = %v, want [5]", bc.Constants)
	}
	if len(bc.Tokens) != 5 {
		t.Fatalf("Tokens count = %d, want 5", len(bc.Tokens))
	}
	if bc.Lines[0] != 1 {
		t.Fatalf("Lines[0] = %d, want 1", bc.Lines[0])
	}
}

func TestDisassembleProducesSourceText(t *testing.T) {
	data := buildGDSC(t)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	bc, err := Decode(r, Modern)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	out, err := Disassemble(bc, Modern)
	if err != nil {
		t.Fatalf("Disassemble() failed: %v", err)
	}
	if !strings.Contains(out, "foo = 5") {
		t.Fatalf("Disassemble() = %q, want it to contain \"foo = 5\"", out)
	}
}

func TestDecodeBadMagicFails(t *testing.T) {
	data := append([]byte("XXXX"), make([]byte, 20)...)
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	if _, err := Decode(r, Modern); err == nil {
		t.Fatal("Decode() should fail on a non-GDSC stream")
	}
}

func TestLookupRevisionUnknownFails(t *testing.T) {
	if _, err := LookupRevision(0xdeadbeef); err == nil {
		t.Fatal("LookupRevision() should fail for an unregistered id")
	}
}

func TestBuiltinFuncTableLookup(t *testing.T) {
	fn, ok := Modern.BuiltinFunc(0)
	if !ok || fn.Name != "sin" {
		t.Fatalf("BuiltinFunc(0) = %+v, ok=%v, want sin", fn, ok)
	}
}
