package gdscript

import (
	"bytes"
	"io"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/crypt"
)

// Options selects the revision a Decompile call targets. A nil Options (or
// a nil Revision) lets Decode run without a version ceiling, but Disassemble
// then fails with UnknownRevision on any built-in type or function token,
// since naming those needs a revision's tables.
type Options struct {
	Revision *Revision
}

// Decompile decodes a plain (unencrypted) GDSC stream and renders it as
// best-effort source text in one step.
func Decompile(r *bio.Reader, opts *Options) (string, error) {
	var rev *Revision
	if opts != nil {
		rev = opts.Revision
	}
	bc, err := Decode(r, rev)
	if err != nil {
		return "", err
	}
	return Disassemble(bc, rev)
}

// DecompileEncrypted is the .gde entry point: a thin wrapper over §4.7's
// encryption transport, decrypting src with key before handing the
// plaintext to Decompile. The whole plaintext is read and its MAC checked
// with Finalize before decoding starts, so the bio.Reader over it is given
// the plaintext's real length.
func DecompileEncrypted(src io.Reader, key []byte, opts *Options) (string, error) {
	cr, err := crypt.NewReader(src, key)
	if err != nil {
		return "", err
	}
	plain, err := io.ReadAll(cr)
	if err != nil {
		return "", err
	}
	if err := cr.Finalize(); err != nil {
		return "", err
	}
	r := bio.NewReader(bytes.NewReader(plain), int64(len(plain)))
	return Decompile(r, opts)
}
