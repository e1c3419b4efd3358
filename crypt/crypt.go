// Package crypt implements the encryption transport shared by encrypted PCK
// directories/entries and encrypted GDScript bytecode (§4.7): a 16-byte MAC,
// a 16-byte IV, then an AES-256-CFB payload. There is no third-party AES
// implementation among the example repos better suited than the standard
// library's constant-time crypto/aes + crypto/cipher, so this package is one
// of the few in the module built directly on stdlib crypto (see DESIGN.md).
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"io"
	"sync"

	"github.com/godot-re/gdre/gdreerr"
)

// KeySize is the length in bytes of the transport key.
const KeySize = 32

// macSize and ivSize are the two fixed-length header fields preceding the
// AES-CFB payload.
const (
	macSize = 16
	ivSize  = 16
)

var (
	keyMu      sync.Mutex
	currentKey []byte
)

// InstallKey installs key as the process-wide decryption key and returns a
// restore function that puts the previous key back. Callers should defer
// the restore immediately, matching the scoped-installation contract in §5:
// "if a caller installs a key, that installation is a scoped operation — on
// scope exit the previous key is restored."
func InstallKey(key []byte) (restore func(), err error) {
	if len(key) != KeySize {
		return nil, gdreerr.New(gdreerr.BadKey, "encryption key must be 32 bytes")
	}
	keyMu.Lock()
	prev := currentKey
	currentKey = append([]byte(nil), key...)
	keyMu.Unlock()
	return func() {
		keyMu.Lock()
		currentKey = prev
		keyMu.Unlock()
	}, nil
}

// CurrentKey returns the currently installed key, or nil if none is set.
func CurrentKey() []byte {
	keyMu.Lock()
	defer keyMu.Unlock()
	if currentKey == nil {
		return nil
	}
	return append([]byte(nil), currentKey...)
}

// WithKey installs key for the duration of fn, then restores the previous
// key regardless of fn's outcome.
func WithKey(key []byte, fn func() error) error {
	restore, err := InstallKey(key)
	if err != nil {
		return err
	}
	defer restore()
	return fn()
}

// Reader decrypts an AES-256-CFB stream on demand: it consumes the MAC+IV
// header on construction, then decrypts exactly as many bytes as the caller
// reads. This lazy shape is what lets a single encrypted blob back both a
// bounded entry (a known plaintext size) and an open-ended directory section
// (consumed until the format's own structure says to stop) without the
// transport needing to know the plaintext length up front.
type Reader struct {
	src    io.Reader
	stream cipher.Stream
	mac    []byte
	acc    hash.Hash
	off    int64
}

// NewReader reads the MAC+IV header from src and returns a Reader that
// decrypts the remainder of src using key.
func NewReader(src io.Reader, key []byte) (*Reader, error) {
	if key == nil {
		return nil, gdreerr.New(gdreerr.MissingKey, "no decryption key installed")
	}
	if len(key) != KeySize {
		return nil, gdreerr.New(gdreerr.BadKey, "encryption key must be 32 bytes")
	}
	header := make([]byte, macSize+ivSize)
	if _, err := io.ReadFull(src, header); err != nil {
		return nil, gdreerr.Wrap(gdreerr.CorruptData, "reading MAC+IV header", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, gdreerr.Wrap(gdreerr.BadKey, "invalid AES-256 key", err)
	}
	return &Reader{
		src:    src,
		stream: cipher.NewCFBDecrypter(block, header[macSize:]),
		mac:    header[:macSize],
		acc:    hmac.New(sha256.New, key),
	}, nil
}

// Read implements io.Reader, decrypting in place.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.stream.XORKeyStream(p[:n], p[:n])
		r.acc.Write(p[:n])
		r.off += int64(n)
	}
	return n, err
}

// Seek implements the subset of io.Seeker that bio.Reader relies on for
// offset bookkeeping: SeekCurrent with a zero offset (bio.Reader.Tell).
// Any other call is a logic error — encrypted streams are consumed strictly
// sequentially (§5), never re-read.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		return r.off, nil
	}
	return 0, gdreerr.New(gdreerr.Io, "encrypted stream only supports sequential reads")
}

// Finalize verifies the accumulated plaintext against the header MAC. Call
// it only once the caller has consumed exactly the plaintext the MAC was
// computed over (a bounded entry read to EOF); a directory read that stops
// partway through an open-ended stream has nothing meaningful to verify and
// should skip the call.
func (r *Reader) Finalize() error {
	if !hmac.Equal(r.acc.Sum(nil)[:macSize], r.mac) {
		return gdreerr.New(gdreerr.BadMac, "MAC verification failed, wrong key or corrupt stream")
	}
	return nil
}

// Encrypt produces a MAC+IV+ciphertext stream readable by NewReader, using
// iv as the initialization vector. This module's read paths never call
// Encrypt except from tests, which supply a deterministic iv; a real
// exporter would draw it from crypto/rand.
func Encrypt(plain []byte, key, iv []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, gdreerr.New(gdreerr.BadKey, "encryption key must be 32 bytes")
	}
	if len(iv) != ivSize {
		return nil, gdreerr.New(gdreerr.CorruptData, "IV must be 16 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, gdreerr.Wrap(gdreerr.BadKey, "invalid AES-256 key", err)
	}
	cipherText := make([]byte, len(plain))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(cipherText, plain)

	h := hmac.New(sha256.New, key)
	h.Write(plain)
	mac := h.Sum(nil)[:macSize]

	out := make([]byte, 0, macSize+ivSize+len(cipherText))
	out = append(out, mac...)
	out = append(out, iv...)
	out = append(out, cipherText...)
	return out, nil
}

// Decrypt is the whole-buffer convenience form of Reader, for callers that
// already hold the complete encrypted blob (a bounded PCK entry) and want
// the MAC checked unconditionally rather than via an explicit Finalize call.
func Decrypt(src []byte, key []byte) ([]byte, error) {
	if len(src) < macSize+ivSize {
		return nil, gdreerr.New(gdreerr.CorruptData, "encrypted stream shorter than MAC+IV header")
	}
	r, err := NewReader(bytesReader(src), key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(src)-macSize-ivSize)
	if _, err := io.ReadFull(r, plain); err != nil {
		return nil, gdreerr.Wrap(gdreerr.Io, "reading encrypted payload", err)
	}
	if err := r.Finalize(); err != nil {
		return nil, err
	}
	return plain, nil
}

func bytesReader(b []byte) io.Reader { return &sliceReader{data: b} }

type sliceReader struct {
	data []byte
	off  int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.off:])
	s.off += n
	return n, nil
}
