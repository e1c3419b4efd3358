package bio

import (
	"bytes"
	"testing"
)

func TestReadScalars(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		big  bool
		want uint32
	}{
		{"little endian", []byte{0x01, 0x00, 0x00, 0x00}, false, 1},
		{"big endian", []byte{0x00, 0x00, 0x00, 0x01}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.buf), int64(len(tt.buf)))
			r.SetBigEndian(tt.big)
			got, err := r.ReadU32()
			if err != nil {
				t.Fatalf("ReadU32() failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ReadU32() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadBytesOutOfBounds(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02}), 2)
	if _, err := r.ReadBytes(10); err == nil {
		t.Fatal("ReadBytes(10) on a 2-byte stream should fail")
	}
}

func TestReadPaddedStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WritePaddedString("res://a.txt"); err != nil {
		t.Fatalf("WritePaddedString() failed: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	got, err := r.ReadPaddedString()
	if err != nil {
		t.Fatalf("ReadPaddedString() failed: %v", err)
	}
	if got != "res://a.txt" {
		t.Fatalf("ReadPaddedString() = %q, want %q", got, "res://a.txt")
	}
	if buf.Len()%4 != 0 {
		t.Fatalf("encoded string length %d not 4-byte aligned", buf.Len())
	}
}

func TestAlignPad(t *testing.T) {
	tests := []struct {
		n    uint32
		want uint32
	}{
		{0, 0}, {1, 3}, {2, 2}, {3, 1}, {4, 0}, {5, 3},
	}
	for _, tt := range tests {
		if got := AlignPad(tt.n); got != tt.want {
			t.Fatalf("AlignPad(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestDepthGuard(t *testing.T) {
	g := NewDepthGuard(2)
	if err := g.Enter(); err != nil {
		t.Fatalf("Enter() #1 failed: %v", err)
	}
	if err := g.Enter(); err != nil {
		t.Fatalf("Enter() #2 failed: %v", err)
	}
	if err := g.Enter(); err == nil {
		t.Fatal("Enter() #3 should exceed depth cap")
	}
	g.Exit()
	g.Exit()
}
