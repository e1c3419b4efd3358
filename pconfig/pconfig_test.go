package pconfig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/variant"
)

func TestBinaryRoundTrip(t *testing.T) {
	codec := variant.NewCodec(variant.V4, nil, 0)
	cfg := &Config{}
	cfg.Set("application/config/name", variant.String("MyGame"))
	cfg.Set("rendering/environment/defaults/default_clear_color", variant.Int32(0))
	cfg.Set("debug/gdscript/warnings/enable", variant.Bool(true))

	var buf bytes.Buffer
	w := bio.NewWriter(&buf)
	if err := EncodeBinary(w, codec, cfg); err != nil {
		t.Fatalf("EncodeBinary() failed: %v", err)
	}

	r := bio.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	got, err := DecodeBinary(r, codec)
	if err != nil {
		t.Fatalf("DecodeBinary() failed: %v", err)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("Entries count = %d, want 3", len(got.Entries))
	}
	v, ok := got.Get("application/config/name")
	if !ok || v.Value.(string) != "MyGame" {
		t.Fatalf("application/config/name = %+v", v)
	}
}

func TestDecodeBinaryBadMagic(t *testing.T) {
	data := []byte("XXXX")
	r := bio.NewReader(bytes.NewReader(data), int64(len(data)))
	if _, err := DecodeBinary(r, variant.NewCodec(variant.V4, nil, 0)); err == nil {
		t.Fatal("DecodeBinary() should fail on a non-ECFG stream")
	}
}

func TestWriteTextAndParseTextRoundTrip(t *testing.T) {
	cfg := &Config{}
	cfg.Set("application/config/name", variant.String("MyGame"))
	cfg.Set("application/config/version", variant.Int32(3))
	cfg.Set("rendering/quality/msaa", variant.Bool(true))
	cfg.Set("loose_setting", variant.Int32(42))

	var buf bytes.Buffer
	if err := WriteText(&buf, cfg, 5); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "config_version=5") {
		t.Fatalf("missing config_version, got:\n%s", text)
	}
	if !strings.Contains(text, "[application]") {
		t.Fatalf("missing [application] section, got:\n%s", text)
	}
	if !strings.Contains(text, `config/name="MyGame"`) {
		t.Fatalf("missing config/name entry, got:\n%s", text)
	}

	parsed, version, err := ParseText(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	if version != 5 {
		t.Fatalf("version = %d, want 5", version)
	}
	v, ok := parsed.Get("application/config/name")
	if !ok || v.Value.(string) != "MyGame" {
		t.Fatalf("application/config/name = %+v, ok=%v", v, ok)
	}
	v, ok = parsed.Get("loose_setting")
	if !ok || v.Value.(int32) != 42 {
		t.Fatalf("loose_setting = %+v, ok=%v", v, ok)
	}
}

func TestConfigVersionMapping(t *testing.T) {
	cases := []struct {
		major, minor uint32
		want         int
	}{
		{2, 0, 2},
		{3, 0, 3},
		{3, 5, 4},
		{4, 0, 5},
	}
	for _, c := range cases {
		if got := ConfigVersion(c.major, c.minor); got != c.want {
			t.Errorf("ConfigVersion(%d, %d) = %d, want %d", c.major, c.minor, got, c.want)
		}
	}
}
