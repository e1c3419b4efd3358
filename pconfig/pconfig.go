// Package pconfig implements the project-config codec (§4.5): the binary
// "ECFG" layout used by exported `project.binary`/`engine.cfb` files, and
// the INI-like `project.godot` text form the editor actually reads. The
// binary side is grounded on bruvzg/gdsdecomp's
// ProjectConfigLoader::_load_settings_binary (original_source/editor/
// pcfg_loader.cpp): a flat (key, Variant) list with no section structure
// of its own — sections only exist in the text form, carved out of each
// key's "section/name" split on the first slash. The header comment text
// in HeaderComment is copied verbatim from that file's
// _save_settings_text, since a toolkit that emits a *believable*
// project.godot should emit the same boilerplate the engine does.
package pconfig

import (
	"bytes"

	"github.com/godot-re/gdre/bio"
	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// Magic is the "ECFG" binary header magic.
const Magic = "ECFG"

// HeaderComment is the fixed comment block Godot writes at the top of
// every project.godot it saves, reproduced verbatim so round-tripped
// files are indistinguishable from an editor-saved one.
var HeaderComment = []string{
	"; Engine configuration file.",
	"; It's best edited using the editor UI and not directly,",
	"; since the parameters that go here are not all obvious.",
	";",
	"; Format:",
	";   [section] ; section goes between []",
	";   param=value ; assign values to parameters",
}

// ConfigVersion maps an engine generation/minor pair to the config_version
// scalar emitted at the top of the text form, per §4.5: V2->2, V3.0->3,
// V3.x->4, V4->5.
func ConfigVersion(engineMajor, engineMinor uint32) int {
	switch engineMajor {
	case 2:
		return 2
	case 3:
		if engineMinor == 0 {
			return 3
		}
		return 4
	default:
		return 5
	}
}

// Entry is one decoded (key, value) pair of a binary config file. Key is
// the flat dotted-path form ("section/name", or a bare name with no
// section); Value is a decoded Variant in the generation the codec was
// constructed with.
type Entry struct {
	Key   string
	Value variant.Variant
}

// Config is the decoded form of one project-config file, independent of
// whether it was read from the binary or text representation.
type Config struct {
	Entries []Entry
}

// Get returns the value for key and whether it is present.
func (c *Config) Get(key string) (variant.Variant, bool) {
	for _, e := range c.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return variant.Nil, false
}

// Set appends or overwrites the entry for key, preserving first-seen order.
func (c *Config) Set(key string, v variant.Variant) {
	for i, e := range c.Entries {
		if e.Key == key {
			c.Entries[i].Value = v
			return
		}
	}
	c.Entries = append(c.Entries, Entry{Key: key, Value: v})
}

// DecodeBinary reads an "ECFG"-magic binary config stream.
func DecodeBinary(r *bio.Reader, codec *variant.Codec) (*Config, error) {
	magic, err := r.ReadRawString(4)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, gdreerr.New(gdreerr.BadMagic, "no ECFG magic at project-config stream start")
	}

	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	for i := uint32(0); i < count; i++ {
		keyLen, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadRawString(int(keyLen))
		if err != nil {
			return nil, err
		}
		valLen, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		raw, err := r.ReadBytes(int(valLen))
		if err != nil {
			return nil, err
		}
		sub := bio.NewReader(bytes.NewReader(raw), int64(len(raw)))
		val, err := codec.Decode(sub)
		if err != nil {
			return nil, gdreerr.Wrap(gdreerr.CorruptData, "decoding project-config value", err).In(key)
		}
		cfg.Entries = append(cfg.Entries, Entry{Key: key, Value: val})
	}
	return cfg, nil
}

// EncodeBinary writes cfg back out in the "ECFG" binary layout.
func EncodeBinary(w *bio.Writer, codec *variant.Codec, cfg *Config) error {
	if err := w.WriteRawString(Magic); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(cfg.Entries))); err != nil {
		return err
	}
	for _, e := range cfg.Entries {
		if err := w.WriteU32(uint32(len(e.Key))); err != nil {
			return err
		}
		if err := w.WriteRawString(e.Key); err != nil {
			return err
		}
		body, err := encodeVariantBytes(codec, e.Value)
		if err != nil {
			return err
		}
		if err := w.WriteU32(uint32(len(body))); err != nil {
			return err
		}
		if err := w.WriteBytes(body); err != nil {
			return err
		}
	}
	return nil
}

func encodeVariantBytes(codec *variant.Codec, v variant.Variant) ([]byte, error) {
	var buf bytes.Buffer
	bw := bio.NewWriter(&buf)
	if err := codec.Encode(bw, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
