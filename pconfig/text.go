package pconfig

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/variant"
)

// ParseText parses the INI-like project.godot text form. Keys are
// reassembled from "[section]" headers plus bare "name=value" lines:
// a key under a named section becomes "section/name"; a key with no
// active section is stored bare, matching the binary form's flat
// dotted-path keys (§4.5). config_version, if present, is dropped from
// Entries and returned separately since it isn't a real project setting.
func ParseText(r io.Reader) (cfg *Config, configVersion int, err error) {
	cfg = &Config{}
	section := ""
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, 0, gdreerr.New(gdreerr.CorruptData, fmt.Sprintf("line %d: expected key=value", lineNo))
		}
		name := unquoteKeyName(strings.TrimSpace(line[:eq]))
		valText := strings.TrimSpace(line[eq+1:])
		val, err := parseTextValue(valText)
		if err != nil {
			return nil, 0, gdreerr.Wrap(gdreerr.CorruptData, fmt.Sprintf("line %d: parsing value", lineNo), err)
		}

		if name == "config_version" && section == "" {
			if n, ok := val.Value.(int32); ok {
				configVersion = int(n)
			}
			continue
		}

		key := name
		if section != "" {
			key = section + "/" + name
		}
		cfg.Set(key, val)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, gdreerr.Wrap(gdreerr.Io, "reading project-config text", err)
	}
	return cfg, configVersion, nil
}

func unquoteKeyName(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// WriteText renders cfg as project.godot text: the fixed HeaderComment,
// a config_version scalar, then one "[section]" block per distinct
// section (keys with no "/" land in the leading unnamed section), each
// listing its entries sorted by name.
func WriteText(w io.Writer, cfg *Config, configVersion int) error {
	for _, line := range HeaderComment {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "config_version=%d\n\n", configVersion); err != nil {
		return err
	}

	sections := map[string][]Entry{}
	var order []string
	for _, e := range cfg.Entries {
		section, name := splitKey(e.Key)
		if _, ok := sections[section]; !ok {
			order = append(order, section)
		}
		sections[section] = append(sections[section], Entry{Key: name, Value: e.Value})
	}
	sort.Strings(order)
	// The leading unnamed section, if present, always comes first.
	orderedSections := make([]string, 0, len(order))
	hasUnnamed := false
	for _, s := range order {
		if s == "" {
			hasUnnamed = true
			continue
		}
		orderedSections = append(orderedSections, s)
	}
	if hasUnnamed {
		orderedSections = append([]string{""}, orderedSections...)
	}

	for i, section := range orderedSections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		entries := sections[section]
		sort.Slice(entries, func(a, b int) bool { return entries[a].Key < entries[b].Key })
		if section != "" {
			if _, err := fmt.Fprintf(w, "[%s]\n\n", section); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s=%s\n", quoteKeyName(e.Key), formatTextValue(e.Value)); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitKey(key string) (section, name string) {
	if i := strings.Index(key, "/"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

func quoteKeyName(name string) string {
	for _, r := range name {
		if !(r == '_' || r == '/' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return strconv.Quote(name)
		}
	}
	return name
}

// parseTextValue accepts the small subset of Variant literal forms a
// project.godot file actually uses for top-level settings: bools,
// integers, floats, and double-quoted strings. Compound Variant literals
// (Vector2(...), PackedStringArray(...), …) reuse the same grammar the
// resource text writer emits; this codec stores them as opaque strings
// when they don't match one of the scalar forms, so an unrecognized
// literal still round-trips byte-for-byte instead of being dropped.
func parseTextValue(s string) (variant.Variant, error) {
	switch s {
	case "true":
		return variant.Bool(true), nil
	case "false":
		return variant.Bool(false), nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return variant.Nil, err
		}
		return variant.String(unq), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return variant.Int32(int32(n)), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return variant.Float64(f), nil
	}
	// Opaque literal form (compound Variant constructors, arrays, etc.):
	// preserved verbatim as a string so WriteText can emit it unchanged.
	return variant.Variant{Kind: KindRawLiteral, Value: s}, nil
}

// KindRawLiteral tags a Variant this package could not parse into one of
// its own scalar kinds, carrying the original literal text verbatim.
const KindRawLiteral variant.Kind = 255

func formatTextValue(v variant.Variant) string {
	switch v.Kind {
	case variant.KindBool:
		return strconv.FormatBool(v.Value.(bool))
	case variant.KindInt32:
		return strconv.FormatInt(int64(v.Value.(int32)), 10)
	case variant.KindInt64:
		return strconv.FormatInt(v.Value.(int64), 10)
	case variant.KindFloat32:
		return strconv.FormatFloat(float64(v.Value.(float32)), 'g', -1, 32)
	case variant.KindFloat64:
		return strconv.FormatFloat(v.Value.(float64), 'g', -1, 64)
	case variant.KindString, variant.KindStringName:
		return strconv.Quote(v.Value.(string))
	case KindRawLiteral:
		return v.Value.(string)
	default:
		return fmt.Sprintf("%v", v.Value)
	}
}
