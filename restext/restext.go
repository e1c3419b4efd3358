// Package restext implements the "[gd_scene]"/"[gd_resource]" text format
// (§4.4): a header tag, one [ext_resource] per external, a [sub_resource]
// or [resource] per internal, and a scene's [node]/[connection]/[editable]
// sections rendered from the main resource's PackedScene state. Grounded
// on bruvzg/gdsdecomp's ResourceLoaderCompatText::save and
// VariantWriterCompat::write_compat (compat/resource_compat_text.cpp,
// compat/variant_writer_compat.cpp in the retrieved original source) in
// the teacher's io.Writer-driven writer idiom (pck and resource both
// build up an in-memory representation and stream it out field by field).
package restext

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/godot-re/gdre/gdreerr"
	"github.com/godot-re/gdre/resource"
	"github.com/godot-re/gdre/variant"
)

// FormatVersion maps an engine generation/minor pair to the text format's
// own version number, per §4.4: V2->1, V3.0->2, V3.x->3, V4.0-4.2->3, V4.3+->4.
func FormatVersion(hdr resource.Header) int {
	switch hdr.EngineMajor {
	case 2:
		return 1
	case 3:
		if hdr.EngineMinor == 0 {
			return 2
		}
		return 3
	default: // 4 and newer
		if hdr.EngineMinor >= 3 {
			return 4
		}
		return 3
	}
}

// extID renders an [ext_resource] identifier: a bare integer for format<=2,
// a quoted string for format>=3 (Godot mints "<index>_<random>" strings;
// this writer uses the 1-based index alone, which round-trips identically since
// nothing downstream depends on the random suffix).
func extID(format, index int) string {
	if format >= 3 {
		return fmt.Sprintf("%q", strconv.Itoa(index+1))
	}
	return strconv.Itoa(index + 1)
}

// subID renders a [sub_resource] identifier the same way extID does,
// keyed by the internal resource's position among the non-main internals.
func subID(format, index int, typeName string) string {
	name := fmt.Sprintf("%s_%d", typeName, index+1)
	if format >= 3 {
		return fmt.Sprintf("%q", name)
	}
	return name
}

// Write renders g as a complete .tres/.tscn/.escn document to w.
func Write(w io.Writer, g *resource.ResourceGraph) error {
	format := FormatVersion(g.Header)
	main := g.Main()
	if main == nil {
		return gdreerr.New(gdreerr.CorruptData, "resource graph has no main resource to write")
	}
	loadSteps := len(g.Externals) + len(g.Internals)

	isScene := main.Type == "PackedScene"
	if isScene {
		if _, err := fmt.Fprintf(w, "[gd_scene load_steps=%d format=%d]\n\n", loadSteps, format); err != nil {
			return err
		}
	} else {
		scriptClass := ""
		if g.Header.HasScriptClass() {
			scriptClass = fmt.Sprintf("script_class=%q ", g.Header.ScriptClass)
		}
		if _, err := fmt.Fprintf(w, "[gd_resource type=%q %sload_steps=%d format=%d]\n\n",
			main.Type, scriptClass, loadSteps, format); err != nil {
			return err
		}
	}

	p := &printer{format: format}

	for i, ext := range g.Externals {
		id := extID(format, i)
		p.extIDs = append(p.extIDs, id)
		if format >= 3 {
			if _, err := fmt.Fprintf(w, "[ext_resource type=%q path=%q id=%s]\n", ext.Type, ext.Path, id); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "[ext_resource path=%q type=%q id=%s]\n", ext.Path, ext.Type, id); err != nil {
				return err
			}
		}
	}
	if len(g.Externals) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	for i, in := range g.Internals {
		isMain := i == len(g.Internals)-1
		if isMain {
			p.subIDs = append(p.subIDs, "")
			continue
		}
		id := subID(format, i, in.Type)
		p.subIDs = append(p.subIDs, id)
		if _, err := fmt.Fprintf(w, "[sub_resource type=%q id=%s]\n", in.Type, id); err != nil {
			return err
		}
		if err := writeProperties(w, p, in.Properties); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	if isScene {
		if err := writeSceneSections(w, p, main); err != nil {
			return err
		}
		return nil
	}

	if _, err := io.WriteString(w, "[resource]\n"); err != nil {
		return err
	}
	return writeProperties(w, p, main.Properties)
}

// printer carries the cross-reference tables a Variant needs to render
// Object values back as ExtResource("id")/SubResource("id") literals.
type printer struct {
	format int
	extIDs []string
	subIDs []string
}

func writeProperties(w io.Writer, p *printer, props *variant.Dictionary) error {
	if props == nil {
		return nil
	}
	for _, e := range props.Entries {
		name, ok := e.Key.Value.(string)
		if !ok {
			name = fmt.Sprintf("%v", e.Key.Value)
		}
		if _, err := fmt.Fprintf(w, "%s = ", propertyName(name)); err != nil {
			return err
		}
		if err := writeVariant(w, p, e.Value); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// propertyName quotes a property name unless it is a plain identifier
// (letters, digits, underscore, not starting with a digit), the same
// condition the original writer applies before calling store_string.
func propertyName(name string) string {
	if name == "" {
		return `""`
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Sprintf("%q", name)
	}
	return name
}

// writeVariant is the language-neutral Variant printer: literal forms for
// scalars, call-like forms ("Vector2( x, y )") for compound geometry, and
// callbacks into the writer's ext/sub-resource tables for Object values.
func writeVariant(w io.Writer, p *printer, v variant.Variant) error {
	switch v.Kind {
	case variant.KindNil:
		_, err := io.WriteString(w, "null")
		return err
	case variant.KindBool:
		_, err := io.WriteString(w, strconv.FormatBool(v.Value.(bool)))
		return err
	case variant.KindInt32:
		_, err := io.WriteString(w, strconv.FormatInt(int64(v.Value.(int32)), 10))
		return err
	case variant.KindInt64:
		_, err := io.WriteString(w, strconv.FormatInt(v.Value.(int64), 10))
		return err
	case variant.KindFloat32:
		_, err := io.WriteString(w, formatFloat(float64(v.Value.(float32))))
		return err
	case variant.KindFloat64:
		_, err := io.WriteString(w, formatFloat(v.Value.(float64)))
		return err
	case variant.KindString, variant.KindStringName:
		_, err := fmt.Fprintf(w, "%s", quoteGDString(v.Value.(string)))
		return err
	case variant.KindVector2:
		vv := v.Value.(variant.Vector2)
		_, err := fmt.Fprintf(w, "Vector2( %s, %s )", formatFloat(float64(vv.X)), formatFloat(float64(vv.Y)))
		return err
	case variant.KindVector2i:
		vv := v.Value.(variant.Vector2i)
		_, err := fmt.Fprintf(w, "Vector2i( %d, %d )", vv.X, vv.Y)
		return err
	case variant.KindVector3:
		vv := v.Value.(variant.Vector3)
		_, err := fmt.Fprintf(w, "Vector3( %s, %s, %s )", formatFloat(float64(vv.X)), formatFloat(float64(vv.Y)), formatFloat(float64(vv.Z)))
		return err
	case variant.KindVector3i:
		vv := v.Value.(variant.Vector3i)
		_, err := fmt.Fprintf(w, "Vector3i( %d, %d, %d )", vv.X, vv.Y, vv.Z)
		return err
	case variant.KindRect2:
		r := v.Value.(variant.Rect2)
		_, err := fmt.Fprintf(w, "Rect2( %s, %s, %s, %s )",
			formatFloat(float64(r.Position.X)), formatFloat(float64(r.Position.Y)),
			formatFloat(float64(r.Size.X)), formatFloat(float64(r.Size.Y)))
		return err
	case variant.KindColor:
		c := v.Value.(variant.Color)
		_, err := fmt.Fprintf(w, "Color( %s, %s, %s, %s )",
			formatFloat(float64(c.R)), formatFloat(float64(c.G)), formatFloat(float64(c.B)), formatFloat(float64(c.A)))
		return err
	case variant.KindNodePath:
		np := v.Value.(variant.NodePath)
		_, err := fmt.Fprintf(w, "NodePath(%s)", quoteGDString(nodePathString(np)))
		return err
	case variant.KindObject:
		return writeObjectRef(w, p, v.Value.(variant.ObjectRef))
	case variant.KindDictionary:
		return writeDictionary(w, p, v.Value.(*variant.Dictionary))
	case variant.KindArray:
		return writeArray(w, p, v.Value.(*variant.Array))
	case variant.KindPackedStringArray:
		items := v.Value.([]string)
		parts := make([]string, len(items))
		for i, s := range items {
			parts[i] = quoteGDString(s)
		}
		_, err := fmt.Fprintf(w, "PackedStringArray(%s)", strings.Join(parts, ", "))
		return err
	case variant.KindPackedInt32Array:
		items := v.Value.([]int32)
		parts := make([]string, len(items))
		for i, n := range items {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		_, err := fmt.Fprintf(w, "PackedInt32Array(%s)", strings.Join(parts, ", "))
		return err
	case variant.KindPackedFloat32Array:
		items := v.Value.([]float32)
		parts := make([]string, len(items))
		for i, f := range items {
			parts[i] = formatFloat(float64(f))
		}
		_, err := fmt.Fprintf(w, "PackedFloat32Array(%s)", strings.Join(parts, ", "))
		return err
	default:
		_, err := fmt.Fprintf(w, "%v", v.Value)
		return err
	}
}

func nodePathString(np variant.NodePath) string {
	var b strings.Builder
	if np.Absolute {
		b.WriteString("/")
	}
	b.WriteString(strings.Join(np.Names, "/"))
	for _, s := range np.Subnames {
		b.WriteString(":")
		b.WriteString(s)
	}
	if np.Property != "" {
		b.WriteString(":")
		b.WriteString(np.Property)
	}
	return b.String()
}

func writeObjectRef(w io.Writer, p *printer, obj variant.ObjectRef) error {
	switch obj.Kind {
	case variant.ObjectEmpty:
		_, err := io.WriteString(w, "null")
		return err
	case variant.ObjectExternalByIndex:
		if int(obj.ExternalIdx) >= len(p.extIDs) {
			return gdreerr.New(gdreerr.CorruptData, "ExtResource index out of range")
		}
		_, err := fmt.Fprintf(w, "ExtResource(%s)", p.extIDs[obj.ExternalIdx])
		return err
	case variant.ObjectInternalByIndex:
		if int(obj.Subindex) >= len(p.subIDs) {
			return gdreerr.New(gdreerr.CorruptData, "SubResource index out of range")
		}
		id := p.subIDs[obj.Subindex]
		if id == "" {
			// References the main resource itself; Godot writes this as a
			// self-reference path, which only the last internal can be.
			_, err := io.WriteString(w, "SubResource(0)")
			return err
		}
		_, err := fmt.Fprintf(w, "SubResource(%s)", id)
		return err
	case variant.ObjectExternalByPath:
		_, err := fmt.Fprintf(w, "Resource(%s)", quoteGDString(obj.Path))
		return err
	case variant.ObjectInlineBag:
		if _, err := fmt.Fprintf(w, "Object(%s,", obj.ClassName); err != nil {
			return err
		}
		if obj.Properties != nil {
			for _, e := range obj.Properties.Entries {
				name, _ := e.Key.Value.(string)
				if _, err := fmt.Fprintf(w, "\"%s\":", name); err != nil {
					return err
				}
				if err := writeVariant(w, p, e.Value); err != nil {
					return err
				}
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
		}
		_, err := io.WriteString(w, ")")
		return err
	default:
		_, err := io.WriteString(w, "null")
		return err
	}
}

// writeDictionary prints keys in Variant-comparison sort order, matching
// the original writer's keys.sort() before emission.
func writeDictionary(w io.Writer, p *printer, d *variant.Dictionary) error {
	if _, err := io.WriteString(w, "{\n"); err != nil {
		return err
	}
	idx := make([]int, len(d.Entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return variantLess(d.Entries[idx[a]].Key, d.Entries[idx[b]].Key)
	})
	for n, i := range idx {
		e := d.Entries[i]
		if _, err := io.WriteString(w, "\t"); err != nil {
			return err
		}
		if err := writeVariant(w, p, e.Key); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ": "); err != nil {
			return err
		}
		if err := writeVariant(w, p, e.Value); err != nil {
			return err
		}
		if n < len(idx)-1 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}")
	return err
}

func writeArray(w io.Writer, p *printer, a *variant.Array) error {
	if _, err := io.WriteString(w, "[ "); err != nil {
		return err
	}
	for i, item := range a.Items {
		if i > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if err := writeVariant(w, p, item); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, " ]")
	return err
}

// variantLess orders two Variants for dictionary key sorting: by Kind
// first (stable, arbitrary but deterministic), then by comparable value
// within same-kind pairs.
func variantLess(a, b variant.Variant) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	switch a.Kind {
	case variant.KindString, variant.KindStringName:
		return a.Value.(string) < b.Value.(string)
	case variant.KindInt32:
		return a.Value.(int32) < b.Value.(int32)
	case variant.KindInt64:
		return a.Value.(int64) < b.Value.(int64)
	case variant.KindFloat32:
		return a.Value.(float32) < b.Value.(float32)
	case variant.KindFloat64:
		return a.Value.(float64) < b.Value.(float64)
	default:
		return fmt.Sprintf("%v", a.Value) < fmt.Sprintf("%v", b.Value)
	}
}

// formatFloat renders a float the way rtosfix does: shortest round-trip
// form, with -0 collapsed to 0 so unmodified values never churn a diff.
func formatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteGDString applies C-style escapes (matching String::c_escape): the
// common control characters plus backslash and quote. Newlines are always
// escaped as \n; this writer never emits a multi-line string form.
func quoteGDString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
