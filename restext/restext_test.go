package restext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/godot-re/gdre/resource"
	"github.com/godot-re/gdre/variant"
)

func TestWriteSimpleResource(t *testing.T) {
	props := &variant.Dictionary{}
	props.Set(variant.String("value"), variant.Int32(7))
	props.Set(variant.String("label"), variant.String("hello"))

	g := &resource.ResourceGraph{
		Header: resource.Header{EngineMajor: 4, EngineMinor: 3},
		Internals: []resource.InternalResource{
			{Type: "Resource", Properties: props},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `[gd_resource type="Resource"`) {
		t.Fatalf("missing gd_resource header, got:\n%s", out)
	}
	if !strings.Contains(out, "value = 7") {
		t.Fatalf("missing value property, got:\n%s", out)
	}
	if !strings.Contains(out, `label = "hello"`) {
		t.Fatalf("missing label property, got:\n%s", out)
	}
}

func TestWriteWithExternalAndSubResourceReferences(t *testing.T) {
	subProps := &variant.Dictionary{}
	subProps.Set(variant.String("value"), variant.Int32(1))

	mainProps := &variant.Dictionary{}
	mainProps.Set(variant.String("texture"), variant.Variant{
		Kind:  variant.KindObject,
		Value: variant.ObjectRef{Kind: variant.ObjectExternalByIndex, ExternalIdx: 0},
	})
	mainProps.Set(variant.String("gradient"), variant.Variant{
		Kind:  variant.KindObject,
		Value: variant.ObjectRef{Kind: variant.ObjectInternalByIndex, Subindex: 0},
	})

	g := &resource.ResourceGraph{
		Header:    resource.Header{EngineMajor: 4, EngineMinor: 3},
		Externals: []resource.ExternalResource{{Type: "Texture2D", Path: "res://icon.png"}},
		Internals: []resource.InternalResource{
			{Type: "GradientTexture2D", Properties: subProps},
			{Type: "Node2D", Properties: mainProps},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `[ext_resource type="Texture2D" path="res://icon.png" id="1"]`) {
		t.Fatalf("missing ext_resource line, got:\n%s", out)
	}
	if !strings.Contains(out, `[sub_resource type="GradientTexture2D" id="GradientTexture2D_1"]`) {
		t.Fatalf("missing sub_resource line, got:\n%s", out)
	}
	if !strings.Contains(out, `texture = ExtResource("1")`) {
		t.Fatalf("texture should reference ExtResource(\"1\"), got:\n%s", out)
	}
	if !strings.Contains(out, `gradient = SubResource("GradientTexture2D_1")`) {
		t.Fatalf("gradient should reference the sub-resource, got:\n%s", out)
	}
}

func TestFormatVersionMapping(t *testing.T) {
	cases := []struct {
		hdr  resource.Header
		want int
	}{
		{resource.Header{EngineMajor: 2}, 1},
		{resource.Header{EngineMajor: 3, EngineMinor: 0}, 2},
		{resource.Header{EngineMajor: 3, EngineMinor: 5}, 3},
		{resource.Header{EngineMajor: 4, EngineMinor: 0}, 3},
		{resource.Header{EngineMajor: 4, EngineMinor: 3}, 4},
	}
	for _, c := range cases {
		if got := FormatVersion(c.hdr); got != c.want {
			t.Errorf("FormatVersion(%+v) = %d, want %d", c.hdr, got, c.want)
		}
	}
}

func TestFormatFloatAvoidsNegativeZero(t *testing.T) {
	if got := formatFloat(0); got != "0" {
		t.Errorf("formatFloat(0) = %q, want \"0\"", got)
	}
	if got := formatFloat(-0.0); got != "0" {
		t.Errorf("formatFloat(-0.0) = %q, want \"0\"", got)
	}
}

func TestPropertyNameQuoting(t *testing.T) {
	if propertyName("value") != "value" {
		t.Errorf("plain identifier should not be quoted")
	}
	if propertyName("my value") != `"my value"` {
		t.Errorf("non-identifier should be quoted, got %q", propertyName("my value"))
	}
}
