package describer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-apidoc/pkg/model"
)

type Settings struct {
	Mode    string   `json:"mode" jsonschema:"enum=fast,enum=slow"`
	Retries int      `json:"retries,omitempty" jsonschema:"minimum=0,maximum=5"`
	Hosts   []string `json:"hosts,omitempty" jsonschema:"description=Upstream hosts"`
	Token   string   `json:"token,omitempty" jsonschema:"example=abc"`
}

func TestJSONSchemaDescriber(t *testing.T) {
	registry := model.NewRegistry()
	opts := map[string]any{DescriberOption: JSONSchemaDescriberName}
	doc := describeModels(t, registry, model.New(reflect.TypeOf(Settings{}), nil, opts))

	settings := doc.Components.Schemas["Settings"].Value
	if !settings.Type.Is(openapi3.TypeObject) {
		t.Fatalf("expected object, got %v", settings.Type)
	}
	if diff := cmp.Diff([]string{"mode"}, settings.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"fast", "slow"}, settings.Properties["mode"].Value.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	retries := settings.Properties["retries"].Value
	if retries.Min == nil || *retries.Min != 0 || retries.Max == nil || *retries.Max != 5 {
		t.Fatalf("unexpected bounds %+v", retries)
	}
	if got := settings.Properties["hosts"].Value.Description; got != "Upstream hosts" {
		t.Fatalf("unexpected description %q", got)
	}
	if got := settings.Properties["token"].Value.Example; got != "abc" {
		t.Fatalf("expected examples to become example, got %v", got)
	}
	if _, ok := settings.Extensions["$schema"]; ok {
		t.Fatalf("$schema must be stripped")
	}
}

func TestJSONSchemaDescriberSupports(t *testing.T) {
	d := NewJSONSchemaDescriber()
	if d.Supports(model.New(reflect.TypeOf(Settings{}), nil, nil)) {
		t.Fatalf("describer must be opt-in")
	}
	opts := map[string]any{DescriberOption: JSONSchemaDescriberName}
	if !d.Supports(model.New(reflect.TypeOf(Settings{}), nil, opts)) {
		t.Fatalf("expected model with jsonschema option to be supported")
	}
}

func TestToOpenAPI(t *testing.T) {
	in := map[string]any{
		"$schema":         "https://json-schema.org/draft/2020-12/schema",
		"const":           "fixed",
		"contentEncoding": "base64",
		"items":           map[string]any{"$id": "x", "type": "string"},
		"oneOf":           []any{map[string]any{"$comment": "c", "type": "integer"}},
	}
	want := map[string]any{
		"enum":   []any{"fixed"},
		"format": "byte",
		"items":  map[string]any{"type": "string"},
		"oneOf":  []any{map[string]any{"type": "integer"}},
	}
	if diff := cmp.Diff(want, toOpenAPI(in)); diff != "" {
		t.Fatalf("conversion mismatch (-want +got):\n%s", diff)
	}
}

type Node struct {
	Value string `json:"value"`
	Next  *Node  `json:"next,omitempty"`
}

type Category struct {
	Name string    `json:"name"`
	Tags []Tag     `json:"tags"`
	Skip *Category `json:"-"`
}

type Tag struct {
	Label string                `json:"label"`
	Peers map[string][]Category `json:"peers"`
}

type Leaf struct {
	Left  *Settings `json:"left"`
	Right *Settings `json:"right"`
	Seen  Skipped   `json:"seen"`
}

type Skipped struct {
	Back *Leaf `json:"-"`
}

func TestJSONSchemaDescriberRejectsRecursiveTypes(t *testing.T) {
	d := NewJSONSchemaDescriber()
	opts := map[string]any{DescriberOption: JSONSchemaDescriberName}

	tests := []struct {
		name  string
		typ   reflect.Type
		cycle string
	}{
		{name: "self pointer", typ: reflect.TypeOf(Node{}), cycle: "describer.Node -> describer.Node"},
		{name: "through map values", typ: reflect.TypeOf(Category{}), cycle: "describer.Category -> describer.Tag -> describer.Category"},
		{name: "shared leaf types", typ: reflect.TypeOf(Leaf{})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := d.Describe(context.Background(), model.New(tc.typ, nil, opts), &openapi3.Schema{})
			if tc.cycle == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, ErrRecursiveType) || !strings.Contains(err.Error(), tc.cycle) {
				t.Fatalf("expected recursive type error naming %q, got %v", tc.cycle, err)
			}
		})
	}
}
