package describer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/jsonschema"

	"github.com/goliatone/go-apidoc/pkg/model"
)

// JSONSchemaDescriberName is the DescriberOption value selecting
// JSONSchemaDescriber.
const JSONSchemaDescriberName = "jsonschema"

// ErrRecursiveType is returned for types that reach themselves through
// their fields, which an inlined schema cannot express.
var ErrRecursiveType = errors.New("describer: recursive type")

// JSONSchemaDescriber reflects models with invopop/jsonschema and converts
// the result into an OpenAPI 3.0 schema. Nested types are inlined, so
// self-referencing types are rejected with ErrRecursiveType.
type JSONSchemaDescriber struct {
	reflector jsonschema.Reflector
}

var _ model.Describer = (*JSONSchemaDescriber)(nil)

// NewJSONSchemaDescriber returns a describer honouring `jsonschema` tags.
func NewJSONSchemaDescriber() *JSONSchemaDescriber {
	return &JSONSchemaDescriber{
		reflector: jsonschema.Reflector{
			Anonymous:                 true,
			DoNotReference:            true,
			AllowAdditionalProperties: true,
		},
	}
}

// Supports accepts models that asked for this describer.
func (d *JSONSchemaDescriber) Supports(m model.Model) bool {
	return m.Type != nil && m.Option(DescriberOption) == JSONSchemaDescriberName
}

// Describe replaces the content of schema with the reflected definition.
func (d *JSONSchemaDescriber) Describe(ctx context.Context, m model.Model, schema *openapi3.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cycle := findCycle(m.Type, nil); cycle != nil {
		return fmt.Errorf("%w: %s", ErrRecursiveType, strings.Join(cycle, " -> "))
	}
	reflector := d.reflector
	reflector.ExpandedStruct = m.Type.Kind() == reflect.Struct && m.Type.Name() != ""

	raw, err := json.Marshal(reflector.ReflectFromType(m.Type))
	if err != nil {
		return fmt.Errorf("describer: encode json schema: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("describer: decode json schema: %w", err)
	}

	converted, err := json.Marshal(toOpenAPI(fields))
	if err != nil {
		return fmt.Errorf("describer: encode openapi schema: %w", err)
	}
	var out openapi3.Schema
	if err := json.Unmarshal(converted, &out); err != nil {
		return fmt.Errorf("describer: decode openapi schema: %w", err)
	}
	*schema = out
	return nil
}

// toOpenAPI rewrites JSON Schema keywords OpenAPI 3.0 does not know.
func toOpenAPI(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		switch key {
		case "$schema", "$id", "$defs", "$comment", "$anchor", "definitions":
			continue
		case "const":
			out["enum"] = []any{value}
		case "examples":
			if list, ok := value.([]any); ok && len(list) > 0 {
				out["example"] = list[0]
			}
		case "contentEncoding":
			if value == "base64" {
				out["format"] = "byte"
			}
		case "contentMediaType", "patternProperties", "propertyNames":
			continue
		case "properties":
			props, ok := value.(map[string]any)
			if !ok {
				continue
			}
			converted := make(map[string]any, len(props))
			for name, prop := range props {
				if child, ok := prop.(map[string]any); ok {
					converted[name] = toOpenAPI(child)
				}
			}
			out[key] = converted
		case "items", "not", "additionalProperties":
			if child, ok := value.(map[string]any); ok {
				out[key] = toOpenAPI(child)
				continue
			}
			out[key] = value
		case "allOf", "anyOf", "oneOf":
			list, ok := value.([]any)
			if !ok {
				continue
			}
			converted := make([]any, 0, len(list))
			for _, item := range list {
				if child, ok := item.(map[string]any); ok {
					converted = append(converted, toOpenAPI(child))
				}
			}
			out[key] = converted
		default:
			out[key] = value
		}
	}
	return out
}

// findCycle returns the chain of named types leading back to one already on
// path, or nil when the type graph below t is finite.
func findCycle(t reflect.Type, path []reflect.Type) []string {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
			continue
		case reflect.Map:
			if cycle := findCycle(t.Key(), path); cycle != nil {
				return cycle
			}
			t = t.Elem()
			continue
		}
		break
	}
	if t == nil || t.Kind() != reflect.Struct || t == timeType {
		return nil
	}
	for i, seen := range path {
		if seen == t {
			cycle := make([]string, 0, len(path)-i+1)
			for _, typ := range path[i:] {
				cycle = append(cycle, typ.String())
			}
			return append(cycle, t.String())
		}
	}
	path = append(path, t)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() && !field.Anonymous {
			continue
		}
		if strings.Split(field.Tag.Get("json"), ",")[0] == "-" {
			continue
		}
		if cycle := findCycle(field.Type, path); cycle != nil {
			return cycle
		}
	}
	return nil
}
