package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/model"
)

// Transformer mutates the generated document before validation.
// Implementations can rename components, inject metadata, or perform arbitrary
// rewrites.
type Transformer interface {
	Transform(ctx context.Context, doc *openapi3.T) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, doc *openapi3.T) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, doc *openapi3.T) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, doc)
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// Schema keys are a component name optionally followed by a property path,
// where "items" descends into array items:
//
//	{
//	  "info": {"title": "Shop API", "description": "Public catalogue"},
//	  "schemas": {
//	    "Book": {"rename": "Volume", "extensions": {"x-internal": false}},
//	    "Book.tags.items": {"description": "A single tag"}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Info    *jsonInfoPatch             `json:"info"`
	Schemas map[string]jsonSchemaPatch `json:"schemas"`
}

type jsonInfoPatch struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type jsonSchemaPatch struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Example     any            `json:"example"`
	Deprecated  *bool          `json:"deprecated"`
	Rename      string         `json:"rename"`
	Extensions  map[string]any `json:"extensions"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	for key, patch := range document.Schemas {
		if patch.Rename != "" && strings.Contains(key, ".") {
			return nil, fmt.Errorf("json preset transformer: %q: only components can be renamed", key)
		}
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied document.
// Renames run last so patch keys always use the generated names.
func (t *JSONPresetTransformer) Transform(ctx context.Context, doc *openapi3.T) error {
	if doc == nil {
		return errors.New("json preset transformer: document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if info := t.document.Info; info != nil {
		if doc.Info == nil {
			doc.Info = &openapi3.Info{}
		}
		applyString(&doc.Info.Title, info.Title)
		applyString(&doc.Info.Version, info.Version)
		applyString(&doc.Info.Description, info.Description)
	}

	keys := make([]string, 0, len(t.document.Schemas))
	for key := range t.document.Schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	renames := map[string]string{}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		patch := t.document.Schemas[key]
		schema := findSchemaByPath(doc, key)
		if schema == nil {
			return fmt.Errorf("json preset transformer: schema %q not found", key)
		}
		applySchemaPatch(schema, patch)
		if name := strings.TrimSpace(patch.Rename); name != "" {
			renames[key] = name
		}
	}
	return renameComponents(doc, renames)
}

func applySchemaPatch(schema *openapi3.Schema, patch jsonSchemaPatch) {
	applyString(&schema.Title, patch.Title)
	applyString(&schema.Description, patch.Description)
	if patch.Example != nil {
		schema.Example = patch.Example
	}
	if patch.Deprecated != nil {
		schema.Deprecated = *patch.Deprecated
	}
	if len(patch.Extensions) > 0 {
		if schema.Extensions == nil {
			schema.Extensions = make(map[string]any, len(patch.Extensions))
		}
		for key, value := range patch.Extensions {
			schema.Extensions[key] = value
		}
	}
}

func applyString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func findSchemaByPath(doc *openapi3.T, path string) *openapi3.Schema {
	if doc.Components == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	component, ok := doc.Components.Schemas[segments[0]]
	if !ok || component == nil || component.Value == nil {
		return nil
	}
	return walkSchemaByPath(component.Value, segments[1:])
}

func walkSchemaByPath(schema *openapi3.Schema, segments []string) *openapi3.Schema {
	if schema == nil {
		return nil
	}
	if len(segments) == 0 {
		return schema
	}
	head := segments[0]
	if head == "items" && schema.Items != nil {
		return walkSchemaByPath(schema.Items.Value, segments[1:])
	}
	if property, ok := schema.Properties[head]; ok && property != nil {
		if property.Ref != "" {
			// referenced components are patched under their own name
			return nil
		}
		return walkSchemaByPath(property.Value, segments[1:])
	}
	for _, part := range schema.AllOf {
		if part == nil || part.Ref != "" {
			continue
		}
		if found := walkSchemaByPath(part.Value, segments); found != nil {
			return found
		}
	}
	return nil
}

// renameComponents moves components to their new names and rewrites every
// reference pointing at them.
func renameComponents(doc *openapi3.T, renames map[string]string) error {
	if len(renames) == 0 {
		return nil
	}
	links := make(map[string]string, len(renames))
	for from, to := range renames {
		if from == to {
			continue
		}
		if _, taken := doc.Components.Schemas[to]; taken {
			return fmt.Errorf("json preset transformer: cannot rename %q: %q already exists", from, to)
		}
		links[model.ComponentPrefix+from] = model.ComponentPrefix + to
	}
	for from, to := range renames {
		if from == to {
			continue
		}
		doc.Components.Schemas[to] = doc.Components.Schemas[from]
		delete(doc.Components.Schemas, from)
	}

	visited := make(map[*openapi3.Schema]struct{})
	var walk func(*openapi3.SchemaRef)
	walk = func(ref *openapi3.SchemaRef) {
		if ref == nil {
			return
		}
		if to, ok := links[ref.Ref]; ok {
			ref.Ref = to
		}
		if ref.Ref != "" || ref.Value == nil {
			return
		}
		if _, ok := visited[ref.Value]; ok {
			return
		}
		visited[ref.Value] = struct{}{}
		for _, child := range schemaChildren(ref.Value) {
			walk(child)
		}
	}
	for _, component := range doc.Components.Schemas {
		walk(component)
	}
	return nil
}

func schemaChildren(s *openapi3.Schema) []*openapi3.SchemaRef {
	var out []*openapi3.SchemaRef
	for _, property := range s.Properties {
		out = append(out, property)
	}
	out = append(out, s.AllOf...)
	out = append(out, s.AnyOf...)
	out = append(out, s.OneOf...)
	if s.Items != nil {
		out = append(out, s.Items)
	}
	if s.Not != nil {
		out = append(out, s.Not)
	}
	if s.AdditionalProperties.Schema != nil {
		out = append(out, s.AdditionalProperties.Schema)
	}
	return out
}
