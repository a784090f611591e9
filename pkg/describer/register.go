package describer

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/model"
)

// ModelRegister replaces x-model nodes of an annotation with references to
// registry components.
type ModelRegister struct {
	registry *model.Registry
}

// NewModelRegister binds a walker to registry.
func NewModelRegister(registry *model.Registry) *ModelRegister {
	return &ModelRegister{registry: registry}
}

// Register walks ann and registers every referenced model. References
// without explicit groups inherit groups.
func (m *ModelRegister) Register(ann *annotation.Annotation, groups []string) error {
	if m == nil || m.registry == nil {
		return fmt.Errorf("describer: model registry is nil")
	}
	if ann == nil {
		return nil
	}
	visited := make(map[*openapi3.Schema]struct{})
	return m.walk(ann.Schema, groups, ann.Location, visited)
}

func (m *ModelRegister) walk(node *openapi3.SchemaRef, groups []string, loc annotation.Location, visited map[*openapi3.Schema]struct{}) error {
	if node == nil || node.Ref != "" || node.Value == nil {
		return nil
	}
	schema := node.Value
	if _, ok := visited[schema]; ok {
		return nil
	}
	visited[schema] = struct{}{}

	if raw, ok := schema.Extensions[annotation.ModelExtension]; ok {
		link, component, err := m.registerRef(raw, groups, loc)
		if err != nil {
			return err
		}
		delete(schema.Extensions, annotation.ModelExtension)
		if len(schema.Extensions) == 0 {
			schema.Extensions = nil
		}
		target := &openapi3.SchemaRef{Ref: link, Value: component}
		if isEmptySchema(schema) {
			node.Ref = target.Ref
			node.Value = target.Value
			return nil
		}
		appendAllOf(schema, target)
	}

	for _, child := range children(schema) {
		if err := m.walk(child, groups, loc, visited); err != nil {
			return err
		}
	}
	return nil
}

func (m *ModelRegister) registerRef(raw any, groups []string, loc annotation.Location) (string, *openapi3.Schema, error) {
	ref, err := annotation.ModelRefFrom(raw)
	if err != nil {
		return "", nil, locationError(loc, err)
	}
	typ, err := m.registry.ResolveType(ref.Type)
	if err != nil {
		return "", nil, locationError(loc, err)
	}
	if ref.Groups == nil {
		ref.Groups = groups
	}
	link, component, err := m.registry.Register(model.New(typ, ref.Groups, ref.Options))
	if err != nil {
		return "", nil, locationError(loc, err)
	}
	return link, component, nil
}

func children(schema *openapi3.Schema) []*openapi3.SchemaRef {
	var out []*openapi3.SchemaRef
	for _, name := range sortedKeys(schema.Properties) {
		out = append(out, schema.Properties[name])
	}
	if schema.Items != nil {
		out = append(out, schema.Items)
	}
	out = append(out, schema.AllOf...)
	out = append(out, schema.AnyOf...)
	out = append(out, schema.OneOf...)
	if schema.Not != nil {
		out = append(out, schema.Not)
	}
	if schema.AdditionalProperties.Schema != nil {
		out = append(out, schema.AdditionalProperties.Schema)
	}
	return out
}

func locationError(loc annotation.Location, err error) error {
	if loc.IsZero() {
		return fmt.Errorf("describer: %w", err)
	}
	return fmt.Errorf("describer: %s: %w", loc, err)
}
