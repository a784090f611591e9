package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Kind selects which annotation a lookup asks for.
type Kind string

const (
	// KindSchema is the class level schema annotation.
	KindSchema Kind = "schema"
	// KindProperty is the member level property annotation.
	KindProperty Kind = "property"
)

const (
	// PropertyKey declares the serialized name of a member.
	PropertyKey = "property"
	// ModelExtension marks a node that references a registered model.
	ModelExtension = "x-model"
)

// Annotation is a parsed schema fragment attached to a class or member.
type Annotation struct {
	Kind Kind
	// Property is the declared member name; empty means undefined.
	Property string
	Schema   *openapi3.SchemaRef
	Location Location
}

// ParseAnnotation decodes a YAML (or JSON) mapping into an annotation. Errors
// are prefixed with the location so nested failures point at their source.
func ParseAnnotation(kind Kind, raw []byte, loc Location) (*Annotation, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, locate(loc, errors.New("annotation is empty"))
	}
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, locate(loc, fmt.Errorf("decode annotation: %w", err))
	}
	if fields == nil {
		return nil, locate(loc, errors.New("annotation must be a mapping"))
	}
	return NewAnnotation(kind, fields, loc)
}

// NewAnnotation builds an annotation from already decoded fields.
func NewAnnotation(kind Kind, fields map[string]any, loc Location) (*Annotation, error) {
	ann := &Annotation{Kind: kind, Location: loc}

	keywords := make(map[string]any, len(fields))
	for key, value := range fields {
		if key == PropertyKey {
			name, ok := value.(string)
			if !ok {
				return nil, locate(loc, fmt.Errorf("%q must be a string, found %T", PropertyKey, value))
			}
			ann.Property = strings.TrimSpace(name)
			continue
		}
		keywords[key] = value
	}

	data, err := json.Marshal(normalise(keywords))
	if err != nil {
		return nil, locate(loc, fmt.Errorf("encode annotation: %w", err))
	}
	schema := &openapi3.Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, locate(loc, fmt.Errorf("decode schema: %w", err))
	}
	ann.Schema = &openapi3.SchemaRef{Value: schema}
	return ann, nil
}

// Validate checks the fragment against the OpenAPI schema rules enforced by
// kin-openapi. Pure model references point at components validated with
// the rest of the document and are accepted as is.
func (a *Annotation) Validate(ctx context.Context, opts ...openapi3.ValidationOption) error {
	if a == nil || a.Schema == nil {
		return errors.New("annotation: schema is nil")
	}
	if a.Schema.Ref != "" {
		return nil
	}
	if a.Schema.Value == nil {
		return errors.New("annotation: schema is nil")
	}
	if err := a.Schema.Value.Validate(ctx, opts...); err != nil {
		return locate(a.Location, err)
	}
	return nil
}

// Check validates the annotation and wraps the outcome in a Result.
func (a *Annotation) Check(ctx context.Context, opts ...openapi3.ValidationOption) Result {
	if err := a.Validate(ctx, opts...); err != nil {
		var loc Location
		if a != nil {
			loc = a.Location
		}
		return Invalid(loc, err)
	}
	return Valid(a)
}

// HasName reports whether the annotation declares an explicit member name.
func (a *Annotation) HasName() bool {
	return a != nil && a.Property != ""
}

// ModelRef is the decoded form of an x-model extension.
type ModelRef struct {
	Type    string
	Groups  []string
	Options map[string]any
}

// ModelRefFrom decodes an x-model value. Groups stays nil when the reference
// does not declare any, letting callers fall back to inherited groups. An
// empty list counts as undeclared.
func ModelRefFrom(value any) (ModelRef, error) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return ModelRef{}, fmt.Errorf("%s type is required", ModelExtension)
		}
		return ModelRef{Type: strings.TrimSpace(v)}, nil
	case map[string]any:
		ref := ModelRef{}
		typ, _ := v["type"].(string)
		ref.Type = strings.TrimSpace(typ)
		if ref.Type == "" {
			return ModelRef{}, fmt.Errorf("%s type is required", ModelExtension)
		}
		if raw, ok := v["groups"]; ok && raw != nil {
			list, ok := raw.([]any)
			if !ok {
				return ModelRef{}, fmt.Errorf("%s groups must be a list, found %T", ModelExtension, raw)
			}
			ref.Groups = make([]string, 0, len(list))
			for _, item := range list {
				group, ok := item.(string)
				if !ok {
					return ModelRef{}, fmt.Errorf("%s groups must be strings, found %T", ModelExtension, item)
				}
				ref.Groups = append(ref.Groups, group)
			}
			if len(ref.Groups) == 0 {
				ref.Groups = nil
			}
		}
		if raw, ok := v["options"]; ok && raw != nil {
			opts, ok := raw.(map[string]any)
			if !ok {
				return ModelRef{}, fmt.Errorf("%s options must be a mapping, found %T", ModelExtension, raw)
			}
			ref.Options = opts
		}
		return ref, nil
	default:
		return ModelRef{}, fmt.Errorf("%s must be a string or mapping, found %T", ModelExtension, value)
	}
}

// normalise converts yaml.v3 generic maps into JSON friendly values.
func normalise(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalise(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalise(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalise(item)
		}
		return out
	default:
		return v
	}
}

func locate(loc Location, err error) error {
	if loc.IsZero() {
		return fmt.Errorf("annotation: %w", err)
	}
	return fmt.Errorf("annotation: %s: %w", loc, err)
}
