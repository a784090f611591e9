package describer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/model"
)

const (
	// DescriberOption selects a describer through model options.
	DescriberOption = "describer"

	defaultNameTag   = "json"
	defaultGroupsTag = "groups"
)

// ObjectDescriber describes Go structs field by field, applying the
// annotations found on the type and its members.
type ObjectDescriber struct {
	annotations *AnnotationsReader
	registry    *model.Registry
	nameTag     string
	groupsTag   string
}

var _ model.Describer = (*ObjectDescriber)(nil)

// ObjectOption configures an ObjectDescriber.
type ObjectOption func(*ObjectDescriber)

// WithNameTag reads serialized names from tag instead of `json`.
func WithNameTag(tag string) ObjectOption {
	return func(d *ObjectDescriber) {
		if tag = strings.TrimSpace(tag); tag != "" {
			d.nameTag = tag
		}
	}
}

// WithGroupsTag reads serialization groups from tag instead of `groups`.
func WithGroupsTag(tag string) ObjectOption {
	return func(d *ObjectDescriber) {
		if tag = strings.TrimSpace(tag); tag != "" {
			d.groupsTag = tag
		}
	}
}

// NewObjectDescriber returns a describer for struct models.
func NewObjectDescriber(annotations *AnnotationsReader, registry *model.Registry, options ...ObjectOption) *ObjectDescriber {
	d := &ObjectDescriber{
		annotations: annotations,
		registry:    registry,
		nameTag:     defaultNameTag,
		groupsTag:   defaultGroupsTag,
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Supports accepts named structs unless another describer was requested.
func (d *ObjectDescriber) Supports(m model.Model) bool {
	if m.Type == nil || m.Type.Kind() != reflect.Struct || m.Type == timeType {
		return false
	}
	switch m.Option(DescriberOption) {
	case "", "object":
		return true
	default:
		return false
	}
}

// Describe fills schema with the object schema of m.
func (d *ObjectDescriber) Describe(ctx context.Context, m model.Model, schema *openapi3.Schema) error {
	if d.annotations == nil || d.registry == nil {
		return errors.New("describer: object describer is not configured")
	}
	return d.describeStruct(ctx, m, schema)
}

func (d *ObjectDescriber) describeStruct(ctx context.Context, m model.Model, schema *openapi3.Schema) error {
	if m.Type.Name() != "" {
		class, err := annotation.ClassOf(m.Type)
		if err != nil {
			return err
		}
		if _, err := d.annotations.UpdateSchema(ctx, class, schema); err != nil {
			return err
		}
	}
	if schema.Type == nil && len(schema.AllOf) == 0 {
		schema.Type = &openapi3.Types{openapi3.TypeObject}
	}

	properties := openapi3.Schemas{}
	var required []string

	for _, field := range reflect.VisibleFields(m.Type) {
		name, omitEmpty, ok := d.fieldName(field)
		if !ok {
			continue
		}
		if !m.InGroups(d.fieldGroups(field)) {
			continue
		}

		target := annotation.FieldTarget(m.Type, field)
		name, err := d.annotations.PropertyName(target, name)
		if err != nil {
			return err
		}

		property := &openapi3.SchemaRef{Value: &openapi3.Schema{}}
		if _, err := d.annotations.UpdateProperty(ctx, target, property, m.Groups); err != nil {
			return err
		}
		if err := d.describeType(ctx, field.Type, property, m.Groups); err != nil {
			if errors.Is(err, errUnsupportedType) {
				continue
			}
			return fmt.Errorf("describer: %s.%s: %w", m.Type.Name(), field.Name, err)
		}
		if _, exists := properties[name]; exists {
			d.annotations.duplicate(annotation.LocationFor(target), name)
			continue
		}
		properties[name] = property
		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	if err := d.describeMethods(ctx, m, properties); err != nil {
		return err
	}

	schema.Properties = mergeProperties(schema.Properties, properties, nil)
	schema.Required = unionStrings(schema.Required, required)
	return nil
}

// describeMethods adds annotated zero-argument methods as read-only
// properties.
func (d *ObjectDescriber) describeMethods(ctx context.Context, m model.Model, properties openapi3.Schemas) error {
	if m.Type.Name() == "" || !m.InGroups(nil) {
		return nil
	}
	ptr := reflect.PointerTo(m.Type)
	for i := 0; i < ptr.NumMethod(); i++ {
		method := ptr.Method(i)
		if method.Name == "OpenAPIMethodAnnotations" || method.Type.NumIn() != 1 || method.Type.NumOut() != 1 {
			continue
		}
		target, err := annotation.MethodOf(m.Type, method.Name)
		if err != nil {
			return err
		}
		name, err := d.annotations.PropertyName(target, accessorName(method.Name))
		if err != nil {
			return err
		}
		if _, exists := properties[name]; exists {
			continue
		}

		property := &openapi3.SchemaRef{Value: &openapi3.Schema{}}
		result, err := d.annotations.UpdateProperty(ctx, target, property, m.Groups)
		if err != nil {
			return err
		}
		if result.Status == annotation.StatusAbsent || result.Status == annotation.StatusInvalid {
			continue
		}
		if err := d.describeType(ctx, method.Type.Out(0), property, m.Groups); err != nil {
			if errors.Is(err, errUnsupportedType) {
				continue
			}
			return fmt.Errorf("describer: %s.%s: %w", m.Type.Name(), method.Name, err)
		}
		if property.Ref == "" && property.Value != nil {
			property.Value.ReadOnly = true
		}
		properties[name] = property
	}
	return nil
}

func (d *ObjectDescriber) fieldName(field reflect.StructField) (name string, omitEmpty bool, ok bool) {
	if !field.IsExported() || field.Name == "_" {
		return "", false, false
	}
	tag := field.Tag.Get(d.nameTag)
	if tag == "-" {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "omitempty" || strings.TrimSpace(opt) == "omitzero" {
			omitEmpty = true
		}
	}
	if field.Anonymous && name == "" && indirectKind(field.Type) == reflect.Struct {
		// promoted fields are visited on their own
		return "", false, false
	}
	if name == "" {
		name = field.Name
	}
	return name, omitEmpty, true
}

func (d *ObjectDescriber) fieldGroups(field reflect.StructField) []string {
	raw, ok := field.Tag.Lookup(d.groupsTag)
	if !ok {
		return nil
	}
	var groups []string
	for _, group := range strings.Split(raw, ",") {
		if group = strings.TrimSpace(group); group != "" {
			groups = append(groups, group)
		}
	}
	return groups
}

func accessorName(method string) string {
	name := method
	if rest, ok := strings.CutPrefix(method, "Get"); ok && rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			name = rest
		}
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

func indirectKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}
