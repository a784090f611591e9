package describer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/model"
)

var (
	timeType       = reflect.TypeOf(time.Time{})
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))

	errUnsupportedType = errors.New("unsupported type")
)

// describeType fills node from t unless an annotation already typed it.
func (d *ObjectDescriber) describeType(ctx context.Context, t reflect.Type, node *openapi3.SchemaRef, groups []string) error {
	if node.Ref != "" || node.Value == nil {
		return nil
	}
	s := node.Value
	if s.Type != nil || len(s.AllOf) > 0 || len(s.OneOf) > 0 || len(s.AnyOf) > 0 {
		return nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		s.Nullable = true
	}

	switch t {
	case timeType:
		setType(s, openapi3.TypeString, "date-time")
		return nil
	case rawMessageType:
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		setType(s, openapi3.TypeBoolean, "")
	case reflect.Int8, reflect.Int16, reflect.Int32:
		setType(s, openapi3.TypeInteger, "int32")
	case reflect.Int, reflect.Int64:
		setType(s, openapi3.TypeInteger, "int64")
	case reflect.Uint8, reflect.Uint16:
		setType(s, openapi3.TypeInteger, "int32")
		setMin(s, 0)
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		setType(s, openapi3.TypeInteger, "int64")
		setMin(s, 0)
	case reflect.Float32:
		setType(s, openapi3.TypeNumber, "float")
	case reflect.Float64:
		setType(s, openapi3.TypeNumber, "double")
	case reflect.String:
		setType(s, openapi3.TypeString, "")
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			setType(s, openapi3.TypeString, "byte")
			return nil
		}
		return d.describeItems(ctx, t, s, groups)
	case reflect.Array:
		return d.describeItems(ctx, t, s, groups)
	case reflect.Map:
		setType(s, openapi3.TypeObject, "")
		values := &openapi3.SchemaRef{Value: &openapi3.Schema{}}
		if err := d.describeType(ctx, t.Elem(), values, groups); err != nil {
			return err
		}
		s.AdditionalProperties = openapi3.AdditionalProperties{Schema: values}
	case reflect.Struct:
		if t.Name() == "" {
			return d.describeStruct(ctx, model.New(t, groups, nil), s)
		}
		link, component, err := d.registry.Register(model.New(t, groups, nil))
		if err != nil {
			return err
		}
		ref := &openapi3.SchemaRef{Ref: link, Value: component}
		if isEmptySchema(s) {
			node.Ref = ref.Ref
			node.Value = ref.Value
			return nil
		}
		appendAllOf(s, ref)
	case reflect.Interface:
		// any value
	default:
		return errUnsupportedType
	}
	return nil
}

func (d *ObjectDescriber) describeItems(ctx context.Context, t reflect.Type, s *openapi3.Schema, groups []string) error {
	setType(s, openapi3.TypeArray, "")
	if s.Items == nil {
		s.Items = &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}
	if t.Kind() == reflect.Array && s.MaxItems == nil {
		length := uint64(t.Len())
		s.MinItems = length
		s.MaxItems = &length
	}
	return d.describeType(ctx, t.Elem(), s.Items, groups)
}

func setType(s *openapi3.Schema, typ, format string) {
	s.Type = &openapi3.Types{typ}
	if s.Format == "" {
		s.Format = format
	}
}

func setMin(s *openapi3.Schema, value float64) {
	if s.Min == nil {
		s.Min = &value
	}
}
