package describer

import (
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
)

// conflictFunc is told about fields set on both sides with different values.
type conflictFunc func(field string)

// mergeSchema copies every field set on src into dst. Fields already set on
// dst keep their value and are reported as conflicts when src disagrees.
// Properties and extensions merge per key, required names are unioned.
func mergeSchema(dst, src *openapi3.Schema, conflict conflictFunc) {
	if dst == nil || src == nil {
		return
	}
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	st := dv.Type()

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		switch field.Name {
		case "Origin":
			continue
		case "Extensions":
			dst.Extensions = mergeExtensions(dst.Extensions, src.Extensions, conflict)
			continue
		case "Properties":
			dst.Properties = mergeProperties(dst.Properties, src.Properties, conflict)
			continue
		case "Required":
			dst.Required = unionStrings(dst.Required, src.Required)
			continue
		}

		from := sv.Field(i)
		if from.IsZero() {
			continue
		}
		to := dv.Field(i)
		if to.IsZero() {
			to.Set(from)
			continue
		}
		if conflict != nil && !reflect.DeepEqual(to.Interface(), from.Interface()) {
			conflict(field.Name)
		}
	}
}

func mergeExtensions(dst, src map[string]any, conflict conflictFunc) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}
		if conflict != nil && !reflect.DeepEqual(existing, value) {
			conflict(key)
		}
	}
	return dst
}

func mergeProperties(dst, src openapi3.Schemas, conflict conflictFunc) openapi3.Schemas {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(openapi3.Schemas, len(src))
	}
	for name, ref := range src {
		if _, ok := dst[name]; ok {
			if conflict != nil {
				conflict("Properties." + name)
			}
			continue
		}
		dst[name] = ref
	}
	return dst
}

// mergeRef applies src to a property node. A pure model reference becomes the
// node's $ref when the node is still blank, otherwise it is appended to allOf
// so existing content is kept.
func mergeRef(dst, src *openapi3.SchemaRef, conflict conflictFunc) {
	if dst == nil || src == nil {
		return
	}
	if src.Ref == "" {
		if dst.Ref != "" {
			if conflict != nil && !isEmptySchema(src.Value) {
				conflict("$ref")
			}
			return
		}
		if dst.Value == nil {
			dst.Value = &openapi3.Schema{}
		}
		mergeSchema(dst.Value, src.Value, conflict)
		return
	}

	switch {
	case dst.Ref == src.Ref:
	case dst.Ref != "":
		if conflict != nil {
			conflict("$ref")
		}
	case isEmptySchema(dst.Value):
		dst.Ref = src.Ref
		dst.Value = src.Value
	default:
		appendAllOf(dst.Value, src)
	}
}

func appendAllOf(dst *openapi3.Schema, ref *openapi3.SchemaRef) {
	for _, existing := range dst.AllOf {
		if existing != nil && existing.Ref == ref.Ref {
			return
		}
	}
	dst.AllOf = append(dst.AllOf, &openapi3.SchemaRef{Ref: ref.Ref, Value: ref.Value})
}

func isEmptySchema(s *openapi3.Schema) bool {
	if s == nil {
		return true
	}
	probe := *s
	probe.Origin = nil
	if len(probe.Extensions) == 0 {
		probe.Extensions = nil
	}
	return reflect.ValueOf(probe).IsZero()
}

func unionStrings(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, item := range dst {
		seen[item] = struct{}{}
	}
	for _, item := range src {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
