// Package tags reads annotations from Go struct tags.
//
// A field carries its property annotation in the `openapi` tag. The class
// annotation lives on a blank field:
//
//	type User struct {
//		_     struct{} `openapi:"{description: A registered user}"`
//		Email string   `json:"email" openapi:"{format: email, maxLength: 255}"`
//	}
//
// Methods cannot carry tags, so types list method annotations through
// MethodAnnotator.
package tags

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// DefaultTag is the struct tag consulted when none is configured.
const DefaultTag = "openapi"

// MethodAnnotator is implemented by types that annotate their methods. Keys
// are method names, values use the same syntax as the struct tag.
type MethodAnnotator interface {
	OpenAPIMethodAnnotations() map[string]string
}

var methodAnnotatorType = reflect.TypeOf((*MethodAnnotator)(nil)).Elem()

// Reader implements annotation.Reader over struct tags.
type Reader struct {
	tag string
}

var _ annotation.Reader = (*Reader)(nil)

// New returns a Reader for tag, defaulting to DefaultTag.
func New(tag string) *Reader {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultTag
	}
	return &Reader{tag: tag}
}

// Lookup returns the annotation of kind declared on target.
func (r *Reader) Lookup(loc annotation.Location, target annotation.Target, kind annotation.Kind) (*annotation.Annotation, bool, error) {
	raw, ok := r.raw(target, kind)
	if !ok {
		return nil, false, nil
	}
	ann, err := annotation.ParseAnnotation(kind, []byte(raw), loc)
	if err != nil {
		return nil, false, err
	}
	return ann, true, nil
}

func (r *Reader) raw(target annotation.Target, kind annotation.Kind) (string, bool) {
	switch {
	case target.Kind() == annotation.TargetClass && kind == annotation.KindSchema:
		return r.classTag(target.Type())
	case target.Kind() == annotation.TargetProperty && kind == annotation.KindProperty:
		return usable(target.Field().Tag.Lookup(r.tag))
	case target.Kind() == annotation.TargetMethod && kind == annotation.KindProperty:
		return methodAnnotation(target)
	default:
		return "", false
	}
}

func (r *Reader) classTag(t reflect.Type) (string, bool) {
	if t == nil || t.Kind() != reflect.Struct {
		return "", false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Name != "_" {
			continue
		}
		if raw, ok := usable(field.Tag.Lookup(r.tag)); ok {
			return raw, true
		}
	}
	return "", false
}

func methodAnnotation(target annotation.Target) (string, bool) {
	ptr := reflect.PointerTo(target.Type())
	if !ptr.Implements(methodAnnotatorType) {
		return "", false
	}
	annotator, ok := reflect.New(target.Type()).Interface().(MethodAnnotator)
	if !ok {
		return "", false
	}
	raw, ok := annotator.OpenAPIMethodAnnotations()[target.Name()]
	return usable(raw, ok)
}

func usable(raw string, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return "", false
	}
	return raw, true
}
