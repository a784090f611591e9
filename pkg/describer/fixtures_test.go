package describer

import (
	"reflect"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-apidoc/internal/annotation/tags"
	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/model"
)

type Author struct {
	Name  string `json:"name" groups:"Default,public"`
	Email string `json:"email,omitempty" groups:"admin" openapi:"{format: email}"`
}

type Book struct {
	_        struct{} `openapi:"{title: Book, description: A published book}"`
	Title    string   `json:"title" openapi:"{property: headline, maxLength: 200}"`
	Author   Author   `json:"author"`
	Tags     []string `json:"tags,omitempty" openapi:"{items: {minLength: 1}}"`
	Broken   string   `json:"broken" openapi:"{type: array}"`
	Editor   *Author  `json:"editor,omitempty" openapi:"{description: Reviewing editor, x-model: {type: Author, groups: [public]}}"`
	Reviewer Author   `json:"reviewer" openapi:"{x-model: Author}"`
	Internal string   `json:"-"`
}

func (Book) DisplayTitle() string { return "" }

func (Book) Unannotated() string { return "" }

func (Book) OpenAPIMethodAnnotations() map[string]string {
	return map[string]string{
		"DisplayTitle": "{description: Title shown in listings}",
	}
}

type Plain struct {
	Name string `json:"name"`
}

type Misfit struct {
	_    struct{} `openapi:"{type: strin}"`
	Name string   `json:"name" openapi:"{maxLength: [}"`
}

func newTestRegistry() *model.Registry {
	return model.NewRegistry(model.WithTypes(
		reflect.TypeOf(Author{}),
		reflect.TypeOf(Book{}),
		reflect.TypeOf(Plain{}),
	))
}

func newTestReader(t *testing.T, registry *model.Registry, options ...Option) *AnnotationsReader {
	t.Helper()
	reader, err := NewAnnotationsReader(tags.New(""), registry, options...)
	if err != nil {
		t.Fatalf("annotations reader: %v", err)
	}
	return reader
}

func classTarget(t *testing.T, v any) annotation.Target {
	t.Helper()
	target, err := annotation.ClassOf(reflect.TypeOf(v))
	if err != nil {
		t.Fatalf("class target: %v", err)
	}
	return target
}

func fieldTarget(t *testing.T, v any, name string) annotation.Target {
	t.Helper()
	target, err := annotation.PropertyOf(reflect.TypeOf(v), name)
	if err != nil {
		t.Fatalf("property target: %v", err)
	}
	return target
}

func schemaDiff(want, got any) string {
	return cmp.Diff(want, got, cmpopts.IgnoreUnexported(openapi3.SchemaRef{}))
}

func ptr[T any](v T) *T {
	return &v
}
