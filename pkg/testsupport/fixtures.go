package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// LoadDocument reads an annotation fixture through a file source.
func LoadDocument(t *testing.T, path string) annotation.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T so
// fixtures can be wired from setup functions.
func LoadDocumentFromPath(path string) (annotation.Document, error) {
	if path == "" {
		return annotation.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return annotation.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := annotation.NewDocument(annotation.SourceFromFile(path), data)
	if err != nil {
		return annotation.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// InlineDocument wraps raw YAML in a Document named after the test.
func InlineDocument(t *testing.T, raw string) annotation.Document {
	t.Helper()

	doc, err := annotation.NewDocument(annotation.SourceFromFile(t.Name()+".yaml"), []byte(raw))
	if err != nil {
		t.Fatalf("inline document: %v", err)
	}
	return doc
}

// SchemaYAML renders a schema as YAML for readable failure output.
func SchemaYAML(t *testing.T, schema *openapi3.Schema) string {
	t.Helper()

	raw, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		t.Fatalf("encode schema: %v", err)
	}
	return string(out)
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ. Schema references
// are compared by their exported fields only.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got, cmpopts.IgnoreUnexported(openapi3.SchemaRef{}))
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
