package orchestrator_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/orchestrator"
	"github.com/goliatone/go-apidoc/pkg/testsupport"
)

func TestOrchestrator_AppliesTransformer(t *testing.T) {
	called := false
	transformer := orchestrator.TransformerFunc(func(ctx context.Context, doc *openapi3.T) error {
		called = true
		doc.Info.Description = "patched"
		return nil
	})

	orch := orchestrator.New(orchestrator.WithTransformers(transformer))
	doc, err := orch.Describe(testsupport.Context(), Order{})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !called || doc.Info.Description != "patched" {
		t.Fatalf("expected transformer to be invoked")
	}
}

func TestJSONPresetTransformer(t *testing.T) {
	preset, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS("testdata"), "preset.json")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	orch := orchestrator.New(orchestrator.WithTransformers(preset))
	doc, err := orch.Describe(testsupport.Context(), Customer{})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	if doc.Info.Title != "Shop API" || doc.Info.Description != "Customer records" || doc.Info.Version != "1.0.0" {
		t.Fatalf("unexpected info %+v", doc.Info)
	}
	customer := doc.Components.Schemas["Customer"].Value
	if got := customer.Properties["name"].Value.Description; got != "Full name" {
		t.Fatalf("expected description override, got %q", got)
	}
	if _, ok := doc.Components.Schemas["Order"]; ok {
		t.Fatalf("expected Order to be renamed")
	}
	summary, ok := doc.Components.Schemas["OrderSummary"]
	if !ok || summary.Value.Extensions["x-internal"] != false {
		t.Fatalf("expected renamed component with extension, got %+v", summary)
	}
	if got := customer.Properties["orders"].Value.Items.Ref; got != "#/components/schemas/OrderSummary" {
		t.Fatalf("references must follow the rename, got %q", got)
	}
}

func TestJSONPresetTransformerErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "  ", want: "document is empty"},
		{name: "syntax", raw: "{", want: "parse document"},
		{name: "nested rename", raw: `{"schemas": {"Order.id": {"rename": "Identifier"}}}`, want: "only components can be renamed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orchestrator.NewJSONPresetTransformer([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}

	preset, err := orchestrator.NewJSONPresetTransformer([]byte(`{"schemas": {"Missing": {"title": "x"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	orch := orchestrator.New(orchestrator.WithTransformers(preset))
	if _, err := orch.Describe(testsupport.Context(), Order{}); err == nil || !strings.Contains(err.Error(), `schema "Missing" not found`) {
		t.Fatalf("expected missing schema error, got %v", err)
	}
}
