package apidoc_test

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	apidoc "github.com/goliatone/go-apidoc"
	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/describer"
	"github.com/goliatone/go-apidoc/pkg/model"
	"github.com/goliatone/go-apidoc/pkg/orchestrator"
	"github.com/goliatone/go-apidoc/pkg/testsupport"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city" openapi:"{example: Lisbon}"`
}

type Account struct {
	_       struct{} `openapi:"{description: '<p>Billing <em>account</em></p><script>x()</script>'}"`
	ID      string   `json:"id" openapi:"{format: uuid, readOnly: true}"`
	Plan    string   `json:"plan" openapi:"{enum: [free, pro]}"`
	Address *Address `json:"address,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func TestGeneratorDescribe(t *testing.T) {
	gen := apidoc.NewGenerator(
		orchestrator.WithInfo("Billing", "1.2.0"),
		orchestrator.WithDescriberOptions(describer.WithUGCSanitizer()),
	)
	doc, err := gen.Describe(testsupport.Context(), Account{})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	account := doc.Components.Schemas["Account"].Value
	if got := account.Description; got != "<p>Billing <em>account</em></p>" {
		t.Fatalf("expected sanitized description, got %q", got)
	}
	id := account.Properties["id"].Value
	if id.Format != "uuid" || !id.ReadOnly || !id.Type.Is(openapi3.TypeString) {
		t.Fatalf("unexpected id schema %+v", id)
	}
	if got := account.Properties["plan"].Value.Enum; len(got) != 2 {
		t.Fatalf("unexpected enum %v", got)
	}
	address := account.Properties["address"].Value
	if !address.Nullable || len(address.AllOf) != 1 || address.AllOf[0].Ref != "#/components/schemas/Address" {
		t.Fatalf("unexpected address schema %+v", address)
	}
	if got := doc.Components.Schemas["Address"].Value.Properties["city"].Value.Example; got != "Lisbon" {
		t.Fatalf("unexpected example %v", got)
	}
}

func TestDescribeShortcut(t *testing.T) {
	doc, err := apidoc.Describe(testsupport.Context(), []any{reflect.TypeOf(Address{})})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if _, ok := doc.Components.Schemas["Address"]; !ok {
		t.Fatalf("expected Address component")
	}
}

func TestMarshalYAMLAndJSON(t *testing.T) {
	doc, err := apidoc.Describe(testsupport.Context(), []any{Account{}})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	rawYAML, err := apidoc.MarshalYAML(doc)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	if !strings.Contains(string(rawYAML), "components:\n  schemas:\n") {
		t.Fatalf("expected block style yaml:\n%s", rawYAML)
	}
	if !strings.Contains(string(rawYAML), "openapi: 3.0.3") {
		t.Fatalf("expected openapi version in yaml:\n%s", rawYAML)
	}

	rawJSON, err := apidoc.MarshalJSON(doc)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}

	var fromYAML, fromJSON map[string]any
	if err := yaml.Unmarshal(rawYAML, &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if err := json.Unmarshal(rawJSON, &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := testsupport.CompareGolden(normalise(t, fromJSON), normalise(t, fromYAML)); diff != "" {
		t.Fatalf("yaml and json disagree (-json +yaml):\n%s", diff)
	}

	loader := openapi3.NewLoader()
	if _, err := loader.LoadFromData(rawYAML); err != nil {
		t.Fatalf("kin-openapi cannot load the yaml output: %v", err)
	}

	if _, err := apidoc.MarshalYAML(nil); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

func TestReaders(t *testing.T) {
	ctx := testsupport.Context()
	src := annotation.SourceFromFile(filepath.Join("testdata", "account.yaml"))

	fileReader, err := apidoc.NewFileReader(ctx, src)
	if err != nil {
		t.Fatalf("file reader: %v", err)
	}
	gen := apidoc.NewGenerator(orchestrator.WithReaders(fileReader))
	doc, err := gen.Generate(ctx, apidoc.Request{
		Models: []model.Model{model.New(reflect.TypeOf(Account{}), nil, nil)},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	account := doc.Components.Schemas["Account"].Value
	if account.Description != "Account from file" {
		t.Fatalf("file annotations must win over tags, got %q", account.Description)
	}
	if _, ok := account.Properties["labels"]; !ok {
		t.Fatalf("expected renamed tags property")
	}

	target, err := annotation.PropertyOf(reflect.TypeOf(Account{}), "Plan")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	ann, ok, err := apidoc.NewTagReader("").Lookup(annotation.LocationFor(target), target, annotation.KindProperty)
	if err != nil || !ok || len(ann.Schema.Value.Enum) != 2 {
		t.Fatalf("unexpected tag lookup %v %v %v", ann, ok, err)
	}

	if _, err := apidoc.NewFileReader(ctx, annotation.SourceFromFile(filepath.Join("testdata", "absent.yaml"))); err == nil {
		t.Fatalf("expected load error")
	}
}

// normalise round-trips through JSON so numeric types compare equal.
func normalise(t *testing.T, v any) any {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("normalise: %v", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("normalise: %v", err)
	}
	return out
}
