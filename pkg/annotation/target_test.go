package annotation

import (
	"reflect"
	"strings"
	"testing"
)

type invoice struct {
	Number string
}

func (invoice) Total() int { return 0 }

func (*invoice) Reference() string { return "" }

func TestTargets(t *testing.T) {
	typ := reflect.TypeOf(&invoice{})

	class, err := ClassOf(typ)
	if err != nil {
		t.Fatalf("class: %v", err)
	}
	if class.Kind() != TargetClass || class.Name() != "invoice" || class.IsMember() {
		t.Fatalf("unexpected class target %+v", class)
	}

	field, err := PropertyOf(typ, "Number")
	if err != nil {
		t.Fatalf("property: %v", err)
	}
	if field.Kind() != TargetProperty || field.Name() != "Number" || field.Field().Type.Kind() != reflect.String {
		t.Fatalf("unexpected property target %+v", field)
	}

	for _, name := range []string{"Total", "Reference"} {
		method, err := MethodOf(typ, name)
		if err != nil {
			t.Fatalf("method %s: %v", name, err)
		}
		if method.Kind() != TargetMethod || method.Name() != name || !method.IsMember() {
			t.Fatalf("unexpected method target %+v", method)
		}
	}

	if got := class.QualifiedTypeName(); got != "github.com/goliatone/go-apidoc/pkg/annotation.invoice" {
		t.Fatalf("unexpected qualified name %q", got)
	}
}

func TestTargetErrors(t *testing.T) {
	typ := reflect.TypeOf(invoice{})
	if _, err := ClassOf(reflect.TypeOf(42)); err == nil {
		t.Fatalf("expected non-struct types to be rejected")
	}
	if _, err := ClassOf(nil); err == nil {
		t.Fatalf("expected nil type to be rejected")
	}
	if _, err := PropertyOf(typ, "Missing"); err == nil || !strings.Contains(err.Error(), `no field "Missing"`) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := MethodOf(typ, "Missing"); err == nil || !strings.Contains(err.Error(), `no method "Missing"`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLocation(t *testing.T) {
	typ := reflect.TypeOf(invoice{})
	field, _ := PropertyOf(typ, "Number")
	method, _ := MethodOf(typ, "Reference")
	class, _ := ClassOf(typ)

	loc := LocationFor(field)
	if loc.Member != "Number" || loc.Type != "invoice" || loc.File != "" {
		t.Fatalf("unexpected field location %+v", loc)
	}
	if got := loc.String(); got != "github.com/goliatone/go-apidoc/pkg/annotation.invoice.Number" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if got := loc.WithFile("types.yaml").String(); !strings.HasPrefix(got, "types.yaml: ") {
		t.Fatalf("unexpected rendering with file %q", got)
	}
	if got := LocationFor(method).File; !strings.HasSuffix(got, "target_test.go") {
		t.Fatalf("expected method location to point at its file, got %q", got)
	}
	if got := LocationFor(class); got.Member != "" {
		t.Fatalf("class locations have no member: %+v", got)
	}
	if !(Location{}).IsZero() || (Location{File: "x"}).String() != "x" {
		t.Fatalf("unexpected zero location behaviour")
	}
}

type audit struct {
	CreatedBy string
}

func (*audit) Stamp() string { return "" }

type ledger struct {
	*audit
	invoice
	Entries int
}

func (ledger) Total() int { return 1 }

func TestPromotedMembers(t *testing.T) {
	typ := reflect.TypeOf(ledger{})

	tests := []struct {
		name      string
		target    func() (Target, error)
		declaring reflect.Type
		promoted  bool
		location  string
	}{
		{
			name:      "promoted field through pointer",
			target:    func() (Target, error) { return PropertyOf(typ, "CreatedBy") },
			declaring: reflect.TypeOf(audit{}),
			promoted:  true,
			location:  "github.com/goliatone/go-apidoc/pkg/annotation.audit.CreatedBy",
		},
		{
			name:      "promoted field through value",
			target:    func() (Target, error) { return PropertyOf(typ, "Number") },
			declaring: reflect.TypeOf(invoice{}),
			promoted:  true,
			location:  "github.com/goliatone/go-apidoc/pkg/annotation.invoice.Number",
		},
		{
			name:      "own field",
			target:    func() (Target, error) { return PropertyOf(typ, "Entries") },
			declaring: typ,
			location:  "github.com/goliatone/go-apidoc/pkg/annotation.ledger.Entries",
		},
		{
			name:      "promoted method",
			target:    func() (Target, error) { return MethodOf(typ, "Stamp") },
			declaring: reflect.TypeOf(audit{}),
			promoted:  true,
		},
		{
			name:      "shadowing method",
			target:    func() (Target, error) { return MethodOf(typ, "Total") },
			declaring: typ,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := tt.target()
			if err != nil {
				t.Fatalf("target: %v", err)
			}
			if target.Type() != typ {
				t.Fatalf("expected owner %s, got %s", typ, target.Type())
			}
			if target.DeclaringType() != tt.declaring {
				t.Fatalf("expected declaring %s, got %s", tt.declaring, target.DeclaringType())
			}
			if target.IsPromoted() != tt.promoted {
				t.Fatalf("expected promoted=%v", tt.promoted)
			}
			loc := LocationFor(target)
			if loc.Type != tt.declaring.Name() {
				t.Fatalf("expected location type %s, got %+v", tt.declaring.Name(), loc)
			}
			if tt.location != "" && loc.String() != tt.location {
				t.Fatalf("unexpected location %q", loc.String())
			}
			if target.Kind() == TargetMethod && !strings.HasSuffix(loc.File, "target_test.go") {
				t.Fatalf("expected method file to point at the declaration, got %q", loc.File)
			}
		})
	}
}
