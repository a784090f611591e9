package annotation

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
)

// TargetKind enumerates the reflected elements annotations attach to.
type TargetKind string

const (
	TargetClass    TargetKind = "class"
	TargetProperty TargetKind = "property"
	TargetMethod   TargetKind = "method"
)

// Target identifies a reflected struct type, one of its fields, or one of its
// methods. Targets are read-only views; build them with ClassOf, PropertyOf or
// MethodOf.
type Target struct {
	kind   TargetKind
	typ    reflect.Type
	field  reflect.StructField
	method reflect.Method
	// declaring is the struct that declares a promoted member.
	declaring reflect.Type
}

// ClassOf returns the class target for t. Pointer types are dereferenced.
func ClassOf(t reflect.Type) (Target, error) {
	t = indirect(t)
	if t == nil {
		return Target{}, errors.New("annotation: type is nil")
	}
	if t.Kind() != reflect.Struct {
		return Target{}, fmt.Errorf("annotation: %s is not a struct", t)
	}
	return Target{kind: TargetClass, typ: t}, nil
}

// PropertyOf returns the target for the named field declared on t.
func PropertyOf(t reflect.Type, name string) (Target, error) {
	class, err := ClassOf(t)
	if err != nil {
		return Target{}, err
	}
	field, ok := class.typ.FieldByName(name)
	if !ok {
		return Target{}, fmt.Errorf("annotation: %s has no field %q", class.typ, name)
	}
	return FieldTarget(class.typ, field), nil
}

// FieldTarget wraps an already resolved struct field of t. Fields promoted
// from embedded structs keep track of the struct declaring them.
func FieldTarget(t reflect.Type, field reflect.StructField) Target {
	t = indirect(t)
	return Target{kind: TargetProperty, typ: t, field: field, declaring: fieldOwner(t, field.Index)}
}

// MethodOf returns the target for the named method of t. Methods declared on
// the pointer receiver are found as well.
func MethodOf(t reflect.Type, name string) (Target, error) {
	class, err := ClassOf(t)
	if err != nil {
		return Target{}, err
	}
	method, ok := reflect.PointerTo(class.typ).MethodByName(name)
	if !ok {
		return Target{}, fmt.Errorf("annotation: %s has no method %q", class.typ, name)
	}
	return Target{kind: TargetMethod, typ: class.typ, method: method, declaring: methodOwner(class.typ, name)}, nil
}

// Kind reports which element the target refers to.
func (t Target) Kind() TargetKind {
	return t.kind
}

// Type returns the struct type the target was reached from.
func (t Target) Type() reflect.Type {
	return t.typ
}

// DeclaringType returns the struct that declares the member. It differs from
// Type for members promoted from embedded structs.
func (t Target) DeclaringType() reflect.Type {
	if t.declaring != nil {
		return t.declaring
	}
	return t.typ
}

// IsPromoted reports whether the member comes from an embedded struct.
func (t Target) IsPromoted() bool {
	return t.IsMember() && t.DeclaringType() != t.typ
}

// Field returns the struct field of a property target.
func (t Target) Field() reflect.StructField {
	return t.field
}

// Method returns the method of a method target.
func (t Target) Method() reflect.Method {
	return t.method
}

// Name returns the member name, or the type name for class targets.
func (t Target) Name() string {
	switch t.kind {
	case TargetProperty:
		return t.field.Name
	case TargetMethod:
		return t.method.Name
	case TargetClass:
		if t.typ != nil {
			return t.typ.Name()
		}
	}
	return ""
}

// IsMember reports whether the target is a field or a method.
func (t Target) IsMember() bool {
	return t.kind == TargetProperty || t.kind == TargetMethod
}

// QualifiedTypeName returns "pkgpath.Name" for the declaring type.
func (t Target) QualifiedTypeName() string {
	return QualifiedName(t.DeclaringType())
}

// QualifiedName renders a type as "pkgpath.Name". Unnamed types fall back to
// their string form.
func QualifiedName(t reflect.Type) string {
	t = indirect(t)
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func (t Target) file() string {
	if t.kind != TargetMethod {
		return ""
	}
	owner := t.DeclaringType()
	if file := methodFile(reflect.PointerTo(owner), t.method.Name); file != autogenerated {
		return file
	}
	if file := methodFile(owner, t.method.Name); file != autogenerated {
		return file
	}
	return methodFile(reflect.PointerTo(t.typ), t.method.Name)
}

const autogenerated = "<autogenerated>"

func methodFile(t reflect.Type, name string) string {
	method, ok := t.MethodByName(name)
	if !ok || !method.Func.IsValid() {
		return ""
	}
	fn := runtime.FuncForPC(method.Func.Pointer())
	if fn == nil {
		return ""
	}
	file, _ := fn.FileLine(fn.Entry())
	return file
}

// fieldOwner walks the embedding path of a promoted field down to the struct
// holding it.
func fieldOwner(t reflect.Type, index []int) reflect.Type {
	owner := t
	for i := 0; i+1 < len(index); i++ {
		if owner == nil || owner.Kind() != reflect.Struct || index[i] >= owner.NumField() {
			return t
		}
		owner = indirect(owner.Field(index[i]).Type)
	}
	return owner
}

// methodOwner follows embedded structs while the method is promoted rather
// than declared. Wrappers generated for promoted methods report an
// autogenerated file, which is how declared methods are told apart.
func methodOwner(t reflect.Type, name string) reflect.Type {
	owner := t
	for depth := 0; depth < maxEmbedDepth; depth++ {
		if declaresMethod(owner, name) {
			return owner
		}
		next := embeddedWithMethod(owner, name)
		if next == nil {
			return owner
		}
		owner = next
	}
	return owner
}

const maxEmbedDepth = 16

func declaresMethod(t reflect.Type, name string) bool {
	for _, candidate := range []reflect.Type{t, reflect.PointerTo(t)} {
		if file := methodFile(candidate, name); file != "" && file != autogenerated {
			return true
		}
	}
	return false
}

func embeddedWithMethod(t reflect.Type, name string) reflect.Type {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}
		embedded := indirect(field.Type)
		if embedded.Kind() != reflect.Struct {
			continue
		}
		if _, ok := reflect.PointerTo(embedded).MethodByName(name); ok {
			return embedded
		}
	}
	return nil
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
