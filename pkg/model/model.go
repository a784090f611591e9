package model

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// DefaultGroup is the implicit group of members without explicit groups.
const DefaultGroup = "Default"

// Model is a type viewed through a set of serialization groups.
type Model struct {
	Type    reflect.Type
	Groups  []string
	Options map[string]any
}

// New returns a Model for t, dereferencing pointer types. An empty group
// list means no group filtering, same as nil.
func New(t reflect.Type, groups []string, options map[string]any) Model {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if len(groups) == 0 {
		groups = nil
	}
	return Model{Type: t, Groups: groups, Options: options}
}

// Hash returns a canonical identity. Group order does not matter.
func (m Model) Hash() string {
	var b strings.Builder
	b.WriteString(annotation.QualifiedName(m.Type))
	if m.Groups != nil {
		groups := append([]string(nil), m.Groups...)
		sort.Strings(groups)
		b.WriteString("|groups=")
		b.WriteString(strings.Join(groups, ","))
	}
	if len(m.Options) > 0 {
		// encoding/json sorts map keys, giving a stable rendering.
		if raw, err := json.Marshal(m.Options); err == nil {
			b.WriteString("|options=")
			b.Write(raw)
		}
	}
	return b.String()
}

// Option returns the named option as a string.
func (m Model) Option(name string) string {
	value, _ := m.Options[name].(string)
	return value
}

// InGroups reports whether a member tagged with memberGroups is visible in
// the model. Models without groups see every member.
func (m Model) InGroups(memberGroups []string) bool {
	if m.Groups == nil {
		return true
	}
	if len(memberGroups) == 0 {
		memberGroups = []string{DefaultGroup}
	}
	for _, want := range m.Groups {
		for _, have := range memberGroups {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (m Model) String() string {
	return m.Hash()
}

func groupsEqual(a, b []string) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	left := append([]string(nil), a...)
	right := append([]string(nil), b...)
	sort.Strings(left)
	sort.Strings(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
