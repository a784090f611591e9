// Package file reads annotations from YAML documents keyed by Go type name:
//
//	github.com/acme/shop/models.User:
//	  schema: {description: A registered user}
//	  properties:
//	    Email: {property: email_address, format: email}
//	  methods:
//	    DisplayName: {type: string, readOnly: true}
//
// Keys may also use the short type name when it is unambiguous within the
// document.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// Entry holds the annotations of one type.
type Entry struct {
	Schema     map[string]any            `yaml:"schema,omitempty"`
	Properties map[string]map[string]any `yaml:"properties,omitempty"`
	Methods    map[string]map[string]any `yaml:"methods,omitempty"`
}

func (e Entry) declares(target annotation.Target) bool {
	switch target.Kind() {
	case annotation.TargetProperty:
		_, ok := e.Properties[target.Name()]
		return ok
	case annotation.TargetMethod:
		_, ok := e.Methods[target.Name()]
		return ok
	}
	return false
}

// Reader implements annotation.Reader over a decoded document.
type Reader struct {
	location string
	entries  map[string]Entry
	short    map[string]string
}

var _ annotation.Reader = (*Reader)(nil)

// New decodes doc into a Reader. Unknown sections are rejected.
func New(doc annotation.Document) (*Reader, error) {
	entries, err := Decode(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("annotation file: %s: %w", doc.Location(), err)
	}
	return newReader(doc.Location(), entries), nil
}

// Decode parses raw into entries keyed by type name.
func Decode(raw []byte) (map[string]Entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	entries := map[string]Entry{}
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		return nil, err
	}
	return entries, nil
}

func newReader(location string, entries map[string]Entry) *Reader {
	r := &Reader{
		location: location,
		entries:  entries,
		short:    make(map[string]string),
	}
	ambiguous := make(map[string]bool)
	for key := range entries {
		name := shortName(key)
		if name == key {
			continue
		}
		if _, seen := r.short[name]; seen {
			ambiguous[name] = true
		}
		r.short[name] = key
	}
	for name := range ambiguous {
		delete(r.short, name)
	}
	return r
}

// Types lists the type keys declared in the document.
func (r *Reader) Types() []string {
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the annotation of kind declared for target.
func (r *Reader) Lookup(loc annotation.Location, target annotation.Target, kind annotation.Kind) (*annotation.Annotation, bool, error) {
	entry, ok := r.entry(target)
	if !ok {
		return nil, false, nil
	}

	var fields map[string]any
	switch {
	case target.Kind() == annotation.TargetClass && kind == annotation.KindSchema:
		fields = entry.Schema
	case target.Kind() == annotation.TargetProperty && kind == annotation.KindProperty:
		fields = entry.Properties[target.Name()]
	case target.Kind() == annotation.TargetMethod && kind == annotation.KindProperty:
		fields = entry.Methods[target.Name()]
	}
	if fields == nil {
		return nil, false, nil
	}

	ann, err := annotation.NewAnnotation(kind, fields, loc.WithFile(r.location))
	if err != nil {
		return nil, false, err
	}
	return ann, true, nil
}

// entry finds the document entry for target. Promoted members are looked up
// on the declaring struct first, then on the struct embedding it.
func (r *Reader) entry(target annotation.Target) (Entry, bool) {
	if target.Type() == nil {
		return Entry{}, false
	}
	owners := []reflect.Type{target.DeclaringType()}
	if target.IsPromoted() {
		owners = append(owners, target.Type())
	}
	for _, owner := range owners {
		entry, ok := r.entryFor(owner)
		if !ok {
			continue
		}
		if target.IsPromoted() && !entry.declares(target) {
			continue
		}
		return entry, true
	}
	return Entry{}, false
}

func (r *Reader) entryFor(typ reflect.Type) (Entry, bool) {
	if entry, ok := r.entries[annotation.QualifiedName(typ)]; ok {
		return entry, true
	}
	if key, ok := r.short[typ.Name()]; ok {
		return r.entries[key], true
	}
	entry, ok := r.entries[typ.Name()]
	return entry, ok
}

func shortName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		switch key[i] {
		case '.':
			return key[i+1:]
		case '/':
			return key
		}
	}
	return key
}
