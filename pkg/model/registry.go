package model

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// ComponentPrefix is the JSON pointer prefix of registered components.
const ComponentPrefix = "#/components/schemas/"

var (
	// ErrUnknownModelType is returned when a model reference names a type
	// that was never registered with the registry.
	ErrUnknownModelType = errors.New("model: unknown model type")
	// ErrNoDescriber is returned when no describer supports a model.
	ErrNoDescriber = errors.New("model: no describer supports model")
)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Describer fills the component schema of a model in place.
type Describer interface {
	Supports(m Model) bool
	Describe(ctx context.Context, m Model, schema *openapi3.Schema) error
}

// Alias pins the component name of a type viewed through groups. Nil groups
// match models registered without groups.
type Alias struct {
	Name   string
	Type   reflect.Type
	Groups []string
}

type entry struct {
	model  Model
	name   string
	schema *openapi3.Schema
}

// Registry maps models to components of an OpenAPI document.
type Registry struct {
	mu         sync.Mutex
	doc        *openapi3.T
	types      map[string]reflect.Type
	ambiguous  map[string]bool
	aliases    []Alias
	entries    map[string]*entry
	order      []*entry
	pending    []*entry
	describers []Describer
}

// Option configures a Registry.
type Option func(*Registry)

// WithDocument writes components into doc instead of a fresh document.
func WithDocument(doc *openapi3.T) Option {
	return func(r *Registry) {
		if doc != nil {
			r.doc = doc
		}
	}
}

// WithTypes makes types resolvable by name from x-model references.
func WithTypes(types ...reflect.Type) Option {
	return func(r *Registry) {
		for _, t := range types {
			r.addType(t)
		}
	}
}

// WithAlias pins the component name for t viewed through groups.
func WithAlias(name string, t reflect.Type, groups []string) Option {
	return func(r *Registry) {
		r.aliases = append(r.aliases, Alias{Name: name, Type: New(t, nil, nil).Type, Groups: groups})
	}
}

// WithDescribers appends describers consulted by RegisterSchemas.
func WithDescribers(describers ...Describer) Option {
	return func(r *Registry) {
		r.Use(describers...)
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		types:     make(map[string]reflect.Type),
		ambiguous: make(map[string]bool),
		entries:   make(map[string]*entry),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.doc == nil {
		r.doc = NewDocument("API", "1.0.0")
	}
	if r.doc.Components == nil {
		r.doc.Components = &openapi3.Components{}
	}
	if r.doc.Components.Schemas == nil {
		r.doc.Components.Schemas = openapi3.Schemas{}
	}
	return r
}

// NewDocument returns an empty OpenAPI 3.0 document.
func NewDocument(title, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
}

// Use appends describers. Earlier describers take precedence.
func (r *Registry) Use(describers ...Describer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range describers {
		if d != nil {
			r.describers = append(r.describers, d)
		}
	}
}

// AddType makes t resolvable by its short and qualified names.
func (r *Registry) AddType(t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addType(t)
}

func (r *Registry) addType(t reflect.Type) {
	t = New(t, nil, nil).Type
	if t == nil {
		return
	}
	qualified := annotation.QualifiedName(t)
	r.types[qualified] = t
	short := t.Name()
	if short == "" || short == qualified {
		return
	}
	if existing, ok := r.types[short]; ok && existing != t {
		r.ambiguous[short] = true
		return
	}
	r.types[short] = t
}

// ResolveType returns the type registered under name.
func (r *Registry) ResolveType(name string) (reflect.Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.TrimSpace(name)
	if r.ambiguous[name] {
		return nil, fmt.Errorf("%w: %q is ambiguous, use the qualified name", ErrUnknownModelType, name)
	}
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, name)
	}
	return t, nil
}

// Register returns the $ref and component schema for m, creating a pending
// placeholder on first sight. The placeholder is filled by RegisterSchemas.
func (r *Registry) Register(m Model) (string, *openapi3.Schema, error) {
	m = New(m.Type, m.Groups, m.Options)
	if m.Type == nil {
		return "", nil, errors.New("model: type is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hash := m.Hash()
	if e, ok := r.entries[hash]; ok {
		return ComponentPrefix + e.name, e.schema, nil
	}

	r.addType(m.Type)
	e := &entry{
		model:  m,
		name:   r.nameFor(m),
		schema: &openapi3.Schema{},
	}
	r.entries[hash] = e
	r.order = append(r.order, e)
	r.pending = append(r.pending, e)
	r.doc.Components.Schemas[e.name] = &openapi3.SchemaRef{Value: e.schema}
	return ComponentPrefix + e.name, e.schema, nil
}

func (r *Registry) nameFor(m Model) string {
	for _, alias := range r.aliases {
		if alias.Type == m.Type && groupsEqual(alias.Groups, m.Groups) {
			if name := sanitizeName(alias.Name); name != "" && !r.taken(name) {
				return name
			}
		}
	}
	base := sanitizeName(m.Type.Name())
	if base == "" {
		base = "Model"
	}
	name := base
	for i := 2; r.taken(name); i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

func (r *Registry) taken(name string) bool {
	_, ok := r.doc.Components.Schemas[name]
	return ok
}

// RegisterSchemas describes every pending model, including models registered
// while describing others.
func (r *Registry) RegisterSchemas(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, describers, ok := r.next()
		if !ok {
			return nil
		}
		if err := describe(ctx, describers, e); err != nil {
			return err
		}
	}
}

func (r *Registry) next() (*entry, []Describer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil, nil, false
	}
	e := r.pending[0]
	r.pending = r.pending[1:]
	return e, append([]Describer(nil), r.describers...), true
}

func describe(ctx context.Context, describers []Describer, e *entry) error {
	for _, d := range describers {
		if !d.Supports(e.model) {
			continue
		}
		if err := d.Describe(ctx, e.model, e.schema); err != nil {
			return fmt.Errorf("model: describe %s: %w", e.name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s (%s)", ErrNoDescriber, e.name, e.model)
}

// Document returns the document components are written into.
func (r *Registry) Document() *openapi3.T {
	return r.doc
}

// Name returns the component name of a registered model.
func (r *Registry) Name(m Model) (string, bool) {
	m = New(m.Type, m.Groups, m.Options)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[m.Hash()]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Models returns registered models sorted by component name.
func (r *Registry) Models() []Model {
	r.mu.Lock()
	entries := append([]*entry(nil), r.order...)
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})
	out := make([]Model, len(entries))
	for i, e := range entries {
		out[i] = e.model
	}
	return out
}

// Pending reports how many models still wait for a describer.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func sanitizeName(name string) string {
	return strings.Trim(invalidNameChars.ReplaceAllString(name, "_"), "_")
}
