package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/internal/annotation/file"
	internalLoader "github.com/goliatone/go-apidoc/internal/annotation/loader"
	"github.com/goliatone/go-apidoc/internal/annotation/tags"
	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/describer"
	"github.com/goliatone/go-apidoc/pkg/model"
)

const (
	defaultTitle   = "API"
	defaultVersion = "1.0.0"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom annotation document loader.
func WithLoader(loader annotation.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithReaders registers annotation readers consulted before annotation files
// and struct tags.
func WithReaders(readers ...annotation.Reader) Option {
	return func(o *Orchestrator) {
		o.readers = append(o.readers, readers...)
	}
}

// WithTagName reads struct tag annotations from tag instead of `openapi`.
// An empty tag disables struct tag annotations.
func WithTagName(tag string) Option {
	return func(o *Orchestrator) {
		o.tag = tag
		o.tagSpecified = true
	}
}

// WithInfo sets the title and version of generated documents.
func WithInfo(title, version string) Option {
	return func(o *Orchestrator) {
		o.title = title
		o.version = version
	}
}

// WithTypes makes types resolvable from x-model references without
// describing them as roots.
func WithTypes(types ...reflect.Type) Option {
	return func(o *Orchestrator) {
		o.registryOptions = append(o.registryOptions, model.WithTypes(types...))
	}
}

// WithAlias pins the component name of t viewed through groups.
func WithAlias(name string, t reflect.Type, groups []string) Option {
	return func(o *Orchestrator) {
		o.registryOptions = append(o.registryOptions, model.WithAlias(name, t, groups))
	}
}

// WithDescriberOptions configures the annotations reader shared by the
// built-in describers.
func WithDescriberOptions(options ...describer.Option) Option {
	return func(o *Orchestrator) {
		o.describerOptions = append(o.describerOptions, options...)
	}
}

// WithObjectOptions configures the built-in struct describer.
func WithObjectOptions(options ...describer.ObjectOption) Option {
	return func(o *Orchestrator) {
		o.objectOptions = append(o.objectOptions, options...)
	}
}

// WithDescribers registers describers consulted before the built-in ones.
func WithDescribers(describers ...model.Describer) Option {
	return func(o *Orchestrator) {
		o.describers = append(o.describers, describers...)
	}
}

// WithTransformers registers transformers run against the generated document
// before validation.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// WithoutValidation skips the final kin-openapi document validation.
func WithoutValidation() Option {
	return func(o *Orchestrator) {
		o.skipValidation = true
	}
}

// Orchestrator coordinates the pipeline from Go types and annotation sources
// to an OpenAPI document. Every Generate call works on a fresh registry, so
// component names never carry over between documents.
type Orchestrator struct {
	loader           annotation.Loader
	readers          []annotation.Reader
	tag              string
	tagSpecified     bool
	title            string
	version          string
	registryOptions  []model.Option
	describerOptions []describer.Option
	objectOptions    []describer.ObjectOption
	describers       []model.Describer
	transformers     []Transformer
	skipValidation   bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies fall back to the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs of a generation run.
type Request struct {
	// Sources lists annotation files fetched through the loader.
	Sources []annotation.Source

	// Documents allows callers to bypass the loader for annotation files they
	// already hold.
	Documents []annotation.Document

	// Models are the root models described into components.
	Models []model.Model

	// Document receives the components. A fresh document is created when nil.
	Document *openapi3.T
}

// Describe registers the types of values (or reflect.Type values) as root
// models without groups and returns the generated document.
func (o *Orchestrator) Describe(ctx context.Context, values ...any) (*openapi3.T, error) {
	models := make([]model.Model, 0, len(values))
	for _, value := range values {
		m, err := ModelOf(value)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return o.Generate(ctx, Request{Models: models})
}

// ModelOf converts a value, a reflect.Type or a model.Model into a Model.
func ModelOf(value any) (model.Model, error) {
	switch v := value.(type) {
	case nil:
		return model.Model{}, errors.New("orchestrator: model value is nil")
	case model.Model:
		return model.New(v.Type, v.Groups, v.Options), nil
	case reflect.Type:
		return model.New(v, nil, nil), nil
	default:
		return model.New(reflect.TypeOf(value), nil, nil), nil
	}
}

// Generate executes the loader → reader → registry → describer sequence and
// returns the populated document.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*openapi3.T, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Models) == 0 {
		return nil, errors.New("orchestrator: at least one model is required")
	}

	reader, err := o.reader(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := req.Document
	if doc == nil {
		doc = model.NewDocument(o.title, o.version)
	}
	registryOptions := append([]model.Option{model.WithDocument(doc)}, o.registryOptions...)
	for _, m := range req.Models {
		registryOptions = append(registryOptions, model.WithTypes(m.Type))
	}
	registry := model.NewRegistry(registryOptions...)

	annotations, err := describer.NewAnnotationsReader(reader, registry, o.describerOptions...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	registry.Use(o.describers...)
	registry.Use(
		describer.NewObjectDescriber(annotations, registry, o.objectOptions...),
		describer.NewJSONSchemaDescriber(),
	)

	for _, m := range req.Models {
		if _, _, err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("orchestrator: register %s: %w", m, err)
		}
	}
	if err := registry.RegisterSchemas(ctx); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	for _, t := range o.transformers {
		if err := t.Transform(ctx, doc); err != nil {
			return nil, fmt.Errorf("orchestrator: transform document: %w", err)
		}
	}

	if !o.skipValidation {
		if err := doc.Validate(ctx); err != nil {
			return nil, fmt.Errorf("orchestrator: validate document: %w", err)
		}
	}
	return doc, nil
}

// reader chains the configured readers, the requested annotation files and
// the struct tag reader, in that order of precedence.
func (o *Orchestrator) reader(ctx context.Context, req Request) (annotation.Reader, error) {
	readers := append([]annotation.Reader(nil), o.readers...)

	docs := append([]annotation.Document(nil), req.Documents...)
	for _, src := range req.Sources {
		if src == nil {
			continue
		}
		doc, err := o.loader.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load annotations: %w", err)
		}
		docs = append(docs, doc)
	}
	for _, doc := range docs {
		r, err := file.New(doc)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		readers = append(readers, r)
	}

	if o.tag != "" {
		readers = append(readers, tags.New(o.tag))
	}
	return annotation.Chain(readers...), nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(annotation.NewLoaderOptions())
	}
	if !o.tagSpecified {
		o.tag = tags.DefaultTag
	}
	if o.title == "" {
		o.title = defaultTitle
	}
	if o.version == "" {
		o.version = defaultVersion
	}
}
