package describer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-apidoc/pkg/annotation"
	"github.com/goliatone/go-apidoc/pkg/model"
)

// AnnotationsReader merges annotations found on types and members into
// schemas, registering the models they reference along the way.
type AnnotationsReader struct {
	reader   annotation.Reader
	register *ModelRegister
	opts     Options
}

// NewAnnotationsReader wires reader and registry together.
func NewAnnotationsReader(reader annotation.Reader, registry *model.Registry, options ...Option) (*AnnotationsReader, error) {
	if reader == nil {
		return nil, errors.New("describer: annotation reader is nil")
	}
	if registry == nil {
		return nil, errors.New("describer: model registry is nil")
	}
	opts, err := NewOptions(options...)
	if err != nil {
		return nil, err
	}
	return &AnnotationsReader{
		reader:   reader,
		register: NewModelRegister(registry),
		opts:     opts,
	}, nil
}

// UpdateSchema merges the schema annotation of class into schema. Without an
// annotation the schema is left untouched and the result is Absent.
func (r *AnnotationsReader) UpdateSchema(ctx context.Context, class annotation.Target, schema *openapi3.Schema) (annotation.Result, error) {
	if schema == nil {
		return annotation.Result{}, errors.New("describer: schema is nil")
	}
	if class.Kind() != annotation.TargetClass {
		return annotation.Result{}, fmt.Errorf("describer: UpdateSchema expects a class target, got %s", class.Kind())
	}

	ann, ok, err := r.reader.Lookup(annotation.LocationFor(class), class, annotation.KindSchema)
	if err != nil || !ok {
		return annotation.Absent(), err
	}
	if err := r.register.Register(ann, nil); err != nil {
		return annotation.Result{}, err
	}

	result := r.check(ctx, ann)
	if !result.OK() {
		return result, nil
	}

	sanitizeTree(r.opts.Sanitizer, ann.Schema)
	conflict := r.conflicts(ann.Location)
	if ann.Schema.Ref != "" {
		appendAllOf(schema, ann.Schema)
	} else {
		mergeSchema(schema, ann.Schema.Value, conflict)
	}
	return result.Merged(), nil
}

// PropertyName returns the name declared by the property annotation of
// member, or def when there is none.
func (r *AnnotationsReader) PropertyName(member annotation.Target, def string) (string, error) {
	if !member.IsMember() {
		return def, fmt.Errorf("describer: PropertyName expects a property or method target, got %s", member.Kind())
	}
	ann, ok, err := r.reader.Lookup(annotation.LocationFor(member), member, annotation.KindProperty)
	if err != nil {
		return def, err
	}
	if !ok || !ann.HasName() {
		return def, nil
	}
	return ann.Property, nil
}

// UpdateProperty merges the property annotation of member into property.
// Models referenced by the annotation are registered with groups unless they
// declare their own.
func (r *AnnotationsReader) UpdateProperty(ctx context.Context, member annotation.Target, property *openapi3.SchemaRef, groups []string) (annotation.Result, error) {
	if property == nil {
		return annotation.Result{}, errors.New("describer: property is nil")
	}
	if !member.IsMember() {
		return annotation.Result{}, fmt.Errorf("describer: UpdateProperty expects a property or method target, got %s", member.Kind())
	}

	ann, ok, err := r.reader.Lookup(annotation.LocationFor(member), member, annotation.KindProperty)
	if err != nil || !ok {
		return annotation.Absent(), err
	}
	if err := r.register.Register(ann, groups); err != nil {
		return annotation.Result{}, err
	}

	result := r.check(ctx, ann)
	if !result.OK() {
		return result, nil
	}

	sanitizeTree(r.opts.Sanitizer, ann.Schema)
	mergeRef(property, ann.Schema, r.conflicts(ann.Location))
	return result.Merged(), nil
}

func (r *AnnotationsReader) check(ctx context.Context, ann *annotation.Annotation) annotation.Result {
	result := ann.Check(ctx, r.opts.Validation...)
	if result.Status == annotation.StatusInvalid && r.opts.InvalidPolicy == LogInvalid {
		r.opts.Logger.WarnContext(ctx, "dropping invalid annotation",
			slog.String("location", result.Location.String()),
			slog.String("kind", string(ann.Kind)),
			slog.Any("error", result.Reason),
		)
	}
	return result
}

func (r *AnnotationsReader) conflicts(loc annotation.Location) conflictFunc {
	logger := r.opts.Logger
	return func(field string) {
		logger.Debug("annotation field already defined, keeping existing value",
			slog.String("location", loc.String()),
			slog.String("field", field),
		)
	}
}

// duplicate reports a member whose serialized name is already taken. The
// first member keeps the name.
func (r *AnnotationsReader) duplicate(loc annotation.Location, name string) {
	r.opts.Logger.Warn("property name already in use, skipping member",
		slog.String("location", loc.String()),
		slog.String("property", name),
	)
}
