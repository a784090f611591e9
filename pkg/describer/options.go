package describer

import (
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// InvalidPolicy decides what happens to annotations failing validation.
type InvalidPolicy string

const (
	// DropInvalid discards invalid annotations silently.
	DropInvalid InvalidPolicy = "drop"
	// LogInvalid discards invalid annotations and logs a warning.
	LogInvalid InvalidPolicy = "log"
)

var validate = validator.New()

// Options configures an AnnotationsReader.
type Options struct {
	InvalidPolicy InvalidPolicy `validate:"required,oneof=drop log"`
	Logger        *slog.Logger  `validate:"required"`

	// Sanitizer cleans descriptions and titles before they are merged.
	Sanitizer *bluemonday.Policy `validate:"-"`

	// Validation is forwarded to kin-openapi schema validation.
	Validation []openapi3.ValidationOption `validate:"-"`
}

// Option mutates Options prior to construction.
type Option func(*Options)

// WithInvalidPolicy selects how invalid annotations are reported.
func WithInvalidPolicy(policy InvalidPolicy) Option {
	return func(opts *Options) {
		opts.InvalidPolicy = policy
	}
}

// WithLogger routes merge conflicts and dropped annotations to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithSanitizer cleans description and title markup with policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(opts *Options) {
		opts.Sanitizer = policy
	}
}

// WithUGCSanitizer is WithSanitizer using bluemonday's user content policy.
func WithUGCSanitizer() Option {
	return WithSanitizer(bluemonday.UGCPolicy())
}

// WithValidationOptions forwards options to kin-openapi validation.
func WithValidationOptions(options ...openapi3.ValidationOption) Option {
	return func(opts *Options) {
		opts.Validation = append(opts.Validation, options...)
	}
}

// NewOptions applies options over the defaults and validates the result.
func NewOptions(options ...Option) (Options, error) {
	cfg := Options{
		InvalidPolicy: DropInvalid,
		Logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return Options{}, fmt.Errorf("describer: invalid options: %w", err)
	}
	return cfg, nil
}
