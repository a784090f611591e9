package apidoc

import (
	"context"
	"fmt"

	"github.com/goliatone/go-apidoc/internal/annotation/file"
	internalLoader "github.com/goliatone/go-apidoc/internal/annotation/loader"
	"github.com/goliatone/go-apidoc/internal/annotation/tags"
	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// NewLoader constructs an annotation document loader while keeping the
// concrete type hidden from consumers.
func NewLoader(options ...annotation.LoaderOption) annotation.Loader {
	cfg := annotation.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewTagReader returns a reader for struct tag annotations. An empty tag
// selects `openapi`.
func NewTagReader(tag string) annotation.Reader {
	return tags.New(tag)
}

// NewFileReader loads src and returns a reader over its annotations.
func NewFileReader(ctx context.Context, src annotation.Source, options ...annotation.LoaderOption) (annotation.Reader, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("apidoc: load annotations: %w", err)
	}
	return NewDocumentReader(doc)
}

// NewDocumentReader returns a reader over an already loaded annotation file.
func NewDocumentReader(doc annotation.Document) (annotation.Reader, error) {
	r, err := file.New(doc)
	if err != nil {
		return nil, fmt.Errorf("apidoc: %w", err)
	}
	return r, nil
}
