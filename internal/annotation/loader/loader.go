package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// ErrHTTPDisabled is returned for URL sources when no client was configured.
var ErrHTTPDisabled = errors.New("http support disabled")

// fetcher reads the raw bytes behind a source location.
type fetcher func(ctx context.Context, location string) ([]byte, error)

// Loader fetches annotation documents. Each source kind maps to a fetcher;
// URL sources only get one when an HTTP client is available.
type Loader struct {
	fetchers map[annotation.SourceKind]fetcher
}

var _ annotation.Loader = (*Loader)(nil)

// New builds a Loader from resolved options.
func New(options annotation.LoaderOptions) *Loader {
	l := &Loader{
		fetchers: map[annotation.SourceKind]fetcher{
			annotation.SourceKindFile: readFile,
			annotation.SourceKindFS:   fsReader(options.FileSystem),
		},
	}
	if client := httpClient(options); client != nil {
		l.fetchers[annotation.SourceKindURL] = httpReader(client, options.RequestTimeout)
	}
	return l
}

func httpClient(options annotation.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if options.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	}
	return nil
}

// Load fetches the document behind src.
func (l *Loader) Load(ctx context.Context, src annotation.Source) (annotation.Document, error) {
	if src == nil {
		return annotation.Document{}, errors.New("annotation loader: source is nil")
	}
	fetch, ok := l.fetchers[src.Kind()]
	switch {
	case !ok && src.Kind() == annotation.SourceKindURL:
		return annotation.Document{}, fmt.Errorf("annotation loader: %s: %w", src.Location(), ErrHTTPDisabled)
	case !ok:
		return annotation.Document{}, fmt.Errorf("annotation loader: unsupported source kind %q", src.Kind())
	}
	if err := ctx.Err(); err != nil {
		return annotation.Document{}, err
	}
	data, err := fetch(ctx, src.Location())
	if err != nil {
		return annotation.Document{}, fmt.Errorf("annotation loader: %s: %w", src.Location(), err)
	}
	return annotation.NewDocument(src, data)
}
