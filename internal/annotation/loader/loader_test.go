package loader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-apidoc/pkg/annotation"
)

func TestLoaderReadsFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annotations.yaml")
	if err := os.WriteFile(path, []byte("example.User: {}\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := New(annotation.NewLoaderOptions()).Load(context.Background(), annotation.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := string(doc.Raw()); got != "example.User: {}\n" {
		t.Fatalf("unexpected payload %q", got)
	}
	if doc.Location() != path {
		t.Fatalf("expected location %q, got %q", path, doc.Location())
	}
}

func TestLoaderReadsFSSource(t *testing.T) {
	files := fstest.MapFS{
		"docs/annotations.yaml": {Data: []byte("example.User: {}")},
	}
	l := New(annotation.NewLoaderOptions(annotation.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), annotation.SourceFromFS("docs/annotations.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Raw()) == 0 {
		t.Fatalf("expected payload")
	}
}

func TestLoaderRejectsHTTPWhenDisabled(t *testing.T) {
	src, err := annotation.SourceFromURL("https://example.com/annotations.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	_, err = New(annotation.NewLoaderOptions()).Load(context.Background(), src)
	if !errors.Is(err, ErrHTTPDisabled) || !strings.Contains(err.Error(), "example.com") {
		t.Fatalf("expected http disabled error, got %v", err)
	}
}

func TestLoaderFetchesHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/huge.yaml" {
			_, _ = w.Write(bytes.Repeat([]byte("#"), maxDocumentBytes+1))
			return
		}
		if r.URL.Path != "/annotations.yaml" {
			http.NotFound(w, r)
			return
		}
		if !strings.Contains(r.Header.Get("Accept"), "application/yaml") {
			http.Error(w, "yaml only", http.StatusNotAcceptable)
			return
		}
		_, _ = w.Write([]byte("example.User: {}"))
	}))
	defer server.Close()

	l := New(annotation.NewLoaderOptions(annotation.WithHTTPClient(server.Client())))

	src, err := annotation.SourceFromURL(server.URL + "/annotations.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != "example.User: {}" {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}

	missing, _ := annotation.SourceFromURL(server.URL + "/missing.yaml")
	if _, err := l.Load(context.Background(), missing); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error for missing document, got %v", err)
	}

	huge, _ := annotation.SourceFromURL(server.URL + "/huge.yaml")
	if _, err := l.Load(context.Background(), huge); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(annotation.NewLoaderOptions()).Load(ctx, annotation.SourceFromFile("annotations.yaml"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
