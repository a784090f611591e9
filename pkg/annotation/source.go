package annotation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// Source identifies where an annotation document comes from.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type fileSource string

func (s fileSource) Kind() SourceKind { return SourceKindFile }
func (s fileSource) Location() string { return string(s) }

// SourceFromFile points at an annotation document on disk.
func SourceFromFile(path string) Source {
	return fileSource(filepath.Clean(path))
}

type fsSource string

func (s fsSource) Kind() SourceKind { return SourceKindFS }
func (s fsSource) Location() string { return string(s) }

// SourceFromFS points at an entry inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return fsSource(name)
}

type urlSource string

func (s urlSource) Kind() SourceKind { return SourceKindURL }
func (s urlSource) Location() string { return string(s) }

// SourceFromURL validates raw and returns a remote Source.
func SourceFromURL(raw string) (Source, error) {
	if raw == "" {
		return nil, errors.New("annotation: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("annotation: invalid URL %q: %w", raw, err)
	}
	return urlSource(raw), nil
}

// Document is a raw annotation document and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw and pairs it with src.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("annotation: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("annotation: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier, or "" for zero documents.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}
