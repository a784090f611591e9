package apidoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apidoc/pkg/orchestrator"
)

// Generator aliases the orchestrator so callers only import the root package.
type Generator = orchestrator.Orchestrator

// Option aliases orchestrator.Option.
type Option = orchestrator.Option

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewGenerator exposes the orchestrator constructor from the top-level module.
func NewGenerator(options ...Option) *Generator {
	return orchestrator.New(options...)
}

// Describe generates a document for the types of values using a generator
// configured with options. It is the simplest entry point for callers that
// only need struct tag annotations.
func Describe(ctx context.Context, values []any, options ...Option) (*openapi3.T, error) {
	return orchestrator.New(options...).Describe(ctx, values...)
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("apidoc: document is nil")
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("apidoc: encode json: %w", err)
	}
	return out, nil
}

// MarshalYAML renders doc as YAML with two-space indentation.
func MarshalYAML(doc *openapi3.T) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("apidoc: document is nil")
	}
	// The JSON form applies kin-openapi's field ordering and omissions.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("apidoc: encode json: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("apidoc: convert to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("apidoc: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("apidoc: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles inherited from the JSON input
// so the encoder emits block YAML and quotes only where needed.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
