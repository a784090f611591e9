// Package orchestrator wires the annotation loader, readers, model registry
// and describers into a single pipeline that turns Go types into an OpenAPI
// document.
package orchestrator
