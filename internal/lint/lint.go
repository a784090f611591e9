// Package lint checks annotation files for fragments that would be dropped at
// generation time and can rewrite files without them.
package lint

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apidoc/internal/annotation/file"
	"github.com/goliatone/go-apidoc/pkg/annotation"
)

// Violation describes one problem found in an annotation file.
type Violation struct {
	File     string
	Location string
	Message  string
	// Prunable reports whether removing the fragment fixes the violation.
	Prunable bool
}

func (v Violation) String() string {
	if v.Location == "" {
		return fmt.Sprintf("%s: %s", v.File, v.Message)
	}
	return fmt.Sprintf("%s: %s -> %s", v.File, v.Location, v.Message)
}

// Report is the outcome of linting one document.
type Report struct {
	Violations []Violation
	// Pruned holds the entries without invalid fragments. Nil when the
	// document could not be decoded.
	Pruned map[string]file.Entry
}

// Prunable reports whether at least one violation can be fixed by pruning.
func (r Report) Prunable() bool {
	for _, v := range r.Violations {
		if v.Prunable {
			return true
		}
	}
	return false
}

// Lint decodes doc and validates every fragment it declares.
func Lint(ctx context.Context, doc annotation.Document) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	name := doc.Location()
	entries, err := file.Decode(doc.Raw())
	if err != nil {
		return Report{Violations: []Violation{{File: name, Message: err.Error()}}}, nil
	}

	report := Report{Pruned: make(map[string]file.Entry, len(entries))}
	for _, typeName := range sortedKeys(entries) {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		entry := entries[typeName]
		kept := file.Entry{}

		if entry.Schema != nil {
			path := []string{typeName, "schema"}
			if v, ok := checkFragment(ctx, name, path, annotation.KindSchema, entry.Schema); ok {
				kept.Schema = entry.Schema
			} else {
				report.Violations = append(report.Violations, v)
			}
		}
		kept.Properties, report.Violations = checkMembers(ctx, name, typeName, "properties", entry.Properties, report.Violations)
		kept.Methods, report.Violations = checkMembers(ctx, name, typeName, "methods", entry.Methods, report.Violations)

		if kept.Schema != nil || len(kept.Properties) > 0 || len(kept.Methods) > 0 {
			report.Pruned[typeName] = kept
		}
	}
	Sort(report.Violations)
	return report, nil
}

func checkMembers(ctx context.Context, name, typeName, section string, members map[string]map[string]any, violations []Violation) (map[string]map[string]any, []Violation) {
	if len(members) == 0 {
		return nil, violations
	}
	kept := make(map[string]map[string]any, len(members))
	for _, member := range sortedKeys(members) {
		path := []string{typeName, section, member}
		v, ok := checkFragment(ctx, name, path, annotation.KindProperty, members[member])
		if !ok {
			violations = append(violations, v)
			continue
		}
		kept[member] = members[member]
	}
	return kept, violations
}

func checkFragment(ctx context.Context, name string, path []string, kind annotation.Kind, fields map[string]any) (Violation, bool) {
	fail := func(message string) (Violation, bool) {
		return Violation{File: name, Location: formatLocation(path), Message: message, Prunable: true}, false
	}
	if message, ok := checkModelRefs(fields); !ok {
		return fail(message)
	}
	// the violation carries the location, keep messages bare
	ann, err := annotation.NewAnnotation(kind, fields, annotation.Location{})
	if err != nil {
		return fail(unwrap(err))
	}
	result := ann.Check(ctx)
	if !result.OK() {
		return fail(unwrap(result.Reason))
	}
	return Violation{}, true
}

// checkModelRefs walks decoded fields looking for malformed x-model values.
func checkModelRefs(node any) (string, bool) {
	switch v := node.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			if key == annotation.ModelExtension {
				if _, err := annotation.ModelRefFrom(v[key]); err != nil {
					return err.Error(), false
				}
				continue
			}
			if message, ok := checkModelRefs(v[key]); !ok {
				return message, false
			}
		}
	case []any:
		for _, item := range v {
			if message, ok := checkModelRefs(item); !ok {
				return message, false
			}
		}
	}
	return "", true
}

// Encode renders pruned entries as an annotation file.
func Encode(entries map[string]file.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("lint: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("lint: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Sort orders violations by file, location and message.
func Sort(violations []Violation) {
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Location == violations[j].Location {
				return violations[i].Message < violations[j].Message
			}
			return violations[i].Location < violations[j].Location
		}
		return violations[i].File < violations[j].File
	})
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}

func unwrap(err error) string {
	return strings.TrimPrefix(err.Error(), "annotation: ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
