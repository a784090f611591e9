package describer

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizeTree cleans titles and descriptions of every inline node. Nodes
// pointing at components are left alone.
func sanitizeTree(policy *bluemonday.Policy, node *openapi3.SchemaRef) {
	if policy == nil {
		return
	}
	visited := make(map[*openapi3.Schema]struct{})
	var walk func(*openapi3.SchemaRef)
	walk = func(ref *openapi3.SchemaRef) {
		if ref == nil || ref.Ref != "" || ref.Value == nil {
			return
		}
		if _, ok := visited[ref.Value]; ok {
			return
		}
		visited[ref.Value] = struct{}{}
		ref.Value.Title = sanitizeText(policy, ref.Value.Title)
		ref.Value.Description = sanitizeText(policy, ref.Value.Description)
		for _, child := range children(ref.Value) {
			walk(child)
		}
	}
	walk(node)
}

func sanitizeText(policy *bluemonday.Policy, raw string) string {
	if raw == "" {
		return raw
	}
	return strings.TrimSpace(policy.Sanitize(raw))
}

func sortedKeys(schemas openapi3.Schemas) []string {
	keys := make([]string, 0, len(schemas))
	for key := range schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
