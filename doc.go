// Package apidoc generates OpenAPI component schemas from Go types. Schemas
// are derived from struct fields and refined by annotations attached through
// struct tags or YAML annotation files:
//
//	type User struct {
//		_     struct{} `openapi:"{description: A registered user}"`
//		Email string   `json:"email" openapi:"{format: email}"`
//	}
//
//	doc, err := apidoc.NewGenerator().Describe(ctx, User{})
package apidoc
