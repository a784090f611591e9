// Package model tracks the Go types referenced while describing an API and
// turns them into reusable components under #/components/schemas.
//
// A Model is a type plus the serialization groups and options it is viewed
// through; two references to the same type with different groups produce two
// components. Registration hands back a $ref and a placeholder schema right
// away, and RegisterSchemas later fills every placeholder through the
// configured Describers.
package model
