// Package describer bridges annotations and the model registry.
//
// AnnotationsReader looks up the schema annotation of a type and the property
// annotation of its members, registers the models they reference, and merges
// the valid ones into caller supplied schemas. Missing annotations are not
// errors; invalid ones are dropped according to the configured InvalidPolicy.
//
// ObjectDescriber and JSONSchemaDescriber implement model.Describer on top of
// it so registered Go types end up as components of the document.
package describer
