// Package annotation exposes the metadata model consumed by the describer:
// reflected targets (types, fields, methods), the annotations attached to
// them, and the Reader contract used to look annotations up by kind.
// Concrete readers live under internal/annotation and are constructed through
// the root apidoc package so consumers never depend on their internals.
package annotation
