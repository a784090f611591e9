package annotation

// Reader looks up the annotation of a given kind on a target. A missing
// annotation is reported with ok=false and a nil error; errors are reserved
// for annotations that exist but cannot be parsed.
type Reader interface {
	Lookup(loc Location, target Target, kind Kind) (ann *Annotation, ok bool, err error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(loc Location, target Target, kind Kind) (*Annotation, bool, error)

// Lookup calls f.
func (f ReaderFunc) Lookup(loc Location, target Target, kind Kind) (*Annotation, bool, error) {
	return f(loc, target, kind)
}

// Chain returns a Reader that consults readers in order and returns the
// first hit. Nil readers are skipped.
func Chain(readers ...Reader) Reader {
	filtered := make([]Reader, 0, len(readers))
	for _, r := range readers {
		if r != nil {
			filtered = append(filtered, r)
		}
	}
	return chain(filtered)
}

type chain []Reader

func (c chain) Lookup(loc Location, target Target, kind Kind) (*Annotation, bool, error) {
	for _, r := range c {
		ann, ok, err := r.Lookup(loc, target, kind)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return ann, true, nil
		}
	}
	return nil, false, nil
}
