package annotation

// Status classifies the outcome of an adapter call.
type Status int

const (
	// StatusAbsent means no annotation was attached; the target is untouched.
	StatusAbsent Status = iota
	// StatusValid means the annotation passed validation.
	StatusValid
	// StatusMerged means a valid annotation was merged into the target.
	StatusMerged
	// StatusInvalid means the annotation failed validation and was dropped.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusMerged:
		return "merged"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result reports what happened to an annotation lookup.
type Result struct {
	Status     Status
	Annotation *Annotation
	Location   Location
	// Reason holds the validation failure for StatusInvalid.
	Reason error
}

// Absent is the result for targets without an annotation.
func Absent() Result {
	return Result{Status: StatusAbsent}
}

// Valid wraps an annotation that passed validation.
func Valid(ann *Annotation) Result {
	return Result{Status: StatusValid, Annotation: ann, Location: ann.Location}
}

// Invalid records a validation failure.
func Invalid(loc Location, reason error) Result {
	return Result{Status: StatusInvalid, Location: loc, Reason: reason}
}

// Merged marks a valid result as applied to its target.
func (r Result) Merged() Result {
	if r.Status == StatusValid {
		r.Status = StatusMerged
	}
	return r
}

// OK reports whether the annotation is usable.
func (r Result) OK() bool {
	return r.Status == StatusValid || r.Status == StatusMerged
}
