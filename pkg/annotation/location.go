package annotation

import "strings"

// Location carries the diagnostic position of an annotation lookup. It is
// passed explicitly to readers and to model registration so parse errors
// point at the member that declared the faulty annotation.
type Location struct {
	Package string
	Type    string
	Member  string
	File    string
}

// LocationFor derives the location of a target. Promoted members report the
// struct declaring them. File is only known for methods; readers backed by
// documents override it with the document path.
func LocationFor(target Target) Location {
	loc := Location{File: target.file()}
	if typ := target.DeclaringType(); typ != nil {
		loc.Package = typ.PkgPath()
		loc.Type = typ.Name()
	}
	if target.IsMember() {
		loc.Member = target.Name()
	}
	return loc
}

// WithFile returns a copy of the location pointing at file.
func (l Location) WithFile(file string) Location {
	l.File = file
	return l
}

// IsZero reports whether no position information is set.
func (l Location) IsZero() bool {
	return l == Location{}
}

// String renders "file: pkg.Type.Member", omitting unknown parts.
func (l Location) String() string {
	var parts []string
	if l.Package != "" {
		parts = append(parts, l.Package)
	}
	if l.Type != "" {
		parts = append(parts, l.Type)
	}
	if l.Member != "" {
		parts = append(parts, l.Member)
	}
	ident := strings.Join(parts, ".")
	switch {
	case l.File != "" && ident != "":
		return l.File + ": " + ident
	case l.File != "":
		return l.File
	default:
		return ident
	}
}
