// Package model defines the data structures shared by the scadtest harness.
package model

// Path represents a file system path.
type Path string

// OutputKind identifies the artifact a render produces and selects the
// comparison applied to it.
type OutputKind string

const (
	// KindMesh is an STL mesh, compared facet by facet.
	KindMesh OutputKind = "stl"
	// KindVector is an SVG image, compared byte by byte.
	KindVector OutputKind = "svg"
	// KindImage is a PNG preview. Images are rendered but never compared.
	KindImage OutputKind = "png"
)

// Extension returns the file extension (with dot) used for artifacts of the kind.
func (k OutputKind) Extension() string {
	return "." + string(k)
}

// Comparable reports whether fixtures of this kind can be checked.
func (k OutputKind) Comparable() bool {
	return k == KindMesh || k == KindVector
}

// ParseOutputKind maps a kind name or file extension ("stl", ".svg") to an OutputKind.
// An empty name is unknown, callers with a default must apply it first.
func ParseOutputKind(s string) (OutputKind, error) {
	if len(s) > 0 && s[0] == '.' {
		s = s[1:]
	}

	switch OutputKind(s) {
	case KindMesh:
		return KindMesh, nil
	case KindVector:
		return KindVector, nil
	case KindImage:
		return KindImage, nil
	}

	return "", &UnknownKindError{Kind: s}
}

// Artifact is the handle to a rendered file and its declared kind.
type Artifact struct {
	Path Path
	Kind OutputKind
}
