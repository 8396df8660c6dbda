// Package mesh parses STL output and compares meshes geometrically.
//
// Comparison is exact: the renderer is deterministic for a fixed version and
// flag set, so fixtures are matched without any tolerance. Facet order and the
// winding order of vertices do not matter.
package mesh

import (
	"fmt"
	"strconv"
)

// Vector is a point or direction with exactly three components.
type Vector [3]float64

// NewVector builds a Vector from a slice, which must hold exactly 3 values.
func NewVector(numbers []float64) (Vector, error) {
	if len(numbers) != 3 {
		return Vector{}, fmt.Errorf("vector needs 3 components, got %d", len(numbers))
	}

	return Vector{numbers[0], numbers[1], numbers[2]}, nil
}

func (v Vector) String() string {
	return "[" + strconv.FormatFloat(v[0], 'g', -1, 64) + ", " +
		strconv.FormatFloat(v[1], 'g', -1, 64) + ", " +
		strconv.FormatFloat(v[2], 'g', -1, 64) + "]"
}

// Facet is one planar polygon: a normal and its vertices.
type Facet struct {
	Normal   Vector
	Vertices []Vector
}

// AddVertex appends a vertex.
func (f *Facet) AddVertex(v Vector) {
	f.Vertices = append(f.Vertices, v)
}

// Equal reports whether both facets have the same normal and the same vertex
// set. Vertex order is ignored.
func (f Facet) Equal(other Facet) bool {
	if f.Normal != other.Normal {
		return false
	}

	return containsAll(f.Vertices, other.Vertices) && containsAll(other.Vertices, f.Vertices)
}

func (f Facet) String() string {
	s := "normal " + f.Normal.String()
	for _, v := range f.Vertices {
		s += " vertex " + v.String()
	}

	return s
}

func containsAll(haystack, needles []Vector) bool {
	for _, n := range needles {
		found := false

		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// Solid is a named collection of facets.
type Solid struct {
	Name   string
	Facets []Facet
}

// AddFacet appends a sealed facet.
func (s *Solid) AddFacet(f Facet) {
	s.Facets = append(s.Facets, f)
}

// Equal reports whether both solids hold the same facets in any order.
// The solid names are not compared.
func (s *Solid) Equal(other *Solid) bool {
	return Diff(s, other) == ""
}

// Diff returns a description of the first difference between expected and
// actual, or "" when they are equal. Every facet of expected must be matched
// by a distinct facet of actual.
func Diff(expected, actual *Solid) string {
	if len(expected.Facets) != len(actual.Facets) {
		return fmt.Sprintf("facet count differs: expected %d, got %d", len(expected.Facets), len(actual.Facets))
	}

	used := make([]bool, len(actual.Facets))

	for i, want := range expected.Facets {
		matched := false

		for j, got := range actual.Facets {
			if used[j] || !want.Equal(got) {
				continue
			}

			used[j] = true
			matched = true

			break
		}

		if !matched {
			return fmt.Sprintf("expected facet #%d (%s) not found in actual mesh", i, want)
		}
	}

	return ""
}
