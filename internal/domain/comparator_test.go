package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// asciiSTL builds an ASCII STL holding one facet per triangle.
func asciiSTL(triangles ...[3][3]float64) string {
	var b strings.Builder

	b.WriteString("solid OpenSCAD_Model\n")

	for _, tri := range triangles {
		b.WriteString("  facet normal 0 0 1\n    outer loop\n")

		for _, v := range tri {
			fmt.Fprintf(&b, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}

		b.WriteString("    endloop\n  endfacet\n")
	}

	b.WriteString("endsolid OpenSCAD_Model\n")

	return b.String()
}

var (
	triA = [3][3]float64{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}
	triB = [3][3]float64{{10, 0, 0}, {10, 10, 0}, {0, 10, 0}}
	triC = [3][3]float64{{0, 0, 5}, {10, 0, 5}, {0, 10, 5}}
)

func writeArtifact(t *testing.T, dir, name, content string) m.Path {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return m.Path(path)
}

func TestComparator_Mesh(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewComparator(adapter.NewLocalSourceFSAdapter())

	expected := writeArtifact(t, dir, "expected.stl", asciiSTL(triA, triB))

	tests := []struct {
		name       string
		actual     string
		wantDetail string
	}{
		{"same facets", asciiSTL(triA, triB), ""},
		{"facets reordered", asciiSTL(triB, triA), ""},
		{"vertices rotated", asciiSTL([3][3]float64{triA[1], triA[2], triA[0]}, triB), ""},
		{"facet moved", asciiSTL(triA, triC), "expected facet #1"},
		{"facet missing", asciiSTL(triA), "facet count differs: expected 2, got 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := writeArtifact(t, dir, "actual.stl", tt.actual)

			err := c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindMesh}, m.Artifact{Path: actual, Kind: m.KindMesh})
			if tt.wantDetail == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, m.ErrMismatch)

			var mismatch *m.MismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, m.KindMesh, mismatch.Kind)
			assert.Contains(t, mismatch.Detail, tt.wantDetail)
			assert.True(t, strings.HasPrefix(err.Error(), "STL files are not equal"))
		})
	}
}

func TestComparator_MeshParseError(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewComparator(adapter.NewLocalSourceFSAdapter())

	expected := writeArtifact(t, dir, "expected.stl", asciiSTL(triA))
	broken := writeArtifact(t, dir, "broken.stl", "facet normal 0 0 1\n")

	err := c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindMesh}, m.Artifact{Path: broken, Kind: m.KindMesh})
	require.ErrorIs(t, err, m.ErrParse)
	assert.NotErrorIs(t, err, m.ErrMismatch)
}

func TestComparator_Vector(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewComparator(adapter.NewLocalSourceFSAdapter())

	svg := "<svg>\n<path d=\"M0,0 L10,0\"/>\n</svg>\n"
	expected := writeArtifact(t, dir, "expected.svg", svg)

	t.Run("identical bytes", func(t *testing.T) {
		actual := writeArtifact(t, dir, "same.svg", svg)
		require.NoError(t, c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindVector}, m.Artifact{Path: actual, Kind: m.KindVector}))
	})

	t.Run("changed line shows a diff", func(t *testing.T) {
		actual := writeArtifact(t, dir, "changed.svg", strings.Replace(svg, "L10,0", "L12,0", 1))

		err := c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindVector}, m.Artifact{Path: actual, Kind: m.KindVector})

		var mismatch *m.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, m.KindVector, mismatch.Kind)
		assert.Contains(t, mismatch.Detail, `-<path d="M0,0 L10,0"/>`)
		assert.Contains(t, mismatch.Detail, `+<path d="M0,0 L12,0"/>`)
		assert.True(t, strings.HasPrefix(err.Error(), "SVG files are not equal"))
	})

	t.Run("line endings only", func(t *testing.T) {
		actual := writeArtifact(t, dir, "crlf.svg", strings.ReplaceAll(svg, "\n", "\r\n"))

		err := c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindVector}, m.Artifact{Path: actual, Kind: m.KindVector})
		require.ErrorIs(t, err, m.ErrMismatch)
	})

	t.Run("long diff is truncated", func(t *testing.T) {
		var a, b strings.Builder
		for i := range 50 {
			fmt.Fprintf(&a, "<line n=\"%d\"/>\n", i)
			fmt.Fprintf(&b, "<line n=\"%d\" x=\"1\"/>\n", i)
		}

		exp := writeArtifact(t, dir, "long_expected.svg", a.String())
		act := writeArtifact(t, dir, "long_actual.svg", b.String())

		err := c.Compare(ctx, m.Artifact{Path: exp, Kind: m.KindVector}, m.Artifact{Path: act, Kind: m.KindVector})

		var mismatch *m.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Contains(t, mismatch.Detail, "more lines)")
		assert.LessOrEqual(t, strings.Count(mismatch.Detail, "\n"), maxDiffLines+1)
	})

	t.Run("missing file", func(t *testing.T) {
		err := c.Compare(ctx, m.Artifact{Path: expected, Kind: m.KindVector}, m.Artifact{Path: m.Path(filepath.Join(dir, "none.svg")), Kind: m.KindVector})
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestComparator_KindErrors(t *testing.T) {
	ctx := context.Background()
	c := NewComparator(adapter.NewLocalSourceFSAdapter())

	err := c.Compare(ctx, m.Artifact{Path: "a.stl", Kind: m.KindMesh}, m.Artifact{Path: "a.svg", Kind: m.KindVector})
	require.ErrorIs(t, err, m.ErrConfiguration)

	err = c.Compare(ctx, m.Artifact{Path: "a.png", Kind: m.KindImage}, m.Artifact{Path: "b.png", Kind: m.KindImage})
	require.ErrorIs(t, err, m.ErrConfiguration)
}
