package mesh

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Solid
		wantErr bool
	}{
		{
			name: "single facet",
			input: `solid OpenSCAD_Model
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1.5 0 0
      vertex 0 -2e-3 0
    endloop
  endfacet
endsolid OpenSCAD_Model
`,
			want: &Solid{Name: "OpenSCAD_Model", Facets: []Facet{
				{Normal: Vector{0, 0, 1}, Vertices: []Vector{{0, 0, 0}, {1.5, 0, 0}, {0, -0.002, 0}}},
			}},
		},
		{
			name:  "solid without facets",
			input: "solid empty\nendsolid empty\n",
			want:  &Solid{Name: "empty"},
		},
		{
			name:  "solid without name",
			input: "solid\nendsolid\n",
			want:  &Solid{},
		},
		{
			name:  "content after endsolid is ignored",
			input: "solid a\nendsolid a\nsolid b\n facet normal 1 0 0\n vertex 0 0 0\n endfacet\nendsolid b\n",
			want:  &Solid{Name: "a"},
		},
		{name: "no solid line", input: "facet normal 0 0 1\nvertex 0 0 0\nendfacet\n", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
		{name: "normal with two components", input: "solid a\nfacet normal 0 1\nendfacet\nendsolid\n", wantErr: true},
		{name: "vertex with bad number", input: "solid a\nfacet normal 0 0 1\nvertex 0 x 0\nendfacet\nendsolid\n", wantErr: true},
		{name: "vertex outside facet", input: "solid a\nvertex 0 0 0\nendsolid\n", wantErr: true},
		{name: "unterminated facet", input: "solid a\nfacet normal 0 0 1\nvertex 0 0 0\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, m.ErrParse)

				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFile_Fixtures(t *testing.T) {
	t.Run("reversed vertex order is equal", func(t *testing.T) {
		a, err := ParseFile(m.Path(filepath.Join("testdata", "triangle.stl")))
		require.NoError(t, err)
		b, err := ParseFile(m.Path(filepath.Join("testdata", "triangle_reversed.stl")))
		require.NoError(t, err)

		assert.True(t, a.Equal(b))
	})

	t.Run("empty solid yields no facets", func(t *testing.T) {
		s, err := ParseFile(m.Path(filepath.Join("testdata", "empty.stl")))
		require.NoError(t, err)
		assert.Empty(t, s.Facets)
	})

	t.Run("missing solid line", func(t *testing.T) {
		_, err := ParseFile(m.Path(filepath.Join("testdata", "no_solid.stl")))
		require.ErrorIs(t, err, m.ErrParse)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseFile(m.Path(filepath.Join("testdata", "does_not_exist.stl")))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestParseFile_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.stl")
	writeBinarySTL(t, path, [][4][3]float32{
		{{0, 0, 1}, {0, 0, 0}, {10, 0, 0}, {0, 10, 0}},
	})

	binarySolid, err := ParseFile(m.Path(path))
	require.NoError(t, err)
	require.Len(t, binarySolid.Facets, 1)

	asciiSolid, err := ParseFile(m.Path(filepath.Join("testdata", "triangle_reversed.stl")))
	require.NoError(t, err)

	assert.True(t, asciiSolid.Equal(binarySolid))
}

// writeBinarySTL writes facets as {normal, v1, v2, v3} in the binary layout:
// 80 byte header, uint32 count, then 50 bytes per triangle.
func writeBinarySTL(t *testing.T, path string, facets [][4][3]float32) {
	t.Helper()

	var buf bytes.Buffer

	header := make([]byte, 80)
	copy(header, "binary test mesh")
	buf.Write(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(facets))))

	for _, f := range facets {
		for _, vec := range f {
			for _, c := range vec {
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(c)))
			}
		}

		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}
