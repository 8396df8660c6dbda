package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

func loadSuite(t *testing.T, manifest string, files map[string]string, defaultArgs []string) (*Suite, string, error) {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	fs := adapter.NewLocalSourceFSAdapter()
	loader := NewSuiteLoader(adapter.NewSuiteStore(), fs, NewExtractor(fs), defaultArgs)

	suite, err := loader.Load(context.Background(), m.Path(path))

	return suite, dir, err
}

func TestSuiteLoader_ModuleTest(t *testing.T) {
	manifest := `
tests:
  - id: pattern_linear.test_x_axis
    module: {name: pattern_linear, file: lib/shapes.scad}
    kwargs: {x: 3, sx: 10}
    children:
      - {name: cube, size: [1, 2, 3], center: true}
    dependencies:
      - {name: rounded_rectangle, file: lib/shapes.scad}
      - {name: helper, arguments: [a], content: ["    sphere(a);"]}
    constants: [lib/constants.scad]
    globals: {fn: 32}
`

	suite, dir, err := loadSuite(t, manifest, map[string]string{
		"lib/shapes.scad":    shapesSource,
		"lib/constants.scad": "BASE = 42;\n",
	}, nil)
	require.NoError(t, err)
	require.Len(t, suite.Cases, 1)

	tc := suite.Cases[0]
	assert.Equal(t, m.KindMesh, tc.Kind)
	require.NotNil(t, tc.Module)
	assert.Nil(t, tc.Integration)

	assert.Equal(t, "pattern_linear(x=3,sx=10){\ncube([1, 2, 3],true);\n};", CallString(tc.Module.Module))
	require.Len(t, tc.Module.Dependencies, 2)
	assert.Equal(t, "rounded_rectangle", tc.Module.Dependencies[0].Name)
	assert.Equal(t, []string{"a"}, tc.Module.Dependencies[1].Arguments)

	constants := m.Path(filepath.Join(dir, "lib", "constants.scad"))
	assert.Equal(t, []m.Path{constants}, tc.Module.ConstantFiles)
	assert.Equal(t, []string{"fn"}, tc.Module.Globals.Keys())

	assert.Equal(t, []m.Path{
		m.Path(filepath.Join(dir, "suite.yaml")),
		m.Path(filepath.Join(dir, "lib", "shapes.scad")),
		constants,
	}, suite.Sources)
}

func TestSuiteLoader_IntegrationTest(t *testing.T) {
	manifest := `
expected_dir: fixtures
tests:
  - id: bins.small
    kind: svg
    design: bins.scad
    variables: {gridx: 2, label: '"A"'}
    parameters: {file: bins.json, set: small}
    camera: {translate: [0, 0, 0], rotate: [55, 0, 25], distance: 140}
  - id: bins.custom_defaults
    design: bins.scad
    default_args: ["-D$fn=8"]
`

	suite, dir, err := loadSuite(t, manifest, map[string]string{
		"bins.scad": "gridx = 1;\n",
		"bins.json": `{"parameterSets":{"small":{"gridy":"1"}},"fileFormatVersion":"1"}`,
	}, []string{"--export-format=binstl"})
	require.NoError(t, err)
	require.Len(t, suite.Cases, 2)

	assert.Equal(t, m.Path(filepath.Join(dir, "fixtures")), suite.ExpectedDir)

	small := suite.Cases[0].Integration
	require.NotNil(t, small)
	assert.Equal(t, m.KindVector, suite.Cases[0].Kind)
	assert.Equal(t, m.Path(filepath.Join(dir, "bins.scad")), small.File)
	assert.Equal(t, []string{"-Dgridx=2", `-Dlabel="A"`, "--export-format=binstl", "--camera=0,0,0,55,0,25,140"}, small.CLIArgs())
	require.NotNil(t, small.Parameters)
	assert.Equal(t, "small", small.Parameters.Set)

	custom := suite.Cases[1].Integration
	assert.Equal(t, []string{"-D$fn=8"}, custom.CLIArgs())

	assert.Contains(t, suite.Sources, m.Path(filepath.Join(dir, "bins.json")))
}

func TestSuiteLoader_Errors(t *testing.T) {
	files := map[string]string{
		"shapes.scad": shapesSource,
		"bins.scad":   "cube(1);\n",
		"bins.json":   `{"parameterSets":{"small":{}},"fileFormatVersion":1}`,
	}

	tests := []struct {
		name     string
		manifest string
		wantErr  error
	}{
		{"module and design", "tests:\n  - id: a\n    module: {name: m}\n    design: bins.scad\n", m.ErrConfiguration},
		{"neither module nor design", "tests:\n  - id: a\n", m.ErrConfiguration},
		{"image kind", "tests:\n  - id: a\n    kind: png\n    design: bins.scad\n", m.ErrConfiguration},
		{"unknown kind", "tests:\n  - id: a\n    kind: obj\n    design: bins.scad\n", m.ErrConfiguration},
		{"missing design", "tests:\n  - id: a\n    design: other.scad\n", m.ErrNotFound},
		{"missing module", "tests:\n  - id: a\n    module: {name: nope, file: shapes.scad}\n", m.ErrNotFound},
		{"missing constants", "tests:\n  - id: a\n    module: {name: m}\n    constants: [c.scad]\n", m.ErrNotFound},
		{"unknown parameter set", "tests:\n  - id: a\n    design: bins.scad\n    parameters: {file: bins.json, set: large}\n", m.ErrNotFound},
		{"size on other module", "tests:\n  - id: a\n    module: {name: m}\n    children: [{name: sphere, size: [1, 2]}]\n", m.ErrConfiguration},
		{"cube size length", "tests:\n  - id: a\n    module: {name: m}\n    children: [{name: cube, size: [1, 2]}]\n", m.ErrConfiguration},
		{"module without name", "tests:\n  - id: a\n    module: {content: [x]}\n", m.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := loadSuite(t, tt.manifest, files, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), `test "a"`)
		})
	}
}

func TestSuite_FilterAndCase(t *testing.T) {
	suite := &Suite{Path: "suite.yaml", Cases: []m.TestCase{{ID: "bins.a"}, {ID: "bins.b"}, {ID: "shapes.c"}}}

	all, err := suite.Filter("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bins, err := suite.Filter(`^bins\.`)
	require.NoError(t, err)
	assert.Len(t, bins, 2)

	_, err = suite.Filter("[")
	require.ErrorIs(t, err, m.ErrConfiguration)

	tc, err := suite.Case("shapes.c")
	require.NoError(t, err)
	assert.Equal(t, "shapes.c", tc.ID)

	_, err = suite.Case("missing")
	require.ErrorIs(t, err, m.ErrNotFound)
}
