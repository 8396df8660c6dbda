package domain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

const shapesSource = `// shapes used across the library
include <constants.scad>

module rounded_rectangle(width, depth, height, radius = 1) {
    hull() {
        for (x = [radius, width - radius], y = [radius, depth - radius]) {
            translate([x, y, 0]) cylinder(r = radius, h = height);
        }
    }
}

module pattern_linear(x = 1, y = 1, sx = 0, sy = 0) {
    for (i = [0:x-1], j = [0:y-1])
        translate([i*sx, j*sy, 0]) children();
}

module empty_marker() {}

  module   spaced ( a=[1, 2], b = "x,y" ) {
    echo(a, b);
}

module unterminated(a) {
    cube(a);
`

func sourceLines() []string {
	return strings.Split(shapesSource, "\n")
}

func TestExtractFromLines(t *testing.T) {
	tests := []struct {
		name     string
		module   string
		wantArgs []string
		wantBody []string
	}{
		{
			name:     "nested braces",
			module:   "rounded_rectangle",
			wantArgs: []string{"width", "depth", "height", "radius = 1"},
			wantBody: []string{
				"    hull() {",
				"        for (x = [radius, width - radius], y = [radius, depth - radius]) {",
				"            translate([x, y, 0]) cylinder(r = radius, h = height);",
				"        }",
				"    }",
			},
		},
		{
			name:     "body without braces",
			module:   "pattern_linear",
			wantArgs: []string{"x = 1", "y = 1", "sx = 0", "sy = 0"},
			wantBody: []string{
				"    for (i = [0:x-1], j = [0:y-1])",
				"        translate([i*sx, j*sy, 0]) children();",
			},
		},
		{
			name:   "header closes on its own line",
			module: "empty_marker",
		},
		{
			name:     "indented header with vector and string arguments",
			module:   "spaced",
			wantArgs: []string{"a=[1, 2]", `b = "x,y"`},
			wantBody: []string{"    echo(a, b);"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := ExtractFromLines(tt.module, sourceLines())
			require.NoError(t, err)

			assert.Equal(t, tt.module, mod.Name)
			assert.Equal(t, tt.wantArgs, mod.Arguments)
			assert.Equal(t, len(tt.wantBody), len(mod.Content))

			if len(tt.wantBody) > 0 {
				assert.Equal(t, tt.wantBody, mod.Content)
			}
		})
	}
}

func TestExtractFromLines_Errors(t *testing.T) {
	t.Run("unknown module", func(t *testing.T) {
		_, err := ExtractFromLines("missing", sourceLines())
		require.ErrorIs(t, err, m.ErrModuleNotFound)
		require.ErrorIs(t, err, m.ErrNotFound)
	})

	t.Run("prefix of another module name", func(t *testing.T) {
		_, err := ExtractFromLines("pattern", sourceLines())
		require.ErrorIs(t, err, m.ErrNotFound)
	})

	t.Run("never closed", func(t *testing.T) {
		_, err := ExtractFromLines("unterminated", sourceLines())
		require.ErrorIs(t, err, m.ErrModuleNotFound)
		assert.Contains(t, err.Error(), "never closed")
	})

	t.Run("call site is not a definition", func(t *testing.T) {
		_, err := ExtractFromLines("hull", sourceLines())
		require.ErrorIs(t, err, m.ErrNotFound)
	})

	t.Run("header without opening brace", func(t *testing.T) {
		lines := []string{"module split(a)", "{", "}"}
		_, err := ExtractFromLines("split", lines)
		require.ErrorIs(t, err, m.ErrNotFound)
	})
}

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shapes.scad")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(shapesSource, "\n", "\r\n")), 0o600))

	extractor := NewExtractor(adapter.NewLocalSourceFSAdapter())

	mod, err := extractor.Extract(ctx, "spaced", m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"    echo(a, b);"}, mod.Content)

	_, err = extractor.Extract(ctx, "missing", m.Path(path))
	require.ErrorIs(t, err, m.ErrNotFound)
	assert.Contains(t, err.Error(), path)

	_, err = extractor.Extract(ctx, "spaced", m.Path(filepath.Join(t.TempDir(), "nope.scad")))
	require.ErrorIs(t, err, os.ErrNotExist)
}
