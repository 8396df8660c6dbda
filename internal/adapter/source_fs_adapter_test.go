package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

func TestLocalSourceFSAdapter_ReadLines(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"unix endings", "a\nb\n", []string{"a", "b"}},
		{"windows endings", "a\r\nb\r\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"empty file", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "design.scad")
			writeTestFile(t, path, tt.content)

			got, err := adapter.ReadLines(ctx, m.Path(path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := adapter.ReadLines(ctx, m.Path(filepath.Join(t.TempDir(), "missing.scad")))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLocalSourceFSAdapter_CreateScratchDir(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter()
	root := t.TempDir()

	dir, err := adapter.CreateScratchDir(ctx, m.Path(root), "pattern_linear.test_x_axis")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ScratchDirPrefix+"pattern_linear.test_x_axis"), string(dir))

	stale := filepath.Join(string(dir), "stale.stl")
	writeTestFile(t, stale, "solid stale\n")

	again, err := adapter.CreateScratchDir(ctx, m.Path(root), "pattern_linear.test_x_axis")
	require.NoError(t, err)
	assert.Equal(t, dir, again)

	_, err = os.Stat(stale)
	assert.ErrorIs(t, err, os.ErrNotExist, "stale content must be removed")

	info, err := os.Stat(string(again))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalSourceFSAdapter_CreateScratchDir_SanitizesID(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	root := t.TempDir()

	dir, err := adapter.CreateScratchDir(context.Background(), m.Path(root), "bins/default bin")
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(string(dir)))
	assert.Equal(t, ScratchDirPrefix+"bins_default_bin", filepath.Base(string(dir)))
}

func TestLocalSourceFSAdapter_ExistsAndCopy(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter()
	root := t.TempDir()

	src := filepath.Join(root, "out.svg")
	writeTestFile(t, src, "<svg/>")

	ok, err := adapter.Exists(ctx, m.Path(src))
	require.NoError(t, err)
	assert.True(t, ok)

	dst := filepath.Join(root, "expected", "nested", "out.svg")
	ok, err = adapter.Exists(ctx, m.Path(dst))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, adapter.CopyFile(ctx, m.Path(src), m.Path(dst)))

	data, err := adapter.ReadFile(ctx, m.Path(dst))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	require.NoError(t, adapter.RemoveAll(ctx, m.Path(filepath.Join(root, "expected"))))
	ok, err = adapter.Exists(ctx, m.Path(dst))
	require.NoError(t, err)
	assert.False(t, ok)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
