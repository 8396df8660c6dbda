package domain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	"scadtest.dev/pkg/scadtest/internal/mesh"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// maxDiffLines caps the unified diff attached to a vector mismatch.
const maxDiffLines = 20

// Comparator decides whether a rendered artifact matches its fixture.
type Comparator interface {
	// Compare returns nil when actual equals expected, a *model.MismatchError
	// when they differ and another error when either cannot be read.
	Compare(ctx context.Context, expected, actual m.Artifact) error
}

type comparator struct {
	fsAdapter adapter.SourceFSAdapter
}

// NewComparator returns a Comparator reading artifacts through fsAdapter.
func NewComparator(fsAdapter adapter.SourceFSAdapter) Comparator {
	return &comparator{fsAdapter: fsAdapter}
}

func (c *comparator) Compare(ctx context.Context, expected, actual m.Artifact) error {
	if expected.Kind != actual.Kind {
		return fmt.Errorf("%w: cannot compare %s with %s", m.ErrConfiguration, expected.Kind, actual.Kind)
	}

	switch actual.Kind {
	case m.KindMesh:
		return c.compareMesh(expected.Path, actual.Path)
	case m.KindVector:
		return c.compareVector(ctx, expected.Path, actual.Path)
	case m.KindImage:
	}

	return fmt.Errorf("%w: %s artifacts are not comparable", m.ErrConfiguration, actual.Kind)
}

func (c *comparator) compareMesh(expectedPath, actualPath m.Path) error {
	expected, err := mesh.ParseFile(expectedPath)
	if err != nil {
		slog.Error("Failed to parse expected mesh", "path", expectedPath, "error", err)
		return fmt.Errorf("expected mesh: %w", err)
	}

	actual, err := mesh.ParseFile(actualPath)
	if err != nil {
		slog.Error("Failed to parse rendered mesh", "path", actualPath, "error", err)
		return fmt.Errorf("rendered mesh: %w", err)
	}

	if detail := mesh.Diff(expected, actual); detail != "" {
		return &m.MismatchError{Kind: m.KindMesh, Detail: detail}
	}

	return nil
}

func (c *comparator) compareVector(ctx context.Context, expectedPath, actualPath m.Path) error {
	expected, err := c.fsAdapter.ReadFile(ctx, expectedPath)
	if err != nil {
		return fmt.Errorf("read expected: %w", err)
	}

	actual, err := c.fsAdapter.ReadFile(ctx, actualPath)
	if err != nil {
		return fmt.Errorf("read rendered: %w", err)
	}

	if bytes.Equal(expected, actual) {
		return nil
	}

	return &m.MismatchError{Kind: m.KindVector, Detail: vectorDiff(expected, actual, string(expectedPath), string(actualPath))}
}

func vectorDiff(expected, actual []byte, fromFile, toFile string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(string(actual)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  1,
	})
	if err != nil || text == "" {
		// Identical lines can still differ in line endings or a trailing newline.
		return fmt.Sprintf("contents differ (%d vs %d bytes)", len(expected), len(actual))
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > maxDiffLines {
		lines = append(lines[:maxDiffLines], fmt.Sprintf("... (%d more lines)", len(lines)-maxDiffLines))
	}

	return "\n" + strings.Join(lines, "\n")
}
