// Package adapter contains the infrastructure adapters used by the scadtest domain:
// filesystem access, the renderer process, suite manifests, reports and file watching.
package adapter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// ScratchDirPrefix prefixes every per-test scratch directory.
const ScratchDirPrefix = "oscad_generated_test_files."

// SourceFSAdapter abstracts the filesystem operations the domain layer relies
// on, so the orchestration logic can be tested against temporary directories.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// ReadLines loads a text file as lines without their line terminators.
	ReadLines(ctx context.Context, path m.Path) ([]string, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// Exists reports whether a regular file or directory exists at path.
	Exists(ctx context.Context, path m.Path) (bool, error)

	// CreateScratchDir creates a fresh scratch directory for a test under root,
	// removing a stale directory of the same name first.
	CreateScratchDir(ctx context.Context, root m.Path, testID string) (m.Path, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(ctx context.Context, path m.Path) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// CopyFile copies a single file, creating parent directories.
	CopyFile(ctx context.Context, src, dst m.Path) error

	// Abs returns an absolute version of path.
	Abs(ctx context.Context, path m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(ctx context.Context, elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ReadLines loads a text file as lines. CRLF terminators are stripped too.
func (a *LocalSourceFSAdapter) ReadLines(_ context.Context, path m.Path) ([]string, error) {
	// #nosec G304 - path is a design file chosen by the suite author
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	var lines []string

	reader := bufio.NewReader(f)

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}

		if errors.Is(err, io.EOF) {
			return lines, nil
		}

		if err != nil {
			return nil, err
		}
	}
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// Exists reports whether path exists.
func (a *LocalSourceFSAdapter) Exists(_ context.Context, path m.Path) (bool, error) {
	_, err := os.Stat(string(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// CreateScratchDir creates root/oscad_generated_test_files.<id>, replacing any stale copy.
func (a *LocalSourceFSAdapter) CreateScratchDir(_ context.Context, root m.Path, testID string) (m.Path, error) {
	dir := filepath.Join(string(root), ScratchDirPrefix+SanitizeTestID(testID))

	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("remove stale scratch dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	return m.Path(dir), nil
}

// MkdirAll creates a directory and any missing parents.
func (a *LocalSourceFSAdapter) MkdirAll(_ context.Context, path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyFile copies a single file.
func (a *LocalSourceFSAdapter) CopyFile(_ context.Context, src, dst m.Path) error {
	// #nosec G304 - src is a rendered artifact inside the scratch dir
	sourceFile, err := os.Open(string(src))
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(string(dst)), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is the fixture path derived from the test id
	destFile, err := os.Create(string(dst))
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// Abs returns an absolute path.
func (a *LocalSourceFSAdapter) Abs(_ context.Context, path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(_ context.Context, elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

// SanitizeTestID turns a test id into a single path component.
func SanitizeTestID(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(id)
}
