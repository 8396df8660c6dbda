// Package domain implements the scadtest harness: module extraction, test file
// synthesis, artifact comparison and the per-test and per-suite workflows.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// Extractor locates module definitions in OpenSCAD source files.
type Extractor interface {
	Extract(ctx context.Context, name string, file m.Path) (*m.Module, error)
}

type extractor struct {
	fsAdapter adapter.SourceFSAdapter
}

// NewExtractor returns an Extractor reading source files through fsAdapter.
func NewExtractor(fsAdapter adapter.SourceFSAdapter) Extractor {
	return &extractor{fsAdapter: fsAdapter}
}

func (e *extractor) Extract(ctx context.Context, name string, file m.Path) (*m.Module, error) {
	lines, err := e.fsAdapter.ReadLines(ctx, file)
	if err != nil {
		slog.Error("Failed to read source file", "file", file, "error", err)
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	module, err := ExtractFromLines(name, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	slog.Debug("Extracted module", "module", name, "file", file, "lines", len(module.Content))

	return module, nil
}

// ExtractFromLines finds the definition of module name in lines.
//
// The header must sit on one line and open the body on that line. The body
// ends on the first line where the cumulative count of "{" equals the count
// of "}", counting from the header; that line is not part of Content. Braces
// inside string literals and comments are counted like any other brace.
func ExtractFromLines(name string, lines []string) (*m.Module, error) {
	header := headerPattern(name)

	for i, line := range lines {
		loc := header.FindStringIndex(line)
		if loc == nil {
			continue
		}

		arguments, ok := headerArguments(line[loc[1]-1:])
		if !ok {
			continue
		}

		warnAmbiguousBraces(name, i, line)

		open, closed := countBraces(line)
		if open == closed {
			return m.NewModule(name, nil, arguments), nil
		}

		for j := i + 1; j < len(lines); j++ {
			warnAmbiguousBraces(name, j, lines[j])

			o, c := countBraces(lines[j])
			open += o
			closed += c

			if open == closed {
				content := make([]string, j-i-1)
				copy(content, lines[i+1:j])

				return m.NewModule(name, content, arguments), nil
			}
		}

		return nil, fmt.Errorf("%w: %q is never closed", m.ErrModuleNotFound, name)
	}

	return nil, fmt.Errorf("%w: %q", m.ErrModuleNotFound, name)
}

func headerPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*module\s+` + regexp.QuoteMeta(name) + `\s*\(`)
}

// headerArguments parses "(a, b=[1,2]) {" into its trimmed arguments. It
// reports false when the parentheses do not close or no "{" follows them.
func headerArguments(rest string) ([]string, bool) {
	depth := 0
	end := -1

	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}

		if depth == 0 {
			end = i
			break
		}
	}

	if end < 0 || !strings.Contains(rest[end:], "{") {
		return nil, false
	}

	return splitArguments(rest[1:end]), true
}

// splitArguments splits on commas that are not nested in brackets or strings.
func splitArguments(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		args    []string
		depth   int
		inQuote bool
		start   int
	)

	for i, r := range text {
		switch {
		case r == '"' && (i == 0 || text[i-1] != '\\'):
			inQuote = !inQuote
		case inQuote:
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			args = appendArgument(args, text[start:i])
			start = i + 1
		}
	}

	return appendArgument(args, text[start:])
}

func appendArgument(args []string, arg string) []string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return args
	}

	return append(args, arg)
}

func countBraces(line string) (int, int) {
	return strings.Count(line, "{"), strings.Count(line, "}")
}

func warnAmbiguousBraces(name string, index int, line string) {
	if !strings.ContainsAny(line, "{}") {
		return
	}

	if strings.Contains(line, "//") || strings.Contains(line, `"`) {
		slog.Warn("Brace in string or comment is counted as code", "module", name, "line", index+1)
	}
}
