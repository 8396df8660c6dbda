package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the harness. Every failure wraps exactly one of them
// so callers can tell them apart with errors.Is.
var (
	// ErrConfiguration covers unsupported platforms and unresolved renderers.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound covers missing modules, fixtures and include files.
	ErrNotFound = errors.New("not found")
	// ErrRender is returned when the renderer exits non-zero or reports an ERROR line.
	ErrRender = errors.New("render failed")
	// ErrMismatch is returned when a rendered artifact differs from its fixture.
	ErrMismatch = errors.New("artifacts differ")
	// ErrParse is returned when an artifact cannot be parsed.
	ErrParse = errors.New("parse error")
)

// Specialised kinds.
var (
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform: %w", ErrConfiguration)
	ErrRendererNotFound    = fmt.Errorf("renderer not found: %w", ErrConfiguration)
	ErrModuleNotFound      = fmt.Errorf("module: %w", ErrNotFound)
	ErrFixtureMissing      = fmt.Errorf("expected fixture: %w", ErrNotFound)
)

// RenderError carries the renderer's exit status and verbatim stderr.
type RenderError struct {
	ExitCode int
	Stderr   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("openscad failed (exit code %d) with message:\n%s", e.ExitCode, strings.TrimRight(e.Stderr, "\n"))
}

// Unwrap ties RenderError to ErrRender.
func (e *RenderError) Unwrap() error {
	return ErrRender
}

// MismatchError describes the first difference found between two artifacts.
type MismatchError struct {
	Kind   OutputKind
	Detail string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s files are not equal: %s", strings.ToUpper(string(e.Kind)), e.Detail)
}

// Unwrap ties MismatchError to ErrMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

// UnknownKindError is returned for output kinds the harness cannot produce.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown output kind %q", e.Kind)
}

// Unwrap ties UnknownKindError to ErrConfiguration.
func (e *UnknownKindError) Unwrap() error {
	return ErrConfiguration
}
