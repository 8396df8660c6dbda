// Package controller provides output adapters for displaying test harness results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeList
	ModeView
	ModeBatch
	ModeWatch
)

func (s StartMode) title() string {
	switch s {
	case ModeList:
		return "Suite"
	case ModeView:
		return "Saved Reports"
	case ModeBatch:
		return "Batch Render"
	case ModeWatch:
		return "Watching"
	case ModeRun:
	}

	return "Test Run"
}

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode sets the UI to test execution mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithListMode sets the UI to suite listing mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithViewMode sets the UI to saved report mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// WithBatchMode sets the UI to batch rendering mode.
func WithBatchMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeBatch
	}
}

// WithWatchMode sets the UI to watch mode.
func WithWatchMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeWatch
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeRun}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI defines how the workflow reports progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplaySuite(ctx context.Context, cases []m.TestCase) error
	DisplayRunInfo(ctx context.Context, total int, threads int)
	DisplayStartingTest(ctx context.Context, tc m.TestCase)
	DisplayCompletedTest(ctx context.Context, report m.Report)
	DisplayReports(ctx context.Context, reports []m.Report) error
	DisplayBatchResult(ctx context.Context, result m.BatchResult)
	DisplayChange(ctx context.Context, path m.Path)
	DisplayText(ctx context.Context, text string)
}

// NewUI picks the TUI for terminals and the plain UI otherwise.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
