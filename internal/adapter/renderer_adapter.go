package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// OutputFlag precedes the output path on the renderer command line.
const OutputFlag = "-o"

// errorLinePrefix marks failures the renderer reports on stderr while still
// exiting with status 0.
const errorLinePrefix = "ERROR:"

// waitDelay bounds how long a cancelled render may keep its output pipes open.
const waitDelay = 2 * time.Second

// RenderRequest describes a single renderer invocation.
type RenderRequest struct {
	Input  m.Path
	Output m.Path
	Args   []string
}

// RendererAdapter runs the external renderer.
type RendererAdapter interface {
	// Render produces req.Output from req.Input. It returns the artifact handle
	// on success and a *model.RenderError when the renderer reports a failure.
	Render(ctx context.Context, req RenderRequest) (m.Artifact, error)
}

// LocalRendererAdapter runs OpenSCAD through os/exec.
type LocalRendererAdapter struct {
	override string
	baseArgs []string
	timeout  time.Duration
	platform func() (Platform, error)
}

// RendererOption configures a LocalRendererAdapter.
type RendererOption func(*LocalRendererAdapter)

// WithExecutable forces the renderer executable instead of the platform default.
func WithExecutable(path string) RendererOption {
	return func(a *LocalRendererAdapter) {
		a.override = path
	}
}

// WithBaseArgs adds flags passed to every invocation after the request's own flags.
func WithBaseArgs(args ...string) RendererOption {
	return func(a *LocalRendererAdapter) {
		a.baseArgs = append(a.baseArgs, args...)
	}
}

// WithTimeout bounds each invocation. Zero waits indefinitely.
func WithTimeout(timeout time.Duration) RendererOption {
	return func(a *LocalRendererAdapter) {
		a.timeout = timeout
	}
}

// NewLocalRendererAdapter constructs a renderer adapter for the host platform.
// The executable is resolved on each render so commands that never render
// work without OpenSCAD installed.
func NewLocalRendererAdapter(opts ...RendererOption) *LocalRendererAdapter {
	a := &LocalRendererAdapter{platform: HostPlatform}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// CommandArgs builds the argument vector for a request: output flag, output
// path, input path, request flags and finally the adapter's base flags.
func (a *LocalRendererAdapter) CommandArgs(req RenderRequest) []string {
	args := make([]string, 0, 3+len(req.Args)+len(a.baseArgs))
	args = append(args, OutputFlag, string(req.Output), string(req.Input))
	args = append(args, req.Args...)
	args = append(args, a.baseArgs...)

	return args
}

// Render runs the renderer and classifies the result.
func (a *LocalRendererAdapter) Render(ctx context.Context, req RenderRequest) (m.Artifact, error) {
	kind, err := m.ParseOutputKind(filepath.Ext(string(req.Output)))
	if err != nil {
		return m.Artifact{}, err
	}

	platform, err := a.platform()
	if err != nil && a.override == "" {
		return m.Artifact{}, err
	}

	executable, err := ResolveRenderer(platform, a.override)
	if err != nil {
		slog.Error("Failed to resolve renderer", "platform", platform, "override", a.override, "error", err)
		return m.Artifact{}, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := a.CommandArgs(req)
	// #nosec G204 - the executable is the configured renderer
	cmd := exec.CommandContext(ctx, executable, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	slog.Debug("Running renderer", "executable", executable, "args", args)

	start := time.Now()
	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			slog.Error("Failed to start renderer", "executable", executable, "error", runErr)
			return m.Artifact{}, fmt.Errorf("run %s: %w", executable, runErr)
		}

		exitCode = exitErr.ExitCode()
	}

	// A process that exited cleanly before the deadline keeps its own verdict.
	if runErr != nil && ctx.Err() != nil {
		return m.Artifact{}, &m.RenderError{ExitCode: exitCode, Stderr: stderr.String() + "\n" + ctx.Err().Error()}
	}

	if err := Classify(exitCode, stderr.String()); err != nil {
		slog.Warn("Renderer reported failure", "input", req.Input, "exitCode", exitCode, "stderr", stderr.String())
		return m.Artifact{}, err
	}

	slog.Debug("Renderer finished", "output", req.Output, "elapsed", time.Since(start), "stdout", stdout.String())

	return m.Artifact{Path: req.Output, Kind: kind}, nil
}

// Classify turns an exit code and stderr text into a render verdict.
// A non-zero exit code fails, and so does exit code 0 when stderr holds a
// line starting with "ERROR:".
func Classify(exitCode int, stderr string) error {
	if exitCode != 0 || HasErrorLine(stderr) {
		return &m.RenderError{ExitCode: exitCode, Stderr: stderr}
	}

	return nil
}

// HasErrorLine reports whether any line of stderr starts with "ERROR:".
func HasErrorLine(stderr string) bool {
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), errorLinePrefix) {
			return true
		}
	}

	return false
}
