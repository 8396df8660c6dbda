package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// TestFileName is the synthesized file rendered for module tests.
const TestFileName = "test.scad"

// ParametersFileName is the parameter file written for integration tests that select a set.
const ParametersFileName = "params.json"

// RunOptions controls where a test finds its fixture and leaves its files.
type RunOptions struct {
	ExpectedDir m.Path
	ScratchRoot m.Path
	// Keep retains every scratch directory, including those of passing tests.
	Keep bool
	// Update copies the render over the fixture instead of comparing.
	Update bool
}

// Orchestrator runs one test case from fixture lookup to cleanup.
type Orchestrator interface {
	Run(ctx context.Context, tc m.TestCase, opts RunOptions) m.Report
}

type orchestrator struct {
	fsAdapter  adapter.SourceFSAdapter
	renderer   adapter.RendererAdapter
	comparator Comparator
}

// NewOrchestrator constructs an Orchestrator backed by the provided
// filesystem adapter, renderer and comparator.
func NewOrchestrator(fsAdapter adapter.SourceFSAdapter, renderer adapter.RendererAdapter, comparator Comparator) Orchestrator {
	return &orchestrator{
		fsAdapter:  fsAdapter,
		renderer:   renderer,
		comparator: comparator,
	}
}

func (o *orchestrator) Run(ctx context.Context, tc m.TestCase, opts RunOptions) m.Report {
	start := time.Now()
	report := m.Report{TestID: tc.ID, Kind: tc.Kind, Outcome: m.OK}

	scratch, err := o.runTest(ctx, tc, opts, &report)
	if err != nil {
		report.Outcome = m.NOK
		report.Error = err.Error()
		report.Err = err
	}

	if scratch != "" {
		report.ScratchDir = o.afterTest(ctx, scratch, report.Outcome, tc.Keep || opts.Keep)
	}

	report.Duration = time.Since(start)

	slog.Info("Test finished", "test", tc.ID, "outcome", report.Outcome, "duration", report.Duration)

	return report
}

// runTest returns the scratch directory once it exists, even on failure, so
// the caller can apply the retention policy.
func (o *orchestrator) runTest(ctx context.Context, tc m.TestCase, opts RunOptions, report *m.Report) (m.Path, error) {
	if err := tc.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", m.ErrConfiguration, err)
	}

	if !tc.Kind.Comparable() {
		return "", fmt.Errorf("%w: %s output cannot be compared", m.ErrConfiguration, tc.Kind)
	}

	fixture := o.fsAdapter.JoinPath(ctx, string(opts.ExpectedDir), tc.ID+tc.Kind.Extension())

	if !opts.Update {
		if err := o.checkFixture(ctx, fixture); err != nil {
			return "", err
		}
	}

	scratch, err := o.fsAdapter.CreateScratchDir(ctx, opts.ScratchRoot, tc.ID)
	if err != nil {
		slog.Error("Failed to create scratch dir", "test", tc.ID, "error", err)
		return "", fmt.Errorf("scratch dir: %w", err)
	}

	req, err := o.prepareRequest(ctx, tc, scratch)
	if err != nil {
		return scratch, err
	}

	artifact, err := o.renderer.Render(ctx, req)
	if err != nil {
		slog.Error("Render failed", "test", tc.ID, "error", err)
		return scratch, err
	}

	if opts.Update {
		if err := o.fsAdapter.CopyFile(ctx, artifact.Path, fixture); err != nil {
			slog.Error("Failed to update fixture", "fixture", fixture, "error", err)
			return scratch, fmt.Errorf("update fixture: %w", err)
		}

		report.Updated = true

		return scratch, nil
	}

	return scratch, o.comparator.Compare(ctx, m.Artifact{Path: fixture, Kind: tc.Kind}, artifact)
}

func (o *orchestrator) checkFixture(ctx context.Context, fixture m.Path) error {
	exists, err := o.fsAdapter.Exists(ctx, fixture)
	if err != nil {
		return fmt.Errorf("stat fixture: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", m.ErrFixtureMissing, fixture)
	}

	return nil
}

func (o *orchestrator) prepareRequest(ctx context.Context, tc m.TestCase, scratch m.Path) (adapter.RenderRequest, error) {
	output := o.fsAdapter.JoinPath(ctx, string(scratch), adapter.SanitizeTestID(tc.ID)+tc.Kind.Extension())

	if tc.Module != nil {
		input := o.fsAdapter.JoinPath(ctx, string(scratch), TestFileName)
		if err := o.fsAdapter.WriteFile(ctx, input, []byte(TestFileString(tc.Module)), 0o600); err != nil {
			slog.Error("Failed to write test file", "path", input, "error", err)
			return adapter.RenderRequest{}, fmt.Errorf("write test file: %w", err)
		}

		return adapter.RenderRequest{Input: input, Output: output}, nil
	}

	args := tc.Integration.CLIArgs()

	if params := tc.Integration.Parameters; params != nil && params.File != nil {
		paramsArgs, err := o.writeParameters(ctx, scratch, params)
		if err != nil {
			return adapter.RenderRequest{}, err
		}

		args = append(args, paramsArgs...)
	}

	return adapter.RenderRequest{Input: tc.Integration.File, Output: output, Args: args}, nil
}

func (o *orchestrator) writeParameters(ctx context.Context, scratch m.Path, params *m.ParameterSelection) ([]string, error) {
	data, err := params.File.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}

	path := o.fsAdapter.JoinPath(ctx, string(scratch), ParametersFileName)
	if err := o.fsAdapter.WriteFile(ctx, path, data, 0o600); err != nil {
		slog.Error("Failed to write parameter file", "path", path, "error", err)
		return nil, fmt.Errorf("write parameters: %w", err)
	}

	return []string{"-p", string(path), "-P", params.Set}, nil
}

// afterTest removes the scratch directory of a passing test unless keep is
// set. It returns the directory when it was retained.
func (o *orchestrator) afterTest(ctx context.Context, scratch m.Path, outcome m.Outcome, keep bool) m.Path {
	if outcome != m.OK || keep {
		slog.Debug("Keeping scratch dir", "dir", scratch, "outcome", outcome, "keep", keep)
		return scratch
	}

	if err := o.fsAdapter.RemoveAll(ctx, scratch); err != nil {
		slog.Warn("Failed to remove scratch dir", "dir", scratch, "error", err)
		return scratch
	}

	return ""
}
