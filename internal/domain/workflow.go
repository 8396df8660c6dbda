package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	"scadtest.dev/pkg/scadtest/internal/controller"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// ErrTestsFailed is returned by Run when at least one test did not pass.
var ErrTestsFailed = errors.New("tests failed")

// RunArgs contains the arguments for running a suite.
type RunArgs struct {
	Suite   m.Path
	Reports m.Path
	// ExpectedDir is used unless the manifest names its own fixture directory.
	ExpectedDir m.Path
	ScratchRoot m.Path
	Threads     int
	Keep        bool
	Update      bool
	// Only is a regular expression selecting test ids.
	Only string
}

// ListArgs contains the arguments for listing a suite.
type ListArgs struct {
	Suite m.Path
	Only  string
}

// ViewArgs contains the arguments for viewing saved reports.
type ViewArgs struct {
	Reports m.Path
}

// ExtractArgs names a module and the file defining it.
type ExtractArgs struct {
	Module string
	File   m.Path
}

// SynthArgs selects a module test whose test file is printed.
type SynthArgs struct {
	Suite  m.Path
	TestID string
}

// CompareArgs names two artifacts of the same kind.
type CompareArgs struct {
	Expected m.Path
	Actual   m.Path
}

// RenderArgs describes a one-off render. The output kind follows the
// extension of Output and may be an image.
type RenderArgs struct {
	Design       m.Path
	Output       m.Path
	Variables    *m.NamedValues
	Parameters   m.Path
	ParameterSet string
	Camera       *m.Camera
	Args         []string
}

// BatchArgs describes a grid of renders of one design.
type BatchArgs struct {
	Design m.Path
	Grid   []GridAxis
	// Fixed variables are passed to every render; grid values win on conflicts.
	Fixed        *m.NamedValues
	NameTemplate string
	OutDir       m.Path
	Args         []string
	Threads      int
}

// WatchArgs contains the arguments for rerunning a suite on changes.
type WatchArgs struct {
	RunArgs
}

// Workflow defines the commands of the harness.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
	Extract(ctx context.Context, args ExtractArgs) error
	Synthesize(ctx context.Context, args SynthArgs) error
	Compare(ctx context.Context, args CompareArgs) error
	Render(ctx context.Context, args RenderArgs) error
	Batch(ctx context.Context, args BatchArgs) error
	Watch(ctx context.Context, args WatchArgs) error
}

type workflow struct {
	fsAdapter    adapter.SourceFSAdapter
	reportStore  adapter.ReportStore
	renderer     adapter.RendererAdapter
	watcher      adapter.Watcher
	ui           controller.UI
	loader       SuiteLoader
	orchestrator Orchestrator
	extractor    Extractor
	comparator   Comparator

	uiMu sync.Mutex
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	renderer adapter.RendererAdapter,
	watcher adapter.Watcher,
	ui controller.UI,
	loader SuiteLoader,
	orchestrator Orchestrator,
	extractor Extractor,
	comparator Comparator,
) Workflow {
	return &workflow{
		fsAdapter:    fsAdapter,
		reportStore:  reportStore,
		renderer:     renderer,
		watcher:      watcher,
		ui:           ui,
		loader:       loader,
		orchestrator: orchestrator,
		extractor:    extractor,
		comparator:   comparator,
	}
}

func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	if err := w.ui.Start(ctx, controller.WithRunMode()); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return err
	}

	defer w.ui.Close(ctx)

	_, reports, err := w.runSuite(ctx, args)
	if err != nil {
		return err
	}

	return failures(reports)
}

func (w *workflow) runSuite(ctx context.Context, args RunArgs) (*Suite, []m.Report, error) {
	suite, err := w.loader.Load(ctx, args.Suite)
	if err != nil {
		slog.Error("Failed to load suite", "suite", args.Suite, "error", err)
		return nil, nil, fmt.Errorf("load suite: %w", err)
	}

	cases, err := suite.Filter(args.Only)
	if err != nil {
		return suite, nil, err
	}

	opts := RunOptions{
		ExpectedDir: args.ExpectedDir,
		ScratchRoot: args.ScratchRoot,
		Keep:        args.Keep,
		Update:      args.Update,
	}

	if suite.ExpectedDir != "" {
		opts.ExpectedDir = suite.ExpectedDir
	}

	threads := max(args.Threads, 1)

	w.ui.DisplayRunInfo(ctx, len(cases), threads)

	reports := w.runCases(ctx, cases, opts, threads)

	if err := w.ui.DisplayReports(ctx, reports); err != nil {
		slog.Error("Failed to display reports", "error", err)
		return suite, reports, fmt.Errorf("display: %w", err)
	}

	if args.Reports != "" {
		if err := w.reportStore.SaveReports(ctx, args.Reports, reports); err != nil {
			return suite, reports, fmt.Errorf("save reports: %w", err)
		}
	}

	return suite, reports, nil
}

// runCases runs the cases on up to threads workers. Reports keep the order of cases.
func (w *workflow) runCases(ctx context.Context, cases []m.TestCase, opts RunOptions, threads int) []m.Report {
	reports := make([]m.Report, len(cases))

	var group errgroup.Group

	group.SetLimit(threads)

	for i, tc := range cases {
		group.Go(func() error {
			w.display(func() { w.ui.DisplayStartingTest(ctx, tc) })

			reports[i] = w.orchestrator.Run(ctx, tc, opts)

			w.display(func() { w.ui.DisplayCompletedTest(ctx, reports[i]) })

			return nil
		})
	}

	_ = group.Wait()

	return reports
}

// display serializes UI calls made from workers.
func (w *workflow) display(fn func()) {
	w.uiMu.Lock()
	defer w.uiMu.Unlock()

	fn()
}

func failures(reports []m.Report) error {
	failed := 0

	for _, report := range reports {
		if !report.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTestsFailed, failed, len(reports))
	}

	return nil
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	if err := w.ui.Start(ctx, controller.WithListMode()); err != nil {
		return err
	}

	defer w.ui.Close(ctx)

	suite, err := w.loader.Load(ctx, args.Suite)
	if err != nil {
		slog.Error("Failed to load suite", "suite", args.Suite, "error", err)
		return fmt.Errorf("load suite: %w", err)
	}

	cases, err := suite.Filter(args.Only)
	if err != nil {
		return err
	}

	return w.ui.DisplaySuite(ctx, cases)
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.ui.Start(ctx, controller.WithViewMode()); err != nil {
		return err
	}

	defer w.ui.Close(ctx)

	reports, err := w.reportStore.LoadReports(ctx, args.Reports)
	if err != nil {
		slog.Error("Failed to load reports", "dir", args.Reports, "error", err)
		return fmt.Errorf("load reports: %w", err)
	}

	return w.ui.DisplayReports(ctx, reports)
}

func (w *workflow) Extract(ctx context.Context, args ExtractArgs) error {
	module, err := w.extractor.Extract(ctx, args.Module, args.File)
	if err != nil {
		return err
	}

	w.ui.DisplayText(ctx, ModuleString(module))

	return nil
}

func (w *workflow) Synthesize(ctx context.Context, args SynthArgs) error {
	suite, err := w.loader.Load(ctx, args.Suite)
	if err != nil {
		return fmt.Errorf("load suite: %w", err)
	}

	tc, err := suite.Case(args.TestID)
	if err != nil {
		return err
	}

	if tc.Module == nil {
		return fmt.Errorf("%w: %q is an integration test and renders %s directly", m.ErrConfiguration, tc.ID, tc.Integration.File)
	}

	w.ui.DisplayText(ctx, TestFileString(tc.Module))

	return nil
}

func (w *workflow) Compare(ctx context.Context, args CompareArgs) error {
	expectedKind, err := m.ParseOutputKind(filepath.Ext(string(args.Expected)))
	if err != nil {
		return err
	}

	actualKind, err := m.ParseOutputKind(filepath.Ext(string(args.Actual)))
	if err != nil {
		return err
	}

	err = w.comparator.Compare(ctx,
		m.Artifact{Path: args.Expected, Kind: expectedKind},
		m.Artifact{Path: args.Actual, Kind: actualKind},
	)
	if err != nil {
		return err
	}

	w.ui.DisplayText(ctx, fmt.Sprintf("%s and %s are equal", args.Expected, args.Actual))

	return nil
}

func (w *workflow) Render(ctx context.Context, args RenderArgs) error {
	test := &m.IntegrationTest{
		File:        args.Design,
		Variables:   args.Variables,
		DefaultArgs: args.Args,
		Camera:      args.Camera,
	}

	cliArgs := test.CLIArgs()

	if args.Parameters != "" {
		file, err := LoadParameterFile(ctx, w.fsAdapter, args.Parameters)
		if err != nil {
			return err
		}

		if !file.HasSet(args.ParameterSet) {
			return fmt.Errorf("%w: parameter set %q in %s (have %v)", m.ErrNotFound, args.ParameterSet, args.Parameters, file.SetNames())
		}

		cliArgs = append(cliArgs, "-p", string(args.Parameters), "-P", args.ParameterSet)
	}

	artifact, err := w.renderer.Render(ctx, adapter.RenderRequest{Input: args.Design, Output: args.Output, Args: cliArgs})
	if err != nil {
		return err
	}

	w.ui.DisplayText(ctx, fmt.Sprintf("rendered %s (%s)", artifact.Path, artifact.Kind))

	return nil
}

func (w *workflow) Batch(ctx context.Context, args BatchArgs) error {
	if err := w.ui.Start(ctx, controller.WithBatchMode()); err != nil {
		return err
	}

	defer w.ui.Close(ctx)

	outputs, points, err := w.planBatch(ctx, args)
	if err != nil {
		return err
	}

	if err := w.fsAdapter.MkdirAll(ctx, args.OutDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	results := make([]m.BatchResult, len(points))

	var group errgroup.Group

	group.SetLimit(max(args.Threads, 1))

	for i, point := range points {
		group.Go(func() error {
			results[i] = w.renderPoint(ctx, args, outputs[i], point)

			w.display(func() { w.ui.DisplayBatchResult(ctx, results[i]) })

			return nil
		})
	}

	_ = group.Wait()

	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d batch renders", m.ErrRender, failed, len(results))
	}

	return nil
}

// planBatch expands the grid and names every output. Names must be unique.
func (w *workflow) planBatch(ctx context.Context, args BatchArgs) ([]m.Path, []*m.NamedValues, error) {
	points, err := GridPoints(args.Grid)
	if err != nil {
		return nil, nil, err
	}

	outputs := make([]m.Path, len(points))
	seen := make(map[m.Path]bool, len(points))

	for i, point := range points {
		name, err := ExpandName(args.NameTemplate, point, args.Fixed)
		if err != nil {
			return nil, nil, err
		}

		output := w.fsAdapter.JoinPath(ctx, string(args.OutDir), name)
		if seen[output] {
			return nil, nil, fmt.Errorf("%w: name template %q gives %s more than once", m.ErrConfiguration, args.NameTemplate, output)
		}

		seen[output] = true
		outputs[i] = output
	}

	return outputs, points, nil
}

func (w *workflow) renderPoint(ctx context.Context, args BatchArgs, output m.Path, point *m.NamedValues) m.BatchResult {
	exists, err := w.fsAdapter.Exists(ctx, output)
	if err != nil {
		return m.BatchResult{Output: output, Err: err}
	}

	if exists {
		return m.BatchResult{Output: output, Skipped: true}
	}

	variables := m.NewNamedValues()
	args.Fixed.Range(variables.Set)
	point.Range(variables.Set)

	test := &m.IntegrationTest{File: args.Design, Variables: variables, DefaultArgs: args.Args}

	_, err = w.renderer.Render(ctx, adapter.RenderRequest{Input: args.Design, Output: output, Args: test.CLIArgs()})
	if err != nil {
		slog.Error("Batch render failed", "output", output, "error", err)
	}

	return m.BatchResult{Output: output, Err: err}
}
