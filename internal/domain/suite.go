package domain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"scadtest.dev/pkg/scadtest/internal/adapter"
	m "scadtest.dev/pkg/scadtest/internal/model"
)

// Suite is a loaded manifest with every test resolved to a runnable case.
type Suite struct {
	Path m.Path
	Root m.Path
	// ExpectedDir is the manifest's fixture directory, empty when the
	// manifest leaves it to the configuration.
	ExpectedDir m.Path
	Cases       []m.TestCase
	// Sources lists the manifest and every file the cases read, without duplicates.
	Sources []m.Path
}

// Filter returns the cases whose id matches pattern. An empty pattern keeps all cases.
func (s *Suite) Filter(pattern string) ([]m.TestCase, error) {
	if pattern == "" {
		return s.Cases, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid test filter: %w", m.ErrConfiguration, err)
	}

	cases := make([]m.TestCase, 0, len(s.Cases))

	for _, tc := range s.Cases {
		if re.MatchString(tc.ID) {
			cases = append(cases, tc)
		}
	}

	return cases, nil
}

// Case returns the case with the given id.
func (s *Suite) Case(id string) (m.TestCase, error) {
	for _, tc := range s.Cases {
		if tc.ID == id {
			return tc, nil
		}
	}

	return m.TestCase{}, fmt.Errorf("%w: test %q in %s", m.ErrNotFound, id, s.Path)
}

// SuiteLoader turns a manifest into test cases.
type SuiteLoader interface {
	Load(ctx context.Context, path m.Path) (*Suite, error)
}

type suiteLoader struct {
	store       adapter.SuiteStore
	fsAdapter   adapter.SourceFSAdapter
	extractor   Extractor
	defaultArgs []string
}

// NewSuiteLoader returns a SuiteLoader. defaultArgs replaces the built-in
// integration defaults when non-nil.
func NewSuiteLoader(
	store adapter.SuiteStore,
	fsAdapter adapter.SourceFSAdapter,
	extractor Extractor,
	defaultArgs []string,
) SuiteLoader {
	return &suiteLoader{
		store:       store,
		fsAdapter:   fsAdapter,
		extractor:   extractor,
		defaultArgs: defaultArgs,
	}
}

func (l *suiteLoader) Load(ctx context.Context, path m.Path) (*Suite, error) {
	manifest, err := l.store.LoadSuite(ctx, path)
	if err != nil {
		return nil, err
	}

	suite := &Suite{
		Path: manifest.Path,
		Root: manifest.RootDir(),
	}

	if manifest.ExpectedDir != "" {
		suite.ExpectedDir = manifest.Resolve(manifest.ExpectedDir)
	}

	sources := newSourceSet(manifest.Path)

	for _, spec := range manifest.Tests {
		tc, err := l.buildCase(ctx, manifest, spec, sources)
		if err != nil {
			slog.Error("Failed to load test", "test", spec.ID, "error", err)
			return nil, fmt.Errorf("test %q: %w", spec.ID, err)
		}

		suite.Cases = append(suite.Cases, tc)
	}

	suite.Sources = sources.paths

	slog.Debug("Loaded suite", "path", suite.Path, "tests", len(suite.Cases), "sources", len(suite.Sources))

	return suite, nil
}

func (l *suiteLoader) buildCase(ctx context.Context, manifest *adapter.SuiteManifest, spec adapter.TestSpec, sources *sourceSet) (m.TestCase, error) {
	kindName := spec.Kind
	if kindName == "" {
		kindName = string(m.KindMesh)
	}

	kind, err := m.ParseOutputKind(kindName)
	if err != nil {
		return m.TestCase{}, err
	}

	if !kind.Comparable() {
		return m.TestCase{}, fmt.Errorf("%w: %s output cannot be compared", m.ErrConfiguration, kind)
	}

	tc := m.TestCase{ID: spec.ID, Kind: kind, Keep: spec.Keep}

	switch {
	case spec.Module != nil && spec.Design != "":
		return m.TestCase{}, fmt.Errorf("%w: set either module or design, not both", m.ErrConfiguration)
	case spec.Module != nil:
		tc.Module, err = l.buildModuleTest(ctx, manifest, spec, sources)
	case spec.Design != "":
		tc.Integration, err = l.buildIntegrationTest(ctx, manifest, spec, sources)
	default:
		return m.TestCase{}, fmt.Errorf("%w: set module or design", m.ErrConfiguration)
	}

	if err != nil {
		return m.TestCase{}, err
	}

	return tc, nil
}

func (l *suiteLoader) buildModuleTest(ctx context.Context, manifest *adapter.SuiteManifest, spec adapter.TestSpec, sources *sourceSet) (*m.ModuleTest, error) {
	module, err := l.module(ctx, manifest, *spec.Module, sources)
	if err != nil {
		return nil, err
	}

	test := m.NewModuleTest(module)
	test.AddArguments(spec.Args...)

	spec.Kwargs.NamedValues().Range(test.AddKeywordArgument)

	for _, childSpec := range spec.Children {
		child, err := buildCall(childSpec)
		if err != nil {
			return nil, err
		}

		test.AddChild(child)
	}

	for _, ref := range spec.Dependencies {
		dependency, err := l.module(ctx, manifest, ref, sources)
		if err != nil {
			return nil, fmt.Errorf("dependency: %w", err)
		}

		test.AddDependency(dependency)
	}

	for _, constants := range spec.Constants {
		path, err := l.existingFile(ctx, manifest.Resolve(constants), "constants file")
		if err != nil {
			return nil, err
		}

		sources.add(path)
		test.AddConstantsFile(path)
	}

	spec.Globals.NamedValues().Range(test.AddGlobalVariable)

	return test, nil
}

// module resolves a reference either from inline content or by extraction.
func (l *suiteLoader) module(ctx context.Context, manifest *adapter.SuiteManifest, ref adapter.ModuleRef, sources *sourceSet) (*m.Module, error) {
	if ref.Name == "" {
		return nil, fmt.Errorf("%w: module without name", m.ErrConfiguration)
	}

	if ref.File == "" {
		return m.NewModule(ref.Name, ref.Content, ref.Arguments), nil
	}

	file := manifest.Resolve(ref.File)
	sources.add(file)

	return l.extractor.Extract(ctx, ref.Name, file)
}

func buildCall(spec adapter.CallSpec) (*m.Module, error) {
	var (
		call *m.Module
		err  error
	)

	switch {
	case spec.Size != nil && spec.Name == "cube":
		call, err = m.NewCube(spec.Size, spec.Center)
	case spec.Size != nil && spec.Name == "square":
		call, err = m.NewSquare(spec.Size, spec.Center)
	case spec.Size != nil:
		err = fmt.Errorf("size is only supported for cube and square, not %q", spec.Name)
	default:
		call = m.NewModule(spec.Name, nil, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", m.ErrConfiguration, err)
	}

	call.AddCallArgs(spec.Args...)
	spec.Kwargs.NamedValues().Range(call.SetKwarg)

	for _, childSpec := range spec.Children {
		child, err := buildCall(childSpec)
		if err != nil {
			return nil, err
		}

		call.AddChild(child)
	}

	return call, nil
}

func (l *suiteLoader) buildIntegrationTest(ctx context.Context, manifest *adapter.SuiteManifest, spec adapter.TestSpec, sources *sourceSet) (*m.IntegrationTest, error) {
	design, err := l.existingFile(ctx, manifest.Resolve(spec.Design), "design file")
	if err != nil {
		return nil, err
	}

	sources.add(design)

	test := m.NewIntegrationTest(design)

	switch {
	case spec.DefaultArgs != nil:
		test.DefaultArgs = spec.DefaultArgs
	case l.defaultArgs != nil:
		test.DefaultArgs = append([]string(nil), l.defaultArgs...)
	}

	spec.Variables.NamedValues().Range(test.AddArgument)

	if spec.Parameters != nil {
		selection, path, err := l.parameters(ctx, manifest, *spec.Parameters)
		if err != nil {
			return nil, err
		}

		sources.add(path)
		test.Parameters = selection
	}

	if spec.Camera != nil {
		test.Camera = &m.Camera{
			Translate: m.Vec3(spec.Camera.Translate),
			Rotate:    m.Vec3(spec.Camera.Rotate),
			Distance:  spec.Camera.Distance,
		}
	}

	return test, nil
}

func (l *suiteLoader) parameters(ctx context.Context, manifest *adapter.SuiteManifest, ref adapter.ParametersRef) (*m.ParameterSelection, m.Path, error) {
	path, err := l.existingFile(ctx, manifest.Resolve(ref.File), "parameter file")
	if err != nil {
		return nil, "", err
	}

	file, err := LoadParameterFile(ctx, l.fsAdapter, path)
	if err != nil {
		return nil, "", err
	}

	if !file.HasSet(ref.Set) {
		return nil, "", fmt.Errorf("%w: parameter set %q in %s (have %v)", m.ErrNotFound, ref.Set, path, file.SetNames())
	}

	return &m.ParameterSelection{File: file, Set: ref.Set}, path, nil
}

// LoadParameterFile reads and decodes a customizer parameter file.
func LoadParameterFile(ctx context.Context, fsAdapter adapter.SourceFSAdapter, path m.Path) (*m.ParameterFile, error) {
	data, err := fsAdapter.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}

	file, err := m.ParseParameterFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return file, nil
}

func (l *suiteLoader) existingFile(ctx context.Context, path m.Path, what string) (m.Path, error) {
	exists, err := l.fsAdapter.Exists(ctx, path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", what, err)
	}

	if !exists {
		return "", fmt.Errorf("%w: %s %s", m.ErrNotFound, what, path)
	}

	return path, nil
}

type sourceSet struct {
	seen  map[m.Path]bool
	paths []m.Path
}

func newSourceSet(initial ...m.Path) *sourceSet {
	s := &sourceSet{seen: map[m.Path]bool{}}
	for _, p := range initial {
		s.add(p)
	}

	return s
}

func (s *sourceSet) add(p m.Path) {
	if p == "" || s.seen[p] {
		return
	}

	s.seen[p] = true
	s.paths = append(s.paths, p)
}
