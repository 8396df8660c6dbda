package model

import (
	"fmt"
	"strings"
)

// DefaultIntegrationArgs are appended to every integration render unless the
// configuration replaces them.
var DefaultIntegrationArgs = []string{"-D$fa=12", "-D$fs=2"}

// ModuleTest binds a module under test to the extra source needed to render
// it on its own: dependency modules, include files and special variables.
type ModuleTest struct {
	Module        *Module
	Dependencies  []*Module
	ConstantFiles []Path
	Globals       *NamedValues
}

// NewModuleTest wraps the module under test.
func NewModuleTest(module *Module) *ModuleTest {
	return &ModuleTest{
		Module:  module,
		Globals: NewNamedValues(),
	}
}

// AddArguments appends positional call arguments.
func (t *ModuleTest) AddArguments(args ...any) {
	t.Module.AddCallArgs(args...)
}

// AddKeywordArgument sets a keyword call argument.
func (t *ModuleTest) AddKeywordArgument(name string, value any) {
	t.Module.SetKwarg(name, value)
}

// AddChild attaches one child invocation to the call.
func (t *ModuleTest) AddChild(child *Module) {
	t.Module.AddChild(child)
}

// AddChildren attaches child invocations in order.
func (t *ModuleTest) AddChildren(children []*Module) {
	for _, child := range children {
		t.Module.AddChild(child)
	}
}

// AddDependency registers a module whose definition must also be emitted.
func (t *ModuleTest) AddDependency(module *Module) {
	t.Dependencies = append(t.Dependencies, module)
}

// AddConstantsFile registers a file to include ahead of the call.
func (t *ModuleTest) AddConstantsFile(path Path) {
	t.ConstantFiles = append(t.ConstantFiles, path)
}

// AddGlobalVariable sets a special variable such as $fn. The leading "$" is optional.
func (t *ModuleTest) AddGlobalVariable(name string, value any) {
	if t.Globals == nil {
		t.Globals = NewNamedValues()
	}

	t.Globals.Set(strings.TrimPrefix(name, "$"), value)
}

// Vec3 is a plain (x, y, z) triple used for camera placement.
type Vec3 [3]float64

// Camera places the viewpoint for image output.
type Camera struct {
	Translate Vec3
	Rotate    Vec3
	Distance  float64
}

// Arg renders the camera as a --camera flag.
func (c Camera) Arg() string {
	parts := make([]string, 0, 7)
	for _, v := range c.Translate {
		parts = append(parts, FormatValue(v))
	}

	for _, v := range c.Rotate {
		parts = append(parts, FormatValue(v))
	}

	parts = append(parts, FormatValue(c.Distance))

	return "--camera=" + strings.Join(parts, ",")
}

// ParameterSelection points at one parameter set of a parameter file.
type ParameterSelection struct {
	File *ParameterFile
	Set  string
}

// IntegrationTest renders a whole design file with variable overrides.
type IntegrationTest struct {
	File        Path
	Variables   *NamedValues
	DefaultArgs []string
	Parameters  *ParameterSelection
	Camera      *Camera
}

// NewIntegrationTest targets a design file with the default render arguments.
func NewIntegrationTest(file Path) *IntegrationTest {
	defaults := make([]string, len(DefaultIntegrationArgs))
	copy(defaults, DefaultIntegrationArgs)

	return &IntegrationTest{
		File:        file,
		Variables:   NewNamedValues(),
		DefaultArgs: defaults,
	}
}

// AddArgument overrides a design variable with -Dname=value.
func (t *IntegrationTest) AddArgument(name string, value any) {
	if t.Variables == nil {
		t.Variables = NewNamedValues()
	}

	t.Variables.Set(name, value)
}

// CLIArgs returns the renderer flags for the variable overrides followed by the defaults.
func (t *IntegrationTest) CLIArgs() []string {
	args := make([]string, 0, t.Variables.Len()+len(t.DefaultArgs)+1)

	t.Variables.Range(func(name string, value any) {
		args = append(args, "-D"+name+"="+FormatValue(value))
	})

	args = append(args, t.DefaultArgs...)

	if t.Camera != nil {
		args = append(args, t.Camera.Arg())
	}

	return args
}

// TestCase is one entry of a suite: either a module test or an integration test.
type TestCase struct {
	ID          string
	Kind        OutputKind
	Module      *ModuleTest
	Integration *IntegrationTest
	Keep        bool
}

// Validate checks that exactly one test variant is set.
func (tc TestCase) Validate() error {
	if tc.ID == "" {
		return fmt.Errorf("test case without id")
	}

	if (tc.Module == nil) == (tc.Integration == nil) {
		return fmt.Errorf("test case %q must be either a module test or an integration test", tc.ID)
	}

	return nil
}

// Target returns a short description of what the test renders.
func (tc TestCase) Target() string {
	if tc.Module != nil && tc.Module.Module != nil {
		return "module " + tc.Module.Module.Name
	}

	if tc.Integration != nil {
		return "design " + string(tc.Integration.File)
	}

	return "-"
}
