package model

import "fmt"

// Module is a named OpenSCAD module definition.
//
// Arguments and Content hold raw source text. When the module is the one under
// test (or a child of it), Call collects the invocation to synthesize.
type Module struct {
	Name      string
	Arguments []string
	Content   []string

	Call Call
}

// Call describes one invocation of a module: positional arguments, keyword
// arguments and child invocations, all in insertion order.
type Call struct {
	Args     []any
	Kwargs   *NamedValues
	Children []*Module
}

// NewModule builds a module from its parts.
func NewModule(name string, content []string, arguments []string) *Module {
	return &Module{
		Name:      name,
		Arguments: arguments,
		Content:   content,
		Call:      Call{Kwargs: NewNamedValues()},
	}
}

// AddCallArgs appends positional arguments to the module invocation.
func (mod *Module) AddCallArgs(args ...any) {
	mod.Call.Args = append(mod.Call.Args, args...)
}

// SetKwarg sets a keyword argument of the module invocation.
func (mod *Module) SetKwarg(name string, value any) {
	if mod.Call.Kwargs == nil {
		mod.Call.Kwargs = NewNamedValues()
	}

	mod.Call.Kwargs.Set(name, value)
}

// AddChild attaches a child invocation, emitted inside the call's braces.
func (mod *Module) AddChild(child *Module) {
	mod.Call.Children = append(mod.Call.Children, child)
}

// NewCube returns a cube() invocation. size must have 3 components.
func NewCube(size []float64, center bool) (*Module, error) {
	if len(size) != 3 {
		return nil, fmt.Errorf("cube expects 3 size components, got %d", len(size))
	}

	cube := NewModule("cube", nil, nil)
	cube.AddCallArgs(FormatValue(size), center)

	return cube, nil
}

// NewSquare returns a square() invocation. size must have 2 components.
func NewSquare(size []float64, center bool) (*Module, error) {
	if len(size) != 2 {
		return nil, fmt.Errorf("square expects 2 size components, got %d", len(size))
	}

	square := NewModule("square", nil, nil)
	square.AddCallArgs(FormatValue(size), center)

	return square, nil
}
