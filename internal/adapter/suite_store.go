package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// SuiteManifest is the YAML description of a test suite.
type SuiteManifest struct {
	// Root is the directory design files are resolved against. Relative roots
	// are relative to the manifest; the default is the manifest's directory.
	Root        string     `yaml:"root,omitempty"`
	ExpectedDir string     `yaml:"expected_dir,omitempty"`
	Tests       []TestSpec `yaml:"tests"`

	Path m.Path `yaml:"-"`
}

// ModuleRef names a module either by file (extracted) or by inline content.
type ModuleRef struct {
	Name      string   `yaml:"name"`
	File      string   `yaml:"file,omitempty"`
	Arguments []string `yaml:"arguments,omitempty"`
	Content   []string `yaml:"content,omitempty"`
}

// CallSpec is an invocation of a module with arguments and children. Cube
// and square children may give Size and Center instead of raw arguments.
type CallSpec struct {
	Name     string     `yaml:"name"`
	Args     []any      `yaml:"args,omitempty"`
	Kwargs   OrderedMap `yaml:"kwargs,omitempty"`
	Children []CallSpec `yaml:"children,omitempty"`

	Size   []float64 `yaml:"size,omitempty"`
	Center bool      `yaml:"center,omitempty"`
}

// ParametersRef selects a set of a customizer parameter file.
type ParametersRef struct {
	File string `yaml:"file"`
	Set  string `yaml:"set"`
}

// CameraSpec is the YAML form of a camera position.
type CameraSpec struct {
	Translate [3]float64 `yaml:"translate"`
	Rotate    [3]float64 `yaml:"rotate"`
	Distance  float64    `yaml:"distance"`
}

// TestSpec is one test entry. Module tests set Module, integration tests set Design.
type TestSpec struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind,omitempty"`
	Keep bool   `yaml:"keep,omitempty"`

	Module       *ModuleRef  `yaml:"module,omitempty"`
	Args         []any       `yaml:"args,omitempty"`
	Kwargs       OrderedMap  `yaml:"kwargs,omitempty"`
	Children     []CallSpec  `yaml:"children,omitempty"`
	Dependencies []ModuleRef `yaml:"dependencies,omitempty"`
	Constants    []string    `yaml:"constants,omitempty"`
	Globals      OrderedMap  `yaml:"globals,omitempty"`

	Design      string         `yaml:"design,omitempty"`
	Variables   OrderedMap     `yaml:"variables,omitempty"`
	DefaultArgs []string       `yaml:"default_args,omitempty"`
	Parameters  *ParametersRef `yaml:"parameters,omitempty"`
	Camera      *CameraSpec    `yaml:"camera,omitempty"`
}

// OrderedMap is a YAML mapping decoded with its key order preserved.
type OrderedMap struct {
	Keys   []string
	Values map[string]any
}

// UnmarshalYAML decodes a mapping node pair by pair.
func (o *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	o.Keys = nil
	o.Values = make(map[string]any, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value

		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}

		if _, seen := o.Values[key]; !seen {
			o.Keys = append(o.Keys, key)
		}

		o.Values[key] = value
	}

	return nil
}

// MarshalYAML encodes the mapping in key order.
func (o OrderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, key := range o.Keys {
		var value yaml.Node
		if err := value.Encode(o.Values[key]); err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &value)
	}

	return node, nil
}

// IsZero lets omitempty skip empty mappings.
func (o OrderedMap) IsZero() bool {
	return len(o.Keys) == 0
}

// NamedValues converts the mapping to the model's ordered mapping.
func (o OrderedMap) NamedValues() *m.NamedValues {
	values := m.NewNamedValues()
	for _, key := range o.Keys {
		values.Set(key, o.Values[key])
	}

	return values
}

// RootDir returns the absolute directory design paths are resolved against.
func (s *SuiteManifest) RootDir() m.Path {
	base := filepath.Dir(string(s.Path))

	root := s.Root
	if root == "" {
		return m.Path(base)
	}

	if filepath.IsAbs(root) {
		return m.Path(root)
	}

	return m.Path(filepath.Join(base, root))
}

// Resolve makes a manifest-relative path absolute.
func (s *SuiteManifest) Resolve(path string) m.Path {
	if path == "" || filepath.IsAbs(path) {
		return m.Path(path)
	}

	return m.Path(filepath.Join(string(s.RootDir()), path))
}

// SuiteStore loads suite manifests.
type SuiteStore interface {
	LoadSuite(ctx context.Context, path m.Path) (*SuiteManifest, error)
}

// YAMLSuiteStore reads manifests from YAML files.
type YAMLSuiteStore struct{}

// NewSuiteStore returns a YAML-backed SuiteStore.
func NewSuiteStore() *YAMLSuiteStore {
	return &YAMLSuiteStore{}
}

// LoadSuite parses the manifest at path.
func (s *YAMLSuiteStore) LoadSuite(_ context.Context, path m.Path) (*SuiteManifest, error) {
	// #nosec G304 - manifest path is provided by the user
	data, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("Failed to read suite manifest", "path", path, "error", err)
		return nil, fmt.Errorf("read suite manifest: %w", err)
	}

	var manifest SuiteManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		slog.Error("Failed to parse suite manifest", "path", path, "error", err)
		return nil, fmt.Errorf("parse suite manifest %s: %w", path, err)
	}

	abs, err := filepath.Abs(string(path))
	if err != nil {
		return nil, err
	}

	manifest.Path = m.Path(abs)

	// Scratch dirs are named after the sanitized id, so ids must stay unique after sanitizing.
	seen := make(map[string]string, len(manifest.Tests))
	for i, spec := range manifest.Tests {
		if spec.ID == "" {
			return nil, fmt.Errorf("%s: test #%d has no id", path, i)
		}

		key := SanitizeTestID(spec.ID)
		if other, ok := seen[key]; ok {
			if other == spec.ID {
				return nil, fmt.Errorf("%s: duplicate test id %q", path, spec.ID)
			}

			return nil, fmt.Errorf("%s: test ids %q and %q share scratch dir %s", path, other, spec.ID, ScratchDirPrefix+key)
		}

		seen[key] = spec.ID
	}

	return &manifest, nil
}
