package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParameterFileVersion is the only customizer file format understood.
const ParameterFileVersion FormatVersion = 1

// ParameterFile is an OpenSCAD customizer parameter file.
type ParameterFile struct {
	ParameterSets     map[string]map[string]any `json:"parameterSets"`
	FileFormatVersion FormatVersion             `json:"fileFormatVersion"`
}

// FormatVersion is the fileFormatVersion field. The customizer writes it as a
// quoted string, older tools as a number; both decode.
type FormatVersion int

// UnmarshalJSON accepts 1 and "1".
func (v *FormatVersion) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)

	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("fileFormatVersion %s: %w", data, err)
	}

	*v = FormatVersion(n)

	return nil
}

// NewParameterFile returns a version 1 file holding a single set.
func NewParameterFile(set string, values map[string]any) *ParameterFile {
	return &ParameterFile{
		ParameterSets:     map[string]map[string]any{set: values},
		FileFormatVersion: ParameterFileVersion,
	}
}

// ParseParameterFile decodes a parameter file.
//
// The customizer stores every value as a string, so "true"/"false" become
// booleans and numeric strings become float64.
func ParseParameterFile(data []byte) (*ParameterFile, error) {
	var file ParameterFile

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode parameter file: %w", err)
	}

	if file.FileFormatVersion != ParameterFileVersion {
		return nil, fmt.Errorf("unsupported parameter file version %d", file.FileFormatVersion)
	}

	for _, set := range file.ParameterSets {
		for name, value := range set {
			set[name] = coerceParameter(value)
		}
	}

	return &file, nil
}

func coerceParameter(value any) any {
	switch v := value.(type) {
	case string:
		switch v {
		case "true":
			return true
		case "false":
			return false
		}

		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}

		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	}

	return value
}

// Marshal encodes the file with sorted keys and two-space indentation.
func (p *ParameterFile) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// SetNames returns the parameter set names in sorted order.
func (p *ParameterFile) SetNames() []string {
	names := make([]string, 0, len(p.ParameterSets))
	for name := range p.ParameterSets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// HasSet reports whether the named set exists.
func (p *ParameterFile) HasSet(name string) bool {
	_, ok := p.ParameterSets[name]
	return ok
}
