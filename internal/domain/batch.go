package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// maxGridSize bounds the number of renders a single batch may request.
const maxGridSize = 10000

// GridAxis is one variable of a batch grid and the values it takes.
type GridAxis struct {
	Name   string
	Values []any
}

// ParseGridAxis parses "name=from:to[:step]" (inclusive numeric range) or
// "name=a,b,c" (explicit values).
func ParseGridAxis(text string) (GridAxis, error) {
	name, spec, ok := strings.Cut(text, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" || strings.TrimSpace(spec) == "" {
		return GridAxis{}, fmt.Errorf("%w: grid axis %q, want name=from:to[:step] or name=a,b", m.ErrConfiguration, text)
	}

	if strings.Contains(spec, ":") {
		values, err := parseRange(spec)
		if err != nil {
			return GridAxis{}, fmt.Errorf("%w: grid axis %q: %w", m.ErrConfiguration, text, err)
		}

		return GridAxis{Name: name, Values: values}, nil
	}

	parts := strings.Split(spec, ",")
	values := make([]any, 0, len(parts))

	for _, part := range parts {
		values = append(values, ParseScalar(part))
	}

	return GridAxis{Name: name, Values: values}, nil
}

func parseRange(spec string) ([]any, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("range needs from:to or from:to:step")
	}

	bounds := make([]float64, 3)
	bounds[2] = 1

	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("range bound %q: %w", part, err)
		}

		bounds[i] = v
	}

	from, to, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive")
	}

	if to < from {
		return nil, fmt.Errorf("range end %v is before start %v", to, from)
	}

	count := int(math.Floor((to-from)/step+1e-9)) + 1
	if count > maxGridSize {
		return nil, fmt.Errorf("range has %d values, limit is %d", count, maxGridSize)
	}

	scale := math.Pow10(max(decimalPlaces(from), decimalPlaces(to), decimalPlaces(step)))

	values := make([]any, 0, count)
	for i := 0; i < count; i++ {
		values = append(values, math.Round((from+float64(i)*step)*scale)/scale)
	}

	return values, nil
}

// decimalPlaces counts the fractional digits of the shortest form of v.
func decimalPlaces(v float64) int {
	text := strconv.FormatFloat(v, 'f', -1, 64)

	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return 0
	}

	return min(len(text)-dot-1, 15)
}

// ParseScalar interprets a command line value: booleans and numbers become
// typed values, anything else stays an expression string.
func ParseScalar(text string) any {
	text = strings.TrimSpace(text)

	switch text {
	case "true":
		return true
	case "false":
		return false
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}

	return text
}

// ParseAssignment parses "name=value" into its parts.
func ParseAssignment(text string) (string, any, error) {
	name, value, ok := strings.Cut(text, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" {
		return "", nil, fmt.Errorf("%w: assignment %q, want name=value", m.ErrConfiguration, text)
	}

	return name, ParseScalar(value), nil
}

// GridPoints expands the axes into every combination, the first axis varying slowest.
func GridPoints(axes []GridAxis) ([]*m.NamedValues, error) {
	total := 1

	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil, fmt.Errorf("%w: grid axis %q has no values", m.ErrConfiguration, axis.Name)
		}

		total *= len(axis.Values)
		if total > maxGridSize {
			return nil, fmt.Errorf("%w: grid has more than %d points", m.ErrConfiguration, maxGridSize)
		}
	}

	points := make([]*m.NamedValues, 0, total)

	var walk func(depth int, current []any)

	walk = func(depth int, current []any) {
		if depth == len(axes) {
			point := m.NewNamedValues()
			for i, axis := range axes {
				point.Set(axis.Name, current[i])
			}

			points = append(points, point)

			return
		}

		for _, v := range axes[depth].Values {
			walk(depth+1, append(current[:depth:depth], v))
		}
	}

	walk(0, make([]any, 0, len(axes)))

	return points, nil
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_$][A-Za-z0-9_$]*)\}`)

// ExpandName substitutes {name} placeholders with values from point and
// fixed. Unknown placeholders are an error.
func ExpandName(template string, point, fixed *m.NamedValues) (string, error) {
	var missing []string

	name := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]

		if v, ok := point.Get(key); ok {
			return m.FormatValue(v)
		}

		if v, ok := fixed.Get(key); ok {
			return m.FormatValue(v)
		}

		missing = append(missing, key)

		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: unknown placeholders %v in %q", m.ErrConfiguration, missing, template)
	}

	return name, nil
}
