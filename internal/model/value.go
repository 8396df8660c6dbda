package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FormatValue renders a Go value as an OpenSCAD literal.
//
// Booleans are lower-cased, strings are emitted verbatim (they are treated as
// expressions), numbers use their shortest decimal form and slices become
// vectors such as [1, 2, 3].
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "undef"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, FormatValue(rv.Index(i).Interface()))
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	return fmt.Sprint(value)
}

// NamedValues is a name to value mapping that remembers insertion order.
// Setting an existing name updates its value in place.
type NamedValues struct {
	keys   []string
	values map[string]any
}

// NewNamedValues returns an empty mapping.
func NewNamedValues() *NamedValues {
	return &NamedValues{values: map[string]any{}}
}

// Set stores value under name.
func (n *NamedValues) Set(name string, value any) {
	if n.values == nil {
		n.values = map[string]any{}
	}

	if _, ok := n.values[name]; !ok {
		n.keys = append(n.keys, name)
	}

	n.values[name] = value
}

// Get returns the value stored under name.
func (n *NamedValues) Get(name string) (any, bool) {
	if n == nil {
		return nil, false
	}

	v, ok := n.values[name]

	return v, ok
}

// Keys returns the names in insertion order.
func (n *NamedValues) Keys() []string {
	if n == nil {
		return nil
	}

	out := make([]string, len(n.keys))
	copy(out, n.keys)

	return out
}

// Len returns the number of entries.
func (n *NamedValues) Len() int {
	if n == nil {
		return 0
	}

	return len(n.keys)
}

// Range calls fn for every entry in insertion order.
func (n *NamedValues) Range(fn func(name string, value any)) {
	if n == nil {
		return
	}

	for _, k := range n.keys {
		fn(k, n.values[k])
	}
}
