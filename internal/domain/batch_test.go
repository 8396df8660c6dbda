package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

func TestParseGridAxis(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    GridAxis
		wantErr bool
	}{
		{"inclusive range", "gridx=1:3", GridAxis{Name: "gridx", Values: []any{1.0, 2.0, 3.0}}, false},
		{"range with step", "h=0:1:0.5", GridAxis{Name: "h", Values: []any{0.0, 0.5, 1.0}}, false},
		{"step past the end", "h=0:1:0.4", GridAxis{Name: "h", Values: []any{0.0, 0.4, 0.8}}, false},
		{"single value range", "n=2:2", GridAxis{Name: "n", Values: []any{2.0}}, false},
		{"explicit values", "style=0,1,true,\"lip\"", GridAxis{Name: "style", Values: []any{0.0, 1.0, true, `"lip"`}}, false},
		{"spaces are trimmed", " x = 1 , 2 ", GridAxis{Name: "x", Values: []any{1.0, 2.0}}, false},
		{"no equals", "gridx", GridAxis{}, true},
		{"no name", "=1:2", GridAxis{}, true},
		{"no values", "x=", GridAxis{}, true},
		{"reversed range", "x=3:1", GridAxis{}, true},
		{"zero step", "x=1:3:0", GridAxis{}, true},
		{"too many parts", "x=1:2:3:4", GridAxis{}, true},
		{"bad bound", "x=a:3", GridAxis{}, true},
		{"huge range", "x=0:100000", GridAxis{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGridAxis(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, m.ErrConfiguration)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			require.Len(t, got.Values, len(tt.want.Values))

			for i, want := range tt.want.Values {
				if f, ok := want.(float64); ok {
					assert.InDelta(t, f, got.Values[i], 1e-9)
					continue
				}

				assert.Equal(t, want, got.Values[i])
			}
		})
	}
}

func TestParseGridAxis_FractionalStepKeepsBoundPrecision(t *testing.T) {
	axis, err := ParseGridAxis("h=0:1:0.1")
	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}, axis.Values)

	points, err := GridPoints([]GridAxis{axis})
	require.NoError(t, err)

	var names []string
	for _, point := range points[2:4] {
		name, err := ExpandName("bin_h{h}.stl", point, nil)
		require.NoError(t, err)

		names = append(names, name)
	}

	assert.Equal(t, []string{"bin_h0.2.stl", "bin_h0.3.stl"}, names)

	axis, err = ParseGridAxis("w=0.25:1:0.25")
	require.NoError(t, err)
	assert.Equal(t, []any{0.25, 0.5, 0.75, 1.0}, axis.Values)
}

func TestParseAssignment(t *testing.T) {
	name, value, err := ParseAssignment("label=\"A=B\"")
	require.NoError(t, err)
	assert.Equal(t, "label", name)
	assert.Equal(t, `"A=B"`, value)

	_, value, err = ParseAssignment("on=True")
	require.NoError(t, err)
	assert.Equal(t, "True", value, "only lower-case literals are booleans")

	_, _, err = ParseAssignment("novalue")
	require.ErrorIs(t, err, m.ErrConfiguration)
}

func TestGridPoints(t *testing.T) {
	points, err := GridPoints([]GridAxis{
		{Name: "x", Values: []any{1, 2}},
		{Name: "y", Values: []any{"a", "b", "c"}},
	})
	require.NoError(t, err)
	require.Len(t, points, 6)

	var got []string
	for _, p := range points {
		x, _ := p.Get("x")
		y, _ := p.Get("y")
		got = append(got, m.FormatValue(x)+m.FormatValue(y))
	}

	assert.Equal(t, []string{"1a", "1b", "1c", "2a", "2b", "2c"}, got)
	assert.Equal(t, []string{"x", "y"}, points[0].Keys())
}

func TestGridPoints_Errors(t *testing.T) {
	_, err := GridPoints([]GridAxis{{Name: "x"}})
	require.ErrorIs(t, err, m.ErrConfiguration)

	big := make([]any, 200)
	_, err = GridPoints([]GridAxis{{Name: "x", Values: big}, {Name: "y", Values: big}})
	require.ErrorIs(t, err, m.ErrConfiguration)
}

func TestExpandName(t *testing.T) {
	point := m.NewNamedValues()
	point.Set("gridx", 2.0)
	point.Set("gridy", 0.5)

	fixed := m.NewNamedValues()
	fixed.Set("style", "lip")

	name, err := ExpandName("bin_{gridx}x{gridy}_{style}.stl", point, fixed)
	require.NoError(t, err)
	assert.Equal(t, "bin_2x0.5_lip.stl", name)

	name, err = ExpandName("plain.stl", point, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain.stl", name)

	_, err = ExpandName("bin_{depth}.stl", point, fixed)
	require.ErrorIs(t, err, m.ErrConfiguration)
	assert.Contains(t, err.Error(), "depth")
}
