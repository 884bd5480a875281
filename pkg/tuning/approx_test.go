package tuning

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12, 19, 31, 53, 100} {
		grid := Grid(n)
		require.Len(t, grid, n)
		for k, target := range grid {
			assert.InDelta(t, float64(k)*1200/float64(n), target, 1e-9)
		}
	}

	assert.Nil(t, Grid(0))
	assert.Nil(t, Grid(-3))
}

func TestApproximate(t *testing.T) {
	scale := Scale{0, 200, 400, 1200, 1200}

	m := Approximate(scale, 2)

	assert.Equal(t, []int{0, 2}, m.Indices)
	assert.Equal(t, []float64{0, 400}, m.Pitches)
	assert.Equal(t, 2, m.Len())
}

func TestApproximateTieGoesToLowestIndex(t *testing.T) {
	// target 150 is equidistant from 100 and 200
	scale := Scale{0, 100, 200, 1200}

	m := Approximate(scale, 8)

	require.Equal(t, 8, m.Len())
	assert.Equal(t, 1, m.Indices[1])
	assert.Equal(t, 100.0, m.Pitches[1])
}

func TestApproximateDuplicatePitches(t *testing.T) {
	// duplicated octave degrees resolve to the first copy
	scale := Scale{0, 200, 400, 1200, 1200}

	m := Approximate(scale, 1)
	assert.Equal(t, []int{0}, m.Indices)

	m = Approximate(Scale{0, 1100, 1100}, 12)
	assert.Equal(t, 1, m.Indices[11])
}

func TestApproximateEmptyScale(t *testing.T) {
	m := Approximate(nil, 4)

	assert.Equal(t, []int{NoMatch, NoMatch, NoMatch, NoMatch}, m.Indices)
	assert.Equal(t, []float64{0, 300, 600, 900}, m.Pitches)
}

func TestApproximateNonPositiveGrid(t *testing.T) {
	assert.Equal(t, 0, Approximate(Scale{0, 1200}, 0).Len())
	assert.Equal(t, 0, Approximate(Scale{0, 1200}, -1).Len())
}

func TestApproximateNearest(t *testing.T) {
	scale := Scale{0, 111.73, 203.91, 315.64, 386.31, 498.04, 582.51, 701.96, 813.69, 884.36, 996.09, 1088.27, 1200}

	for _, n := range []int{5, 7, 12, 17, 22, 31} {
		m := Approximate(scale, n)
		grid := Grid(n)
		for k, target := range grid {
			chosen := m.Indices[k]
			require.GreaterOrEqual(t, chosen, 0)
			require.Less(t, chosen, len(scale))
			assert.Equal(t, scale[chosen], m.Pitches[k])

			dist := math.Abs(scale[chosen] - target)
			for i, cents := range scale {
				d := math.Abs(cents - target)
				assert.False(t, d < dist, "n=%d k=%d: degree %d is closer than %d", n, k, i, chosen)
				if d == dist {
					assert.LessOrEqual(t, chosen, i)
				}
			}
		}
	}
}

func TestApproximateDeterministic(t *testing.T) {
	scale := Scale{0, 150, 350, 500, 700, 850, 1050, 1200}
	assert.Equal(t, Approximate(scale, 19), Approximate(scale, 19))
}

func TestRepoint(t *testing.T) {
	scale := Scale{0, 200, 400, 1200, 1200}
	m := Approximate(scale, 2)

	require.NoError(t, m.Repoint(scale, 1, 3))
	assert.Equal(t, 3, m.Indices[1])
	assert.Equal(t, 1200.0, m.Pitches[1])
}

func TestRepointOutOfRange(t *testing.T) {
	scale := Scale{0, 200, 400, 1200, 1200}

	tests := []struct {
		name        string
		gridIndex   int
		sourceIndex int
	}{
		{"negative source", 1, -1},
		{"source past end", 1, 5},
		{"negative grid", -1, 1},
		{"grid past end", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Approximate(scale, 2)
			before := m.Clone()

			err := m.Repoint(scale, tt.gridIndex, tt.sourceIndex)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, before, m)
		})
	}
}

func TestDeviations(t *testing.T) {
	m := Approximate(Scale{0, 200, 400, 1200, 1200}, 2)
	assert.Equal(t, []float64{0, -200}, m.Deviations())
}

func TestMappingClone(t *testing.T) {
	m := Approximate(Scale{0, 200, 1200}, 3)
	c := m.Clone()
	c.Pitches[0] = 50
	c.Indices[0] = 2

	assert.Equal(t, 0.0, m.Pitches[0])
	assert.Equal(t, 0, m.Indices[0])
}
