package tuning

import "math"

// Grid returns the n equally spaced targets of an n-TET octave.
// It returns nil for n <= 0.
func Grid(n int) []float64 {
	if n <= 0 {
		return nil
	}
	grid := make([]float64, n)
	step := Octave / float64(n)
	for k := range grid {
		grid[k] = float64(k) * step
	}
	return grid
}

// Approximate maps every n-TET grid target to the nearest scale pitch.
// Ties go to the lowest index. An empty scale maps each target to itself
// with the NoMatch index.
func Approximate(scale Scale, n int) Mapping {
	grid := Grid(n)
	m := Mapping{
		Pitches: make([]float64, 0, len(grid)),
		Indices: make([]int, 0, len(grid)),
	}

	for _, target := range grid {
		index := nearest(scale, target)
		if index == NoMatch {
			m.Pitches = append(m.Pitches, target)
			m.Indices = append(m.Indices, NoMatch)
			continue
		}
		m.Pitches = append(m.Pitches, scale[index])
		m.Indices = append(m.Indices, index)
	}

	return m
}

func nearest(scale Scale, target float64) int {
	best := NoMatch
	bestDist := math.Inf(1)
	for i, cents := range scale {
		if d := math.Abs(cents - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Repoint overrides the scale degree used for one grid position. Out of
// range indices are rejected and leave the mapping unchanged.
func (m *Mapping) Repoint(scale Scale, gridIndex, sourceIndex int) error {
	if gridIndex < 0 || gridIndex >= len(m.Pitches) {
		return indexError("grid index", gridIndex, len(m.Pitches))
	}
	if sourceIndex < 0 || sourceIndex >= len(scale) {
		return indexError("source index", sourceIndex, len(scale))
	}

	m.Indices[gridIndex] = sourceIndex
	m.Pitches[gridIndex] = scale[sourceIndex]
	return nil
}

// Deviations returns the signed cents error of each approximated pitch
// against its grid target
func (m Mapping) Deviations() []float64 {
	grid := Grid(len(m.Pitches))
	out := make([]float64, len(m.Pitches))
	for k, cents := range m.Pitches {
		out[k] = cents - grid[k]
	}
	return out
}
