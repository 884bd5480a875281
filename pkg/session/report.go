package session

import (
	"fmt"
	"math"

	"github.com/james-see/xenapprox/pkg/tuning"
	"gopkg.in/yaml.v3"
)

// Row is one grid position of an approximation report
type Row struct {
	Step      int     `yaml:"step"`
	Target    float64 `yaml:"target"`
	Source    int     `yaml:"source"`
	Cents     float64 `yaml:"cents"`
	Deviation float64 `yaml:"deviation"`
}

// Report is a snapshot of a session suitable for printing or saving
type Report struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	GridSize    int       `yaml:"grid_size"`
	Scale       []float64 `yaml:"scale"`
	Rows        []Row     `yaml:"approximation"`
}

// Report captures the current state
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := tuning.Grid(s.gridSize)
	deviations := s.mapping.Deviations()

	r := Report{
		Name:        s.name,
		Description: s.description,
		GridSize:    s.gridSize,
		Scale:       s.editable.Clone(),
		Rows:        make([]Row, s.mapping.Len()),
	}
	for k := range r.Rows {
		r.Rows[k] = Row{
			Step:      k,
			Target:    grid[k],
			Source:    s.mapping.Indices[k],
			Cents:     s.mapping.Pitches[k],
			Deviation: deviations[k],
		}
	}
	return r
}

// MaxDeviation returns the largest absolute deviation in the report
func (r Report) MaxDeviation() float64 {
	var worst float64
	for _, row := range r.Rows {
		worst = math.Max(worst, math.Abs(row.Deviation))
	}
	return worst
}

// YAML encodes the report
func (r Report) YAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}
