// Package session holds the working state of an imported tuning: the
// original scale, the user-edited copy and its n-TET approximation.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/james-see/xenapprox/pkg/tuning"
)

// DefaultGridSize is the n of the n-TET grid before the user picks one
const DefaultGridSize = 12

// Event identifies the kind of change reported to OnChange listeners
type Event int

const (
	EventImported Event = iota
	EventGridChanged
	EventPitchEdited
	EventReset
	EventRepointed
)

func (e Event) String() string {
	switch e {
	case EventImported:
		return "imported"
	case EventGridChanged:
		return "grid-changed"
	case EventPitchEdited:
		return "pitch-edited"
	case EventReset:
		return "reset"
	case EventRepointed:
		return "repointed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Session owns the imported scale and its approximation. All methods are
// safe for concurrent use.
type Session struct {
	mu sync.Mutex

	original    tuning.Scale
	editable    tuning.Scale
	mapping     tuning.Mapping
	gridSize    int
	name        string
	description string
	loaded      bool

	logger   *slog.Logger
	onChange func(Event)
}

// Option configures a Session
type Option func(*Session)

// WithGridSize sets the initial grid size. Non-positive values are ignored.
func WithGridSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.gridSize = n
		}
	}
}

// WithLogger sets the logger used for debug events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty session
func New(opts ...Option) *Session {
	s := &Session{
		gridSize: DefaultGridSize,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to be called after every successful mutation. It
// replaces any previous listener and is called without the session lock held.
func (s *Session) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notify(fn func(Event), ev Event) {
	if fn != nil {
		fn(ev)
	}
}

// Import decodes .scl text and makes it the current scale. name is the
// source file name used for export titles. On error the session is unchanged.
func (s *Session) Import(text, name string) error {
	file, err := tuning.Parse(text)
	if err != nil {
		s.logger.Debug("import failed", "name", name, "err", err)
		return err
	}
	scale := file.Scale()

	s.mu.Lock()
	s.original = scale.Clone()
	s.editable = scale.Clone()
	s.mapping = tuning.Mapping{}
	s.name = name
	s.description = file.Description
	s.loaded = true
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("imported scale",
		"name", name,
		"degrees", len(scale),
		"declared", file.DeclaredCount,
		"skipped_lines", file.Skipped,
	)
	s.notify(fn, EventImported)
	return nil
}

// SetGridSize parses a positive integer grid size from user input and
// recomputes the approximation
func (s *Session) SetGridSize(text string) error {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return &tuning.ValidationError{
			Field: "grid size",
			Value: text,
			Msg:   "must be a positive integer",
		}
	}

	s.mu.Lock()
	s.gridSize = n
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("grid size changed", "n", n)
	s.notify(fn, EventGridChanged)
	return nil
}

// EditPitch overwrites one degree of the editable scale
func (s *Session) EditPitch(index int, cents float64) error {
	if math.IsNaN(cents) || math.IsInf(cents, 0) {
		return &tuning.ValidationError{
			Field: "pitch",
			Value: fmt.Sprint(cents),
			Msg:   "must be a finite number of cents",
		}
	}

	s.mu.Lock()
	if index < 0 || index >= len(s.editable) {
		n := len(s.editable)
		s.mu.Unlock()
		return degreeError(index, n)
	}
	s.editable[index] = cents
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("pitch edited", "index", index, "cents", cents)
	s.notify(fn, EventPitchEdited)
	return nil
}

// ResetPitch restores one degree to its imported value
func (s *Session) ResetPitch(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.original) {
		n := len(s.original)
		s.mu.Unlock()
		return degreeError(index, n)
	}
	s.editable[index] = s.original[index]
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	s.notify(fn, EventReset)
	return nil
}

// ResetAll discards every edit
func (s *Session) ResetAll() {
	s.mu.Lock()
	s.editable = s.original.Clone()
	s.recompute()
	fn := s.onChange
	s.mu.Unlock()

	s.notify(fn, EventReset)
}

// RepointMapping makes grid position gridIndex use editable degree
// sourceIndex. The override lasts until the next recompute.
func (s *Session) RepointMapping(gridIndex, sourceIndex int) error {
	s.mu.Lock()
	err := s.mapping.Repoint(s.editable, gridIndex, sourceIndex)
	fn := s.onChange
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logger.Debug("mapping repointed", "grid", gridIndex, "source", sourceIndex)
	s.notify(fn, EventRepointed)
	return nil
}

// Export renders the current approximation as .scl text. An empty title
// is replaced by DefaultTitle.
func (s *Session) Export(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = s.defaultTitle()
	}
	return tuning.Encode(s.mapping.Pitches, s.gridSize, title)
}

// DefaultTitle is the export title derived from the grid size and source name
func (s *Session) DefaultTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultTitle()
}

// ExportName is the suggested file name for Export output
func (s *Session) ExportName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%d-TET approximation of %s.scl", s.gridSize, strings.TrimSuffix(s.sourceName(), ".scl"))
}

// Editable returns a copy of the edited scale
func (s *Session) Editable() tuning.Scale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editable.Clone()
}

// Modified reports whether any pitch differs from the imported scale
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.editable.Equal(s.original)
}

// Original returns a copy of the imported scale
func (s *Session) Original() tuning.Scale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

// Mapping returns a copy of the current approximation
func (s *Session) Mapping() tuning.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping.Clone()
}

// GridSize returns n
func (s *Session) GridSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gridSize
}

// Name returns the imported source name
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Description returns the description line of the imported file
func (s *Session) Description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.description
}

// Loaded reports whether a scale has been imported
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// recompute must be called with mu held
func (s *Session) recompute() {
	if !s.loaded {
		return
	}
	s.mapping = tuning.Approximate(s.editable, s.gridSize)
}

func (s *Session) sourceName() string {
	if s.name == "" {
		return "scale"
	}
	return s.name
}

func (s *Session) defaultTitle() string {
	return fmt.Sprintf("%d-TET Approximation of %s", s.gridSize, s.sourceName())
}

func degreeError(index, length int) error {
	return &tuning.ValidationError{
		Field: "degree",
		Value: strconv.Itoa(index),
		Msg:   fmt.Sprintf("out of range [0, %d)", length),
	}
}
