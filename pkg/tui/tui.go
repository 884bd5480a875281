// Package tui provides a terminal user interface for editing and
// approximating a tuning
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/xenapprox/pkg/config"
	"github.com/james-see/xenapprox/pkg/session"
	"github.com/james-see/xenapprox/pkg/tuning"
)

var (
	scaleRed    = lipgloss.Color("#FF5F5F")
	approxGreen = lipgloss.Color("#39FF14")
	tetBlue     = lipgloss.Color("#5FAFFF")
	silverGray  = lipgloss.Color("#C0C0C0")
	darkGray    = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(approxGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Bold(true)

	rowStyle = lipgloss.NewStyle().
			Foreground(silverGray)

	selectedStyle = lipgloss.NewStyle().
			Foreground(approxGreen).
			Bold(true)

	editedStyle = lipgloss.NewStyle().
			Foreground(scaleRed)

	statusStyle = lipgloss.NewStyle().
			Foreground(tetBlue).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(darkGray).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(approxGreen)
)

// State represents the current TUI state
type State int

const (
	StateFilePicker State = iota
	StateTable
	StateInput
)

// Pane is the table with keyboard focus
type Pane int

const (
	PaneScale Pane = iota
	PaneApprox
)

type inputKind int

const (
	inputPitch inputKind = iota
	inputGridSize
)

// Model represents the TUI model
type Model struct {
	session    *session.Session
	renderer   *tuning.MIDIRenderer
	exportDir  string
	sourcePath string

	state      State
	pane       Pane
	cursor     [2]int
	filePicker filepicker.Model
	input      textinput.Model
	inputKind  inputKind

	changes *changeLog
	status  string
	err     error
	width   int
	height  int
}

// changeLog records the last session event; shared between model copies.
// Session callbacks fire from command goroutines, so access is locked.
type changeLog struct {
	mu    sync.Mutex
	last  session.Event
	count int
}

func (c *changeLog) record(ev session.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = ev
	c.count++
}

func (c *changeLog) snapshot() (session.Event, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.count
}

type importDoneMsg struct {
	path string
	err  error
}

type exportDoneMsg struct {
	path string
	err  error
}

// New creates a TUI model driving s. When path is empty the model starts
// in the file picker. A nil cfg means config.Default().
func New(s *session.Session, path string, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".scl"}
	fp.CurrentDirectory, _ = os.Getwd()

	ti := textinput.New()
	ti.CharLimit = 32
	ti.Width = 20

	changes := &changeLog{}
	s.OnChange(changes.record)

	state := StateFilePicker
	if path != "" || s.Loaded() {
		state = StateTable
	}

	return Model{
		session:    s,
		renderer:   cfg.MIDIRenderer(),
		exportDir:  cfg.ExportDir,
		sourcePath: path,
		state:      state,
		filePicker: fp,
		input:      ti,
		changes:    changes,
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	if m.state == StateFilePicker {
		return m.filePicker.Init()
	}
	if m.sourcePath != "" {
		return importFile(m.session, m.sourcePath)
	}
	return nil
}

func importFile(s *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importDoneMsg{path: path, err: err}
		}
		return importDoneMsg{path: path, err: s.Import(string(data), filepath.Base(path))}
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case importDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.sourcePath = msg.path
			m.cursor = [2]int{}
			m.status = fmt.Sprintf("Imported %s", filepath.Base(msg.path))
			m.state = StateTable
		} else if !m.session.Loaded() {
			m.state = StateFilePicker
			return m, m.filePicker.Init()
		}
		return m, nil

	case exportDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("Exported %s", msg.path)
		}
		return m, nil
	}

	switch m.state {
	case StateFilePicker:
		return m.updateFilePicker(msg)
	case StateInput:
		return m.updateInput(msg)
	default:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updateTable(keyMsg)
		}
	}
	return m, nil
}

func (m Model) updateFilePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			if m.session.Loaded() {
				m.state = StateTable
			}
			return m, nil
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		return m, importFile(m.session, path)
	}
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.input.Blur()
			m.state = StateTable
			return m, nil
		case tea.KeyEnter:
			m.err = m.submitInput(strings.TrimSpace(m.input.Value()))
			if m.err == nil {
				m.input.Blur()
				m.state = StateTable
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput(value string) error {
	switch m.inputKind {
	case inputGridSize:
		return m.session.SetGridSize(value)
	default:
		cents, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &tuning.ValidationError{Field: "pitch", Value: value, Msg: "not a number"}
		}
		return m.session.EditPitch(m.cursor[PaneScale], cents)
	}
}

func (m Model) startInput(kind inputKind, value, placeholder string) (tea.Model, tea.Cmd) {
	m.inputKind = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.state = StateInput
	m.err = nil
	return m, m.input.Focus()
}

func (m Model) rows(p Pane) int {
	if p == PaneScale {
		return len(m.session.Editable())
	}
	return m.session.Mapping().Len()
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.pane = 1 - m.pane
	case "up", "k":
		if m.cursor[m.pane] > 0 {
			m.cursor[m.pane]--
		}
	case "down", "j":
		if m.cursor[m.pane] < m.rows(m.pane)-1 {
			m.cursor[m.pane]++
		}
	case "enter", "e":
		if m.pane == PaneScale && m.rows(PaneScale) > 0 {
			current := m.session.Editable()[m.cursor[PaneScale]]
			return m.startInput(inputPitch, strconv.FormatFloat(current, 'f', -1, 64), "cents")
		}
	case "n":
		return m.startInput(inputGridSize, strconv.Itoa(m.session.GridSize()), "notes per octave")
	case "r":
		if m.pane == PaneScale {
			m.err = m.session.ResetPitch(m.cursor[PaneScale])
		}
	case "R":
		m.session.ResetAll()
	case "+", "=", "-":
		if m.pane == PaneApprox {
			m.err = m.repoint(msg.String() == "-")
		}
	case "x":
		return m, m.exportSCL()
	case "m":
		return m, m.exportMIDI()
	case "o":
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	}

	m.clampCursors()
	return m, nil
}

// repoint moves the selected approximation row to the next or previous degree
func (m Model) repoint(down bool) error {
	mapping := m.session.Mapping()
	row := m.cursor[PaneApprox]
	if row >= mapping.Len() {
		return nil
	}
	source := mapping.Indices[row] + 1
	if down {
		source = mapping.Indices[row] - 1
	}
	return m.session.RepointMapping(row, source)
}

func (m *Model) clampCursors() {
	for _, p := range []Pane{PaneScale, PaneApprox} {
		if n := m.rows(p); m.cursor[p] >= n {
			m.cursor[p] = max(n-1, 0)
		}
	}
}

func (m Model) exportPath(ext string) string {
	dir := m.exportDir
	if dir == "" && m.sourcePath != "" {
		dir = filepath.Dir(m.sourcePath)
	}
	return filepath.Join(dir, tuning.SwapExt(m.session.ExportName(), ext))
}

func (m Model) exportSCL() tea.Cmd {
	s := m.session
	path := m.exportPath(".scl")
	return func() tea.Msg {
		return exportDoneMsg{path: path, err: tuning.WriteFile(path, s.Export(""))}
	}
}

func (m Model) exportMIDI() tea.Cmd {
	s := m.session
	r := m.renderer
	path := m.exportPath(".mid")
	return func() tea.Msg {
		err := r.WriteMIDIFile(s.Mapping().Pitches, path)
		return exportDoneMsg{path: path, err: err}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" XEN APPROXIMATIONS "))
	s.WriteString("\n")

	switch m.state {
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	default:
		s.WriteString(m.viewTables())
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	}
	return s.String()
}

func (m Model) viewFilePicker() string {
	var s strings.Builder
	s.WriteString("Select a .scl file\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: open • esc: back • q: quit"))
	return s.String()
}

func (m Model) viewTables() string {
	if !m.session.Loaded() {
		return statusStyle.Render("Loading...")
	}

	editable := m.session.Editable()
	original := m.session.Original()
	mapping := m.session.Mapping()
	deviations := mapping.Deviations()
	n := m.session.GridSize()

	header := fmt.Sprintf("Original Scale: %s", m.session.Name())
	if m.session.Modified() {
		header += " (edited)"
	}

	var left strings.Builder
	left.WriteString(headerStyle.Render(header))
	left.WriteString("\n")
	left.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %10s", "Index", "Cents")))
	left.WriteString("\n")
	for i, cents := range editable {
		line := fmt.Sprintf("%-6s %10.2f", fmt.Sprintf("%d:", i), cents)
		style := rowStyle
		if i < len(original) && cents != original[i] {
			style = editedStyle
		}
		if m.pane == PaneScale && i == m.cursor[PaneScale] {
			style = selectedStyle
			line = "▸" + line
		} else {
			line = " " + line
		}
		left.WriteString(style.Render(line))
		left.WriteString("\n")
	}

	var right strings.Builder
	right.WriteString(headerStyle.Render(fmt.Sprintf("%d-TET Approximation:", n)))
	right.WriteString("\n")
	right.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-9s %10s %9s", "n-TET", "Original", "Cents", "Dev")))
	right.WriteString("\n")
	for k := 0; k < mapping.Len(); k++ {
		line := fmt.Sprintf("%-6d %-9s %10.2f %+9.2f", k, fmt.Sprintf("(%d)", mapping.Indices[k]), mapping.Pitches[k], deviations[k])
		style := rowStyle
		if m.pane == PaneApprox && k == m.cursor[PaneApprox] {
			style = selectedStyle
			line = "▸" + line
		} else {
			line = " " + line
		}
		right.WriteString(style.Render(line))
		right.WriteString("\n")
	}

	leftStyle, rightStyle := activePaneStyle, paneStyle
	if m.pane == PaneApprox {
		leftStyle, rightStyle = paneStyle, activePaneStyle
	}

	var s strings.Builder
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(left.String()),
		rightStyle.Render(right.String()),
	))
	s.WriteString("\n")

	if m.state == StateInput {
		label := "Cents: "
		if m.inputKind == inputGridSize {
			label = "Number of notes to approximate to: "
		}
		s.WriteString(label + m.input.View())
		s.WriteString("\n")
	}

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}
	if last, count := m.changes.snapshot(); count > 0 {
		s.WriteString(helpStyle.Render(fmt.Sprintf("last change: %s (%d)", last, count)))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("tab: switch • ↑/↓: move • e: edit • r/R: reset • +/-: repoint • n: notes • x: export .scl • m: export .mid • o: open • q: quit"))
	return s.String()
}

// Run starts the TUI application
func Run(s *session.Session, path string, cfg *config.Config) error {
	p := tea.NewProgram(New(s, path, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
