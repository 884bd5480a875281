package tuning

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// .scl layout constants
const (
	CommentPrefix = "!"

	// minRounding is the magnitude below which Encode treats a pitch as the root
	minRounding = 1e-4

	// normalizedLength is the scale length at which the final degree is
	// overwritten by the octave instead of having one appended
	normalizedLength = 13

	encodeHeader = "! Generated by xenapprox"
)

// File is a decoded .scl file with its metadata
type File struct {
	Description   string
	DeclaredCount int
	Pitches       []float64 // parsed pitch lines in file order
	Skipped       []int     // 1-based line numbers of pitch lines that could not be parsed
}

// Scale sorts the parsed pitches and applies root/octave normalization
func (f *File) Scale() Scale {
	sorted := make([]float64, len(f.Pitches))
	copy(sorted, f.Pitches)
	sort.Float64s(sorted)

	scale := make(Scale, 0, len(sorted)+2)
	scale = append(scale, 0.0)
	scale = append(scale, sorted...)

	// Scales longer than normalizedLength are left as they are.
	switch {
	case len(scale) < normalizedLength:
		scale = append(scale, Octave)
	case len(scale) == normalizedLength:
		scale[normalizedLength-1] = Octave
	}
	return scale
}

type sclLine struct {
	num  int
	text string
}

// Parse decodes .scl text keeping the description and parse diagnostics
func Parse(text string) (*File, error) {
	lines := significantLines(text)

	if len(lines) < 1 {
		return nil, &FormatError{Msg: "missing description line"}
	}
	if len(lines) < 2 {
		return nil, &FormatError{Msg: "missing note count line"}
	}

	countLine := lines[1]
	count, err := strconv.Atoi(strings.TrimSpace(countLine.text))
	if err != nil {
		return nil, &FormatError{Line: countLine.num, Msg: fmt.Sprintf("note count %q is not an integer", countLine.text)}
	}
	if count < 0 {
		return nil, &FormatError{Line: countLine.num, Msg: fmt.Sprintf("note count %d is negative", count)}
	}

	file := &File{
		Description:   strings.TrimSpace(lines[0].text),
		DeclaredCount: count,
		Pitches:       make([]float64, 0, count),
	}

	end := 2 + count
	if end > len(lines) {
		end = len(lines)
	}

	for _, line := range lines[2:end] {
		cents, ok := parsePitch(strings.TrimSpace(line.text))
		if !ok {
			file.Skipped = append(file.Skipped, line.num)
			continue
		}
		file.Pitches = append(file.Pitches, cents)
	}

	return file, nil
}

// Decode parses .scl text into a normalized Scale
func Decode(text string) (Scale, error) {
	file, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return file.Scale(), nil
}

// DecodeFile reads a .scl file and returns its parsed form
func DecodeFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scl file: %w", err)
	}
	return Parse(string(data))
}

// Encode renders pitches as .scl text. Pitches within 1e-4 cents of zero are
// omitted and a closing 1200.0 octave line is always written.
func Encode(pitches []float64, noteCount int, title string) string {
	lines := make([]string, 0, len(pitches)+5)
	lines = append(lines,
		encodeHeader,
		CommentPrefix,
		title,
		strconv.Itoa(noteCount),
	)

	for _, cents := range pitches {
		if math.Abs(cents) < minRounding {
			continue
		}
		lines = append(lines, strconv.FormatFloat(cents, 'f', 6, 64))
	}

	lines = append(lines, "1200.0")
	return strings.Join(lines, "\n")
}

// WriteFile writes encoded .scl text to a file
func WriteFile(filename, text string) error {
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write scl file: %w", err)
	}
	return nil
}

// significantLines drops blank lines and comment lines, keeping line numbers
func significantLines(text string) []sclLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []sclLine
	for i, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, CommentPrefix) || strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, sclLine{num: i + 1, text: line})
	}
	return out
}

// parsePitch reads a ratio ("3/2") or a cents value ("701.955")
func parsePitch(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) != 2 {
			return 0, false
		}
		num, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, false
		}
		den, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || den == 0 {
			return 0, false
		}
		return RatioToCents(num / den)
	}

	cents, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(cents) || math.IsInf(cents, 0) {
		return 0, false
	}
	return cents, true
}

// RatioToCents converts a frequency ratio to cents. Non-positive ratios have
// no pitch and report false.
func RatioToCents(ratio float64) (float64, bool) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return 0, false
	}
	return Octave * math.Log2(ratio), true
}
