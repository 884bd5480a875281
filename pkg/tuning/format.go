package tuning

import (
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatSCL     Format = "scl"
	FormatMIDI    Format = "midi"
	FormatYAML    Format = "yaml"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".scl":
		return FormatSCL
	case ".mid", ".midi":
		return FormatMIDI
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// SwapExt replaces the extension of filename with ext
func SwapExt(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}
