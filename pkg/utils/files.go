package utils

import (
	"path/filepath"
	"strings"
)

// Format is how a program file is stored on disk.
type Format int

const (
	FormatSource Format = iota
	FormatBinary
	FormatHex
)

// DetectFormat picks the format from the file extension: .bin and .hex are
// images, anything else is source text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return FormatBinary
	case ".hex":
		return FormatHex
	}
	return FormatSource
}

// ReplaceExt swaps the extension of path for ext, or appends ext when path
// has none.
func ReplaceExt(path, ext string) string {
	old := filepath.Ext(path)
	if old == "" {
		return path + ext
	}
	return strings.TrimSuffix(path, old) + ext
}
