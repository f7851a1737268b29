package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Description derives the description of an artifact: its base filename without
// the final extension.
func Description(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StripIndexLayers removes the last n sep-delimited tokens from a description.
// Stripping at least as many layers as there are tokens yields the empty string.
func StripIndexLayers(description string, n int, sep string) string {
	if n <= 0 {
		return description
	}
	parts := strings.Split(description, sep)
	if n >= len(parts) {
		return ""
	}
	return strings.Join(parts[:len(parts)-n], sep)
}

// IndexLayer formats a zero padded index layer token.
func IndexLayer(i int) string {
	return fmt.Sprintf("%0*d", IndexPadding, i)
}

// InsertIndexLayer appends an index layer to the filename of path, keeping its
// extension and placing the result in dir.
func InsertIndexLayer(path, dir string, i int, sep string) string {
	ext := filepath.Ext(path)
	return filepath.Join(dir, Description(path)+sep+IndexLayer(i)+ext)
}
