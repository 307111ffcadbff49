package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// Formats lists the output formats a document can be rendered to.
var Formats = []string{"pdf", "png", "svg"}

// PageSizes lists the accepted page size names, compared case-insensitively.
var PageSizes = []string{"letter", "A4"}

// ValidateDimensions checks box dimensions given in centimetres.
// Each must be a finite number greater than zero.
func ValidateDimensions(width, height, depth float64) error {
	for _, d := range []struct {
		name  string
		value float64
	}{{"width", width}, {"height", height}, {"depth", depth}} {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) {
			return New(ErrCodeInvalidDimensions, "%s must be a finite number", d.name)
		}
		if d.value <= 0 {
			return New(ErrCodeInvalidDimensions, "%s must be greater than zero, got %g", d.name, d.value)
		}
	}
	return nil
}

// ValidatePageSize checks a page size name. An empty name is accepted and
// means the default size.
func ValidatePageSize(name string) error {
	if name == "" {
		return nil
	}
	for _, p := range PageSizes {
		if strings.EqualFold(p, name) {
			return nil
		}
	}
	return New(ErrCodeInvalidPageSize, "unknown page size %q (valid: %s)", name, strings.Join(PageSizes, ", "))
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unknown format %q (valid: %s)", format, strings.Join(Formats, ", "))
}

// ValidateOutputPath checks the destination of a generated document.
// It must name a file, not a directory, and contain no control characters.
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidOutput, "output path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidOutput, "output path contains invalid characters")
		}
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidOutput, "output path %q names a directory", path)
	}
	base := filepath.Base(path)
	if base == "." || base == ".." {
		return New(ErrCodeInvalidOutput, "output path %q names a directory", path)
	}
	return nil
}

// ValidateUploadFilename validates the client-supplied name of an uploaded
// image. It must be a simple basename without path components.
func ValidateUploadFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "upload filename cannot be empty")
	}

	if len(filename) > 256 {
		return New(ErrCodeInvalidInput, "upload filename too long (max 256 characters)")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "upload filename cannot contain path separators")
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "upload filename contains invalid control characters")
		}
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidInput, "upload filename cannot be %q", filename)
	}

	return nil
}

// ValidatePath validates a path inside a batch job file for safety.
// Paths are resolved against the job file's directory, so they must stay
// inside it.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
