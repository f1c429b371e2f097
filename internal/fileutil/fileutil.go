// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrFileNotFound           = errors.New("file not found")
	ErrNotMarkdown            = errors.New("file must be a Markdown file (.md or .markdown)")
	ErrInvalidUTF8            = errors.New("file is not valid UTF-8")
)

// MarkdownExtensions lists the accepted document extensions.
var MarkdownExtensions = []string{".md", ".markdown"}

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "mdpreview-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsMarkdownPath reports whether name ends in a Markdown extension.
// The comparison ignores case.
func IsMarkdownPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, md := range MarkdownExtensions {
		if ext == md {
			return true
		}
	}
	return false
}

// ValidateMarkdownPath resolves path to an absolute path and checks that it
// names an existing regular file with a Markdown extension.
// Existence is checked first so a missing file is reported as missing.
func ValidateMarkdownPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if !FileExists(abs) {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, abs)
	}
	if !IsMarkdownPath(abs) {
		return "", fmt.Errorf("%w: %s", ErrNotMarkdown, abs)
	}
	return abs, nil
}

// ReadMarkdown reads a document and checks that it decodes as UTF-8.
func ReadMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-selected document
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidUTF8, path)
	}
	return string(data), nil
}

// PDFName returns the download name for a document: its base name with the
// Markdown extension replaced by ".pdf".
func PDFName(path string) string {
	base := filepath.Base(path)
	if IsMarkdownPath(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	return base + ".pdf"
}
