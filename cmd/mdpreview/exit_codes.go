package main

import (
	"errors"
	"os"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
)

// Exit codes. 0, 1 and 2 follow Unix conventions; custom codes stay below 126.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input type
	ExitIO      = 3 // File not found, unreadable, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// ErrUsage marks command-line mistakes.
var ErrUsage = errors.New("invalid usage")

// exitCodeFor returns the exit code for an error.
// It relies on errors.Is, so callers must wrap with %w.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, mdpreview.ErrBrowserConnect) ||
		errors.Is(err, mdpreview.ErrPageCreate) ||
		errors.Is(err, mdpreview.ErrPageLoad) ||
		errors.Is(err, mdpreview.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, fileutil.ErrFileNotFound) ||
		errors.Is(err, fileutil.ErrInvalidUTF8) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, fileutil.ErrNotMarkdown) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdpreview.ErrUnknownStyle) ||
		errors.Is(err, mdpreview.ErrInvalidPageSize) ||
		errors.Is(err, mdpreview.ErrInvalidOrientation) ||
		errors.Is(err, mdpreview.ErrInvalidMargin) ||
		errors.Is(err, mdpreview.ErrInvalidAssetPath) {
		return ExitUsage
	}

	return ExitGeneral
}
