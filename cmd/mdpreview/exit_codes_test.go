package main

// Notes:
// - exitCodeFor: we test the sentinel errors of every package the CLI calls,
//   plus wrapped errors to verify the errors.Is chain.
// - Exit code constants: we verify Unix conventions (0=success, 1=general,
//   2=usage) and that custom codes stay below 126.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/server"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", mdpreview.ErrBrowserConnect, ExitBrowser},
		{"page create", mdpreview.ErrPageCreate, ExitBrowser},
		{"page load", mdpreview.ErrPageLoad, ExitBrowser},
		{"pdf generation", mdpreview.ErrPDFGeneration, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("export: %w", mdpreview.ErrBrowserConnect), ExitBrowser},

		// I/O errors (exit 3)
		{"file not found", fileutil.ErrFileNotFound, ExitIO},
		{"invalid utf8", fileutil.ErrInvalidUTF8, ExitIO},
		{"os not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"wrapped file not found", fmt.Errorf("%w: /tmp/a.md", fileutil.ErrFileNotFound), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"joined usage", errors.Join(ErrUsage, errors.New("unknown flag")), ExitUsage},
		{"not markdown", fileutil.ErrNotMarkdown, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config not found struct", &config.NotFoundError{Name: "x"}, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"unknown style", mdpreview.ErrUnknownStyle, ExitUsage},
		{"invalid page size", mdpreview.ErrInvalidPageSize, ExitUsage},
		{"invalid orientation", mdpreview.ErrInvalidOrientation, ExitUsage},
		{"invalid margin", mdpreview.ErrInvalidMargin, ExitUsage},
		{"invalid asset path", mdpreview.ErrInvalidAssetPath, ExitUsage},

		// General errors (exit 1)
		{"listen", server.ErrListen, ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Exit code values
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("conventional codes changed: success=%d general=%d usage=%d", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitBrowser} {
		if code <= ExitUsage || code >= 126 {
			t.Errorf("custom exit code %d out of range (3-125)", code)
		}
	}
}
