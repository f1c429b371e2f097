package mdpreview

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyHTML      = errors.New("HTML content cannot be empty")
	ErrUnknownStyle   = errors.New("unknown highlight style")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrInvalidPDF     = errors.New("exported file is not a valid PDF")
	ErrExportPage     = errors.New("export page composition failed")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Asset loading errors.
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
