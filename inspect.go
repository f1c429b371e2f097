package mdpreview

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfSignature starts every PDF file.
var pdfSignature = []byte("%PDF-")

// pdfInspector checks exported bytes before they leave the exporter.
type pdfInspector interface {
	PageCount(pdf []byte) (int, error)
}

var _ pdfInspector = (*pdfcpuInspector)(nil)

var disablePdfcpuConfig sync.Once

// pdfcpuInspector parses the document with pdfcpu.
type pdfcpuInspector struct{}

func newPdfcpuInspector() *pdfcpuInspector {
	// pdfcpu otherwise writes a config directory under the user's home.
	disablePdfcpuConfig.Do(api.DisableConfigDir)
	return &pdfcpuInspector{}
}

// PageCount returns the number of pages, or ErrInvalidPDF if pdf does not
// start with the PDF signature or cannot be parsed.
func (i *pdfcpuInspector) PageCount(pdf []byte) (int, error) {
	if !bytes.HasPrefix(pdf, pdfSignature) {
		return 0, fmt.Errorf("%w: missing %%PDF- signature", ErrInvalidPDF)
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if ctx.PageCount < 1 {
		return 0, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return ctx.PageCount, nil
}
