package mdpreview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/alnah/go-mdpreview/internal/assets"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// Default export timings.
const (
	DefaultExportTimeout = 60 * time.Second
	DefaultSettleDelay   = time.Second
	defaultReadyWait     = 5 * time.Second
)

// Browser-side libraries referenced by the export page.
const (
	katexCSS  = "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.css"
	katexJS   = "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.js"
	mermaidJS = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// untitledPDF is the page title when no display name is given.
const untitledPDF = "Document"

// ExportResult is a verified PDF.
type ExportResult struct {
	PDF   []byte
	Pages int
}

// ExportOption configures an Exporter.
type ExportOption func(*exportConfig)

type exportConfig struct {
	timeout       time.Duration
	settleDelay   time.Duration
	readyWait     time.Duration
	maxConcurrent int
	page          *PageSettings
	assetPath     string
	sourceDir     string
	style         string
	engine        pdfEngine
	inspector     pdfInspector
}

// WithExportTimeout bounds the whole export, browser launch included.
func WithExportTimeout(d time.Duration) ExportOption {
	return func(c *exportConfig) {
		c.timeout = d
	}
}

// WithSettleDelay sets the fixed wait between network idle and printing.
func WithSettleDelay(d time.Duration) ExportOption {
	return func(c *exportConfig) {
		c.settleDelay = d
	}
}

// WithMaxConcurrent caps simultaneous browser instances. 0 sizes the cap
// from GOMAXPROCS (see ResolveExportSlots).
func WithMaxConcurrent(n int) ExportOption {
	return func(c *exportConfig) {
		c.maxConcurrent = n
	}
}

// WithPageSettings sets paper size, orientation and margins.
func WithPageSettings(p *PageSettings) ExportOption {
	return func(c *exportConfig) {
		c.page = p
	}
}

// WithAssetPath loads the print stylesheet and page template from a
// directory, falling back to the embedded assets for missing files.
func WithAssetPath(path string) ExportOption {
	return func(c *exportConfig) {
		c.assetPath = path
	}
}

// WithSourceDir resolves relative image and link targets in exported HTML
// against dir.
func WithSourceDir(dir string) ExportOption {
	return func(c *exportConfig) {
		c.sourceDir = dir
	}
}

// WithExportHighlightStyle selects the chroma stylesheet embedded in the PDF.
func WithExportHighlightStyle(name string) ExportOption {
	return func(c *exportConfig) {
		c.style = name
	}
}

// withEngine replaces the browser for tests.
func withEngine(e pdfEngine) ExportOption {
	return func(c *exportConfig) {
		c.engine = e
	}
}

// withInspector replaces PDF verification for tests.
func withInspector(i pdfInspector) ExportOption {
	return func(c *exportConfig) {
		c.inspector = i
	}
}

// withReadyWait overrides the bound on the ready-marker wait.
func withReadyWait(d time.Duration) ExportOption {
	return func(c *exportConfig) {
		c.readyWait = d
	}
}

// Exporter renders HTML fragments to PDF through headless Chrome.
// Exports share no mutable state and may run concurrently, up to the slot
// limit; each one launches its own browser.
type Exporter struct {
	cfg       exportConfig
	composer  *pipeline.PageComposer
	printCSS  string
	codeCSS   string
	engine    pdfEngine
	inspector pdfInspector
	slots     *slotLimiter
}

// NewExporter creates an Exporter.
// Returns error if page settings are invalid or assets cannot be loaded.
func NewExporter(opts ...ExportOption) (*Exporter, error) {
	cfg := exportConfig{
		timeout:     DefaultExportTimeout,
		settleDelay: DefaultSettleDelay,
		readyWait:   defaultReadyWait,
		page:        DefaultPageSettings(),
		style:       DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.page.Validate(); err != nil {
		return nil, err
	}

	files, err := assets.LoadExportFiles(cfg.assetPath)
	if err != nil {
		if errors.Is(err, assets.ErrInvalidDir) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		return nil, err
	}
	composer, err := pipeline.NewPageComposer(files.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportPage, err)
	}

	codeCSS, err := pipeline.HighlightCSS(cfg.style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStyle, err)
	}

	e := &Exporter{
		cfg:       cfg,
		composer:  composer,
		printCSS:  files.PrintCSS,
		codeCSS:   codeCSS,
		engine:    cfg.engine,
		inspector: cfg.inspector,
		slots:     newSlotLimiter(ResolveExportSlots(cfg.maxConcurrent)),
	}
	if e.engine == nil {
		e.engine = &rodEngine{}
	}
	if e.inspector == nil {
		e.inspector = newPdfcpuInspector()
	}
	return e, nil
}

// Export prints a rendered HTML fragment as a standalone PDF titled
// displayName. On any failure no bytes are returned.
func (e *Exporter) Export(ctx context.Context, htmlBody, displayName string) (*ExportResult, error) {
	if strings.TrimSpace(htmlBody) == "" {
		return nil, ErrEmptyHTML
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	if err := e.slots.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.slots.release()

	page, err := e.composePage(ctx, htmlBody, displayName)
	if err != nil {
		return nil, err
	}

	pdf, err := e.engine.RenderPDF(ctx, page, &pdfOptions{
		Page:        e.cfg.page,
		SettleDelay: e.cfg.settleDelay,
		ReadyWait:   e.cfg.readyWait,
	})
	if err != nil {
		return nil, err
	}

	pages, err := e.inspector.PageCount(pdf)
	if err != nil {
		return nil, err
	}
	return &ExportResult{PDF: pdf, Pages: pages}, nil
}

// composePage wraps the fragment in the export template with the print and
// highlight stylesheets and the math and diagram scripts.
func (e *Exporter) composePage(ctx context.Context, htmlBody, displayName string) (string, error) {
	if e.cfg.sourceDir != "" {
		resolved, err := pipeline.ResolveLocalResources(htmlBody, e.cfg.sourceDir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExportPage, err)
		}
		htmlBody = resolved
	}

	title := strings.TrimSpace(displayName)
	if title == "" {
		title = untitledPDF
	}

	page, err := e.composer.Compose(ctx, pipeline.PageData{
		Title:       title,
		Body:        template.HTML(htmlBody), // #nosec G203 -- rendered by our own pipeline
		Styles:      []template.CSS{template.CSS(e.codeCSS), template.CSS(e.printCSS)}, // #nosec G203
		Stylesheets: []string{katexCSS},
		Scripts:     []string{katexJS, mermaidJS},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrExportPage, err)
	}
	return page, nil
}

// Slots returns how many exports may run at once.
func (e *Exporter) Slots() int {
	return e.slots.size()
}
