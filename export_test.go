package mdpreview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockEngine records the page it was asked to print.
type mockEngine struct {
	mu      sync.Mutex
	pages   []string
	opts    []*pdfOptions
	result  []byte
	err     error
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (m *mockEngine) RenderPDF(ctx context.Context, pageHTML string, opts *pdfOptions) ([]byte, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.pages = append(m.pages, pageHTML)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockEngine) lastPage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pages) == 0 {
		return ""
	}
	return m.pages[len(m.pages)-1]
}

type mockInspector struct {
	pages int
	err   error
}

func (m *mockInspector) PageCount([]byte) (int, error) {
	return m.pages, m.err
}

func newTestExporter(t *testing.T, engine pdfEngine, inspector pdfInspector, opts ...ExportOption) *Exporter {
	t.Helper()
	opts = append([]ExportOption{withEngine(engine), withInspector(inspector)}, opts...)
	e, err := NewExporter(opts...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	return e
}

func TestNewExporter_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []ExportOption
		wantErr error
	}{
		{"invalid page size", []ExportOption{WithPageSettings(&PageSettings{Size: "a0", Orientation: "portrait", Margin: 20})}, ErrInvalidPageSize},
		{"invalid margin", []ExportOption{WithPageSettings(&PageSettings{Size: "a4", Orientation: "portrait", Margin: 0})}, ErrInvalidMargin},
		{"unknown highlight style", []ExportOption{WithExportHighlightStyle("nope")}, ErrUnknownStyle},
		{"missing asset path", []ExportOption{WithAssetPath("/nonexistent/assets/dir")}, ErrInvalidAssetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewExporter(append(tt.opts, withEngine(&mockEngine{}), withInspector(&mockInspector{}))...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewExporter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: []byte("%PDF-1.7 fake")}
	e := newTestExporter(t, engine, &mockInspector{pages: 3}, WithSettleDelay(250*time.Millisecond))

	res, err := e.Export(context.Background(), "<h1>Hi</h1>", "notes.md")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if string(res.PDF) != "%PDF-1.7 fake" || res.Pages != 3 {
		t.Errorf("Export() = %q, %d pages", res.PDF, res.Pages)
	}

	page := engine.lastPage()
	for _, want := range []string{
		"<title>notes.md</title>",
		"<h1>Hi</h1>",
		katexCSS,
		katexJS,
		mermaidJS,
		".chroma",
		"mdpreviewReady",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("composed page missing %q", want)
		}
	}

	opts := engine.opts[0]
	if opts.SettleDelay != 250*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 250ms", opts.SettleDelay)
	}
	if opts.Page == nil || opts.Page.Size != PageSizeA4 {
		t.Errorf("Page = %+v, want A4 defaults", opts.Page)
	}
}

func TestExporter_Export_EmptyHTML(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	e := newTestExporter(t, engine, &mockInspector{pages: 1})

	for _, in := range []string{"", "  \n\t"} {
		if _, err := e.Export(context.Background(), in, "x"); !errors.Is(err, ErrEmptyHTML) {
			t.Errorf("Export(%q) error = %v, want ErrEmptyHTML", in, err)
		}
	}
	if engine.lastPage() != "" {
		t.Error("engine should not be called for empty HTML")
	}
}

func TestExporter_Export_UntitledDocument(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: []byte("%PDF-")}
	e := newTestExporter(t, engine, &mockInspector{pages: 1})

	if _, err := e.Export(context.Background(), "<p>x</p>", " "); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(engine.lastPage(), "<title>"+untitledPDF+"</title>") {
		t.Errorf("expected fallback title in page")
	}
}

func TestExporter_Export_TitleEscaped(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: []byte("%PDF-")}
	e := newTestExporter(t, engine, &mockInspector{pages: 1})

	if _, err := e.Export(context.Background(), "<p>x</p>", "<script>.md"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.Contains(engine.lastPage(), "<title><script>") {
		t.Error("title was not escaped")
	}
}

func TestExporter_Export_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		engine    *mockEngine
		inspector *mockInspector
		wantErr   error
	}{
		{
			name:      "browser failure",
			engine:    &mockEngine{err: ErrBrowserConnect},
			inspector: &mockInspector{pages: 1},
			wantErr:   ErrBrowserConnect,
		},
		{
			name:      "print failure",
			engine:    &mockEngine{err: ErrPDFGeneration},
			inspector: &mockInspector{pages: 1},
			wantErr:   ErrPDFGeneration,
		},
		{
			name:      "invalid output",
			engine:    &mockEngine{result: []byte("<html>")},
			inspector: &mockInspector{err: ErrInvalidPDF},
			wantErr:   ErrInvalidPDF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestExporter(t, tt.engine, tt.inspector)
			res, err := e.Export(context.Background(), "<p>x</p>", "x.md")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Export() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("Export() should return no result on failure")
			}
		})
	}
}

func TestExporter_Export_Timeout(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: []byte("%PDF-"), delay: time.Second}
	e := newTestExporter(t, engine, &mockInspector{pages: 1}, WithExportTimeout(20*time.Millisecond))

	_, err := e.Export(context.Background(), "<p>slow</p>", "slow.md")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Export() error = %v, want DeadlineExceeded", err)
	}
}

func TestExporter_Export_Canceled(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, &mockEngine{result: []byte("%PDF-")}, &mockInspector{pages: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Export(ctx, "<p>x</p>", "x.md"); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want Canceled", err)
	}
}

func TestExporter_Export_ConcurrencyCap(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{result: []byte("%PDF-"), delay: 30 * time.Millisecond}
	e := newTestExporter(t, engine, &mockInspector{pages: 1}, WithMaxConcurrent(2))
	if e.Slots() != 2 {
		t.Fatalf("Slots() = %d, want 2", e.Slots())
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Export(context.Background(), "<p>x</p>", "x.md"); err != nil {
				t.Errorf("Export() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := engine.maxSeen.Load(); got > 2 {
		t.Errorf("saw %d concurrent exports, want at most 2", got)
	}
}

func TestExporter_Export_SourceDirResolvesImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pic.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	engine := &mockEngine{result: []byte("%PDF-")}
	e := newTestExporter(t, engine, &mockInspector{pages: 1}, WithSourceDir(dir))

	if _, err := e.Export(context.Background(), `<p><img src="pic.png" alt="p"></p>`, "x.md"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(engine.lastPage(), "file://") {
		t.Errorf("relative image not resolved:\n%s", engine.lastPage())
	}
}

func TestExporter_CustomAssets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "styles", "print.css"), []byte("body { color: teal; }"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	engine := &mockEngine{result: []byte("%PDF-")}
	e := newTestExporter(t, engine, &mockInspector{pages: 1}, WithAssetPath(dir))

	if _, err := e.Export(context.Background(), "<p>x</p>", "x.md"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	page := engine.lastPage()
	if !strings.Contains(page, "color: teal") {
		t.Error("custom print style not used")
	}
	if !strings.Contains(page, "mdpreviewReady") {
		t.Error("embedded template should be used when no custom template exists")
	}
}

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	opts := buildPDFOptions(nil)
	if !approx(*opts.PaperWidth, 8.27) || !approx(*opts.PaperHeight, 11.69) {
		t.Errorf("paper = %.2fx%.2f, want A4", *opts.PaperWidth, *opts.PaperHeight)
	}
	if !approx(*opts.MarginTop, 20/mmPerInch) || !approx(*opts.MarginLeft, 20/mmPerInch) {
		t.Errorf("margins = %.3f/%.3f, want 20mm", *opts.MarginTop, *opts.MarginLeft)
	}
	if !opts.PrintBackground {
		t.Error("PrintBackground = false, want true")
	}

	landscape := buildPDFOptions(&PageSettings{Size: "letter", Orientation: "landscape", Margin: 10})
	if !approx(*landscape.PaperWidth, 11) || !approx(*landscape.PaperHeight, 8.5) {
		t.Errorf("landscape paper = %.2fx%.2f, want 11x8.5", *landscape.PaperWidth, *landscape.PaperHeight)
	}
}

func TestSleepCtx(t *testing.T) {
	t.Parallel()

	if err := sleepCtx(context.Background(), 0); err != nil {
		t.Errorf("sleepCtx(0) = %v", err)
	}
	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepCtx(1ms) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepCtx(canceled) = %v, want Canceled", err)
	}
}
