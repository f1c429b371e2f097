package mdpreview

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/process"
)

// pdfEngine abstracts HTML to PDF printing to allow testing without a browser.
type pdfEngine interface {
	RenderPDF(ctx context.Context, pageHTML string, opts *pdfOptions) ([]byte, error)
}

var _ pdfEngine = (*rodEngine)(nil)

// pdfOptions holds options for one print.
type pdfOptions struct {
	Page        *PageSettings
	SettleDelay time.Duration // fixed wait after network idle
	ReadyWait   time.Duration // upper bound on waiting for readyExpr
}

// readyExpr reports whether the page finished math and diagram rendering.
// The export template sets the flag.
const readyExpr = `() => window.mdpreviewReady === true`

// rodEngine prints pages with a throwaway headless Chrome per call.
// Rod downloads Chromium on first run if no browser is found.
type rodEngine struct{}

// RenderPDF writes pageHTML to a temp file, loads it in a fresh browser and
// prints it. The browser is torn down before returning, even on error.
func (e *rodEngine) RenderPDF(ctx context.Context, pageHTML string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(pageHTML, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	browser, teardown, err := launchBrowser(ctx)
	if err != nil {
		return nil, err
	}
	defer teardown()

	return printFile(ctx, browser, tmpPath, opts)
}

// launchBrowser starts Chrome and connects to it. The returned teardown
// closes the browser and kills its whole process group.
func launchBrowser(ctx context.Context) (*rod.Browser, func(), error) {
	l := launcher.New().Context(ctx)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	pid := l.PID()

	browser := rod.New().ControlURL(u).Context(ctx)
	teardown := func() {
		_ = browser.Close()
		l.Kill()
		process.KillProcessGroup(pid)
		l.Cleanup()
	}

	if err := browser.Connect(); err != nil {
		teardown()
		return nil, nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return browser, teardown, nil
}

// printFile loads filePath and prints it once the page is idle, settled and,
// within ReadyWait, marked ready.
func printFile(ctx context.Context, browser *rod.Browser, filePath string, opts *pdfOptions) ([]byte, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	waitIdle := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate("file://" + filePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitIdle()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := sleepCtx(ctx, opts.SettleDelay); err != nil {
		return nil, err
	}

	// The ready flag is best effort: a page whose scripts failed to load is
	// still printed.
	if opts.ReadyWait > 0 {
		waiter := page.Timeout(opts.ReadyWait)
		_ = waiter.Wait(rod.Eval(readyExpr))
		waiter.CancelTimeout()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	reader, err := page.PDF(buildPDFOptions(opts.Page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// buildPDFOptions converts page settings to Chrome print parameters.
func buildPDFOptions(page *PageSettings) *proto.PagePrintToPDF {
	if page == nil {
		page = DefaultPageSettings()
	}
	width, height, margin := page.dimensions()

	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
