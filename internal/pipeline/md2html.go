package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// Fragment is the HTML body produced for one document.
type Fragment struct {
	HTML     string
	Headings []Heading
}

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, doc *Prepared) (*Fragment, error)
}

// ConverterOption configures a GoldmarkConverter.
type ConverterOption func(*converterConfig)

type converterConfig struct {
	rawHTML bool
	style   string
}

// WithRawHTML controls whether raw HTML in the source is passed through.
func WithRawHTML(enabled bool) ConverterOption {
	return func(c *converterConfig) { c.rawHTML = enabled }
}

// WithStyle sets the chroma style name. Classes are emitted either way; the
// style only matters for the stylesheet produced by HighlightCSS.
func WithStyle(name string) ConverterOption {
	return func(c *converterConfig) {
		if name != "" {
			c.style = name
		}
	}
}

// GoldmarkConverter converts Markdown to HTML using goldmark (pure Go).
// It holds no per-document state and is safe for concurrent use.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions,
// diagram and math fences, and syntax highlighting.
func NewGoldmarkConverter(opts ...ConverterOption) *GoldmarkConverter {
	cfg := converterConfig{rawHTML: true, style: DefaultHighlightStyle}
	for _, opt := range opts {
		opt(&cfg)
	}

	htmlOpts := []renderer.Option{html.WithHardWraps()}
	if cfg.rawHTML {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			&fenceExtension{},  // mermaid and math fences
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // stylesheet served separately
				),
			),
		),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts prepared Markdown to an HTML fragment.
// Heading ids are assigned during the same pass that collects them, and math
// placeholders are restored before returning.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, doc *Prepared) (*Fragment, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		frag *Fragment
		err  error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, r)}
			}
		}()

		source := []byte(doc.Text)
		root := c.md.Parser().Parse(text.NewReader(source))
		headings := collectHeadings(root, source, doc.Math)

		var buf bytes.Buffer
		if err := c.md.Renderer().Render(&buf, source, root); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{frag: &Fragment{
			HTML:     doc.Math.Restore(buf.String()),
			Headings: headings,
		}}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.frag, r.err
	}
}

var _ HTMLConverter = (*GoldmarkConverter)(nil)
