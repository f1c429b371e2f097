package mdpreview

import (
	"context"
	"fmt"
	"html"

	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// DefaultTOCTitle is the heading shown above the table of contents.
const DefaultTOCTitle = "Contents"

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = pipeline.DefaultHighlightStyle

// Heading is a document heading in source order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Slug  string `json:"slug"`
}

// RenderResult is the output of one render.
type RenderResult struct {
	HTML     string
	TOC      string
	Headings []Heading
}

// Snapshot is the rendered state pushed to viewers and returned by the API.
type Snapshot struct {
	HTML     string `json:"html"`
	TOC      string `json:"toc"`
	FileName string `json:"fileName,omitempty"`
}

// Snapshot pairs the result with a display name.
func (r RenderResult) Snapshot(fileName string) Snapshot {
	return Snapshot{HTML: r.HTML, TOC: r.TOC, FileName: fileName}
}

// RenderOption configures a Renderer.
type RenderOption func(*renderConfig)

type renderConfig struct {
	tocTitle string
	rawHTML  bool
	style    string
}

// WithTOCTitle sets the title of the generated table of contents.
func WithTOCTitle(title string) RenderOption {
	return func(c *renderConfig) {
		c.tocTitle = title
	}
}

// WithRawHTML enables or disables passthrough of HTML embedded in Markdown.
// Enabled by default.
func WithRawHTML(enabled bool) RenderOption {
	return func(c *renderConfig) {
		c.rawHTML = enabled
	}
}

// WithHighlightStyle selects the chroma style for code highlighting.
func WithHighlightStyle(name string) RenderOption {
	return func(c *renderConfig) {
		c.style = name
	}
}

// Renderer turns Markdown into HTML, a heading list and a table of contents.
// It holds no per-document state and is safe for concurrent use.
type Renderer struct {
	cfg          renderConfig
	css          string
	preprocessor pipeline.MarkdownPreprocessor
	converter    pipeline.HTMLConverter
}

// NewRenderer creates a Renderer.
// Returns ErrUnknownStyle if the highlight style is not a chroma style.
func NewRenderer(opts ...RenderOption) (*Renderer, error) {
	cfg := renderConfig{
		tocTitle: DefaultTOCTitle,
		rawHTML:  true,
		style:    DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	css, err := pipeline.HighlightCSS(cfg.style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStyle, err)
	}

	return &Renderer{
		cfg:          cfg,
		css:          css,
		preprocessor: &pipeline.MathPreprocessor{},
		converter: pipeline.NewGoldmarkConverter(
			pipeline.WithRawHTML(cfg.rawHTML),
			pipeline.WithStyle(cfg.style),
		),
	}, nil
}

// Render converts source to HTML. It never fails: if conversion errors or
// panics, the result is the escaped source in a <pre> block with no TOC.
func (r *Renderer) Render(source string) (result RenderResult) {
	if source == "" {
		return RenderResult{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = fallbackResult(source)
		}
	}()

	ctx := context.Background()
	doc := r.preprocessor.PreprocessMarkdown(ctx, source)
	frag, err := r.converter.ToHTML(ctx, doc)
	if err != nil {
		return fallbackResult(source)
	}

	headings := make([]Heading, len(frag.Headings))
	for i, h := range frag.Headings {
		headings[i] = Heading{Level: h.Level, Text: h.Text, Slug: h.Slug}
	}

	return RenderResult{
		HTML:     frag.HTML,
		TOC:      pipeline.GenerateTOC(frag.Headings, r.cfg.tocTitle),
		Headings: headings,
	}
}

// HighlightCSS returns the stylesheet for highlighted code blocks.
func (r *Renderer) HighlightCSS() string {
	return r.css
}

func fallbackResult(source string) RenderResult {
	return RenderResult{HTML: "<pre>" + html.EscapeString(source) + "</pre>"}
}
