package pipeline

import (
	"context"
	"regexp"
)

// Prepared is Markdown ready for Goldmark: normalized, with math replaced
// by placeholders that are restored after HTML conversion.
type Prepared struct {
	Text string
	Math *MathSet
}

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) *Prepared
}

// MathPreprocessor normalizes line endings and extracts math expressions.
type MathPreprocessor struct{}

// PreprocessMarkdown applies all transformations to prepare Markdown for conversion.
// Block math is extracted before inline math so that "$$" pairs are never
// read as two empty inline expressions.
func (p *MathPreprocessor) PreprocessMarkdown(ctx context.Context, content string) *Prepared {
	// Check for cancellation before processing
	if ctx.Err() != nil {
		return &Prepared{Text: content, Math: &MathSet{}}
	}

	content = normalizeLineEndings(content)
	text, math := ExtractMath(content)
	return &Prepared{Text: text, Math: math}
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
