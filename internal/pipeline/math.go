package pipeline

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Math placeholders use Unicode Private Use Area characters.
// They pass through Goldmark unchanged (no WithUnsafe needed) and are
// replaced by math containers after HTML generation.
const (
	mathBlockMarker  = "\uE002" // U+E002: Private Use Area
	mathInlineMarker = "\uE003" // U+E003: Private Use Area
	mathEndMarker    = "\uE004" // U+E004: Private Use Area
)

// Container class names consumed by the KaTeX bootstrap script.
const (
	MathBlockClass  = "math-block"
	MathInlineClass = "math-inline"
)

var (
	// $$...$$: stops at the first closing pair, never contains a dollar.
	blockMathPattern = regexp.MustCompile(`\$\$([^$]+)\$\$`)

	// $...$: single line only.
	inlineMathPattern = regexp.MustCompile(`\$([^$\n]+)\$`)

	// A block placeholder that Goldmark wrapped in its own paragraph.
	blockParagraphPattern = regexp.MustCompile("<p>" + mathBlockMarker + `(\d+)` + mathEndMarker + "</p>\n?")

	// Any placeholder, block or inline.
	placeholderPattern = regexp.MustCompile("([" + mathBlockMarker + mathInlineMarker + `])(\d+)` + mathEndMarker)
)

// MathExpr is one extracted TeX expression.
type MathExpr struct {
	Display bool   // true for $$...$$ blocks
	TeX     string // raw source between the delimiters
}

// MathSet holds the expressions extracted from one document, indexed by
// the number carried in their placeholder.
type MathSet struct {
	exprs []MathExpr
}

// Len returns the number of extracted expressions.
func (m *MathSet) Len() int {
	if m == nil {
		return 0
	}
	return len(m.exprs)
}

func (m *MathSet) add(display bool, tex string) string {
	marker := mathInlineMarker
	if display {
		marker = mathBlockMarker
	}
	m.exprs = append(m.exprs, MathExpr{Display: display, TeX: tex})
	return marker + strconv.Itoa(len(m.exprs)-1) + mathEndMarker
}

// markerScrubber turns marker characters typed by the user into U+FFFD so
// they cannot pose as placeholders.
var markerScrubber = strings.NewReplacer(
	mathBlockMarker, "\uFFFD",
	mathInlineMarker, "\uFFFD",
	mathEndMarker, "\uFFFD",
)

// ExtractMath replaces block math, then inline math, with placeholders.
// Matching is left to right and non-overlapping; a lone "$" is left alone.
func ExtractMath(content string) (string, *MathSet) {
	set := &MathSet{}
	if strings.ContainsAny(content, mathBlockMarker+mathInlineMarker+mathEndMarker) {
		content = markerScrubber.Replace(content)
	}
	if !strings.Contains(content, "$") {
		return content, set
	}

	content = blockMathPattern.ReplaceAllStringFunc(content, func(m string) string {
		tex := blockMathPattern.FindStringSubmatch(m)[1]
		return set.add(true, strings.TrimSpace(tex))
	})
	content = inlineMathPattern.ReplaceAllStringFunc(content, func(m string) string {
		tex := inlineMathPattern.FindStringSubmatch(m)[1]
		return set.add(false, tex)
	})
	return content, set
}

// Restore converts placeholders in rendered HTML to math containers.
// A block placeholder that is alone in a paragraph replaces the paragraph.
func (m *MathSet) Restore(htmlContent string) string {
	if m.Len() == 0 {
		return htmlContent
	}

	htmlContent = blockParagraphPattern.ReplaceAllStringFunc(htmlContent, func(s string) string {
		idx := blockParagraphPattern.FindStringSubmatch(s)[1]
		if c, ok := m.container(mathBlockMarker, idx); ok {
			return c + "\n"
		}
		return s
	})
	return placeholderPattern.ReplaceAllStringFunc(htmlContent, func(s string) string {
		sub := placeholderPattern.FindStringSubmatch(s)
		if c, ok := m.container(sub[1], sub[2]); ok {
			return c
		}
		return s
	})
}

// Plain converts placeholders in plain text back to their TeX source.
// Used for heading text so slugs and TOC labels read naturally.
func (m *MathSet) Plain(text string) string {
	if m.Len() == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(s string) string {
		sub := placeholderPattern.FindStringSubmatch(s)
		i, err := strconv.Atoi(sub[2])
		if err != nil || i >= len(m.exprs) {
			return s
		}
		return m.exprs[i].TeX
	})
}

func (m *MathSet) container(marker, idx string) (string, bool) {
	i, err := strconv.Atoi(idx)
	if err != nil || i >= len(m.exprs) {
		return "", false
	}
	tex := html.EscapeString(m.exprs[i].TeX)
	if marker == mathBlockMarker {
		return `<div class="` + MathBlockClass + `">` + tex + `</div>`, true
	}
	return `<span class="` + MathInlineClass + `">` + tex + `</span>`, true
}
