package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// TOCIndentPx is the left margin added per heading level below 1.
const TOCIndentPx = 16

// Heading is one heading of a rendered document, in document order.
type Heading struct {
	Level int    // 1-6
	Text  string // plain text content
	Slug  string // anchor id
}

// slugStrip matches every run of characters that are neither ASCII word
// characters nor CJK unified ideographs.
var slugStrip = regexp.MustCompile(`[^\w\x{4e00}-\x{9fff}]+`)

// Slugify derives an anchor id from heading text.
// Identical texts produce identical slugs; collisions are not resolved.
func Slugify(text string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(s, "-")
}

// collectHeadings walks the document once, assigns an id attribute to every
// heading and returns them in document order. The slice belongs to the
// caller's render; nothing is retained between calls.
func collectHeadings(doc ast.Node, source []byte, math *MathSet) []Heading {
	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		text := strings.TrimSpace(math.Plain(plainText(h, source)))
		slug := Slugify(text)
		h.SetAttributeString("id", []byte(slug))
		headings = append(headings, Heading{Level: h.Level, Text: text, Slug: slug})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// plainText concatenates the text content below n, dropping markup.
func plainText(n ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// GenerateTOC creates the table of contents HTML for the given headings.
// Each entry is indented by (level-1) * TOCIndentPx pixels.
// Returns "" when there are no headings.
func GenerateTOC(headings []Heading, title string) string {
	if len(headings) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="toc">`)

	if title != "" {
		buf.WriteString(`<h3>`)
		buf.WriteString(html.EscapeString(title))
		buf.WriteString(`</h3>`)
	}

	buf.WriteString(`<ul>`)
	for _, h := range headings {
		indent := (h.Level - 1) * TOCIndentPx
		buf.WriteString(fmt.Sprintf(`<li style="margin-left: %dpx"><a href="#`, indent))
		buf.WriteString(html.EscapeString(h.Slug))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(h.Text))
		buf.WriteString(`</a></li>`)
	}
	buf.WriteString(`</ul></nav>`)
	return buf.String()
}
