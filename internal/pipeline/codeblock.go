package pipeline

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Fence languages handled outside the syntax highlighter.
const (
	LangMermaid = "mermaid"
	LangMath    = "math"
)

// DiagramClass marks containers rendered by mermaid in the browser.
const DiagramClass = "mermaid"

// KindDiagramBlock is the node kind of a mermaid fenced block.
var KindDiagramBlock = ast.NewNodeKind("DiagramBlock")

// KindMathBlock is the node kind of a math fenced block.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// DiagramBlock holds the literal source of a mermaid fence.
type DiagramBlock struct {
	ast.BaseBlock
	Code []byte
}

func (n *DiagramBlock) Kind() ast.NodeKind { return KindDiagramBlock }
func (n *DiagramBlock) IsRaw() bool        { return true }
func (n *DiagramBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Code": string(n.Code)}, nil)
}

// MathBlock holds the TeX source of a math fence.
type MathBlock struct {
	ast.BaseBlock
	TeX []byte
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }
func (n *MathBlock) IsRaw() bool        { return true }
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"TeX": string(n.TeX)}, nil)
}

// fenceTransformer swaps mermaid and math fences for dedicated nodes so the
// highlighter never sees them.
type fenceTransformer struct{}

func (t *fenceTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	// Collect first: replacing children while walking corrupts the walk.
	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			fences = append(fences, fcb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fcb := range fences {
		var replacement ast.Node
		switch strings.ToLower(string(fcb.Language(source))) {
		case LangMermaid:
			replacement = &DiagramBlock{Code: fenceContent(fcb, source)}
		case LangMath:
			replacement = &MathBlock{TeX: fenceContent(fcb, source)}
		default:
			continue
		}
		fcb.Parent().ReplaceChild(fcb.Parent(), fcb, replacement)
	}
}

func fenceContent(fcb *ast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// fenceRenderer writes the containers picked up by the browser scripts.
type fenceRenderer struct{}

func (r *fenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagramBlock, r.renderDiagram)
	reg.Register(KindMathBlock, r.renderMath)
}

// renderDiagram emits the code unescaped: mermaid parses the raw text.
func (r *fenceRenderer) renderDiagram(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	d := n.(*DiagramBlock)
	_, _ = w.WriteString(`<div class="` + DiagramClass + `">`)
	_, _ = w.Write(d.Code)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *fenceRenderer) renderMath(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	m := n.(*MathBlock)
	_, _ = w.WriteString(`<div class="` + MathBlockClass + `">`)
	_, _ = w.WriteString(html.EscapeString(string(m.TeX)))
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// fenceExtension registers the fence transformer and renderer.
// Both run before goldmark-highlighting, which only sees the remaining fences.
type fenceExtension struct{}

func (e *fenceExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&fenceTransformer{}, 100),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&fenceRenderer{}, 100),
	))
}

var _ goldmark.Extender = (*fenceExtension)(nil)
