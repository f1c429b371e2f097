package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrPageRender indicates the export page template failed to execute.
var ErrPageRender = errors.New("page template rendering failed")

// PageData is the input of the export page template.
type PageData struct {
	Title       string
	Body        template.HTML
	Styles      []template.CSS // inlined in <style> blocks
	Stylesheets []string       // linked by URL
	Scripts     []string       // loaded by URL, in order
}

// PageComposer renders a complete HTML document around a rendered body.
type PageComposer struct {
	tmpl *template.Template
}

// NewPageComposer parses the page template.
// Returns error if the template cannot be parsed.
func NewPageComposer(tmplContent string) (*PageComposer, error) {
	tmpl, err := template.New("page").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &PageComposer{tmpl: tmpl}, nil
}

// Compose executes the template. Inline styles are sanitized first because
// template.CSS is written verbatim inside <style>.
func (p *PageComposer) Compose(ctx context.Context, data PageData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	styles := make([]template.CSS, 0, len(data.Styles))
	for _, css := range data.Styles {
		if css == "" {
			continue
		}
		styles = append(styles, template.CSS(sanitizeCSS(string(css))))
	}
	data.Styles = styles

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
