package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns run results into HTML for admin notices and report files.
// Raw HTML inside the Markdown source is never emitted; previews are rendered
// as escaped code blocks.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer constructs a renderer with table support enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// HTML renders the result through Markdown.
func (r *Renderer) HTML(result *RunResult) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(Markdown(result)), &buf); err != nil {
		return "", fmt.Errorf("report render: %w", err)
	}
	return buf.String(), nil
}
