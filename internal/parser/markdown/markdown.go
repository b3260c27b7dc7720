// Package markdown renders Markdown documents to HTML so that responsive
// image tags written inline are handled like any other markup.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		// Raw <img responsive .../> tags must reach the extractor untouched.
		html.WithUnsafe(),
		html.WithXHTML(),
	),
)

// Render converts Markdown source to HTML.
func Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
