package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/marcus/widgetareas/internal/blocks"
)

// MarkdownBlock is the block whose source attribute holds Markdown text.
const MarkdownBlock = "jetpack/markdown"

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders a markdown block's source attribute to HTML. The saved
// inner HTML is ignored in favour of the source.
func Markdown(_ context.Context, b blocks.Block, _ string) (string, error) {
	source, _ := b.Attrs["source"].(string)
	var buf bytes.Buffer
	buf.WriteString(`<div class="wp-block-jetpack-markdown">`)
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	buf.WriteString(`</div>`)
	return buf.String(), nil
}
