package render

import (
	"context"
	"log/slog"
	"strings"

	"github.com/marcus/widgetareas/internal/blocks"
)

// BlockRenderFunc renders one block. inner is the block's content with its
// inner blocks already rendered.
type BlockRenderFunc func(ctx context.Context, b blocks.Block, inner string) (string, error)

// BlockRenderers maps block names to dynamic renderers. Blocks without a
// renderer output their saved content.
type BlockRenderers struct {
	renderers map[string]BlockRenderFunc
}

// NewBlockRenderers returns an empty renderer set.
func NewBlockRenderers() *BlockRenderers {
	return &BlockRenderers{renderers: make(map[string]BlockRenderFunc)}
}

// Register sets the renderer for a block name.
func (br *BlockRenderers) Register(name string, fn BlockRenderFunc) {
	br.renderers[name] = fn
}

// Filter renders every block in content. Content without block delimiters
// passes through unchanged.
func (br *BlockRenderers) Filter(ctx context.Context, content string) string {
	if !blocks.HasBlocks(content) {
		return content
	}
	var sb strings.Builder
	for _, b := range blocks.Parse(content) {
		sb.WriteString(br.renderBlock(ctx, b))
	}
	return sb.String()
}

func (br *BlockRenderers) renderBlock(ctx context.Context, b blocks.Block) string {
	var inner strings.Builder
	next := 0
	for _, c := range b.InnerContent {
		if !c.IsBlock {
			inner.WriteString(c.HTML)
			continue
		}
		if next < len(b.InnerBlocks) {
			inner.WriteString(br.renderBlock(ctx, b.InnerBlocks[next]))
			next++
		}
	}

	fn, ok := br.renderers[b.Name]
	if !ok {
		return inner.String()
	}
	out, err := fn(ctx, b, inner.String())
	if err != nil {
		slog.WarnContext(ctx, "render block", "block", b.Name, "err", err)
		return ""
	}
	return out
}
