package render

import (
	"context"

	"github.com/microcosm-cc/bluemonday"

	"github.com/marcus/widgetareas/internal/blocks"
)

// Policy is the HTML policy applied to rendered sidebar content: user
// generated content plus the markup built-in widgets emit.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowElements("section", "aside", "form", "label")
	p.AllowAttrs("role", "method", "action").OnElements("form")
	p.AllowAttrs("type", "name", "value", "placeholder").OnElements("input")
	return p
}

// Sanitizer returns a filter that strips markup p does not allow.
func Sanitizer(p *bluemonday.Policy) Filter {
	return func(_ context.Context, content string) string {
		return p.Sanitize(content)
	}
}

// Default builds the rendering chain used for sidebar content: dynamic
// blocks first, sanitizing last.
func Default(lookup WidgetLookup) *Pipeline {
	br := NewBlockRenderers()
	br.Register(blocks.LegacyWidget, LegacyWidget(lookup))
	br.Register(MarkdownBlock, Markdown)
	return NewPipeline(br.Filter, Sanitizer(Policy()))
}
