// Package render turns stored block markup into front-end HTML through an
// ordered chain of content filters.
package render

import (
	"context"
)

// Filter transforms content. Filters never fail; a filter that cannot do
// its job returns its input.
type Filter func(ctx context.Context, content string) string

// Pipeline applies filters in order.
type Pipeline struct {
	filters []Filter
}

// NewPipeline returns a pipeline running filters in the given order.
func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// Use appends a filter to the end of the chain.
func (p *Pipeline) Use(f Filter) {
	p.filters = append(p.filters, f)
}

// Render runs markup through every filter.
func (p *Pipeline) Render(ctx context.Context, markup string) string {
	out := markup
	for _, f := range p.filters {
		out = f(ctx, out)
	}
	return out
}
