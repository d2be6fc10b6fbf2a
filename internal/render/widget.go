package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcus/widgetareas/internal/blocks"
	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/registry"
)

// WidgetLookup finds widget types and registered widget instances.
type WidgetLookup interface {
	WidgetTypeByClass(class string) (registry.Widget, bool)
	Widget(id string) (registry.WidgetRegistration, bool)
}

// LegacyWidget renders core/legacy-widget blocks. The identifier attribute is
// either a widget class name, displayed with the block's inline instance, or
// the id of a registered widget, displayed through its callback.
func LegacyWidget(lookup WidgetLookup) BlockRenderFunc {
	return func(ctx context.Context, b blocks.Block, _ string) (string, error) {
		identifier, _ := b.Attrs["identifier"].(string)
		if identifier == "" {
			return "", nil
		}
		instance, _ := b.Attrs["instance"].(map[string]any)

		var (
			d    registry.Displayer
			base string
		)
		if w, ok := lookup.WidgetTypeByClass(identifier); ok {
			dd, ok := w.(registry.Displayer)
			if !ok {
				return "", fmt.Errorf("widget %s cannot be displayed", identifier)
			}
			d, base = dd, w.IDBase()
		} else if reg, ok := lookup.Widget(identifier); ok && reg.Callback != nil {
			d, base = reg.Callback, baseOf(identifier)
		} else {
			return "", nil
		}

		var sb strings.Builder
		args := registry.DisplayArgs{
			WidgetID:     identifier,
			BeforeWidget: fmt.Sprintf(`<div class="widget widget_%s">`, base),
			AfterWidget:  `</div>`,
			BeforeTitle:  `<h2 class="widgettitle">`,
			AfterTitle:   `</h2>`,
		}
		if err := d.Display(ctx, &sb, args, models.Settings(instance)); err != nil {
			return "", fmt.Errorf("display %s: %w", identifier, err)
		}
		return sb.String(), nil
	}
}

// baseOf strips a trailing -<number> from a widget id.
func baseOf(id string) string {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 {
		return id
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:i]
}
