// Package sidebars resolves registered sidebars to block content and applies
// content updates, migrating widget-list sidebars to stored documents.
package sidebars

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/widgetareas/internal/blocks"
	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/registry"
)

// ErrInvalidSidebarID is returned for ids that name no registered sidebar.
var ErrInvalidSidebarID = errors.New("invalid sidebar id")

// ErrDocumentNotFound is returned when updating a sidebar whose referenced
// document no longer exists.
var ErrDocumentNotFound = models.ErrDocumentNotFound

// Registry is the read-only view of registered sidebars and widgets.
type Registry interface {
	SidebarIDs() []string
	Sidebar(id string) (models.Sidebar, bool)
	Widget(id string) (registry.WidgetRegistration, bool)
}

// AssignmentStore loads and saves the sidebar assignment mapping.
type AssignmentStore interface {
	Assignments(ctx context.Context) (models.Assignments, error)
	SetAssignments(ctx context.Context, as models.Assignments) error
}

// ContentStore holds content documents.
type ContentStore interface {
	CreateDocument(ctx context.Context, content, docType string) (int64, error)
	UpdateDocument(ctx context.Context, id int64, content string) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
}

// Renderer produces the front-end HTML of block markup.
type Renderer interface {
	Render(ctx context.Context, markup string) string
}

// InstanceFilterer runs the widget instance filter chain.
type InstanceFilterer interface {
	ApplyInstanceFilters(settings models.Settings, widget registry.Widget, args map[string]any) (models.Settings, bool)
}

// Resolver reads and writes sidebar content.
type Resolver struct {
	registry    Registry
	assignments AssignmentStore
	documents   ContentStore
	renderer    Renderer
	filters     InstanceFilterer
}

// NewResolver wires a resolver to its collaborators.
func NewResolver(reg Registry, assignments AssignmentStore, documents ContentStore, renderer Renderer, filters InstanceFilterer) *Resolver {
	return &Resolver{
		registry:    reg,
		assignments: assignments,
		documents:   documents,
		renderer:    renderer,
		filters:     filters,
	}
}

// List resolves every registered sidebar in registration order.
func (r *Resolver) List(ctx context.Context) (models.SidebarList, error) {
	ids := r.registry.SidebarIDs()
	out := make(models.SidebarList, 0, len(ids))
	for _, id := range ids {
		data, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// Resolve returns the sidebar's fields together with its content.
func (r *Resolver) Resolve(ctx context.Context, sidebarID string) (*models.SidebarData, error) {
	sidebar, ok := r.registry.Sidebar(sidebarID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSidebarID, sidebarID)
	}
	as, err := r.assignments.Assignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	var raw string
	a := as[sidebarID]
	switch {
	case a.IsDocument():
		doc, err := r.documents.GetDocument(ctx, a.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("load document %d: %w", a.DocumentID, err)
		}
		if doc == nil {
			slog.WarnContext(ctx, "sidebar document missing", "sidebar", sidebarID, "doc", a.DocumentID)
		} else {
			raw = doc.Content
		}
	case len(a.Widgets) > 0:
		list := make([]blocks.Block, 0, len(a.Widgets))
		for _, widgetID := range a.Widgets {
			list = append(list, blocks.New(blocks.LegacyWidget, map[string]any{
				"identifier": r.identifier(widgetID),
				"instance":   r.ResolveWidgetInstance(ctx, sidebar, widgetID),
			}))
		}
		raw, err = blocks.Serialize(list)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", sidebarID, err)
		}
	}

	return &models.SidebarData{
		Sidebar: sidebar,
		Content: models.Content{
			Raw:          raw,
			Rendered:     r.renderer.Render(ctx, raw),
			BlockVersion: blocks.Version(raw),
		},
	}, nil
}

// identifier is the widget's class name, or its raw id when it has no
// class-backed object.
func (r *Resolver) identifier(widgetID string) string {
	if reg, ok := r.registry.Widget(widgetID); ok && reg.Object != nil {
		return reg.Object.ClassName()
	}
	return widgetID
}

// ResolveWidgetInstance returns the filtered settings of a widget instance.
// Unregistered or incomplete widgets, and widgets suppressed by a filter,
// yield empty settings. A missing settings entry yields nil.
func (r *Resolver) ResolveWidgetInstance(ctx context.Context, sidebar models.Sidebar, widgetID string) models.Settings {
	reg, ok := r.registry.Widget(widgetID)
	if !ok || reg.Object == nil || reg.Number == nil || reg.Name == "" {
		return models.Settings{}
	}
	obj, ok := reg.Object.(registry.InstanceSettings)
	if !ok {
		return models.Settings{}
	}

	number := *reg.Number
	obj.Hydrate(number)
	all, err := obj.SettingsMap(ctx)
	if err != nil {
		slog.WarnContext(ctx, "widget settings unavailable", "widget", widgetID, "err", err)
		return models.Settings{}
	}
	instance := all[number]

	args := sidebar.Fields()
	args["widget_id"] = widgetID
	args["widget_name"] = reg.Name

	instance, ok = r.filters.ApplyInstanceFilters(instance, reg.Object, args)
	if !ok {
		return models.Settings{}
	}
	return instance
}

// Update stores markup as the sidebar's content and returns the resolved
// result. A widget-list sidebar is migrated: a new document is created, the
// sidebar is pointed at it and its widgets move to the inactive bucket.
// The two writes are not atomic; a failure between them leaves an orphaned
// document and the old assignment in place.
func (r *Resolver) Update(ctx context.Context, sidebarID, markup string) (*models.SidebarData, error) {
	if _, ok := r.registry.Sidebar(sidebarID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSidebarID, sidebarID)
	}
	as, err := r.assignments.Assignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	current := as[sidebarID]
	if current.IsDocument() {
		if err := r.documents.UpdateDocument(ctx, current.DocumentID, markup); err != nil {
			return nil, fmt.Errorf("update %s: %w", sidebarID, err)
		}
		return r.Resolve(ctx, sidebarID)
	}

	docID, err := r.documents.CreateDocument(ctx, markup, models.DocumentTypeArea)
	if err != nil {
		return nil, fmt.Errorf("create document for %s: %w", sidebarID, err)
	}

	next := as.Clone()
	next[sidebarID] = models.DocumentAssignment(docID)
	inactive := next[models.InactiveWidgetsID].Widgets
	next[models.InactiveWidgetsID] = models.WidgetAssignment(append(inactive, current.Widgets...)...)
	if err := r.assignments.SetAssignments(ctx, next); err != nil {
		return nil, fmt.Errorf("assign document %d to %s: %w", docID, sidebarID, err)
	}
	slog.InfoContext(ctx, "sidebar migrated", "sidebar", sidebarID, "doc", docID, "deactivated", len(current.Widgets))

	return r.Resolve(ctx, sidebarID)
}
