// Package registry holds the sidebars and widgets registered at startup.
// It is populated before the server accepts requests and only read afterwards.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marcus/widgetareas/internal/models"
)

// Widget is a class-backed widget object shared by all instances of its type.
type Widget interface {
	ClassName() string
	IDBase() string
}

// InstanceSettings is implemented by widget objects that keep per-instance
// settings. Hydrate selects the instance number before settings are read.
type InstanceSettings interface {
	Hydrate(number int)
	SettingsMap(ctx context.Context) (map[int]models.Settings, error)
}

// DisplayArgs is the chrome wrapped around a displayed widget.
type DisplayArgs struct {
	WidgetID     string
	BeforeWidget string
	AfterWidget  string
	BeforeTitle  string
	AfterTitle   string
}

// Displayer writes the front-end HTML of a widget instance.
type Displayer interface {
	Display(ctx context.Context, w io.Writer, args DisplayArgs, instance models.Settings) error
}

// WidgetRegistration is one registered widget instance. Object is nil for
// callback-only widgets, which can still be displayed through Callback.
type WidgetRegistration struct {
	ID       string
	Name     string
	Object   Widget
	Number   *int
	Callback Displayer
}

// Registry is the set of registered sidebars, widget types and widget instances.
type Registry struct {
	mu       sync.RWMutex
	sidebars map[string]models.Sidebar
	order    []string
	widgets  map[string]WidgetRegistration
	byClass  map[string]Widget
	byBase   map[string]Widget

	Filters *Filters
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		sidebars: make(map[string]models.Sidebar),
		widgets:  make(map[string]WidgetRegistration),
		byClass:  make(map[string]Widget),
		byBase:   make(map[string]Widget),
		Filters:  &Filters{},
	}
}

// RegisterSidebar adds a sidebar. Ids must be unique and non-empty.
func (r *Registry) RegisterSidebar(s models.Sidebar) error {
	if s.ID == "" {
		return fmt.Errorf("register sidebar: id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sidebars[s.ID]; ok {
		return fmt.Errorf("register sidebar: duplicate id %q", s.ID)
	}
	r.sidebars[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// RegisterWidgetType makes a widget type available by class name and id base.
func (r *Registry) RegisterWidgetType(w Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byClass[w.ClassName()] = w
	r.byBase[w.IDBase()] = w
}

// RegisterWidget adds a widget instance registration.
func (r *Registry) RegisterWidget(reg WidgetRegistration) error {
	if reg.ID == "" {
		return fmt.Errorf("register widget: id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.widgets[reg.ID]; ok {
		return fmt.Errorf("register widget: duplicate id %q", reg.ID)
	}
	r.widgets[reg.ID] = reg
	return nil
}

// SidebarIDs returns the registered sidebar ids in registration order.
func (r *Registry) SidebarIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Sidebar looks up a registered sidebar.
func (r *Registry) Sidebar(id string) (models.Sidebar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sidebars[id]
	return s, ok
}

// Widget looks up a registered widget instance.
func (r *Registry) Widget(id string) (WidgetRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[id]
	return w, ok
}

// WidgetIDs returns all registered widget instance ids, sorted.
func (r *Registry) WidgetIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.widgets))
	for id := range r.widgets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WidgetTypeByClass finds a widget type by its class name.
func (r *Registry) WidgetTypeByClass(class string) (Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byClass[class]
	return w, ok
}

// WidgetTypeByBase finds a widget type by its id base.
func (r *Registry) WidgetTypeByBase(base string) (Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byBase[base]
	return w, ok
}
