package registry

import (
	"sort"
	"sync"

	"github.com/marcus/widgetareas/internal/models"
)

// DefaultPriority is the priority filters usually register at.
const DefaultPriority = 10

// InstanceFilter may rewrite a widget instance's settings before they are
// exposed. Returning false suppresses the instance.
type InstanceFilter func(settings models.Settings, widget Widget, args map[string]any) (models.Settings, bool)

type filterEntry struct {
	priority int
	fn       InstanceFilter
}

// Filters is the widget instance filter chain.
type Filters struct {
	mu      sync.RWMutex
	entries []filterEntry
}

// AddInstanceFilter registers fn. Lower priorities run first; equal
// priorities run in registration order.
func (f *Filters) AddInstanceFilter(priority int, fn InstanceFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Copy so chains already handed to ApplyInstanceFilters stay untouched.
	entries := make([]filterEntry, len(f.entries), len(f.entries)+1)
	copy(entries, f.entries)
	entries = append(entries, filterEntry{priority: priority, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	f.entries = entries
}

// ApplyInstanceFilters runs the chain. The first filter to return false
// stops it and the instance is suppressed.
func (f *Filters) ApplyInstanceFilters(settings models.Settings, widget Widget, args map[string]any) (models.Settings, bool) {
	f.mu.RLock()
	entries := f.entries
	f.mu.RUnlock()

	for _, e := range entries {
		var ok bool
		settings, ok = e.fn(settings, widget, args)
		if !ok {
			return nil, false
		}
	}
	return settings, true
}
