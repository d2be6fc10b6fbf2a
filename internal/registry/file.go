package registry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcus/widgetareas/internal/models"
)

// File is the YAML registration file read at startup.
//
//	sidebars:
//	  - id: sidebar-1
//	    name: Main Sidebar
//	widgets:
//	  - id: text-2
//	    type: text
//	    name: Text
//	defaults:
//	  sidebars_widgets:
//	    sidebar-1: [text-2]
//	  widget_settings:
//	    text:
//	      2: {title: Hello}
type File struct {
	Sidebars []models.Sidebar `yaml:"sidebars"`
	Widgets  []WidgetEntry    `yaml:"widgets"`
	Defaults Defaults         `yaml:"defaults"`
}

// WidgetEntry registers one widget instance. Type is the id base of a
// registered widget type; leave it empty for callback-only widgets. An entry
// without a name is registered nameless, so its instance resolves to {}.
type WidgetEntry struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	Name   string `yaml:"name"`
	Number *int   `yaml:"number,omitempty"`
}

// Defaults seeds the store the first time it is opened.
type Defaults struct {
	SidebarsWidgets map[string][]string                `yaml:"sidebars_widgets"`
	WidgetSettings  map[string]map[int]models.Settings `yaml:"widget_settings"`
}

// LoadFile reads and parses a registration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registration file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFile parses registration YAML.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registration: %w", err)
	}
	return &f, nil
}

// Apply registers the file's sidebars and widgets. Widget types referenced
// by entries must already be registered.
func (f *File) Apply(r *Registry) error {
	for _, s := range f.Sidebars {
		if err := r.RegisterSidebar(s); err != nil {
			return err
		}
	}

	for _, e := range f.Widgets {
		reg := WidgetRegistration{ID: e.ID, Name: e.Name, Number: e.Number}
		if e.Type != "" {
			w, ok := r.WidgetTypeByBase(e.Type)
			if !ok {
				return fmt.Errorf("widget %q: unknown type %q", e.ID, e.Type)
			}
			reg.Object = w
			if reg.Number == nil {
				if n, ok := numberFromID(e.ID, e.Type); ok {
					reg.Number = &n
				}
			}
		}
		if err := r.RegisterWidget(reg); err != nil {
			return err
		}
	}
	return nil
}

// numberFromID extracts the instance number from ids shaped "<base>-<n>".
func numberFromID(id, base string) (int, bool) {
	rest, ok := strings.CutPrefix(id, base+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
