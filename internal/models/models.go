package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// InactiveWidgetsID is the reserved assignment key collecting widgets that were
// moved out of a sidebar. It is only ever appended to.
const InactiveWidgetsID = "wp_inactive_widgets"

// DocumentTypeArea is the document type used for sidebar content documents.
const DocumentTypeArea = "wp_area"

// ErrDocumentNotFound is returned when a referenced content document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// Settings is the stored settings blob of a single widget instance.
type Settings map[string]any

// Sidebar is a registered widget area.
type Sidebar struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Class        string `json:"class" yaml:"class"`
	BeforeWidget string `json:"before_widget" yaml:"before_widget"`
	AfterWidget  string `json:"after_widget" yaml:"after_widget"`
	BeforeTitle  string `json:"before_title" yaml:"before_title"`
	AfterTitle   string `json:"after_title" yaml:"after_title"`
}

// Fields returns the sidebar as a flat argument map, the shape handed to
// widget instance filters.
func (s Sidebar) Fields() map[string]any {
	return map[string]any{
		"id":            s.ID,
		"name":          s.Name,
		"description":   s.Description,
		"class":         s.Class,
		"before_widget": s.BeforeWidget,
		"after_widget":  s.AfterWidget,
		"before_title":  s.BeforeTitle,
		"after_title":   s.AfterTitle,
	}
}

// Assignment is what a sidebar currently holds: either a reference to a
// content document or an ordered list of widget instance ids, never both.
type Assignment struct {
	DocumentID int64
	Widgets    []string
}

// DocumentAssignment returns an assignment pointing at a content document.
func DocumentAssignment(id int64) Assignment {
	return Assignment{DocumentID: id}
}

// WidgetAssignment returns a widget-list assignment.
func WidgetAssignment(ids ...string) Assignment {
	return Assignment{Widgets: ids}
}

// IsDocument reports whether the assignment references a content document.
func (a Assignment) IsDocument() bool {
	return a.DocumentID > 0
}

// MarshalJSON encodes document assignments as a number and widget lists as an array.
func (a Assignment) MarshalJSON() ([]byte, error) {
	if a.IsDocument() {
		return []byte(strconv.FormatInt(a.DocumentID, 10)), nil
	}
	if a.Widgets == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Widgets)
}

// UnmarshalJSON accepts a number, a numeric string, an array of widget ids or null.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = Assignment{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		return json.Unmarshal(data, &a.Widgets)
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("assignment: non-numeric reference %q", s)
		}
		a.DocumentID = id
		return nil
	default:
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("assignment: %w", err)
		}
		a.DocumentID = id
		return nil
	}
}

// Assignments maps sidebar ids (and the inactive bucket) to their assignment.
type Assignments map[string]Assignment

// Clone returns a deep copy.
func (as Assignments) Clone() Assignments {
	out := make(Assignments, len(as))
	for id, a := range as {
		if a.Widgets != nil {
			a.Widgets = append([]string(nil), a.Widgets...)
		}
		out[id] = a
	}
	return out
}

// Document is a stored block document.
type Document struct {
	ID        int64
	Type      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Content is the resolved content of a sidebar.
type Content struct {
	Raw          string `json:"raw"`
	Rendered     string `json:"rendered"`
	BlockVersion int    `json:"block_version"`
}

// SidebarData is a sidebar's registry fields plus its resolved content.
type SidebarData struct {
	Sidebar
	Content Content `json:"content"`
}

// SidebarList holds resolved sidebars in registration order. It encodes as
// an object keyed by sidebar id with keys in list order.
type SidebarList []*SidebarData

// MarshalJSON encodes the list as {"<id>": {...}, ...}.
func (l SidebarList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("sidebar %s: %w", d.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an id-keyed object, keeping the order of its keys.
func (l *SidebarList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sidebar list: expected object, got %v", tok)
	}
	out := SidebarList{}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var d SidebarData
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("sidebar list: %w", err)
		}
		out = append(out, &d)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}
