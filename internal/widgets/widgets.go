// Package widgets provides the built-in classic widget types. Instance
// settings live in the option store under widget_<id base>.
package widgets

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"sync/atomic"

	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/registry"
)

// SettingsStore loads the settings of every instance of a widget type.
type SettingsStore interface {
	WidgetSettings(ctx context.Context, idBase string) (map[int]models.Settings, error)
}

// Type is a widget type. One Type is shared by all of its instances; Hydrate
// selects which instance subsequent calls act on.
type Type struct {
	idBase    string
	className string
	name      string
	store     SettingsStore
	tmpl      *template.Template
	number    atomic.Int64
}

// displayData is handed to widget templates.
type displayData struct {
	Args     registry.DisplayArgs
	Instance models.Settings
	Number   int
}

var funcs = template.FuncMap{
	"raw": func(s any) template.HTML { return template.HTML(fmt.Sprint(s)) },
	"str": func(v any) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	},
}

// chrome wraps every widget body in the sidebar's before/after markup.
const chrome = `{{define "title"}}{{with str .Instance.title}}{{raw $.Args.BeforeTitle}}{{.}}{{raw $.Args.AfterTitle}}{{end}}{{end}}` +
	`{{raw .Args.BeforeWidget}}{{template "body" .}}{{raw .Args.AfterWidget}}`

func newType(idBase, className, name, body string, store SettingsStore) *Type {
	t := template.Must(template.New(idBase).Funcs(funcs).Parse(chrome))
	template.Must(t.New("body").Parse(body))
	return &Type{idBase: idBase, className: className, name: name, store: store, tmpl: t}
}

// ClassName returns the identifier used in legacy widget blocks.
func (t *Type) ClassName() string { return t.className }

// IDBase returns the prefix of instance ids and of the settings option.
func (t *Type) IDBase() string { return t.idBase }

// Name returns the display name.
func (t *Type) Name() string { return t.name }

// Hydrate selects the instance number.
func (t *Type) Hydrate(number int) { t.number.Store(int64(number)) }

// Number returns the currently selected instance number.
func (t *Type) Number() int { return int(t.number.Load()) }

// SettingsMap returns the settings of all instances keyed by number.
func (t *Type) SettingsMap(ctx context.Context) (map[int]models.Settings, error) {
	settings, err := t.store.WidgetSettings(ctx, t.idBase)
	if err != nil {
		return nil, fmt.Errorf("%s settings: %w", t.idBase, err)
	}
	return settings, nil
}

// Display writes the instance's front-end HTML.
func (t *Type) Display(ctx context.Context, w io.Writer, args registry.DisplayArgs, instance models.Settings) error {
	if instance == nil {
		instance = models.Settings{}
	}
	return t.tmpl.Execute(w, displayData{Args: args, Instance: instance, Number: t.Number()})
}

// NewText is the free-text widget: title plus HTML text.
func NewText(store SettingsStore) *Type {
	return newType("text", "WP_Widget_Text", "Text",
		`{{template "title" .}}<div class="textwidget">{{raw (str .Instance.text)}}</div>`, store)
}

// NewCustomHTML is the arbitrary HTML widget.
func NewCustomHTML(store SettingsStore) *Type {
	return newType("custom_html", "WP_Widget_Custom_HTML", "Custom HTML",
		`{{template "title" .}}<div class="textwidget custom-html-widget">{{raw (str .Instance.content)}}</div>`, store)
}

// NewSearch is the search form widget.
func NewSearch(store SettingsStore) *Type {
	return newType("search", "WP_Widget_Search", "Search",
		`{{template "title" .}}<form role="search" method="get" class="search-form" action="/">`+
			`<label><span class="screen-reader-text">Search for:</span>`+
			`<input type="search" class="search-field" name="s" value=""></label>`+
			`<input type="submit" class="search-submit" value="Search"></form>`, store)
}

// NewRecentPosts is the recent posts widget. Only the list container is
// rendered; the front end fills it.
func NewRecentPosts(store SettingsStore) *Type {
	return newType("recent-posts", "WP_Widget_Recent_Posts", "Recent Posts",
		`{{template "title" .}}<ul class="recent-posts" data-number="{{str .Instance.number}}"></ul>`, store)
}

// Builtins returns every built-in widget type bound to store.
func Builtins(store SettingsStore) []*Type {
	return []*Type{
		NewText(store),
		NewCustomHTML(store),
		NewSearch(store),
		NewRecentPosts(store),
	}
}

// Register adds all built-in widget types to r.
func Register(r *registry.Registry, store SettingsStore) {
	for _, t := range Builtins(store) {
		r.RegisterWidgetType(t)
	}
}
