package widgets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/registry"
)

type memStore map[string]map[int]models.Settings

func (m memStore) WidgetSettings(_ context.Context, base string) (map[int]models.Settings, error) {
	if base == "broken" {
		return nil, errors.New("boom")
	}
	return m[base], nil
}

func TestTypeSettingsMap(t *testing.T) {
	store := memStore{"text": {2: {"title": "Hi"}, 3: {"title": "Other"}}}
	w := NewText(store)
	w.Hydrate(3)
	if w.Number() != 3 {
		t.Fatalf("number = %d", w.Number())
	}
	got, err := w.SettingsMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got[w.Number()]["title"] != "Other" {
		t.Fatalf("settings = %v", got)
	}
}

func TestTypeSettingsMapError(t *testing.T) {
	w := newType("broken", "Broken", "Broken", "", memStore{})
	if _, err := w.SettingsMap(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDisplayText(t *testing.T) {
	w := NewText(memStore{})
	args := registry.DisplayArgs{
		BeforeWidget: `<section class="widget">`,
		AfterWidget:  `</section>`,
		BeforeTitle:  `<h2>`,
		AfterTitle:   `</h2>`,
	}
	var sb strings.Builder
	err := w.Display(context.Background(), &sb, args, models.Settings{"title": "A & B", "text": "<em>hi</em>"})
	if err != nil {
		t.Fatal(err)
	}
	want := `<section class="widget"><h2>A &amp; B</h2><div class="textwidget"><em>hi</em></div></section>`
	if sb.String() != want {
		t.Fatalf("got  %s\nwant %s", sb.String(), want)
	}
}

func TestDisplayWithoutTitle(t *testing.T) {
	w := NewSearch(memStore{})
	var sb strings.Builder
	if err := w.Display(context.Background(), &sb, registry.DisplayArgs{BeforeTitle: "<h2>"}, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sb.String(), "<h2>") {
		t.Fatalf("empty title rendered: %s", sb.String())
	}
	if !strings.Contains(sb.String(), `class="search-form"`) {
		t.Fatalf("search form missing: %s", sb.String())
	}
}

func TestRegister(t *testing.T) {
	r := registry.New()
	Register(r, memStore{})
	for _, class := range []string{"WP_Widget_Text", "WP_Widget_Custom_HTML", "WP_Widget_Search", "WP_Widget_Recent_Posts"} {
		if _, ok := r.WidgetTypeByClass(class); !ok {
			t.Errorf("%s not registered", class)
		}
	}
	w, ok := r.WidgetTypeByBase("custom_html")
	if !ok {
		t.Fatal("custom_html not registered by base")
	}
	if _, ok := w.(registry.InstanceSettings); !ok {
		t.Fatal("built-in widgets must expose instance settings")
	}
}
