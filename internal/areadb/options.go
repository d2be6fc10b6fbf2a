package areadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"github.com/marcus/widgetareas/internal/models"
)

const (
	optionSidebarsWidgets = "sidebars_widgets"
	optionEditorSettings  = "widget_editor_settings"
	widgetOptionPrefix    = "widget_"
	multiwidgetKey        = "_multiwidget"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// getOption decodes the named option into v. It reports false when the
// option has never been set.
func getOption(ctx context.Context, q querier, name string, v any) (bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get option %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode option %s: %w", name, err)
	}
	return true, nil
}

func setOption(ctx context.Context, q querier, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode option %s: %w", name, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set option %s: %w", name, err)
	}
	return nil
}

// Assignments returns the stored sidebar assignments. A fresh store has an
// empty mapping.
func (db *AreaDB) Assignments(ctx context.Context) (models.Assignments, error) {
	as := models.Assignments{}
	if _, err := getOption(ctx, db.conn, optionSidebarsWidgets, &as); err != nil {
		return nil, err
	}
	if as == nil {
		as = models.Assignments{}
	}
	return as, nil
}

// SetAssignments replaces the stored sidebar assignments.
func (db *AreaDB) SetAssignments(ctx context.Context, as models.Assignments) error {
	return setOption(ctx, db.conn, optionSidebarsWidgets, as)
}

// WidgetSettings returns the settings of every instance of a widget type,
// keyed by instance number. Non-numeric keys such as the _multiwidget
// marker are ignored, as are entries that are not settings objects.
func (db *AreaDB) WidgetSettings(ctx context.Context, idBase string) (map[int]models.Settings, error) {
	var raw map[string]json.RawMessage
	if _, err := getOption(ctx, db.conn, widgetOptionPrefix+idBase, &raw); err != nil {
		return nil, err
	}
	out := make(map[int]models.Settings, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		var s models.Settings
		if err := json.Unmarshal(v, &s); err != nil {
			slog.WarnContext(ctx, "skip widget settings entry", "option", widgetOptionPrefix+idBase, "key", k, "err", err)
			continue
		}
		out[n] = s
	}
	return out, nil
}

// encodeWidgetSettings builds the stored shape of a widget option: instances
// under their number plus the _multiwidget marker.
func encodeWidgetSettings(settings map[int]models.Settings) map[string]any {
	raw := make(map[string]any, len(settings)+1)
	for n, s := range settings {
		raw[strconv.Itoa(n)] = s
	}
	raw[multiwidgetKey] = 1
	return raw
}

// SetWidgetSettings replaces the settings of every instance of a widget type.
func (db *AreaDB) SetWidgetSettings(ctx context.Context, idBase string, settings map[int]models.Settings) error {
	return setOption(ctx, db.conn, widgetOptionPrefix+idBase, encodeWidgetSettings(settings))
}

// SetWidgetInstance replaces the settings of one widget instance, keeping
// the other instances of its type.
func (db *AreaDB) SetWidgetInstance(ctx context.Context, idBase string, number int, settings models.Settings) error {
	all, err := db.WidgetSettings(ctx, idBase)
	if err != nil {
		return err
	}
	all[number] = settings
	return db.SetWidgetSettings(ctx, idBase, all)
}

// SeedDefaults stores initial assignments and widget settings, leaving any
// option that already exists untouched. It reports how many options it wrote.
func (db *AreaDB) SeedDefaults(ctx context.Context, sidebars map[string][]string, widgetSettings map[string]map[int]models.Settings) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	written := 0
	var existing models.Assignments
	found, err := getOption(ctx, tx, optionSidebarsWidgets, &existing)
	if err != nil {
		return 0, err
	}
	if !found && len(sidebars) > 0 {
		as := models.Assignments{models.InactiveWidgetsID: models.WidgetAssignment()}
		for id, widgets := range sidebars {
			as[id] = models.WidgetAssignment(widgets...)
		}
		if err := setOption(ctx, tx, optionSidebarsWidgets, as); err != nil {
			return 0, err
		}
		written++
	}

	for base, settings := range widgetSettings {
		var current json.RawMessage
		found, err := getOption(ctx, tx, widgetOptionPrefix+base, &current)
		if err != nil {
			return 0, err
		}
		if found {
			continue
		}
		if err := setOption(ctx, tx, widgetOptionPrefix+base, encodeWidgetSettings(settings)); err != nil {
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// EditorSettings returns the stored widget editor settings.
func (db *AreaDB) EditorSettings(ctx context.Context) (map[string]any, error) {
	settings := map[string]any{}
	if _, err := getOption(ctx, db.conn, optionEditorSettings, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// MergeEditorSettings shallow-merges patch into the stored editor settings
// and returns the result.
func (db *AreaDB) MergeEditorSettings(ctx context.Context, patch map[string]any) (map[string]any, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	settings := map[string]any{}
	if _, err := getOption(ctx, tx, optionEditorSettings, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	maps.Copy(settings, patch)

	if err := setOption(ctx, tx, optionEditorSettings, settings); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return settings, nil
}
