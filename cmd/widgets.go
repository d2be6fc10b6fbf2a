package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/output"
	"github.com/marcus/widgetareas/internal/registry"
)

type widgetRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Class    string `json:"class,omitempty"`
	Number   *int   `json:"number,omitempty"`
	Callback bool   `json:"callback"`
}

var widgetsCmd = &cobra.Command{
	Use:     "widgets",
	Short:   "List registered widget instances",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		var rows []widgetRow
		for _, id := range a.registry.WidgetIDs() {
			reg, _ := a.registry.Widget(id)
			rows = append(rows, newWidgetRow(reg))
		}

		if jsonOutput(cmd) {
			return output.JSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println("No widgets registered")
			return nil
		}
		for _, r := range rows {
			kind := r.Class
			if kind == "" {
				kind = "callback"
			}
			fmt.Printf("%-24s %-24s %s\n", r.ID, r.Name, kind)
		}
		return nil
	},
}

func newWidgetRow(reg registry.WidgetRegistration) widgetRow {
	row := widgetRow{ID: reg.ID, Name: reg.Name, Number: reg.Number, Callback: reg.Callback != nil}
	if reg.Object != nil {
		row.Class = reg.Object.ClassName()
	}
	return row
}

// setWidgetInstance stores settings for a registered widget instance. The
// widget must have a type and an instance number.
func setWidgetInstance(ctx context.Context, reg *registry.Registry, store *areadb.AreaDB, widgetID string, data []byte) (models.Settings, error) {
	w, ok := reg.Widget(widgetID)
	if !ok {
		return nil, fmt.Errorf("widget %q is not registered", widgetID)
	}
	if w.Object == nil || w.Number == nil {
		return nil, fmt.Errorf("widget %q has no stored settings", widgetID)
	}
	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("settings must be a JSON object: %w", err)
	}
	if settings == nil {
		return nil, fmt.Errorf("settings must be a JSON object")
	}
	if err := store.SetWidgetInstance(ctx, w.Object.IDBase(), *w.Number, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

var widgetsSetCmd = &cobra.Command{
	Use:   "set <widget-id>",
	Short: "Replace a widget instance's settings",
	Long: `Replace a widget instance's settings with a JSON object read from --file or stdin.

Examples:
  widgetareas widgets set text-2 --file text-2.json
  echo '{"title":"Latest","number":5}' | widgetareas widgets set recent-posts-2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readMarkup(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		settings, err := setWidgetInstance(cmd.Context(), a.registry, a.store, args[0], []byte(data))
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(settings)
		}
		output.Success("updated settings of %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(widgetsCmd)
	widgetsCmd.AddCommand(widgetsSetCmd)

	widgetsSetCmd.Flags().StringP("file", "f", "", "read settings JSON from a file (default: stdin)")
}
