package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/models"
	"github.com/marcus/widgetareas/internal/output"
	"github.com/marcus/widgetareas/internal/sidebars"
)

var errAborted = errors.New("aborted")

var areasCmd = &cobra.Command{
	Use:     "areas",
	Aliases: []string{"ls"},
	Short:   "List widget areas and what they hold",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if jsonOutput(cmd) {
			list, err := a.resolver.List(cmd.Context())
			if err != nil {
				output.Error("%v", err)
				return err
			}
			return output.JSON(list)
		}

		assignments, err := a.store.Assignments(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		ids := a.registry.SidebarIDs()
		if len(ids) == 0 {
			fmt.Println("No widget areas registered")
			return nil
		}
		for _, id := range ids {
			s, _ := a.registry.Sidebar(id)
			fmt.Println(output.FormatSidebarShort(s, assignments[id]))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <sidebar-id>",
	Short: "Show a widget area's resolved content",
	Long: `Show a widget area's resolved content.

Examples:
  widgetareas show sidebar-1             # Mode, widgets and raw block markup
  widgetareas show sidebar-1 --preview   # Block outline rendered for the terminal
  widgetareas show sidebar-1 --rendered  # Front-end HTML`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		data, err := a.resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			output.Error("%s: %v", args[0], err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(data)
		}

		if rendered, _ := cmd.Flags().GetBool("rendered"); rendered {
			fmt.Println(data.Content.Rendered)
			return nil
		}
		if preview, _ := cmd.Flags().GetBool("preview"); preview {
			out, err := output.RenderBlocks(data.Content.Raw)
			if err != nil {
				output.Error("preview: %v", err)
				return err
			}
			fmt.Print(out)
			return nil
		}

		assignments, err := a.store.Assignments(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Print(output.FormatSidebarLong(data, assignments[args[0]]))
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <sidebar-id>",
	Short: "Replace a widget area's content with block markup",
	Long: `Replace a widget area's content with block markup read from --file or stdin.

A widget area still holding classic widgets is converted to a block document
on its first update. Its widgets move to the inactive widgets list.

Examples:
  widgetareas update sidebar-1 --file footer.html
  cat footer.html | widgetareas update sidebar-1 --yes`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		markup, err := readMarkup(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		a, err := openApp(ctx, cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if _, ok := a.registry.Sidebar(id); !ok {
			output.Error("%s: %v", id, sidebars.ErrInvalidSidebarID)
			return sidebars.ErrInvalidSidebarID
		}

		assignments, err := a.store.Assignments(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		current := assignments[id]
		if !current.IsDocument() {
			yes, _ := cmd.Flags().GetBool("yes")
			if err := confirmMigration(id, current, yes); err != nil {
				if errors.Is(err, errAborted) {
					output.Warning("update of %s cancelled", id)
				} else {
					output.Error("%v", err)
				}
				return err
			}
		}

		data, err := a.resolver.Update(ctx, id, markup)
		if err != nil {
			output.Error("%s: %v", id, err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(data)
		}
		if current.IsDocument() {
			output.Success("updated %s", id)
		} else {
			output.Success("converted %s to a block document (%d widgets made inactive)", id, len(current.Widgets))
		}
		return nil
	},
}

// readMarkup reads the update body from --file, or from stdin when no
// file is given.
func readMarkup(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("file")
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open content file: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

// confirmMigration asks before a widget-list sidebar is converted. Without
// a terminal the conversion needs --yes.
func confirmMigration(id string, current models.Assignment, yes bool) error {
	if yes {
		return nil
	}
	if !output.IsTerminal() {
		return fmt.Errorf("%s holds %d classic widgets; pass --yes to convert it to a block document", id, len(current.Widgets))
	}

	var proceed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Convert %s to a block document?", id)).
			Description(fmt.Sprintf("Its %d widgets will be moved to the inactive widgets list.", len(current.Widgets))).
			Affirmative("Convert").
			Negative("Cancel").
			Value(&proceed),
	))
	if err := form.Run(); err != nil {
		return err
	}
	if !proceed {
		return errAborted
	}
	return nil
}

func init() {
	rootCmd.AddCommand(areasCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(updateCmd)

	showCmd.Flags().Bool("preview", false, "render a block outline for the terminal")
	showCmd.Flags().Bool("rendered", false, "print the front-end HTML")

	updateCmd.Flags().StringP("file", "f", "", "read block markup from a file (default: stdin)")
	updateCmd.Flags().BoolP("yes", "y", false, "convert widget-list areas without asking")
}
