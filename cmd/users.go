package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/output"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Short:   "Manage API users",
	GroupID: "access",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a user",
	Long: `Create a user. Users created with --editor may read and edit widget areas
through the API.

Examples:
  widgetareas users create ops@example.com --editor`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		var caps []string
		if editor, _ := cmd.Flags().GetBool("editor"); editor {
			caps = append(caps, areadb.CapEditThemeOptions)
		}
		u, err := store.CreateUser(cmd.Context(), args[0], caps...)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(u)
		}
		output.Success("created user %s (%s)", u.Email, u.ID)
		return nil
	},
}

var usersGrantCmd = &cobra.Command{
	Use:   "grant <email> <capability...>",
	Short: "Replace a user's capabilities",
	Long: `Replace a user's capabilities. Pass no capabilities with --none to clear them.

Examples:
  widgetareas users grant ops@example.com edit_theme_options`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caps := args[1:]
		none, _ := cmd.Flags().GetBool("none")
		if len(caps) == 0 && !none {
			err := fmt.Errorf("no capabilities given; pass --none to clear them")
			output.Error("%v", err)
			return err
		}

		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		if err := store.SetCapabilities(cmd.Context(), args[0], caps...); err != nil {
			output.Error("%v", err)
			return err
		}
		if len(caps) == 0 {
			output.Success("cleared capabilities of %s", strings.ToLower(strings.TrimSpace(args[0])))
		} else {
			output.Success("granted %s to %s", strings.Join(caps, ", "), strings.ToLower(strings.TrimSpace(args[0])))
		}
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		users, err := store.ListUsers(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(users)
		}
		if len(users) == 0 {
			fmt.Println("No users")
			return nil
		}
		for _, u := range users {
			caps := strings.Join(u.Capabilities, ",")
			if caps == "" {
				caps = "-"
			}
			fmt.Printf("%-32s %-24s %s  %s\n", u.Email, u.ID, caps, output.FormatTimeAgo(u.CreatedAt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd, usersGrantCmd, usersListCmd)

	usersCreateCmd.Flags().Bool("editor", false, "allow the user to edit widget areas")
	usersGrantCmd.Flags().Bool("none", false, "clear all capabilities")
}
