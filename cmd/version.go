package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/output"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version)
			return nil
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]string{"version": version})
		}
		fmt.Printf("widgetareas version %s\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "print only the version")
}
