package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/output"
)

var keysCmd = &cobra.Command{
	Use:     "keys",
	Short:   "Manage API keys",
	GroupID: "access",
}

// lookupUser resolves an email to a user, treating a missing user as an error.
func lookupUser(cmd *cobra.Command, store *areadb.AreaDB, email string) (*areadb.User, error) {
	u, err := store.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user not found: %s", email)
	}
	return u, nil
}

// parseExpiry accepts "30d" style day counts or Go durations. Empty means
// the key never expires.
func parseExpiry(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid expiry %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		d, err = time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid expiry %q", s)
		}
	}
	t := now.Add(d).UTC()
	return &t, nil
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an API key for a user",
	Long: `Create an API key for a user. The key is printed once.

Examples:
  widgetareas keys create ops@example.com --name deploy
  widgetareas keys create ops@example.com --name ci --expires 30d`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			err := fmt.Errorf("--name is required")
			output.Error("%v", err)
			return err
		}
		expiresStr, _ := cmd.Flags().GetString("expires")
		expiresAt, err := parseExpiry(expiresStr, time.Now())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		u, err := lookupUser(cmd, store, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !u.Can(areadb.CapEditThemeOptions) {
			output.Warning("%s cannot edit widget areas; the key will be rejected until granted %s", u.Email, areadb.CapEditThemeOptions)
		}

		plaintext, ak, err := store.GenerateAPIKey(cmd.Context(), u.ID, name, expiresAt)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		fmt.Printf("created API key for %s\n", u.Email)
		fmt.Printf("  id:      %s\n", ak.ID)
		fmt.Printf("  name:    %s\n", ak.Name)
		if ak.ExpiresAt != nil {
			fmt.Printf("  expires: %s\n", ak.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Printf("  key:     %s\n", plaintext)
		fmt.Println("\nSave this key now -- it will not be shown again.")
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:     "list <email>",
	Aliases: []string{"ls"},
	Short:   "List a user's API keys",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		u, err := lookupUser(cmd, store, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		keys, err := store.ListAPIKeys(cmd.Context(), u.ID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(keys)
		}
		if len(keys) == 0 {
			fmt.Printf("No API keys for %s\n", u.Email)
			return nil
		}
		for _, k := range keys {
			used := "never used"
			if k.LastUsedAt != nil {
				used = "used " + output.FormatTimeAgo(*k.LastUsedAt)
			}
			expires := ""
			if k.ExpiresAt != nil {
				if k.ExpiresAt.Before(time.Now()) {
					expires = "  expired"
				} else {
					expires = "  expires " + k.ExpiresAt.Format("2006-01-02")
				}
			}
			fmt.Printf("%-20s %-16s %s...  %s%s\n", k.ID, k.Name, k.KeyPrefix, used, expires)
		}
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <email> <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		u, err := lookupUser(cmd, store, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if err := store.RevokeAPIKey(cmd.Context(), args[1], u.ID); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("revoked %s", args[1])
		return nil
	},
}

var keysPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		n, err := store.PurgeExpiredAPIKeys(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("purged %d expired keys", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd, keysPurgeCmd)

	keysCreateCmd.Flags().String("name", "", "key name (required)")
	keysCreateCmd.Flags().String("expires", "", "lifetime such as 30d or 12h (default: never)")
}
