package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	var hash, name string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Link an account hash to its current display name",
		Long: `Link an account hash to its current display name.

Running setup again with a new name for the same hash renames the account:
the old name stops being polled. Stats already recorded under the old name
are left where they are.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hash == "" || name == "" {
				return fmt.Errorf("--hash and --name are required")
			}

			req := map[string]string{
				"account_hash": hash,
				"display_name": name,
			}
			var result OKResult

			if err := client.Post("/api/v1/accounts/setup", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&hash, "hash", "", "Account hash (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
