package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster <page>",
		Short: "Fetch one page of the public ranking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[0])
			if err != nil || page < 0 {
				return fmt.Errorf("page must be a non-negative integer")
			}

			var result RosterPage
			if err := client.Get(fmt.Sprintf("/api/v1/roster/pages/%d", page), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
