package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateSubmissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-submissions",
		Short: "Run one submission-aggregate reconciliation pass",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, ctx, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.SubmissionUpdater.Tick(ctx); err != nil {
				return fmt.Errorf("update-submissions: %w", err)
			}

			return nil
		},
	}
}
