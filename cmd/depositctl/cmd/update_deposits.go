package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateDepositsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-deposits",
		Short: "Run one deposit-reconciliation pass",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, ctx, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DepositUpdater.Tick(ctx); err != nil {
				return fmt.Errorf("update-deposits: %w", err)
			}

			return nil
		},
	}
}
