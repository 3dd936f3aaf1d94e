package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newProcessSubmissionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process-submission <submission-id>",
		Short: "Run the submission processor once for a single submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			a, ctx, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.Pool.Start(ctx)
			defer a.Pool.Shutdown(30 * time.Second)

			if err := a.Processor.Process(ctx, args[0]); err != nil {
				return fmt.Errorf("process-submission: %w", err)
			}

			return nil
		},
	}
}
