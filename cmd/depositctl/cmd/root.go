package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eclipse-pass/deposit-orchestrator/internal/app"
	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
)

// NewRootCommand builds the depositctl command tree: one-shot operator
// commands that share the daemon's wiring but run a single pass and exit.
func NewRootCommand() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "depositctl",
		Short: "depositctl runs one-shot deposit orchestrator operations",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				_ = os.Setenv("LOG_DEBUG", "true")
			}
		},
	}

	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(newProcessSubmissionCommand())
	root.AddCommand(newUpdateDepositsCommand())
	root.AddCommand(newUpdateSubmissionsCommand())

	return root
}

// Execute runs the root command to completion, cancelling on SIGINT/SIGTERM.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap builds an App and attaches its logger to ctx, for subcommands
// that only need the store/registry/packaging wiring and not the bus or
// the worker pool's background lifetime.
func bootstrap(ctx context.Context) (*app.App, context.Context, error) {
	a, err := app.New()
	if err != nil {
		return nil, ctx, fmt.Errorf("depositctl: %w", err)
	}

	return a, mlog.ContextWithLogger(ctx, a.Logger), nil
}
