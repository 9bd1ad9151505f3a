package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/config"
	"shortreel/internal/queue"
	"shortreel/internal/workflow"
)

// newRunCommand drains the queue: it processes every ready item through the
// workflow lanes and exits when no work remains.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every queued item, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.newLogger()
				if err != nil {
					return err
				}
				stages, err := buildStages(cfg, store, logger)
				if err != nil {
					return err
				}

				// Items stuck in processing from an unclean shutdown resume
				// from their last durable state.
				if reset, err := store.ResetStuck(cmd.Context()); err != nil {
					return err
				} else if reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck item(s)\n", reset)
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				mgr := workflow.NewManager(cfg, store, logger)
				mgr.ConfigureStages(stages)
				if err := mgr.Start(runCtx); err != nil {
					return err
				}

				for {
					summary, err := store.Health(runCtx)
					if err != nil {
						mgr.Stop()
						return err
					}
					remaining := summary.Total - summary.Completed - summary.Failed - summary.Review
					if remaining <= 0 {
						break
					}
					select {
					case <-runCtx.Done():
						mgr.Stop()
						return runCtx.Err()
					case <-time.After(500 * time.Millisecond):
					}
				}
				mgr.Stop()

				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Done: %d completed, %d failed, %d in review\n",
					summary.Completed, summary.Failed, summary.Review)
				if summary.Failed > 0 {
					return fmt.Errorf("%d item(s) failed; see `shortreel queue list --status %s`",
						summary.Failed, queue.StatusFailed)
				}
				return nil
			})
		},
	}
}
