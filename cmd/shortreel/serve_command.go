package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/api"
	"shortreel/internal/config"
	"shortreel/internal/queue"
	"shortreel/internal/staging"
	"shortreel/internal/workflow"
)

// Staging dirs this old belong to long-gone items; completed work keeps
// its artifacts in the output directory, not staging.
const staleStagingAge = 14 * 24 * time.Hour

// newServeCommand runs the workflow manager and the status API until
// interrupted.
func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the workflow and status API until interrupted",
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

				if reset, err := store.ResetStuck(cmd.Context()); err != nil {
					return err
				} else if reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck item(s)\n", reset)
				}
				staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, staleStagingAge, logger)

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				mgr := workflow.NewManager(cfg, store, logger)
				mgr.ConfigureStages(stages)

				apiServer := api.NewServer(api.ServerConfig{
					Bind:     cfg.Paths.APIBind,
					Store:    store,
					Workflow: mgr,
					Logger:   logger,
				})

				serveErr := make(chan error, 1)
				go func() {
					serveErr <- apiServer.Start()
				}()

				if err := mgr.Start(runCtx); err != nil {
					_ = apiServer.Shutdown(context.Background())
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl-C to stop)\n", cfg.Paths.APIBind)

				select {
				case <-runCtx.Done():
				case err := <-serveErr:
					if err != nil {
						mgr.Stop()
						return fmt.Errorf("api server: %w", err)
					}
				}

				mgr.Stop()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			})
		},
	}
}
