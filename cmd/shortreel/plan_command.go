package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shortreel/internal/config"
	"shortreel/internal/pipeline"
	"shortreel/internal/queue"
)

// newPlanCommand runs the pipeline up to planning and emits the render plan
// JSON without invoking the renderer.
func newPlanCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{skipRender: true}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Emit the render plan JSON without rendering",
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
				req, err := flags.request()
				if err != nil {
					return err
				}
				req.SkipRender = true

				item, err := pipeline.Generate(cmd.Context(), store, stages, logger, req)
				if err != nil {
					return err
				}
				plan, err := os.ReadFile(item.PlanPath)
				if err != nil {
					return fmt.Errorf("read plan: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(plan)
				return err
			})
		},
	}

	flags.register(cmd)
	return cmd
}
