package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortreel/internal/config"
	"shortreel/internal/queue"
	"shortreel/internal/stage"
)

// newStatusCommand reports queue counts and per-stage health without
// starting the workflow.
func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and stage health",
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

				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				var health []stage.Health
				for _, handler := range stages.Handlers() {
					health = append(health, handler.HealthCheck(cmd.Context()))
				}
				sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })

				if jsonOutput {
					report := statusReport{Queue: summary}
					for _, h := range health {
						report.Stages = append(report.Stages, stageReport{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
					}
					return writeJSON(cmd, report)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Queue")
				fmt.Fprintln(out, renderTable(
					[]string{"Total", "Pending", "Processing", "Failed", "Review", "Completed"},
					[][]string{{
						fmt.Sprintf("%d", summary.Total),
						fmt.Sprintf("%d", summary.Pending),
						fmt.Sprintf("%d", summary.Processing),
						fmt.Sprintf("%d", summary.Failed),
						fmt.Sprintf("%d", summary.Review),
						fmt.Sprintf("%d", summary.Completed),
					}},
					[]text.Align{text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight},
				))

				fmt.Fprintln(out)
				fmt.Fprintln(out, "Stages")
				rows := make([][]string, 0, len(health))
				for _, h := range health {
					detail := h.Detail
					if detail == "" && h.Ready {
						detail = "ready"
					}
					rows = append(rows, []string{h.Name, yesNo(h.Ready), detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Ready", "Detail"},
					rows,
					[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

type statusReport struct {
	Queue  queue.HealthSummary `json:"queue"`
	Stages []stageReport       `json:"stages"`
}

type stageReport struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}
