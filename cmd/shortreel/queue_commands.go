package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortreel/internal/api"
	"shortreel/internal/config"
	"shortreel/internal/queue"
	"shortreel/internal/stage"
	"shortreel/internal/staging"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a video without processing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				title := strings.TrimSpace(flags.title)
				if title == "" {
					script, err := stage.LoadScript(flags.scriptPath)
					if err != nil {
						return err
					}
					title = script.Title
				}
				item, err := store.Add(cmd.Context(), queue.NewItem{
					Title:        title,
					ScriptPath:   flags.scriptPath,
					AudioPath:    flags.audioPath,
					ManifestPath: flags.manifestPath,
					MusicPath:    flags.musicPath,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %q as item %d\n", item.Title, item.ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var statuses []queue.Status
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}

				items, err := store.ListByStatus(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromQueueItems(items))
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					progress := fmt.Sprintf("%3.0f%%", item.ProgressPercent)
					if item.ProgressStage != "" {
						progress = fmt.Sprintf("%s %s", progress, item.ProgressStage)
					}
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.Title,
						string(item.Status),
						progress,
						item.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Updated"},
					rows,
					[]text.Align{text.AlignRight, text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					out := make(map[string]int, len(stats))
					for status, count := range stats {
						out[string(status)] = count
					}
					return writeJSON(cmd, out)
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				names := make([]string, 0, len(stats))
				for status := range stats {
					names = append(names, string(status))
				}
				sort.Strings(names)
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, strconv.Itoa(stats[queue.Status(name)])})
				}
				table := renderTable([]string{"Status", "Count"}, rows,
					[]text.Align{text.AlignLeft, text.AlignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), completedOnly)
				if err != nil {
					return err
				}

				// Staging directories for removed items are orphans now.
				remaining, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				active := make(map[int64]struct{}, len(remaining))
				for _, item := range remaining {
					active[item.ID] = struct{}{}
				}
				logger, err := ctx.newLogger()
				if err != nil {
					return err
				}
				cleaned := staging.CleanOrphaned(cmd.Context(), cfg.Paths.StagingDir, active, logger)

				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				if len(cleaned.Removed) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %d staging dir(s)\n", len(cleaned.Removed))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only remove completed items")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Reset a failed or review item back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				item, err := store.Retry(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d (%q) is pending again\n", item.ID, item.Title)
				return nil
			})
		},
	}
}
