package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shortreel/internal/config"
	"shortreel/internal/pipeline"
	"shortreel/internal/queue"
	"shortreel/internal/stage"
)

type generateFlags struct {
	title            string
	scriptPath       string
	audioPath        string
	manifestPath     string
	musicPath        string
	forceInterpolate bool
	skipRender       bool
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Video title (defaults to the script title)")
	cmd.Flags().StringVar(&f.scriptPath, "script", "", "Path to the canonical script YAML")
	cmd.Flags().StringVar(&f.audioPath, "audio", "", "Path to the narration audio file")
	cmd.Flags().StringVar(&f.manifestPath, "manifest", "", "Path to the visual asset manifest")
	cmd.Flags().StringVar(&f.musicPath, "music", "", "Path to the background music file")
	cmd.Flags().BoolVar(&f.forceInterpolate, "force-interpolate", false,
		"Fall back to evenly spread timings when alignment is degenerate")
	cmd.MarkFlagRequired("script")
	cmd.MarkFlagRequired("audio")
}

func (f *generateFlags) request() (pipeline.GenerateRequest, error) {
	title := strings.TrimSpace(f.title)
	if title == "" {
		script, err := stage.LoadScript(f.scriptPath)
		if err != nil {
			return pipeline.GenerateRequest{}, err
		}
		title = script.Title
	}
	return pipeline.GenerateRequest{
		Title:            title,
		ScriptPath:       f.scriptPath,
		AudioPath:        f.audioPath,
		ManifestPath:     f.manifestPath,
		MusicPath:        f.musicPath,
		ForceInterpolate: f.forceInterpolate,
		SkipRender:       f.skipRender,
	}, nil
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one video end to end",
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

				item, err := pipeline.Generate(cmd.Context(), store, stages, logger, req)
				if err != nil {
					if item != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Item %d is %s: %s\n",
							item.ID, item.Status, item.ErrorMessage)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %q -> %s\n", item.Title, item.OutputFile)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}
