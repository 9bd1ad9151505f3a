package pipeline

import (
	"log/slog"

	"shortreel/internal/assets"
	"shortreel/internal/config"
	"shortreel/internal/queue"
	"shortreel/internal/services/render"
	"shortreel/internal/stage"
)

// Stages bundles the four workflow stage handlers in pipeline order.
type Stages struct {
	Transcribe stage.Handler
	Align      stage.Handler
	Plan       stage.Handler
	Render     stage.Handler
}

// Transition describes how the workflow moves an item through one stage.
type Transition struct {
	Name       string
	Handler    stage.Handler
	Processing queue.Status
	Done       queue.Status
}

// NewStages wires the standard handlers from configuration.
func NewStages(store *queue.Store, cfg *config.Config, logger *slog.Logger, sttClient TranscriptionClient, renderClient render.Client, cache *assets.Cache) Stages {
	return Stages{
		Transcribe: NewTranscriber(cfg, logger, sttClient),
		Align:      NewAligner(cfg, logger),
		Plan:       NewPlanner(cfg, logger, cache),
		Render:     NewRenderer(store, cfg, logger, renderClient),
	}
}

// TransitionFor returns the stage that consumes items in the given status.
// Only "ready" statuses have transitions; processing and terminal statuses
// return false.
func (s Stages) TransitionFor(status queue.Status) (Transition, bool) {
	switch status {
	case queue.StatusPending:
		return Transition{
			Name:       "transcribe",
			Handler:    s.Transcribe,
			Processing: queue.StatusTranscribing,
			Done:       queue.StatusTranscribed,
		}, true
	case queue.StatusTranscribed:
		return Transition{
			Name:       "align",
			Handler:    s.Align,
			Processing: queue.StatusAligning,
			Done:       queue.StatusAligned,
		}, true
	case queue.StatusAligned:
		return Transition{
			Name:       "plan",
			Handler:    s.Plan,
			Processing: queue.StatusPlanning,
			Done:       queue.StatusPlanned,
		}, true
	case queue.StatusPlanned:
		return Transition{
			Name:       "render",
			Handler:    s.Render,
			Processing: queue.StatusRendering,
			Done:       queue.StatusCompleted,
		}, true
	default:
		return Transition{}, false
	}
}

// ReadyStatuses returns the statuses the workflow polls for, in pipeline
// order.
func (s Stages) ReadyStatuses() []queue.Status {
	return []queue.Status{
		queue.StatusPending,
		queue.StatusTranscribed,
		queue.StatusAligned,
		queue.StatusPlanned,
	}
}

// Handlers returns the stage handlers in pipeline order.
func (s Stages) Handlers() []stage.Handler {
	return []stage.Handler{s.Transcribe, s.Align, s.Plan, s.Render}
}
