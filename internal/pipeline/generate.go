package pipeline

import (
	"context"
	"log/slog"

	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/services"
)

// GenerateRequest describes one end-to-end video generation run.
type GenerateRequest struct {
	Title        string
	ScriptPath   string
	AudioPath    string
	ManifestPath string
	MusicPath    string
	// ForceInterpolate proceeds with evenly distributed word timing when
	// the alignment is degenerate.
	ForceInterpolate bool
	// SkipRender stops after the plan is written.
	SkipRender bool
}

// Generate runs the whole pipeline for one item in-process, synchronously.
// The item is enqueued first so a crash leaves an inspectable record, then
// driven through every stage. On failure the item carries the failure
// status and the error is returned.
func Generate(ctx context.Context, store *queue.Store, stages Stages, logger *slog.Logger, req GenerateRequest) (*queue.Item, error) {
	if aligner, ok := stages.Align.(*Aligner); ok {
		aligner.ForceInterpolate = req.ForceInterpolate
	}

	item, err := store.Add(ctx, queue.NewItem{
		Title:        req.Title,
		ScriptPath:   req.ScriptPath,
		AudioPath:    req.AudioPath,
		ManifestPath: req.ManifestPath,
		MusicPath:    req.MusicPath,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "generate", "enqueue", "", err)
	}
	logger = logger.With(logging.Int64(logging.FieldItemID, item.ID))

	for {
		transition, ok := stages.TransitionFor(item.Status)
		if !ok {
			break
		}
		if req.SkipRender && transition.Done == queue.StatusCompleted {
			break
		}
		if err := runTransition(ctx, store, transition, item, logger); err != nil {
			return item, err
		}
	}
	return item, nil
}

// runTransition executes one stage against an item, persisting the status
// walk and classifying failures the same way the batch workflow does.
func runTransition(ctx context.Context, store *queue.Store, transition Transition, item *queue.Item, logger *slog.Logger) error {
	item.Status = transition.Processing
	item.SetProgress(transition.Name, "starting", 0)
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrValidation, transition.Name, "persist", "update status", err)
	}

	stageLogger := logger.With(logging.String(logging.FieldStage, transition.Name))
	err := transition.Handler.Prepare(ctx, item)
	if err == nil {
		err = transition.Handler.Execute(ctx, item)
	}
	if err != nil {
		switch services.FailureStatus(err) {
		case queue.StatusReview:
			item.SetReview(err.Error())
		default:
			item.SetFailed(err.Error())
		}
		if updateErr := store.Update(ctx, item); updateErr != nil {
			stageLogger.Error("failed to persist failure status", logging.Error(updateErr))
		}
		stageLogger.Error("stage failed", logging.Error(err))
		return err
	}

	item.Status = transition.Done
	item.ErrorMessage = ""
	if err := store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrValidation, transition.Name, "persist", "update status", err)
	}
	stageLogger.Info("stage complete", logging.String("status", string(item.Status)))
	return nil
}
