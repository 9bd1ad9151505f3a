package api

import (
	"slices"

	"shortreel/internal/queue"
	"shortreel/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:           item.ID,
		Title:        item.Title,
		ScriptPath:   item.ScriptPath,
		AudioPath:    item.AudioPath,
		ManifestPath: item.ManifestPath,
		MusicPath:    item.MusicPath,
		Status:       string(item.Status),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:   item.ErrorMessage,
		TranscriptPath: item.TranscriptPath,
		PlanPath:       item.PlanPath,
		OutputFile:     item.OutputFile,
		NeedsReview:    item.NeedsReview,
		ReviewReason:   item.ReviewReason,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status snapshot into its API
// representation.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:     summary.Running,
		LastError:   summary.LastError,
		QueueStats:  make(map[string]int, len(summary.QueueStats)),
		StageHealth: stageHealthSlice(summary),
	}
	for key, value := range summary.QueueStats {
		status.QueueStats[string(key)] = value
	}
	if summary.LastItem != nil {
		item := FromQueueItem(summary.LastItem)
		status.LastItem = &item
	}
	return status
}

// stageHealthSlice flattens the stage health map into a deterministic,
// name-sorted slice.
func stageHealthSlice(summary workflow.StatusSummary) []StageHealth {
	if len(summary.StageHealth) == 0 {
		return nil
	}
	names := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		health := summary.StageHealth[name]
		out = append(out, StageHealth{Name: name, Ready: health.Ready, Detail: health.Detail})
	}
	return out
}
