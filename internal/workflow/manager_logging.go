package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"shortreel/internal/logging"
	"shortreel/internal/queue"
)

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	name := lane.name
	if name == "" {
		name = string(lane.kind)
	}
	return m.logger.With(
		logging.String(logging.FieldComponent, fmt.Sprintf("workflow-%s-runner", name)),
		logging.String("lane", name),
	)
}

// stageLogger returns the logger used for one item's stage run. When a
// per-item log file can be opened, stage lifecycle events go there instead
// of the daemon log.
func (m *Manager) stageLogger(ctx context.Context, laneLogger *slog.Logger, item *queue.Item) *slog.Logger {
	base := laneLogger
	if base == nil {
		base = m.logger
	}
	if base == nil {
		base = logging.NewNop()
	}

	if item != nil {
		path, err := m.itemLogs.Path(item)
		if err != nil {
			base.Warn("item log unavailable", logging.Error(err))
		} else if handler, logErr := m.itemLogs.Handler(path); logErr != nil {
			base.Warn("failed to create item log writer", logging.Error(logErr))
		} else {
			base = slog.New(handler).With(logging.Int64(logging.FieldItemID, item.ID))
		}
	}

	return logging.WithContext(ctx, base)
}
