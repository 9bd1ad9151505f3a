package stage

import (
	"context"

	"shortreel/internal/queue"
)

// Handler is implemented by each pipeline step (transcribe, align, plan,
// render). Prepare validates the item's inputs without side effects on
// external services; Execute performs the work and mutates the item's
// artifact fields. Both receive the item after its processing status has
// been persisted.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
