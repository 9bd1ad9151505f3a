package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/pipeline"
	"shortreel/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor
	itemLogs  *ItemLogs

	lanes     map[laneKind]*laneState
	laneOrder []laneKind

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
	inflight map[int64]struct{}
}

// NewManager constructs a workflow manager. Call ConfigureStages before
// Start.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		itemLogs: NewItemLogs(cfg),
		lanes:    make(map[laneKind]*laneState),
		inflight: make(map[int64]struct{}),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will
// run. The speech lane carries items from pending through alignment; the
// assembly lane carries aligned items through planning and rendering.
func (m *Manager) ConfigureStages(stages pipeline.Stages) {
	speech := &laneState{kind: laneSpeech, name: "speech", workers: 1}
	assembly := &laneState{kind: laneAssembly, name: "assembly", workers: 1}
	if m.cfg != nil && m.cfg.Workflow.Workers > 1 {
		assembly.workers = m.cfg.Workflow.Workers
	}

	laneFor := map[queue.Status]*laneState{
		queue.StatusPending:     speech,
		queue.StatusTranscribed: speech,
		queue.StatusAligned:     assembly,
		queue.StatusPlanned:     assembly,
	}
	for _, status := range stages.ReadyStatuses() {
		transition, ok := stages.TransitionFor(status)
		if !ok || transition.Handler == nil {
			continue
		}
		lane := laneFor[status]
		if lane == nil {
			continue
		}
		lane.stages = append(lane.stages, pipelineStage{
			name:             transition.Name,
			handler:          transition.Handler,
			startStatus:      status,
			processingStatus: transition.Processing,
			doneStatus:       transition.Done,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)
	for _, lane := range []*laneState{speech, assembly} {
		if len(lane.stages) == 0 {
			continue
		}
		lane.finalize()
		lane.runReclaimer = len(lane.processingStatuses) > 0
		lanes[lane.kind] = lane
		order = append(order, lane.kind)
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
