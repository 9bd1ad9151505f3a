package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	ScriptPath     string        `json:"scriptPath"`
	AudioPath      string        `json:"audioPath"`
	ManifestPath   string        `json:"manifestPath,omitempty"`
	MusicPath      string        `json:"musicPath,omitempty"`
	Status         string        `json:"status"`
	Progress       QueueProgress `json:"progress"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	CreatedAt      string        `json:"createdAt,omitempty"`
	UpdatedAt      string        `json:"updatedAt,omitempty"`
	TranscriptPath string        `json:"transcriptPath,omitempty"`
	PlanPath       string        `json:"planPath,omitempty"`
	OutputFile     string        `json:"outputFile,omitempty"`
	NeedsReview    bool          `json:"needsReview"`
	ReviewReason   string        `json:"reviewReason,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// QueueListResponse wraps a collection of queue items.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries a machine-readable error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
