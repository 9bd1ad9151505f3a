package api

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shortreel/internal/queue"
	"shortreel/internal/workflow"
)

// QueueReader abstracts the queue persistence interactions the API needs.
type QueueReader interface {
	ListByStatus(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
}

// StatusProvider reports workflow execution state.
type StatusProvider interface {
	Status(ctx context.Context) workflow.StatusSummary
}

// NewRouter wires the read-only status routes.
func NewRouter(cfg ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler())
	r.Get("/status", statusHandler(cfg))
	r.Get("/queue", listQueueHandler(cfg))
	r.Get("/queue/{id}", getQueueItemHandler(cfg))
	r.Get("/queue/{id}/plan", getPlanHandler(cfg))

	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Workflow == nil {
			WriteError(w, http.StatusServiceUnavailable, "workflow not running", "NO_WORKFLOW")
			return
		}
		WriteJSON(w, http.StatusOK, FromStatusSummary(cfg.Workflow.Status(r.Context())))
	}
}

func listQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []queue.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, ok := queue.ParseStatus(raw)
			if !ok {
				WriteError(w, http.StatusBadRequest, "unknown status "+raw, "BAD_STATUS")
				return
			}
			statuses = append(statuses, status)
		}
		items, err := cfg.Store.ListByStatus(r.Context(), statuses...)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "QUEUE_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, QueueListResponse{Items: FromQueueItems(items)})
	}
}

func getQueueItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := lookupItem(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, QueueItemResponse{Item: FromQueueItem(item)})
	}
}

// getPlanHandler serves the stored render plan verbatim; the plan file is
// already canonical JSON.
func getPlanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := lookupItem(cfg, w, r)
		if !ok {
			return
		}
		if item.PlanPath == "" {
			WriteError(w, http.StatusNotFound, "item has no plan yet", "NO_PLAN")
			return
		}
		plan, err := os.ReadFile(item.PlanPath)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "plan unreadable", "PLAN_ERROR")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(plan)
	}
}

func lookupItem(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*queue.Item, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid item id", "BAD_ID")
		return nil, false
	}
	item, err := cfg.Store.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "QUEUE_ERROR")
		return nil, false
	}
	if item == nil {
		WriteError(w, http.StatusNotFound, "item not found", "NOT_FOUND")
		return nil, false
	}
	return item, true
}
