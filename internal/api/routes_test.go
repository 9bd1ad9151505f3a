package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shortreel/internal/api"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/stage"
	"shortreel/internal/workflow"
)

type fakeReader struct {
	items map[int64]*queue.Item
}

func (f *fakeReader) ListByStatus(_ context.Context, statuses ...queue.Status) ([]*queue.Item, error) {
	var out []*queue.Item
	for _, item := range f.items {
		if len(statuses) == 0 {
			out = append(out, item)
			continue
		}
		for _, status := range statuses {
			if item.Status == status {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (f *fakeReader) GetByID(_ context.Context, id int64) (*queue.Item, error) {
	return f.items[id], nil
}

type fakeWorkflow struct {
	summary workflow.StatusSummary
}

func (f *fakeWorkflow) Status(context.Context) workflow.StatusSummary {
	return f.summary
}

func newTestRouter(t *testing.T, reader *fakeReader, wf api.StatusProvider) http.Handler {
	t.Helper()
	return api.NewRouter(api.ServerConfig{
		Bind:     "127.0.0.1:0",
		Store:    reader,
		Workflow: wf,
		Logger:   logging.NewNop(),
	})
}

func testItem(id int64, status queue.Status) *queue.Item {
	return &queue.Item{
		ID:         id,
		Title:      "Morning Habits",
		ScriptPath: "/in/script.yaml",
		AudioPath:  "/in/narration.wav",
		Status:     status,
		CreatedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeReader{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	var payload api.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestQueueListFiltersByStatus(t *testing.T) {
	reader := &fakeReader{items: map[int64]*queue.Item{
		1: testItem(1, queue.StatusPending),
		2: testItem(2, queue.StatusCompleted),
	}}
	router := newTestRouter(t, reader, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue?status=completed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload api.QueueListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Status != "completed" {
		t.Fatalf("unexpected items: %+v", payload.Items)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue?status=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestQueueItemLookup(t *testing.T) {
	reader := &fakeReader{items: map[int64]*queue.Item{7: testItem(7, queue.StatusPlanned)}}
	router := newTestRouter(t, reader, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload api.QueueItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Item.ID != 7 || payload.Item.Title != "Morning Habits" {
		t.Fatalf("unexpected item: %+v", payload.Item)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestPlanEndpointServesStoredPlan(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	planJSON := []byte(`{"version":1,"title":"Morning Habits"}`)
	if err := os.WriteFile(planPath, planJSON, 0o644); err != nil {
		t.Fatal(err)
	}

	withPlan := testItem(3, queue.StatusPlanned)
	withPlan.PlanPath = planPath
	reader := &fakeReader{items: map[int64]*queue.Item{
		3: withPlan,
		4: testItem(4, queue.StatusPending),
	}}
	router := newTestRouter(t, reader, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/3/plan", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != string(planJSON) {
		t.Fatalf("plan not served verbatim: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/4/plan", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for item without plan, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	wf := &fakeWorkflow{summary: workflow.StatusSummary{
		Running:    true,
		QueueStats: map[queue.Status]int{queue.StatusPending: 2},
		StageHealth: map[string]stage.Health{
			"render": stage.Unhealthy("render", "binary missing"),
			"align":  stage.Healthy("align"),
		},
	}}
	router := newTestRouter(t, &fakeReader{}, wf)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload api.WorkflowStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Running || payload.QueueStats["pending"] != 2 {
		t.Fatalf("unexpected status: %+v", payload)
	}
	if len(payload.StageHealth) != 2 || payload.StageHealth[0].Name != "align" {
		t.Fatalf("expected name-sorted stage health, got %+v", payload.StageHealth)
	}

	noWF := newTestRouter(t, &fakeReader{}, nil)
	rec = httptest.NewRecorder()
	noWF.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without workflow, got %d", rec.Code)
	}
}
