package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shortreel/internal/queue"
	"shortreel/internal/testsupport"
)

func TestAddAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.Add(ctx, queue.NewItem{
		Title:      "Morning Update",
		ScriptPath: "/tmp/script.md",
		AudioPath:  "/tmp/narration.wav",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Morning Update" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.ManifestPath != "" || fetched.MusicPath != "" {
		t.Fatalf("expected optional paths to stay empty, got %#v", fetched)
	}

	missing, err := store.GetByID(ctx, item.ID+100)
	if err != nil {
		t.Fatalf("GetByID for missing item failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing item, got %#v", missing)
	}
}

func TestAddRequiresScriptAndAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Add(ctx, queue.NewItem{AudioPath: "/tmp/a.wav"}); err == nil {
		t.Fatal("expected error when script path missing")
	}
	if _, err := store.Add(ctx, queue.NewItem{ScriptPath: "/tmp/s.md"}); err == nil {
		t.Fatal("expected error when audio path missing")
	}
}

func TestUpdatePersistsMutableFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, cfg, "Evening Recap")
	item.Status = queue.StatusTranscribed
	item.TranscriptPath = "/tmp/transcript.json"
	item.SetProgress("Transcribing", "finished", 100)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusTranscribed {
		t.Fatalf("expected transcribed, got %s", fetched.Status)
	}
	if fetched.TranscriptPath != "/tmp/transcript.json" {
		t.Fatalf("transcript path not persisted: %#v", fetched)
	}
	if fetched.ProgressPercent != 100 || fetched.ProgressStage != "Transcribing" {
		t.Fatalf("progress not persisted: %#v", fetched)
	}
}

func TestListByStatusFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.AddItem(t, store, cfg, "First")
	second := testsupport.AddItem(t, store, cfg, "Second")
	second.Status = queue.StatusCompleted
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.ListByStatus(ctx)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 items, got %d", len(all))
	}

	pending, err := store.ListByStatus(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("ListByStatus(pending) failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending items: %#v", pending)
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var items []*queue.Item
	for i := 0; i < 3; i++ {
		items = append(items, testsupport.AddItem(t, store, cfg, fmt.Sprintf("Item-%d", i)))
	}
	items[0].Status = queue.StatusAligned
	if err := store.Update(ctx, items[0]); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending, queue.StatusTranscribed)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != items[1].ID {
		t.Fatalf("expected oldest pending item %d, got %#v", items[1].ID, next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusPlanned)
	if err != nil {
		t.Fatalf("NextForStatuses(planned) failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil when no item ready, got %#v", none)
	}
}

func TestResetStuckRollsBackProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"transcribing", queue.StatusTranscribing, queue.StatusPending},
		{"aligning", queue.StatusAligning, queue.StatusTranscribed},
		{"planning", queue.StatusPlanning, queue.StatusAligned},
		{"rendering", queue.StatusRendering, queue.StatusPlanned},
	}
	var ids []int64
	for _, tc := range cases {
		item := testsupport.AddItem(t, store, cfg, fmt.Sprintf("Item-%s", tc.name))
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	reset, err := store.ResetStuck(ctx)
	if err != nil {
		t.Fatalf("ResetStuck failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Fatalf("expected %d items reset, got %d", len(cases), reset)
	}

	for i, tc := range cases {
		fetched, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status != tc.expected {
			t.Fatalf("%s: expected %s after reset, got %s", tc.name, tc.expected, fetched.Status)
		}
	}
}

func TestReclaimStaleProcessingHonorsCutoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.AddItem(t, store, cfg, "Stale")
	staleBeat := time.Now().Add(-time.Hour)
	stale.Status = queue.StatusRendering
	stale.LastHeartbeat = &staleBeat
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.AddItem(t, store, cfg, "Fresh")
	freshBeat := time.Now()
	fresh.Status = queue.StatusRendering
	fresh.LastHeartbeat = &freshBeat
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-time.Minute), queue.StatusRendering)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", reclaimed)
	}

	fetched, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusPlanned {
		t.Fatalf("expected stale item rolled back to planned, got %s", fetched.Status)
	}
	if fetched.LastHeartbeat != nil {
		t.Fatalf("expected heartbeat cleared, got %v", fetched.LastHeartbeat)
	}

	untouched, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusRendering {
		t.Fatalf("fresh item should keep rendering, got %s", untouched.Status)
	}
}

func TestRetryResetsFailedAndReviewItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.AddItem(t, store, cfg, "Failed")
	failed.SetFailed("renderer crashed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	review := testsupport.AddItem(t, store, cfg, "Review")
	review.SetReview("alignment degenerate")
	if err := store.Update(ctx, review); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for _, id := range []int64{failed.ID, review.ID} {
		item, err := store.Retry(ctx, id)
		if err != nil {
			t.Fatalf("Retry(%d) failed: %v", id, err)
		}
		if item.Status != queue.StatusPending || item.ErrorMessage != "" || item.NeedsReview {
			t.Fatalf("retry did not reset item: %#v", item)
		}
	}

	pendingItem := testsupport.AddItem(t, store, cfg, "Pending")
	if _, err := store.Retry(ctx, pendingItem.ID); err == nil {
		t.Fatal("expected error retrying a pending item")
	}
	if _, err := store.Retry(ctx, 9999); err == nil {
		t.Fatal("expected error retrying missing item")
	}
}

func TestClearRespectsCompletedOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	done := testsupport.AddItem(t, store, cfg, "Done")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.AddItem(t, store, cfg, "Still Pending")

	removed, err := store.Clear(ctx, true)
	if err != nil {
		t.Fatalf("Clear(completedOnly) failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "Still Pending" {
		t.Fatalf("unexpected remaining items: %#v", remaining)
	}

	removed, err = store.Clear(ctx, false)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

func TestStatsAndHealthBucketStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.AddItem(t, store, cfg, "Pending A")
	testsupport.AddItem(t, store, cfg, "Pending B")

	working := testsupport.AddItem(t, store, cfg, "Working")
	working.Status = queue.StatusAligning
	if err := store.Update(ctx, working); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	failed := testsupport.AddItem(t, store, cfg, "Failed")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 2 || stats[queue.StatusAligning] != 1 || stats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if summary.Total != 4 || summary.Pending != 2 || summary.Processing != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected health summary: %#v", summary)
	}
}

func TestUpdateHeartbeatStampsItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, cfg, "Beating")
	if item.LastHeartbeat != nil {
		t.Fatalf("expected no heartbeat on insert, got %v", item.LastHeartbeat)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.LastHeartbeat == nil {
		t.Fatal("expected heartbeat to be stamped")
	}
	if time.Since(*fetched.LastHeartbeat) > time.Minute {
		t.Fatalf("heartbeat not recent: %v", fetched.LastHeartbeat)
	}
}
