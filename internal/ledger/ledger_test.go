package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reelharvest/internal/harvest"
	"reelharvest/internal/ledger"
	"reelharvest/internal/manifest"
	"reelharvest/internal/services"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		store, err := ledger.Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		if store.Path() != path {
			t.Fatalf("unexpected path %q", store.Path())
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.StartRun(ctx, "run-1", started); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != ledger.StatusRunning || !run.StartedAt.Equal(started) || run.FinishedAt != nil {
		t.Fatalf("unexpected running row %+v", run)
	}

	finished := started.Add(90 * time.Second)
	if err := store.FinishRun(ctx, ledger.Run{
		ID: "run-1", Status: ledger.StatusPartial, FinishedAt: &finished,
		Attempted: 3, Succeeded: 2, Failed: 1, RecordsHarvested: 40, RecordsKept: 12,
	}); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	run, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != ledger.StatusPartial || run.Attempted != 3 || run.Succeeded != 2 || run.RecordsKept != 12 {
		t.Fatalf("unexpected finished row %+v", run)
	}
	if run.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %v", run.Duration())
	}
}

func TestGetRunMissing(t *testing.T) {
	store := openStore(t)
	if _, err := store.GetRun(context.Background(), "nope"); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	err := store.FinishRun(context.Background(), ledger.Run{ID: "nope", Status: ledger.StatusCompleted})
	if !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound from FinishRun, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.StartRun(ctx, id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all runs, got %d (%v)", len(all), err)
	}
}

func TestPruneBeforeCascadesOutcomes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.StartRun(ctx, "old", old); err != nil {
		t.Fatal(err)
	}
	if err := store.StartRun(ctx, "new", old.AddDate(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordOutcome(ctx, ledger.EntryOutcome{RunID: "old", State: "COMMITTED"}); err != nil {
		t.Fatal(err)
	}
	removed, err := store.PruneBefore(ctx, old.AddDate(0, 6, 0))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 pruned run, got %d (%v)", removed, err)
	}
	outcomes, err := store.ListOutcomes(ctx, "old")
	if err != nil || len(outcomes) != 0 {
		t.Fatalf("expected outcomes removed, got %d (%v)", len(outcomes), err)
	}
}

func TestRecorderPersistsOrchestratorEvents(t *testing.T) {
	store := openStore(t)
	rec := ledger.NewRecorder(store)
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := rec.RunStarted(ctx, "run-x", started); err != nil {
		t.Fatal(err)
	}
	committed := harvest.Outcome{
		Entry:      manifest.Entry{UnitID: "u1", Folder: "u1", Locator: "https://example.com/1", Destination: "/tmp/u1"},
		State:      harvest.StateCommitted,
		Records:    10,
		Kept:       6,
		RankedPath: "/tmp/u1/comments/u1.xlsx",
		AllPath:    "/tmp/u1/comments/u1_all.xlsx",
		Duration:   1500 * time.Millisecond,
	}
	failed := harvest.Outcome{
		Entry:       manifest.Entry{UnitID: "u2", Folder: "u2"},
		State:       harvest.StateFailed,
		FailedStage: harvest.StateFetching,
		Err:         services.Wrap(services.ErrEntryFailure, "fetching", "u2", "", services.Wrap(services.ErrTransientFetch, "apify", "run", "503", nil)),
	}
	for _, o := range []harvest.Outcome{committed, failed} {
		if err := rec.EntryFinished(ctx, "run-x", o); err != nil {
			t.Fatalf("EntryFinished failed: %v", err)
		}
	}
	summary := harvest.Summary{RunID: "run-x", StartedAt: started, FinishedAt: started.Add(time.Minute), Attempted: 2, Succeeded: 1, Failed: 1, RecordsHarvested: 10, RecordsKept: 6}
	if err := rec.RunFinished(ctx, summary); err != nil {
		t.Fatal(err)
	}

	run, err := store.GetRun(ctx, "run-x")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != ledger.StatusPartial || run.Failed != 1 || run.RecordsHarvested != 10 {
		t.Fatalf("unexpected run %+v", run)
	}
	outcomes, err := store.ListOutcomes(ctx, "run-x")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].UnitID != "u1" || outcomes[0].Kept != 6 || outcomes[0].Duration != 1500*time.Millisecond || outcomes[0].ErrorKind != "" {
		t.Fatalf("unexpected committed outcome %+v", outcomes[0])
	}
	if outcomes[1].State != "FAILED" || outcomes[1].FailedStage != "FETCHING" || outcomes[1].ErrorKind != "transient_fetch" {
		t.Fatalf("unexpected failed outcome %+v", outcomes[1])
	}
	if outcomes[1].ErrorMessage == "" {
		t.Fatal("expected error message to be stored")
	}
}
