package ledger

import (
	"context"
	"time"

	"reelharvest/internal/harvest"
	"reelharvest/internal/services"
)

// Recorder adapts a Store to harvest.Recorder.
type Recorder struct {
	store *Store
	now   func() time.Time
}

// NewRecorder wraps store for use by the orchestrator.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// RunStarted inserts the run row.
func (r *Recorder) RunStarted(ctx context.Context, runID string, startedAt time.Time) error {
	return r.store.StartRun(ctx, runID, startedAt)
}

// EntryFinished appends the outcome of one entry.
func (r *Recorder) EntryFinished(ctx context.Context, runID string, outcome harvest.Outcome) error {
	row := EntryOutcome{
		RunID:        runID,
		UnitID:       outcome.Entry.UnitID,
		Folder:       outcome.Entry.Folder,
		Locator:      outcome.Entry.Locator,
		Destination:  outcome.Entry.Destination,
		State:        string(outcome.State),
		FailedStage:  string(outcome.FailedStage),
		Records:      outcome.Records,
		Kept:         outcome.Kept,
		AssetsCached: outcome.AssetsCached,
		AssetsFailed: outcome.AssetsFailed,
		Frames:       outcome.Frames,
		RankedPath:   outcome.RankedPath,
		AllPath:      outcome.AllPath,
		Duration:     outcome.Duration,
		FinishedAt:   r.now().UTC(),
	}
	if outcome.Err != nil {
		row.ErrorKind = services.FailureKind(outcome.Err)
		row.ErrorMessage = outcome.Err.Error()
	}
	_, err := r.store.RecordOutcome(ctx, row)
	return err
}

// RunFinished stores the summary counters.
func (r *Recorder) RunFinished(ctx context.Context, summary harvest.Summary) error {
	finished := summary.FinishedAt
	return r.store.FinishRun(ctx, Run{
		ID:               summary.RunID,
		Status:           summary.Status(),
		FinishedAt:       &finished,
		Attempted:        summary.Attempted,
		Succeeded:        summary.Succeeded,
		Failed:           summary.Failed,
		RecordsHarvested: summary.RecordsHarvested,
		EntriesSkipped:   summary.EntriesSkipped,
		RecordsKept:      summary.RecordsKept,
		AssetsCached:     summary.AssetsCached,
		AssetsFailed:     summary.AssetsFailed,
		FramesSampled:    summary.FramesSampled,
	})
}

var _ harvest.Recorder = (*Recorder)(nil)
