package ledger

import (
	"time"

	"reelharvest/internal/harvest"
)

// Run status values. Finished runs carry the harvest summary status.
const (
	StatusRunning   = "running"
	StatusCompleted = harvest.RunCompleted
	StatusPartial   = harvest.RunPartial
	StatusCanceled  = harvest.RunCanceled
)

// Run is one persisted batch.
type Run struct {
	ID         string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time

	Attempted        int
	Succeeded        int
	Failed           int
	RecordsHarvested int
	EntriesSkipped   int
	RecordsKept      int
	AssetsCached     int
	AssetsFailed     int
	FramesSampled    int
}

// Duration returns how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// EntryOutcome is the persisted result of one manifest entry.
type EntryOutcome struct {
	ID           int64
	RunID        string
	UnitID       string
	Folder       string
	Locator      string
	Destination  string
	State        string
	FailedStage  string
	ErrorKind    string
	ErrorMessage string
	Records      int
	Kept         int
	AssetsCached int
	AssetsFailed int
	Frames       int
	RankedPath   string
	AllPath      string
	Duration     time.Duration
	FinishedAt   time.Time
}
