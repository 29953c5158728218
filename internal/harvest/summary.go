package harvest

import (
	"time"

	"reelharvest/internal/manifest"
)

// State is a step of the per-entry state machine.
type State string

const (
	StatePending       State = "PENDING"
	StateFetching      State = "FETCHING"
	StateNormalizing   State = "NORMALIZING"
	StateRanking       State = "RANKING"
	StateCachingAssets State = "CACHING_ASSETS"
	StateExporting     State = "EXPORTING"
	StateSampling      State = "SAMPLING"
	StateCommitted     State = "COMMITTED"
	StateFailed        State = "FAILED"
)

// Run statuses reported by Summary.Status.
const (
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunCanceled  = "canceled"
)

// Outcome describes how one entry finished.
type Outcome struct {
	Entry manifest.Entry
	// State is StateCommitted or StateFailed.
	State State
	// FailedStage is the state the entry was in when it failed.
	FailedStage State
	Err         error

	Records      int
	Kept         int
	AssetsCached int
	AssetsFailed int
	Frames       int
	RankedPath   string
	AllPath      string
	Duration     time.Duration
}

// Failure identifies a failed entry.
type Failure struct {
	UnitID string
	Folder string
	Stage  State
	Err    error
}

// Summary accumulates batch counters.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Canceled   bool

	Attempted        int
	Succeeded        int
	Failed           int
	RecordsHarvested int
	// EntriesSkipped counts manifest items rejected before the batch started.
	EntriesSkipped   int
	RecordsKept      int
	AssetsCached     int
	AssetsFailed     int
	FramesSampled    int

	Failures []Failure
}

// Status classifies the run as completed, partial or canceled.
func (s Summary) Status() string {
	switch {
	case s.Canceled:
		return RunCanceled
	case s.Failed > 0:
		return RunPartial
	default:
		return RunCompleted
	}
}

func (s *Summary) add(o Outcome) {
	s.Attempted++
	s.AssetsCached += o.AssetsCached
	s.AssetsFailed += o.AssetsFailed
	if o.State != StateCommitted {
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			UnitID: o.Entry.UnitID,
			Folder: o.Entry.Folder,
			Stage:  o.FailedStage,
			Err:    o.Err,
		})
		return
	}
	s.Succeeded++
	s.RecordsHarvested += o.Records
	s.RecordsKept += o.Kept
	s.FramesSampled += o.Frames
}
