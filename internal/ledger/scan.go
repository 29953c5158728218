package ledger

import (
	"database/sql"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Status,
		&startedRaw,
		&finishedRaw,
		&run.Attempted,
		&run.Succeeded,
		&run.Failed,
		&run.RecordsHarvested,
		&run.EntriesSkipped,
		&run.RecordsKept,
		&run.AssetsCached,
		&run.AssetsFailed,
		&run.FramesSampled,
	); err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		finished := parseTime(finishedRaw.String)
		run.FinishedAt = &finished
	}
	return &run, nil
}

func scanOutcome(scanner rowScanner) (EntryOutcome, error) {
	var (
		o            EntryOutcome
		unitID       sql.NullString
		folder       sql.NullString
		locator      sql.NullString
		destination  sql.NullString
		failedStage  sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		rankedPath   sql.NullString
		allPath      sql.NullString
		durationMS   int64
		finishedRaw  string
	)
	if err := scanner.Scan(
		&o.ID,
		&o.RunID,
		&unitID,
		&folder,
		&locator,
		&destination,
		&o.State,
		&failedStage,
		&errorKind,
		&errorMessage,
		&o.Records,
		&o.Kept,
		&o.AssetsCached,
		&o.AssetsFailed,
		&o.Frames,
		&rankedPath,
		&allPath,
		&durationMS,
		&finishedRaw,
	); err != nil {
		return EntryOutcome{}, err
	}
	o.UnitID = unitID.String
	o.Folder = folder.String
	o.Locator = locator.String
	o.Destination = destination.String
	o.FailedStage = failedStage.String
	o.ErrorKind = errorKind.String
	o.ErrorMessage = errorMessage.String
	o.RankedPath = rankedPath.String
	o.AllPath = allPath.String
	o.Duration = time.Duration(durationMS) * time.Millisecond
	o.FinishedAt = parseTime(finishedRaw)
	return o, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
