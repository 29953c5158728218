package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"reelharvest/internal/config"
	"reelharvest/internal/harvest"
	"reelharvest/internal/ledger"
	"reelharvest/internal/manifest"
)

func expandArg(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("path argument is empty")
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", value, err)
	}
	return expanded, nil
}

type entryView struct {
	UnitID      string `json:"unit_id"`
	Label       string `json:"label,omitempty"`
	Locator     string `json:"locator"`
	Folder      string `json:"folder"`
	Destination string `json:"destination"`
	Manifest    string `json:"manifest"`
}

func entryViews(entries []manifest.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			UnitID:      e.UnitID,
			Label:       e.Label,
			Locator:     e.Locator,
			Folder:      e.Folder,
			Destination: e.Destination,
			Manifest:    e.Source,
		})
	}
	return views
}

func renderEntries(entries []manifest.Entry, dropped, skipped int) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Name(), e.Folder, e.Locator})
	}
	var b strings.Builder
	b.WriteString(renderTable([]string{"#", "Unit", "Folder", "Locator"}, rows, []columnAlignment{alignRight}))
	fmt.Fprintf(&b, "\n%d entr%s", len(entries), plural(len(entries), "y", "ies"))
	if dropped > 0 {
		fmt.Fprintf(&b, ", %d excluded by reference", dropped)
	}
	if skipped > 0 {
		fmt.Fprintf(&b, ", %d manifest item%s skipped", skipped, plural(skipped, "", "s"))
	}
	return b.String()
}

type failureView struct {
	UnitID string `json:"unit_id"`
	Folder string `json:"folder"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

type summaryJSON struct {
	RunID            string        `json:"run_id"`
	Status           string        `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	Attempted        int           `json:"attempted"`
	Succeeded        int           `json:"succeeded"`
	Failed           int           `json:"failed"`
	RecordsHarvested int           `json:"records_harvested"`
	EntriesSkipped   int           `json:"entries_skipped"`
	RecordsKept      int           `json:"records_kept"`
	AssetsCached     int           `json:"assets_cached"`
	AssetsFailed     int           `json:"assets_failed"`
	FramesSampled    int           `json:"frames_sampled"`
	Failures         []failureView `json:"failures"`
}

func summaryView(s harvest.Summary) summaryJSON {
	view := summaryJSON{
		RunID:            s.RunID,
		Status:           s.Status(),
		StartedAt:        s.StartedAt,
		FinishedAt:       s.FinishedAt,
		Attempted:        s.Attempted,
		Succeeded:        s.Succeeded,
		Failed:           s.Failed,
		RecordsHarvested: s.RecordsHarvested,
		EntriesSkipped:   s.EntriesSkipped,
		RecordsKept:      s.RecordsKept,
		AssetsCached:     s.AssetsCached,
		AssetsFailed:     s.AssetsFailed,
		FramesSampled:    s.FramesSampled,
		Failures:         []failureView{},
	}
	for _, f := range s.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		view.Failures = append(view.Failures, failureView{UnitID: f.UnitID, Folder: f.Folder, Stage: string(f.Stage), Error: msg})
	}
	return view
}

func statusColor(status string) string {
	switch status {
	case harvest.RunCompleted:
		return ansiGreen
	case harvest.RunPartial, harvest.RunCanceled, ledger.StatusRunning:
		return ansiYellow
	default:
		return ansiRed
	}
}

func renderSummary(s harvest.Summary, color bool) string {
	var b strings.Builder
	status := s.Status()
	fmt.Fprintf(&b, "Run %s: %s\n", s.RunID, colorize(color, statusColor(status), status))
	rows := [][]string{
		{"Entries attempted", strconv.Itoa(s.Attempted)},
		{"Entries succeeded", strconv.Itoa(s.Succeeded)},
		{"Entries failed", strconv.Itoa(s.Failed)},
		{"Entries skipped", strconv.Itoa(s.EntriesSkipped)},
		{"Records harvested", strconv.Itoa(s.RecordsHarvested)},
		{"Records kept", strconv.Itoa(s.RecordsKept)},
		{"Assets cached", strconv.Itoa(s.AssetsCached)},
		{"Assets failed", strconv.Itoa(s.AssetsFailed)},
		{"Frames sampled", strconv.Itoa(s.FramesSampled)},
		{"Elapsed", formatDuration(s.FinishedAt.Sub(s.StartedAt))},
	}
	b.WriteString(renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	if len(s.Failures) > 0 {
		failRows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			msg := ""
			if f.Err != nil {
				msg = f.Err.Error()
			}
			failRows = append(failRows, []string{f.UnitID, string(f.Stage), msg})
		}
		b.WriteString("\nFailures:\n")
		b.WriteString(renderTable([]string{"Unit", "Stage", "Error"}, failRows, nil))
	}
	return b.String()
}

func renderRuns(runs []ledger.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			fmt.Sprintf("%d/%d", r.Succeeded, r.Attempted),
			strconv.Itoa(r.RecordsKept),
			formatDuration(r.Duration()),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Status", "OK", "Kept", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func renderOutcomes(outcomes []ledger.EntryOutcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.ErrorMessage
		if o.FailedStage != "" {
			detail = o.FailedStage + ": " + detail
		}
		rows = append(rows, []string{
			o.UnitID,
			o.State,
			strconv.Itoa(o.Records),
			strconv.Itoa(o.Kept),
			fmt.Sprintf("%d/%d", o.AssetsCached, o.AssetsCached+o.AssetsFailed),
			strconv.Itoa(o.Frames),
			detail,
		})
	}
	return renderTable(
		[]string{"Unit", "State", "Records", "Kept", "Assets", "Frames", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
