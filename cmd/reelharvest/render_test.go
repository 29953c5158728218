package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"reelharvest/internal/harvest"
	"reelharvest/internal/ledger"
)

func TestRenderSummaryListsFailures(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	summary := harvest.Summary{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Attempted:  2,
		Succeeded:  1,
		Failed:     1,
		Failures: []harvest.Failure{{
			UnitID: "u9",
			Stage:  harvest.StateFetching,
			Err:    errors.New("actor timed out"),
		}},
	}
	out := renderSummary(summary, false)
	for _, want := range []string{"Run run-1: partial", "Entries failed", "u9", "FETCHING", "actor timed out", "1m30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("expected no ANSI codes when color disabled")
	}
}

func TestSummaryViewAlwaysHasFailuresSlice(t *testing.T) {
	view := summaryView(harvest.Summary{RunID: "r"})
	if view.Failures == nil {
		t.Fatal("expected empty, non-nil failures")
	}
	if view.Status != harvest.RunCompleted {
		t.Fatalf("unexpected status %q", view.Status)
	}
}

func TestRenderRunsShowsDashForRunningRun(t *testing.T) {
	out := renderRuns([]ledger.Run{{ID: "abc", Status: ledger.StatusRunning, StartedAt: time.Now()}})
	if !strings.Contains(out, "abc") || !strings.Contains(out, "running") || !strings.Contains(out, "-") {
		t.Fatalf("unexpected runs table:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                      "-",
		250 * time.Millisecond: "250ms",
		61 * time.Second:       "1m1s",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
