package harvest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"reelharvest/internal/assetcache"
	"reelharvest/internal/config"
	"reelharvest/internal/manifest"
	"reelharvest/internal/normalize"
	"reelharvest/internal/remote"
	"reelharvest/internal/retry"
	"reelharvest/internal/services"
)

type stubFetcher struct {
	byLocator map[string][]any
	failures  map[string]error
	calls     []remote.Query
}

func (f *stubFetcher) Fetch(_ context.Context, q remote.Query) ([]any, error) {
	f.calls = append(f.calls, q)
	if err := f.failures[q.Locator]; err != nil {
		return nil, err
	}
	return f.byLocator[q.Locator], nil
}

type stubAssets struct {
	mu      sync.Mutex
	fetches map[string]int
	fail    map[string]error
}

func (s *stubAssets) FetchAsset(_ context.Context, locator string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetches == nil {
		s.fetches = make(map[string]int)
	}
	s.fetches[locator]++
	if err := s.fail[locator]; err != nil {
		return nil, "", err
	}
	return io.NopCloser(strings.NewReader("img")), "image/png", nil
}

type recordingExporter struct {
	writes map[string][]normalize.Record
}

func (e *recordingExporter) Write(records []normalize.Record, path string) error {
	if e.writes == nil {
		e.writes = make(map[string][]normalize.Record)
	}
	e.writes[path] = append([]normalize.Record(nil), records...)
	return nil
}

type memoryRecorder struct {
	started  []string
	outcomes []Outcome
	finished []Summary
}

func (r *memoryRecorder) RunStarted(_ context.Context, runID string, _ time.Time) error {
	r.started = append(r.started, runID)
	return nil
}

func (r *memoryRecorder) EntryFinished(_ context.Context, _ string, outcome Outcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func (r *memoryRecorder) RunFinished(_ context.Context, summary Summary) error {
	r.finished = append(r.finished, summary)
	return nil
}

func comment(text string, replies, likes float64, user, avatar string) map[string]any {
	raw := map[string]any{"text": text, "replyCount": replies, "likeCount": likes}
	if user != "" {
		raw["user"] = map[string]any{"username": user, "avatarUrl": avatar}
	}
	return raw
}

func entriesUnder(root string, ids ...string) []manifest.Entry {
	entries := make([]manifest.Entry, len(ids))
	for i, id := range ids {
		entries[i] = manifest.Entry{
			UnitID:      id,
			Locator:     "https://www.tiktok.com/@shop/video/" + id,
			Index:       i + 1,
			Folder:      id,
			Destination: filepath.Join(root, id),
		}
	}
	return entries
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestOrchestrator(fetcher remote.Fetcher, assets *stubAssets, exporter Exporter, recorder Recorder) *Orchestrator {
	cache := assetcache.New(assets, assetcache.ImagePolicy(0, time.Second), nil)
	return New(Deps{
		Fetcher:  fetcher,
		Avatars:  cache,
		Exporter: exporter,
		Recorder: recorder,
	}, Options{
		TopK:   2,
		Retry:  retry.Policy{MaxAttempts: 3, Sleeper: noSleep},
		Layout: config.Default().Layout,
	})
}

func TestRunContainsEntryFailure(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1", "e2", "e3")
	fetcher := &stubFetcher{
		byLocator: map[string][]any{
			entries[0].Locator: {comment("a", 0, 1, "", ""), comment("b", 1, 0, "", "")},
			entries[2].Locator: {comment("c", 0, 5, "", "")},
		},
		failures: map[string]error{
			entries[1].Locator: services.Wrap(services.ErrTransientFetch, "fetch", "comments", "", errors.New("boom")),
		},
	}
	exporter := &recordingExporter{}
	recorder := &memoryRecorder{}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, exporter, recorder)

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Attempted != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.RecordsHarvested != 3 || summary.RecordsKept != 3 {
		t.Fatalf("unexpected record counts harvested=%d kept=%d", summary.RecordsHarvested, summary.RecordsKept)
	}
	if summary.Status() != RunPartial {
		t.Fatalf("expected partial status, got %s", summary.Status())
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", summary.Failures)
	}
	failure := summary.Failures[0]
	if failure.UnitID != "e2" || failure.Stage != StateFetching {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if !errors.Is(failure.Err, services.ErrEntryFailure) || !errors.Is(failure.Err, services.ErrTransientFetch) {
		t.Fatalf("failure error lost its markers: %v", failure.Err)
	}
	if len(fetcher.calls) != 3 {
		t.Fatalf("expected every entry to be fetched, got %d calls", len(fetcher.calls))
	}
	for _, id := range []string{"e1", "e3"} {
		ranked, all := filepath.Join(root, id, "comments", id+".xlsx"), filepath.Join(root, id, "comments", id+"_all.xlsx")
		if _, ok := exporter.writes[ranked]; !ok {
			t.Fatalf("missing ranked export for %s", id)
		}
		if _, ok := exporter.writes[all]; !ok {
			t.Fatalf("missing full export for %s", id)
		}
	}
	if len(recorder.started) != 1 || len(recorder.outcomes) != 3 || len(recorder.finished) != 1 {
		t.Fatalf("recorder not notified: %+v", recorder)
	}
	if recorder.outcomes[1].State != StateFailed || recorder.outcomes[2].State != StateCommitted {
		t.Fatalf("unexpected recorded states %s %s", recorder.outcomes[1].State, recorder.outcomes[2].State)
	}
}

func TestRunExportsRankedAndFullSets(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	fetcher := &stubFetcher{byLocator: map[string][]any{
		entries[0].Locator: {
			comment("r0", 1, 10, "", ""),
			comment("r1", 5, 0, "", ""),
			comment("r2", 0, 20, "", ""),
		},
	}}
	exporter := &recordingExporter{}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, exporter, nil)

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.RecordsHarvested != 3 || summary.RecordsKept != 2 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	ranked := exporter.writes[filepath.Join(root, "e1", "comments", "e1.xlsx")]
	all := exporter.writes[filepath.Join(root, "e1", "comments", "e1_all.xlsx")]
	if got := textsOf(ranked); !reflect.DeepEqual(got, []string{"r2", "r0"}) {
		t.Fatalf("unexpected ranked export %v", got)
	}
	if got := textsOf(all); !reflect.DeepEqual(got, []string{"r0", "r1", "r2"}) {
		t.Fatalf("unexpected full export %v", got)
	}
	for _, dir := range []string{"vid", "img", "final_imgs", "cover_img", "comments/filter_cmt", "comments/user_cover_img"} {
		if info, err := os.Stat(filepath.Join(root, "e1", dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestRunFailsEntryWithNonObjectRecord(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1", "e2")
	fetcher := &stubFetcher{byLocator: map[string][]any{
		entries[0].Locator: {comment("ok", 0, 1, "", ""), "garbage"},
		entries[1].Locator: {comment("fine", 0, 2, "", "")},
	}}
	exporter := &recordingExporter{}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, exporter, nil)

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attempted != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	failure := summary.Failures[0]
	if failure.Stage != StateNormalizing || !errors.Is(failure.Err, services.ErrSchema) {
		t.Fatalf("expected schema failure at NORMALIZING, got %+v", failure)
	}
	if summary.RecordsHarvested != 1 {
		t.Fatalf("failed entry must not contribute records, got %d", summary.RecordsHarvested)
	}
	for path := range exporter.writes {
		if strings.HasPrefix(filepath.Base(path), "e1") {
			t.Fatalf("failed entry should not be exported, wrote %s", path)
		}
	}
}

func TestRunReportsSkippedManifestEntries(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	fetcher := &stubFetcher{byLocator: map[string][]any{entries[0].Locator: {comment("ok", 0, 1, "", "")}}}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, &recordingExporter{}, nil)
	orch.opts.SkippedEntries = 3

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.EntriesSkipped != 3 || summary.Status() != RunCompleted {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunCachesAvatarsOncePerPairAndRerunsIdempotently(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	avatar := "https://cdn.example.com/avatar/1.png"
	fetcher := &stubFetcher{byLocator: map[string][]any{
		entries[0].Locator: {
			comment("a", 0, 3, "alice", avatar),
			comment("b", 0, 2, "alice", avatar),
			comment("c", 0, 1, "bob", avatar),
			comment("d", 0, 0, "carol", ""),
		},
	}}
	assets := &stubAssets{}
	exporter := &recordingExporter{}
	orch := newTestOrchestrator(fetcher, assets, exporter, nil)

	first, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if first.AssetsCached != 2 || first.AssetsFailed != 0 {
		t.Fatalf("expected two distinct avatars, got %+v", first)
	}
	if assets.fetches[avatar] != 2 {
		t.Fatalf("expected one fetch per label, got %d", assets.fetches[avatar])
	}
	avatarFiles, _ := os.ReadDir(filepath.Join(root, "e1", "comments", "user_cover_img"))
	if len(avatarFiles) != 2 {
		t.Fatalf("expected 2 cached avatar files, got %d", len(avatarFiles))
	}
	allPath := filepath.Join(root, "e1", "comments", "e1_all.xlsx")
	firstAll := exporter.writes[allPath]
	if firstAll[0].AvatarPath == "" || firstAll[0].AvatarPath != firstAll[1].AvatarPath {
		t.Fatalf("expected shared avatar path, got %q and %q", firstAll[0].AvatarPath, firstAll[1].AvatarPath)
	}
	if firstAll[2].AvatarPath == firstAll[0].AvatarPath {
		t.Fatal("different labels must not share a cache file")
	}
	if firstAll[3].AvatarPath != "" {
		t.Fatalf("record without avatar got path %q", firstAll[3].AvatarPath)
	}
	rankedFirst := exporter.writes[filepath.Join(root, "e1", "comments", "e1.xlsx")]
	if rankedFirst[0].AvatarPath != firstAll[0].AvatarPath {
		t.Fatal("ranked export missing avatar path")
	}

	second, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if assets.fetches[avatar] != 2 {
		t.Fatalf("rerun downloaded again: %d fetches", assets.fetches[avatar])
	}
	if len(fetcher.calls) != 2 {
		t.Fatalf("records must be fetched on every run, got %d calls", len(fetcher.calls))
	}
	if second.RecordsKept != first.RecordsKept {
		t.Fatalf("rerun changed kept count: %d vs %d", second.RecordsKept, first.RecordsKept)
	}
	if !reflect.DeepEqual(exporter.writes[allPath], firstAll) {
		t.Fatal("rerun produced different output")
	}
}

func TestRunAvatarFailureIsSoft(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	bad := "https://cdn.example.com/avatar/bad.png"
	fetcher := &stubFetcher{byLocator: map[string][]any{
		entries[0].Locator: {
			comment("a", 0, 1, "alice", bad),
			comment("b", 0, 1, "bob", "not a url"),
		},
	}}
	assets := &stubAssets{fail: map[string]error{
		bad: services.Wrap(services.ErrTransientFetch, "fetch", "asset", "", errors.New("timeout")),
	}}
	exporter := &recordingExporter{}
	orch := newTestOrchestrator(fetcher, assets, exporter, nil)

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.AssetsFailed != 2 || summary.AssetsCached != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if assets.fetches[bad] != 3 {
		t.Fatalf("expected 3 attempts for transient failure, got %d", assets.fetches[bad])
	}
	if assets.fetches["not a url"] != 0 {
		t.Fatal("malformed locator must not reach the network")
	}
	for _, record := range exporter.writes[filepath.Join(root, "e1", "comments", "e1_all.xlsx")] {
		if record.AvatarPath != "" {
			t.Fatalf("failed avatar produced path %q", record.AvatarPath)
		}
	}
}

type fakeMedia struct {
	media normalize.Media
	err   error
}

func (m fakeMedia) ResolveMedia(context.Context, string) (normalize.Media, error) {
	return m.media, m.err
}

type fakeFrames struct {
	calls int
}

func (f *fakeFrames) Sample(_ context.Context, video, dest string, interval int) ([]string, error) {
	f.calls++
	if video == "" || interval != 3 {
		return nil, errors.New("bad arguments")
	}
	return []string{filepath.Join(dest, "frame_0.jpg"), filepath.Join(dest, "frame_3.jpg")}, nil
}

type fixedCache struct {
	calls []string
}

func (c *fixedCache) FetchOrGet(_ context.Context, locator, label, dir string) (string, error) {
	c.calls = append(c.calls, locator)
	return filepath.Join(dir, label+".bin"), nil
}

func TestRunSamplesMediaWhenEnabled(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	fetcher := &stubFetcher{byLocator: map[string][]any{entries[0].Locator: {comment("a", 0, 1, "", "")}}}
	videos, covers := &fixedCache{}, &fixedCache{}
	sampler := &fakeFrames{}
	orch := New(Deps{
		Fetcher:  fetcher,
		Avatars:  &fixedCache{},
		Exporter: &recordingExporter{},
		Media:    fakeMedia{media: normalize.Media{VideoLocator: "https://v.example.com/1.mp4", CoverLocator: "https://c.example.com/1.jpg"}},
		Videos:   videos,
		Covers:   covers,
		Frames:   sampler,
	}, Options{Layout: config.Default().Layout, FrameInterval: 3, Retry: retry.Policy{Sleeper: noSleep}})

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.FramesSampled != 2 || summary.AssetsCached != 2 || sampler.calls != 1 {
		t.Fatalf("unexpected summary %+v (sampler calls %d)", summary, sampler.calls)
	}
	if len(videos.calls) != 1 || len(covers.calls) != 1 {
		t.Fatalf("expected one video and one cover fetch, got %v %v", videos.calls, covers.calls)
	}
}

func TestRunMediaFailureIsSoft(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	fetcher := &stubFetcher{byLocator: map[string][]any{entries[0].Locator: {comment("a", 0, 1, "", "")}}}
	sampler := &fakeFrames{}
	orch := New(Deps{
		Fetcher:  fetcher,
		Avatars:  &fixedCache{},
		Exporter: &recordingExporter{},
		Media:    fakeMedia{err: services.Wrap(services.ErrValidation, "media", "resolve", "no media", nil)},
		Videos:   &fixedCache{},
		Frames:   sampler,
	}, Options{Layout: config.Default().Layout, FrameInterval: 3})

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.FramesSampled != 0 || sampler.calls != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

type failingExporter struct{}

func (failingExporter) Write([]normalize.Record, string) error {
	return errors.New("disk full")
}

func TestRunExportFailureFailsEntry(t *testing.T) {
	root := t.TempDir()
	entries := entriesUnder(root, "e1")
	fetcher := &stubFetcher{byLocator: map[string][]any{entries[0].Locator: {comment("a", 0, 1, "", "")}}}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, failingExporter{}, nil)

	summary, err := orch.Run(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || summary.Failures[0].Stage != StateExporting {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RecordsHarvested != 0 {
		t.Fatal("failed entries must not add record counts")
	}
}

type cancelingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancelingFetcher) Fetch(context.Context, remote.Query) ([]any, error) {
	f.calls++
	f.cancel()
	return nil, context.Canceled
}

func TestRunStopsOnCancellation(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &cancelingFetcher{cancel: cancel}
	orch := newTestOrchestrator(fetcher, &stubAssets{}, &recordingExporter{}, nil)

	summary, err := orch.Run(ctx, entriesUnder(root, "e1", "e2", "e3"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if fetcher.calls != 1 || summary.Attempted != 1 {
		t.Fatalf("expected batch to stop after first entry, calls=%d attempted=%d", fetcher.calls, summary.Attempted)
	}
	if !summary.Canceled || summary.Status() != RunCanceled {
		t.Fatalf("expected canceled summary, got %+v", summary)
	}
}

func TestRunUsesProvidedRunID(t *testing.T) {
	recorder := &memoryRecorder{}
	orch := New(Deps{Fetcher: &stubFetcher{}, Avatars: &fixedCache{}, Exporter: &recordingExporter{}, Recorder: recorder},
		Options{RunID: "run-42", Layout: config.Default().Layout})
	summary, err := orch.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.RunID != "run-42" || recorder.started[0] != "run-42" {
		t.Fatalf("run id not propagated: %+v", summary)
	}
	if summary.Status() != RunCompleted {
		t.Fatalf("empty batch should complete, got %s", summary.Status())
	}
}

func textsOf(records []normalize.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}
