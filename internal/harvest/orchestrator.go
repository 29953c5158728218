package harvest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelharvest/internal/config"
	"reelharvest/internal/logging"
	"reelharvest/internal/manifest"
	"reelharvest/internal/normalize"
	"reelharvest/internal/ranking"
	"reelharvest/internal/remote"
	"reelharvest/internal/retry"
	"reelharvest/internal/services"
)

// AssetCache resolves a remote asset to a local file.
type AssetCache interface {
	FetchOrGet(ctx context.Context, locator, label, dir string) (string, error)
}

// Exporter renders records to a tabular file.
type Exporter interface {
	Write(records []normalize.Record, path string) error
}

// MediaResolver finds the video and cover locators of a post.
type MediaResolver interface {
	ResolveMedia(ctx context.Context, locator string) (normalize.Media, error)
}

// FrameSampler extracts stills from a local video.
type FrameSampler interface {
	Sample(ctx context.Context, video, dest string, interval int) ([]string, error)
}

// Recorder persists run history. Recorder errors are logged and never fail
// an entry.
type Recorder interface {
	RunStarted(ctx context.Context, runID string, startedAt time.Time) error
	EntryFinished(ctx context.Context, runID string, outcome Outcome) error
	RunFinished(ctx context.Context, summary Summary) error
}

// Deps are the collaborators an Orchestrator drives. Fetcher, Avatars and
// Exporter are required. Media enables the SAMPLING state; Videos, Covers and
// Frames are consulted only when it is set.
type Deps struct {
	Fetcher  remote.Fetcher
	Avatars  AssetCache
	Exporter Exporter

	Media  MediaResolver
	Videos AssetCache
	Covers AssetCache
	Frames FrameSampler

	Recorder Recorder
	Logger   *slog.Logger
}

// Options tune a batch.
type Options struct {
	MaxItems      int
	TopK          int
	Weights       ranking.Weights
	Retry         retry.Policy
	Layout        config.Layout
	FrameInterval int
	// RunID overrides the generated run identifier.
	RunID string
	// SkippedEntries is the number of manifest items rejected while loading.
	// It is reported in Summary.EntriesSkipped.
	SkippedEntries int
}

// OptionsFromConfig maps configuration onto batch options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxItems: cfg.Harvest.MaxComments,
		TopK:     cfg.Harvest.TopK,
		Weights:  ranking.Weights{Reply: cfg.Harvest.ReplyWeight, Like: cfg.Harvest.LikeWeight},
		Retry: retry.Policy{
			MaxAttempts: cfg.Harvest.RetryAttempts,
			Backoff:     cfg.RetryBackoff(),
		},
		Layout:        cfg.Layout,
		FrameInterval: cfg.Media.FrameInterval,
	}
}

// Orchestrator runs batches of manifest entries.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New builds an orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "harvest"),
		now:    time.Now,
	}
}

// Run processes entries in order and returns the accumulated summary. Entry
// failures are contained; the returned error is non-nil only when ctx ends
// the batch early, in which case the partial summary is still returned.
func (o *Orchestrator) Run(ctx context.Context, entries []manifest.Entry) (Summary, error) {
	runID := strings.TrimSpace(o.opts.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := Summary{RunID: runID, StartedAt: o.now().UTC(), EntriesSkipped: o.opts.SkippedEntries}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	logger.Info("harvest run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("entries", len(entries)),
		logging.Int("entries_skipped", summary.EntriesSkipped),
	)
	if o.deps.Recorder != nil {
		if err := o.deps.Recorder.RunStarted(ctx, runID, summary.StartedAt); err != nil {
			o.warnRecorder(logger, "run start", err)
		}
	}

	var runErr error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outcome := o.processEntry(ctx, entry)
		summary.add(outcome)
		if o.deps.Recorder != nil {
			if err := o.deps.Recorder.EntryFinished(context.WithoutCancel(ctx), runID, outcome); err != nil {
				o.warnRecorder(logger, "entry outcome", err)
			}
		}
	}
	if runErr == nil {
		runErr = ctx.Err()
	}
	summary.Canceled = runErr != nil
	summary.FinishedAt = o.now().UTC()

	logger.Info("harvest run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", summary.Status()),
		logging.Int("attempted", summary.Attempted),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("records_harvested", summary.RecordsHarvested),
		logging.Int("records_kept", summary.RecordsKept),
		logging.Int("assets_cached", summary.AssetsCached),
		logging.Int("assets_failed", summary.AssetsFailed),
		logging.Int("frames_sampled", summary.FramesSampled),
		logging.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	if o.deps.Recorder != nil {
		if err := o.deps.Recorder.RunFinished(context.WithoutCancel(ctx), summary); err != nil {
			o.warnRecorder(logger, "run finish", err)
		}
	}
	return summary, runErr
}

func (o *Orchestrator) warnRecorder(logger *slog.Logger, what string, err error) {
	logging.WarnWithContext(logger, "failed to record run history", "ledger_write_failed",
		logging.String("record", what),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
		logging.String(logging.FieldImpact, "run history incomplete"),
	)
}

func (o *Orchestrator) stageLogger(ctx context.Context, state State) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, string(state))
	return ctx, logging.WithContext(ctx, o.logger)
}

func (o *Orchestrator) fail(ctx context.Context, outcome *Outcome, stage State, err error) {
	outcome.State = StateFailed
	outcome.FailedStage = stage
	outcome.Err = services.Wrap(services.ErrEntryFailure, strings.ToLower(string(stage)), outcome.Entry.Name(), "", err)
	_, logger := o.stageLogger(ctx, stage)
	if errors.Is(err, context.Canceled) {
		logger.Info("entry interrupted", logging.String(logging.FieldEventType, "entry_canceled"))
		return
	}
	logging.ErrorWithContext(logger, "entry failed", "entry_failed",
		logging.String("unit_id", outcome.Entry.UnitID),
		logging.String("manifest", outcome.Entry.Source),
		logging.ErrorKind(err),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrTransientFetch):
		return "remote service unavailable; rerun the batch later"
	case errors.Is(err, services.ErrConfiguration):
		return "check configuration and credentials"
	case errors.Is(err, services.ErrSchema):
		return "remote returned an unexpected payload shape"
	default:
		return "check logs for details"
	}
}
