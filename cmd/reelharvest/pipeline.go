package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reelharvest/internal/assetcache"
	"reelharvest/internal/config"
	"reelharvest/internal/export"
	"reelharvest/internal/frames"
	"reelharvest/internal/harvest"
	"reelharvest/internal/ledger"
	"reelharvest/internal/logging"
	"reelharvest/internal/manifest"
	"reelharvest/internal/notifications"
	"reelharvest/internal/preflight"
	"reelharvest/internal/remote"
	"reelharvest/internal/runlock"
	"reelharvest/internal/staging"
)

const staleStagingAge = 24 * time.Hour

// runRequest is one batch invocation, from the run command or a schedule firing.
type runRequest struct {
	Root            string
	ReferenceFile   string
	ReferenceColumn string
	Media           bool
	TopK            int
	MaxComments     int
	DryRun          bool
}

// runResult carries what the caller renders.
type runResult struct {
	Entries []manifest.Entry
	Dropped []manifest.Entry
	Skipped []manifest.Skipped
	Summary harvest.Summary
	Ran     bool
}

func requestFromConfig(cfg *config.Config, root string) runRequest {
	return runRequest{
		Root:            root,
		ReferenceFile:   cfg.Manifest.ReferenceFile,
		ReferenceColumn: cfg.Manifest.ReferenceColumn,
		Media:           cfg.Media.Enabled,
	}
}

// effectiveConfig applies per-run overrides to a copy of cfg.
func effectiveConfig(cfg *config.Config, req runRequest) *config.Config {
	copied := *cfg
	copied.Media.Enabled = req.Media
	if req.TopK > 0 {
		copied.Harvest.TopK = req.TopK
	}
	if req.MaxComments > 0 {
		copied.Harvest.MaxComments = req.MaxComments
	}
	return &copied
}

// loadEntries returns the entries to harvest, those excluded by the reference
// file, and the manifest items that could not be read.
func loadEntries(cfg *config.Config, req runRequest, logger *slog.Logger) (kept, dropped []manifest.Entry, skipped []manifest.Skipped, err error) {
	batch, err := manifest.Load(req.Root, manifest.Options{
		Patterns:    cfg.Manifest.Patterns,
		OutputRoot:  cfg.Paths.OutputRoot,
		FolderLimit: cfg.Layout.FolderLimit,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if strings.TrimSpace(req.ReferenceFile) == "" {
		return batch.Entries, nil, batch.Skipped, nil
	}
	ref, err := manifest.LoadReference(req.ReferenceFile, req.ReferenceColumn)
	if err != nil {
		return nil, nil, nil, err
	}
	kept, dropped = manifest.FilterByReference(batch.Entries, ref)
	logger.Info("reference filter applied",
		logging.String(logging.FieldEventType, "reference_filter"),
		logging.String("reference", req.ReferenceFile),
		logging.Int("kept", len(kept)),
		logging.Int("dropped", len(dropped)),
	)
	return kept, dropped, batch.Skipped, nil
}

// executeRun performs preflight, takes the tree lock, sweeps leftovers and
// drives the orchestrator.
func executeRun(ctx context.Context, base *config.Config, req runRequest, logger *slog.Logger) (result runResult, err error) {
	cfg := effectiveConfig(base, req)
	if !req.DryRun {
		defer func() { notifyRun(ctx, cfg, req, result, err, logger) }()
	}

	checks := preflight.RunAll(ctx, cfg, preflight.Options{Roots: []string{req.Root}})
	if err = preflight.FirstFailure(checks); err != nil {
		return result, err
	}

	entries, dropped, skipped, err := loadEntries(cfg, req, logger)
	if err != nil {
		return result, err
	}
	result.Entries, result.Dropped, result.Skipped = entries, dropped, skipped
	if req.DryRun {
		return result, nil
	}

	lockDir := cfg.Paths.OutputRoot
	if lockDir == "" {
		lockDir = req.Root
	}
	lock, err := runlock.Acquire(lockDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	staging.CleanStale(ctx, cfg.Paths.StagingDir, frames.StagingPrefix, staleStagingAge, logger)
	staging.CleanPartials(ctx, lockDir, logger)

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return result, fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	opts := harvest.OptionsFromConfig(cfg)
	opts.SkippedEntries = len(skipped)
	orch := harvest.New(buildDeps(cfg, logger, ledger.NewRecorder(store)), opts)
	summary, runErr := orch.Run(ctx, entries)
	result.Summary = summary
	result.Ran = true
	return result, runErr
}

// notifyRun publishes the outcome of a non-dry run. Notification failures
// are logged only.
func notifyRun(ctx context.Context, cfg *config.Config, req runRequest, result runResult, runErr error, logger *slog.Logger) {
	svc := notifications.NewService(cfg)
	ctx = context.WithoutCancel(ctx)
	var err error
	switch {
	case result.Ran:
		err = svc.NotifyRunCompleted(ctx, result.Summary)
	case runErr != nil:
		err = svc.NotifyRunFailed(ctx, runErr, req.Root)
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notify.ntfy_topic"),
			logging.String(logging.FieldImpact, "run summary not delivered"),
		)
	}
}

func buildDeps(cfg *config.Config, logger *slog.Logger, recorder harvest.Recorder) harvest.Deps {
	client := remote.NewClient(remote.Config{
		Token:             cfg.Apify.Token,
		BaseURL:           cfg.Apify.BaseURL,
		TimeoutSeconds:    cfg.Apify.TimeoutSeconds,
		RequestsPerMinute: cfg.Apify.RequestsPerMinute,
		Burst:             cfg.Apify.Burst,
	})
	assets := remote.HTTPAssets{Client: &http.Client{}}

	deps := harvest.Deps{
		Fetcher: remote.CommentsFetcher{
			Client:         client,
			Actor:          cfg.Apify.CommentsActor,
			IncludeReplies: cfg.Harvest.IncludeReplies,
		},
		Avatars:  assetcache.New(assets, assetcache.ImagePolicy(cfg.Cache.MaxImageBytes, cfg.CacheTimeout()), logger),
		Exporter: export.XLSX{},
		Recorder: recorder,
		Logger:   logger,
	}
	if !cfg.Media.Enabled {
		return deps
	}

	switch cfg.Media.Source {
	case "opengraph":
		deps.Media = remote.OpenGraph{Client: &http.Client{Timeout: cfg.ApifyTimeout()}}
	default:
		deps.Media = remote.ApifyMedia{Client: client, Actor: cfg.Apify.MediaActor}
	}
	deps.Covers = assetcache.New(assets, assetcache.ImagePolicy(cfg.Cache.MaxImageBytes, cfg.CacheTimeout()), logger)
	deps.Videos = assetcache.New(assets, assetcache.VideoPolicy(cfg.Cache.MaxVideoBytes, cfg.CacheTimeout()), logger)
	deps.Frames = frames.NewSampler(
		frames.FFprobe{Binary: cfg.FFprobeBinary()},
		frames.FFmpeg{Binary: cfg.FFmpegBinary()},
		cfg.Paths.StagingDir,
		logger,
	)
	return deps
}
