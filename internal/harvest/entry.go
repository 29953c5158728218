package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelharvest/internal/export"
	"reelharvest/internal/layout"
	"reelharvest/internal/logging"
	"reelharvest/internal/manifest"
	"reelharvest/internal/normalize"
	"reelharvest/internal/ranking"
	"reelharvest/internal/remote"
	"reelharvest/internal/services"
)

type avatarKey struct {
	label   string
	locator string
}

func (o *Orchestrator) processEntry(ctx context.Context, entry manifest.Entry) Outcome {
	started := o.now()
	outcome := Outcome{Entry: entry, State: StatePending}
	ctx = services.WithEntryID(ctx, entry.Name())
	ctx, logger := o.stageLogger(ctx, StatePending)
	logger.Info("entry started",
		logging.String(logging.FieldEventType, "entry_start"),
		logging.String("unit_id", entry.UnitID),
		logging.String("locator", entry.Locator),
		logging.String("destination", entry.Destination),
	)
	defer func() { outcome.Duration = o.now().Sub(started) }()

	dirs, err := layout.Bootstrap(entry.Destination, o.opts.Layout)
	if err != nil {
		o.fail(ctx, &outcome, StatePending, err)
		return outcome
	}

	raw, err := o.fetch(ctx, entry)
	if err != nil {
		o.fail(ctx, &outcome, StateFetching, err)
		return outcome
	}

	records, err := o.normalizeAll(ctx, raw)
	if err != nil {
		o.fail(ctx, &outcome, StateNormalizing, err)
		return outcome
	}

	stageCtx, stageLog := o.stageLogger(ctx, StateRanking)
	result := ranking.Rank(records, o.opts.TopK, o.weights())
	stageLog.Debug("records ranked",
		logging.String(logging.FieldEventType, "records_ranked"),
		logging.Int("all", len(result.All)),
		logging.Int("ranked", len(result.Ranked)),
	)

	if err := o.cacheAvatars(stageCtx, dirs.Avatars, &result, &outcome); err != nil {
		o.fail(ctx, &outcome, StateCachingAssets, err)
		return outcome
	}

	if err := o.export(ctx, dirs.Comments, entry.Folder, result, &outcome); err != nil {
		o.fail(ctx, &outcome, StateExporting, err)
		return outcome
	}

	if o.deps.Media != nil {
		if err := o.sampleMedia(ctx, entry, dirs, &outcome); err != nil {
			o.fail(ctx, &outcome, StateSampling, err)
			return outcome
		}
	}

	outcome.State = StateCommitted
	outcome.Records = len(result.All)
	outcome.Kept = len(result.Ranked)
	_, logger = o.stageLogger(ctx, StateCommitted)
	logger.Info("entry committed",
		logging.String(logging.FieldEventType, "entry_complete"),
		logging.Int("records", outcome.Records),
		logging.Int("kept", outcome.Kept),
		logging.Int("assets_cached", outcome.AssetsCached),
		logging.Int("assets_failed", outcome.AssetsFailed),
		logging.Int("frames", outcome.Frames),
		logging.Duration("duration", o.now().Sub(started)),
	)
	return outcome
}

func (o *Orchestrator) weights() ranking.Weights {
	if o.opts.Weights == (ranking.Weights{}) {
		return ranking.DefaultWeights()
	}
	return o.opts.Weights
}

func (o *Orchestrator) fetch(ctx context.Context, entry manifest.Entry) ([]any, error) {
	ctx, logger := o.stageLogger(ctx, StateFetching)
	started := o.now()
	raw, err := o.deps.Fetcher.Fetch(ctx, remote.Query{Locator: entry.Locator, MaxItems: o.opts.MaxItems})
	if err != nil {
		return nil, err
	}
	logger.Info("records fetched",
		logging.String(logging.FieldEventType, "records_fetched"),
		logging.Int("raw_records", len(raw)),
		logging.Duration("duration", o.now().Sub(started)),
	)
	return raw, nil
}

// normalizeAll keeps arrival order. A record that is not an object means the
// remote payload broke its contract, so the whole entry fails.
func (o *Orchestrator) normalizeAll(ctx context.Context, raw []any) ([]normalize.Record, error) {
	_, logger := o.stageLogger(ctx, StateNormalizing)
	records := make([]normalize.Record, 0, len(raw))
	for i, item := range raw {
		record, err := normalize.Normalize(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, record)
	}
	logger.Debug("records normalized",
		logging.String(logging.FieldEventType, "records_normalized"),
		logging.Int("records", len(records)),
	)
	return records, nil
}

// cacheAvatars resolves each distinct (username, avatar) pair once and applies
// the local path to both record sets. Only cancellation is returned; every
// other failure leaves the path empty.
func (o *Orchestrator) cacheAvatars(ctx context.Context, dir string, result *ranking.Result, outcome *Outcome) error {
	ctx, logger := o.stageLogger(ctx, StateCachingAssets)
	resolved := make(map[avatarKey]string)
	for _, record := range result.All {
		locator := strings.TrimSpace(record.AvatarLocator())
		if locator == "" {
			continue
		}
		key := avatarKey{label: record.Username(), locator: locator}
		if _, seen := resolved[key]; seen {
			continue
		}
		path, err := o.fetchAsset(ctx, o.deps.Avatars, "avatar", key.locator, key.label, dir)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			outcome.AssetsFailed++
			logging.WarnWithContext(logger, "avatar not cached", "asset_failed",
				logging.String("username", key.label),
				logging.String("locator", key.locator),
				logging.ErrorKind(err),
				logging.Error(err),
				logging.String(logging.FieldImpact, "avatar path left empty"),
			)
		} else {
			outcome.AssetsCached++
		}
		resolved[key] = path
	}
	apply := func(records []normalize.Record) {
		for i := range records {
			key := avatarKey{label: records[i].Username(), locator: strings.TrimSpace(records[i].AvatarLocator())}
			records[i].AvatarPath = resolved[key]
		}
	}
	apply(result.All)
	apply(result.Ranked)
	return nil
}

func (o *Orchestrator) fetchAsset(ctx context.Context, cache AssetCache, kind, locator, label, dir string) (string, error) {
	var path string
	err := o.opts.Retry.Do(ctx, logging.WithContext(ctx, o.logger), "fetch "+kind, func(ctx context.Context) error {
		var err error
		path, err = cache.FetchOrGet(ctx, locator, label, dir)
		return err
	})
	return path, err
}

func (o *Orchestrator) export(ctx context.Context, dir, folder string, result ranking.Result, outcome *Outcome) error {
	_, logger := o.stageLogger(ctx, StateExporting)
	rankedPath, allPath := export.Paths(dir, folder)
	if err := o.deps.Exporter.Write(result.Ranked, rankedPath); err != nil {
		return fmt.Errorf("write ranked export: %w", err)
	}
	if err := o.deps.Exporter.Write(result.All, allPath); err != nil {
		return fmt.Errorf("write full export: %w", err)
	}
	outcome.RankedPath = rankedPath
	outcome.AllPath = allPath
	logger.Info("exports written",
		logging.String(logging.FieldEventType, "exports_written"),
		logging.String("ranked_path", rankedPath),
		logging.String("all_path", allPath),
	)
	return nil
}

// sampleMedia caches the clip and cover and samples frames from the clip.
// Only cancellation is returned.
func (o *Orchestrator) sampleMedia(ctx context.Context, entry manifest.Entry, dirs layout.Dirs, outcome *Outcome) error {
	ctx, logger := o.stageLogger(ctx, StateSampling)
	soft := func(what string, asset bool, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if asset {
			outcome.AssetsFailed++
		}
		logging.WarnWithContext(logger, what+" skipped", "media_failed",
			logging.ErrorKind(err),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry committed without "+what),
		)
		return nil
	}

	media, err := o.deps.Media.ResolveMedia(ctx, entry.Locator)
	if err != nil {
		return soft("media", false, err)
	}
	label := entry.Folder

	if media.CoverLocator != "" && o.deps.Covers != nil {
		if _, err := o.fetchAsset(ctx, o.deps.Covers, "cover", media.CoverLocator, label, dirs.Cover); err != nil {
			if err := soft("cover", true, err); err != nil {
				return err
			}
		} else {
			outcome.AssetsCached++
		}
	}

	if media.VideoLocator == "" || o.deps.Videos == nil {
		return nil
	}
	video, err := o.fetchAsset(ctx, o.deps.Videos, "video", media.VideoLocator, label, dirs.Video)
	if err != nil {
		return soft("video", true, err)
	}
	outcome.AssetsCached++

	if o.deps.Frames == nil {
		return nil
	}
	frames, err := o.deps.Frames.Sample(ctx, video, dirs.Frames, o.opts.FrameInterval)
	outcome.Frames = len(frames)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WarnWithContext(logger, "frame sampling failed", "frames_failed",
			logging.ErrorKind(err),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry committed without frames"),
		)
		return nil
	}
	logger.Info("frames sampled",
		logging.String(logging.FieldEventType, "frames_sampled"),
		logging.Int("frames", len(frames)),
		logging.String("video", video),
		logging.Duration("interval", time.Duration(o.opts.FrameInterval)*time.Second),
	)
	return nil
}
