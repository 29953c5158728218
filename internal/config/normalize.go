package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeApify()
	c.normalizeHarvest()
	c.normalizeCache()
	c.normalizeMedia()
	if err := c.normalizeManifest(); err != nil {
		return err
	}
	c.normalizeLayout()
	c.normalizeLogging()
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)
	if c.Notify.RequestTimeoutSeconds <= 0 {
		c.Notify.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputRoot, err = expandPath(strings.TrimSpace(c.Paths.OutputRoot)); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeApify() {
	c.Apify.Token = strings.TrimSpace(c.Apify.Token)
	if c.Apify.Token == "" {
		if value, ok := os.LookupEnv("APIFY_TOKEN"); ok {
			c.Apify.Token = strings.TrimSpace(value)
		}
	}
	c.Apify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Apify.BaseURL), "/")
	if c.Apify.BaseURL == "" {
		c.Apify.BaseURL = defaultApifyBaseURL
	}
	c.Apify.CommentsActor = strings.TrimSpace(c.Apify.CommentsActor)
	if c.Apify.CommentsActor == "" {
		c.Apify.CommentsActor = defaultCommentsActor
	}
	c.Apify.MediaActor = strings.TrimSpace(c.Apify.MediaActor)
	if c.Apify.MediaActor == "" {
		c.Apify.MediaActor = defaultMediaActor
	}
	if c.Apify.TimeoutSeconds <= 0 {
		c.Apify.TimeoutSeconds = defaultApifyTimeoutSeconds
	}
	if c.Apify.Burst <= 0 {
		c.Apify.Burst = defaultApifyBurst
	}
}

func (c *Config) normalizeHarvest() {
	if c.Harvest.RetryAttempts <= 0 {
		c.Harvest.RetryAttempts = defaultRetryAttempts
	}
	if c.Harvest.RetryBackoffMS < 0 {
		c.Harvest.RetryBackoffMS = 0
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TimeoutSeconds <= 0 {
		c.Cache.TimeoutSeconds = defaultCacheTimeoutSeconds
	}
	if c.Cache.MaxImageBytes <= 0 {
		c.Cache.MaxImageBytes = defaultMaxImageBytes
	}
	if c.Cache.MaxVideoBytes <= 0 {
		c.Cache.MaxVideoBytes = defaultMaxVideoBytes
	}
}

func (c *Config) normalizeMedia() {
	c.Media.Source = strings.ToLower(strings.TrimSpace(c.Media.Source))
	if c.Media.Source == "" {
		c.Media.Source = defaultMediaSource
	}
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
}

func (c *Config) normalizeManifest() error {
	patterns := make([]string, 0, len(c.Manifest.Patterns))
	seen := make(map[string]struct{}, len(c.Manifest.Patterns))
	for _, pattern := range c.Manifest.Patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, ok := seen[pattern]; ok {
			continue
		}
		seen[pattern] = struct{}{}
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		patterns = append(patterns, defaultManifestPatterns...)
	}
	c.Manifest.Patterns = patterns

	if strings.TrimSpace(c.Manifest.ReferenceFile) != "" {
		var err error
		if c.Manifest.ReferenceFile, err = expandPath(strings.TrimSpace(c.Manifest.ReferenceFile)); err != nil {
			return fmt.Errorf("manifest.reference_file: %w", err)
		}
	}
	c.Manifest.ReferenceColumn = strings.TrimSpace(c.Manifest.ReferenceColumn)
	if c.Manifest.ReferenceColumn == "" {
		c.Manifest.ReferenceColumn = defaultReferenceColumn
	}
	return nil
}

func (c *Config) normalizeLayout() {
	defaults := Default().Layout
	fill := func(value *string, fallback string) {
		*value = strings.Trim(strings.TrimSpace(*value), "/")
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Layout.CommentsDir, defaults.CommentsDir)
	fill(&c.Layout.AvatarDir, defaults.AvatarDir)
	fill(&c.Layout.FilteredDir, defaults.FilteredDir)
	fill(&c.Layout.VideoDir, defaults.VideoDir)
	fill(&c.Layout.CoverDir, defaults.CoverDir)
	fill(&c.Layout.FramesDir, defaults.FramesDir)
	fill(&c.Layout.FinalDir, defaults.FinalDir)
	if c.Layout.FolderLimit <= 0 {
		c.Layout.FolderLimit = defaultFolderLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
