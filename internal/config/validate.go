package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateApify(); err != nil {
		return err
	}
	if err := c.validateHarvest(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return nil
}

// RequireApifyToken reports a descriptive error when no dataset token is
// available. It is separate from Validate so offline commands keep working.
func (c *Config) RequireApifyToken() error {
	if strings.TrimSpace(c.Apify.Token) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("apify.token is required. Set APIFY_TOKEN env var or edit %s (create with 'reelharvest config init')", defaultPath)
}

func (c *Config) validateApify() error {
	parsed, err := url.Parse(c.Apify.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("apify.base_url must be an absolute URL, got %q", c.Apify.BaseURL)
	}
	if c.Apify.RequestsPerMinute < 0 {
		return errors.New("apify.requests_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateHarvest() error {
	if err := ensurePositiveMap(map[string]int{
		"harvest.max_comments":   c.Harvest.MaxComments,
		"harvest.top_k":          c.Harvest.TopK,
		"harvest.retry_attempts": c.Harvest.RetryAttempts,
		"cache.timeout_seconds":  c.Cache.TimeoutSeconds,
		"layout.folder_limit":    c.Layout.FolderLimit,
	}); err != nil {
		return err
	}
	if c.Harvest.ReplyWeight < 0 {
		return errors.New("harvest.reply_weight must be >= 0")
	}
	if c.Harvest.LikeWeight < 0 {
		return errors.New("harvest.like_weight must be >= 0")
	}
	return nil
}

func (c *Config) validateMedia() error {
	switch c.Media.Source {
	case "apify", "opengraph":
	default:
		return fmt.Errorf("media.source must be \"apify\" or \"opengraph\", got %q", c.Media.Source)
	}
	if c.Media.FrameInterval <= 0 {
		return errors.New("media.frame_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.Timezone == "" {
		return nil
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
