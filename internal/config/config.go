package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	StagingDir string `toml:"staging_dir"`
	OutputRoot string `toml:"output_root"`
}

// Apify contains credentials and actor identifiers for the dataset API.
type Apify struct {
	Token             string `toml:"token"`
	BaseURL           string `toml:"base_url"`
	CommentsActor     string `toml:"comments_actor"`
	MediaActor        string `toml:"media_actor"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Burst             int    `toml:"burst"`
}

// Harvest contains per-entry pipeline settings.
type Harvest struct {
	MaxComments    int     `toml:"max_comments"`
	TopK           int     `toml:"top_k"`
	ReplyWeight    float64 `toml:"reply_weight"`
	LikeWeight     float64 `toml:"like_weight"`
	RetryAttempts  int     `toml:"retry_attempts"`
	RetryBackoffMS int     `toml:"retry_backoff_ms"`
	IncludeReplies bool    `toml:"include_replies"`
}

// Cache contains limits for the asset cache.
type Cache struct {
	TimeoutSeconds int   `toml:"timeout_seconds"`
	MaxImageBytes  int64 `toml:"max_image_bytes"`
	MaxVideoBytes  int64 `toml:"max_video_bytes"`
}

// Media contains configuration for video, cover and frame harvesting.
type Media struct {
	Enabled       bool   `toml:"enabled"`
	Source        string `toml:"source"`
	FrameInterval int    `toml:"frame_interval"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Manifest contains discovery and reference filtering settings.
type Manifest struct {
	Patterns        []string `toml:"patterns"`
	ReferenceFile   string   `toml:"reference_file"`
	ReferenceColumn string   `toml:"reference_column"`
}

// Layout names the per-entry subdirectories.
type Layout struct {
	CommentsDir string `toml:"comments_dir"`
	AvatarDir   string `toml:"avatar_dir"`
	FilteredDir string `toml:"filtered_dir"`
	VideoDir    string `toml:"video_dir"`
	CoverDir    string `toml:"cover_dir"`
	FramesDir   string `toml:"frames_dir"`
	FinalDir    string `toml:"final_dir"`
	FolderLimit int    `toml:"folder_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Schedule contains configuration for recurring runs.
type Schedule struct {
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

// Notify contains ntfy settings for run notifications.
type Notify struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for reelharvest.
//
// Configuration sections by subsystem:
//   - Paths: state, logs, frame staging and the output tree
//   - Apify: dataset API credentials, actors and rate limits
//   - Harvest: comment limits, ranking weights and retries
//   - Cache: asset fetch timeout and size limits
//   - Media: optional video, cover and frame harvesting
//   - Manifest: discovery patterns and reference filtering
//   - Layout: per-entry folder skeleton
//   - Logging: log format and level
//   - Schedule: cron expression for recurring runs
//   - Notify: optional ntfy topic for run summaries
type Config struct {
	Paths    Paths    `toml:"paths"`
	Apify    Apify    `toml:"apify"`
	Harvest  Harvest  `toml:"harvest"`
	Cache    Cache    `toml:"cache"`
	Media    Media    `toml:"media"`
	Manifest Manifest `toml:"manifest"`
	Layout   Layout   `toml:"layout"`
	Logging  Logging  `toml:"logging"`
	Schedule Schedule `toml:"schedule"`
	Notify   Notify   `toml:"notify"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelharvest.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and staging directories. The output
// root is left alone; preflight reports on it instead so a missing mount is
// surfaced rather than silently recreated.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.StagingDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the run history database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// ApifyTimeout returns the dataset request timeout.
func (c *Config) ApifyTimeout() time.Duration {
	return time.Duration(c.Apify.TimeoutSeconds) * time.Second
}

// CacheTimeout returns the per-asset fetch timeout.
func (c *Config) CacheTimeout() time.Duration {
	return time.Duration(c.Cache.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the pause between retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Harvest.RetryBackoffMS) * time.Millisecond
}

// FFmpegBinary returns the ffmpeg executable used for frame extraction.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Media.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Media.FFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
