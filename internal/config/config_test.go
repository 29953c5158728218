package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelharvest/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "env-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "reelharvest", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputRoot != "" {
		t.Fatalf("expected empty output root by default, got %q", cfg.Paths.OutputRoot)
	}
	if cfg.Apify.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Apify.Token)
	}
	if cfg.Apify.CommentsActor != "XomSRf7d0qf3mVj1y" {
		t.Fatalf("unexpected comments actor: %q", cfg.Apify.CommentsActor)
	}
	if cfg.Harvest.TopK != 6 || cfg.Harvest.MaxComments != 20 {
		t.Fatalf("unexpected harvest defaults: %+v", cfg.Harvest)
	}
	if cfg.Harvest.ReplyWeight != 2.0 || cfg.Harvest.LikeWeight != 1.0 {
		t.Fatalf("unexpected weights: reply=%v like=%v", cfg.Harvest.ReplyWeight, cfg.Harvest.LikeWeight)
	}
	if cfg.Harvest.RetryAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Harvest.RetryAttempts)
	}
	if cfg.CacheTimeout().Seconds() != 10 {
		t.Fatalf("expected 10s cache timeout, got %v", cfg.CacheTimeout())
	}
	if cfg.Media.Enabled {
		t.Fatal("expected media harvesting disabled by default")
	}
	if cfg.Media.FrameInterval != 3 {
		t.Fatalf("expected frame interval 3, got %d", cfg.Media.FrameInterval)
	}
	if len(cfg.Manifest.Patterns) != 2 {
		t.Fatalf("unexpected manifest patterns: %v", cfg.Manifest.Patterns)
	}
	if cfg.LedgerPath() != filepath.Join(tempHome, ".local", "share", "reelharvest", "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.StagingDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.OutputRoot); !os.IsNotExist(err) {
		t.Fatalf("expected output root to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelharvest.toml")

	type payload struct {
		Apify struct {
			Token   string `toml:"token"`
			BaseURL string `toml:"base_url"`
		} `toml:"apify"`
		Harvest struct {
			TopK        int     `toml:"top_k"`
			ReplyWeight float64 `toml:"reply_weight"`
		} `toml:"harvest"`
		Manifest struct {
			Patterns []string `toml:"patterns"`
		} `toml:"manifest"`
		Layout struct {
			AvatarDir string `toml:"avatar_dir"`
		} `toml:"layout"`
	}
	custom := payload{}
	custom.Apify.Token = "file-token"
	custom.Apify.BaseURL = "https://example.com/apify/"
	custom.Harvest.TopK = 10
	custom.Harvest.ReplyWeight = 3.5
	custom.Manifest.Patterns = []string{" *.yaml ", "*.yaml", ""}
	custom.Layout.AvatarDir = "/avatars/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Apify.Token != "file-token" {
		t.Fatalf("expected token from file, got %q", cfg.Apify.Token)
	}
	if cfg.Apify.BaseURL != "https://example.com/apify" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Apify.BaseURL)
	}
	if cfg.Harvest.TopK != 10 || cfg.Harvest.ReplyWeight != 3.5 {
		t.Fatalf("expected harvest overrides, got %+v", cfg.Harvest)
	}
	if cfg.Harvest.LikeWeight != 1.0 {
		t.Fatalf("expected like weight default to survive, got %v", cfg.Harvest.LikeWeight)
	}
	if len(cfg.Manifest.Patterns) != 1 || cfg.Manifest.Patterns[0] != "*.yaml" {
		t.Fatalf("expected deduplicated patterns, got %v", cfg.Manifest.Patterns)
	}
	if cfg.Layout.AvatarDir != "avatars" {
		t.Fatalf("expected avatar dir trimmed, got %q", cfg.Layout.AvatarDir)
	}
	if cfg.Layout.CommentsDir != "comments" {
		t.Fatalf("expected comments dir default, got %q", cfg.Layout.CommentsDir)
	}
}

func TestRequireApifyToken(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireApifyToken(); err == nil || !strings.Contains(err.Error(), "APIFY_TOKEN") {
		t.Fatalf("expected token error mentioning APIFY_TOKEN, got %v", err)
	}
	cfg.Apify.Token = "abc"
	if err := cfg.RequireApifyToken(); err != nil {
		t.Fatalf("unexpected error with token set: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "APIFY_TOKEN") {
		t.Fatalf("sample config missing token guidance: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Harvest.TopK != config.Default().Harvest.TopK {
		t.Fatalf("sample top_k drifted from defaults: %d", cfg.Harvest.TopK)
	}
	if cfg.Apify.MediaActor != config.Default().Apify.MediaActor {
		t.Fatalf("sample media actor drifted from defaults: %q", cfg.Apify.MediaActor)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Harvest.TopK = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive top_k")
	}

	cfg = config.Default()
	cfg.Harvest.ReplyWeight = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative reply weight")
	}

	cfg = config.Default()
	cfg.Media.Source = "scraper"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown media source")
	}

	cfg = config.Default()
	cfg.Media.FrameInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero frame interval")
	}

	cfg = config.Default()
	cfg.Apify.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative base url")
	}

	cfg = config.Default()
	cfg.Schedule.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
