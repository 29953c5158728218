// Package staging reclaims leftovers from interrupted runs: frame staging
// directories and partially downloaded assets.
package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelharvest/internal/fileutil"
	"reelharvest/internal/logging"
)

// Result lists what a sweep removed and what it could not.
type Result struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes directories in stagingDir whose name starts with prefix
// and whose modification time is older than maxAge.
func CleanStale(ctx context.Context, stagingDir, prefix string, maxAge time.Duration, logger *slog.Logger) Result {
	result := Result{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		dirPath := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.fail(logger, dirPath, err, "check staging_dir permissions")
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale staging directory",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}
	return result
}

// CleanPartials removes interrupted downloads (files ending in
// fileutil.PartialSuffix) anywhere under root.
func CleanPartials(ctx context.Context, root string, logger *slog.Logger) Result {
	result := Result{}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileutil.PartialSuffix) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			result.fail(logger, path, err, "check output tree permissions")
			return nil
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed partial download",
				logging.String("path", path),
				logging.String(logging.FieldEventType, "partial_cleanup"),
			)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
	}
	return result
}

func (r *Result) fail(logger *slog.Logger, path string, err error, hint string) {
	r.Errors = append(r.Errors, CleanupError{Path: path, Error: err})
	if logger == nil {
		return
	}
	logging.WarnWithContext(logger, "failed to remove leftover", "staging_cleanup_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "disk space not reclaimed"),
	)
}
