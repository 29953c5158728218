package assetcache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"reelharvest/internal/fileutil"
	"reelharvest/internal/logging"
	"reelharvest/internal/services"
	"reelharvest/internal/textutil"
)

const (
	keyLength    = 8
	labelLimit   = 20
	fallbackName = "asset"
)

// Fetcher streams a remote asset along with its declared content type.
type Fetcher interface {
	FetchAsset(ctx context.Context, locator string) (io.ReadCloser, string, error)
}

// Stats counts cache outcomes since construction.
type Stats struct {
	Hits    int
	Fetches int
}

// Cache stores assets fetched through a Fetcher under one Policy.
type Cache struct {
	fetcher Fetcher
	policy  Policy
	logger  *slog.Logger
	stats   Stats
}

// New builds a cache. A nil logger discards output.
func New(fetcher Fetcher, policy Policy, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{fetcher: fetcher, policy: policy, logger: logger}
}

// Stats reports hit and fetch counts.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Key returns the short digest used to name the asset for locator.
func Key(locator string) string {
	sum := md5.Sum([]byte(locator))
	return hex.EncodeToString(sum[:])[:keyLength]
}

// BaseName returns the <label>_<key> prefix shared by every stored variant of
// the (label, locator) pair.
func BaseName(label, locator string) string {
	safe := textutil.Label(label, labelLimit)
	if safe == "" {
		safe = fallbackName
	}
	return safe + "_" + Key(locator)
}

// FetchOrGet returns the local path of the asset at locator, downloading it
// into dir only when no file for (label, locator) exists yet.
//
// Malformed locators and rejected media types fail with services.ErrValidation.
// Network failures and non-2xx responses surface as the fetcher reports them,
// normally services.ErrTransientFetch.
func (c *Cache) FetchOrGet(ctx context.Context, locator, label, dir string) (string, error) {
	locator = strings.TrimSpace(locator)
	if err := validateLocator(locator); err != nil {
		return "", err
	}
	base := BaseName(label, locator)

	if existing, ok, err := lookup(dir, base); err != nil {
		return "", services.Wrap(services.ErrValidation, "cache", "lookup", dir, err)
	} else if ok {
		c.stats.Hits++
		c.logger.Debug("asset cache hit", logging.String("path", existing))
		return existing, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "cache", "mkdir", dir, err)
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchdog := newIdleWatchdog(c.policy.timeout(), cancel)
	defer watchdog.stop()

	c.stats.Fetches++
	body, contentType, err := c.fetcher.FetchAsset(fetchCtx, locator)
	if err != nil {
		if watchdog.expired() {
			return "", services.Wrap(services.ErrTransientFetch, "cache", "fetch", fmt.Sprintf("no response within %s", c.policy.timeout()), nil)
		}
		return "", fmt.Errorf("fetch asset: %w", err)
	}
	defer body.Close()
	watchdog.touch()

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "cache", "content type", fmt.Sprintf("unparseable %q", contentType), err)
	}
	mediaType = strings.ToLower(mediaType)
	if !c.policy.accepts(mediaType) {
		return "", services.Wrap(services.ErrValidation, "cache", "content type", fmt.Sprintf("unsupported media type %q", mediaType), nil)
	}

	target := filepath.Join(dir, base+c.policy.extension(mediaType))
	written, err := fileutil.WriteStream(target, watchdog.reader(body), c.policy.MaxBytes)
	if err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			return "", services.Wrap(services.ErrValidation, "cache", "write", "asset too large", err)
		}
		if watchdog.expired() {
			return "", services.Wrap(services.ErrTransientFetch, "cache", "download", fmt.Sprintf("stalled for %s", c.policy.timeout()), nil)
		}
		return "", services.Wrap(services.ErrTransientFetch, "cache", "download", locator, err)
	}
	c.logger.Info("asset cached",
		logging.String("path", target),
		logging.String("media_type", mediaType),
		logging.Int64("bytes", written),
	)
	return target, nil
}

func validateLocator(locator string) error {
	parsed, err := url.Parse(locator)
	if err != nil {
		return services.Wrap(services.ErrValidation, "cache", "locator", "malformed locator", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return services.Wrap(services.ErrValidation, "cache", "locator", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return services.Wrap(services.ErrValidation, "cache", "locator", "missing host", nil)
	}
	return nil
}

// lookup returns the first committed file in dir named base.<ext>. In-flight
// .part files are ignored. A missing directory is a miss.
func lookup(dir, base string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	prefix := base + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, fileutil.PartialSuffix) {
			continue
		}
		return filepath.Join(dir, name), true, nil
	}
	return "", false, nil
}
