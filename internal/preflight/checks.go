package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelharvest/internal/config"
	"reelharvest/internal/deps"
	"reelharvest/internal/remote"
	"reelharvest/internal/services"
)

// CheckApify verifies that the dataset API is reachable and the token is
// accepted. It uses a 15-second timeout and a single attempt.
func CheckApify(ctx context.Context, cfg config.Apify) Result {
	const name = "Apify"
	if cfg.Token == "" {
		return Result{Name: name, Detail: "token missing (set APIFY_TOKEN)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := remote.NewClient(remote.Config{Token: cfg.Token, BaseURL: cfg.BaseURL, TimeoutSeconds: 15})
	if err := client.CheckToken(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "token accepted"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries needed by the enabled
// features. Only frame sampling shells out, so nothing is required when media
// harvesting is off.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil || !cfg.Media.Enabled {
		return nil
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for frame sampling",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	})
}

func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	if errors.Is(err, services.ErrConfiguration) {
		return "token rejected"
	}
	return err.Error()
}
