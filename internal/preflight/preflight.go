package preflight

import (
	"context"
	"fmt"

	"reelharvest/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the optional checks.
type Options struct {
	// Roots are manifest trees or output roots that must be writable.
	Roots []string
	// Remote enables the Apify token check, which makes a network call.
	Remote bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Media.Enabled {
		results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	}

	if cfg.Paths.OutputRoot != "" {
		results = append(results, CheckDirectoryAccess("Output root", cfg.Paths.OutputRoot))
	}
	for _, root := range opts.Roots {
		results = append(results, CheckDirectoryAccess("Manifest root", root))
	}

	for _, status := range CheckSystemDeps(cfg) {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: detail})
	}

	if opts.Remote {
		results = append(results, CheckApify(ctx, cfg.Apify))
	} else if cfg.Apify.Token == "" {
		results = append(results, Result{Name: "Apify", Detail: "token missing (set APIFY_TOKEN)"})
	}

	return results
}

// FirstFailure returns an error describing the first failed result, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("preflight %s: %s", r.Name, r.Detail)
		}
	}
	return nil
}
