// Package main hosts the reelharvest CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot batch runs over a manifest
// tree, cron-driven recurring runs, run history from the ledger, readiness
// checks and configuration scaffolding. It resolves configuration and logging
// once so subcommands only wire internal packages together.
package main
