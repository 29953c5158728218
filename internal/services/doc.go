// Package services defines shared utilities consumed by the harvest pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp manifest entry IDs, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     schema, transient fetch, validation, or entry-level problems so the
//     retry policy and orchestrator can decide between retrying, skipping an
//     asset, and skipping an entry.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
