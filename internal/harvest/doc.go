// Package harvest drives manifest entries through the fetch, normalize, rank,
// cache and export pipeline.
//
// Entries are processed one at a time in manifest order. Each moves through
//
//	PENDING -> FETCHING -> NORMALIZING -> RANKING -> CACHING_ASSETS
//	        -> EXPORTING -> [SAMPLING] -> COMMITTED
//
// or to FAILED from any state. A failed entry is logged with its unit ID,
// stage and error, added to Summary.Failures, and the batch moves on; only
// cancellation of the run context ends a batch early. Asset fetches and media
// sampling degrade to missing paths instead of failing the entry.
//
// The Summary returned by Orchestrator.Run is the source of truth for batch
// results. Logging and the optional Recorder observe it.
package harvest
