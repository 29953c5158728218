// Package remote talks to the outside world on behalf of the harvest pipeline.
//
// Client runs Apify actors synchronously through the run-sync-get-dataset-items
// endpoint behind a token-bucket rate limiter. CommentsFetcher and
// ApifyMedia wrap the comments and media actors. HTTPAssets streams binary
// assets for the asset cache, and OpenGraph resolves media from a page's
// og:video and og:image tags when no actor is wanted.
//
// Every network failure, timeout and non-2xx response is marked with
// services.ErrTransientFetch so callers can retry it.
package remote
