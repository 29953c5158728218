// Package notifications publishes batch run summaries to ntfy.
//
// NewService returns a no-op when no topic is configured, so callers can
// notify unconditionally.
package notifications
