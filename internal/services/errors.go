package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema marks a raw record that is not a mapping, or a manifest that
	// does not decode to a list.
	ErrSchema = errors.New("schema error")
	// ErrTransientFetch marks timeouts, network failures and non-2xx responses.
	ErrTransientFetch = errors.New("transient fetch error")
	// ErrValidation marks rejected input that retrying cannot fix.
	ErrValidation = errors.New("validation error")
	// ErrEntryFailure marks a failure contained at the manifest entry boundary.
	ErrEntryFailure = errors.New("entry failure")
	// ErrConfiguration marks unusable configuration or environment.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a failed ffmpeg or ffprobe invocation.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransientFetch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether a bounded retry may change the outcome.
// Validation and schema failures are permanent, as is cancellation of the
// caller's context.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSchema), errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// FailureKind returns a short classification label for logs and the run ledger.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTransientFetch):
		return "transient_fetch"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "entry"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
