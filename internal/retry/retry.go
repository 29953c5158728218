package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelharvest/internal/logging"
	"reelharvest/internal/services"
)

const defaultAttempts = 3

// Policy bounds how many times an operation is attempted and how long to wait
// between attempts. The zero value means three attempts with no wait.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration

	// Sleeper overrides how waits are performed (useful for tests).
	Sleeper func(context.Context, time.Duration) error
}

// Default returns the stock policy.
func Default() Policy {
	return Policy{MaxAttempts: defaultAttempts}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultAttempts
	}
	return p.MaxAttempts
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleeper != nil {
		return p.Sleeper(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, fails permanently or runs out of attempts.
// The returned error wraps the last failure.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, op string, fn func(context.Context) error) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !services.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}
		logging.WarnWithContext(logger, "operation failed; retrying", "retry_attempt",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient failures are retried automatically"),
			logging.String(logging.FieldImpact, "operation delayed"),
		)
		if err := p.sleep(ctx, p.Backoff); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}
