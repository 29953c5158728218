package retry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reelharvest/internal/logging"
	"reelharvest/internal/services"
)

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := Default().Do(context.Background(), nil, "fetch", func(context.Context) error {
		calls++
		if calls < 3 {
			return services.ErrTransientFetch
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 2}.Do(context.Background(), nil, "fetch", func(context.Context) error {
		calls++
		return services.ErrTransientFetch
	})
	if !errors.Is(err, services.ErrTransientFetch) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDoDoesNotRetryValidation(t *testing.T) {
	calls := 0
	err := Default().Do(context.Background(), nil, "fetch", func(context.Context) error {
		calls++
		return services.Wrap(services.ErrValidation, "cache", "fetch", "unsupported media type", nil)
	})
	if !errors.Is(err, services.ErrValidation) || calls != 1 {
		t.Fatalf("expected single validation failure, calls=%d err=%v", calls, err)
	}
}

func TestDoStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Default().Do(ctx, nil, "fetch", func(context.Context) error {
		calls++
		cancel()
		return services.ErrTransientFetch
	})
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDoUsesBackoffAndLogsRetries(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	var waits []time.Duration
	policy := Policy{
		MaxAttempts: 3,
		Backoff:     250 * time.Millisecond,
		Sleeper: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}
	_ = policy.Do(context.Background(), logger, "avatar", func(context.Context) error {
		return services.ErrTransientFetch
	})
	if len(waits) != 2 || waits[0] != 250*time.Millisecond {
		t.Fatalf("unexpected waits %v", waits)
	}
	if got := strings.Count(buf.String(), `"event_type":"retry_attempt"`); got != 2 {
		t.Fatalf("expected 2 retry warnings, got %d in %s", got, buf.String())
	}
}
