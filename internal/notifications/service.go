package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelharvest/internal/config"
	"reelharvest/internal/harvest"
)

const userAgent = "reelharvest/1.0"

// Service is the notification surface used by the CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary harvest.Summary) error
	NotifyRunFailed(ctx context.Context, err error, root string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notify.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notify.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary harvest.Summary) error {
	elapsed := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d entries harvested in %s", summary.Succeeded, summary.Attempted, elapsed)
	fmt.Fprintf(&b, "\nRecords kept: %d of %d", summary.RecordsKept, summary.RecordsHarvested)
	if summary.EntriesSkipped > 0 {
		fmt.Fprintf(&b, "\nManifest items skipped: %d", summary.EntriesSkipped)
	}
	if summary.AssetsFailed > 0 {
		fmt.Fprintf(&b, "\nAssets failed: %d", summary.AssetsFailed)
	}
	for i, f := range summary.Failures {
		if i == 3 {
			fmt.Fprintf(&b, "\n...and %d more failures", len(summary.Failures)-i)
			break
		}
		fmt.Fprintf(&b, "\n%s failed at %s", f.UnitID, f.Stage)
	}

	data := payload{
		message: b.String(),
		tags:    []string{"reelharvest", "run", summary.Status()},
	}
	switch summary.Status() {
	case harvest.RunCompleted:
		data.title = "reelharvest - Run Complete"
	case harvest.RunCanceled:
		data.title = "reelharvest - Run Canceled"
	default:
		data.title = "reelharvest - Run Complete (with failures)"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, root string) error {
	var b strings.Builder
	b.WriteString("Run did not start")
	if root = strings.TrimSpace(root); root != "" {
		b.WriteString(" for ")
		b.WriteString(root)
	}
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "reelharvest - Error",
		message:  b.String(),
		tags:     []string{"reelharvest", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "reelharvest - Test",
		message:  "Notification system test",
		tags:     []string{"reelharvest", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, harvest.Summary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
