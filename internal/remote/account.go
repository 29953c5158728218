package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"reelharvest/internal/services"
)

// CheckToken verifies the token against the account endpoint without running
// an actor. Rejected tokens wrap services.ErrConfiguration.
func (c *Client) CheckToken(ctx context.Context) error {
	if c.cfg.Token == "" {
		return services.Wrap(services.ErrConfiguration, "remote", "apify", "token is empty (set APIFY_TOKEN)", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v2", "users", "me")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "remote", "apify", "build url", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?token="+url.QueryEscape(c.cfg.Token), nil)
	if err != nil {
		return fmt.Errorf("apify: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransientFetch, "remote", "apify account", "http error", redact(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "remote", "apify account", fmt.Sprintf("token rejected (%d)", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return services.Wrap(services.ErrTransientFetch, "remote", "apify account", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}
