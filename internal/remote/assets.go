package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"reelharvest/internal/services"
)

const userAgent = "reelharvest/1.0"

// HTTPAssets streams binary assets over plain HTTP(S).
type HTTPAssets struct {
	Client *http.Client
}

// FetchAsset issues a GET for locator and returns the open body with its
// declared Content-Type. The caller closes the body. Timeouts come from ctx.
func (a HTTPAssets) FetchAsset(ctx context.Context, locator string) (io.ReadCloser, string, error) {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "remote", "asset", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransientFetch, "remote", "asset", "request", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", services.Wrap(services.ErrTransientFetch, "remote", "asset", fmt.Sprintf("http %s", resp.Status), nil)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
