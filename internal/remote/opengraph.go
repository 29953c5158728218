package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reelharvest/internal/normalize"
	"reelharvest/internal/services"
)

// OpenGraph resolves media from a post page's OpenGraph meta tags.
type OpenGraph struct {
	Client *http.Client
}

var (
	videoProperties = []string{"og:video:secure_url", "og:video:url", "og:video"}
	imageProperties = []string{"og:image:secure_url", "og:image:url", "og:image"}
)

// ResolveMedia fetches the page at locator and reads og:video and og:image.
// Relative values resolve against the page URL.
func (o OpenGraph) ResolveMedia(ctx context.Context, locator string) (normalize.Media, error) {
	doc, err := o.fetchDocument(ctx, locator)
	if err != nil {
		return normalize.Media{}, err
	}
	base, _ := url.Parse(locator)
	media := normalize.Media{
		VideoLocator: firstMeta(doc, base, videoProperties),
		CoverLocator: firstMeta(doc, base, imageProperties),
	}
	if media.VideoLocator == "" && media.CoverLocator == "" {
		return normalize.Media{}, services.Wrap(services.ErrValidation, "remote", "opengraph", "no og:video or og:image tags", nil)
	}
	return media, nil
}

func (o OpenGraph) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "remote", "opengraph", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "opengraph", "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "opengraph", fmt.Sprintf("page returned %s", resp.Status), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "opengraph", "parse document", err)
	}
	return doc, nil
}

func firstMeta(doc *goquery.Document, base *url.URL, properties []string) string {
	for _, property := range properties {
		selector := fmt.Sprintf("meta[property='%s'], meta[name='%s']", property, property)
		value, ok := doc.Find(selector).First().Attr("content")
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if base == nil {
			return value
		}
		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}
