package remote

import (
	"context"
	"strings"

	"reelharvest/internal/normalize"
	"reelharvest/internal/services"
)

// DefaultMediaActor is the Apify actor that resolves video and cover downloads.
const DefaultMediaActor = "S5h7zRLfKFEr8pdj7"

// ApifyMedia resolves downloadable media for a post through the media actor.
type ApifyMedia struct {
	Client *Client
	Actor  string
}

type mediaInput struct {
	PostURLs                      []string `json:"postURLs"`
	ShouldDownloadVideos          bool     `json:"shouldDownloadVideos"`
	ShouldDownloadCovers          bool     `json:"shouldDownloadCovers"`
	ShouldDownloadSubtitles       bool     `json:"shouldDownloadSubtitles"`
	ShouldDownloadSlideshowImages bool     `json:"shouldDownloadSlideshowImages"`
}

// ResolveMedia returns the video and cover locators from the first dataset
// item that carries any.
func (m ApifyMedia) ResolveMedia(ctx context.Context, locator string) (normalize.Media, error) {
	actor := strings.TrimSpace(m.Actor)
	if actor == "" {
		actor = DefaultMediaActor
	}
	items, err := m.Client.RunActor(ctx, actor, mediaInput{
		PostURLs:             []string{locator},
		ShouldDownloadVideos: true,
		ShouldDownloadCovers: true,
	})
	if err != nil {
		return normalize.Media{}, err
	}
	for _, item := range items {
		if media, ok := normalize.ResolveMedia(item); ok {
			return media, nil
		}
	}
	return normalize.Media{}, services.Wrap(services.ErrValidation, "remote", "media", "no media locators in dataset", nil)
}
