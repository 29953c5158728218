package remote

import (
	"context"
	"strings"
)

// DefaultCommentsActor is the Apify actor that scrapes video comments.
const DefaultCommentsActor = "XomSRf7d0qf3mVj1y"

// Query asks for up to MaxItems raw records about the post at Locator.
type Query struct {
	Locator  string
	MaxItems int
}

// Fetcher returns the raw records for a query in arrival order. Any error
// means no usable records were obtained.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]any, error)
}

// CommentsFetcher returns raw comment records for a post.
type CommentsFetcher struct {
	Client         *Client
	Actor          string
	IncludeReplies bool
}

type commentsInput struct {
	StartURLs      []string `json:"startUrls"`
	IncludeReplies bool     `json:"includeReplies"`
	MaxItems       int      `json:"maxItems,omitempty"`
}

// Fetch runs the comments actor for q.
func (f CommentsFetcher) Fetch(ctx context.Context, q Query) ([]any, error) {
	actor := strings.TrimSpace(f.Actor)
	if actor == "" {
		actor = DefaultCommentsActor
	}
	return f.Client.RunActor(ctx, actor, commentsInput{
		StartURLs:      []string{q.Locator},
		IncludeReplies: f.IncludeReplies,
		MaxItems:       q.MaxItems,
	})
}
