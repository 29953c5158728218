package normalize

import "strings"

// Media holds the downloadable locators found on a post item.
type Media struct {
	VideoLocator string
	CoverLocator string
}

var (
	videoKeys = []string{"mediaUrls", "videoUrl", "videoUrls", "urls", "video"}
	coverKeys = []string{"cover", "coverUrl"}
)

// ResolveMedia extracts the video and cover locators from a raw post item.
// The video field appears under several names and shapes; the first key that
// yields a usable locator wins. It returns false when neither locator is found.
func ResolveMedia(raw any) (Media, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Media{}, false
	}
	var media Media
	for _, key := range videoKeys {
		if locator := videoFrom(fields[key]); locator != "" {
			media.VideoLocator = locator
			break
		}
	}
	for _, key := range coverKeys {
		if locator := coverFrom(fields[key]); locator != "" {
			media.CoverLocator = locator
			break
		}
	}
	return media, media.VideoLocator != "" || media.CoverLocator != ""
}

func videoFrom(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["video"].(string); ok {
			return strings.TrimSpace(s)
		}
	case []any:
		return pickVideo(v)
	}
	return ""
}

// pickVideo prefers an element that looks like a video file, then falls back
// to the first string element.
func pickVideo(values []any) string {
	first := ""
	for _, item := range values {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if first == "" {
			first = s
		}
		lower := strings.ToLower(s)
		if strings.HasSuffix(lower, ".mp4") || strings.Contains(lower, "video") {
			return s
		}
	}
	return first
}

func coverFrom(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
