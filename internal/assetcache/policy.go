package assetcache

import (
	"strings"
	"time"
)

// Policy controls which media types a cache accepts and how they are stored.
type Policy struct {
	// Accept lists media type prefixes (for example "image/") or exact types.
	Accept []string
	// Extensions maps exact media types to file extensions including the dot.
	Extensions map[string]string
	// DefaultExt is used for accepted types missing from Extensions.
	DefaultExt string
	// MaxBytes caps a single download. Zero or negative disables the cap.
	MaxBytes int64
	// Timeout bounds the wait for a response and every stall while the body
	// streams. A transfer that keeps making progress is never cut off.
	Timeout time.Duration
}

// DefaultTimeout applies when a policy leaves Timeout unset.
const DefaultTimeout = 10 * time.Second

// ImagePolicy accepts any image/* type and falls back to .jpg.
func ImagePolicy(maxBytes int64, timeout time.Duration) Policy {
	return Policy{
		Accept: []string{"image/"},
		Extensions: map[string]string{
			"image/jpeg": ".jpg",
			"image/png":  ".png",
			"image/webp": ".webp",
			"image/gif":  ".gif",
		},
		DefaultExt: ".jpg",
		MaxBytes:   maxBytes,
		Timeout:    timeout,
	}
}

// VideoPolicy accepts video/* plus the generic octet stream some CDNs declare
// for mp4 downloads.
func VideoPolicy(maxBytes int64, timeout time.Duration) Policy {
	return Policy{
		Accept: []string{"video/", "application/octet-stream"},
		Extensions: map[string]string{
			"video/mp4":       ".mp4",
			"video/webm":      ".webm",
			"video/quicktime": ".mov",
		},
		DefaultExt: ".mp4",
		MaxBytes:   maxBytes,
		Timeout:    timeout,
	}
}

func (p Policy) accepts(mediaType string) bool {
	for _, accepted := range p.Accept {
		if strings.HasSuffix(accepted, "/") {
			if strings.HasPrefix(mediaType, accepted) {
				return true
			}
			continue
		}
		if mediaType == accepted {
			return true
		}
	}
	return false
}

func (p Policy) extension(mediaType string) string {
	if ext, ok := p.Extensions[mediaType]; ok {
		return ext
	}
	return p.DefaultExt
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}
