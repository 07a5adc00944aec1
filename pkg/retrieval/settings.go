package retrieval

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultLegacyBaseURL hosts handles issued before Bot API uploads.
	DefaultLegacyBaseURL = "https://telegra.ph"

	// DefaultBlockImageURL replaces blocked files embedded in other pages.
	DefaultBlockImageURL = "https://static-res.pages.dev/teleimage/img-block-compressed.png"

	blockPagePath     = "/block-img.html"
	whitelistPagePath = "/whitelist-on.html"
	adminPathPrefix   = "/admin"
)

// Settings are the retrieval switches and endpoints. Zero values fall back
// to the defaults above.
type Settings struct {
	// PublicURL is the externally visible origin, e.g. https://img.example.com.
	// When empty the origin is derived from each request.
	PublicURL string

	// WhitelistMode redirects every handle not explicitly whitelisted.
	WhitelistMode bool

	BlockImageURL string
	LegacyBaseURL string

	// ModerationTimeout bounds one moderation call.
	ModerationTimeout time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.BlockImageURL == "" {
		s.BlockImageURL = DefaultBlockImageURL
	}
	if s.LegacyBaseURL == "" {
		s.LegacyBaseURL = DefaultLegacyBaseURL
	}
	s.PublicURL = strings.TrimRight(s.PublicURL, "/")
	s.LegacyBaseURL = strings.TrimRight(s.LegacyBaseURL, "/")
	return s
}

// Origin returns scheme://host for r, honoring X-Forwarded-Proto and
// X-Forwarded-Host, unless publicURL is set.
func Origin(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
