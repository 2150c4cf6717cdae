package sources

// YouTube implementation is split across four files by responsibility:
//   youtube.go            - reference parsing, failure categories, the YouTube adapter
//   youtube_innertube.go  - Innertube/timedtext wire types and low-level helpers
//   youtube_transcript.go - caption track discovery and transcript fetching
//   youtube_metadata.go   - oEmbed metadata with an Open Graph fallback

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

var (
	// ErrInvalidReference means no video ID could be extracted from the reference.
	ErrInvalidReference = errors.New("invalid video reference")
	// ErrNoCaptions means the video has no usable caption track.
	ErrNoCaptions = errors.New("no captions available")
	// ErrSourceUnavailable is the parent of every upstream failure that is not transient.
	ErrSourceUnavailable = errors.New("video source unavailable")
	// ErrSourceBlocked means YouTube refused to serve this host. Waiting does not help.
	ErrSourceBlocked = fmt.Errorf("%w: requests blocked by upstream", ErrSourceUnavailable)
	// ErrTransient marks failures worth retrying.
	ErrTransient = engine.ErrTransient
)

const defaultBaseURL = "https://www.youtube.com"

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/watch\?(?:[^#\s]*&)?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID returns the 11-character video ID from a watch, short or embed URL.
func ExtractVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(ref); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReference, engine.TruncateRunes(ref, 80, "..."))
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return defaultBaseURL + "/watch?v=" + videoID
}

// YouTube fetches transcripts and metadata from youtube.com.
// The zero value talks to the real site; BaseURL is overridden in tests.
type YouTube struct {
	BaseURL string
}

// NewYouTube returns a YouTube source pointed at youtube.com.
func NewYouTube() *YouTube {
	return &YouTube{BaseURL: defaultBaseURL}
}

func (y *YouTube) base() string {
	if y == nil || y.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(y.BaseURL, "/")
}

// blockMarkers appear on the interstitial pages YouTube serves to flagged hosts.
var blockMarkers = []string{
	"unusual traffic from your computer network",
	"blocking requests from your IP",
	"www.google.com/sorry/index",
}

// classifyResponse maps an HTTP outcome to a failure category; nil means usable.
func classifyResponse(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d", ErrSourceBlocked, status)
	case status >= 500:
		return fmt.Errorf("%w: http %d", ErrTransient, status)
	case status != http.StatusOK:
		return fmt.Errorf("%w: http %d", ErrSourceUnavailable, status)
	}
	if isBlockPage(body) {
		return ErrSourceBlocked
	}
	return nil
}

func isBlockPage(body []byte) bool {
	s := string(body)
	for _, m := range blockMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
