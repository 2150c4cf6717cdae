package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// YouTube Innertube API: low-level constants, types, and HTTP primitives.
// Higher-level logic lives in youtube_transcript.go.

const (
	ytPlayerPath     = "/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// tracks returns the caption tracks, or a categorized error when there are none.
func (p innertubePlayerResp) tracks() ([]captionTrack, error) {
	if p.Captions != nil && len(p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) > 0 {
		return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
	}
	reason := ""
	if p.PlayabilityStatus != nil {
		reason = p.PlayabilityStatus.Reason
		if strings.Contains(reason, "not a bot") {
			return nil, fmt.Errorf("%w: %s", ErrSourceBlocked, reason)
		}
		if p.PlayabilityStatus.Status == "LOGIN_REQUIRED" {
			return nil, fmt.Errorf("%w: login required", ErrSourceUnavailable)
		}
	}
	if reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCaptions, reason)
	}
	return nil, ErrNoCaptions
}

// --- Timedtext XML types ---

// ytTimedText covers both the legacy <transcript><text> format and srv3 <timedtext><body><p>.
type ytTimedText struct {
	Lines      []ytLine `xml:"text"`
	Paragraphs []ytLine `xml:"body>p"`
}

type ytLine struct {
	Text string `xml:",chardata"`
	Segs []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

func (l ytLine) content() string {
	if len(l.Segs) == 0 {
		return l.Text
	}
	var sb strings.Builder
	for _, s := range l.Segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// postPlayerANDROID POSTs to the Innertube /player endpoint as the ANDROID client.
func postPlayerANDROID(ctx context.Context, baseURL, videoID string) ([]byte, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	if err := engine.WaitYouTube(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+ytPlayerPath+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ytAndroidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read player: %w", err)
	}
	if err := classifyResponse(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	return body, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
