package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch page ytInitialPlayerResponse → captionTracks
// Fallback: ANDROID Innertube /player → captionTracks
// Either way the chosen track's timedtext XML is fetched and flattened to plain text.

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

const watchPageLimit = 6 * 1024 * 1024

// FetchTranscript returns the caption text of videoID. The track language is picked
// in order: preferredLang, ko, en, first available. One attempt only; callers retry.
func (y *YouTube) FetchTranscript(ctx context.Context, videoID, preferredLang string) (string, error) {
	engine.IncrTranscriptRequests()

	tracks, err := y.captionTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrSourceBlocked) {
			engine.IncrTranscriptBlocked()
		}
		return "", err
	}

	track, ok := pickBestTrack(tracks, preferredLang)
	if !ok {
		return "", fmt.Errorf("%w: every caption track requires a PoToken", ErrSourceBlocked)
	}
	slog.Debug("youtube: caption track chosen",
		slog.String("id", videoID), slog.String("lang", track.LanguageCode), slog.String("kind", track.Kind))

	text, err := fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		if errors.Is(err, ErrSourceBlocked) {
			engine.IncrTranscriptBlocked()
		}
		return "", err
	}
	return text, nil
}

// ListLanguages returns the language codes of the caption tracks, in YouTube's order.
// A video without captions yields an empty list, not an error.
func (y *YouTube) ListLanguages(ctx context.Context, videoID string) ([]string, error) {
	tracks, err := y.captionTracks(ctx, videoID)
	if errors.Is(err, ErrNoCaptions) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tracks))
	langs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.LanguageCode == "" || seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		langs = append(langs, t.LanguageCode)
	}
	return langs, nil
}

// captionTracks scrapes the watch page and falls back to the ANDROID player.
// A block on either path is returned immediately.
func (y *YouTube) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	tracks, err := y.tracksFromWatchPage(ctx, videoID)
	if err == nil {
		return tracks, nil
	}
	if errors.Is(err, ErrSourceBlocked) || ctx.Err() != nil {
		return nil, err
	}
	slog.Warn("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("error", err))

	body, perr := postPlayerANDROID(ctx, y.base(), videoID)
	if perr != nil {
		// The page verdict is more specific when the player call itself failed.
		if errors.Is(err, ErrNoCaptions) {
			return nil, err
		}
		return nil, perr
	}
	var playerResp innertubePlayerResp
	if err := json.Unmarshal(body, &playerResp); err != nil {
		return nil, fmt.Errorf("%w: decode player: %v", ErrTransient, err)
	}
	return playerResp.tracks()
}

func (y *YouTube) tracksFromWatchPage(ctx context.Context, videoID string) ([]captionTrack, error) {
	if err := engine.WaitYouTube(ctx); err != nil {
		return nil, err
	}
	body, status, err := engine.FetchPage(ctx, y.base()+"/watch?v="+videoID,
		map[string]string{"accept-language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"}, watchPageLimit)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if err := classifyResponse(status, body); err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, fmt.Errorf("%w: ytInitialPlayerResponse not found in watch page", ErrTransient)
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, fmt.Errorf("%w: failed to extract ytInitialPlayerResponse JSON", ErrTransient)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("%w: decode ytInitialPlayerResponse: %v", ErrTransient, err)
	}
	return playerResp.tracks()
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the caption track for the first language in the priority
// preferred → ko → en that has one, else the first usable track. Within a language
// a manual track beats an auto-generated one. Returns false if every track needs a PoToken.
func pickBestTrack(tracks []captionTrack, preferred string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range languagePriority(preferred) {
		var auto *captionTrack
		for i, t := range usable {
			if t.LanguageCode != lang {
				continue
			}
			if t.Kind != "asr" {
				return t, true
			}
			if auto == nil {
				auto = &usable[i]
			}
		}
		if auto != nil {
			return *auto, true
		}
	}
	return usable[0], true
}

func languagePriority(preferred string) []string {
	out := make([]string, 0, 3)
	for _, l := range []string{preferred, "ko", "en"} {
		if l == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if o == l {
				dup = true
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	return out
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	if err := engine.WaitYouTube(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", engine.RandomUserAgent())

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read timedtext: %w", err)
	}
	if err := classifyResponse(resp.StatusCode, body); err != nil {
		return "", fmt.Errorf("timedtext: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("%w: empty timedtext response", ErrTransient)
	}

	text, err := parseTimedText(body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: caption track is empty", ErrNoCaptions)
	}
	return text, nil
}

// parseTimedText flattens timedtext XML to space-joined plain text.
func parseTimedText(body []byte) (string, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("%w: parse timedtext XML: %v", ErrTransient, err)
	}

	lines := tt.Lines
	if len(lines) == 0 {
		lines = tt.Paragraphs
	}
	var sb strings.Builder
	for _, line := range lines {
		text := engine.CleanHTML(line.content())
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}
