package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_recipe/internal/engine"
)

const testVideoID = "dQw4w9WgXcQ"

const koTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="2">김치를 볶아주세요</text><text start="2" dur="2">두부를 넣어요</text></transcript>`

const enTimedText = `<transcript><text start="0" dur="2">fry the kimchi</text></transcript>`

// fakeYouTube serves the handful of youtube.com endpoints the source touches.
type fakeYouTube struct {
	srv         *httptest.Server
	watchStatus int
	watchBody   func(base string) string
	playerBody  func(base string) string
	oembed      int
	playerCalls atomic.Int32
	watchCalls  atomic.Int32
	oembedCalls atomic.Int32
}

func newFakeYouTube(t *testing.T) *fakeYouTube {
	t.Helper()
	engine.Init(engine.Config{})

	f := &fakeYouTube{watchStatus: http.StatusOK, oembed: http.StatusOK}
	f.watchBody = func(base string) string { return watchPage(playerJSON(base, "ko", "en")) }
	f.playerBody = func(base string) string { return `{"playabilityStatus":{"status":"OK"}}` }

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.watchCalls.Add(1)
		w.WriteHeader(f.watchStatus)
		fmt.Fprint(w, f.watchBody(f.srv.URL))
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		f.playerCalls.Add(1)
		fmt.Fprint(w, f.playerBody(f.srv.URL))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "ko" {
			fmt.Fprint(w, koTimedText)
			return
		}
		fmt.Fprint(w, enTimedText)
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		f.oembedCalls.Add(1)
		if f.oembed != http.StatusOK {
			w.WriteHeader(f.oembed)
			return
		}
		if r.URL.Query().Get("url") != WatchURL(testVideoID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"title":"김치찌개 황금레시피","author_name":"집밥","author_url":"https://www.youtube.com/@jipbap",`+
			`"thumbnail_url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg","thumbnail_width":480,"thumbnail_height":360}`)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeYouTube) source() *YouTube { return &YouTube{BaseURL: f.srv.URL} }

func playerJSON(base string, langs ...string) string {
	tracks := ""
	for i, l := range langs {
		if i > 0 {
			tracks += ","
		}
		tracks += fmt.Sprintf(`{"baseUrl":"%s/api/timedtext?v=%s&lang=%s","languageCode":"%s"}`, base, testVideoID, l, l)
	}
	return `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` + tracks + `]}}}`
}

func watchPage(player string) string {
	return `<html><head><meta property="og:title" content="김치찌개 황금레시피"></head><body><script>var ytInitialPlayerResponse = ` +
		player + `;var meta = {};</script></body></html>`
}

func TestFetchTranscriptWatchPage(t *testing.T) {
	f := newFakeYouTube(t)

	got, err := f.source().FetchTranscript(context.Background(), testVideoID, "ko")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "김치를 볶아주세요 두부를 넣어요" {
		t.Errorf("transcript = %q", got)
	}
	if n := f.playerCalls.Load(); n != 0 {
		t.Errorf("player called %d times, want 0", n)
	}
}

func TestFetchTranscriptPrefersRequestedLanguage(t *testing.T) {
	f := newFakeYouTube(t)

	got, err := f.source().FetchTranscript(context.Background(), testVideoID, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fry the kimchi" {
		t.Errorf("transcript = %q", got)
	}
}

func TestFetchTranscriptPlayerFallback(t *testing.T) {
	f := newFakeYouTube(t)
	f.watchBody = func(string) string { return "<html>consent wall</html>" }
	f.playerBody = func(base string) string { return playerJSON(base, "ko") }

	got, err := f.source().FetchTranscript(context.Background(), testVideoID, "ko")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "김치를 볶아주세요 두부를 넣어요" {
		t.Errorf("transcript = %q", got)
	}
	if n := f.playerCalls.Load(); n != 1 {
		t.Errorf("player called %d times, want 1", n)
	}
}

func TestFetchTranscriptBlocked(t *testing.T) {
	f := newFakeYouTube(t)
	f.watchStatus = http.StatusTooManyRequests
	f.watchBody = func(string) string { return "" }

	_, err := f.source().FetchTranscript(context.Background(), testVideoID, "ko")
	if !errors.Is(err, ErrSourceBlocked) {
		t.Fatalf("expected ErrSourceBlocked, got %v", err)
	}
	if n := f.playerCalls.Load(); n != 0 {
		t.Errorf("player called %d times after a block, want 0", n)
	}
}

func TestFetchTranscriptNoCaptions(t *testing.T) {
	f := newFakeYouTube(t)
	f.watchBody = func(string) string { return watchPage(`{"playabilityStatus":{"status":"OK"}}`) }

	_, err := f.source().FetchTranscript(context.Background(), testVideoID, "ko")
	if !errors.Is(err, ErrNoCaptions) {
		t.Fatalf("expected ErrNoCaptions, got %v", err)
	}
}

func TestFetchTranscriptBotCheck(t *testing.T) {
	f := newFakeYouTube(t)
	f.watchBody = func(string) string {
		return watchPage(`{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm you're not a bot"}}`)
	}

	_, err := f.source().FetchTranscript(context.Background(), testVideoID, "ko")
	if !errors.Is(err, ErrSourceBlocked) {
		t.Fatalf("expected ErrSourceBlocked, got %v", err)
	}
}

func TestListLanguages(t *testing.T) {
	f := newFakeYouTube(t)

	got, err := f.source().ListLanguages(context.Background(), testVideoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "ko" || got[1] != "en" {
		t.Errorf("languages = %v, want [ko en]", got)
	}

	f.watchBody = func(string) string { return watchPage(`{"playabilityStatus":{"status":"OK"}}`) }
	got, err = f.source().ListLanguages(context.Background(), testVideoID)
	if err != nil {
		t.Fatalf("unexpected error for captionless video: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("languages = %v, want empty", got)
	}
}

func TestFetchMetadataOEmbed(t *testing.T) {
	f := newFakeYouTube(t)

	meta, err := f.source().FetchMetadata(context.Background(), "https://youtu.be/"+testVideoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "김치찌개 황금레시피" || meta.AuthorName != "집밥" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.ThumbnailWidth != 480 || meta.VideoID != testVideoID {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.ProviderName != "YouTube" || meta.ProviderURL != "https://www.youtube.com/" {
		t.Errorf("provider defaults not applied: %+v", meta)
	}
}

func TestFetchMetadataOpenGraphFallback(t *testing.T) {
	f := newFakeYouTube(t)
	f.oembed = http.StatusNotFound

	meta, err := f.source().FetchMetadata(context.Background(), "https://www.youtube.com/watch?v="+testVideoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "김치찌개 황금레시피" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.VideoID != testVideoID {
		t.Errorf("video id = %q", meta.VideoID)
	}
}

func TestFetchMetadataBothFail(t *testing.T) {
	f := newFakeYouTube(t)
	f.oembed = http.StatusNotFound
	f.watchStatus = http.StatusNotFound
	f.watchBody = func(string) string { return "" }

	if _, err := f.source().FetchMetadata(context.Background(), "https://youtu.be/"+testVideoID); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchMetadataRateLimitedIsBlocked(t *testing.T) {
	f := newFakeYouTube(t)
	f.oembed = http.StatusTooManyRequests

	_, err := f.source().FetchMetadata(context.Background(), "https://youtu.be/"+testVideoID)
	if !errors.Is(err, ErrSourceBlocked) {
		t.Fatalf("expected ErrSourceBlocked, got %v", err)
	}
	if n := f.oembedCalls.Load(); n != 1 {
		t.Errorf("oembed calls = %d, want 1 (blocks are not retried)", n)
	}
	if n := f.watchCalls.Load(); n != 0 {
		t.Errorf("watch page calls = %d, want 0 after a block", n)
	}
}

func TestFetchMetadataRetriesServerErrors(t *testing.T) {
	f := newFakeYouTube(t)
	f.oembed = http.StatusServiceUnavailable
	f.watchStatus = http.StatusNotFound
	f.watchBody = func(string) string { return "" }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := f.source().FetchMetadata(ctx, "https://youtu.be/"+testVideoID); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if n := f.oembedCalls.Load(); n != int32(engine.DefaultRetryConfig.MaxRetries+1) {
		t.Errorf("oembed calls = %d, want %d", n, engine.DefaultRetryConfig.MaxRetries+1)
	}
}

func TestFetchMetadataInvalidReference(t *testing.T) {
	f := newFakeYouTube(t)
	if _, err := f.source().FetchMetadata(context.Background(), "https://example.com"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}
