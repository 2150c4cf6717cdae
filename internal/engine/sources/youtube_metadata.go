package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"golang.org/x/net/html"
)

// VideoMetadata describes a video as reported by oEmbed.
type VideoMetadata struct {
	Title           string `json:"title"`
	AuthorName      string `json:"author_name,omitempty"`
	AuthorURL       string `json:"author_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	ThumbnailWidth  int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight int    `json:"thumbnail_height,omitempty"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
	VideoID         string `json:"video_id"`
}

const (
	defaultProviderName = "YouTube"
	defaultProviderURL  = "https://www.youtube.com/"
)

type oembedResp struct {
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
}

// FetchMetadata resolves title, author and thumbnail for ref via oEmbed,
// falling back to the watch page's Open Graph tags.
func (y *YouTube) FetchMetadata(ctx context.Context, ref string) (*VideoMetadata, error) {
	videoID, err := ExtractVideoID(ref)
	if err != nil {
		return nil, err
	}
	engine.IncrMetadataRequests()

	meta, err := y.fetchOEmbed(ctx, videoID)
	if err == nil {
		return meta, nil
	}
	if ctx.Err() != nil || errors.Is(err, ErrSourceBlocked) {
		engine.IncrMetadataErrors()
		return nil, err
	}
	slog.Warn("youtube: oembed failed, trying open graph",
		slog.String("id", videoID), slog.Any("error", err))

	meta, ogErr := y.fetchOpenGraph(ctx, videoID)
	if ogErr != nil {
		engine.IncrMetadataErrors()
		return nil, fmt.Errorf("metadata %s: %w", videoID, errors.Join(err, ogErr))
	}
	return meta, nil
}

func (y *YouTube) fetchOEmbed(ctx context.Context, videoID string) (*VideoMetadata, error) {
	endpoint := y.base() + "/oembed?url=" + url.QueryEscape(WatchURL(videoID)) + "&format=json"

	// Only 5xx and network errors are retried; a 429 is a block and ends the loop.
	resp, err := engine.RetryDo(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		if err := engine.WaitYouTube(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		req.Header.Set("Accept", "application/json")
		resp, err := engine.Cfg.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		resp.Body.Close()
		statusErr := classifyResponse(resp.StatusCode, nil)
		if errors.Is(statusErr, ErrTransient) {
			return nil, statusErr
		}
		return nil, engine.Permanent(statusErr)
	})
	if err != nil {
		return nil, fmt.Errorf("oembed: %w", err)
	}
	defer resp.Body.Close()

	var o oembedResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 256*1024)).Decode(&o); err != nil {
		return nil, fmt.Errorf("oembed decode: %w", err)
	}
	if o.Title == "" {
		return nil, errors.New("oembed: empty title")
	}

	meta := &VideoMetadata{
		Title:           o.Title,
		AuthorName:      o.AuthorName,
		AuthorURL:       o.AuthorURL,
		ThumbnailURL:    o.ThumbnailURL,
		ThumbnailWidth:  o.ThumbnailWidth,
		ThumbnailHeight: o.ThumbnailHeight,
		ProviderName:    o.ProviderName,
		ProviderURL:     o.ProviderURL,
		VideoID:         videoID,
	}
	meta.applyDefaults()
	return meta, nil
}

func (y *YouTube) fetchOpenGraph(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if err := engine.WaitYouTube(ctx); err != nil {
		return nil, err
	}
	body, status, err := engine.FetchPage(ctx, y.base()+"/watch?v="+videoID, nil, watchPageLimit)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if err := classifyResponse(status, body); err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	meta, err := parseOpenGraph(body)
	if err != nil {
		return nil, err
	}
	meta.VideoID = videoID
	meta.applyDefaults()
	return meta, nil
}

// parseOpenGraph reads og:* meta tags and the channel link from watch page HTML.
func parseOpenGraph(body []byte) (*VideoMetadata, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	meta := &VideoMetadata{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				applyMetaTag(meta, attr(n, "property"), attr(n, "name"), attr(n, "content"))
			case "link":
				if attr(n, "itemprop") == "name" && meta.AuthorName == "" {
					meta.AuthorName = attr(n, "content")
				}
				if attr(n, "itemprop") == "url" && strings.Contains(attr(n, "href"), "/@") && meta.AuthorURL == "" {
					meta.AuthorURL = attr(n, "href")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if meta.Title == "" {
		return nil, fmt.Errorf("%w: no og:title on watch page", ErrSourceUnavailable)
	}
	return meta, nil
}

func applyMetaTag(meta *VideoMetadata, property, name, content string) {
	key := property
	if key == "" {
		key = name
	}
	switch key {
	case "og:title":
		meta.Title = content
	case "og:image":
		meta.ThumbnailURL = content
	case "og:image:width":
		meta.ThumbnailWidth, _ = strconv.Atoi(content)
	case "og:image:height":
		meta.ThumbnailHeight, _ = strconv.Atoi(content)
	case "og:site_name":
		meta.ProviderName = content
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (m *VideoMetadata) applyDefaults() {
	if m.ProviderName == "" {
		m.ProviderName = defaultProviderName
	}
	if m.ProviderURL == "" {
		m.ProviderURL = defaultProviderURL
	}
}
