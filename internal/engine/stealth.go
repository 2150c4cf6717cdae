package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// BrowserClient is a Chrome-fingerprinted HTTP client. YouTube serves a consent
// or bot-check page to plain Go TLS far more often than to a browser.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

// NewBrowserClient builds the stealth client, routing through a Webshare proxy
// pool when webshareKey is set. Returns nil on failure; callers fall back to plain HTTP.
func NewBrowserClient(webshareKey string) *BrowserClient {
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
		return nil
	}
	slog.Info("stealth browser client initialized")
	return bc
}

// WaitYouTube blocks until the youtube.com rate limiter admits one request.
func WaitYouTube(ctx context.Context) error {
	if youtubeLimiter == nil {
		return nil
	}
	return youtubeLimiter.Wait(ctx)
}

// FetchPage GETs pageURL and returns body and status. Uses the BrowserClient
// when configured, plain Cfg.HTTPClient otherwise. Non-200 statuses are not errors.
func FetchPage(ctx context.Context, pageURL string, headers map[string]string, limit int64) ([]byte, int, error) {
	if Cfg.BrowserClient != nil {
		h := ChromeHeaders()
		for k, v := range headers {
			h[k] = v
		}
		data, _, status, err := Cfg.BrowserClient.Do(http.MethodGet, pageURL, h, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("browser fetch: %w", err)
		}
		if int64(len(data)) > limit {
			data = data[:limit]
		}
		return data, status, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", UserAgentChrome)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}
