package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	MCPPort              string
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMTimeout           time.Duration
	StageTimeout         time.Duration
	TranscriptLanguage   string
	TranscriptRetries    int
	TranscriptRetryDelay time.Duration
	TrackProvenance      bool
	YouTubeRPS           float64
	FetchTimeout         time.Duration
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RedisURL             string
	DatabaseURL          string // postgres; empty = sqlite at RecipeDBPath
	RecipeDBPath         string
	FoodyAPIURL          string
	FoodyAPIToken        string
	WebshareAPIKey       string
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain HTTP for watch pages
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (recipe, sources).
// Always points to the current cfg value.
var Cfg = &cfg

// youtubeLimiter throttles requests to youtube.com; nil = unlimited.
var youtubeLimiter *rate.Limiter

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
	if c.YouTubeRPS > 0 {
		youtubeLimiter = rate.NewLimiter(rate.Limit(c.YouTubeRPS), 1)
	} else {
		youtubeLimiter = nil
	}
}

// LoadConfig reads the engine configuration from the environment.
func LoadConfig() Config {
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)
	return Config{
		MCPPort:              env.Str("MCP_PORT", "8893"),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:             env.Str("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 2048),
		LLMTimeout:           env.Duration("LLM_TIMEOUT", 60*time.Second),
		StageTimeout:         env.Duration("STAGE_TIMEOUT", 90*time.Second),
		TranscriptLanguage:   env.Str("TRANSCRIPT_LANGUAGE", "ko"),
		TranscriptRetries:    env.Int("TRANSCRIPT_RETRIES", 2),
		TranscriptRetryDelay: env.Duration("TRANSCRIPT_RETRY_DELAY", 2*time.Second),
		TrackProvenance:      env.Str("TRACK_PROVENANCE", "") == "true",
		YouTubeRPS:           env.Float("YOUTUBE_RPS", 1),
		FetchTimeout:         fetchTimeout,
		CacheTTL:             env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		RedisURL:             env.Str("REDIS_URL", ""),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		RecipeDBPath:         env.Str("RECIPE_DB_PATH", ""),
		FoodyAPIURL:          env.Str("FOODY_API_URL", ""),
		FoodyAPIToken:        env.Str("FOODY_API_TOKEN", ""),
		WebshareAPIKey:       env.Str("WEBSHARE_API_KEY", ""),
		HTTPClient: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}
