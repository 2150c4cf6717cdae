package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	PipelineRuns           atomic.Int64
	PipelineFailures       atomic.Int64
	DemoRuns               atomic.Int64
	LLMCalls               atomic.Int64
	LLMErrors              atomic.Int64
	TranscriptRequests     atomic.Int64
	TranscriptBlocked      atomic.Int64
	MetadataRequests       atomic.Int64
	MetadataErrors         atomic.Int64
	ClassificationDegraded atomic.Int64
	PublishRequests        atomic.Int64
	PublishErrors          atomic.Int64
}

var metricKeys = []string{
	"pipeline_runs", "pipeline_failures", "demo_runs",
	"llm_calls", "llm_errors",
	"transcript_requests", "transcript_blocked",
	"metadata_requests", "metadata_errors",
	"classification_degraded",
	"publish_requests", "publish_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"pipeline_runs":           metrics.PipelineRuns.Load(),
		"pipeline_failures":       metrics.PipelineFailures.Load(),
		"demo_runs":               metrics.DemoRuns.Load(),
		"llm_calls":               metrics.LLMCalls.Load(),
		"llm_errors":              metrics.LLMErrors.Load(),
		"transcript_requests":     metrics.TranscriptRequests.Load(),
		"transcript_blocked":      metrics.TranscriptBlocked.Load(),
		"metadata_requests":       metrics.MetadataRequests.Load(),
		"metadata_errors":         metrics.MetadataErrors.Load(),
		"classification_degraded": metrics.ClassificationDegraded.Load(),
		"publish_requests":        metrics.PublishRequests.Load(),
		"publish_errors":          metrics.PublishErrors.Load(),
		"cache_hits":              hits,
		"cache_misses":            misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the recipe and sources sub-packages.
func IncrPipelineRuns()           { metrics.PipelineRuns.Add(1) }
func IncrPipelineFailures()       { metrics.PipelineFailures.Add(1) }
func IncrDemoRuns()               { metrics.DemoRuns.Add(1) }
func IncrTranscriptRequests()     { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptBlocked()      { metrics.TranscriptBlocked.Add(1) }
func IncrMetadataRequests()       { metrics.MetadataRequests.Add(1) }
func IncrMetadataErrors()         { metrics.MetadataErrors.Add(1) }
func IncrClassificationDegraded() { metrics.ClassificationDegraded.Add(1) }
func IncrPublishRequests()        { metrics.PublishRequests.Add(1) }
func IncrPublishErrors()          { metrics.PublishErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
