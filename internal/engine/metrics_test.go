package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatMetricsListsEveryKey(t *testing.T) {
	IncrPipelineRuns()
	IncrClassificationDegraded()

	out := FormatMetrics()
	for _, k := range metricKeys {
		if !strings.Contains(out, k+" ") {
			t.Errorf("metric %q missing from output", k)
		}
	}
	if m := GetMetrics(); m["pipeline_runs"] < 1 {
		t.Errorf("pipeline_runs = %d, want >= 1", m["pipeline_runs"])
	}
}

func TestTrackOperationPassesError(t *testing.T) {
	want := errors.New("boom")
	err := TrackOperation(context.Background(), "test", time.Hour, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("TrackOperation() = %v, want %v", err, want)
	}
}
