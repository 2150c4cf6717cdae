package recipe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	assert.Zero(t, s.Snapshot().SuccessRate())

	demo := newResult("demo")
	demoResult(demo)
	s.Record(demo)

	failed := newResult("bad")
	failed.fail(errors.New("x"))
	s.Record(failed)

	s.Record(newResult("pending")) // ignored
	s.Record(nil)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 1, snap.Demo)
	assert.Equal(t, map[CuisineLabel]int{CuisineKorean: 1}, snap.ByCuisine)
	assert.InDelta(t, 0.5, snap.SuccessRate(), 1e-9)
}

func TestStatsSnapshotIsCopy(t *testing.T) {
	s := NewStats()
	r := newResult("demo")
	demoResult(r)
	s.Record(r)

	snap := s.Snapshot()
	snap.ByCuisine[CuisineKorean] = 99
	assert.Equal(t, 1, s.Snapshot().ByCuisine[CuisineKorean])
}

func TestStatsConcurrent(t *testing.T) {
	s := NewStats()
	p := NewPipeline(echoLLM{}, &fakeTranscripts{}, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := p.Run(context.Background(), "demo")
			s.Record(r)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Snapshot().Completed)
}
