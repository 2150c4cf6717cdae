package recipe

import "sync"

// Stats counts pipeline outcomes for one session. The owner creates it and
// passes it where results are produced; nothing here is process-global.
type Stats struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	demo      int
	byCuisine map[CuisineLabel]int
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Total     int                  `json:"total"`
	Completed int                  `json:"completed"`
	Failed    int                  `json:"failed"`
	Demo      int                  `json:"demo"`
	ByCuisine map[CuisineLabel]int `json:"by_cuisine"`
}

// NewStats returns empty session counters.
func NewStats() *Stats {
	return &Stats{byCuisine: make(map[CuisineLabel]int)}
}

// Record counts one finished result. Non-terminal results are ignored.
func (s *Stats) Record(r *RecipeResult) {
	if r == nil || !r.Status.Terminal() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if r.Demo {
		s.demo++
	}
	if r.Status == StatusFailed {
		s.failed++
		return
	}
	s.completed++
	if r.Cuisine != nil {
		s.byCuisine[r.Cuisine.Label]++
	}
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	by := make(map[CuisineLabel]int, len(s.byCuisine))
	for k, v := range s.byCuisine {
		by[k] = v
	}
	return StatsSnapshot{
		Total:     s.total,
		Completed: s.completed,
		Failed:    s.failed,
		Demo:      s.demo,
		ByCuisine: by,
	}
}

// SuccessRate is completed/total, or 0 before the first result.
func (s StatsSnapshot) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}
