package engine

import (
	"sync"
	"time"

	"github.com/fundquant/fund-backtest/internal/types"
)

// statsTracker accumulates run counters for an engine instance. Safe for
// concurrent use.
type statsTracker struct {
	mu        sync.Mutex
	total     int
	succeeded int
	failed    int
	totalTime time.Duration
	lastRun   time.Time
	started   time.Time
}

func newStatsTracker() *statsTracker {
	return &statsTracker{started: time.Now()}
}

func (s *statsTracker) RecordSuccess(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.succeeded++
	s.totalTime += d
	s.lastRun = time.Now()
}

func (s *statsTracker) RecordFailure(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failed++
	s.totalTime += d
	s.lastRun = time.Now()
}

func (s *statsTracker) Snapshot() types.EngineStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := types.EngineStats{
		TotalRuns:      s.total,
		SuccessfulRuns: s.succeeded,
		FailedRuns:     s.failed,
		LastRunTime:    s.lastRun,
		StartTime:      s.started,
	}
	if s.total > 0 {
		stats.AverageDuration = s.totalTime / time.Duration(s.total)
	}

	return stats
}
