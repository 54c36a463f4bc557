package mining

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks the mining counters. Workers only touch the atomic
// hash counter so the hot path stays contention free.
type Stats struct {
	start       time.Time
	hashes      atomic.Uint64
	blocksFound atomic.Uint64

	mu         sync.Mutex
	lastHashes uint64
	lastTime   time.Time
}

// Snapshot is a point-in-time view of the mining counters.
type Snapshot struct {
	HashRate    float64
	TotalHashes uint64
	BlocksFound uint64
	Uptime      time.Duration
}

// HashRate returns the hashes per second achieved since the previous
// call, which makes successive calls behave as a rolling window. Only
// the submission path consumes this window; snapshot derives its rate
// from the run totals so the two never truncate each other. The figure
// is advisory only.
func (s *Stats) HashRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	total := s.hashes.Load()

	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed <= 0 {
		return 0
	}

	rate := float64(total-s.lastHashes) / elapsed
	s.lastHashes = total
	s.lastTime = now

	return rate
}

// snapshot captures all the counters at once. The rate is computed
// over the whole run so reading it has no side effects.
func (s *Stats) snapshot() Snapshot {
	uptime := time.Since(s.start)

	var rate float64
	if secs := uptime.Seconds(); secs > 0 {
		rate = float64(s.hashes.Load()) / secs
	}

	return Snapshot{
		HashRate:    rate,
		TotalHashes: s.hashes.Load(),
		BlocksFound: s.blocksFound.Load(),
		Uptime:      uptime,
	}
}
