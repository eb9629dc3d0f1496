package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SweepInterval is how often Run removes stale windows.
const SweepInterval = time.Minute

type window struct {
	start time.Time
	count int
}

// Memory is an in-process fixed-window limiter. A window resets on the
// first check after it expires. The table holds at most Capacity
// identities; stale windows are swept periodically and, when full, the
// oldest window is evicted.
type Memory struct {
	limit    int
	window   time.Duration
	capacity int
	sweepAge time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemory creates an in-memory limiter.
func NewMemory(cfg Config) *Memory {
	cfg = cfg.withDefaults()
	return &Memory{
		limit:    cfg.Limit,
		window:   cfg.Window,
		capacity: cfg.Capacity,
		sweepAge: 5 * cfg.Window,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[identity]
	if !ok || now.Sub(w.start) > m.window {
		if !ok && len(m.windows) >= m.capacity {
			m.makeRoom(now)
		}
		m.windows[identity] = &window{start: now, count: 1}
		return true, nil
	}

	if w.count >= m.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// makeRoom drops expired windows, then the oldest one if still full.
// Caller holds mu.
func (m *Memory) makeRoom(now time.Time) {
	for id, w := range m.windows {
		if now.Sub(w.start) > m.window {
			delete(m.windows, id)
		}
	}
	if len(m.windows) < m.capacity {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, w := range m.windows {
		if oldestID == "" || w.start.Before(oldest) {
			oldestID, oldest = id, w.start
		}
	}
	delete(m.windows, oldestID)
}

// Sweep removes windows older than the sweep age and returns how many were
// removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, w := range m.windows {
		if now.Sub(w.start) > m.sweepAge {
			delete(m.windows, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps on a ticker. It blocks until the context is cancelled.
func (m *Memory) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", m.Len()).Msg("swept rate limit windows")
			}
		}
	}
}
