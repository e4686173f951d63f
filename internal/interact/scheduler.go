package interact

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs visual work on the next paint. Scheduling a key that is
// already pending replaces its callback, so only the most recent values
// for a gesture are ever painted.
type Scheduler interface {
	ScheduleOnce(key string, fn func())
	Cancel(key string)
}

// FrameScheduler queues callbacks until the host paints. Call RunFrame from
// the host's paint hook, or Start to drive it from a ticker.
type FrameScheduler struct {
	mu      sync.Mutex
	pending map[string]func()
	order   []string
}

func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{pending: make(map[string]func())}
}

func (s *FrameScheduler) ScheduleOnce(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pending[key] = fn
}

func (s *FrameScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; !ok {
		return
	}
	delete(s.pending, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Pending returns the number of callbacks waiting for the next frame.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunFrame runs every pending callback once, in scheduling order, and
// returns how many ran. Callbacks scheduled while the frame runs wait for
// the next one.
func (s *FrameScheduler) RunFrame() int {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.order))
	for _, k := range s.order {
		fns = append(fns, s.pending[k])
	}
	s.pending = make(map[string]func())
	s.order = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Start runs frames every interval until ctx is cancelled.
func (s *FrameScheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second / 60
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunFrame()
			}
		}
	}()
}
