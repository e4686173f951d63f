package service

import (
	"context"
	"sync"
)

// saveGuard tracks autosaves in flight, keyed by snapshot name. A tick that
// finds its snapshot still being written is dropped instead of queued.
type saveGuard struct {
	mu       sync.Mutex
	inFlight map[string]chan struct{}
}

// begin claims name. It returns false while another save of name runs;
// otherwise finish must be called once the save returns.
func (g *saveGuard) begin(name string) (finish func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]chan struct{})
	}
	if _, busy := g.inFlight[name]; busy {
		return nil, false
	}
	done := make(chan struct{})
	g.inFlight[name] = done
	return func() {
		g.mu.Lock()
		delete(g.inFlight, name)
		g.mu.Unlock()
		close(done)
	}, true
}

// wait blocks until the saves running at call time finish or ctx ends.
func (g *saveGuard) wait(ctx context.Context) {
	g.mu.Lock()
	pending := make([]chan struct{}, 0, len(g.inFlight))
	for _, ch := range g.inFlight {
		pending = append(pending, ch)
	}
	g.mu.Unlock()

	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}
