package app

import (
	"context"
	"log"
	"sync"
	"time"

	"gridboard/internal/events"
	mcpserver "gridboard/internal/mcp"
	"gridboard/internal/storage"
)

// approvalWatcher polls the database for approvals requested by a
// standalone MCP process and forwards each one to the UI exactly once.
type approvalWatcher struct {
	ctx      context.Context
	db       *storage.DB
	emitter  events.Emitter
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	// ids already forwarded, so a pending row is not re-emitted every tick
	emitted map[string]bool
}

func newApprovalWatcher(ctx context.Context, db *storage.DB, emitter events.Emitter) *approvalWatcher {
	return &approvalWatcher{ctx: ctx, db: db, emitter: emitter, interval: 2 * time.Second, emitted: map[string]bool{}}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *approvalWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *approvalWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *approvalWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	stop := w.stopCh

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *approvalWatcher) check() {
	conn := w.db.Conn()

	rows, err := conn.QueryContext(w.ctx, `SELECT id, tool, description, metadata FROM mcp_approvals WHERE status = 'pending'`)
	if err != nil {
		log.Printf("approval watcher: %v", err)
		return
	}
	var fresh []mcpserver.PendingAction
	pending := map[string]bool{}
	for rows.Next() {
		var a mcpserver.PendingAction
		if rows.Scan(&a.ID, &a.Tool, &a.Description, &a.Metadata) != nil {
			continue
		}
		pending[a.ID] = true
		w.mu.Lock()
		if !w.emitted[a.ID] {
			w.emitted[a.ID] = true
			a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
			fresh = append(fresh, a)
		}
		w.mu.Unlock()
	}
	rows.Close()

	for _, a := range fresh {
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, a)
	}

	// resolved rows are deleted by the requesting process
	var resolved []string
	w.mu.Lock()
	for id := range w.emitted {
		if !pending[id] {
			delete(w.emitted, id)
			resolved = append(resolved, id)
		}
	}
	w.mu.Unlock()

	for _, id := range resolved {
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalDismissed, map[string]string{"id": id})
	}
}
