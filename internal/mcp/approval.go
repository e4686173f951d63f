package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridboard/internal/events"
	"gridboard/internal/service"
	"gridboard/internal/storage"
)

// Approval events published to the UI.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. item IDs)
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

// ApprovalQueue manages human-in-the-loop approval for destructive agent
// actions. It supports two modes:
//   - In-process: channels plus an approval-required event to the UI
//   - DB-based (standalone MCP): rows in mcp_approvals, polled for a verdict
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan actionResult
	emitter events.Emitter
	timeout time.Duration
	poll    time.Duration
	// DB-based mode for standalone MCP (cross-process IPC)
	db *storage.DB
}

func NewApprovalQueue(emitter events.Emitter) *ApprovalQueue {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &ApprovalQueue{
		pending: make(map[string]chan actionResult),
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetDB enables DB-based approval mode for standalone MCP.
func (q *ApprovalQueue) SetDB(db *storage.DB) {
	q.db = db
}

// SetTimeout changes how long a request waits for a verdict.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request sends an approval request and blocks until approved, rejected,
// timed out or ctx is cancelled. Rejection is reported as an error.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata ...string) (bool, error) {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	if q.db != nil {
		return q.requestViaDB(ctx, id, tool, description, meta)
	}
	return q.requestViaChannel(ctx, id, tool, description, meta)
}

// requestViaDB writes a pending approval row and polls until resolved.
func (q *ApprovalQueue) requestViaDB(ctx context.Context, id, tool, description, metadata string) (bool, error) {
	conn := q.db.Conn()
	_, err := conn.ExecContext(ctx, q.db.Rebind(
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, 'pending', ?)`),
		id, tool, description, metadata,
	)
	if err != nil {
		return false, fmt.Errorf("insert approval: %w", err)
	}
	cleanup := func() {
		conn.Exec(q.db.Rebind(`DELETE FROM mcp_approvals WHERE id = ?`), id)
	}

	deadline := time.Now().Add(q.timeout)
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Now().After(deadline) {
				cleanup()
				return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
			}
			var status string
			err := conn.QueryRowContext(ctx, q.db.Rebind(`SELECT status FROM mcp_approvals WHERE id = ?`), id).Scan(&status)
			if err != nil {
				continue
			}
			switch status {
			case "approved":
				cleanup()
				return true, nil
			case "rejected":
				cleanup()
				return false, fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-ctx.Done():
			cleanup()
			return false, fmt.Errorf("approval %s: %w", tool, ctx.Err())
		}
	}
}

// requestViaChannel is the in-process mode.
func (q *ApprovalQueue) requestViaChannel(ctx context.Context, id, tool, description, metadata string) (bool, error) {
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()

	q.emitter.Emit(ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		q.cleanup(id)
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-timer.C:
		q.cleanup(id)
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": id})
		return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-ctx.Done():
		q.cleanup(id)
		q.emitter.Emit(context.Background(), EventApprovalDismissed, map[string]string{"id": id})
		return false, fmt.Errorf("approval %s: %w", tool, ctx.Err())
	}
}

// Approve marks a pending action as approved. In DB mode the row is updated
// so the polling process sees it.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	if q.db != nil {
		status := "rejected"
		if approved {
			status = "approved"
		}
		q.db.Conn().Exec(q.db.Rebind(`UPDATE mcp_approvals SET status = ? WHERE id = ?`), status, actionID)
		return
	}
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if ok {
		select {
		case ch <- actionResult{approved: approved}:
		default:
		}
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// ── Deletion hook ──────────────────────────────────────────

type agentKey struct{}

// withAgent marks ctx as carrying an agent-initiated request.
func withAgent(ctx context.Context) context.Context {
	return context.WithValue(ctx, agentKey{}, true)
}

func fromAgent(ctx context.Context) bool {
	v, _ := ctx.Value(agentKey{}).(bool)
	return v
}

// DeletionHook returns a service.DeletionHook that asks a human before an
// agent removes an item. Deletions not initiated through MCP pass through.
func (q *ApprovalQueue) DeletionHook() service.DeletionHook {
	return func(ctx context.Context, req service.DeletionRequest) (bool, error) {
		if !fromAgent(ctx) {
			return true, nil
		}
		meta, _ := json.Marshal(map[string]any{"itemIds": []string{req.ItemID}, "canvasId": req.CanvasID})
		desc := fmt.Sprintf("Delete %s item %q (%s) from canvas %s", req.Item.Type, req.Item.Name, req.ItemID, req.CanvasID)
		return q.Request(ctx, "delete_item", desc, string(meta))
	}
}
