package app

import (
	"errors"

	"gridboard/internal/domain"
	"gridboard/internal/history"
	"gridboard/internal/service"
	"gridboard/internal/storage"
)

var errNoJournal = errors.New("command journal needs a SQL storage driver")

// ============================================================
// Snapshots
// ============================================================

func (a *App) SaveSnapshot(name string) error {
	return a.canvas.SaveSnapshot(a.ctx, name)
}

func (a *App) LoadSnapshot(name string) error {
	return a.canvas.LoadSnapshot(a.ctx, name)
}

func (a *App) ListSnapshots() ([]storage.SnapshotInfo, error) {
	if a.snapshots == nil {
		return nil, service.ErrNoSnapshotStore
	}
	return a.snapshots.List(a.ctx)
}

func (a *App) DeleteSnapshot(name string) error {
	if a.snapshots == nil {
		return service.ErrNoSnapshotStore
	}
	return a.snapshots.Delete(a.ctx, name)
}

// ExportJSON returns the current state without persisting it.
func (a *App) Export() domain.Snapshot {
	return a.canvas.Export(map[string]any{"exportedBy": "app"})
}

// RecentCommands lists the journalled history, oldest first.
func (a *App) RecentCommands(n int) ([]history.Command, error) {
	if a.journal == nil {
		return nil, errNoJournal
	}
	return a.journal.Recent(a.ctx, n)
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveAction resolves an approval raised by a standalone MCP process.
func (a *App) ApproveAction(id string) { a.approvals.Approve(id) }

// RejectAction refuses an approval raised by a standalone MCP process.
func (a *App) RejectAction(id string) { a.approvals.Reject(id) }
