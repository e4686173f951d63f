package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
	"gridboard/internal/interact"
	"gridboard/internal/registry"
)

// ErrUnsupportedVersion is returned when importing a snapshot written in
// another format version.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// ─────────────────────────────────────────────────────────────
// Canvas Service — business logic over registry + history
// ─────────────────────────────────────────────────────────────

// Options configures a CanvasService.
type Options struct {
	Grid         grid.Options
	HistoryLimit int
	MinWidth     int
	MinHeight    int
}

// CanvasService is the entry point for every non-gesture mutation and the
// commit side of the gesture controllers. Each state change and its history
// entry happen under one lock so an undo never sees a write without its
// command.
type CanvasService struct {
	mu       sync.Mutex
	reg      *registry.Registry
	stack    *history.Stack
	coords   *grid.CoordinateSystem
	canvases *interact.CanvasMap
	types    *TypeRegistry
	emitter  events.Emitter
	hook     DeletionHook

	snapshots SnapshotRepository
	settings  SettingsStore

	// autosave lifecycle
	cronSched    *cron.Cron
	autosaveName string
	saving       saveGuard
}

// NewCanvasService creates a CanvasService with an empty registry.
func NewCanvasService(emitter events.Emitter, opts Options) *CanvasService {
	if emitter == nil {
		emitter = events.Nop{}
	}
	reg := registry.New(emitter)
	canvases := interact.NewCanvasMap()
	return &CanvasService{
		reg:      reg,
		stack:    history.NewStack(reg, emitter, opts.HistoryLimit),
		coords:   grid.NewCoordinateSystem(opts.Grid, canvases),
		canvases: canvases,
		types:    NewTypeRegistry(opts.MinWidth, opts.MinHeight),
		emitter:  emitter,
	}
}

// Registry exposes the underlying store for reads and subscriptions.
func (s *CanvasService) Registry() *registry.Registry { return s.reg }

// History exposes the command stack.
func (s *CanvasService) History() *history.Stack { return s.stack }

// Coords exposes the coordinate system.
func (s *CanvasService) Coords() *grid.CoordinateSystem { return s.coords }

// Types exposes the component type registry.
func (s *CanvasService) Types() *TypeRegistry { return s.types }

// SetDeletionHook installs the hook consulted before removals. nil removes it.
func (s *CanvasService) SetDeletionHook(h DeletionHook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// SetJournal attaches a persistent command journal to the history.
func (s *CanvasService) SetJournal(j history.Journal) {
	s.stack.SetJournal(j)
}

// Env returns the collaborators a gesture controller needs, with this
// service as committer and cross-canvas mover.
func (s *CanvasService) Env(scheduler interact.Scheduler) interact.Env {
	return interact.Env{
		Coords:    s.coords,
		Store:     s.reg,
		Canvases:  s.canvases,
		Committer: s,
		Mover:     s,
		Scheduler: scheduler,
		Emitter:   s.emitter,
		Sizes:     s.types,
	}
}

// ── Canvases ───────────────────────────────────────────────

// AddCanvas creates an empty canvas. An empty id gets a generated one.
func (s *CanvasService) AddCanvas(ctx context.Context, id string) (domain.Canvas, error) {
	if id == "" {
		id = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stack.Execute(history.AddCanvas("Add canvas", domain.Canvas{ID: id}, -1)); err != nil {
		return domain.Canvas{}, fmt.Errorf("add canvas: %w", err)
	}
	c, _ := s.reg.Canvas(id)
	return c, nil
}

// RemoveCanvas deletes a canvas with its items as one undoable step.
func (s *CanvasService) RemoveCanvas(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, index, err := s.reg.RemoveCanvas(id)
	if err != nil {
		log.Printf("canvas: remove %s: %v", id, err)
		return err
	}
	s.stack.Push(history.RemoveCanvas("Remove canvas", c, index))
	s.canvases.Remove(id)
	s.coords.Forget(id)
	return nil
}

// ── History ────────────────────────────────────────────────

// Undo reverses the most recent command.
func (s *CanvasService) Undo(ctx context.Context) (history.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Undo(ctx)
}

// Redo reapplies the most recently undone command.
func (s *CanvasService) Redo(ctx context.Context) (history.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Redo(ctx)
}

func (s *CanvasService) CanUndo() bool { return s.stack.CanUndo() }
func (s *CanvasService) CanRedo() bool { return s.stack.CanRedo() }

// ── Export / import ────────────────────────────────────────

// Export captures the full state as a versioned snapshot.
func (s *CanvasService) Export(metadata map[string]any) domain.Snapshot {
	return s.reg.Export(metadata)
}

// Import replaces all state with snap in one notification and clears the
// history, since recorded commands refer to the replaced state.
func (s *CanvasService) Import(ctx context.Context, snap domain.Snapshot) error {
	if snap.Version != domain.SnapshotVersion {
		return fmt.Errorf("import: %w: %q", ErrUnsupportedVersion, snap.Version)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reg.Replace(snap); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.stack.Clear()
	s.coords.InvalidateAll()
	log.Printf("canvas: imported %d canvas(es)", len(snap.Canvases))
	return nil
}

// ── View / grid ────────────────────────────────────────────

// SetViewport switches the edited layout variant and drops every cached
// unit size.
func (s *CanvasService) SetViewport(ctx context.Context, v domain.Viewport) error {
	if err := s.reg.SetViewport(v); err != nil {
		return err
	}
	s.coords.InvalidateAll()
	s.persistView(ctx)
	return nil
}

// SetActiveCanvas marks the canvas the user works in.
func (s *CanvasService) SetActiveCanvas(ctx context.Context, id string) error {
	if err := s.reg.SetActiveCanvas(id); err != nil {
		return err
	}
	s.persistView(ctx)
	return nil
}

// SetCanvasRect records a canvas's measured page rectangle, used for
// hit-testing and as its rendered width.
func (s *CanvasService) SetCanvasRect(id string, r domain.Rect) {
	s.canvases.Set(id, r)
	s.coords.Invalidate(id)
}

// ApplyGridOptions swaps the unit system (config reload) and the fallback
// minimum sizes.
func (s *CanvasService) ApplyGridOptions(opts grid.Options, minWidth, minHeight int) {
	s.coords.SetOptions(opts)
	s.types.SetFallbackMinimums(minWidth, minHeight)
}

// SetHistoryLimit bounds the undo stack.
func (s *CanvasService) SetHistoryLimit(limit int) {
	s.stack.SetLimit(limit)
}

func (s *CanvasService) bounds() grid.Bounds {
	return grid.Bounds{Width: float64(s.coords.CanvasWidthUnits())}
}
