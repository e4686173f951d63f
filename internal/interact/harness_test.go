package interact_test

import (
	"context"
	"math"
	"testing"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
	"gridboard/internal/interact"
	"gridboard/internal/registry"
)

// Two 1000px canvases side by side: one horizontal unit is 20px, one
// vertical unit is 20px.
type board struct {
	reg      *registry.Registry
	stack    *history.Stack
	coords   *grid.CoordinateSystem
	canvases *interact.CanvasMap
	sched    *interact.FrameScheduler
	em       *events.MockEmitter
	env      interact.Env
}

func newBoard(t *testing.T, items ...domain.GridItem) *board {
	t.Helper()
	b := &board{
		reg:      registry.New(nil),
		canvases: interact.NewCanvasMap(),
		sched:    interact.NewFrameScheduler(),
		em:       &events.MockEmitter{},
	}
	b.stack = history.NewStack(b.reg, nil, 0)
	b.coords = grid.NewCoordinateSystem(grid.DefaultOptions(), b.canvases)
	b.canvases.Set("canvas1", domain.Rect{X: 0, Y: 0, Width: 1000, Height: 2000})
	b.canvases.Set("canvas2", domain.Rect{X: 1100, Y: 0, Width: 1000, Height: 2000})
	for _, id := range []string{"canvas1", "canvas2"} {
		if err := b.reg.AddCanvas(domain.Canvas{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, it := range items {
		if _, err := b.reg.AddItem(it); err != nil {
			t.Fatal(err)
		}
	}
	b.env = interact.Env{
		Coords:    b.coords,
		Store:     b.reg,
		Canvases:  b.canvases,
		Committer: b,
		Mover:     b,
		Scheduler: b.sched,
		Emitter:   b.em,
	}
	return b
}

func (b *board) CommitMove(_ context.Context, change history.MoveChange, label string) (domain.GridItem, error) {
	if _, err := b.stack.Execute(history.MoveItem(label, change)); err != nil {
		return domain.GridItem{}, err
	}
	it, _, err := b.reg.FindItem(change.ItemID)
	return it, err
}

func (b *board) MoveItemToCanvas(_ context.Context, itemID, from, to string, x, y float64) (domain.GridItem, error) {
	it, idx, err := b.reg.Item(from, itemID)
	if err != nil {
		return domain.GridItem{}, err
	}
	ux, err := b.coords.ToUnitsX(x, to)
	if err != nil {
		return domain.GridItem{}, err
	}
	after := it.Layouts
	after.Desktop.X = int(math.Round(ux))
	after.Desktop.Y = int(math.Round(b.coords.ToUnitsY(y)))
	moved, err := b.reg.MoveItemToCanvas(registry.CanvasMove{ItemID: itemID, From: from, To: to, Layouts: after, Index: -1})
	if err != nil {
		return domain.GridItem{}, err
	}
	b.stack.Push(history.MoveItem("transfer", history.MoveChange{
		ItemID: itemID, SourceCanvasID: from, TargetCanvasID: to,
		Before: it.Layouts, After: after, OriginalIndex: idx,
		BeforeZIndex: it.ZIndex, AfterZIndex: moved.ZIndex,
	}))
	return moved, nil
}

func (b *board) layout(t *testing.T, itemID string) domain.Layout {
	t.Helper()
	it, _, err := b.reg.FindItem(itemID)
	if err != nil {
		t.Fatal(err)
	}
	return it.Layouts.Desktop
}

func gridItem(id, canvasID string, l domain.Layout) domain.GridItem {
	return domain.GridItem{ID: id, CanvasID: canvasID, Type: "card", Name: id, Layouts: domain.Layouts{Desktop: l}}
}

type recordingSurface struct {
	transforms []interact.Transform
	cleared    []bool
}

func (s *recordingSurface) SetTransform(t interact.Transform) { s.transforms = append(s.transforms, t) }
func (s *recordingSurface) ClearTransform(animate bool)       { s.cleared = append(s.cleared, animate) }

func (s *recordingSurface) last() interact.Transform {
	if len(s.transforms) == 0 {
		return interact.Transform{}
	}
	return s.transforms[len(s.transforms)-1]
}

func ptr(x, y float64) interact.PointerEvent {
	return interact.PointerEvent{X: x, Y: y, Target: interact.TargetBody}
}
