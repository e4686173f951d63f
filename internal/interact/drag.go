package interact

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
)

// DragOptions tunes a DragController.
type DragOptions struct {
	// HandleOnly restricts drag starts to the secondary drag handle.
	HandleOnly bool
	// OnMoveStart fires once per gesture on the first non-zero delta.
	OnMoveStart func()
}

type dragSession struct {
	canvasID string
	item     domain.GridItem
	index    int
	viewport domain.Viewport
	start    domain.Layout
	baseX    float64
	baseY    float64
	width    float64
	height   float64
	unitX    float64
	unitY    float64
	pointerX float64
	pointerY float64
	dx, dy   float64
	hasMoved bool
}

// ─────────────────────────────────────────────────────────────
// DragController — Idle → Dragging → Resolving → Idle
// ─────────────────────────────────────────────────────────────

// DragController translates one item. Pointer moves only update a
// frame-batched visual transform; the store is written once on release.
type DragController struct {
	env      Env
	surface  Surface
	itemID   string
	onCommit func(domain.GridItem)
	opts     DragOptions
	key      string

	mu      sync.Mutex
	state   State
	session *dragSession
	closed  bool
}

// NewDragController binds a controller to one rendered item. onCommit runs
// once per state-changing gesture with the resolved item; it may be nil.
func NewDragController(env Env, surface Surface, item domain.GridItem, onCommit func(domain.GridItem), opts DragOptions) *DragController {
	return &DragController{
		env:      env,
		surface:  surface,
		itemID:   item.ID,
		onCommit: onCommit,
		opts:     opts,
		key:      "drag:" + item.ID,
	}
}

// State returns the current gesture phase.
func (c *DragController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PointerDown starts a gesture. It reports false when the event is not a
// drag affordance or a gesture cannot start.
func (c *DragController) PointerDown(ev PointerEvent) bool {
	switch ev.Target {
	case TargetResizeHandle, TargetAction:
		return false
	case TargetBody:
		if c.opts.HandleOnly {
			return false
		}
	}

	c.mu.Lock()
	if c.closed || c.state != Idle {
		c.mu.Unlock()
		return false
	}
	s, err := c.begin(ev)
	if err != nil {
		c.mu.Unlock()
		log.Printf("drag: start %s: %v", c.itemID, err)
		return false
	}
	c.session = s
	c.state = Dragging
	c.mu.Unlock()

	if err := c.env.Store.SetActiveCanvas(s.canvasID); err != nil {
		log.Printf("drag: activate %s: %v", s.canvasID, err)
	}
	return true
}

func (c *DragController) begin(ev PointerEvent) (*dragSession, error) {
	it, idx, err := c.env.Store.FindItem(c.itemID)
	if err != nil {
		return nil, err
	}
	unitX, err := c.env.Coords.UnitX(it.CanvasID)
	if err != nil {
		return nil, err
	}
	unitY := c.env.Coords.UnitY()
	vp := c.env.Store.Viewport()
	l := it.Layouts.For(vp)
	return &dragSession{
		canvasID: it.CanvasID,
		item:     it,
		index:    idx,
		viewport: vp,
		start:    l,
		baseX:    float64(l.X) * unitX,
		baseY:    float64(l.Y) * unitY,
		width:    float64(l.Width) * unitX,
		height:   float64(l.Height) * unitY,
		unitX:    unitX,
		unitY:    unitY,
		pointerX: ev.X,
		pointerY: ev.Y,
	}, nil
}

// PointerMove records the cumulative delta and schedules a repaint.
func (c *DragController) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return
	}
	s := c.session
	s.dx = ev.X - s.pointerX
	s.dy = ev.Y - s.pointerY
	first := !s.hasMoved && (s.dx != 0 || s.dy != 0)
	if first {
		s.hasMoved = true
	}
	t := Transform{X: s.baseX + s.dx, Y: s.baseY + s.dy, Width: s.width, Height: s.height}
	c.mu.Unlock()

	surface := c.surface
	c.env.Scheduler.ScheduleOnce(c.key, func() { surface.SetTransform(t) })
	if first && c.opts.OnMoveStart != nil {
		c.opts.OnMoveStart()
	}
}

// PointerUp resolves the gesture: hit-test, then either delegate to the
// cross-canvas mover, snap back, or snap and commit in place.
func (c *DragController) PointerUp(ctx context.Context, ev PointerEvent) (Outcome, error) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}
	s := c.session
	s.dx = ev.X - s.pointerX
	s.dy = ev.Y - s.pointerY
	c.state = Resolving
	c.mu.Unlock()

	c.env.Scheduler.Cancel(c.key)
	outcome, item, err := c.resolve(ctx, s)

	c.mu.Lock()
	c.session = nil
	c.state = Idle
	c.mu.Unlock()

	if err != nil {
		c.surface.ClearTransform(true)
		return outcome, err
	}
	if item != nil && c.onCommit != nil {
		c.onCommit(*item)
	}
	return outcome, nil
}

func (c *DragController) resolve(ctx context.Context, s *dragSession) (Outcome, *domain.GridItem, error) {
	x := s.baseX + s.dx
	y := s.baseY + s.dy

	origin, ok := c.env.Canvases.CanvasRect(s.canvasID)
	if !ok {
		c.surface.ClearTransform(true)
		return OutcomeSnapBack, nil, nil
	}
	dropped := domain.Rect{X: origin.X + x, Y: origin.Y + y, Width: s.width, Height: s.height}
	target, found := HitTest(c.env.Canvases.CanvasRects(), dropped)
	if !found {
		c.surface.ClearTransform(true)
		return OutcomeSnapBack, nil, nil
	}

	if target != s.canvasID {
		tr, _ := c.env.Canvases.CanvasRect(target)
		moved, err := c.env.Mover.MoveItemToCanvas(ctx, s.item.ID, s.canvasID, target, dropped.X-tr.X, dropped.Y-tr.Y)
		if err != nil {
			return OutcomeSnapBack, nil, fmt.Errorf("drag %s to %s: %w", s.item.ID, target, err)
		}
		c.surface.ClearTransform(false)
		return OutcomeTransferred, &moved, nil
	}

	box := grid.ClampPosition(grid.Box{
		X: float64(grid.Units(grid.SnapNearest(x, s.unitX), s.unitX)),
		Y: float64(grid.Units(grid.SnapNearest(y, s.unitY), s.unitY)),
		W: float64(s.start.Width),
		H: float64(s.start.Height),
	}, grid.Bounds{Width: float64(c.env.Coords.CanvasWidthUnits())})

	next := s.start
	next.X, next.Y = int(box.X), int(box.Y)
	if next.X == s.start.X && next.Y == s.start.Y {
		c.surface.ClearTransform(false)
		return OutcomeNoop, nil, nil
	}

	change := history.MoveChange{
		ItemID:         s.item.ID,
		SourceCanvasID: s.canvasID,
		TargetCanvasID: s.canvasID,
		Before:         s.item.Layouts,
		After:          s.item.Layouts.With(s.viewport, next),
		OriginalIndex:  s.index,
		BeforeZIndex:   s.item.ZIndex,
		AfterZIndex:    s.item.ZIndex,
	}
	committed, err := c.env.Committer.CommitMove(ctx, change, "Move "+s.item.Name)
	if err != nil {
		return OutcomeSnapBack, nil, fmt.Errorf("drag %s: %w", s.item.ID, err)
	}
	c.surface.ClearTransform(false)

	c.env.emitter().Emit(ctx, events.ItemMoved, events.MovePayload{
		ItemID:         s.item.ID,
		SourceCanvasID: s.canvasID,
		TargetCanvasID: s.canvasID,
		Before:         s.start,
		After:          committed.Layouts.For(s.viewport),
		Viewport:       s.viewport,
	})
	return OutcomeCommitted, &committed, nil
}

// Teardown cancels pending frame work and ignores every later event.
func (c *DragController) Teardown() {
	c.mu.Lock()
	c.closed = true
	c.session = nil
	c.state = Idle
	c.mu.Unlock()
	c.env.Scheduler.Cancel(c.key)
}
