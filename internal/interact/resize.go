package interact

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
)

// ResizeOptions tunes a ResizeController.
type ResizeOptions struct {
	// Limits overrides the per-type size limits when set.
	Limits *SizeLimits
	// OnMoveStart fires once per gesture on the first non-zero delta.
	OnMoveStart func()
}

type resizeSession struct {
	canvasID string
	item     domain.GridItem
	index    int
	viewport domain.Viewport
	start    domain.Layout
	edges    grid.Edge

	x0, y0, w0, h0 float64
	unitX, unitY   float64
	minW, minH     float64
	maxW, maxH     float64 // 0 = unbounded

	pointerX, pointerY float64
	dx, dy             float64
	hasMoved           bool
}

// rect derives the live rectangle from the accumulated delta. Min and max
// apply on every sample; a left or top grip keeps the opposite edge fixed.
func (s *resizeSession) rect() (x, y, w, h float64) {
	x, y, w, h = s.x0, s.y0, s.w0, s.h0
	switch {
	case s.edges.Has(grid.EdgeRight):
		w = s.w0 + s.dx
	case s.edges.Has(grid.EdgeLeft):
		w = s.w0 - s.dx
	}
	switch {
	case s.edges.Has(grid.EdgeBottom):
		h = s.h0 + s.dy
	case s.edges.Has(grid.EdgeTop):
		h = s.h0 - s.dy
	}
	w = clampSpan(w, s.minW, s.maxW)
	h = clampSpan(h, s.minH, s.maxH)
	if s.edges.Has(grid.EdgeLeft) {
		x = s.x0 + s.w0 - w
	}
	if s.edges.Has(grid.EdgeTop) {
		y = s.y0 + s.h0 - h
	}
	return x, y, w, h
}

// ─────────────────────────────────────────────────────────────
// ResizeController — eight-grip resize state machine
// ─────────────────────────────────────────────────────────────

// ResizeController resizes one item from any edge or corner. Like the drag
// controller it paints through the scheduler and writes the store once.
type ResizeController struct {
	env      Env
	surface  Surface
	itemID   string
	limits   SizeLimits
	onCommit func(domain.GridItem)
	opts     ResizeOptions
	key      string

	mu      sync.Mutex
	state   State
	session *resizeSession
	closed  bool
}

// NewResizeController binds a controller to one rendered item.
func NewResizeController(env Env, surface Surface, item domain.GridItem, onCommit func(domain.GridItem), opts ResizeOptions) *ResizeController {
	limits := env.limits(item.Type)
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	return &ResizeController{
		env:      env,
		surface:  surface,
		itemID:   item.ID,
		limits:   limits,
		onCommit: onCommit,
		opts:     opts,
		key:      "resize:" + item.ID,
	}
}

// HandleEnabled reports whether a grip may start a gesture. An axis whose
// min equals its max is fixed, so every grip touching it is disabled.
func (c *ResizeController) HandleEnabled(h Handle) bool {
	e := h.Edges()
	if e == grid.EdgeNone {
		return false
	}
	widthFixed := c.limits.MaxWidth > 0 && c.limits.MinWidth == c.limits.MaxWidth
	heightFixed := c.limits.MaxHeight > 0 && c.limits.MinHeight == c.limits.MaxHeight
	if widthFixed && (e.Has(grid.EdgeLeft) || e.Has(grid.EdgeRight)) {
		return false
	}
	if heightFixed && (e.Has(grid.EdgeTop) || e.Has(grid.EdgeBottom)) {
		return false
	}
	return true
}

// Handles returns the enabled grips.
func (c *ResizeController) Handles() []Handle {
	var out []Handle
	for _, h := range AllHandles {
		if c.HandleEnabled(h) {
			out = append(out, h)
		}
	}
	return out
}

func (c *ResizeController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PointerDown starts a resize from an enabled grip.
func (c *ResizeController) PointerDown(ev PointerEvent) bool {
	if ev.Target != TargetResizeHandle || !c.HandleEnabled(ev.Handle) {
		return false
	}

	c.mu.Lock()
	if c.closed || c.state != Idle {
		c.mu.Unlock()
		return false
	}
	s, err := c.begin(ev)
	if err != nil {
		c.mu.Unlock()
		log.Printf("resize: start %s: %v", c.itemID, err)
		return false
	}
	c.session = s
	c.state = Dragging
	c.mu.Unlock()

	if err := c.env.Store.SetActiveCanvas(s.canvasID); err != nil {
		log.Printf("resize: activate %s: %v", s.canvasID, err)
	}
	return true
}

func (c *ResizeController) begin(ev PointerEvent) (*resizeSession, error) {
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
	return &resizeSession{
		canvasID: it.CanvasID,
		item:     it,
		index:    idx,
		viewport: vp,
		start:    l,
		edges:    ev.Handle.Edges(),
		x0:       float64(l.X) * unitX,
		y0:       float64(l.Y) * unitY,
		w0:       float64(l.Width) * unitX,
		h0:       float64(l.Height) * unitY,
		unitX:    unitX,
		unitY:    unitY,
		minW:     float64(c.limits.MinWidth) * unitX,
		minH:     float64(c.limits.MinHeight) * unitY,
		maxW:     float64(c.limits.MaxWidth) * unitX,
		maxH:     float64(c.limits.MaxHeight) * unitY,
		pointerX: ev.X,
		pointerY: ev.Y,
	}, nil
}

// PointerMove updates position and size together in one scheduled frame.
func (c *ResizeController) PointerMove(ev PointerEvent) {
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
	x, y, w, h := s.rect()
	c.mu.Unlock()

	t := Transform{X: x, Y: y, Width: w, Height: h}
	surface := c.surface
	c.env.Scheduler.ScheduleOnce(c.key, func() { surface.SetTransform(t) })
	if first && c.opts.OnMoveStart != nil {
		c.opts.OnMoveStart()
	}
}

// PointerUp snaps, clamps and commits the resize.
func (c *ResizeController) PointerUp(ctx context.Context, ev PointerEvent) (Outcome, error) {
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
	c.surface.ClearTransform(false)
	if item != nil && c.onCommit != nil {
		c.onCommit(*item)
	}
	return outcome, nil
}

func (c *ResizeController) resolve(ctx context.Context, s *resizeSession) (Outcome, *domain.GridItem, error) {
	next := c.snap(s)
	if next == s.start {
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
	committed, err := c.env.Committer.CommitMove(ctx, change, "Resize "+s.item.Name)
	if err != nil {
		return OutcomeSnapBack, nil, fmt.Errorf("resize %s: %w", s.item.ID, err)
	}

	c.env.emitter().Emit(ctx, events.ItemResized, events.MovePayload{
		ItemID:         s.item.ID,
		SourceCanvasID: s.canvasID,
		TargetCanvasID: s.canvasID,
		Before:         s.start,
		After:          committed.Layouts.For(s.viewport),
		Viewport:       s.viewport,
	})
	return OutcomeCommitted, &committed, nil
}

// snap turns the live pixel rectangle into a committed layout: directional
// rounding, then min/max again, then the canvas boundary.
func (c *ResizeController) snap(s *resizeSession) domain.Layout {
	_, _, w, h := s.rect()
	next := s.start

	if s.edges.Has(grid.EdgeLeft) || s.edges.Has(grid.EdgeRight) {
		next.Width = grid.Units(grid.SnapDirectional(w, s.w0, s.unitX), s.unitX)
		next.Width = clampUnits(next.Width, c.limits.MinWidth, c.limits.MaxWidth)
		if s.edges.Has(grid.EdgeLeft) {
			next.X = s.start.X + s.start.Width - next.Width
		}
	}
	if s.edges.Has(grid.EdgeTop) || s.edges.Has(grid.EdgeBottom) {
		next.Height = grid.Units(grid.SnapDirectional(h, s.h0, s.unitY), s.unitY)
		next.Height = clampUnits(next.Height, c.limits.MinHeight, c.limits.MaxHeight)
		if s.edges.Has(grid.EdgeTop) {
			next.Y = s.start.Y + s.start.Height - next.Height
		}
	}

	box := grid.ConstrainResize(grid.Box{
		X: float64(next.X), Y: float64(next.Y),
		W: float64(next.Width), H: float64(next.Height),
	}, s.edges, grid.Bounds{Width: float64(c.env.Coords.CanvasWidthUnits())})
	next.X = int(math.Round(box.X))
	next.Y = int(math.Round(box.Y))
	next.Width = int(math.Round(box.W))
	next.Height = int(math.Round(box.H))
	return next
}

// Teardown cancels pending frame work and ignores every later event.
func (c *ResizeController) Teardown() {
	c.mu.Lock()
	c.closed = true
	c.session = nil
	c.state = Idle
	c.mu.Unlock()
	c.env.Scheduler.Cancel(c.key)
}

func clampSpan(v, min, max float64) float64 {
	if max > 0 && v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

func clampUnits(v, min, max int) int {
	if max > 0 && v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}
