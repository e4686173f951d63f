package interact_test

import (
	"context"
	"testing"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/interact"
)

func grip(x, y float64, h interact.Handle) interact.PointerEvent {
	return interact.PointerEvent{X: x, Y: y, Target: interact.TargetResizeHandle, Handle: h}
}

func resize(t *testing.T, b *board, c *interact.ResizeController, h interact.Handle, dx, dy float64) interact.Outcome {
	t.Helper()
	if !c.PointerDown(grip(500, 500, h)) {
		t.Fatalf("PointerDown(%s) rejected", h)
	}
	c.PointerMove(grip(500+dx/2, 500+dy/2, h))
	c.PointerMove(grip(500+dx, 500+dy, h))
	b.sched.RunFrame()
	out, err := c.PointerUp(context.Background(), grip(500+dx, 500+dy, h))
	if err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	return out
}

func TestResize_DirectionalRounding(t *testing.T) {
	tests := []struct {
		name   string
		start  domain.Layout
		handle interact.Handle
		dx, dy float64
		want   domain.Layout
	}{
		{
			name:  "grow right rounds up",
			start: domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}, handle: interact.HandleRight,
			dx: 38, want: domain.Layout{X: 0, Y: 0, Width: 7, Height: 4}, // 138px -> 140px
		},
		{
			name:  "shrink right rounds down",
			start: domain.Layout{X: 0, Y: 0, Width: 7, Height: 4}, handle: interact.HandleRight,
			dx: -38, want: domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}, // 102px -> 100px
		},
		{
			name:  "grow down rounds up",
			start: domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}, handle: interact.HandleBottom,
			dy: 21, want: domain.Layout{X: 0, Y: 0, Width: 5, Height: 6},
		},
		{
			name:  "left grip keeps right edge",
			start: domain.Layout{X: 10, Y: 0, Width: 5, Height: 4}, handle: interact.HandleLeft,
			dx: -50, want: domain.Layout{X: 7, Y: 0, Width: 8, Height: 4},
		},
		{
			name:  "top-left corner moves origin",
			start: domain.Layout{X: 10, Y: 10, Width: 6, Height: 6}, handle: interact.HandleTopLeft,
			dx: 15, dy: 15, want: domain.Layout{X: 11, Y: 11, Width: 5, Height: 5},
		},
		{
			name:  "right overflow shrinks",
			start: domain.Layout{X: 40, Y: 0, Width: 8, Height: 4}, handle: interact.HandleRight,
			dx: 200, want: domain.Layout{X: 40, Y: 0, Width: 10, Height: 4},
		},
		{
			name:  "left overflow shrinks",
			start: domain.Layout{X: 2, Y: 0, Width: 6, Height: 4}, handle: interact.HandleLeft,
			dx: -100, want: domain.Layout{X: 0, Y: 0, Width: 8, Height: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(t, gridItem("item-1", "canvas1", tt.start))
			c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", tt.start), nil, interact.ResizeOptions{})

			if out := resize(t, b, c, tt.handle, tt.dx, tt.dy); out != interact.OutcomeCommitted {
				t.Fatalf("outcome = %s", out)
			}
			got := b.layout(t, "item-1")
			if got != tt.want {
				t.Errorf("layout = %+v, want %+v", got, tt.want)
			}
			if got.X < 0 || got.Y < 0 || got.X+got.Width > 50 {
				t.Errorf("layout %+v escapes canvas", got)
			}
		})
	}
}

func TestResize_OvershootKeepsUnmanipulatedEdge(t *testing.T) {
	tests := []struct {
		name   string
		start  domain.Layout
		handle interact.Handle
		dx, dy float64
		want   domain.Layout
	}{
		{
			name:  "left grip past zero",
			start: domain.Layout{X: 40, Y: 0, Width: 10, Height: 4}, handle: interact.HandleLeft,
			dx: -1000, want: domain.Layout{X: 0, Y: 0, Width: 50, Height: 4},
		},
		{
			name:  "left grip far past zero",
			start: domain.Layout{X: 20, Y: 0, Width: 10, Height: 4}, handle: interact.HandleLeft,
			dx: -2000, want: domain.Layout{X: 0, Y: 0, Width: 30, Height: 4},
		},
		{
			name:  "right grip past canvas width",
			start: domain.Layout{X: 15, Y: 0, Width: 10, Height: 4}, handle: interact.HandleRight,
			dx: 1500, want: domain.Layout{X: 15, Y: 0, Width: 35, Height: 4},
		},
		{
			name:  "top-left corner past both origins",
			start: domain.Layout{X: 30, Y: 2, Width: 10, Height: 5}, handle: interact.HandleTopLeft,
			dx: -1000, dy: -200, want: domain.Layout{X: 0, Y: 0, Width: 40, Height: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(t, gridItem("item-1", "canvas1", tt.start))
			c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", tt.start), nil, interact.ResizeOptions{})

			if out := resize(t, b, c, tt.handle, tt.dx, tt.dy); out != interact.OutcomeCommitted {
				t.Fatalf("outcome = %s", out)
			}
			got := b.layout(t, "item-1")
			if got != tt.want {
				t.Errorf("layout = %+v, want %+v", got, tt.want)
			}
			if got.X < 0 || got.Y < 0 || got.X+got.Width > b.coords.CanvasWidthUnits() {
				t.Errorf("layout %+v escapes canvas", got)
			}
			edges := tt.handle.Edges()
			if edges.Has(grid.EdgeLeft) && got.X+got.Width != tt.start.X+tt.start.Width {
				t.Errorf("right edge moved: %d -> %d", tt.start.X+tt.start.Width, got.X+got.Width)
			}
			if edges.Has(grid.EdgeRight) && got.X != tt.start.X {
				t.Errorf("left edge moved: %d -> %d", tt.start.X, got.X)
			}
			if edges.Has(grid.EdgeTop) && got.Y+got.Height != tt.start.Y+tt.start.Height {
				t.Errorf("bottom edge moved: %d -> %d", tt.start.Y+tt.start.Height, got.Y+got.Height)
			}
		})
	}
}

func TestResize_MinEnforcedDuringMove(t *testing.T) {
	l := domain.Layout{X: 0, Y: 0, Width: 6, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	surf := &recordingSurface{}
	c := interact.NewResizeController(b.env, surf, gridItem("item-1", "canvas1", l), nil, interact.ResizeOptions{})

	c.PointerDown(grip(120, 40, interact.HandleRight))
	c.PointerMove(grip(20, 40, interact.HandleRight))
	b.sched.RunFrame()
	if w := surf.last().Width; w != 100 {
		t.Errorf("live width = %v, want min 100", w)
	}
	out, err := c.PointerUp(context.Background(), grip(20, 40, interact.HandleRight))
	if err != nil || out != interact.OutcomeCommitted {
		t.Fatalf("PointerUp = %s, %v", out, err)
	}
	if got := b.layout(t, "item-1"); got.Width != 5 {
		t.Errorf("width = %d, want 5", got.Width)
	}
}

func TestResize_LeftGripMovesOriginWithSize(t *testing.T) {
	l := domain.Layout{X: 10, Y: 0, Width: 5, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	surf := &recordingSurface{}
	c := interact.NewResizeController(b.env, surf, gridItem("item-1", "canvas1", l), nil, interact.ResizeOptions{})

	c.PointerDown(grip(200, 40, interact.HandleLeft))
	c.PointerMove(grip(170, 40, interact.HandleLeft))
	b.sched.RunFrame()
	want := interact.Transform{X: 170, Y: 0, Width: 130, Height: 80}
	if surf.last() != want {
		t.Errorf("transform = %+v, want %+v", surf.last(), want)
	}
}

func TestResize_MaxClampAfterSnap(t *testing.T) {
	l := domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	limits := interact.SizeLimits{MinWidth: 5, MinHeight: 4, MaxWidth: 6}
	c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", l), nil, interact.ResizeOptions{Limits: &limits})

	resize(t, b, c, interact.HandleRight, 80, 0)
	if got := b.layout(t, "item-1"); got.Width != 6 {
		t.Errorf("width = %d, want max 6", got.Width)
	}
}

func TestResize_FixedAxisDisablesHandles(t *testing.T) {
	l := domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	limits := interact.SizeLimits{MinWidth: 5, MaxWidth: 5, MinHeight: 4}
	c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", l), nil, interact.ResizeOptions{Limits: &limits})

	got := c.Handles()
	if len(got) != 2 || got[0] != interact.HandleTop || got[1] != interact.HandleBottom {
		t.Errorf("handles = %v, want [n s]", got)
	}
	if c.PointerDown(grip(100, 40, interact.HandleBottomRight)) {
		t.Error("corner grip accepted on a fixed axis")
	}
}

func TestResize_NoopAndEvents(t *testing.T) {
	l := domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	var commits int
	c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", l),
		func(domain.GridItem) { commits++ }, interact.ResizeOptions{})

	if out := resize(t, b, c, interact.HandleRight, 0, 0); out != interact.OutcomeNoop {
		t.Errorf("outcome = %s, want noop", out)
	}
	if b.stack.CanUndo() || commits != 0 {
		t.Error("no-op resize committed")
	}

	resize(t, b, c, interact.HandleBottomRight, 20, 20)
	if commits != 1 || b.em.Count(events.ItemResized) != 1 {
		t.Errorf("commits=%d resized events=%d", commits, b.em.Count(events.ItemResized))
	}
	last, _ := b.em.Last(events.ItemResized)
	payload, ok := last.Data.(events.MovePayload)
	if !ok || payload.Before != l || payload.After.Width != 6 || payload.After.Height != 5 {
		t.Errorf("payload = %+v", last.Data)
	}
}

func TestResize_RejectsNonHandleTargets(t *testing.T) {
	l := domain.Layout{X: 0, Y: 0, Width: 5, Height: 4}
	b := newBoard(t, gridItem("item-1", "canvas1", l))
	c := interact.NewResizeController(b.env, &recordingSurface{}, gridItem("item-1", "canvas1", l), nil, interact.ResizeOptions{})
	if c.PointerDown(ptr(10, 10)) {
		t.Error("resize started from item body")
	}
	c.Teardown()
	if c.PointerDown(grip(100, 40, interact.HandleRight)) {
		t.Error("resize started after teardown")
	}
}
