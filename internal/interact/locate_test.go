package interact

import (
	"testing"

	"gridboard/internal/domain"
)

func TestHitTest(t *testing.T) {
	canvases := []CanvasRect{
		{ID: "left", Rect: domain.Rect{X: 0, Y: 0, Width: 500, Height: 500}},
		{ID: "right", Rect: domain.Rect{X: 600, Y: 0, Width: 500, Height: 500}},
	}
	tests := []struct {
		name   string
		rect   domain.Rect
		want   string
		wantOK bool
	}{
		{"fully inside left", domain.Rect{X: 10, Y: 10, Width: 100, Height: 100}, "left", true},
		{"fully inside right", domain.Rect{X: 700, Y: 10, Width: 100, Height: 100}, "right", true},
		{"overhang uses center", domain.Rect{X: 450, Y: 10, Width: 100, Height: 100}, "left", true},
		{"oversized uses center", domain.Rect{X: 550, Y: -100, Width: 600, Height: 700}, "right", true},
		{"gap between canvases", domain.Rect{X: 510, Y: 10, Width: 80, Height: 80}, "", false},
		{"outside everything", domain.Rect{X: -500, Y: -500, Width: 10, Height: 10}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HitTest(canvases, tt.rect)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("HitTest = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCanvasMap(t *testing.T) {
	m := NewCanvasMap()
	m.Set("a", domain.Rect{Width: 800})
	m.Set("b", domain.Rect{X: 900, Width: 400})
	m.Set("a", domain.Rect{Width: 1000})

	if w, ok := m.CanvasWidth("a"); !ok || w != 1000 {
		t.Errorf("CanvasWidth(a) = %v, %v", w, ok)
	}
	rects := m.CanvasRects()
	if len(rects) != 2 || rects[0].ID != "a" || rects[1].ID != "b" {
		t.Errorf("CanvasRects = %+v", rects)
	}

	m.Remove("a")
	if _, ok := m.CanvasWidth("a"); ok {
		t.Error("removed canvas still measured")
	}
	if len(m.CanvasRects()) != 1 {
		t.Error("removed canvas still listed")
	}
}

func TestHandleEdges(t *testing.T) {
	for _, h := range AllHandles {
		if h.Edges() == 0 {
			t.Errorf("handle %q has no edges", h)
		}
	}
	if Handle("x").Edges() != 0 {
		t.Error("unknown handle reported edges")
	}
}
