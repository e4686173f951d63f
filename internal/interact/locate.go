package interact

import (
	"sync"

	"gridboard/internal/domain"
)

// CanvasRect is a canvas's measured page rectangle.
type CanvasRect struct {
	ID   string
	Rect domain.Rect
}

// CanvasLocator reports where canvases are rendered.
type CanvasLocator interface {
	CanvasRect(canvasID string) (domain.Rect, bool)
	CanvasRects() []CanvasRect
}

// CanvasMap holds page rectangles reported by the host. It also serves as
// the coordinate system's width source.
type CanvasMap struct {
	mu    sync.RWMutex
	rects map[string]domain.Rect
	order []string
}

func NewCanvasMap() *CanvasMap {
	return &CanvasMap{rects: make(map[string]domain.Rect)}
}

// Set records or updates a canvas rectangle.
func (m *CanvasMap) Set(canvasID string, r domain.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rects[canvasID]; !ok {
		m.order = append(m.order, canvasID)
	}
	m.rects[canvasID] = r
}

// Remove forgets a canvas.
func (m *CanvasMap) Remove(canvasID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rects, canvasID)
	for i, id := range m.order {
		if id == canvasID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func (m *CanvasMap) CanvasRect(canvasID string) (domain.Rect, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rects[canvasID]
	return r, ok
}

func (m *CanvasMap) CanvasRects() []CanvasRect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CanvasRect, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, CanvasRect{ID: id, Rect: m.rects[id]})
	}
	return out
}

// CanvasWidth implements grid.WidthSource.
func (m *CanvasMap) CanvasWidth(canvasID string) (float64, bool) {
	r, ok := m.CanvasRect(canvasID)
	if !ok || r.Width <= 0 {
		return 0, false
	}
	return r.Width, true
}

// HitTest picks the canvas a dragged rectangle was dropped on. A canvas
// fully containing r wins; otherwise the canvas containing r's center,
// which handles items larger than the drop area.
func HitTest(canvases []CanvasRect, r domain.Rect) (string, bool) {
	for _, c := range canvases {
		if c.Rect.Contains(r) {
			return c.ID, true
		}
	}
	cx, cy := r.Center()
	for _, c := range canvases {
		if c.Rect.ContainsPoint(cx, cy) {
			return c.ID, true
		}
	}
	return "", false
}
