package interact

import "gridboard/internal/grid"

// Transform is the visual-only rectangle of an item during a gesture, in
// pixels relative to its canvas.
type Transform struct {
	X, Y          float64
	Width, Height float64
}

// Surface is the rendered element a controller manipulates. SetTransform
// paints without touching the store; ClearTransform drops the visual
// override so the element renders its stored layout again. animate is set
// for snap-back after an invalid gesture.
type Surface interface {
	SetTransform(t Transform)
	ClearTransform(animate bool)
}

// Target classifies what a pointer-down landed on.
type Target int

const (
	TargetBody Target = iota
	TargetDragHandle
	TargetResizeHandle
	TargetAction
)

// Handle names one of the eight resize grips.
type Handle string

const (
	HandleTop         Handle = "n"
	HandleBottom      Handle = "s"
	HandleLeft        Handle = "w"
	HandleRight       Handle = "e"
	HandleTopLeft     Handle = "nw"
	HandleTopRight    Handle = "ne"
	HandleBottomLeft  Handle = "sw"
	HandleBottomRight Handle = "se"
)

// AllHandles lists every grip, edges first.
var AllHandles = []Handle{
	HandleTop, HandleRight, HandleBottom, HandleLeft,
	HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight,
}

// Edges returns the rectangle edges the handle moves.
func (h Handle) Edges() grid.Edge {
	switch h {
	case HandleTop:
		return grid.EdgeTop
	case HandleBottom:
		return grid.EdgeBottom
	case HandleLeft:
		return grid.EdgeLeft
	case HandleRight:
		return grid.EdgeRight
	case HandleTopLeft:
		return grid.EdgeTop | grid.EdgeLeft
	case HandleTopRight:
		return grid.EdgeTop | grid.EdgeRight
	case HandleBottomLeft:
		return grid.EdgeBottom | grid.EdgeLeft
	case HandleBottomRight:
		return grid.EdgeBottom | grid.EdgeRight
	}
	return grid.EdgeNone
}

// PointerEvent is one pointer sample in page pixels.
type PointerEvent struct {
	X, Y   float64
	Target Target
	Handle Handle
}
