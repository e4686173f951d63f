package grid

import (
	"errors"
	"fmt"
)

// ErrDoesNotFit is returned when a component is wider than its canvas on
// initial placement.
var ErrDoesNotFit = errors.New("grid: component does not fit")

// Edge is a bitmask of the rectangle edges being manipulated.
type Edge uint8

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom

	EdgeNone Edge = 0
)

// Has reports whether e includes all bits of other.
func (e Edge) Has(other Edge) bool { return e&other == other && other != 0 }

// Box is a rectangle in grid units. Fractional values appear mid-gesture;
// committed layouts are always integral.
type Box struct {
	X, Y, W, H float64
}

// Bounds describes a canvas extent. Height <= 0 means the canvas grows
// vertically without limit.
type Bounds struct {
	Width  float64
	Height float64
}

// FitPlacement clamps a new rectangle into the canvas without resizing it.
// A rectangle wider than the canvas is rejected.
func FitPlacement(b Box, bounds Bounds) (Box, error) {
	if b.W > bounds.Width {
		return b, fmt.Errorf("%w: width %.0f exceeds canvas width %.0f", ErrDoesNotFit, b.W, bounds.Width)
	}
	if bounds.Height > 0 && b.H > bounds.Height {
		return b, fmt.Errorf("%w: height %.0f exceeds canvas height %.0f", ErrDoesNotFit, b.H, bounds.Height)
	}
	return ClampPosition(b, bounds), nil
}

// ClampPosition translates b so it lies inside the canvas. Size is untouched;
// an over-wide box is pinned to x=0.
func ClampPosition(b Box, bounds Bounds) Box {
	if b.X > bounds.Width-b.W {
		b.X = bounds.Width - b.W
	}
	if b.X < 0 {
		b.X = 0
	}
	if bounds.Height > 0 && b.Y > bounds.Height-b.H {
		b.Y = bounds.Height - b.H
	}
	if b.Y < 0 {
		b.Y = 0
	}
	return b
}

// ConstrainResize resolves overflow during an interactive resize. It never
// rejects: overflow on a manipulated edge shrinks the box, overflow on the
// opposite edge translates it. The unmanipulated edge stays fixed whenever
// it already lies inside the canvas.
func ConstrainResize(b Box, edges Edge, bounds Bounds) Box {
	b.X, b.W = constrainAxis(b.X, b.W, bounds.Width, edges.Has(EdgeLeft), edges.Has(EdgeRight))
	b.Y, b.H = constrainAxis(b.Y, b.H, bounds.Height, edges.Has(EdgeTop), edges.Has(EdgeBottom))
	return b
}

// constrainAxis resolves one axis. limit <= 0 means the far side is
// unbounded.
func constrainAxis(pos, size, limit float64, low, high bool) (float64, float64) {
	bounded := limit > 0
	switch {
	case low && !high:
		// far edge anchored: translate it in if needed, then shrink from the near side
		end := pos + size
		if bounded && end > limit {
			pos -= end - limit
			end = limit
		}
		if pos < 0 {
			pos = 0
		}
		size = end - pos
	case high && !low:
		// near edge anchored
		if pos < 0 {
			pos = 0
		}
		if bounded {
			if pos > limit {
				pos = limit - min(size, limit)
			}
			if pos+size > limit {
				size = limit - pos
			}
		}
	case low && high:
		if pos < 0 {
			size += pos
			pos = 0
		}
		if bounded {
			if pos > limit {
				pos = limit
			}
			if pos+size > limit {
				size = limit - pos
			}
		}
	default:
		if bounded && size > limit {
			size = limit
		}
		if bounded && pos+size > limit {
			pos = limit - size
		}
		if pos < 0 {
			pos = 0
		}
	}
	if size < 0 {
		size = 0
	}
	return pos, size
}

// Within reports whether b satisfies 0 <= x, 0 <= y and x+w <= width
// (and y+h <= height when bounded).
func Within(b Box, bounds Bounds) bool {
	if b.X < 0 || b.Y < 0 || b.X+b.W > bounds.Width {
		return false
	}
	return bounds.Height <= 0 || b.Y+b.H <= bounds.Height
}
