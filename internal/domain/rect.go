package domain

// Rect is an axis-aligned rectangle in pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether inner lies entirely inside r.
func (r Rect) Contains(inner Rect) bool {
	return inner.X >= r.X && inner.Y >= r.Y &&
		inner.Right() <= r.Right() && inner.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether (x, y) lies inside r.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}
