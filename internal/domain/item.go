package domain

// Viewport selects which layout variant of an item is being edited.
type Viewport string

const (
	ViewportDesktop Viewport = "desktop"
	ViewportMobile  Viewport = "mobile"
)

// Valid reports whether v is one of the known viewports.
func (v Viewport) Valid() bool {
	return v == ViewportDesktop || v == ViewportMobile
}

// Layout is a rectangle in grid units. Customized is only meaningful for
// the mobile variant: it stays false until the user edits that viewport.
type Layout struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Customized bool `json:"customized,omitempty"`
}

// Layouts holds one layout per viewport. Desktop is always fully populated;
// Mobile may have zero width/height until customized.
type Layouts struct {
	Desktop Layout `json:"desktop"`
	Mobile  Layout `json:"mobile"`
}

// For returns the layout that is in effect for the given viewport.
// An uncustomized mobile layout falls back to desktop.
func (l Layouts) For(v Viewport) Layout {
	if v == ViewportMobile && l.Mobile.Customized {
		return l.Mobile
	}
	return l.Desktop
}

// With returns a copy of l whose layout for v is replaced by next.
// Writing the mobile variant marks it customized and backfills any unset
// width or height from desktop.
func (l Layouts) With(v Viewport, next Layout) Layouts {
	if v != ViewportMobile {
		next.Customized = false
		l.Desktop = next
		return l
	}
	if next.Width == 0 {
		next.Width = l.Desktop.Width
	}
	if next.Height == 0 {
		next.Height = l.Desktop.Height
	}
	next.Customized = true
	l.Mobile = next
	return l
}

// GridItem is a rectangular component placed on a canvas.
type GridItem struct {
	ID       string         `json:"id"`
	CanvasID string         `json:"canvasId"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Layouts  Layouts        `json:"layouts"`
	ZIndex   int            `json:"zIndex"`
	Config   map[string]any `json:"config"`
}

// Clone returns a deep copy of the item so callers never alias store-owned
// config maps.
func (it GridItem) Clone() GridItem {
	it.Config = CloneConfig(it.Config)
	return it
}

// CloneConfig deep-copies a free-form config map, descending into nested
// maps and slices.
func CloneConfig(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneConfig(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
