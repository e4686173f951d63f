package domain

// Canvas is an independently bounded placement surface. Items are kept in
// insertion order; ZIndexCounter only ever grows.
type Canvas struct {
	ID            string     `json:"id"`
	Items         []GridItem `json:"items"`
	ZIndexCounter int        `json:"zIndexCounter"`
}

// Clone returns a deep copy of the canvas and all of its items.
func (c Canvas) Clone() Canvas {
	items := make([]GridItem, len(c.Items))
	for i := range c.Items {
		items[i] = c.Items[i].Clone()
	}
	c.Items = items
	return c
}

// IndexOf returns the position of itemID in the canvas, or -1.
func (c Canvas) IndexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// MaxZIndex returns the largest zIndex held by any item, or 0 when empty.
func (c Canvas) MaxZIndex() int {
	max := 0
	for _, it := range c.Items {
		if it.ZIndex > max {
			max = it.ZIndex
		}
	}
	return max
}
