package grid

// Slot is an occupied rectangle in integer grid units.
type Slot struct {
	X, Y, W, H int
}

func (a Slot) intersects(b Slot) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// maxScanRows bounds the free-slot search before falling back to stacking
// below the lowest item.
const maxScanRows = 2000

// NextFreeSlot finds the first position, scanning rows top-to-bottom and
// columns left-to-right, where a w×h rectangle fits inside widthUnits
// without overlapping any occupied slot. ok is false when w exceeds the
// canvas width.
func NextFreeSlot(occupied []Slot, w, h, widthUnits int) (x, y int, ok bool) {
	if w > widthUnits || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	if len(occupied) == 0 {
		return 0, 0, true
	}

	candidate := Slot{W: w, H: h}
	for row := 0; row < maxScanRows; row++ {
		for col := 0; col+w <= widthUnits; col++ {
			candidate.X, candidate.Y = col, row
			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					// skip past this obstacle
					col = occ.X + occ.W - 1
					break
				}
			}
			if !overlaps {
				return candidate.X, candidate.Y, true
			}
		}
	}

	bottom := 0
	for _, occ := range occupied {
		if occ.Y+occ.H > bottom {
			bottom = occ.Y + occ.H
		}
	}
	return 0, bottom, true
}
