package grid

import "math"

// SnapNearest rounds px to the nearest multiple of step.
func SnapNearest(px, step float64) float64 {
	if step <= 0 {
		return px
	}
	return math.Round(px/step) * step
}

// SnapDirectional rounds a dimension toward the direction it changed from
// start: growth rounds up, shrinkage rounds down, no change rounds normally.
func SnapDirectional(px, start, step float64) float64 {
	if step <= 0 {
		return px
	}
	switch {
	case px > start:
		return math.Ceil(px/step-epsilon) * step
	case px < start:
		return math.Floor(px/step+epsilon) * step
	default:
		return math.Round(px/step) * step
	}
}

// epsilon absorbs float noise so an exact grid multiple never jumps a line.
const epsilon = 1e-9

// Units converts an already snapped pixel value to integer grid units.
func Units(px, step float64) int {
	if step <= 0 {
		return 0
	}
	return int(math.Round(px / step))
}
