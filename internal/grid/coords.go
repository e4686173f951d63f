package grid

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownCanvas is returned when no width has been measured for a canvas.
var ErrUnknownCanvas = errors.New("grid: canvas width unknown")

const (
	DefaultSizePercent      = 2.0
	DefaultVerticalStep     = 20.0
	DefaultMinWidthUnits    = 5
	DefaultMinHeightUnits   = 4
	defaultCanvasWidthUnits = 50
)

// Options configures the unit system.
type Options struct {
	// SizePercent is the share of a canvas's rendered width covered by one
	// horizontal grid unit.
	SizePercent float64
	// VerticalStep is the fixed pixel height of one vertical grid unit.
	VerticalStep float64
	// CanvasWidthUnits is the total number of horizontal units across a canvas.
	// Zero derives it from SizePercent.
	CanvasWidthUnits int
}

// DefaultOptions returns a 2% horizontal unit and 20px vertical unit.
func DefaultOptions() Options {
	return Options{
		SizePercent:      DefaultSizePercent,
		VerticalStep:     DefaultVerticalStep,
		CanvasWidthUnits: defaultCanvasWidthUnits,
	}
}

func (o Options) normalized() Options {
	if o.SizePercent <= 0 {
		o.SizePercent = DefaultSizePercent
	}
	if o.VerticalStep <= 0 {
		o.VerticalStep = DefaultVerticalStep
	}
	if o.CanvasWidthUnits <= 0 {
		o.CanvasWidthUnits = int(100 / o.SizePercent)
	}
	return o
}

// WidthSource measures the current rendered pixel width of a canvas.
type WidthSource interface {
	CanvasWidth(canvasID string) (float64, bool)
}

// CoordinateSystem converts between pixels and grid units. Horizontal units
// scale with each canvas's width and are cached per canvas until invalidated;
// vertical units are a fixed step.
type CoordinateSystem struct {
	mu     sync.RWMutex
	opts   Options
	source WidthSource
	widths map[string]float64 // canvasID -> rendered width
	cache  map[string]float64 // canvasID -> px per horizontal unit
}

// NewCoordinateSystem creates a CoordinateSystem. source may be nil when
// widths are pushed with SetCanvasWidth.
func NewCoordinateSystem(opts Options, source WidthSource) *CoordinateSystem {
	return &CoordinateSystem{
		opts:   opts.normalized(),
		source: source,
		widths: make(map[string]float64),
		cache:  make(map[string]float64),
	}
}

// Options returns the active options.
func (c *CoordinateSystem) Options() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// SetOptions replaces the unit options and drops every cached value.
func (c *CoordinateSystem) SetOptions(opts Options) {
	c.mu.Lock()
	c.opts = opts.normalized()
	c.cache = make(map[string]float64)
	c.mu.Unlock()
}

// CanvasWidthUnits is the number of horizontal units spanning every canvas.
func (c *CoordinateSystem) CanvasWidthUnits() int {
	return c.Options().CanvasWidthUnits
}

// SetCanvasWidth records a measured width and invalidates that canvas.
func (c *CoordinateSystem) SetCanvasWidth(canvasID string, px float64) {
	c.mu.Lock()
	c.widths[canvasID] = px
	delete(c.cache, canvasID)
	c.mu.Unlock()
}

// Invalidate drops the cached unit size of one canvas.
func (c *CoordinateSystem) Invalidate(canvasID string) {
	c.mu.Lock()
	delete(c.cache, canvasID)
	c.mu.Unlock()
}

// InvalidateAll drops every cached unit size (viewport switch, window resize).
func (c *CoordinateSystem) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[string]float64)
	c.mu.Unlock()
}

// Forget removes every trace of a canvas.
func (c *CoordinateSystem) Forget(canvasID string) {
	c.mu.Lock()
	delete(c.cache, canvasID)
	delete(c.widths, canvasID)
	c.mu.Unlock()
}

// UnitX returns the pixel width of one horizontal grid unit on a canvas.
func (c *CoordinateSystem) UnitX(canvasID string) (float64, error) {
	c.mu.RLock()
	v, ok := c.cache[canvasID]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[canvasID]; ok {
		return v, nil
	}
	width, ok := c.widths[canvasID]
	if c.source != nil {
		if w, measured := c.source.CanvasWidth(canvasID); measured {
			width, ok = w, true
			c.widths[canvasID] = w
		}
	}
	if !ok || width <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCanvas, canvasID)
	}
	v = width * c.opts.SizePercent / 100
	c.cache[canvasID] = v
	return v, nil
}

// UnitY returns the fixed pixel height of one vertical grid unit.
func (c *CoordinateSystem) UnitY() float64 {
	return c.Options().VerticalStep
}

// ToPixelsX converts horizontal units to pixels on a canvas.
func (c *CoordinateSystem) ToPixelsX(units float64, canvasID string) (float64, error) {
	u, err := c.UnitX(canvasID)
	if err != nil {
		return 0, err
	}
	return units * u, nil
}

// ToPixelsY converts vertical units to pixels.
func (c *CoordinateSystem) ToPixelsY(units float64) float64 {
	return units * c.UnitY()
}

// ToUnitsX converts a horizontal pixel distance to (fractional) units.
func (c *CoordinateSystem) ToUnitsX(px float64, canvasID string) (float64, error) {
	u, err := c.UnitX(canvasID)
	if err != nil {
		return 0, err
	}
	return px / u, nil
}

// ToUnitsY converts a vertical pixel distance to (fractional) units.
func (c *CoordinateSystem) ToUnitsY(px float64) float64 {
	return px / c.UnitY()
}
