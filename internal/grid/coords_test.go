package grid

import (
	"errors"
	"testing"
)

type fakeWidths struct {
	widths map[string]float64
	calls  int
}

func (f *fakeWidths) CanvasWidth(id string) (float64, bool) {
	f.calls++
	w, ok := f.widths[id]
	return w, ok
}

func TestCoordinateSystem_UnitXIsWidthRelative(t *testing.T) {
	cs := NewCoordinateSystem(DefaultOptions(), nil)
	cs.SetCanvasWidth("canvas1", 1000)
	cs.SetCanvasWidth("canvas2", 500)

	u1, err := cs.UnitX("canvas1")
	if err != nil {
		t.Fatalf("UnitX: %v", err)
	}
	u2, _ := cs.UnitX("canvas2")
	if u1 != 20 || u2 != 10 {
		t.Errorf("UnitX = %.1f, %.1f; want 20, 10", u1, u2)
	}
	if cs.UnitY() != 20 {
		t.Errorf("UnitY = %.1f, want 20", cs.UnitY())
	}
}

func TestCoordinateSystem_CachesUntilInvalidated(t *testing.T) {
	src := &fakeWidths{widths: map[string]float64{"c": 800}}
	cs := NewCoordinateSystem(DefaultOptions(), src)

	for i := 0; i < 5; i++ {
		if _, err := cs.UnitX("c"); err != nil {
			t.Fatalf("UnitX: %v", err)
		}
	}
	if src.calls != 1 {
		t.Errorf("width measured %d times, want 1", src.calls)
	}

	src.widths["c"] = 400
	cs.Invalidate("c")
	u, _ := cs.UnitX("c")
	if u != 8 {
		t.Errorf("after invalidate UnitX = %.1f, want 8", u)
	}
	if src.calls != 2 {
		t.Errorf("width measured %d times, want 2", src.calls)
	}
}

func TestCoordinateSystem_RoundTrip(t *testing.T) {
	cs := NewCoordinateSystem(DefaultOptions(), nil)
	cs.SetCanvasWidth("c", 1000)

	px, err := cs.ToPixelsX(12, "c")
	if err != nil || px != 240 {
		t.Fatalf("ToPixelsX(12) = %.1f, %v; want 240", px, err)
	}
	units, _ := cs.ToUnitsX(px, "c")
	if units != 12 {
		t.Errorf("ToUnitsX(240) = %.2f, want 12", units)
	}
	if got := cs.ToUnitsY(cs.ToPixelsY(7)); got != 7 {
		t.Errorf("vertical round trip = %.2f, want 7", got)
	}
}

func TestCoordinateSystem_UnknownCanvas(t *testing.T) {
	cs := NewCoordinateSystem(DefaultOptions(), nil)
	if _, err := cs.UnitX("nope"); !errors.Is(err, ErrUnknownCanvas) {
		t.Errorf("expected ErrUnknownCanvas, got %v", err)
	}
}

func TestCoordinateSystem_SetOptionsDropsCache(t *testing.T) {
	cs := NewCoordinateSystem(DefaultOptions(), nil)
	cs.SetCanvasWidth("c", 1000)
	_, _ = cs.UnitX("c")

	cs.SetOptions(Options{SizePercent: 5, VerticalStep: 10})
	u, _ := cs.UnitX("c")
	if u != 50 {
		t.Errorf("UnitX after SetOptions = %.1f, want 50", u)
	}
	if cs.CanvasWidthUnits() != 20 {
		t.Errorf("CanvasWidthUnits = %d, want 20 (derived from 5%%)", cs.CanvasWidthUnits())
	}
}
