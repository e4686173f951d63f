package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
	"gridboard/internal/registry"
)

// ErrSizeOutOfRange is returned when a requested item size violates the
// limits of its type.
var ErrSizeOutOfRange = errors.New("size outside type limits")

// NewItem describes an item to add. A nil X or Y places the item in the
// first free slot of its canvas; a zero size uses the type default.
type NewItem struct {
	ID       string
	CanvasID string
	Type     string
	Name     string
	X, Y     *int
	Width    int
	Height   int
	Config   map[string]any
}

// ConfigUpdate merges Config into an item's config. A nil value removes
// the key.
type ConfigUpdate struct {
	CanvasID string
	ItemID   string
	Config   map[string]any
}

// ── Add ────────────────────────────────────────────────────

// AddItem adds one item. See AddItems.
func (s *CanvasService) AddItem(ctx context.Context, in NewItem) (domain.GridItem, error) {
	added, err := s.AddItems(ctx, []NewItem{in})
	if err != nil {
		return domain.GridItem{}, err
	}
	return added[0], nil
}

// AddItems places a batch of items as one undoable step. Every item is
// validated before anything is written; an item wider than the canvas
// fails the whole batch with grid.ErrDoesNotFit.
func (s *CanvasService) AddItems(ctx context.Context, items []NewItem) ([]domain.GridItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := s.bounds()
	widthUnits := s.coords.CanvasWidthUnits()
	occupied := make(map[string][]grid.Slot)
	counts := make(map[string]int)
	batch := make([]registry.Insert, 0, len(items))

	for _, in := range items {
		if _, ok := occupied[in.CanvasID]; !ok {
			existing, err := s.reg.Items(in.CanvasID)
			if err != nil {
				return nil, fmt.Errorf("add item: %w", err)
			}
			slots := make([]grid.Slot, 0, len(existing))
			for _, it := range existing {
				d := it.Layouts.Desktop
				slots = append(slots, grid.Slot{X: d.X, Y: d.Y, W: d.Width, H: d.Height})
			}
			occupied[in.CanvasID] = slots
			counts[in.CanvasID] = len(existing)
		}

		it, err := s.buildItem(in, occupied[in.CanvasID], widthUnits, bounds)
		if err != nil {
			return nil, err
		}
		d := it.Layouts.Desktop
		occupied[in.CanvasID] = append(occupied[in.CanvasID], grid.Slot{X: d.X, Y: d.Y, W: d.Width, H: d.Height})
		batch = append(batch, registry.Insert{Item: it, Index: -1})
	}

	added, err := s.reg.AddItems(batch)
	if err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}
	entries := make([]history.ItemEntry, 0, len(added))
	for _, it := range added {
		entries = append(entries, history.ItemEntry{Item: it, Index: counts[it.CanvasID]})
		counts[it.CanvasID]++
	}
	label := "Add item"
	if len(added) > 1 {
		label = fmt.Sprintf("Add %d items", len(added))
	}
	s.stack.Push(history.AddItems(label, entries))
	return added, nil
}

func (s *CanvasService) buildItem(in NewItem, occupied []grid.Slot, widthUnits int, bounds grid.Bounds) (domain.GridItem, error) {
	l := s.types.Limits(in.Type)
	if in.Width > 0 && in.Width != clampUnits(in.Width, l.MinWidth, l.MaxWidth) {
		return domain.GridItem{}, fmt.Errorf("add item %s: %w: width %d not in [%d, %s]", in.Name, ErrSizeOutOfRange, in.Width, l.MinWidth, limitString(l.MaxWidth))
	}
	if in.Height > 0 && in.Height != clampUnits(in.Height, l.MinHeight, l.MaxHeight) {
		return domain.GridItem{}, fmt.Errorf("add item %s: %w: height %d not in [%d, %s]", in.Name, ErrSizeOutOfRange, in.Height, l.MinHeight, limitString(l.MaxHeight))
	}
	w, h := in.Width, in.Height
	if w <= 0 || h <= 0 {
		dw, dh := s.types.DefaultSize(in.Type)
		if w <= 0 {
			w = clampUnits(dw, l.MinWidth, l.MaxWidth)
		}
		if h <= 0 {
			h = clampUnits(dh, l.MinHeight, l.MaxHeight)
		}
	}

	var x, y int
	if in.X == nil || in.Y == nil {
		fx, fy, ok := grid.NextFreeSlot(occupied, w, h, widthUnits)
		if !ok {
			return domain.GridItem{}, fmt.Errorf("add item %s: %w: width %d exceeds canvas width %d", in.Name, grid.ErrDoesNotFit, w, widthUnits)
		}
		x, y = fx, fy
		if in.X != nil {
			x = *in.X
		}
		if in.Y != nil {
			y = *in.Y
		}
	} else {
		x, y = *in.X, *in.Y
	}
	box, err := grid.FitPlacement(grid.Box{X: float64(x), Y: float64(y), W: float64(w), H: float64(h)}, bounds)
	if err != nil {
		return domain.GridItem{}, fmt.Errorf("add item %s: %w", in.Name, err)
	}

	cfg := map[string]any{}
	if t, ok := s.types.Lookup(in.Type); ok {
		for k, v := range t.DefaultConfig {
			cfg[k] = v
		}
	}
	for k, v := range domain.CloneConfig(in.Config) {
		cfg[k] = v
	}

	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	return domain.GridItem{
		ID:       id,
		CanvasID: in.CanvasID,
		Type:     in.Type,
		Name:     in.Name,
		Layouts: domain.Layouts{Desktop: domain.Layout{
			X: int(box.X), Y: int(box.Y), Width: int(box.W), Height: int(box.H),
		}},
		Config: cfg,
	}, nil
}

// ── Delete ─────────────────────────────────────────────────

// DeleteItem removes one item. See DeleteItems.
func (s *CanvasService) DeleteItem(ctx context.Context, canvasID, itemID string) error {
	return s.DeleteItems(ctx, []registry.ItemRef{{CanvasID: canvasID, ItemID: itemID}})
}

// DeleteItems removes a batch of items as one undoable step. Missing items
// are skipped. The deletion hook is asked about every remaining item before
// anything is removed; one refusal aborts the whole batch.
func (s *CanvasService) DeleteItems(ctx context.Context, refs []registry.ItemRef) error {
	s.mu.Lock()
	hook := s.hook
	s.mu.Unlock()

	var found []registry.ItemRef
	for _, ref := range refs {
		it, _, err := s.reg.Item(ref.CanvasID, ref.ItemID)
		if err != nil {
			log.Printf("canvas: delete %s/%s: %v, skipping", ref.CanvasID, ref.ItemID, err)
			continue
		}
		// the hook may block on a human, so it runs outside the lock
		if hook != nil {
			ok, err := hook(ctx, DeletionRequest{Item: it, CanvasID: ref.CanvasID, ItemID: ref.ItemID})
			if err != nil {
				return fmt.Errorf("delete %s: %w: %v", ref.ItemID, ErrDeletionRejected, err)
			}
			if !ok {
				return fmt.Errorf("delete %s: %w", ref.ItemID, ErrDeletionRejected)
			}
		}
		found = append(found, ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	live := found[:0]
	for _, ref := range found {
		if _, _, err := s.reg.Item(ref.CanvasID, ref.ItemID); err != nil {
			log.Printf("canvas: delete %s/%s: gone before removal, skipping", ref.CanvasID, ref.ItemID)
			continue
		}
		live = append(live, ref)
	}
	if len(live) == 0 {
		return nil
	}

	removed, err := s.reg.RemoveItems(live)
	if err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	entries := make([]history.ItemEntry, 0, len(removed))
	for _, r := range removed {
		entries = append(entries, history.ItemEntry{Item: r.Item, Index: r.Index})
	}
	label := "Delete item"
	if len(entries) > 1 {
		label = fmt.Sprintf("Delete %d items", len(entries))
	}
	s.stack.Push(history.DeleteItems(label, entries))
	return nil
}

// ── Config ─────────────────────────────────────────────────

// UpdateConfig merges cfg into one item's config.
func (s *CanvasService) UpdateConfig(ctx context.Context, canvasID, itemID string, cfg map[string]any) (domain.GridItem, error) {
	if err := s.UpdateConfigs(ctx, []ConfigUpdate{{CanvasID: canvasID, ItemID: itemID, Config: cfg}}); err != nil {
		return domain.GridItem{}, err
	}
	it, _, err := s.reg.Item(canvasID, itemID)
	return it, err
}

// UpdateConfigs applies a batch of config merges as one undoable step.
func (s *CanvasService) UpdateConfigs(ctx context.Context, updates []ConfigUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := make([]history.ConfigChange, 0, len(updates))
	for _, u := range updates {
		it, _, err := s.reg.Item(u.CanvasID, u.ItemID)
		if err != nil {
			log.Printf("canvas: update config %s/%s: %v", u.CanvasID, u.ItemID, err)
			return fmt.Errorf("update config: %w", err)
		}
		after := domain.CloneConfig(it.Config)
		if after == nil {
			after = map[string]any{}
		}
		for k, v := range domain.CloneConfig(u.Config) {
			if v == nil {
				delete(after, k)
				continue
			}
			after[k] = v
		}
		changes = append(changes, history.ConfigChange{
			CanvasID: u.CanvasID, ItemID: u.ItemID, Before: it.Config, After: after,
		})
	}
	label := "Edit config"
	if len(changes) > 1 {
		label = fmt.Sprintf("Edit %d configs", len(changes))
	}
	if _, err := s.stack.Execute(history.UpdateConfig(label, changes)); err != nil {
		return err
	}
	return nil
}

// ── Move / resize ──────────────────────────────────────────

// MoveItem places an item at grid position (x, y) in the active viewport,
// clamped into the canvas. Unchanged positions record nothing.
func (s *CanvasService) MoveItem(ctx context.Context, canvasID, itemID string, x, y int) (domain.GridItem, error) {
	s.mu.Lock()
	it, idx, err := s.reg.Item(canvasID, itemID)
	if err != nil {
		s.mu.Unlock()
		log.Printf("canvas: move %s/%s: %v", canvasID, itemID, err)
		return domain.GridItem{}, fmt.Errorf("move item: %w", err)
	}
	v := s.reg.Viewport()
	cur := it.Layouts.For(v)
	box := grid.ClampPosition(grid.Box{X: float64(x), Y: float64(y), W: float64(cur.Width), H: float64(cur.Height)}, s.bounds())
	next := cur
	next.X, next.Y = int(box.X), int(box.Y)
	if next.X == cur.X && next.Y == cur.Y {
		s.mu.Unlock()
		return it, nil
	}
	updated, err := s.commitLayout(it, idx, v, next, "Move "+it.Name)
	s.mu.Unlock()
	if err != nil {
		return domain.GridItem{}, err
	}

	s.emitter.Emit(ctx, events.ItemMoved, events.MovePayload{
		ItemID: itemID, SourceCanvasID: canvasID, TargetCanvasID: canvasID,
		Before: cur, After: updated.Layouts.For(v), Viewport: v,
	})
	return updated, nil
}

// ResizeItem sets an item's size in grid units, applying the type's limits
// and shrinking against the right and bottom canvas edges.
func (s *CanvasService) ResizeItem(ctx context.Context, canvasID, itemID string, width, height int) (domain.GridItem, error) {
	s.mu.Lock()
	it, idx, err := s.reg.Item(canvasID, itemID)
	if err != nil {
		s.mu.Unlock()
		log.Printf("canvas: resize %s/%s: %v", canvasID, itemID, err)
		return domain.GridItem{}, fmt.Errorf("resize item: %w", err)
	}
	v := s.reg.Viewport()
	cur := it.Layouts.For(v)
	l := s.types.Limits(it.Type)
	w, h := clampUnits(width, l.MinWidth, l.MaxWidth), clampUnits(height, l.MinHeight, l.MaxHeight)
	box := grid.ConstrainResize(grid.Box{X: float64(cur.X), Y: float64(cur.Y), W: float64(w), H: float64(h)},
		grid.EdgeRight|grid.EdgeBottom, s.bounds())
	next := cur
	next.X, next.Y = int(math.Round(box.X)), int(math.Round(box.Y))
	next.Width, next.Height = int(math.Round(box.W)), int(math.Round(box.H))
	if next == cur {
		s.mu.Unlock()
		return it, nil
	}
	updated, err := s.commitLayout(it, idx, v, next, "Resize "+it.Name)
	s.mu.Unlock()
	if err != nil {
		return domain.GridItem{}, err
	}

	s.emitter.Emit(ctx, events.ItemResized, events.MovePayload{
		ItemID: itemID, SourceCanvasID: canvasID, TargetCanvasID: canvasID,
		Before: cur, After: updated.Layouts.For(v), Viewport: v,
	})
	return updated, nil
}

// commitLayout must be called with s.mu held.
func (s *CanvasService) commitLayout(it domain.GridItem, idx int, v domain.Viewport, next domain.Layout, label string) (domain.GridItem, error) {
	change := history.MoveChange{
		ItemID:         it.ID,
		SourceCanvasID: it.CanvasID,
		TargetCanvasID: it.CanvasID,
		Before:         it.Layouts,
		After:          it.Layouts.With(v, next),
		OriginalIndex:  idx,
		BeforeZIndex:   it.ZIndex,
		AfterZIndex:    it.ZIndex,
	}
	if _, err := s.stack.Execute(history.MoveItem(label, change)); err != nil {
		return domain.GridItem{}, err
	}
	updated, _, err := s.reg.Item(it.CanvasID, it.ID)
	return updated, err
}

// BringToFront gives an item the next zIndex of its canvas as an undoable
// step. An item already holding the top value is left alone.
func (s *CanvasService) BringToFront(ctx context.Context, canvasID, itemID string) (domain.GridItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.reg.Canvas(canvasID)
	if !ok {
		log.Printf("canvas: bring to front %s/%s: canvas not found", canvasID, itemID)
		return domain.GridItem{}, fmt.Errorf("bring to front: canvas %s: %w", canvasID, registry.ErrCanvasNotFound)
	}
	idx := c.IndexOf(itemID)
	if idx < 0 {
		log.Printf("canvas: bring to front %s/%s: item not found", canvasID, itemID)
		return domain.GridItem{}, fmt.Errorf("bring to front %s: %w", itemID, registry.ErrItemNotFound)
	}
	it := c.Items[idx]
	if it.ZIndex == c.ZIndexCounter {
		return it, nil
	}
	before, after, err := s.reg.BringToFront(canvasID, itemID)
	if err != nil {
		return domain.GridItem{}, err
	}
	s.stack.Push(history.MoveItem("Bring to front", history.MoveChange{
		ItemID:         itemID,
		SourceCanvasID: canvasID,
		TargetCanvasID: canvasID,
		Before:         it.Layouts,
		After:          it.Layouts,
		OriginalIndex:  idx,
		BeforeZIndex:   before,
		AfterZIndex:    after,
	}))
	it.ZIndex = after
	return it, nil
}

// ── Gesture commits ────────────────────────────────────────

// CommitMove writes a resolved gesture and records it. It implements
// interact.Committer; the controller emits the matching event.
func (s *CanvasService) CommitMove(ctx context.Context, change history.MoveChange, label string) (domain.GridItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.stack.Execute(history.MoveItem(label, change)); err != nil {
		return domain.GridItem{}, err
	}
	it, _, err := s.reg.FindItem(change.ItemID)
	return it, err
}

// MoveItemToCanvas transfers an item dropped at pixel (x, y) relative to
// the target canvas. It implements interact.CrossCanvasMover.
func (s *CanvasService) MoveItemToCanvas(ctx context.Context, itemID, fromCanvasID, toCanvasID string, x, y float64) (domain.GridItem, error) {
	if _, ok := s.reg.Canvas(toCanvasID); !ok {
		log.Printf("canvas: transfer %s: canvas %s not found", itemID, toCanvasID)
		return domain.GridItem{}, fmt.Errorf("move item to canvas %s: %w", toCanvasID, registry.ErrCanvasNotFound)
	}
	ux, err := s.coords.ToUnitsX(x, toCanvasID)
	if err != nil {
		return domain.GridItem{}, fmt.Errorf("move item to canvas: %w", err)
	}
	return s.transfer(ctx, itemID, fromCanvasID, toCanvasID, ux, s.coords.ToUnitsY(y))
}

// TransferItem moves an item to another canvas at grid position (x, y).
func (s *CanvasService) TransferItem(ctx context.Context, itemID, fromCanvasID, toCanvasID string, x, y int) (domain.GridItem, error) {
	return s.transfer(ctx, itemID, fromCanvasID, toCanvasID, float64(x), float64(y))
}

// transfer rounds and fits (x, y) to the target canvas, gives the item a
// fresh zIndex there and records the move as one undoable step.
func (s *CanvasService) transfer(ctx context.Context, itemID, fromCanvasID, toCanvasID string, x, y float64) (domain.GridItem, error) {
	if fromCanvasID == toCanvasID {
		return domain.GridItem{}, fmt.Errorf("move item %s: source and target canvas are both %s", itemID, toCanvasID)
	}
	s.mu.Lock()
	it, idx, err := s.reg.Item(fromCanvasID, itemID)
	if err != nil {
		s.mu.Unlock()
		log.Printf("canvas: transfer %s: %v", itemID, err)
		return domain.GridItem{}, fmt.Errorf("move item to canvas: %w", err)
	}
	if _, ok := s.reg.Canvas(toCanvasID); !ok {
		s.mu.Unlock()
		log.Printf("canvas: transfer %s: canvas %s not found", itemID, toCanvasID)
		return domain.GridItem{}, fmt.Errorf("move item to canvas %s: %w", toCanvasID, registry.ErrCanvasNotFound)
	}

	v := s.reg.Viewport()
	cur := it.Layouts.For(v)
	box, err := grid.FitPlacement(grid.Box{
		X: math.Round(x), Y: math.Round(y), W: float64(cur.Width), H: float64(cur.Height),
	}, s.bounds())
	if err != nil {
		s.mu.Unlock()
		return domain.GridItem{}, fmt.Errorf("move item to canvas: %w", err)
	}
	next := cur
	next.X, next.Y = int(box.X), int(box.Y)
	after := it.Layouts.With(v, next)

	moved, err := s.reg.MoveItemToCanvas(registry.CanvasMove{
		ItemID: itemID, From: fromCanvasID, To: toCanvasID, Layouts: after, Index: -1,
	})
	if err != nil {
		s.mu.Unlock()
		return domain.GridItem{}, fmt.Errorf("move item to canvas: %w", err)
	}
	s.stack.Push(history.MoveItem("Move "+it.Name+" to "+toCanvasID, history.MoveChange{
		ItemID:         itemID,
		SourceCanvasID: fromCanvasID,
		TargetCanvasID: toCanvasID,
		Before:         it.Layouts,
		After:          after,
		OriginalIndex:  idx,
		BeforeZIndex:   it.ZIndex,
		AfterZIndex:    moved.ZIndex,
	}))
	s.mu.Unlock()

	s.emitter.Emit(ctx, events.ItemMoved, events.MovePayload{
		ItemID: itemID, SourceCanvasID: fromCanvasID, TargetCanvasID: toCanvasID,
		Before: cur, After: moved.Layouts.For(v), Viewport: v,
	})
	if err := s.reg.SetActiveCanvas(toCanvasID); err != nil {
		log.Printf("canvas: activate %s: %v", toCanvasID, err)
	}
	return moved, nil
}

func limitString(max int) string {
	if max <= 0 {
		return "∞"
	}
	return fmt.Sprint(max)
}

func clampUnits(v, min, max int) int {
	if max > 0 && v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}
