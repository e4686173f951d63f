package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gridboard/internal/domain"
	"gridboard/internal/events"
)

var (
	ErrCanvasNotFound  = errors.New("canvas not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrDuplicateItem   = errors.New("item already exists")
	ErrDuplicateCanvas = errors.New("canvas already exists")
	ErrInvalidViewport = errors.New("invalid viewport")
)

// ─────────────────────────────────────────────────────────────
// Registry — canonical canvas/item state
// ─────────────────────────────────────────────────────────────

// Registry owns every canvas and item. Each exported mutation validates
// first, then applies atomically and fires exactly one Change to listeners,
// even for batch calls. Readers always receive deep copies.
type Registry struct {
	mu       sync.RWMutex
	canvases map[string]*domain.Canvas
	order    []string
	owner    map[string]string // itemID -> canvasID

	selectedCanvasID string
	selectedItemID   string
	activeCanvasID   string
	viewport         domain.Viewport

	version   uint64
	emitter   events.Emitter
	listeners listenerSet
}

// New creates an empty Registry. emitter may be nil.
func New(emitter events.Emitter) *Registry {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Registry{
		canvases: make(map[string]*domain.Canvas),
		owner:    make(map[string]string),
		viewport: domain.ViewportDesktop,
		emitter:  emitter,
	}
}

// Subscribe registers l for change notifications.
func (r *Registry) Subscribe(l Listener) (unsubscribe func()) {
	return r.listeners.add(l)
}

// Version increases by one for every applied mutation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// commit bumps the version under the write lock and returns the change to
// publish once the lock is released.
func (r *Registry) commit(kind ChangeKind, canvasIDs, itemIDs []string) Change {
	r.version++
	return Change{Kind: kind, CanvasIDs: canvasIDs, ItemIDs: itemIDs, Version: r.version}
}

func (r *Registry) publish(c Change) {
	r.listeners.notify(c)
}

func (r *Registry) emit(event string, data any) {
	r.emitter.Emit(context.Background(), event, data)
}

// ── Canvases ───────────────────────────────────────────────

// AddCanvas appends an empty (or pre-populated) canvas.
func (r *Registry) AddCanvas(c domain.Canvas) error {
	return r.RestoreCanvas(c, -1)
}

// RestoreCanvas inserts a canvas at index (-1 appends). Items carried by c
// are adopted with their zIndex intact.
func (r *Registry) RestoreCanvas(c domain.Canvas, index int) error {
	r.mu.Lock()
	if c.ID == "" {
		r.mu.Unlock()
		return fmt.Errorf("add canvas: empty id")
	}
	if _, exists := r.canvases[c.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("add canvas %s: %w", c.ID, ErrDuplicateCanvas)
	}
	seen := make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		if _, taken := r.owner[it.ID]; taken || seen[it.ID] {
			r.mu.Unlock()
			return fmt.Errorf("add canvas %s: item %s: %w", c.ID, it.ID, ErrDuplicateItem)
		}
		seen[it.ID] = true
	}

	cp := c.Clone()
	itemIDs := make([]string, 0, len(cp.Items))
	for i := range cp.Items {
		cp.Items[i].CanvasID = cp.ID
		r.owner[cp.Items[i].ID] = cp.ID
		itemIDs = append(itemIDs, cp.Items[i].ID)
	}
	if m := cp.MaxZIndex(); m > cp.ZIndexCounter {
		cp.ZIndexCounter = m
	}
	r.canvases[cp.ID] = &cp
	r.order = insertString(r.order, cp.ID, index)
	ch := r.commit(ChangeCanvasAdded, []string{cp.ID}, itemIDs)
	r.mu.Unlock()

	r.publish(ch)
	r.emit(events.CanvasAdded, events.CanvasPayload{CanvasID: cp.ID})
	return nil
}

// RemoveCanvas deletes a canvas with all of its items and returns what was
// removed along with its former position.
func (r *Registry) RemoveCanvas(id string) (domain.Canvas, int, error) {
	r.mu.Lock()
	c, ok := r.canvases[id]
	if !ok {
		r.mu.Unlock()
		return domain.Canvas{}, -1, fmt.Errorf("remove canvas %s: %w", id, ErrCanvasNotFound)
	}
	index := indexOfString(r.order, id)
	removed := c.Clone()
	itemIDs := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		delete(r.owner, it.ID)
		itemIDs = append(itemIDs, it.ID)
	}
	delete(r.canvases, id)
	r.order = append(r.order[:index], r.order[index+1:]...)
	if r.selectedCanvasID == id {
		r.selectedCanvasID, r.selectedItemID = "", ""
	}
	if r.activeCanvasID == id {
		r.activeCanvasID = ""
	}
	ch := r.commit(ChangeCanvasRemoved, []string{id}, itemIDs)
	r.mu.Unlock()

	r.publish(ch)
	r.emit(events.CanvasRemoved, events.CanvasPayload{CanvasID: id})
	return removed, index, nil
}

// Canvas returns a copy of one canvas.
func (r *Registry) Canvas(id string) (domain.Canvas, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.canvases[id]
	if !ok {
		return domain.Canvas{}, false
	}
	return c.Clone(), true
}

// CanvasIDs returns canvas ids in display order.
func (r *Registry) CanvasIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Canvases returns copies of every canvas in display order.
func (r *Registry) Canvases() []domain.Canvas {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Canvas, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.canvases[id].Clone())
	}
	return out
}

// ── Items: reads ───────────────────────────────────────────

// Item returns a copy of an item and its index within its canvas.
func (r *Registry) Item(canvasID, itemID string) (domain.GridItem, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, idx, err := r.locate(canvasID, itemID)
	if err != nil {
		return domain.GridItem{}, -1, err
	}
	return c.Items[idx].Clone(), idx, nil
}

// FindItem locates an item on any canvas.
func (r *Registry) FindItem(itemID string) (domain.GridItem, int, error) {
	r.mu.RLock()
	canvasID, ok := r.owner[itemID]
	r.mu.RUnlock()
	if !ok {
		return domain.GridItem{}, -1, fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}
	return r.Item(canvasID, itemID)
}

// Items returns copies of every item on a canvas in stored order.
func (r *Registry) Items(canvasID string) ([]domain.GridItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.canvases[canvasID]
	if !ok {
		return nil, fmt.Errorf("canvas %s: %w", canvasID, ErrCanvasNotFound)
	}
	return c.Clone().Items, nil
}

// locate must be called with r.mu held.
func (r *Registry) locate(canvasID, itemID string) (*domain.Canvas, int, error) {
	c, ok := r.canvases[canvasID]
	if !ok {
		return nil, -1, fmt.Errorf("canvas %s: %w", canvasID, ErrCanvasNotFound)
	}
	idx := c.IndexOf(itemID)
	if idx < 0 {
		return nil, -1, fmt.Errorf("item %s on canvas %s: %w", itemID, canvasID, ErrItemNotFound)
	}
	return c, idx, nil
}

// ── Helpers ────────────────────────────────────────────────

func insertString(s []string, v string, index int) []string {
	if index < 0 || index >= len(s) {
		return append(s, v)
	}
	s = append(s, "")
	copy(s[index+1:], s[index:])
	s[index] = v
	return s
}

func indexOfString(s []string, v string) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}
