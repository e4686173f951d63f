package registry

import (
	"fmt"
	"sort"

	"gridboard/internal/domain"
	"gridboard/internal/events"
)

// ── Selection / active canvas / viewport ───────────────────

// Select marks an item as the current selection.
func (r *Registry) Select(canvasID, itemID string) error {
	r.mu.Lock()
	if _, _, err := r.locate(canvasID, itemID); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("select: %w", err)
	}
	if r.selectedCanvasID == canvasID && r.selectedItemID == itemID {
		r.mu.Unlock()
		return nil
	}
	r.selectedCanvasID, r.selectedItemID = canvasID, itemID
	ch := r.commit(ChangeSelection, []string{canvasID}, []string{itemID})
	r.mu.Unlock()

	r.publish(ch)
	return nil
}

// ClearSelection drops the current selection, if any.
func (r *Registry) ClearSelection() {
	r.mu.Lock()
	if r.selectedItemID == "" && r.selectedCanvasID == "" {
		r.mu.Unlock()
		return
	}
	r.selectedCanvasID, r.selectedItemID = "", ""
	ch := r.commit(ChangeSelection, nil, nil)
	r.mu.Unlock()

	r.publish(ch)
}

// Selection returns the selected canvas and item ids (empty when none).
func (r *Registry) Selection() (canvasID, itemID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selectedCanvasID, r.selectedItemID
}

// SetActiveCanvas marks the canvas the user is currently working in.
// Re-activating the active canvas is a no-op.
func (r *Registry) SetActiveCanvas(canvasID string) error {
	r.mu.Lock()
	if _, ok := r.canvases[canvasID]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("activate canvas %s: %w", canvasID, ErrCanvasNotFound)
	}
	if r.activeCanvasID == canvasID {
		r.mu.Unlock()
		return nil
	}
	r.activeCanvasID = canvasID
	ch := r.commit(ChangeActiveCanvas, []string{canvasID}, nil)
	r.mu.Unlock()

	r.publish(ch)
	r.emit(events.CanvasActivated, events.CanvasPayload{CanvasID: canvasID})
	return nil
}

// ActiveCanvas returns the active canvas id.
func (r *Registry) ActiveCanvas() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeCanvasID
}

// SetViewport switches which layout variant gestures edit.
func (r *Registry) SetViewport(v domain.Viewport) error {
	if !v.Valid() {
		return fmt.Errorf("set viewport %q: %w", v, ErrInvalidViewport)
	}
	r.mu.Lock()
	if r.viewport == v {
		r.mu.Unlock()
		return nil
	}
	r.viewport = v
	ch := r.commit(ChangeViewport, nil, nil)
	r.mu.Unlock()

	r.publish(ch)
	return nil
}

// Viewport returns the active viewport.
func (r *Registry) Viewport() domain.Viewport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewport
}

// ── Export / import ────────────────────────────────────────

// Export captures the full state in the versioned snapshot format. Item
// configs are deep-copied.
func (r *Registry) Export(metadata map[string]any) domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := domain.Snapshot{
		Version:     domain.SnapshotVersion,
		Canvases:    make(map[string]domain.CanvasSnapshot, len(r.canvases)),
		CanvasOrder: append([]string(nil), r.order...),
		Viewport:    r.viewport,
		Metadata:    domain.CloneConfig(metadata),
	}
	for _, id := range r.order {
		c := r.canvases[id].Clone()
		if c.Items == nil {
			c.Items = []domain.GridItem{}
		}
		snap.Canvases[id] = domain.CanvasSnapshot{Items: c.Items, ZIndexCounter: c.ZIndexCounter}
	}
	return snap
}

// Replace swaps the entire state for the snapshot in one notification.
// Selection and active canvas are cleared.
func (r *Registry) Replace(snap domain.Snapshot) error {
	order := snapshotOrder(snap)
	canvases := make(map[string]*domain.Canvas, len(order))
	owner := make(map[string]string)
	for _, id := range order {
		cs := snap.Canvases[id]
		c := domain.Canvas{ID: id, Items: make([]domain.GridItem, 0, len(cs.Items)), ZIndexCounter: cs.ZIndexCounter}
		for _, it := range cs.Items {
			if it.ID == "" {
				return fmt.Errorf("import canvas %s: item with empty id", id)
			}
			if _, dup := owner[it.ID]; dup {
				return fmt.Errorf("import item %s: %w", it.ID, ErrDuplicateItem)
			}
			it = it.Clone()
			it.CanvasID = id
			owner[it.ID] = id
			c.Items = append(c.Items, it)
		}
		if m := c.MaxZIndex(); m > c.ZIndexCounter {
			c.ZIndexCounter = m
		}
		canvases[id] = &c
	}
	viewport := snap.Viewport
	if !viewport.Valid() {
		viewport = domain.ViewportDesktop
	}

	r.mu.Lock()
	r.canvases = canvases
	r.order = order
	r.owner = owner
	r.viewport = viewport
	r.selectedCanvasID, r.selectedItemID, r.activeCanvasID = "", "", ""
	ch := r.commit(ChangeReplaced, append([]string(nil), order...), nil)
	r.mu.Unlock()

	r.publish(ch)
	return nil
}

// snapshotOrder honours CanvasOrder and appends any canvases it omits in
// sorted order so imports are deterministic.
func snapshotOrder(snap domain.Snapshot) []string {
	order := make([]string, 0, len(snap.Canvases))
	seen := make(map[string]bool, len(snap.Canvases))
	for _, id := range snap.CanvasOrder {
		if _, ok := snap.Canvases[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range snap.Canvases {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
