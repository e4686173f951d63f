package registry

import (
	"fmt"

	"gridboard/internal/domain"
	"gridboard/internal/events"
)

// Insert places one item. Index -1 appends. An item with ZIndex <= 0
// receives the next value from its canvas counter; a positive ZIndex is
// kept (undo/import) and the counter is raised to cover it.
type Insert struct {
	Item  domain.GridItem
	Index int
}

// ItemRef identifies an item on a canvas.
type ItemRef struct {
	CanvasID string
	ItemID   string
}

// Removed is an item taken out of a canvas together with the index it
// occupied at the moment of removal.
type Removed struct {
	Item  domain.GridItem
	Index int
}

// ItemPatch is a partial update; nil fields are left untouched. A non-nil
// Config replaces the whole config map.
type ItemPatch struct {
	Name    *string
	Layouts *domain.Layouts
	ZIndex  *int
	Config  map[string]any
}

// ItemUpdate pairs a patch with its target.
type ItemUpdate struct {
	Ref   ItemRef
	Patch ItemPatch
}

// CanvasMove transfers an item between canvases. Index -1 appends.
// ZIndex <= 0 issues a fresh value from the destination counter.
type CanvasMove struct {
	ItemID  string
	From    string
	To      string
	Layouts domain.Layouts
	Index   int
	ZIndex  int
}

// AddItem appends one item to its canvas.
func (r *Registry) AddItem(item domain.GridItem) (domain.GridItem, error) {
	added, err := r.AddItems([]Insert{{Item: item, Index: -1}})
	if err != nil {
		return domain.GridItem{}, err
	}
	return added[0], nil
}

// AddItems inserts a batch of items with a single notification. Inserts are
// applied in order, so indexes refer to the canvas state after earlier
// inserts in the same batch.
func (r *Registry) AddItems(batch []Insert) ([]domain.GridItem, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	seen := make(map[string]bool, len(batch))
	for _, in := range batch {
		if in.Item.ID == "" {
			r.mu.Unlock()
			return nil, fmt.Errorf("add item: empty id")
		}
		if _, ok := r.canvases[in.Item.CanvasID]; !ok {
			r.mu.Unlock()
			return nil, fmt.Errorf("add item %s: canvas %s: %w", in.Item.ID, in.Item.CanvasID, ErrCanvasNotFound)
		}
		if _, taken := r.owner[in.Item.ID]; taken || seen[in.Item.ID] {
			r.mu.Unlock()
			return nil, fmt.Errorf("add item %s: %w", in.Item.ID, ErrDuplicateItem)
		}
		seen[in.Item.ID] = true
	}

	added := make([]domain.GridItem, 0, len(batch))
	canvasIDs := make([]string, 0, 1)
	itemIDs := make([]string, 0, len(batch))
	for _, in := range batch {
		c := r.canvases[in.Item.CanvasID]
		it := in.Item.Clone()
		if it.ZIndex <= 0 {
			c.ZIndexCounter++
			it.ZIndex = c.ZIndexCounter
		} else if it.ZIndex > c.ZIndexCounter {
			c.ZIndexCounter = it.ZIndex
		}
		c.Items = insertItem(c.Items, it, in.Index)
		r.owner[it.ID] = c.ID
		added = append(added, it.Clone())
		itemIDs = append(itemIDs, it.ID)
		canvasIDs = appendUnique(canvasIDs, c.ID)
	}
	ch := r.commit(ChangeItemsAdded, canvasIDs, itemIDs)
	r.mu.Unlock()

	r.publish(ch)
	for _, cid := range canvasIDs {
		r.emit(events.ItemAdded, events.ItemsPayload{CanvasID: cid, ItemIDs: idsOn(added, cid)})
	}
	return added, nil
}

// RemoveItem deletes one item.
func (r *Registry) RemoveItem(canvasID, itemID string) (Removed, error) {
	removed, err := r.RemoveItems([]ItemRef{{CanvasID: canvasID, ItemID: itemID}})
	if err != nil {
		return Removed{}, err
	}
	return removed[0], nil
}

// RemoveItems deletes a batch of items with a single notification. Each
// Removed.Index is the position at the moment that item was taken out, so
// reinserting in reverse order restores the original arrangement exactly.
func (r *Registry) RemoveItems(refs []ItemRef) ([]Removed, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if _, _, err := r.locate(ref.CanvasID, ref.ItemID); err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("remove item: %w", err)
		}
		if seen[ref.ItemID] {
			r.mu.Unlock()
			return nil, fmt.Errorf("remove item %s: listed twice", ref.ItemID)
		}
		seen[ref.ItemID] = true
	}

	out := make([]Removed, 0, len(refs))
	canvasIDs := make([]string, 0, 1)
	itemIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		c := r.canvases[ref.CanvasID]
		idx := c.IndexOf(ref.ItemID)
		out = append(out, Removed{Item: c.Items[idx].Clone(), Index: idx})
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		delete(r.owner, ref.ItemID)
		if r.selectedItemID == ref.ItemID {
			r.selectedItemID, r.selectedCanvasID = "", ""
		}
		itemIDs = append(itemIDs, ref.ItemID)
		canvasIDs = appendUnique(canvasIDs, ref.CanvasID)
	}
	ch := r.commit(ChangeItemsRemoved, canvasIDs, itemIDs)
	r.mu.Unlock()

	r.publish(ch)
	for _, cid := range canvasIDs {
		var ids []string
		for _, rm := range out {
			if rm.Item.CanvasID == cid {
				ids = append(ids, rm.Item.ID)
			}
		}
		r.emit(events.ItemDeleted, events.ItemsPayload{CanvasID: cid, ItemIDs: ids})
	}
	return out, nil
}

// UpdateItem applies a partial update to one item.
func (r *Registry) UpdateItem(canvasID, itemID string, patch ItemPatch) (domain.GridItem, error) {
	updated, err := r.UpdateItems([]ItemUpdate{{Ref: ItemRef{CanvasID: canvasID, ItemID: itemID}, Patch: patch}})
	if err != nil {
		return domain.GridItem{}, err
	}
	return updated[0], nil
}

// UpdateItems applies a batch of partial updates with a single notification.
func (r *Registry) UpdateItems(updates []ItemUpdate) ([]domain.GridItem, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	for _, u := range updates {
		if _, _, err := r.locate(u.Ref.CanvasID, u.Ref.ItemID); err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("update item: %w", err)
		}
	}

	out := make([]domain.GridItem, 0, len(updates))
	canvasIDs := make([]string, 0, 1)
	itemIDs := make([]string, 0, len(updates))
	for _, u := range updates {
		c, idx, _ := r.locate(u.Ref.CanvasID, u.Ref.ItemID)
		it := c.Items[idx]
		if u.Patch.Name != nil {
			it.Name = *u.Patch.Name
		}
		if u.Patch.Layouts != nil {
			it.Layouts = *u.Patch.Layouts
		}
		if u.Patch.ZIndex != nil {
			it.ZIndex = *u.Patch.ZIndex
			if it.ZIndex > c.ZIndexCounter {
				c.ZIndexCounter = it.ZIndex
			}
		}
		if u.Patch.Config != nil {
			it.Config = domain.CloneConfig(u.Patch.Config)
		}
		c.Items[idx] = it
		out = append(out, it.Clone())
		itemIDs = append(itemIDs, it.ID)
		canvasIDs = appendUnique(canvasIDs, c.ID)
	}
	ch := r.commit(ChangeItemsUpdated, canvasIDs, itemIDs)
	r.mu.Unlock()

	r.publish(ch)
	return out, nil
}

// MoveItemToCanvas reassigns an item to another canvas, transferring list
// membership and zIndex in one step.
func (r *Registry) MoveItemToCanvas(m CanvasMove) (domain.GridItem, error) {
	r.mu.Lock()
	src, idx, err := r.locate(m.From, m.ItemID)
	if err != nil {
		r.mu.Unlock()
		return domain.GridItem{}, fmt.Errorf("move item: %w", err)
	}
	dst, ok := r.canvases[m.To]
	if !ok {
		r.mu.Unlock()
		return domain.GridItem{}, fmt.Errorf("move item %s: canvas %s: %w", m.ItemID, m.To, ErrCanvasNotFound)
	}

	it := src.Items[idx]
	src.Items = append(src.Items[:idx], src.Items[idx+1:]...)
	it.CanvasID = dst.ID
	it.Layouts = m.Layouts
	if m.ZIndex <= 0 {
		dst.ZIndexCounter++
		it.ZIndex = dst.ZIndexCounter
	} else {
		it.ZIndex = m.ZIndex
		if it.ZIndex > dst.ZIndexCounter {
			dst.ZIndexCounter = it.ZIndex
		}
	}
	dst.Items = insertItem(dst.Items, it, m.Index)
	r.owner[it.ID] = dst.ID
	if r.selectedItemID == it.ID {
		r.selectedCanvasID = dst.ID
	}
	moved := it.Clone()
	ch := r.commit(ChangeItemMoved, []string{src.ID, dst.ID}, []string{it.ID})
	r.mu.Unlock()

	r.publish(ch)
	return moved, nil
}

// BringToFront gives an item the next zIndex of its canvas and returns the
// previous and new values.
func (r *Registry) BringToFront(canvasID, itemID string) (before, after int, err error) {
	r.mu.Lock()
	c, idx, err := r.locate(canvasID, itemID)
	if err != nil {
		r.mu.Unlock()
		return 0, 0, fmt.Errorf("bring to front: %w", err)
	}
	before = c.Items[idx].ZIndex
	c.ZIndexCounter++
	after = c.ZIndexCounter
	c.Items[idx].ZIndex = after
	ch := r.commit(ChangeItemsUpdated, []string{canvasID}, []string{itemID})
	r.mu.Unlock()

	r.publish(ch)
	return before, after, nil
}

// ── Helpers ────────────────────────────────────────────────

func insertItem(items []domain.GridItem, it domain.GridItem, index int) []domain.GridItem {
	if index < 0 || index >= len(items) {
		return append(items, it)
	}
	items = append(items, domain.GridItem{})
	copy(items[index+1:], items[index:])
	items[index] = it
	return items
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func idsOn(items []domain.GridItem, canvasID string) []string {
	var ids []string
	for _, it := range items {
		if it.CanvasID == canvasID {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
