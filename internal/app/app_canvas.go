package app

import (
	"fmt"

	"gridboard/internal/domain"
	"gridboard/internal/registry"
	"gridboard/internal/service"
)

// ============================================================
// Canvases and items
// ============================================================

func (a *App) AddCanvas(id string) (domain.Canvas, error) {
	return a.canvas.AddCanvas(a.ctx, id)
}

func (a *App) RemoveCanvas(id string) error {
	return a.canvas.RemoveCanvas(a.ctx, id)
}

// SetCanvasRect records where the host laid a canvas out, in page pixels.
func (a *App) SetCanvasRect(canvasID string, r domain.Rect) {
	a.canvas.SetCanvasRect(canvasID, r)
}

func (a *App) ListItems(canvasID string) ([]domain.GridItem, error) {
	return a.canvas.Registry().Items(canvasID)
}

func (a *App) AddItem(in service.NewItem) (domain.GridItem, error) {
	return a.canvas.AddItem(a.ctx, in)
}

func (a *App) AddItems(in []service.NewItem) ([]domain.GridItem, error) {
	return a.canvas.AddItems(a.ctx, in)
}

// DeleteItems removes items picked by the user; ids may span canvases.
func (a *App) DeleteItems(itemIDs []string) error {
	refs := make([]registry.ItemRef, 0, len(itemIDs))
	for _, id := range itemIDs {
		it, _, err := a.canvas.Registry().FindItem(id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		refs = append(refs, registry.ItemRef{CanvasID: it.CanvasID, ItemID: id})
	}
	return a.canvas.DeleteItems(a.ctx, refs)
}

func (a *App) UpdateItemConfig(canvasID, itemID string, cfg map[string]any) (domain.GridItem, error) {
	return a.canvas.UpdateConfig(a.ctx, canvasID, itemID, cfg)
}

func (a *App) BringToFront(canvasID, itemID string) (domain.GridItem, error) {
	return a.canvas.BringToFront(a.ctx, canvasID, itemID)
}

func (a *App) SelectItem(canvasID, itemID string) error {
	return a.canvas.Registry().Select(canvasID, itemID)
}

func (a *App) ClearSelection() {
	a.canvas.Registry().ClearSelection()
}

func (a *App) SetViewport(v domain.Viewport) error {
	return a.canvas.SetViewport(a.ctx, v)
}

func (a *App) SetActiveCanvas(id string) error {
	return a.canvas.SetActiveCanvas(a.ctx, id)
}

// ============================================================
// Undo / Redo
// ============================================================

// Undo reverts the last change and returns its label.
func (a *App) Undo() (string, error) {
	cmd, err := a.canvas.Undo(a.ctx)
	return cmd.Label, err
}

// Redo reapplies the last undone change and returns its label.
func (a *App) Redo() (string, error) {
	cmd, err := a.canvas.Redo(a.ctx)
	return cmd.Label, err
}

func (a *App) CanUndo() bool { return a.canvas.CanUndo() }
func (a *App) CanRedo() bool { return a.canvas.CanRedo() }
