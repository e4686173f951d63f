package history

import (
	"errors"
	"fmt"

	"gridboard/internal/domain"
	"gridboard/internal/registry"
)

var ErrUnknownKind = errors.New("unknown command kind")

// Target is the part of the registry commands replay against.
type Target interface {
	AddItems(batch []registry.Insert) ([]domain.GridItem, error)
	RemoveItems(refs []registry.ItemRef) ([]registry.Removed, error)
	UpdateItems(updates []registry.ItemUpdate) ([]domain.GridItem, error)
	MoveItemToCanvas(m registry.CanvasMove) (domain.GridItem, error)
	RestoreCanvas(c domain.Canvas, index int) error
	RemoveCanvas(id string) (domain.Canvas, int, error)
}

type handler struct {
	apply  func(Target, Command) error
	invert func(Target, Command) error
}

var handlers = map[Kind]handler{
	KindAddItems:     {apply: insertEntries, invert: removeEntries},
	KindDeleteItems:  {apply: removeEntries, invert: insertEntries},
	KindMoveItem:     {apply: applyMove, invert: invertMove},
	KindUpdateConfig: {apply: applyConfig(false), invert: applyConfig(true)},
	KindAddCanvas:    {apply: restoreCanvas, invert: dropCanvas},
	KindRemoveCanvas: {apply: dropCanvas, invert: restoreCanvas},
}

// Apply performs cmd forward against t.
func Apply(t Target, cmd Command) error {
	h, ok := handlers[cmd.Kind]
	if !ok {
		return fmt.Errorf("apply %q: %w", cmd.Kind, ErrUnknownKind)
	}
	return h.apply(t, cmd)
}

// Invert reverses cmd against t.
func Invert(t Target, cmd Command) error {
	h, ok := handlers[cmd.Kind]
	if !ok {
		return fmt.Errorf("invert %q: %w", cmd.Kind, ErrUnknownKind)
	}
	return h.invert(t, cmd)
}

// insertEntries is the forward direction of an add and the inverse of a
// delete. A delete records indexes in removal order, so it is replayed in
// reverse.
func insertEntries(t Target, cmd Command) error {
	batch := make([]registry.Insert, 0, len(cmd.Items))
	if cmd.Kind == KindDeleteItems {
		for i := len(cmd.Items) - 1; i >= 0; i-- {
			batch = append(batch, registry.Insert{Item: cmd.Items[i].Item.Clone(), Index: cmd.Items[i].Index})
		}
	} else {
		for _, e := range cmd.Items {
			batch = append(batch, registry.Insert{Item: e.Item.Clone(), Index: e.Index})
		}
	}
	_, err := t.AddItems(batch)
	return err
}

func removeEntries(t Target, cmd Command) error {
	refs := make([]registry.ItemRef, 0, len(cmd.Items))
	if cmd.Kind == KindAddItems {
		for i := len(cmd.Items) - 1; i >= 0; i-- {
			refs = append(refs, registry.ItemRef{CanvasID: cmd.Items[i].Item.CanvasID, ItemID: cmd.Items[i].Item.ID})
		}
	} else {
		for _, e := range cmd.Items {
			refs = append(refs, registry.ItemRef{CanvasID: e.Item.CanvasID, ItemID: e.Item.ID})
		}
	}
	_, err := t.RemoveItems(refs)
	return err
}

func applyMove(t Target, cmd Command) error {
	m := cmd.Move
	if m == nil {
		return fmt.Errorf("%s command %s: missing move payload", cmd.Kind, cmd.ID)
	}
	if m.CrossesCanvas() {
		_, err := t.MoveItemToCanvas(registry.CanvasMove{
			ItemID: m.ItemID, From: m.SourceCanvasID, To: m.TargetCanvasID,
			Layouts: m.After, Index: -1, ZIndex: m.AfterZIndex,
		})
		return err
	}
	return placeInCanvas(t, m.TargetCanvasID, m.ItemID, m.After, m.AfterZIndex)
}

func invertMove(t Target, cmd Command) error {
	m := cmd.Move
	if m == nil {
		return fmt.Errorf("%s command %s: missing move payload", cmd.Kind, cmd.ID)
	}
	if m.CrossesCanvas() {
		_, err := t.MoveItemToCanvas(registry.CanvasMove{
			ItemID: m.ItemID, From: m.TargetCanvasID, To: m.SourceCanvasID,
			Layouts: m.Before, Index: m.OriginalIndex, ZIndex: m.BeforeZIndex,
		})
		return err
	}
	return placeInCanvas(t, m.SourceCanvasID, m.ItemID, m.Before, m.BeforeZIndex)
}

func placeInCanvas(t Target, canvasID, itemID string, layouts domain.Layouts, z int) error {
	patch := registry.ItemPatch{Layouts: &layouts}
	if z > 0 {
		patch.ZIndex = &z
	}
	_, err := t.UpdateItems([]registry.ItemUpdate{{
		Ref:   registry.ItemRef{CanvasID: canvasID, ItemID: itemID},
		Patch: patch,
	}})
	return err
}

func applyConfig(reverse bool) func(Target, Command) error {
	return func(t Target, cmd Command) error {
		updates := make([]registry.ItemUpdate, 0, len(cmd.Configs))
		for _, c := range cmd.Configs {
			cfg := c.After
			if reverse {
				cfg = c.Before
			}
			if cfg == nil {
				cfg = map[string]any{}
			}
			updates = append(updates, registry.ItemUpdate{
				Ref:   registry.ItemRef{CanvasID: c.CanvasID, ItemID: c.ItemID},
				Patch: registry.ItemPatch{Config: cfg},
			})
		}
		_, err := t.UpdateItems(updates)
		return err
	}
}

func restoreCanvas(t Target, cmd Command) error {
	if cmd.Canvas == nil {
		return fmt.Errorf("%s command %s: missing canvas payload", cmd.Kind, cmd.ID)
	}
	return t.RestoreCanvas(cmd.Canvas.Canvas.Clone(), cmd.Canvas.Index)
}

func dropCanvas(t Target, cmd Command) error {
	if cmd.Canvas == nil {
		return fmt.Errorf("%s command %s: missing canvas payload", cmd.Kind, cmd.ID)
	}
	_, _, err := t.RemoveCanvas(cmd.Canvas.Canvas.ID)
	return err
}
