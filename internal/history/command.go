package history

import (
	"time"

	"gridboard/internal/domain"
)

// Kind tags a command variant.
type Kind string

const (
	KindAddItems     Kind = "add-items"
	KindDeleteItems  Kind = "delete-items"
	KindMoveItem     Kind = "move-item"
	KindUpdateConfig Kind = "update-config"
	KindAddCanvas    Kind = "add-canvas"
	KindRemoveCanvas Kind = "remove-canvas"
)

// ItemEntry is an item with the index it occupies in its canvas. For adds it
// is the position after insertion; for deletes the position at the moment
// of removal.
type ItemEntry struct {
	Item  domain.GridItem `json:"item"`
	Index int             `json:"index"`
}

// MoveChange captures a translation, resize, re-layer or canvas transfer.
// OriginalIndex is the item's position in the source canvas so undoing a
// cross-canvas move puts it back in the same slot.
type MoveChange struct {
	ItemID         string         `json:"itemId"`
	SourceCanvasID string         `json:"sourceCanvasId"`
	TargetCanvasID string         `json:"targetCanvasId"`
	Before         domain.Layouts `json:"before"`
	After          domain.Layouts `json:"after"`
	OriginalIndex  int            `json:"originalIndex"`
	BeforeZIndex   int            `json:"beforeZIndex"`
	AfterZIndex    int            `json:"afterZIndex"`
}

// CrossesCanvas reports whether the move transfers the item.
func (m MoveChange) CrossesCanvas() bool {
	return m.SourceCanvasID != m.TargetCanvasID
}

// ConfigChange is one item's config before and after an edit.
type ConfigChange struct {
	CanvasID string         `json:"canvasId"`
	ItemID   string         `json:"itemId"`
	Before   map[string]any `json:"before"`
	After    map[string]any `json:"after"`
}

// CanvasChange is a whole canvas with its position in the canvas order.
type CanvasChange struct {
	Canvas domain.Canvas `json:"canvas"`
	Index  int           `json:"index"`
}

// Command is a reversible mutation. Exactly one payload field is set,
// matching Kind. Commands are plain data so they can be journaled as JSON.
type Command struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`

	Items   []ItemEntry    `json:"items,omitempty"`
	Move    *MoveChange    `json:"move,omitempty"`
	Configs []ConfigChange `json:"configs,omitempty"`
	Canvas  *CanvasChange  `json:"canvas,omitempty"`
}

// ── Constructors ───────────────────────────────────────────

func AddItems(label string, entries []ItemEntry) Command {
	return Command{Kind: KindAddItems, Label: label, Items: cloneEntries(entries)}
}

func DeleteItems(label string, entries []ItemEntry) Command {
	return Command{Kind: KindDeleteItems, Label: label, Items: cloneEntries(entries)}
}

func MoveItem(label string, m MoveChange) Command {
	return Command{Kind: KindMoveItem, Label: label, Move: &m}
}

func UpdateConfig(label string, changes []ConfigChange) Command {
	out := make([]ConfigChange, len(changes))
	for i, c := range changes {
		c.Before = domain.CloneConfig(c.Before)
		c.After = domain.CloneConfig(c.After)
		out[i] = c
	}
	return Command{Kind: KindUpdateConfig, Label: label, Configs: out}
}

func AddCanvas(label string, c domain.Canvas, index int) Command {
	return Command{Kind: KindAddCanvas, Label: label, Canvas: &CanvasChange{Canvas: c.Clone(), Index: index}}
}

func RemoveCanvas(label string, c domain.Canvas, index int) Command {
	return Command{Kind: KindRemoveCanvas, Label: label, Canvas: &CanvasChange{Canvas: c.Clone(), Index: index}}
}

func cloneEntries(entries []ItemEntry) []ItemEntry {
	out := make([]ItemEntry, len(entries))
	for i, e := range entries {
		out[i] = ItemEntry{Item: e.Item.Clone(), Index: e.Index}
	}
	return out
}
