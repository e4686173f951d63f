package events

import "gridboard/internal/domain"

// Event names published on the Emitter.
const (
	ItemAdded       = "item:added"
	ItemDeleted     = "item:deleted"
	ItemMoved       = "item:moved"
	ItemResized     = "item:resized"
	CanvasActivated = "canvas:activated"
	CanvasAdded     = "canvas:added"
	CanvasRemoved   = "canvas:removed"
	UndoExecuted    = "history:undo"
	RedoExecuted    = "history:redo"
)

// ItemsPayload accompanies item:added and item:deleted.
type ItemsPayload struct {
	CanvasID string   `json:"canvasId"`
	ItemIDs  []string `json:"itemIds"`
}

// MovePayload accompanies item:moved and item:resized.
type MovePayload struct {
	ItemID         string          `json:"itemId"`
	SourceCanvasID string          `json:"sourceCanvasId"`
	TargetCanvasID string          `json:"targetCanvasId"`
	Before         domain.Layout   `json:"before"`
	After          domain.Layout   `json:"after"`
	Viewport       domain.Viewport `json:"viewport"`
}

// CanvasPayload accompanies the canvas:* events.
type CanvasPayload struct {
	CanvasID string `json:"canvasId"`
}

// HistoryPayload accompanies history:undo and history:redo.
type HistoryPayload struct {
	CommandID string `json:"commandId"`
	Kind      string `json:"kind"`
	Label     string `json:"label"`
}
