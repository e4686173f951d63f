package interact

import (
	"context"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/history"
)

// Store is the read side of the registry plus the active-canvas marker a
// gesture sets on pointer-down.
type Store interface {
	FindItem(itemID string) (domain.GridItem, int, error)
	Viewport() domain.Viewport
	SetActiveCanvas(canvasID string) error
}

// Committer writes a resolved gesture and records it as one undoable step.
// The write and the history push happen before CommitMove returns.
type Committer interface {
	CommitMove(ctx context.Context, change history.MoveChange, label string) (domain.GridItem, error)
}

// CrossCanvasMover handles a drop onto a different canvas. x and y are the
// dropped position in pixels relative to the target canvas.
type CrossCanvasMover interface {
	MoveItemToCanvas(ctx context.Context, itemID, fromCanvasID, toCanvasID string, x, y float64) (domain.GridItem, error)
}

// SizeLimits bounds an item type in grid units. A zero max is unbounded.
type SizeLimits struct {
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
}

// SizeSource resolves per-type size limits.
type SizeSource interface {
	Limits(itemType string) SizeLimits
}

// Env bundles the collaborators shared by every controller on a board.
type Env struct {
	Coords    *grid.CoordinateSystem
	Store     Store
	Canvases  CanvasLocator
	Committer Committer
	Mover     CrossCanvasMover
	Scheduler Scheduler
	Emitter   events.Emitter
	Sizes     SizeSource
}

func (e Env) emitter() events.Emitter {
	if e.Emitter == nil {
		return events.Nop{}
	}
	return e.Emitter
}

func (e Env) limits(itemType string) SizeLimits {
	l := SizeLimits{MinWidth: grid.DefaultMinWidthUnits, MinHeight: grid.DefaultMinHeightUnits}
	if e.Sizes != nil {
		l = e.Sizes.Limits(itemType)
	}
	if l.MinWidth <= 0 {
		l.MinWidth = 1
	}
	if l.MinHeight <= 0 {
		l.MinHeight = 1
	}
	return l
}

// State is a controller's gesture phase.
type State int

const (
	Idle State = iota
	Dragging
	Resolving
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	}
	return "idle"
}

// Outcome reports how a gesture ended.
type Outcome int

const (
	// OutcomeIgnored means no gesture was in progress.
	OutcomeIgnored Outcome = iota
	// OutcomeNoop means the snapped result matched the start; nothing was written.
	OutcomeNoop
	// OutcomeCommitted means the layout was written and a command pushed.
	OutcomeCommitted
	// OutcomeTransferred means the item was handed to the cross-canvas mover.
	OutcomeTransferred
	// OutcomeSnapBack means the drop hit no canvas and the element was restored.
	OutcomeSnapBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeCommitted:
		return "committed"
	case OutcomeTransferred:
		return "transferred"
	case OutcomeSnapBack:
		return "snap-back"
	}
	return "ignored"
}
