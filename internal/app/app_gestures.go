package app

import (
	"gridboard/internal/domain"
	"gridboard/internal/interact"
)

// ============================================================
// Gestures
// ============================================================

// NewDrag binds a drag controller to a rendered item. The host forwards
// pointer events to it and calls Teardown when the element unmounts.
func (a *App) NewDrag(item domain.GridItem, surface interact.Surface, onCommit func(domain.GridItem), opts interact.DragOptions) *interact.DragController {
	return interact.NewDragController(a.canvas.Env(a.frames), surface, item, onCommit, opts)
}

// NewResize binds a resize controller to a rendered item.
func (a *App) NewResize(item domain.GridItem, surface interact.Surface, onCommit func(domain.GridItem), opts interact.ResizeOptions) *interact.ResizeController {
	return interact.NewResizeController(a.canvas.Env(a.frames), surface, item, onCommit, opts)
}

// RunFrame flushes pending visual updates. Hosts with their own paint loop
// call it once per paint; otherwise the background ticker does.
func (a *App) RunFrame() int {
	return a.frames.RunFrame()
}
