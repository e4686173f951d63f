package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"gridboard/internal/domain"
	"gridboard/internal/registry"
	"gridboard/internal/service"
)

// itemSummary is the compact form agents see. Position and size are the
// layout of the active viewport, in grid units.
type itemSummary struct {
	ID       string         `json:"id"`
	CanvasID string         `json:"canvasId"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	X        int            `json:"x"`
	Y        int            `json:"y"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	ZIndex   int            `json:"zIndex"`
	Config   map[string]any `json:"config,omitempty"`
}

func summarizeItem(it domain.GridItem, v domain.Viewport) itemSummary {
	l := it.Layouts.For(v)
	return itemSummary{
		ID: it.ID, CanvasID: it.CanvasID, Type: it.Type, Name: it.Name,
		X: l.X, Y: l.Y, Width: l.Width, Height: l.Height, ZIndex: it.ZIndex,
		Config: it.Config,
	}
}

func (s *Server) registerItemTools() {
	// ── list_items ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List the items on a canvas, optionally filtered by type. Positions are grid units."),
		mcp.WithString("canvasId", mcp.Description("Canvas ID (optional, defaults to active canvas)")),
		mcp.WithString("type", mcp.Description("Filter by item type (optional)")),
	), s.handleListItems)

	// ── add_item ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Add an item to a canvas. Position is auto-placed in the first free slot if not provided."),
		mcp.WithString("type", mcp.Description("Item type (e.g. chart, table, note)"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Display name")),
		mcp.WithString("canvasId", mcp.Description("Canvas ID (optional, defaults to active canvas)")),
		mcp.WithNumber("x", mcp.Description("X in grid units (optional)")),
		mcp.WithNumber("y", mcp.Description("Y in grid units (optional)")),
		mcp.WithNumber("width", mcp.Description("Width in grid units (optional, uses type default; must lie within the type limits)")),
		mcp.WithNumber("height", mcp.Description("Height in grid units (optional, uses type default)")),
		mcp.WithString("config", mcp.Description("Initial config as a JSON object (optional)")),
	), s.handleAddItem)

	// ── move_item ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move an item within its canvas. Positions outside the canvas are clamped."),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X in grid units"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y in grid units"), mcp.Required()),
	), s.handleMoveItem)

	// ── resize_item ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_item",
		mcp.WithDescription("Resize an item. The item type's min/max sizes and the canvas edge apply."),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width in grid units"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height in grid units"), mcp.Required()),
	), s.handleResizeItem)

	// ── move_item_to_canvas ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_item_to_canvas",
		mcp.WithDescription("Transfer an item to another canvas. It is placed on top of the target's items."),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("targetCanvasId", mcp.Description("Destination canvas ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X in grid units on the target (default 0)")),
		mcp.WithNumber("y", mcp.Description("Y in grid units on the target (default 0)")),
	), s.handleMoveItemToCanvas)

	// ── bring_to_front ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("bring_to_front",
		mcp.WithDescription("Raise an item above every other item on its canvas"),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
	), s.handleBringToFront)

	// ── update_item_config ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_item_config",
		mcp.WithDescription("Merge keys into an item's config. A null value removes the key."),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("config", mcp.Description("JSON object of keys to set"), mcp.Required()),
	), s.handleUpdateItemConfig)

	// ── delete_item (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete one or more items. Requires user approval for each item."),
		mcp.WithString("itemIds", mcp.Description("Comma-separated item IDs to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteItem)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	canvasID, err := s.resolveCanvasID(args)
	if err != nil {
		return nil, err
	}
	items, err := s.canvas.Registry().Items(canvasID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	v := s.canvas.Registry().Viewport()
	filterType := getString(args, "type")
	summaries := make([]itemSummary, 0, len(items))
	for _, it := range items {
		if filterType != "" && it.Type != filterType {
			continue
		}
		summaries = append(summaries, summarizeItem(it, v))
	}
	return jsonResult(summaries)
}

func (s *Server) handleAddItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	itemType := getString(args, "type")
	if itemType == "" {
		return nil, fmt.Errorf("type is required")
	}
	canvasID, err := s.resolveCanvasID(args)
	if err != nil {
		return nil, err
	}

	in := service.NewItem{CanvasID: canvasID, Type: itemType, Name: getString(args, "name")}
	if x, ok := getInt(args, "x"); ok {
		in.X = &x
	}
	if y, ok := getInt(args, "y"); ok {
		in.Y = &y
	}
	in.Width, _ = getInt(args, "width")
	in.Height, _ = getInt(args, "height")
	if raw := getString(args, "config"); raw != "" {
		if err := parseJSON(raw, &in.Config); err != nil {
			return nil, fmt.Errorf("invalid config JSON: %w", err)
		}
	}

	it, err := s.canvas.AddItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	s.emitCanvasChanged(ctx, canvasID)
	return jsonResult(summarizeItem(it, s.canvas.Registry().Viewport()))
}

func (s *Server) handleMoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.getItemForTool(args)
	if err != nil {
		return nil, err
	}
	x, okX := getInt(args, "x")
	y, okY := getInt(args, "y")
	if !okX || !okY {
		return nil, fmt.Errorf("x and y are required")
	}

	moved, err := s.canvas.MoveItem(ctx, it.CanvasID, it.ID, x, y)
	if err != nil {
		return nil, fmt.Errorf("move item: %w", err)
	}
	s.emitCanvasChanged(ctx, it.CanvasID)
	return jsonResult(summarizeItem(moved, s.canvas.Registry().Viewport()))
}

func (s *Server) handleResizeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.getItemForTool(args)
	if err != nil {
		return nil, err
	}
	w, okW := getInt(args, "width")
	h, okH := getInt(args, "height")
	if !okW || !okH {
		return nil, fmt.Errorf("width and height are required")
	}

	resized, err := s.canvas.ResizeItem(ctx, it.CanvasID, it.ID, w, h)
	if err != nil {
		return nil, fmt.Errorf("resize item: %w", err)
	}
	s.emitCanvasChanged(ctx, it.CanvasID)
	return jsonResult(summarizeItem(resized, s.canvas.Registry().Viewport()))
}

func (s *Server) handleMoveItemToCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.getItemForTool(args)
	if err != nil {
		return nil, err
	}
	target := getString(args, "targetCanvasId")
	if target == "" {
		return nil, fmt.Errorf("targetCanvasId is required")
	}
	x, _ := getInt(args, "x")
	y, _ := getInt(args, "y")

	moved, err := s.canvas.TransferItem(ctx, it.ID, it.CanvasID, target, x, y)
	if err != nil {
		return nil, fmt.Errorf("move item to canvas: %w", err)
	}
	s.emitCanvasChanged(ctx, it.CanvasID)
	s.emitCanvasChanged(ctx, target)
	return jsonResult(summarizeItem(moved, s.canvas.Registry().Viewport()))
}

func (s *Server) handleBringToFront(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	it, err := s.getItemForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	raised, err := s.canvas.BringToFront(ctx, it.CanvasID, it.ID)
	if err != nil {
		return nil, fmt.Errorf("bring to front: %w", err)
	}
	s.emitCanvasChanged(ctx, it.CanvasID)
	return textResult(fmt.Sprintf("Item %s is now at zIndex %d", raised.ID, raised.ZIndex)), nil
}

func (s *Server) handleUpdateItemConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	it, err := s.getItemForTool(args)
	if err != nil {
		return nil, err
	}
	var cfg map[string]any
	if err := parseJSON(getString(args, "config"), &cfg); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}

	updated, err := s.canvas.UpdateConfig(ctx, it.CanvasID, it.ID, cfg)
	if err != nil {
		return nil, fmt.Errorf("update config: %w", err)
	}
	s.emitCanvasChanged(ctx, it.CanvasID)
	return jsonResult(summarizeItem(updated, s.canvas.Registry().Viewport()))
}

func (s *Server) handleDeleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(getString(req.GetArguments(), "itemIds"))
	if len(ids) == 0 {
		return nil, fmt.Errorf("itemIds is required")
	}

	refs := make([]registry.ItemRef, 0, len(ids))
	canvases := map[string]bool{}
	for _, id := range ids {
		it, _, err := s.canvas.Registry().FindItem(id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, registry.ItemRef{CanvasID: it.CanvasID, ItemID: id})
		canvases[it.CanvasID] = true
	}

	// the service's deletion hook asks the user for each agent deletion
	err := s.canvas.DeleteItems(withAgent(ctx), refs)
	if errors.Is(err, service.ErrDeletionRejected) {
		return textResult("Action rejected by user"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete items: %w", err)
	}

	for id := range canvases {
		s.emitCanvasChanged(ctx, id)
	}
	return textResult(fmt.Sprintf("Deleted %d item(s)", len(refs))), nil
}
