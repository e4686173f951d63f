package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"gridboard/internal/domain"
	"gridboard/internal/history"
)

type canvasSummary struct {
	ID        string `json:"id"`
	ItemCount int    `json:"itemCount"`
	TopZIndex int    `json:"topZIndex"`
	Active    bool   `json:"active"`
}

func (s *Server) canvasSummaries() []canvasSummary {
	active := s.canvas.Registry().ActiveCanvas()
	canvases := s.canvas.Registry().Canvases()
	out := make([]canvasSummary, 0, len(canvases))
	for _, c := range canvases {
		out = append(out, canvasSummary{
			ID: c.ID, ItemCount: len(c.Items), TopZIndex: c.ZIndexCounter, Active: c.ID == active,
		})
	}
	return out
}

func (s *Server) registerCanvasTools() {
	// ── list_canvases ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_canvases",
		mcp.WithDescription("List all canvases in display order"),
	), s.handleListCanvases)

	// ── add_canvas ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_canvas",
		mcp.WithDescription("Create an empty canvas"),
		mcp.WithString("canvasId", mcp.Description("Canvas ID (optional, generated if omitted)")),
	), s.handleAddCanvas)

	// ── remove_canvas (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_canvas",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a canvas and every item on it. Requires user approval."),
		mcp.WithString("canvasId", mcp.Description("Canvas ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveCanvas)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent change"),
	), s.handleUndo)
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone change"),
	), s.handleRedo)

	// ── export_state / import_state ────────────────────
	s.mcp.AddTool(mcp.NewTool("export_state",
		mcp.WithDescription("Export every canvas and item as a versioned JSON snapshot"),
	), s.handleExportState)
	s.mcp.AddTool(mcp.NewTool("import_state",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace all canvases with a snapshot and clear history. Requires user approval."),
		mcp.WithString("snapshot", mcp.Description("Snapshot JSON as produced by export_state"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleImportState)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListCanvases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvasSummaries())
}

func (s *Server) handleAddCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.canvas.AddCanvas(ctx, getString(req.GetArguments(), "canvasId"))
	if err != nil {
		return nil, err
	}
	s.emitCanvasChanged(ctx, c.ID)
	return textResult(fmt.Sprintf("Canvas %s created", c.ID)), nil
}

func (s *Server) handleRemoveCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "canvasId")
	c, ok := s.canvas.Registry().Canvas(id)
	if !ok {
		return nil, fmt.Errorf("canvas %s not found", id)
	}

	meta := fmt.Sprintf(`{"canvasId":%q}`, id)
	approved, err := s.approval.Request(ctx, "remove_canvas",
		fmt.Sprintf("Remove canvas %s with %d item(s)", id, len(c.Items)), meta)
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	if err := s.canvas.RemoveCanvas(ctx, id); err != nil {
		return nil, fmt.Errorf("remove canvas: %w", err)
	}
	s.emitCanvasChanged(ctx, id)
	return textResult(fmt.Sprintf("Canvas %s removed", id)), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd, err := s.canvas.Undo(ctx)
	if errors.Is(err, history.ErrNothingToUndo) {
		return textResult("Nothing to undo"), nil
	}
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Undid: %s", cmd.Label)), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd, err := s.canvas.Redo(ctx)
	if errors.Is(err, history.ErrNothingToRedo) {
		return textResult("Nothing to redo"), nil
	}
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Redid: %s", cmd.Label)), nil
}

func (s *Server) handleExportState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.Export(map[string]any{"exportedBy": "mcp"}))
}

func (s *Server) handleImportState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var snap domain.Snapshot
	if err := parseJSON(getString(req.GetArguments(), "snapshot"), &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}

	approved, err := s.approval.Request(ctx, "import_state",
		fmt.Sprintf("Replace all canvases with a snapshot of %d canvas(es)", len(snap.Canvases)))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	if err := s.canvas.Import(ctx, snap); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	for _, c := range s.canvas.Registry().CanvasIDs() {
		s.emitCanvasChanged(ctx, c)
	}
	return textResult(fmt.Sprintf("Imported %d canvas(es)", len(snap.Canvases))), nil
}
