package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("arrange_dashboard",
		mcp.WithPromptDescription("Lay out a set of items on a canvas without overlaps"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic or title for the dashboard"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("canvasId",
			mcp.ArgumentDescription("Canvas to arrange (defaults to the active canvas)"),
		),
	), s.handleArrangePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_canvas",
		mcp.WithPromptDescription("Review a canvas and move or resize items that overlap or leave gaps"),
		mcp.WithArgument("canvasId",
			mcp.ArgumentDescription("Canvas to tidy"),
			mcp.RequiredArgument(),
		),
	), s.handleTidyPrompt)
}

func (s *Server) handleArrangePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	canvasID := req.Params.Arguments["canvasId"]
	if canvasID == "" {
		canvasID = s.canvas.Registry().ActiveCanvas()
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Arrange a dashboard for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a dashboard about "%s" on canvas %q.

The canvas is %d grid units wide. Heights are in rows and the canvas grows downward.

1. Call list_items to see what is already there.
2. Add items with add_item. Omit x/y to let the board place each item in the first free slot.
3. Use resize_item for items that need more room. Type minimums and the right edge are enforced.
4. Use bring_to_front if an item should sit above its neighbours.
5. If the result looks wrong, call undo rather than deleting items.`, topic, canvasID, s.canvasWidthUnits()),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	canvasID := req.Params.Arguments["canvasId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Tidy canvas %s", canvasID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Read gridboard://canvas/%s/items and tidy the layout.

- Items that overlap should be moved with move_item so their rectangles no longer intersect.
- Keep related items next to each other and aligned to the same rows.
- Do not delete anything. Every change can be reverted with undo.`, canvasID),
				},
			},
		},
	}, nil
}

func (s *Server) canvasWidthUnits() int {
	return s.canvas.Coords().CanvasWidthUnits()
}
