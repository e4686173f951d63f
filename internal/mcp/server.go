package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/service"
	"gridboard/internal/storage"
)

// EventCanvasChanged tells the UI that an agent changed a canvas.
const EventCanvasChanged = "mcp:canvas-changed"

// Server is the MCP server for gridboard.
// It exposes tools, resources, and prompts so AI agents can arrange canvases.
type Server struct {
	mcp      *server.MCPServer
	emitter  events.Emitter
	approval *ApprovalQueue
	canvas   *service.CanvasService
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter    events.Emitter
	Canvas     *service.CanvasService
	ApprovalDB *storage.DB // When set, approvals go through mcp_approvals (standalone mode)
}

// New creates and configures a new MCP server with all tools and resources.
// The approval queue is installed as the service's deletion hook.
func New(deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = events.Nop{}
	}
	approval := NewApprovalQueue(emitter)
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	s := &Server{
		emitter:  emitter,
		approval: approval,
		canvas:   deps.Canvas,
	}
	deps.Canvas.SetDeletionHook(approval.DeletionHook())

	s.mcp = server.NewMCPServer(
		"gridboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCanvasTools()
	s.registerItemTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// emitCanvasChanged notifies the UI that an agent changed a canvas.
func (s *Server) emitCanvasChanged(ctx context.Context, canvasID string) {
	s.emitter.Emit(ctx, EventCanvasChanged, map[string]string{"canvasId": canvasID})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveCanvasID returns the canvasId from tool args or falls back to the
// active canvas.
func (s *Server) resolveCanvasID(args map[string]any) (string, error) {
	if id, ok := args["canvasId"].(string); ok && id != "" {
		return id, nil
	}
	if id := s.canvas.Registry().ActiveCanvas(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no canvasId provided and no active canvas set")
}

// getItemForTool retrieves an item and validates it exists.
func (s *Server) getItemForTool(args map[string]any) (domain.GridItem, error) {
	itemID, ok := args["itemId"].(string)
	if !ok || itemID == "" {
		return domain.GridItem{}, fmt.Errorf("itemId is required")
	}
	it, _, err := s.canvas.Registry().FindItem(itemID)
	return it, err
}
