package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── gridboard://canvases ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"gridboard://canvases",
		"All Canvases",
		mcp.WithMIMEType("application/json"),
	), s.handleCanvasesResource)

	// ── gridboard://canvas/{canvasId}/items ────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"gridboard://canvas/{canvasId}/items",
			"Items on a Canvas",
		),
		s.handleCanvasItemsResource,
	)
}

func (s *Server) handleCanvasesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, _ := json.MarshalIndent(s.canvasSummaries(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gridboard://canvases",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleCanvasItemsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	canvasID := extractCanvasIDFromURI(uri)
	if canvasID == "" {
		return nil, fmt.Errorf("could not extract canvasId from URI: %s", uri)
	}

	items, err := s.canvas.Registry().Items(canvasID)
	if err != nil {
		return nil, err
	}
	v := s.canvas.Registry().Viewport()
	summaries := make([]itemSummary, len(items))
	for i, it := range items {
		summaries[i] = summarizeItem(it, v)
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractCanvasIDFromURI extracts the id from "gridboard://canvas/{id}/items".
func extractCanvasIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "gridboard://canvas/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/items")
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
