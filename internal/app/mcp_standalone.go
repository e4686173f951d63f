package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gridboard/internal/events"
	mcpserver "gridboard/internal/mcp"
)

// ServeMCP runs the board as a standalone MCP server on stdin/stdout with
// no host UI. State starts from the autosave snapshot when one exists and
// is saved back on exit. Destructive tools wait for approvals written to
// the shared database by a running app.
func ServeMCP(configPath string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	a := New(configPath)
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	a.ctx, a.cancel = ctx, cancel
	a.cfg = cfg
	a.canvas = newCanvasService(cfg, events.Nop{})
	if err := a.openStorage(ctx, cfg.Storage); err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer a.Shutdown(context.Background())

	snapshotName := cfg.Autosave.Snapshot
	if a.snapshots != nil && snapshotName != "" {
		if err := a.canvas.LoadSnapshot(ctx, snapshotName); err != nil {
			log.Printf("[MCP] no snapshot %q loaded: %v", snapshotName, err)
		}
	}
	for _, id := range cfg.Canvases {
		if _, ok := a.canvas.Registry().Canvas(id); !ok {
			if _, err := a.canvas.AddCanvas(ctx, id); err != nil {
				log.Fatalf("Failed to create canvas %s: %v", id, err)
			}
		}
	}
	a.canvas.History().Clear()
	if ids := a.canvas.Registry().CanvasIDs(); len(ids) > 0 && a.canvas.Registry().ActiveCanvas() == "" {
		if err := a.canvas.SetActiveCanvas(ctx, ids[0]); err != nil {
			log.Printf("[MCP] activate %s: %v", ids[0], err)
		}
	}

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter:    events.Nop{},
		Canvas:     a.canvas,
		ApprovalDB: a.db, // nil for mongodb/none: approvals stay in-process
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Printf("MCP server error: %v", err)
	}

	if a.snapshots != nil && snapshotName != "" {
		if err := a.canvas.SaveSnapshot(context.Background(), snapshotName); err != nil {
			log.Printf("[MCP] save snapshot %q: %v", snapshotName, err)
		}
	}
}
