package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gridboard/internal/app"
)

func main() {
	configPath := flag.String("config", "gridboard.yaml", "path to the YAML config file")
	mcpMode := flag.Bool("mcp", false, "serve the MCP tool server on stdin/stdout")
	flag.Parse()

	if *mcpMode {
		app.ServeMCP(*configPath)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(*configPath)
	if err := a.Startup(ctx); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	<-ctx.Done()
	log.Println("app: shutting down")
	a.Shutdown(context.Background())
}
