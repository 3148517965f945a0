// Command cortexviz serves a semantic note graph snapshot for exploration:
// an HTTP API for the renderer frontend, or an MCP server on stdio for LLM
// clients.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mseren/cortexviz/internal/mcp"
	"github.com/mseren/cortexviz/internal/server"
	"github.com/mseren/cortexviz/pkg/scene"
	"github.com/mseren/cortexviz/pkg/smg"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	snapshotPath := flag.String("snapshot", "", "Path to the SMG JSON snapshot (overrides config)")
	httpAddr := flag.String("http-addr", "", "Address for the HTTP API (overrides config, default :8710)")
	mcpMode := flag.Bool("mcp", false, "Serve the Model Context Protocol on stdio instead of HTTP")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *snapshotPath != "" {
		cfg.SnapshotPath = *snapshotPath
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	store := smg.NewStore()
	if cfg.SnapshotPath != "" {
		data, err := os.ReadFile(cfg.SnapshotPath)
		if err != nil {
			slog.Error("failed to read snapshot", "path", cfg.SnapshotPath, "error", err)
			os.Exit(1)
		}
		if err := store.Load(data); err != nil {
			slog.Error("failed to parse snapshot", "path", cfg.SnapshotPath, "error", err)
			os.Exit(1)
		}

		// Diagnostics are informational at load time; only save is gated.
		report := smg.Validate(store.Graph())
		for _, e := range report.Errors {
			slog.Warn("validation error", "detail", e)
		}
		for _, w := range report.Warnings {
			slog.Debug("validation warning", "detail", w)
		}
	}

	if *mcpMode {
		runMCP(store, cfg)
		return
	}

	srv := server.NewServer(store, cfg)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownChan
	srv.Shutdown()
}

func runMCP(store *smg.Store, cfg *server.Config) {
	mcpServer, err := mcp.NewMCPServer(store, scene.NewBuilder(store, cfg.View.Limits()))
	if err != nil {
		slog.Error("failed to build MCP server", "error", err)
		os.Exit(1)
	}
	if err := mcpServer.Run(context.Background(), &sdkmcp.StdioTransport{}); err != nil {
		slog.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
