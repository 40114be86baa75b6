package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/DeafMist/intel-radar/backend/internal/app"
	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
)

func main() {
	// stdout carries the MCP protocol.
	log := logger.NewWithWriter("mcpserver", os.Stderr)
	cfg, err := config.LoadServices()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		os.Exit(1)
	}
	defer deps.Close()

	s := newServer(deps.Controller, log)
	log.Info("mcp server listening on stdio")
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", slog.Any("err", err))
	}
}
