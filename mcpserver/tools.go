package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const (
	serverName    = "intel-radar"
	serverVersion = "1.0.0"
	digestTool    = "intel_digest"
)

type digester interface {
	Run(ctx context.Context, query string) models.Response
}

func newServer(d digester, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(digestToolDef(), digestHandler(d, logger.OrDiscard(log)))
	return s
}

func digestToolDef() mcp.Tool {
	return mcp.NewTool(digestTool,
		mcp.WithDescription("Build a competitive intelligence digest for a question about companies, products or industry news. "+
			"Returns the digest envelope as JSON."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. \"What did Rivian announce this month?\""),
		),
	)
}

func digestHandler(d digester, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp := d.Run(ctx, query)
		if resp.Status == models.StatusError {
			return mcp.NewToolResultError(resp.Message), nil
		}

		payload, err := json.Marshal(resp.Data)
		if err != nil {
			log.Error("encode digest", slog.Any("err", err))
			return mcp.NewToolResultError("could not encode digest"), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
