// Package server exposes the WHOOP client as MCP tools over stdio for an
// AI-assistant host. It owns tool registration, argument parsing, and the
// emoji-decorated text rendering of API payloads; everything below the tool
// boundary (tokens, retries) lives in the credentials and whoop packages.
package server

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"whoop-mcp/internal/whoop"
)

// Server wraps an MCP server with the seven WHOOP tools registered.
type Server struct {
	client    *whoop.Client
	mcpServer *server.MCPServer
}

// New creates a Server for the given WHOOP client.
func New(client *whoop.Client, version string) *Server {
	mcpServer := server.NewMCPServer(
		"whoop-mcp",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		client:    client,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s
}

// Start serves the MCP protocol on stdin/stdout until the context is
// cancelled or the host closes the stream.
func (s *Server) Start(ctx context.Context) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_profile",
		mcp.WithDescription("Get the WHOOP user profile (name and email)"),
	), s.handleGetProfile)

	s.mcpServer.AddTool(mcp.NewTool("get_body_measurement",
		mcp.WithDescription("Get the user's body measurements (height, weight, max heart rate)"),
	), s.handleGetBodyMeasurement)

	s.mcpServer.AddTool(rangeTool("get_cycles",
		"Get physiological cycles (daily strain, calories, heart rate) for a date range, newest first",
	), s.handleGetCycles)

	s.mcpServer.AddTool(rangeTool("get_recoveries",
		"Get recovery scores (recovery %, HRV, resting heart rate) for a date range, newest first",
	), s.handleGetRecoveries)

	s.mcpServer.AddTool(rangeTool("get_sleep",
		"Get sleep data (duration, stages, performance) for a date range, newest first",
	), s.handleGetSleep)

	s.mcpServer.AddTool(rangeTool("get_workouts",
		"Get workouts (sport, strain, calories, distance) for a date range, newest first",
	), s.handleGetWorkouts)

	s.mcpServer.AddTool(mcp.NewTool("get_latest_recovery",
		mcp.WithDescription("Get the most recent recovery score with its day's strain context"),
	), s.handleGetLatestRecovery)
}

// rangeTool builds a collection tool with the shared date-range arguments.
func rangeTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("start_date",
			mcp.Description("Start of the range, YYYY-MM-DD (inclusive). Defaults to 7 days ago."),
		),
		mcp.WithString("end_date",
			mcp.Description("End of the range, YYYY-MM-DD (inclusive). Defaults to today."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records to return (1-25, default 10)"),
		),
	)
}
