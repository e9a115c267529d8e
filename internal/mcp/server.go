package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with registered tools.
func NewServer(version string) *Server {
	s := server.NewMCPServer("awrlens", version, server.WithLogging())
	registerTools(s)
	return &Server{
		mcpServer: s,
	}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools adds all supported tools to the server.
func registerTools(s *server.MCPServer) {
	analyzeTool := mcp.NewTool("analyze_report",
		mcp.WithDescription("Parse an Oracle AWR/ASH HTML report and run diagnostic rules. Returns the canonical metrics model plus severity-ranked findings as JSON. Pure analysis, no database connection."),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The complete AWR/ASH report HTML content"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyzeReport)

	validateTool := mcp.NewTool("validate_report",
		mcp.WithDescription("Check whether content is an acceptable AWR/ASH report without fully parsing it. Returns the classification, encoding and file hash, or the rejection reason."),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The report HTML content to validate"),
		),
	)
	s.AddTool(validateTool, handleValidateReport)

	listTool := mcp.NewTool("list_rules",
		mcp.WithDescription("List all diagnostic rules with their categories and warning/critical thresholds. Use with explain_rule for remediation detail."),
	)
	s.AddTool(listTool, handleListRules)

	explainTool := mcp.NewTool("explain_rule",
		mcp.WithDescription("Get root causes and remediation guidance for a specific diagnostic rule. Use list_rules to discover rule names."),
		mcp.WithString("rule_name",
			mcp.Required(),
			mcp.Description("Rule name (e.g. 'buffer_cache_hit_ratio'). Use list_rules to see all."),
		),
	)
	s.AddTool(explainTool, handleExplainRule)
}
