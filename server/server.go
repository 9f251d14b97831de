package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/resources"
	"github.com/Epistemic-Technology/schemacast/tools"
)

// Version is reported to MCP clients and by the version command.
var Version = "v0.1.0"

func CreateServer(orch *pipeline.Orchestrator, creds operations.Credentials, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "schemacast", Version: Version}, nil)

	promptResourceHandler := resources.NewPromptResourceHandler()

	mcp.AddTool(server, tools.TextExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TextExtractQuery) (*mcp.CallToolResult, *tools.TextExtractResponse, error) {
		return tools.TextExtractToolHandler(ctx, req, query, creds, log)
	})

	mcp.AddTool(server, tools.TextStructureTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TextStructureQuery) (*mcp.CallToolResult, *tools.TextStructureResponse, error) {
		return tools.TextStructureToolHandler(ctx, req, query, orch, creds, log)
	})

	mcp.AddTool(server, tools.SchemaConvertTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.SchemaConvertQuery) (*mcp.CallToolResult, *tools.SchemaConvertResponse, error) {
		return tools.SchemaConvertToolHandler(ctx, req, query, orch, creds, log)
	})

	for _, res := range promptResourceHandler.ListResources() {
		server.AddResource(res, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return promptResourceHandler.ReadResource(ctx, req.Params.URI)
		})
	}

	return server
}
