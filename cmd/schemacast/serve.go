package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an MCP server over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
text-extract, text-structure and schema-convert tools, plus the prompt
resources prompt://structuring and prompt://mapping.

Logs go to stderr unless LOG_OUTPUT=file is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := pipeline.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		log.Info("Starting schemacast MCP server %s", server.Version)
		srv := server.CreateServer(orch, credentials(), log)
		if err := srv.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
			log.Error("Server failed: %v", err)
			return err
		}
		return nil
	},
}
