package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/llm"
	"github.com/Epistemic-Technology/schemacast/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "schemacast %s\n", server.Version)
		fmt.Fprintf(out, "  Go:      %s\n", runtime.Version())
		fmt.Fprintf(out, "  Prompts: %s\n", llm.PromptVersion)
	},
}
