package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/operations"
)

var (
	extractSource sourceFlags
	extractRaw    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [input-file]",
	Short: "Extract plain text from a document without calling a model",
	Long: `Extract the text of a PDF or plain text document, exactly as it would be
sent to the model. PDF pages are separated by a form feed line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := extractSource.source(args)
		if err != nil {
			return err
		}
		text, docType, err := operations.ResolveText(cmd.Context(), src, credentials(), log)
		if err != nil {
			return err
		}
		if extractRaw {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		}
		return emit(cmd, map[string]any{
			"doc_type": docType,
			"text":     text,
		})
	},
}

func init() {
	extractSource.register(extractCmd, false)
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "print the text only")
}
