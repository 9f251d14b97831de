package main

import (
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
)

var (
	convertSource     sourceFlags
	convertSchemaPath string
	convertSchemaText string
	convertTwoStage   bool
	convertFull       bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [input-file]",
	Short: "Convert a document into JSON that conforms to a schema",
	Long: `Convert text or a PDF into a JSON object that conforms to a JSON Schema.

On success the validated JSON is printed. When the model output does not
conform, the full run result is printed instead (candidate, first violation,
visited stages) and the command exits non-zero.

Examples:
  schemacast convert action.txt --schema action.schema.json
  schemacast convert --text "Jane Doe, age 29" --schema-text '{"type":"object"}'
  schemacast convert paper.pdf --schema paper.json --two-stage=false -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := convertSource.source(args)
		if err != nil {
			return err
		}
		schemaText, err := readSchema(convertSchemaPath, convertSchemaText)
		if err != nil {
			return err
		}
		text, _, err := operations.ResolveText(ctx, src, credentials(), log)
		if err != nil {
			return err
		}
		if err := requireText(text); err != nil {
			return err
		}

		if cmd.Flags().Changed("two-stage") {
			cfg.TwoStage = convertTwoStage
		}
		orch, err := pipeline.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		result, runErr := orch.RunSchema(ctx, text, schemaText)
		if final, ok := result.Final(); ok && !convertFull {
			return emit(cmd, final)
		}
		if err := emit(cmd, result); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	convertSource.register(convertCmd, true)
	convertCmd.Flags().StringVarP(&convertSchemaPath, "schema", "s", "", "JSON Schema file")
	convertCmd.Flags().StringVar(&convertSchemaText, "schema-text", "", "JSON Schema given inline")
	convertCmd.Flags().BoolVar(&convertTwoStage, "two-stage", true, "run the structuring pass before mapping (default from config)")
	convertCmd.Flags().BoolVar(&convertFull, "full", false, "print the full run result even on success")
}
