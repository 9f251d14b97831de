package main

import (
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
)

var structureSource sourceFlags

var structureCmd = &cobra.Command{
	Use:   "structure [input-file]",
	Short: "Capture a document as schema-free JSON",
	Long: `Run only the structuring pass: the model captures the document as a generic
JSON object (name, author, description, inputs, outputs, steps, branding)
without any target schema. Useful to see what a conversion starts from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := structureSource.source(args)
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

		orch, err := pipeline.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}
		record, err := orch.RunStructured(ctx, text)
		if err != nil {
			return err
		}
		return emit(cmd, record)
	},
}

func init() {
	structureSource.register(structureCmd, true)
}
