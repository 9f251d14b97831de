package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/batch"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/models"
)

var (
	batchSchemaPath string
	batchSchemaText string
	batchTwoStage   bool
	batchWorkers    int
	batchRetries    int
	batchRetryDelay time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <input-file>...",
	Short: "Convert several documents against one schema",
	Long: `Convert every input file against the same schema, several at a time.
A failing document does not stop the others; each gets its own result.
Transient service errors and timeouts are retried; rate limits never are.

Examples:
  schemacast batch docs/*.txt --schema action.schema.json --workers 4
  schemacast batch a.pdf b.pdf --schema paper.json --retries 2 -o yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchRetries < 0 {
			return fmt.Errorf("--retries must not be negative, got %d", batchRetries)
		}
		schemaText, err := readSchema(batchSchemaPath, batchSchemaText)
		if err != nil {
			return err
		}

		items := make([]batch.Item, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			items = append(items, batch.Item{Name: filepath.Base(path), Input: models.RawInput{Data: data}})
		}

		if cmd.Flags().Changed("two-stage") {
			cfg.TwoStage = batchTwoStage
		}
		workers := cfg.MaxWorkers
		if cmd.Flags().Changed("workers") {
			workers = batchWorkers
		}
		orch, err := pipeline.NewFromConfig(cfg, log)
		if err != nil {
			return err
		}

		runner := batch.NewRunner(orch, batch.Options{
			MaxWorkers: workers,
			Retries:    batchRetries,
			RetryDelay: batchRetryDelay,
		}, log)
		results, err := runner.Run(cmd.Context(), items, schemaText)
		if err != nil {
			return err
		}
		if err := emit(cmd, results); err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchSchemaPath, "schema", "s", "", "JSON Schema file")
	batchCmd.Flags().StringVar(&batchSchemaText, "schema-text", "", "JSON Schema given inline")
	batchCmd.Flags().BoolVar(&batchTwoStage, "two-stage", true, "run the structuring pass before mapping (default from config)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "documents converted at once (default from config)")
	batchCmd.Flags().IntVar(&batchRetries, "retries", 0, "extra attempts for transient failures")
	batchCmd.Flags().DurationVar(&batchRetryDelay, "retry-delay", 2*time.Second, "initial delay between attempts")
}
