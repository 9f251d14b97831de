package main

import (
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/config"
	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/output"
	"github.com/Epistemic-Technology/schemacast/server"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string

	cfg    *config.Config
	log    logger.Logger
	format output.Format
)

var rootCmd = &cobra.Command{
	Use:   "schemacast",
	Short: "Convert unstructured text and PDFs into JSON that conforms to a JSON Schema",
	Long: `schemacast extracts structured data from free text or PDF documents with a
language model and checks the result against a JSON Schema you provide.

A conversion runs in up to two passes:
  - structuring: the text is captured as generic JSON (optional)
  - mapping: the model is asked for JSON following your schema
The mapped output is then validated locally. Output that does not conform is
still shown, together with the first violation.

The API key is read from OPENAI_API_KEY or SCHEMACAST_API_KEY.`,
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.schemacast/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "json", "output format: json or yaml",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if format, err = output.ParseFormat(outputFormat); err != nil {
			return err
		}
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log, err = logger.NewLogger(logger.LogConfig{Level: cfg.LogLevel})
		return err
	}

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
