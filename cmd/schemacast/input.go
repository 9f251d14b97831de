package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/output"
)

// sourceFlags are shared by every command that reads a document.
type sourceFlags struct {
	text     string
	url      string
	zoteroID string
	docType  string
}

func (f *sourceFlags) register(cmd *cobra.Command, withText bool) {
	if withText {
		cmd.Flags().StringVar(&f.text, "text", "", "input text given inline instead of a file")
	}
	cmd.Flags().StringVar(&f.url, "url", "", "fetch the input document from a URL")
	cmd.Flags().StringVar(&f.zoteroID, "zotero-id", "", "fetch the input from a Zotero attachment")
	cmd.Flags().StringVar(&f.docType, "doc-type", "", "input type: txt or pdf (default: detected)")
}

// source builds the document source from a file argument or the flags.
func (f *sourceFlags) source(args []string) (operations.Source, error) {
	src := operations.Source{Text: f.text, URL: f.url, ZoteroID: f.zoteroID, DocType: f.docType}
	given := 0
	for _, set := range []bool{len(args) > 0, f.text != "", f.url != "", f.zoteroID != ""} {
		if set {
			given++
		}
	}
	if given > 1 {
		return src, errors.New("give exactly one input: a file argument, --text, --url or --zotero-id")
	}
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return src, fmt.Errorf("failed to read input: %w", err)
		}
		src.RawData = data
	}
	switch f.docType {
	case "", "txt", "pdf":
	default:
		return src, fmt.Errorf("unsupported --doc-type %q (expected txt or pdf)", f.docType)
	}
	return src, nil
}

func credentials() operations.Credentials {
	return operations.Credentials{ZoteroAPIKey: cfg.ZoteroAPIKey, ZoteroLibraryID: cfg.ZoteroLibraryID}
}

// readSchema returns the schema text from --schema-text or the --schema file.
func readSchema(path, text string) (string, error) {
	switch {
	case text != "":
		return text, nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read schema: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("a target schema is required (--schema or --schema-text)")
	}
}

func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("input is empty")
	}
	return nil
}

func emit(cmd *cobra.Command, data any) error {
	return output.Write(cmd.OutOrStdout(), format, data)
}
