package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/Epistemic-Technology/schemacast/internal/documents"
	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/models"
)

// ErrNoInput is returned when a Source names no document at all.
var ErrNoInput = errors.New("one of text, raw_data, url or zotero_id is required")

// Source describes a document given to a tool or command. Exactly one of the
// content fields is used, checked in the order Text, RawData, URL, ZoteroID.
type Source struct {
	Text     string
	RawData  []byte
	URL      string
	ZoteroID string
	// DocType overrides media type detection ("txt" or "pdf").
	DocType string
}

// Credentials for the remote document sources.
type Credentials struct {
	ZoteroAPIKey    string
	ZoteroLibraryID string
}

// LoadInput resolves src to a RawInput without extracting its text.
func LoadInput(ctx context.Context, src Source, creds Credentials, log logger.Logger) (models.RawInput, error) {
	switch {
	case src.Text != "":
		return models.TextInput(src.Text), nil
	case src.RawData != nil:
		return models.RawInput{Data: src.RawData, Type: models.MediaType(src.DocType)}, nil
	case src.URL != "" || src.ZoteroID != "":
		log.Info("Fetching document (url=%q zotero_id=%q)", src.URL, src.ZoteroID)
		input, err := documents.GetData(ctx, models.SourceInfo{ZoteroID: src.ZoteroID, URL: src.URL}, creds.ZoteroAPIKey, creds.ZoteroLibraryID)
		if err != nil {
			return models.RawInput{}, fmt.Errorf("failed to fetch document: %w", err)
		}
		if src.DocType != "" {
			input.Type = models.MediaType(src.DocType)
		}
		return input, nil
	default:
		return models.RawInput{}, ErrNoInput
	}
}

// ResolveText resolves src and extracts its text.
func ResolveText(ctx context.Context, src Source, creds Credentials, log logger.Logger) (string, models.MediaType, error) {
	input, err := LoadInput(ctx, src, creds, log)
	if err != nil {
		return "", "", err
	}
	docType := input.Type
	if docType == "" {
		docType = documents.DetectDocumentType(input.Data)
		input.Type = docType
	}
	text, err := documents.ExtractText(input, log)
	if err != nil {
		return "", docType, err
	}
	return text, docType, nil
}
