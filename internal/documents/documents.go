package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/schemacast/models"
)

// maxFetchBytes caps the size of documents fetched from a URL or Zotero.
const maxFetchBytes = 64 << 20

// DetectDocumentType determines the media type of raw document data by
// checking magic bytes. Anything that is neither a PDF nor UTF-8 text is
// reported as unknown.
func DetectDocumentType(data []byte) models.MediaType {
	if len(data) == 0 {
		return models.MediaTypeUnknown
	}

	// PDF: starts with %PDF. Some producers prepend whitespace or a few
	// bytes of binary junk; text that merely quotes a header stays text.
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return models.MediaTypePDF
	}
	header := bytes.Index(data[:min(len(data), 1024)], []byte("%PDF-"))
	if header > 0 && len(bytes.TrimSpace(data[:header])) == 0 {
		return models.MediaTypePDF
	}

	if isLikelyText(data) {
		return models.MediaTypeText
	}
	if header > 0 {
		return models.MediaTypePDF
	}

	return models.MediaTypeUnknown
}

// isLikelyText checks if the data is likely plain text (no binary content)
func isLikelyText(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sample := data[:min(len(data), 512)]

	// Null bytes are a strong indicator of binary content
	if bytes.Contains(sample, []byte{0}) {
		return false
	}

	// A truncated multi-byte rune at the sample boundary is fine
	valid := sample
	for i := 0; i < utf8.UTFMax && len(valid) > 0 && !utf8.Valid(valid); i++ {
		valid = valid[:len(valid)-1]
	}
	if !utf8.Valid(valid) {
		return false
	}

	printable := 0
	total := 0
	for _, r := range string(valid) {
		total++
		if r >= 32 || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return false
	}

	// If more than 90% is printable, likely text
	return float64(printable)/float64(total) > 0.9
}

// GetData retrieves document data from a source and detects its type
func GetData(ctx context.Context, sourceInfo models.SourceInfo, zoteroAPIKey, zoteroLibraryID string) (models.RawInput, error) {
	var data []byte
	var err error

	switch {
	case sourceInfo.ZoteroID != "":
		data, err = GetFromZotero(ctx, sourceInfo.ZoteroID, zoteroAPIKey, zoteroLibraryID)
	case sourceInfo.URL != "":
		data, err = GetFromURL(ctx, sourceInfo.URL)
	default:
		return models.RawInput{}, errors.New("no data provided")
	}
	if err != nil {
		return models.RawInput{}, err
	}
	if len(data) == 0 {
		return models.RawInput{}, errors.New("no data retrieved")
	}

	return models.RawInput{
		Data: data,
		Type: DetectDocumentType(data),
	}, nil
}

// GetFromURL fetches document data from a URL
func GetFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}

// GetFromZotero fetches an attachment file from a Zotero library
func GetFromZotero(ctx context.Context, zoteroID string, apiKey string, libraryID string) ([]byte, error) {
	if apiKey == "" || libraryID == "" {
		return nil, errors.New("zotero API key and library ID are required")
	}
	client := zotero.NewClient(libraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(apiKey))
	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Zotero attachment %s: %w", zoteroID, err)
	}
	return data, nil
}
