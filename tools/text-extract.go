package tools

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/schemacast/internal/documents"
	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/operations"
)

type TextExtractQuery struct {
	URL      string `json:"url,omitempty"`
	ZoteroID string `json:"zotero_id,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`
	DocType  string `json:"doc_type,omitempty"`
}

type TextExtractResponse struct {
	DocType    string `json:"doc_type"`
	Text       string `json:"text"`
	Characters int    `json:"characters"`
	PageCount  int    `json:"page_count,omitempty"`
}

func TextExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TextExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "text-extract",
		Description: "Extract plain text from a PDF or text document given as raw bytes, a URL, or a Zotero attachment ID. No model is called. PDF pages are separated by a form feed line.",
		InputSchema: inputschema,
	}
}

func TextExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TextExtractQuery, creds operations.Credentials, log logger.Logger) (*mcp.CallToolResult, *TextExtractResponse, error) {
	log.Info("text-extract tool called")
	text, docType, err := operations.ResolveText(ctx, operations.Source{
		RawData:  query.RawData,
		URL:      query.URL,
		ZoteroID: query.ZoteroID,
		DocType:  query.DocType,
	}, creds, log)
	if err != nil {
		log.Error("text-extract tool failed: %v", err)
		return nil, nil, err
	}

	response := &TextExtractResponse{
		DocType:    string(docType),
		Text:       text,
		Characters: len([]rune(text)),
	}
	if docType == "pdf" {
		response.PageCount = strings.Count(text, documents.PageSeparator) + 1
	}
	return nil, response, nil
}
