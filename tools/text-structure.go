package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/models"
)

type TextStructureQuery struct {
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	ZoteroID string `json:"zotero_id,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`
	DocType  string `json:"doc_type,omitempty"`
}

type TextStructureResponse struct {
	Record models.IntermediateRecord `json:"record"`
}

func TextStructureTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TextStructureQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "text-structure",
		Description: "Turn free text (or a document) into a schema-free JSON object capturing its name, author, description, inputs, outputs, steps and branding. Useful to inspect what the model understood before mapping onto a schema.",
		InputSchema: inputschema,
	}
}

func TextStructureToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TextStructureQuery, orch *pipeline.Orchestrator, creds operations.Credentials, log logger.Logger) (*mcp.CallToolResult, *TextStructureResponse, error) {
	log.Info("text-structure tool called")
	text, _, err := operations.ResolveText(ctx, operations.Source{
		Text:     query.Text,
		RawData:  query.RawData,
		URL:      query.URL,
		ZoteroID: query.ZoteroID,
		DocType:  query.DocType,
	}, creds, log)
	if err != nil {
		log.Error("text-structure tool failed: %v", err)
		return nil, nil, err
	}

	record, err := orch.RunStructured(ctx, text)
	if err != nil {
		log.Error("text-structure tool failed: %v", err)
		return nil, nil, err
	}
	return nil, &TextStructureResponse{Record: record}, nil
}
