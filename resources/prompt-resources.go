package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/schemacast/internal/llm"
)

const schemaPlaceholder = "{{SCHEMA}}"

// PromptDocument is the JSON body of a prompt resource.
type PromptDocument struct {
	Stage       string  `json:"stage"`
	Version     string  `json:"version"`
	Temperature float64 `json:"temperature"`
	Instruction string  `json:"instruction"`
}

// PromptResourceHandler serves the system instructions sent to the model, so
// a client can see exactly what each stage asks for.
type PromptResourceHandler struct{}

func NewPromptResourceHandler() *PromptResourceHandler {
	return &PromptResourceHandler{}
}

// ListResources returns a list of available resources
func (h *PromptResourceHandler) ListResources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         "prompt://" + llm.StageStructuring,
			Name:        "structuring-prompt",
			Description: "System instruction for the schema-free structuring pass",
			MIMEType:    "application/json",
		},
		{
			URI:         "prompt://" + llm.StageMapping,
			Name:        "mapping-prompt",
			Description: "System instruction template for the schema mapping pass; " + schemaPlaceholder + " marks where the target schema is inserted",
			MIMEType:    "application/json",
		},
	}
}

// ReadResource returns the prompt named by a prompt:// URI.
func (h *PromptResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, "prompt://") {
		return nil, fmt.Errorf("invalid URI scheme, expected prompt://")
	}

	doc := PromptDocument{
		Stage:       strings.TrimPrefix(uri, "prompt://"),
		Version:     llm.PromptVersion,
		Temperature: llm.Temperature,
	}
	switch doc.Stage {
	case llm.StageStructuring:
		doc.Instruction = llm.StructuringInstruction()
	case llm.StageMapping:
		doc.Instruction = llm.MappingInstruction(schemaPlaceholder)
	default:
		return nil, fmt.Errorf("unknown prompt resource: %s", uri)
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
