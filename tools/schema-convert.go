package tools

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/operations"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/models"
)

type SchemaConvertQuery struct {
	Schema   string `json:"schema" jsonschema:"the target JSON Schema as JSON text"`
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	ZoteroID string `json:"zotero_id,omitempty"`
	RawData  []byte `json:"raw_data,omitempty"`
	DocType  string `json:"doc_type,omitempty"`
}

type SchemaConvertResponse struct {
	RunID        string                    `json:"run_id"`
	Valid        bool                      `json:"valid"`
	Output       any                       `json:"output,omitempty"`
	Candidate    any                       `json:"candidate,omitempty"`
	Outcome      *models.ValidationOutcome `json:"outcome,omitempty"`
	Intermediate models.IntermediateRecord `json:"intermediate,omitempty"`
	States       []pipeline.State          `json:"states"`
	Failure      *pipeline.Failure         `json:"failure,omitempty"`
}

func SchemaConvertTool() *mcp.Tool {
	inputschema, err := jsonschema.For[SchemaConvertQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "schema-convert",
		Description: "Convert text or a document (PDF or plain text) into a JSON object that conforms to the given JSON Schema. The model output is validated locally; when it does not conform, the candidate is returned together with the first violation.",
		InputSchema: inputschema,
	}
}

func SchemaConvertToolHandler(ctx context.Context, req *mcp.CallToolRequest, query SchemaConvertQuery, orch *pipeline.Orchestrator, creds operations.Credentials, log logger.Logger) (*mcp.CallToolResult, *SchemaConvertResponse, error) {
	log.Info("schema-convert tool called")
	if query.Schema == "" {
		return nil, nil, errors.New("schema is required")
	}

	input, err := operations.LoadInput(ctx, operations.Source{
		Text:     query.Text,
		RawData:  query.RawData,
		URL:      query.URL,
		ZoteroID: query.ZoteroID,
		DocType:  query.DocType,
	}, creds, log)
	if err != nil {
		log.Error("schema-convert tool failed: %v", err)
		return nil, nil, err
	}

	result, err := orch.RunDocument(ctx, input, query.Schema)
	if err != nil && !reportable(err) {
		log.Error("schema-convert tool failed: %v", err)
		return nil, nil, err
	}

	response := &SchemaConvertResponse{
		RunID:        result.ID,
		Candidate:    result.Candidate,
		Outcome:      result.Outcome,
		Intermediate: result.Intermediate,
		States:       result.States,
		Failure:      result.Failure,
	}
	if output, ok := result.Final(); ok {
		response.Valid = true
		response.Output = output
		response.Candidate = nil
	}
	return nil, response, nil
}

// reportable failures are returned to the caller as data rather than as a
// tool error, since the caller can act on what the model produced.
func reportable(err error) bool {
	return pipeline.IsKind(err, pipeline.KindSchemaViolation) ||
		pipeline.IsKind(err, pipeline.KindModelOutputInvalid)
}
