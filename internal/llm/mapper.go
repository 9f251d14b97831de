package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/models"
)

// Mapper runs the schema-constrained pass that produces the candidate output.
type Mapper struct {
	client Completer
	model  string
	log    logger.Logger
}

// NewMapper returns a Mapper. An empty model uses the client default.
func NewMapper(client Completer, model string, log logger.Logger) *Mapper {
	return &Mapper{client: client, model: model, log: log}
}

// Map asks the model for JSON conforming to schemaText, using content as the
// user message. It returns the decoded candidate together with the raw
// response. The candidate is not validated here.
func (m *Mapper) Map(ctx context.Context, schemaText, content string) (any, string, error) {
	raw, err := m.client.Complete(ctx, Request{
		Stage:       StageMapping,
		System:      MappingInstruction(schemaText),
		User:        content,
		Model:       m.model,
		Temperature: Temperature,
	})
	if err != nil {
		return nil, "", err
	}

	var candidate any
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		return nil, raw, &ParseError{Stage: StageMapping, Raw: raw, Err: err}
	}

	m.log.Debug("Mapped content to %d-char candidate", len(raw))
	return candidate, raw, nil
}

// MapRecord maps an intermediate record, serialized as JSON, onto the schema.
func (m *Mapper) MapRecord(ctx context.Context, schemaText string, record models.IntermediateRecord) (any, string, error) {
	content, err := json.Marshal(record)
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize intermediate record: %w", err)
	}
	return m.Map(ctx, schemaText, string(content))
}
