package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/models"
)

// Structurer runs the schema-free first pass that turns free text into a
// loosely keyed JSON object.
type Structurer struct {
	client Completer
	model  string
	log    logger.Logger
}

// NewStructurer returns a Structurer. An empty model uses the client default.
func NewStructurer(client Completer, model string, log logger.Logger) *Structurer {
	return &Structurer{client: client, model: model, log: log}
}

// Structure sends text to the model and returns the JSON object it produced,
// unmodified. Service errors are returned as-is; a response that is not a
// JSON object is a *ParseError.
func (s *Structurer) Structure(ctx context.Context, text string) (models.IntermediateRecord, error) {
	raw, err := s.client.Complete(ctx, Request{
		Stage:       StageStructuring,
		System:      StructuringInstruction(),
		User:        text,
		Model:       s.model,
		Temperature: Temperature,
	})
	if err != nil {
		return nil, err
	}

	var record models.IntermediateRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, &ParseError{Stage: StageStructuring, Raw: raw, Err: err}
	}
	if record == nil {
		return nil, &ParseError{Stage: StageStructuring, Raw: raw, Err: fmt.Errorf("expected a JSON object, got null")}
	}

	s.log.Debug("Structured text into %d top-level keys", len(record))
	return record, nil
}
