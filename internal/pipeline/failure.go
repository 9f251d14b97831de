package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Epistemic-Technology/schemacast/internal/config"
	"github.com/Epistemic-Technology/schemacast/internal/documents"
	"github.com/Epistemic-Technology/schemacast/internal/llm"
	"github.com/Epistemic-Technology/schemacast/internal/schema"
)

// FailureKind classifies why a run failed.
type FailureKind string

const (
	KindConfiguration      FailureKind = "configuration_error"
	KindDocumentRead       FailureKind = "document_read_error"
	KindDecode             FailureKind = "decode_error"
	KindSchemaParse        FailureKind = "schema_parse_error"
	KindExtraction         FailureKind = "extraction_error"
	KindRateLimited        FailureKind = "rate_limited"
	KindTimeout            FailureKind = "timeout"
	KindModelOutputInvalid FailureKind = "model_output_invalid"
	KindSchemaViolation    FailureKind = "schema_violation"
)

// Failure is the typed error a run ends with. It keeps whatever raw context
// the failing stage had: the offending schema or model text, and for schema
// violations the candidate that did not conform.
type Failure struct {
	Kind         FailureKind `json:"kind"`
	Stage        State       `json:"stage"`
	Message      string      `json:"message"`
	Raw          string      `json:"raw,omitempty"`
	Candidate    any         `json:"candidate,omitempty"`
	InstancePath string      `json:"instance_path,omitempty"`
	Err          error       `json:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", f.Stage, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsKind reports whether err is a *Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// classify converts a stage error into a Failure.
func classify(stage State, err error) *Failure {
	f := &Failure{Stage: stage, Message: err.Error(), Err: err}

	var (
		existing   *Failure
		confErr    *config.ConfigurationError
		readErr    *documents.DocumentReadError
		typeErr    *documents.UnsupportedTypeError
		decodeErr  *documents.DecodeError
		schemaErr  *schema.ParseError
		compileErr *schema.CompileError
		invalidErr *schema.ValidationError
		rateErr    *llm.RateLimitError
		timeoutErr *llm.TimeoutError
		parseErr   *llm.ParseError
		serviceErr *llm.ServiceError
	)

	switch {
	case errors.As(err, &existing):
		return existing
	case errors.As(err, &confErr):
		f.Kind = KindConfiguration
	case errors.As(err, &readErr), errors.As(err, &typeErr):
		f.Kind = KindDocumentRead
	case errors.As(err, &decodeErr):
		f.Kind = KindDecode
	case errors.As(err, &schemaErr):
		f.Kind = KindSchemaParse
		f.Raw = schemaErr.Raw
	case errors.As(err, &compileErr):
		f.Kind = KindSchemaParse
		f.Raw = compileErr.Raw
	case errors.As(err, &invalidErr):
		f.Kind = KindSchemaViolation
		f.Message = invalidErr.Message
		f.Candidate = invalidErr.Value
		f.InstancePath = invalidErr.InstancePath
	case errors.As(err, &rateErr):
		f.Kind = KindRateLimited
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		f.Kind = KindTimeout
	case errors.As(err, &parseErr):
		f.Raw = parseErr.Raw
		if stage == StateMapping {
			f.Kind = KindModelOutputInvalid
		} else {
			f.Kind = KindExtraction
		}
	case errors.As(err, &serviceErr):
		f.Kind = KindExtraction
	default:
		f.Kind = KindExtraction
	}
	return f
}
