package schema

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Epistemic-Technology/schemacast/models"
)

const resourceURL = "schema.json"

// CompileError is returned when a syntactically valid schema document is not
// a usable JSON Schema (for example "type": 5).
type CompileError struct {
	Raw string
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema could not be compiled: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ValidationError describes the first violation found in a candidate.
// Value holds the candidate as given, unmodified.
type ValidationError struct {
	Message      string
	InstancePath string
	KeywordPath  string
	Value        any
}

func (e *ValidationError) Error() string {
	path := e.InstancePath
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

// Outcome converts the error into the caller-facing validation outcome.
func (e *ValidationError) Outcome() models.ValidationOutcome {
	return models.ValidationOutcome{
		Valid:        false,
		Message:      e.Message,
		InstancePath: e.InstancePath,
		KeywordPath:  e.KeywordPath,
	}
}

// Compile turns the schema into a validator.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, strings.NewReader(s.Raw)); err != nil {
		return nil, &CompileError{Raw: s.Raw, Err: err}
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, &CompileError{Raw: s.Raw, Err: err}
	}
	return compiled, nil
}

// Validate checks candidate against the schema. It returns nil when the
// candidate conforms, *ValidationError naming the first violation when it
// does not, and *CompileError when the schema itself is unusable.
// candidate must be a value produced by encoding/json decoding.
func Validate(s *Schema, candidate any) error {
	compiled, err := s.Compile()
	if err != nil {
		return err
	}
	return ValidateCompiled(compiled, candidate)
}

// ValidateCompiled is Validate for an already compiled schema.
func ValidateCompiled(compiled *jsonschema.Schema, candidate any) error {
	err := compiled.Validate(candidate)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Message: err.Error(), Value: candidate}
	}
	first := firstLeaf(verr)
	return &ValidationError{
		Message:      first.Message,
		InstancePath: first.InstanceLocation,
		KeywordPath:  first.KeywordLocation,
		Value:        candidate,
	}
}

// firstLeaf walks to the first, most specific cause. The root error only
// says the document did not validate; the leaves name the keyword that failed.
func firstLeaf(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}
