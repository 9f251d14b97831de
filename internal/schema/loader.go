package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Schema is a parsed JSON Schema document. Raw keeps the caller's text
// verbatim so it can be embedded in prompts and recompiled for validation.
type Schema struct {
	Raw   string
	Value map[string]any
}

// ParseError is returned when a schema document is not a JSON object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNotObject = errors.New("schema must be a JSON object")

// Load parses a schema document. Only JSON syntax and the top-level object
// shape are checked here; keyword semantics are exercised by Validate.
func Load(text string) (*Schema, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, &ParseError{Raw: text, Err: describeSyntaxError(text, err)}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ParseError{Raw: text, Err: errNotObject}
	}
	return &Schema{Raw: text, Value: obj}, nil
}

// describeSyntaxError adds line and column to json syntax errors so a user
// can find the problem in a pasted schema.
func describeSyntaxError(text string, err error) error {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}
	offset := int(syntaxErr.Offset)
	if offset > len(text) {
		offset = len(text)
	}
	line := strings.Count(text[:offset], "\n") + 1
	column := offset - strings.LastIndex(text[:offset], "\n")
	return fmt.Errorf("line %d, column %d: %w", line, column, err)
}
