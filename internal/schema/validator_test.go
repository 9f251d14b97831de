package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, text string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(text), &v))
	return v
}

func TestValidate(t *testing.T) {
	s, err := Load(personSchema)
	require.NoError(t, err)

	tests := []struct {
		name         string
		candidate    string
		valid        bool
		wantInPath   string
		wantInReason string
	}{
		{name: "conforming", candidate: `{"name":"Jane Doe","age":29}`, valid: true},
		{name: "extra properties allowed by default", candidate: `{"name":"Jane Doe","age":29,"role":"Engineer"}`, valid: true},
		{name: "missing required age", candidate: `{"name":"Jane Doe"}`, wantInReason: "age"},
		{name: "wrong type", candidate: `{"name":5,"age":29}`, wantInPath: "/name", wantInReason: "string"},
		{name: "not an object", candidate: `["Jane Doe", 29]`, wantInReason: "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := decode(t, tt.candidate)
			err := Validate(s, candidate)
			if tt.valid {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Contains(t, verr.Message, tt.wantInReason)
			if tt.wantInPath != "" {
				assert.Equal(t, tt.wantInPath, verr.InstancePath)
			}
			assert.Equal(t, candidate, verr.Value, "the non-conforming candidate must be kept as-is")

			outcome := verr.Outcome()
			assert.False(t, outcome.Valid)
			assert.Equal(t, verr.Message, outcome.Message)
		})
	}
}

func TestValidate_NestedAndEnum(t *testing.T) {
	s, err := Load(`{
		"type": "object",
		"required": ["runs"],
		"properties": {
			"runs": {
				"type": "object",
				"required": ["using"],
				"properties": {"using": {"enum": ["composite", "node20", "docker"]}}
			},
			"outputs": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"required": ["description", "value"]
				}
			}
		}
	}`)
	require.NoError(t, err)

	assert.NoError(t, Validate(s, decode(t, `{"runs":{"using":"composite"},"outputs":{"url":{"description":"Deployed URL","value":"${{ steps.deploy.outputs.url }}"}}}`)))

	err = Validate(s, decode(t, `{"runs":{"using":"python"}}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "/runs/using", verr.InstancePath)

	err = Validate(s, decode(t, `{"runs":{"using":"composite"},"outputs":{"url":{"description":"Deployed URL"}}}`))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "/outputs/url", verr.InstancePath)
	assert.Contains(t, verr.Message, "value")
}

func TestValidate_UncompilableSchema(t *testing.T) {
	s, err := Load(`{"type": 5}`)
	require.NoError(t, err, "any JSON object loads")

	err = Validate(s, decode(t, `{}`))
	var compileErr *CompileError
	assert.True(t, errors.As(err, &compileErr), "expected *CompileError, got %v", err)
}
