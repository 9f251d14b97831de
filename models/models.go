package models

// MediaType identifies how a RawInput's bytes should be turned into text.
type MediaType string

const (
	MediaTypeText    MediaType = "txt"
	MediaTypePDF     MediaType = "pdf"
	MediaTypeUnknown MediaType = "unknown"
)

// RawInput is a caller-supplied document. It is never modified after it is received.
type RawInput struct {
	Data []byte
	Type MediaType
}

// TextInput wraps an already-decoded string as a plain text RawInput.
func TextInput(text string) RawInput {
	return RawInput{Data: []byte(text), Type: MediaTypeText}
}

// SourceInfo describes where a document should be fetched from when the caller
// does not upload the bytes directly.
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// IntermediateRecord is the schema-free JSON object produced by the structuring
// stage. Typical keys are name, author, description, inputs, outputs, steps and
// branding, but nothing about its shape is guaranteed.
type IntermediateRecord map[string]any

// ValidationOutcome reports whether a candidate satisfied the target schema.
// On failure it names the first violation and where it occurred.
type ValidationOutcome struct {
	Valid        bool   `json:"valid"`
	Message      string `json:"message,omitempty"`
	InstancePath string `json:"instance_path,omitempty"`
	KeywordPath  string `json:"keyword_path,omitempty"`
}
