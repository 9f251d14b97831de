package llm

import "strings"

// PromptVersion identifies the instruction text below. Bump it whenever either
// instruction changes so logged runs can be tied to the prompt that produced
// them.
const PromptVersion = "2026-10.1"

// Temperature used for both stages. Extraction should be repeatable.
const Temperature = 0.0

const structuringInstruction = `You are a data structuring assistant. Convert the user's text into a single JSON object without applying any schema or formatting constraints. Capture all meaningful information in a normalized structure.

Output only a JSON object, using keys such as:
- name
- author
- description
- inputs (each with name, description, required, default)
- outputs (each with description AND value)
- steps (each with name, id, type, run or uses, shell, if, with)
- branding (color, icon)

If an output is described as coming from a step (for example "the URL from the deploy step"), set its value using the syntax ${{ steps.<step_id>.outputs.<output_name> }}.

Do not validate against any schema. Only structure the meaning.`

const mappingTemplate = `You are a schema application assistant. Map the user's data to a JSON object that strictly follows this JSON Schema:

{{SCHEMA}}

Rules:
- Only include properties defined in the schema.
- Ensure every required field is present.
- If 'runs.using' is 'composite', every entry in 'outputs' MUST contain both 'description' and 'value'.
- If an output references a step, use the syntax ${{ steps.<step_id>.outputs.<output_name> }} for its value.

Output only the final JSON object.`

// StructuringInstruction returns the system instruction for the intermediate
// structuring pass.
func StructuringInstruction() string {
	return structuringInstruction
}

// MappingInstruction returns the system instruction for the schema mapping
// pass with schemaText embedded verbatim.
func MappingInstruction(schemaText string) string {
	return strings.Replace(mappingTemplate, "{{SCHEMA}}", schemaText, 1)
}
