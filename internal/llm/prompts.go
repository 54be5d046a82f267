package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/extraction_v1.txt
var extractionPromptV1 string

// SystemPrompt is sent as the system message with every extraction request.
const SystemPrompt = "You are an expert in analysing building projects and sizing heating installations. You always answer with valid JSON only."

// ExtractionPrompt renders the user message for the given document text.
func ExtractionPrompt(text string) string {
	return strings.Replace(extractionPromptV1, "{{DOCUMENT_TEXT}}", text, 1)
}
