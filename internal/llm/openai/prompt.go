package openai

import "heatpump-backend/internal/llm"

// Message represents an OpenAI chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildPrompt creates the chat messages for a field extraction request.
func BuildPrompt(text string) []Message {
	return []Message{
		{Role: "system", Content: llm.SystemPrompt},
		{Role: "user", Content: llm.ExtractionPrompt(text)},
	}
}
