// Package ai streams answers from an Ollama-compatible inference server.
package ai

import "time"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one prompt submission. When Chat is set, or Messages is not
// empty, the chat endpoint is used and Prompt is appended as the final user
// message.
type Request struct {
	Model    string
	Prompt   string
	System   string
	Chat     bool
	Messages []ChatMessage
	Options  map[string]any
}

// IsChat reports whether the request goes to the chat endpoint.
func (r Request) IsChat() bool {
	return r.Chat || len(r.Messages) > 0
}

// generateRequest is the body posted to /api/generate.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// chatRequest is the body posted to /api/chat.
type chatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// Model is one entry of /api/tags.
type Model struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

type versionResponse struct {
	Version string `json:"version"`
}
