package types

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	// Speaker role: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Message text.
	// example: Hi, who are you?
	Content string `json:"content" example:"Hi, who are you?"`
}

// ChatRequest is the payload for POST /v1/chat.
type ChatRequest struct {
	// Conversation in order. A leading system message replaces the house persona.
	Messages []ChatMessage `json:"messages"`
	// Maximum number of new tokens to generate. Omit for the server default.
	// example: 128
	MaxNewTokens *int `json:"max_new_tokens,omitempty" example:"128"`
	// Sampling temperature. Omit for the server default; 0 is honored.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability. Omit for the server default.
	// example: 0.95
	TopP *float64 `json:"top_p,omitempty" example:"0.95"`
	// Optional stop sequences. The reply is cut at the first one found, checked in list order.
	// example: ["\nUSER:"]
	Stop []string `json:"stop,omitempty" example:"[\"\\nUSER:\"]"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	// Identifier for this completion.
	// example: 4b0c6c0e-2d5f-4c1a-9d7e-3c2f1d7b8a90
	ID string `json:"id" example:"4b0c6c0e-2d5f-4c1a-9d7e-3c2f1d7b8a90"`
	// Assistant reply, trimmed.
	// example: Hello! I'm Bloomed Terminal. How can I help?
	Content string `json:"content" example:"Hello! I'm Bloomed Terminal. How can I help?"`
}

// ModelInfo describes the configured model, returned by GET /v1/model.
type ModelInfo struct {
	// Backend kind: remote or local.
	// example: remote
	Backend string `json:"backend" example:"remote"`
	// example: DeepSeek AI
	Provider string `json:"provider" example:"DeepSeek AI"`
	// example: deepseek-chat
	Model string `json:"model" example:"deepseek-chat"`
	// Endpoint base URL (remote only).
	// example: https://api.deepseek.com
	BaseURL string `json:"base_url,omitempty" example:"https://api.deepseek.com"`
	// Model directory or file (local only).
	ModelPath string `json:"model_path,omitempty"`
	// Default max new tokens.
	// example: 256
	MaxTokens int `json:"max_tokens" example:"256"`
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// example: 0.95
	TopP float64 `json:"top_p" example:"0.95"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
