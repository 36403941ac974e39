package llm

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral completion input.
type CompletionRequest struct {
	// Model overrides the adapter's default model.
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	// SystemPrompt is sent as a leading system message.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Temperature of 0 means use the adapter default.
	Temperature float64 `json:"temperature,omitempty"`
	// MaxTokens of 0 means use the adapter default (or the provider's).
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse is the provider-neutral completion output.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	// FinishReason is the provider's stop reason ("stop", "length", ...).
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Truncated reports whether the provider stopped on its token limit.
func (r *CompletionResponse) Truncated() bool {
	return r.FinishReason == "length"
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AllMessages returns the system prompt, when set, followed by Messages.
func (r CompletionRequest) AllMessages() []Message {
	if r.SystemPrompt == "" {
		return r.Messages
	}
	out := make([]Message, 0, len(r.Messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: r.SystemPrompt})
	return append(out, r.Messages...)
}
